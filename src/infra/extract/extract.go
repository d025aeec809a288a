// Package extract pulls individual fields out of JSON-like or script text
// without a strict parser. The contract is best-effort: first match wins,
// whitespace and missing quotes are tolerated, and lookups that find nothing
// report ok=false instead of failing.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Extractor is the narrow field-extraction capability the rest of the system
// depends on. Isolated behind an interface so a strict parser can replace the
// pattern-based implementation without touching resolution logic.
type Extractor interface {
	// String returns the first string value found for key.
	String(text, key string) (string, bool)
	// Number returns the first integer value found for key.
	Number(text, key string) (int64, bool)
	// RawObject returns the raw body of the first `"key": {...}` occurrence,
	// without the surrounding braces.
	RawObject(text, key string) (string, bool)
	// NumberArray returns the first comma-separated numeric literal assigned
	// to key, bracketed or not.
	NumberArray(text, key string) ([]int, bool)
	// Objects iterates the elements of the first array assigned to key,
	// yielding each element as raw JSON text.
	Objects(text, key string) []string
	// ScriptSources returns the src attributes of all <script src=...> tags.
	ScriptSources(html string) []string
	// URLsByExtension scans for absolute URLs ending in one of the given
	// extensions (query strings allowed).
	URLsByExtension(text string, extensions []string) []string
}

// Regex is the pattern-based Extractor used in production.
type Regex struct{}

// New returns the default pattern-based extractor.
func New() *Regex { return &Regex{} }

var scriptSrcPattern = regexp.MustCompile(`<script[^>]*\ssrc\s*=\s*["']?([^"'\s>]+)`)

func (e *Regex) String(text, key string) (string, bool) {
	// Key may itself appear unquoted in script text.
	p := regexp.MustCompile(`"?` + regexp.QuoteMeta(key) + `"?\s*[:=]\s*"([^"]*)"`)
	if m := p.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

func (e *Regex) Number(text, key string) (int64, bool) {
	p := regexp.MustCompile(`"?` + regexp.QuoteMeta(key) + `"?\s*[:=]\s*(-?\d+)`)
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *Regex) RawObject(text, key string) (string, bool) {
	p := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*\{(.*?)\}`)
	if m := p.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

func (e *Regex) NumberArray(text, key string) ([]int, bool) {
	p := regexp.MustCompile(`"?` + regexp.QuoteMeta(key) + `"?\s*[:=]\s*\[?(\d+(?:\s*,\s*\d+)+)\]?`)
	m := p.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	parts := strings.Split(m[1], ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func (e *Regex) Objects(text, key string) []string {
	arr := gjson.Get(text, key)
	if !arr.IsArray() {
		return nil
	}
	var out []string
	arr.ForEach(func(_, value gjson.Result) bool {
		out = append(out, value.Raw)
		return true
	})
	return out
}

func (e *Regex) ScriptSources(html string) []string {
	var out []string
	for _, m := range scriptSrcPattern.FindAllStringSubmatch(html, -1) {
		out = append(out, m[1])
	}
	return out
}

func (e *Regex) URLsByExtension(text string, extensions []string) []string {
	if len(extensions) == 0 {
		return nil
	}
	alternatives := make([]string, len(extensions))
	for i, ext := range extensions {
		alternatives[i] = regexp.QuoteMeta(ext)
	}
	p := regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:` + strings.Join(alternatives, "|") + `)(?:\?[^\s"'<>\\]*)?`)
	return p.FindAllString(text, -1)
}
