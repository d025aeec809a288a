// Package spotify implements the derived-token service adapters: secret
// extraction from the obfuscated web-player bundle, the time-based code that
// signs token requests, and the token tracker built on both.
package spotify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"streamvault/src/infra/extract"
	"streamvault/src/music"
)

const (
	// DefaultLandingURL is the page whose script tags reference the bundle.
	DefaultLandingURL = "https://open.spotify.com/"
	// DefaultTokenURL is the endpoint the derived time code authorizes.
	DefaultTokenURL = "https://open.spotify.com/api/token"

	scriptMarker    = "mobile-web-player"
	vendorMarker    = "vendor"
	fallbackVersion = "8"

	totpPeriod = 30
	totpDigits = 6
)

// The bundle has shipped the secret both as a plain JSON field and behind
// minified helper calls. Both shapes are matched; first hit wins.
var (
	secretPattern  = regexp.MustCompile(`(?:"secret"\s*:\s*|secret\s*=|\{secret:ze\(e\[Qe\(|secret:ze\(e\[Qe\()\s*\[?(\d+(?:,\d+)*)\]?`)
	versionPattern = regexp.MustCompile(`(?:"version"|version)\s*[:=]\s*(?:e\[Qe\()?\((\d+(?:,\d+)*)\)`)
)

// SecretDescriptor is the immutable result of one extraction cycle.
type SecretDescriptor struct {
	Secret  []byte
	Version string
}

// TextGetter is the transport the deriver needs.
type TextGetter interface {
	GetText(ctx context.Context, url string, headers map[string]string) (int, string, error)
}

// Deriver recovers the secret and protocol version from the publicly served
// client bundle. Derivation holds no cache of its own: each call re-derives,
// gated by the TTL of the token scope that depends on it.
type Deriver struct {
	client     TextGetter
	extractor  extract.Extractor
	landingURL string
	tokenURL   string

	now func() time.Time
}

// NewDeriver creates a deriver against the default landing and token URLs.
func NewDeriver(client TextGetter, extractor extract.Extractor) *Deriver {
	return &Deriver{
		client:     client,
		extractor:  extractor,
		landingURL: DefaultLandingURL,
		tokenURL:   DefaultTokenURL,
		now:        time.Now,
	}
}

// Derive fetches the landing page, walks its candidate scripts and returns the
// first secret found. Any stage failing means derivation is unavailable; no
// partial or stale secret is ever returned.
func (d *Deriver) Derive(ctx context.Context) (*SecretDescriptor, error) {
	status, html, err := d.client.GetText(ctx, d.landingURL, nil)
	if err != nil {
		return nil, music.WrapError(music.KindTransient, fmt.Errorf("failed to fetch landing page: %w", err))
	}
	if status != 200 {
		return nil, music.Errorf(music.KindTransient, "landing page returned status %d", status)
	}

	var candidates []string
	for _, src := range d.extractor.ScriptSources(html) {
		if strings.Contains(src, scriptMarker) && !strings.Contains(src, vendorMarker) {
			candidates = append(candidates, src)
		}
	}
	slog.Debug("Found candidate bundle scripts", "count", len(candidates))
	if len(candidates) == 0 {
		return nil, music.Errorf(music.KindDerivation, "no candidate script found on landing page")
	}

	for _, scriptURL := range candidates {
		descriptor, err := d.extractFromScript(ctx, scriptURL)
		if err != nil {
			slog.Debug("Script yielded no secret", "url", scriptURL, "error", err)
			continue
		}
		slog.Debug("Extracted secret and version", "url", scriptURL, "version", descriptor.Version)
		return descriptor, nil
	}
	return nil, music.Errorf(music.KindDerivation, "no secret array found in any candidate script")
}

func (d *Deriver) extractFromScript(ctx context.Context, scriptURL string) (*SecretDescriptor, error) {
	status, script, err := d.client.GetText(ctx, scriptURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch script: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("script returned status %d", status)
	}

	m := secretPattern.FindStringSubmatch(script)
	if m == nil {
		return nil, fmt.Errorf("no secret array in script")
	}
	parts := strings.Split(m[1], ",")
	secret := make([]byte, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("malformed secret array element %q: %w", part, err)
		}
		secret[i] = byte(n)
	}

	version := fallbackVersion
	if vm := versionPattern.FindStringSubmatch(script); vm != nil {
		version = strings.ReplaceAll(vm[1], `"`, "")
	}
	return &SecretDescriptor{Secret: secret, Version: version}, nil
}

// TokenRequestURL derives the secret and builds the token-minting URL with the
// current time code, protocol version and millisecond timestamp.
func (d *Deriver) TokenRequestURL(ctx context.Context) (string, error) {
	descriptor, err := d.Derive(ctx)
	if err != nil {
		return "", err
	}
	key := KeyMaterial(TransformSecret(descriptor.Secret))
	code, err := GenerateTOTPAt(key, d.now(), totpPeriod, totpDigits)
	if err != nil {
		return "", music.WrapError(music.KindDerivation, err)
	}
	ts := d.now().UnixMilli()
	return fmt.Sprintf("%s?reason=init&productType=web-player&totp=%s&totpVer=%s&ts=%d",
		d.tokenURL, code, descriptor.Version, ts), nil
}
