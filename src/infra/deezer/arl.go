// Package deezer implements the cookie-session service adapters: the rotating
// remote ARL credential and the session token handshake.
package deezer

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"streamvault/src/features/credentials"
	"streamvault/src/music"
)

const (
	arlFreshness      = 30 * time.Minute
	maxFetchAttempts  = 3
	arlShapePattern   = `^[a-zA-Z0-9]{192}$`
	rotationParamName = "force"
)

var arlShape = regexp.MustCompile(arlShapePattern)

// IsValidShape reports whether a fetched value looks like a real ARL: exactly
// 192 alphanumeric characters.
func IsValidShape(value string) bool {
	return arlShape.MatchString(value)
}

// TextGetter is the transport the fetcher needs: GET a URL, get status + body.
type TextGetter interface {
	GetText(ctx context.Context, url string, headers map[string]string) (int, string, error)
}

// ARLFetcher resolves the ARL credential. The configured source is either a
// static value or a URL behind which the value rotates externally.
type ARLFetcher struct {
	client TextGetter

	mu        sync.Mutex
	source    string
	cached    string
	lastFetch time.Time

	now func() time.Time
}

// NewARLFetcher creates a fetcher. source must be non-empty: either the ARL
// itself or an http(s) URL serving the current value.
func NewARLFetcher(client TextGetter, source string) (*ARLFetcher, error) {
	if source == "" {
		return nil, music.Errorf(music.KindConfiguration, "arl must be set")
	}
	return &ARLFetcher{client: client, source: source, now: time.Now}, nil
}

// Get returns the current ARL, fetching from the URL when so configured.
func (f *ARLFetcher) Get(ctx context.Context) (string, error) {
	f.mu.Lock()
	source := f.source
	f.mu.Unlock()
	if strings.HasPrefix(source, "http") {
		return f.fetchFromURL(ctx, false)
	}
	return source, nil
}

// Refresh implements credentials.Source.
func (f *ARLFetcher) Refresh(ctx context.Context) (credentials.Credential, error) {
	value, err := f.Get(ctx)
	if err != nil {
		return credentials.Credential{}, err
	}
	kind := credentials.SourceStatic
	if strings.HasPrefix(f.Source(), "http") {
		kind = credentials.SourceRemoteURL
	}
	return credentials.Credential{
		Scope:  credentials.ScopeRemote,
		Value:  value,
		Source: kind,
	}, nil
}

// Rotate clears the cache and, for URL sources, re-fetches with the rotation
// request parameter when force is set. Static sources return their configured
// value after the cache clear.
func (f *ARLFetcher) Rotate(ctx context.Context, force bool) (string, error) {
	f.mu.Lock()
	source := f.source
	f.mu.Unlock()
	if source == "" {
		return "", music.Errorf(music.KindConfiguration, "cannot rotate empty arl configuration")
	}
	f.Invalidate()
	if !strings.HasPrefix(source, "http") {
		slog.Debug("Static arl configured, returning existing value after cache clear")
		return source, nil
	}
	return f.fetchFromURL(ctx, force)
}

// Invalidate clears the fetched value and its timestamp.
func (f *ARLFetcher) Invalidate() {
	f.mu.Lock()
	f.cached = ""
	f.lastFetch = time.Time{}
	f.mu.Unlock()
	slog.Info("arl cache has been cleared")
}

// SetSource swaps the configured value or URL, invalidating on change.
func (f *ARLFetcher) SetSource(source string) error {
	if source == "" {
		return music.Errorf(music.KindConfiguration, "arl must be set")
	}
	f.mu.Lock()
	changed := f.source != source
	f.source = source
	f.mu.Unlock()
	if changed {
		f.Invalidate()
	}
	return nil
}

// Source returns the configured source string.
func (f *ARLFetcher) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

func (f *ARLFetcher) fetchFromURL(ctx context.Context, forceRotation bool) (string, error) {
	f.mu.Lock()
	if !forceRotation && f.cached != "" && f.now().Before(f.lastFetch.Add(arlFreshness)) {
		value := f.cached
		f.mu.Unlock()
		return value, nil
	}
	source := f.source
	f.mu.Unlock()

	requestURL := buildRequestURL(source, forceRotation)
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		status, body, err := f.client.GetText(ctx, requestURL, nil)
		if err != nil {
			slog.Error("Error fetching arl from URL", "force", forceRotation, "attempt", attempt, "error", err)
			continue
		}
		if status != 200 {
			slog.Warn("Failed to fetch arl from URL", "force", forceRotation, "status", status, "attempt", attempt)
			continue
		}
		value := strings.TrimSpace(body)
		if !IsValidShape(value) {
			slog.Warn("Fetched arl value is invalid", "length", len(value), "attempt", attempt)
			continue
		}
		f.mu.Lock()
		f.cached = value
		f.lastFetch = f.now()
		f.mu.Unlock()
		if forceRotation {
			slog.Info("Fetched rotated arl from URL")
		} else {
			slog.Info("Fetched arl from URL", "length", len(value))
		}
		return value, nil
	}
	return "", music.Errorf(music.KindTransient, "failed to fetch arl from URL after %d attempts", maxFetchAttempts)
}

// buildRequestURL appends the rotation request parameter when forcing. Falls
// back to manual concatenation if the configured URL does not parse.
func buildRequestURL(source string, forceRotation bool) string {
	if !forceRotation {
		return source
	}
	u, err := url.Parse(source)
	if err != nil {
		slog.Warn("Failed to append force parameter to arl URL, falling back to manual concat", "error", err)
		sep := "?"
		if strings.Contains(source, "?") {
			sep = "&"
		}
		return source + sep + rotationParamName + "=1"
	}
	q := u.Query()
	q.Set(rotationParamName, "1")
	u.RawQuery = q.Encode()
	return u.String()
}
