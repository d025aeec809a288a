package deezer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func validARL() string {
	return strings.Repeat("a1B2c3d4", 24)
}

func TestIsValidShape(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid", validARL(), true},
		{"too short", strings.Repeat("a", 191), false},
		{"too long", strings.Repeat("a", 193), false},
		{"non alphanumeric", strings.Repeat("a", 191) + "-", false},
		{"empty", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsValidShape(c.value); got != c.want {
				t.Errorf("IsValidShape(%d chars) = %v, want %v", len(c.value), got, c.want)
			}
		})
	}
}

// fakeGetter replays scripted responses, recording the URLs requested.
type fakeGetter struct {
	urls      []string
	responses []fakeResponse
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

func (f *fakeGetter) GetText(ctx context.Context, url string, headers map[string]string) (int, string, error) {
	f.urls = append(f.urls, url)
	if len(f.responses) == 0 {
		return 0, "", errors.New("no scripted response")
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r.status, r.body, r.err
}

func TestNewARLFetcherRequiresSource(t *testing.T) {
	if _, err := NewARLFetcher(&fakeGetter{}, ""); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestGetStaticSource(t *testing.T) {
	getter := &fakeGetter{}
	fetcher, err := NewARLFetcher(getter, validARL())
	if err != nil {
		t.Fatal(err)
	}
	value, err := fetcher.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if value != validARL() {
		t.Error("static source should return its configured value")
	}
	if len(getter.urls) != 0 {
		t.Error("static source must not hit the network")
	}
}

func TestFetchFromURLCachesWithinFreshness(t *testing.T) {
	getter := &fakeGetter{responses: []fakeResponse{{status: 200, body: validARL() + "\n"}}}
	fetcher, err := NewARLFetcher(getter, "https://arl.example.com/current")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1_700_000_000, 0)
	fetcher.now = func() time.Time { return now }

	ctx := context.Background()
	first, err := fetcher.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != validARL() {
		t.Errorf("expected trimmed arl, got %q", first)
	}

	// Within the freshness window the cached value is reused.
	now = now.Add(29 * time.Minute)
	if _, err := fetcher.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if len(getter.urls) != 1 {
		t.Errorf("expected 1 fetch inside freshness window, got %d", len(getter.urls))
	}

	// Past the window it re-fetches.
	getter.responses = []fakeResponse{{status: 200, body: validARL()}}
	now = now.Add(2 * time.Minute)
	if _, err := fetcher.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if len(getter.urls) != 2 {
		t.Errorf("expected re-fetch after freshness window, got %d", len(getter.urls))
	}
}

func TestFetchFromURLRejectsBadShape(t *testing.T) {
	getter := &fakeGetter{responses: []fakeResponse{{status: 200, body: "not-an-arl"}}}
	fetcher, err := NewARLFetcher(getter, "https://arl.example.com/current")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fetcher.Get(context.Background()); err == nil {
		t.Fatal("expected failure for malformed value")
	}
	if len(getter.urls) != maxFetchAttempts {
		t.Errorf("expected %d attempts, got %d", maxFetchAttempts, len(getter.urls))
	}
}

func TestFetchFromURLExhaustsAttempts(t *testing.T) {
	getter := &fakeGetter{responses: []fakeResponse{{status: 503}}}
	fetcher, err := NewARLFetcher(getter, "https://arl.example.com/current")
	if err != nil {
		t.Fatal(err)
	}
	_, err = fetcher.Get(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error should name the attempt count, got %v", err)
	}
}

func TestRotateAppendsForceParameter(t *testing.T) {
	getter := &fakeGetter{responses: []fakeResponse{{status: 200, body: validARL()}}}
	fetcher, err := NewARLFetcher(getter, "https://arl.example.com/current?site=a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fetcher.Rotate(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if len(getter.urls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(getter.urls))
	}
	if !strings.Contains(getter.urls[0], "force=1") {
		t.Errorf("rotation request should carry force=1, got %q", getter.urls[0])
	}
	if !strings.Contains(getter.urls[0], "site=a") {
		t.Errorf("rotation must keep existing query parameters, got %q", getter.urls[0])
	}
}

func TestBuildRequestURLFallback(t *testing.T) {
	got := buildRequestURL("https://arl.example.com/current", false)
	if got != "https://arl.example.com/current" {
		t.Errorf("non-forced request should use the source unchanged, got %q", got)
	}

	// A source url.Parse cannot handle still gets the parameter appended.
	got = buildRequestURL("https://arl.example.com/%zz", true)
	if !strings.HasSuffix(got, "force=1") {
		t.Errorf("fallback concat should append force=1, got %q", got)
	}
}

func TestSetSourceInvalidatesOnChange(t *testing.T) {
	getter := &fakeGetter{responses: []fakeResponse{{status: 200, body: validARL()}}}
	fetcher, err := NewARLFetcher(getter, "https://arl.example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fetcher.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := fetcher.SetSource("https://arl.example.com/b"); err != nil {
		t.Fatal(err)
	}
	getter.responses = []fakeResponse{{status: 200, body: validARL()}}
	if _, err := fetcher.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(getter.urls) != 2 {
		t.Errorf("source change should drop the cache, got %d fetches", len(getter.urls))
	}
	if err := fetcher.SetSource(""); err == nil {
		t.Error("expected error for empty source")
	}
}
