package resolving

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streamvault/src/features/metrics"
	"streamvault/src/infra/extract"
	"streamvault/src/music"
)

// Source is the upstream surface the engine walks. Implemented by the catalog
// adapters under infra.
type Source interface {
	Track(ctx context.Context, id string) (music.Track, string, error)
	Collection(ctx context.Context, kind music.CollectionKind, id string) (music.Collection, error)
	Search(ctx context.Context, query string, limit int) ([]music.Track, error)
	FetchStream(ctx context.Context, endpoint, id string, params map[string]string) (int, string, error)
	StreamEndpointNames() []string
}

// ErrUnavailable is returned when every strategy has been exhausted. Callers
// surface it as "track unavailable" for that single item.
var ErrUnavailable = music.Errorf(music.KindNotFound, "track unavailable")

const (
	primaryRetries   = 3
	alternateRetries = 1
	backoffStep      = 300 * time.Millisecond
)

// formatScore weights candidate URLs by container preference. mp4/m4a score
// zero here: the downstream container layer does not demux them, so they are
// only accepted when a source hands them over as a direct metadata field.
func formatScore(ext string) int {
	switch ext {
	case "mp3":
		return 100
	case "m3u8":
		return 95
	case "ogg":
		return 90
	case "flac":
		return 85
	case "wav":
		return 80
	}
	return 0
}

// candidate is a transient stream option produced while scanning one response.
type candidate struct {
	url   string
	score int
	drm   bool
}

// defaultQualities is used by the quality-forced retry when metadata does not
// advertise its own list.
var defaultQualities = []string{"high", "medium", "low"}

// Engine resolves one track at a time through an ordered strategy chain. It
// holds no cross-call mutable state; calls for different tracks may run fully
// in parallel.
type Engine struct {
	source    Source
	extractor extract.Extractor

	// onForbidden is invoked once per call when an upstream 403 suggests the
	// remote credential was rotated out from under us.
	onForbidden func(ctx context.Context)

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine over the given source.
func NewEngine(source Source, extractor extract.Extractor, onForbidden func(ctx context.Context)) *Engine {
	return &Engine{
		source:      source,
		extractor:   extractor,
		onForbidden: onForbidden,
		sleep:       sleepCtx,
	}
}

// sleepCtx waits for the duration or until the context is done, so retry
// backoff never outlives a shutdown or request timeout.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resolution carries the per-call state of one engine run.
type resolution struct {
	track     music.Track
	bodies    []string
	forbidden bool
}

// Resolve walks the strategy chain for the track and returns the resolved
// stream plus the name of the winning strategy. rawBody is the track's
// metadata response, kept for the final extension scan.
func (e *Engine) Resolve(ctx context.Context, track music.Track, rawBody string) (music.ResolvedStream, string, error) {
	r := &resolution{track: track}
	if rawBody != "" {
		r.bodies = append(r.bodies, rawBody)
	}

	type strategy struct {
		name string
		run  func(ctx context.Context, r *resolution) (string, error)
	}
	strategies := []strategy{
		{"direct", e.direct},
		{"stream_endpoint", e.primaryEndpoint},
		{"alternate_endpoints", e.alternateEndpoints},
		{"metadata", e.metadataFallback},
		{"quality_forced", e.qualityForced},
		{"extension_scan", e.extensionScan},
	}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return music.ResolvedStream{}, "", err
		}
		url, err := s.run(ctx, r)
		if err != nil {
			// Strategy-local failures are swallowed; the chain advances.
			slog.Debug("Resolution strategy failed", "strategy", s.name, "track", track.ID, "error", err)
			continue
		}
		if url == "" {
			continue
		}
		slog.Info("Resolved stream", "strategy", s.name, "track", track.ID, "format", music.ExtensionOf(url))
		return music.ResolvedStream{
			URL:           url,
			ArtworkURL:    track.ArtworkURL,
			ISRC:          track.ISRC,
			ContainerHint: music.HintFor(url),
		}, s.name, nil
	}
	return music.ResolvedStream{}, "", ErrUnavailable
}

// direct accepts a stream URL already embedded in the track metadata when its
// extension is in the supported set.
func (e *Engine) direct(_ context.Context, r *resolution) (string, error) {
	if r.track.AudioURL != "" && music.IsPlayable(r.track.AudioURL) {
		return r.track.AudioURL, nil
	}
	return "", nil
}

func (e *Engine) primaryEndpoint(ctx context.Context, r *resolution) (string, error) {
	endpoints := e.source.StreamEndpointNames()
	if len(endpoints) == 0 {
		return "", nil
	}
	return e.tryEndpoint(ctx, r, endpoints[0], nil, primaryRetries)
}

func (e *Engine) alternateEndpoints(ctx context.Context, r *resolution) (string, error) {
	endpoints := e.source.StreamEndpointNames()
	for _, endpoint := range endpoints[1:] {
		url, err := e.tryEndpoint(ctx, r, endpoint, nil, alternateRetries)
		if err != nil {
			slog.Debug("Alternate endpoint failed", "endpoint", endpoint, "error", err)
			continue
		}
		if url != "" {
			return url, nil
		}
	}
	return "", nil
}

// tryEndpoint calls one stream endpoint with bounded retries: 5xx responses
// back off linearly and retry, any other non-200 stops the attempt loop.
func (e *Engine) tryEndpoint(ctx context.Context, r *resolution, endpoint string, params map[string]string, retries int) (string, error) {
	for attempt := 0; ; attempt++ {
		status, body, err := e.source.FetchStream(ctx, endpoint, r.track.ID, params)
		if err != nil {
			return "", fmt.Errorf("%s request failed: %w", endpoint, err)
		}
		switch {
		case status == 200:
			r.bodies = append(r.bodies, body)
			return e.pickFromStreamBody(body), nil
		case status == 403 && e.onForbidden != nil && !r.forbidden:
			// One rotation per call: a 403 usually means the upstream rotated
			// the credential we were holding.
			r.forbidden = true
			slog.Warn("Upstream returned 403, requesting credential rotation", "endpoint", endpoint)
			e.onForbidden(ctx)
			continue
		case status >= 500 && attempt < retries:
			metrics.UpstreamRetries.Inc()
			delay := backoffStep * time.Duration(attempt+1)
			slog.Debug("Upstream 5xx, backing off", "endpoint", endpoint, "status", status, "attempt", attempt+1, "delay", delay)
			if err := e.sleep(ctx, delay); err != nil {
				return "", err
			}
		case status >= 500:
			return "", music.Errorf(music.KindTransient, "%s returned status %d after %d attempts", endpoint, status, attempt+1)
		default:
			return "", music.Errorf(music.KindNotFound, "%s returned status %d", endpoint, status)
		}
	}
}

// pickFromStreamBody parses one stream-urls response: the urls object keyed by
// quality wins; otherwise the data[] representations are scored with DRM
// entries filtered out.
func (e *Engine) pickFromStreamBody(body string) string {
	if urlsContent, ok := e.extractor.RawObject(body, "urls"); ok {
		for _, key := range []string{"high", "medium", "low"} {
			if u, ok := e.extractor.String(urlsContent, key); ok && u != "" {
				if formatScore(music.ExtensionOf(u)) > 0 {
					return u
				}
			}
		}
	}

	best := candidate{score: -1}
	for _, entry := range e.extractor.Objects(body, "data") {
		c := e.scanRepresentation(entry)
		if c.drm || c.url == "" || c.score <= 0 {
			continue
		}
		if c.score > best.score {
			best = c
		}
	}
	if best.score > 0 {
		return best.url
	}
	return ""
}

// scanRepresentation inspects one data[] entry. Content-protection markers of
// any kind disqualify it regardless of score.
func (e *Engine) scanRepresentation(entry string) candidate {
	if strings.Contains(entry, "content_protection") ||
		strings.Contains(entry, "contentProtection") ||
		strings.Contains(entry, "pssh") ||
		strings.Contains(entry, `"value":"cenc"`) {
		return candidate{drm: true}
	}
	u, ok := e.extractor.String(entry, "base_url")
	if !ok {
		u, ok = e.extractor.String(entry, "url")
	}
	if !ok || u == "" {
		return candidate{}
	}
	return candidate{url: u, score: formatScore(music.ExtensionOf(u))}
}

// metadataFallback re-fetches plain metadata and accepts a direct playable
// field or a generic url field with a supported extension.
func (e *Engine) metadataFallback(ctx context.Context, r *resolution) (string, error) {
	track, body, err := e.source.Track(ctx, r.track.ID)
	if err != nil {
		return "", err
	}
	r.bodies = append(r.bodies, body)
	if track.AudioURL != "" && music.IsPlayable(track.AudioURL) {
		return track.AudioURL, nil
	}
	if u, ok := e.extractor.String(body, "url"); ok && music.IsPlayable(u) {
		return u, nil
	}
	return "", nil
}

// qualityForced reissues the primary endpoint once per known quality tag, then
// once more forcing an explicit mp3 codec.
func (e *Engine) qualityForced(ctx context.Context, r *resolution) (string, error) {
	endpoints := e.source.StreamEndpointNames()
	if len(endpoints) == 0 {
		return "", nil
	}
	primary := endpoints[0]

	qualities := r.track.Qualities
	if len(qualities) == 0 {
		qualities = defaultQualities
	}
	for _, quality := range qualities {
		url, err := e.tryEndpoint(ctx, r, primary, map[string]string{"quality": quality}, 0)
		if err != nil {
			slog.Debug("Quality-forced attempt failed", "quality", quality, "error", err)
			continue
		}
		if url != "" {
			return url, nil
		}
	}
	url, err := e.tryEndpoint(ctx, r, primary, map[string]string{"codec": "mp3"}, 0)
	if err != nil {
		return "", err
	}
	return url, nil
}

// extensionScan is the last resort: scan every body fetched so far for an
// absolute URL with a supported extension, preferring higher-scoring formats.
func (e *Engine) extensionScan(_ context.Context, r *resolution) (string, error) {
	best := candidate{score: -1}
	for _, body := range r.bodies {
		for _, u := range e.extractor.URLsByExtension(body, music.PlayableExtensions) {
			score := formatScore(music.ExtensionOf(u))
			if score > best.score {
				best = candidate{url: u, score: score}
			}
		}
	}
	if best.url != "" {
		return best.url, nil
	}
	return "", nil
}
