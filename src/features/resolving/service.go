package resolving

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"streamvault/src/features/metrics"
	"streamvault/src/music"
)

// HistoryEntry records the outcome of one resolution call.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TrackID   string    `json:"trackId"`
	URL       string    `json:"url,omitempty"`
	Strategy  string    `json:"strategy"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore persists resolution outcomes. Implemented by the sqlite store.
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// Service is the caller-facing resolution surface: single tracks, collections
// and search.
type Service struct {
	source  Source
	engine  *Engine
	history HistoryStore

	// collectionWorkers bounds concurrent per-track resolutions inside one
	// collection call.
	collectionWorkers int
}

// NewService creates a resolving service. history may be nil.
func NewService(source Source, engine *Engine, history HistoryStore) *Service {
	return &Service{
		source:            source,
		engine:            engine,
		history:           history,
		collectionWorkers: 4,
	}
}

// ResolveTrack resolves a single track id into a playable stream.
func (s *Service) ResolveTrack(ctx context.Context, id string) (music.ResolvedStream, error) {
	requestID := uuid.New().String()
	started := time.Now()
	slog.Debug("Resolving track", "request", requestID, "track", id)

	track, body, err := s.source.Track(ctx, id)
	if err != nil {
		s.record(ctx, id, "", "none", "metadata_error")
		metrics.Resolutions.WithLabelValues("none", "error").Inc()
		return music.ResolvedStream{}, fmt.Errorf("failed to fetch track metadata: %w", err)
	}
	if err := track.Validate(); err != nil {
		return music.ResolvedStream{}, music.WrapError(music.KindValidation, err)
	}

	stream, strategy, err := s.engine.Resolve(ctx, track, body)
	metrics.ResolutionDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.record(ctx, id, "", "none", "unavailable")
		metrics.Resolutions.WithLabelValues("none", "unavailable").Inc()
		slog.Warn("Track unavailable", "request", requestID, "track", track.DisplayName())
		return music.ResolvedStream{}, err
	}

	s.record(ctx, id, stream.URL, strategy, "ok")
	metrics.Resolutions.WithLabelValues(strategy, "ok").Inc()
	slog.Info("Track resolved", "request", requestID, "track", track.DisplayName(), "strategy", strategy, "duration", time.Since(started))
	return stream, nil
}

// ResolveCollection resolves every track of an album, playlist or artist.
// Individual failures are skipped; the call fails only when nothing resolves.
func (s *Service) ResolveCollection(ctx context.Context, id string, kind music.CollectionKind) ([]music.ResolvedStream, error) {
	collection, err := s.source.Collection(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", kind, id, err)
	}

	results := make([]*music.ResolvedStream, len(collection.Tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.collectionWorkers)
	for i, track := range collection.Tracks {
		i, track := i, track
		g.Go(func() error {
			stream, strategy, err := s.engine.Resolve(gctx, track, "")
			if err != nil {
				// Skip and continue; one bad item must not sink the batch.
				slog.Warn("Skipping unresolvable track in collection", "collection", id, "track", track.ID, "error", err)
				metrics.Resolutions.WithLabelValues("none", "skipped").Inc()
				return nil
			}
			metrics.Resolutions.WithLabelValues(strategy, "ok").Inc()
			results[i] = &stream
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make([]music.ResolvedStream, 0, len(results))
	for _, r := range results {
		if r != nil {
			resolved = append(resolved, *r)
		}
	}
	if len(resolved) == 0 {
		return nil, music.Errorf(music.KindNotFound, "no playable tracks in %s %s", kind, id)
	}
	slog.Info("Collection resolved", "kind", kind, "id", id, "title", collection.Title, "resolved", len(resolved), "total", len(collection.Tracks))
	return resolved, nil
}

// ResolveLink parses a share URL and resolves whatever it references. Album
// links carrying a trackAsin parameter resolve only that track.
func (s *Service) ResolveLink(ctx context.Context, rawURL string) ([]music.ResolvedStream, error) {
	link, err := music.ParseLink(rawURL)
	if err != nil {
		return nil, music.WrapError(music.KindValidation, err)
	}
	if link.IsTrack() {
		id := link.ID
		if link.TrackID != "" {
			id = link.TrackID
		}
		stream, err := s.ResolveTrack(ctx, id)
		if err != nil {
			return nil, err
		}
		return []music.ResolvedStream{stream}, nil
	}
	return s.ResolveCollection(ctx, link.ID, link.Kind)
}

// Search proxies a catalog search, returning track metadata only; callers
// resolve the hits they actually want to play.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]music.Track, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.source.Search(ctx, query, limit)
}

// History lists recent resolution outcomes.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.history.List(ctx, limit)
}

func (s *Service) record(ctx context.Context, trackID, url, strategy, outcome string) {
	if s.history == nil {
		return
	}
	entry := HistoryEntry{
		ID:        uuid.New().String(),
		TrackID:   trackID,
		URL:       url,
		Strategy:  strategy,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		slog.Error("Failed to record resolution history", "track", trackID, "error", err)
	}
}
