package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"streamvault/src/features/metrics"
)

// Source supplies fresh credential values for one scope. Implementations live
// in the infra adapters (remote fetcher, session handshake, token tracker).
type Source interface {
	Refresh(ctx context.Context) (Credential, error)
}

// SourceFunc adapts a closure into a Source.
type SourceFunc func(ctx context.Context) (Credential, error)

func (f SourceFunc) Refresh(ctx context.Context) (Credential, error) { return f(ctx) }

// Rotator is the extra capability of the remote credential source: rotation on
// demand, independent of expiry.
type Rotator interface {
	Rotate(ctx context.Context, force bool) (string, error)
	Invalidate()
}

// Service owns the per-scope credential caches. One instance is constructed
// per configured service and injected; there are no process-wide singletons.
type Service struct {
	mu      sync.RWMutex
	sources map[Scope]Source
	caches  map[Scope]*Cached[Credential]
	rotator Rotator
}

// NewService creates a lifecycle manager over the given scope sources.
func NewService(sources map[Scope]Source) *Service {
	caches := make(map[Scope]*Cached[Credential], len(sources))
	for scope := range sources {
		caches[scope] = NewCached[Credential]()
	}
	return &Service{sources: sources, caches: caches}
}

// SetRotator wires the remote credential rotator. May be called again when a
// rotatable scope appears through a config reload.
func (s *Service) SetRotator(r Rotator) {
	s.mu.Lock()
	s.rotator = r
	s.mu.Unlock()
}

func (s *Service) currentRotator() Rotator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotator
}

// Scopes lists the configured scopes.
func (s *Service) Scopes() []Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Scope, 0, len(s.sources))
	for scope := range s.sources {
		out = append(out, scope)
	}
	return out
}

// Get returns a valid credential for the scope, refreshing it under
// single-flight when missing or expired. A failed refresh is returned to every
// waiting caller and nothing is cached.
func (s *Service) Get(ctx context.Context, scope Scope) (Credential, error) {
	s.mu.RLock()
	_, okSource := s.sources[scope]
	cache, okCache := s.caches[scope]
	s.mu.RUnlock()
	if !okSource || !okCache {
		return Credential{}, fmt.Errorf("credential scope %q is not configured", scope)
	}

	cred, err := cache.Get(ctx, func(ctx context.Context) (Credential, time.Time, error) {
		// Read the source at refresh time so an override landing between the
		// lookup above and the refresh is picked up, not the stale snapshot.
		s.mu.RLock()
		source := s.sources[scope]
		s.mu.RUnlock()

		slog.Debug("Refreshing credential", "scope", scope)
		c, err := source.Refresh(ctx)
		if err != nil {
			metrics.CredentialRefreshes.WithLabelValues(string(scope), "error").Inc()
			return Credential{}, time.Time{}, err
		}
		metrics.CredentialRefreshes.WithLabelValues(string(scope), "ok").Inc()
		slog.Info("Credential refreshed", "scope", scope, "expiresAt", c.ExpiresAt)
		return c, c.ExpiresAt, nil
	})
	if err != nil {
		return Credential{}, fmt.Errorf("failed to refresh credential for scope %q: %w", scope, err)
	}
	return cred, nil
}

// Peek returns the cached credential for a scope without triggering a refresh.
func (s *Service) Peek(scope Scope) (Credential, bool) {
	s.mu.RLock()
	cache, ok := s.caches[scope]
	s.mu.RUnlock()
	if !ok {
		return Credential{}, false
	}
	return cache.Peek()
}

// Invalidate clears the cache for a scope, forcing the next Get to refresh.
func (s *Service) Invalidate(scope Scope) error {
	s.mu.RLock()
	cache, ok := s.caches[scope]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("credential scope %q is not configured", scope)
	}
	cache.Invalidate()
	if rotator := s.currentRotator(); scope == ScopeRemote && rotator != nil {
		rotator.Invalidate()
	}
	slog.Info("Credential cache cleared", "scope", scope)
	return nil
}

// SetOverride swaps the source behind a scope and implicitly invalidates its
// cache. Used when configuration changes at runtime.
func (s *Service) SetOverride(scope Scope, source Source) {
	s.mu.Lock()
	s.sources[scope] = source
	cache, ok := s.caches[scope]
	if !ok {
		cache = NewCached[Credential]()
		s.caches[scope] = cache
	}
	s.mu.Unlock()
	cache.Invalidate()
	slog.Info("Credential source overridden", "scope", scope)
}

// RotateRemote forces (or requests) a rotation of the remote credential.
func (s *Service) RotateRemote(ctx context.Context, force bool) (Credential, error) {
	rotator := s.currentRotator()
	if rotator == nil {
		return Credential{}, fmt.Errorf("no rotatable remote credential configured")
	}
	if err := s.Invalidate(ScopeRemote); err != nil {
		return Credential{}, err
	}
	value, err := rotator.Rotate(ctx, force)
	if err != nil {
		metrics.CredentialRefreshes.WithLabelValues(string(ScopeRemote), "error").Inc()
		return Credential{}, fmt.Errorf("failed to rotate remote credential: %w", err)
	}
	metrics.CredentialRefreshes.WithLabelValues(string(ScopeRemote), "ok").Inc()
	return Credential{Scope: ScopeRemote, Value: value, Source: SourceRemoteURL}, nil
}
