// Package metrics exposes prometheus instrumentation for resolution and
// credential activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CredentialRefreshes counts refresh attempts per scope and outcome.
	CredentialRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamvault",
		Subsystem: "credentials",
		Name:      "refreshes_total",
		Help:      "Credential refresh attempts by scope and outcome.",
	}, []string{"scope", "outcome"})

	// Resolutions counts finished track resolutions by winning strategy (or
	// "none") and outcome.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamvault",
		Subsystem: "resolving",
		Name:      "resolutions_total",
		Help:      "Track resolutions by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// UpstreamRetries counts retry attempts against upstream endpoints.
	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "streamvault",
		Subsystem: "resolving",
		Name:      "upstream_retries_total",
		Help:      "Retries issued against upstream endpoints.",
	})

	// ResolutionDuration observes the wall time of resolution calls.
	ResolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "streamvault",
		Subsystem: "resolving",
		Name:      "resolution_duration_seconds",
		Help:      "Duration of track resolution calls.",
		Buckets:   prometheus.DefBuckets,
	})
)
