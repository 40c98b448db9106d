// Package metrics wires the compact-index client and resolver into a
// small set of Prometheus instruments. A nil *Registry is a valid
// no-op: every caller guards use with "if registry != nil", so
// instrumentation never gates correctness.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every counter/histogram this module exposes, already
// registered against the prometheus.Registerer passed to New.
type Registry struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	FetchDuration    prometheus.Histogram
	ResolveDuration  prometheus.Histogram
	ResolveFailures  prometheus.Counter
}

// New registers and returns a fresh Registry against reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bundle",
			Subsystem: "compact_index",
			Name:      "cache_hits_total",
			Help:      "Number of compact-index requests satisfied by a 304 Not Modified.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bundle",
			Subsystem: "compact_index",
			Name:      "cache_misses_total",
			Help:      "Number of compact-index requests that fetched new bytes.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bundle",
			Subsystem: "compact_index",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of a single /versions or /info/<name> request.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bundle",
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Wall-clock time to run the solver to completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResolveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bundle",
			Subsystem: "resolve",
			Name:      "failures_total",
			Help:      "Number of resolutions that ended in an unsatisfiable conflict.",
		}),
	}

	reg.MustRegister(r.CacheHits, r.CacheMisses, r.FetchDuration, r.ResolveDuration, r.ResolveFailures)
	return r
}
