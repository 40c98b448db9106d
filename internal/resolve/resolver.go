// Package resolve drives the third-party conflict-driven solver over a
// universe.Universe and reduces its result to a plain name -> version
// map, stripping the synthetic root package.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"time"

	pubgrub "github.com/contriboss/pubgrub-go"
	"github.com/rs/zerolog"

	"github.com/TaKO8Ki/bundle/internal/metrics"
	"github.com/TaKO8Ki/bundle/internal/universe"
	"github.com/TaKO8Ki/bundle/internal/version"
)

// Resolution is the outcome of a successful resolve: every non-root
// package the solver chose, and the shared lock-meta table describing
// why (for the lockfile writer to consult).
type Resolution struct {
	Versions map[string]version.Version
	Meta     *universe.LockMeta
}

// Names returns the resolved package names in sorted order.
func (r *Resolution) Names() []string {
	names := make([]string, 0, len(r.Versions))
	for name := range r.Versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver drives the solver; it carries only cross-cutting ambient
// concerns (logging, metrics), never resolution state, so one instance
// is safe to reuse across unrelated universes.
type Resolver struct {
	logger  zerolog.Logger
	metrics *metrics.Registry
}

// New builds a Resolver.
func New(logger zerolog.Logger, m *metrics.Registry) *Resolver {
	return &Resolver{logger: logger, metrics: m}
}

// Resolve runs the solver to completion over u, returning the chosen
// version of every reachable package. The solver's own choose-version
// (newest-admissible) and prioritize policies are used unmodified: this
// resolver does not second-guess them.
func (r *Resolver) Resolve(ctx context.Context, u *universe.Universe) (*Resolution, error) {
	start := time.Now()

	solver := pubgrub.NewSolver(u.Sources...)
	solution, err := solver.Solve(u.Root)

	if r.metrics != nil {
		r.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if r.metrics != nil {
			r.metrics.ResolveFailures.Inc()
		}
		r.logger.Error().Err(err).Msg("resolution failed")
		return nil, &ConflictError{Err: err}
	}

	versions := make(map[string]version.Version, len(solution))
	for _, nv := range solution {
		name := string(nv.Name)
		if name == universe.RootName {
			continue
		}

		v, ok := nv.Version.(version.Version)
		if !ok {
			return nil, &InvariantError{Msg: fmt.Sprintf("solution for %s has non-native version type %T", name, nv.Version)}
		}
		versions[name] = v
	}

	r.logger.Info().Int("packages", len(versions)).Dur("elapsed", time.Since(start)).Msg("resolved")

	return &Resolution{Versions: versions, Meta: u.Meta}, nil
}
