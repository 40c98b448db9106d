// Package universe assembles the fetched compact-index graph into the
// solver's own Source interface, rejecting platform-tagged version
// variants (platform-specific variant resolution is out of scope) and
// maintaining the raw-requirement-string side table the lockfile
// writer needs.
package universe

import (
	"fmt"
	"sort"
	"sync"

	pubgrub "github.com/contriboss/pubgrub-go"

	"github.com/TaKO8Ki/bundle/internal/compactindex"
	"github.com/TaKO8Ki/bundle/internal/version"
)

// RootName is the synthetic root package every manifest dependency is
// attached to, matching the convention the original resolver used.
const RootName = "$root"

// Source adapts a fetched compactindex.Graph into a pubgrub.Source,
// recording every dependency edge it reports into a LockMeta.
type Source struct {
	mu    sync.RWMutex
	graph compactindex.Graph
	meta  *LockMeta
}

// NewSource wraps an already-discovered graph.
func NewSource(graph compactindex.Graph, meta *LockMeta) *Source {
	return &Source{graph: graph, meta: meta}
}

var _ pubgrub.Source = (*Source)(nil)

// GetVersions implements pubgrub.Source. Versions carrying a platform
// tag are invisible to the solver: admitting platform-specific
// variants is explicitly out of scope.
func (s *Source) GetVersions(name pubgrub.Name) ([]pubgrub.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gvs := s.graph[string(name)]
	out := make([]pubgrub.Version, 0, len(gvs))
	for _, gv := range gvs {
		if gv.Version.IsPlatform() {
			continue
		}
		out = append(out, gv.Version)
	}

	sort.Slice(out, func(i, j int) bool {
		return version.Compare(out[i].(version.Version), out[j].(version.Version)) < 0
	})
	return out, nil
}

// GetDependencies implements pubgrub.Source, and as a side effect
// records the raw requirement strings for this (name, version) pair
// into the LockMeta.
func (s *Source) GetDependencies(name pubgrub.Name, ver pubgrub.Version) ([]pubgrub.Term, error) {
	v, ok := ver.(version.Version)
	if !ok {
		return nil, fmt.Errorf("universe: unexpected version type %T for %s", ver, name)
	}

	s.mu.RLock()
	gvs := s.graph[string(name)]
	s.mu.RUnlock()

	for _, gv := range gvs {
		if !gv.Version.Equal(v) {
			continue
		}

		terms := make([]pubgrub.Term, 0, len(gv.Dependencies))
		metaDeps := make([]DependencyMeta, 0, len(gv.Dependencies))
		for _, dep := range gv.Dependencies {
			terms = append(terms, pubgrub.NewTerm(pubgrub.MakeName(dep.Name), dep.Requirement))
			metaDeps = append(metaDeps, DependencyMeta{
				Name:        dep.Name,
				Constraints: dep.Requirement.Clauses(),
			})
		}

		if s.meta != nil {
			s.meta.Record(string(name), v, metaDeps)
		}

		return terms, nil
	}

	return nil, fmt.Errorf("universe: no such version %s for %s", v, name)
}
