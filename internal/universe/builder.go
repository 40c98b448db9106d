package universe

import (
	"context"
	"fmt"

	pubgrub "github.com/contriboss/pubgrub-go"

	"github.com/TaKO8Ki/bundle/internal/compactindex"
	"github.com/TaKO8Ki/bundle/internal/manifest"
	"github.com/TaKO8Ki/bundle/internal/version"
)

// Universe bundles everything the resolver needs: the synthetic root
// term, the root source (holding the manifest's own requirements) and
// the fetched-graph source, plus the shared LockMeta that Build and the
// fetched-graph source fill in and the lockfile writer consults.
type Universe struct {
	Root   pubgrub.Term
	Sources []pubgrub.Source
	Meta   *LockMeta
}

// Build fetches the full dependency graph reachable from the
// manifest's root dependencies and assembles a Universe ready to hand
// to the solver.
func Build(ctx context.Context, client *compactindex.Client, deps []manifest.Dependency) (*Universe, error) {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}

	graph, err := client.DiscoverGraph(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("discovering dependency graph: %w", err)
	}

	meta := NewLockMeta()

	root := pubgrub.NewRootSource()
	rootMetaDeps := make([]DependencyMeta, 0, len(deps))
	for _, d := range deps {
		reqText := d.Requirement
		if reqText == "" {
			reqText = "*"
		}
		req, err := version.ParseRequirement(reqText, '&')
		if err != nil {
			return nil, fmt.Errorf("parsing requirement %q for %s: %w", reqText, d.Name, err)
		}
		root.AddPackage(pubgrub.MakeName(d.Name), req)
		rootMetaDeps = append(rootMetaDeps, DependencyMeta{Name: d.Name, Constraints: req.Clauses()})
	}
	meta.Record(RootName, version.Root(), rootMetaDeps)

	return &Universe{
		Root:    root.Term(),
		Sources: []pubgrub.Source{root, NewSource(graph, meta)},
		Meta:    meta,
	}, nil
}
