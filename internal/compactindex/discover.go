package compactindex

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Graph is the fetched dependency universe: every gem name reached
// during discovery, mapped to its known versions and their
// dependencies.
type Graph map[string][]GemVersion

// DiscoverGraph performs a bounded, concurrent breadth-first fetch of
// the dependency graph reachable from rootGems. Up to runtime.NumCPU()
// /info/<name> requests are in flight at any time; a single failure
// cancels every remaining in-flight and not-yet-scheduled fetch, and
// is returned to the caller.
func (c *Client) DiscoverGraph(ctx context.Context, rootGems []string) (Graph, error) {
	graph := make(Graph)
	visited := make(map[string]struct{})
	scheduled := make(map[string]struct{})
	queue := append([]string{}, rootGems...)

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	g, gctx := errgroup.WithContext(ctx)

	type fetchResult struct {
		name     string
		versions []GemVersion
		err      error
	}
	results := make(chan fetchResult)
	inFlight := 0

	for len(queue) > 0 || inFlight > 0 {
		for len(queue) > 0 {
			name := queue[0]
			if _, done := visited[name]; done {
				queue = queue[1:]
				continue
			}
			if _, inProgress := scheduled[name]; inProgress {
				queue = queue[1:]
				continue
			}
			if !sem.TryAcquire(1) {
				break
			}
			queue = queue[1:]
			scheduled[name] = struct{}{}
			inFlight++

			fetchName := name
			g.Go(func() error {
				defer sem.Release(1)
				vs, err := c.Info(gctx, fetchName)
				select {
				case results <- fetchResult{name: fetchName, versions: vs, err: err}:
				case <-gctx.Done():
				}
				return err
			})
		}

		if inFlight == 0 {
			break
		}

		select {
		case r := <-results:
			inFlight--
			visited[r.name] = struct{}{}
			if r.err != nil {
				_ = g.Wait()
				return nil, r.err
			}
			graph[r.name] = r.versions
			for _, gv := range r.versions {
				for _, dep := range gv.Dependencies {
					if _, done := visited[dep.Name]; done {
						continue
					}
					if _, inProgress := scheduled[dep.Name]; inProgress {
						continue
					}
					queue = append(queue, dep.Name)
				}
			}
		case <-gctx.Done():
			_ = g.Wait()
			return nil, gctx.Err()
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graph, nil
}
