// Package lockfile writes the deterministic, Bundler-style lockfile
// this tool produces: a GEM section listing every resolved package and
// its dependencies, a PLATFORMS section (always just "ruby"; platform
// variants are out of scope), a DEPENDENCIES section listing the
// manifest's own root requirements, and a BUNDLED WITH trailer. This
// package only ever writes a lockfile; nothing in this repository
// parses one back.
package lockfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/TaKO8Ki/bundle/internal/resolve"
	"github.com/TaKO8Ki/bundle/internal/universe"
	"github.com/TaKO8Ki/bundle/internal/version"
)

// Write renders res as a lockfile to w.
func Write(res *resolve.Resolution, sourceURL, bundledWith string, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "GEM")
	fmt.Fprintf(bw, "  remote: %s/\n", strings.TrimRight(sourceURL, "/"))
	fmt.Fprintln(bw, "  specs:")

	for _, name := range res.Names() {
		v := res.Versions[name]
		fmt.Fprintf(bw, "    %s (%s)\n", name, v.String())

		deps, _ := res.Meta.Lookup(name, v)
		sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
		for _, dep := range deps {
			fmt.Fprintf(bw, "      %s%s\n", dep.Name, constraintSuffix(reversed(dep.Constraints)))
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "PLATFORMS")
	fmt.Fprintln(bw, "  ruby")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "DEPENDENCIES")
	rootDeps, _ := res.Meta.Lookup(universe.RootName, version.Root())
	sort.Slice(rootDeps, func(i, j int) bool { return rootDeps[i].Name < rootDeps[j].Name })
	for _, dep := range rootDeps {
		fmt.Fprintf(bw, "  %s%s\n", dep.Name, constraintSuffix(dep.Constraints))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "BUNDLED WITH")
	fmt.Fprintf(bw, "   %s\n", bundledWith)

	return bw.Flush()
}

// WriteFile writes res to path, truncating or creating it as needed.
func WriteFile(res *resolve.Resolution, sourceURL, bundledWith, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating lockfile %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(res, sourceURL, bundledWith, f); err != nil {
		return fmt.Errorf("writing lockfile %s: %w", path, err)
	}
	return nil
}

// constraintSuffix renders the "(a, b)" trailer for a dependency line,
// or "" when every constraint is the trivial ">= 0" (meaning: no
// explicit requirement was ever recorded against this edge).
func constraintSuffix(constraints []string) string {
	if allTrivial(constraints) {
		return ""
	}
	return " (" + strings.Join(constraints, ", ") + ")"
}

func allTrivial(constraints []string) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if c != ">= 0" {
			return false
		}
	}
	return true
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
