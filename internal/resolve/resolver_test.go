package resolve

import (
	"context"
	"testing"

	pubgrub "github.com/contriboss/pubgrub-go"
	"github.com/rs/zerolog"

	"github.com/TaKO8Ki/bundle/internal/compactindex"
	"github.com/TaKO8Ki/bundle/internal/universe"
	"github.com/TaKO8Ki/bundle/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	if err != nil {
		t.Fatalf("version.Parse(%q): %v", s, err)
	}
	return v
}

func mustRequirement(t *testing.T, s string) version.Requirement {
	t.Helper()
	req, err := version.ParseRequirement(s, '&')
	if err != nil {
		t.Fatalf("version.ParseRequirement(%q): %v", s, err)
	}
	return req
}

func gemVersion(t *testing.T, name, ver string, deps map[string]string) compactindex.GemVersion {
	t.Helper()
	gv := compactindex.GemVersion{Name: name, Version: mustVersion(t, ver)}
	for depName, req := range deps {
		gv.Dependencies = append(gv.Dependencies, compactindex.GemDependency{
			Name:        depName,
			Requirement: mustRequirement(t, req),
		})
	}
	return gv
}

// buildUniverse assembles a universe.Universe directly from an in-memory
// graph, bypassing the network-fetching universe.Build so these tests
// exercise only the solver-driving logic in Resolver.
func buildUniverse(t *testing.T, graph compactindex.Graph, rootDeps map[string]string) *universe.Universe {
	t.Helper()

	meta := universe.NewLockMeta()
	root := pubgrub.NewRootSource()
	for name, req := range rootDeps {
		root.AddPackage(pubgrub.MakeName(name), mustRequirement(t, req))
	}

	return &universe.Universe{
		Root:    root.Term(),
		Sources: []pubgrub.Source{root, universe.NewSource(graph, meta)},
		Meta:    meta,
	}
}

// TestBundlerLikeResolution reproduces the Google Cloud gem dependency
// tangle the original resolver was validated against: two versions of
// grpc-google-iam-v1 pull in googleapis-common-protos (~> 1.7 and
// ~> 1.6) and grpc under pessimistic requirements, and the solver must
// pick the newest grpc-google-iam-v1 together with a
// googleapis-common-protos that satisfies it.
func TestBundlerLikeResolution(t *testing.T) {
	graph := compactindex.Graph{
		"grpc-google-iam-v1": {
			gemVersion(t, "grpc-google-iam-v1", "1.11.0", map[string]string{
				"googleapis-common-protos": "~> 1.7",
				"grpc":                     "~> 1.0",
			}),
			gemVersion(t, "grpc-google-iam-v1", "1.10.0", map[string]string{
				"googleapis-common-protos": "~> 1.6",
				"grpc":                     "~> 1.0",
			}),
		},
		"googleapis-common-protos": {
			gemVersion(t, "googleapis-common-protos", "1.7.0", map[string]string{
				"google-protobuf": "~> 3.0",
			}),
			gemVersion(t, "googleapis-common-protos", "1.6.0", map[string]string{
				"google-protobuf": "~> 3.0",
			}),
		},
		"grpc": {
			gemVersion(t, "grpc", "1.30.0", nil),
		},
		"google-protobuf": {
			gemVersion(t, "google-protobuf", "3.12.0", nil),
		},
	}

	u := buildUniverse(t, graph, map[string]string{
		"grpc-google-iam-v1": ">= 0",
	})

	res, err := New(zerolog.Nop(), nil).Resolve(context.Background(), u)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := res.Versions["grpc-google-iam-v1"].String(); got != "1.11.0" {
		t.Errorf("grpc-google-iam-v1 = %s, want 1.11.0", got)
	}
	if got := res.Versions["googleapis-common-protos"].String(); got != "1.7.0" {
		t.Errorf("googleapis-common-protos = %s, want 1.7.0", got)
	}
}

// TestTransitiveResolution is the small worked example: A requires C
// transitively through B under a pessimistic constraint.
func TestTransitiveResolution(t *testing.T) {
	graph := compactindex.Graph{
		"a": {gemVersion(t, "a", "1.0.0", map[string]string{"b": "~> 1.0"})},
		"b": {gemVersion(t, "b", "1.2.0", map[string]string{"c": ">= 2.0"})},
		"c": {
			gemVersion(t, "c", "2.0.0", nil),
			gemVersion(t, "c", "2.1.0", nil),
		},
	}

	u := buildUniverse(t, graph, map[string]string{"a": ">= 0"})
	res, err := New(zerolog.Nop(), nil).Resolve(context.Background(), u)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if _, ok := res.Versions["c"]; !ok {
		t.Fatal("expected transitive dependency c to be resolved")
	}
	if got := res.Versions["c"].String(); got != "2.1.0" {
		t.Errorf("c = %s, want newest-admissible 2.1.0", got)
	}
}

// TestPrereleaseExcludedFromResolution ensures a non-exact requirement
// never admits a prerelease version even when it is the newest
// candidate numerically.
func TestPrereleaseExcludedFromResolution(t *testing.T) {
	graph := compactindex.Graph{
		"a": {
			gemVersion(t, "a", "1.0.0", nil),
			gemVersion(t, "a", "1.1.0.rc1", nil),
		},
	}

	u := buildUniverse(t, graph, map[string]string{"a": ">= 1.0.0"})
	res, err := New(zerolog.Nop(), nil).Resolve(context.Background(), u)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := res.Versions["a"].String(); got != "1.0.0" {
		t.Errorf("a = %s, want 1.0.0 (prerelease must be excluded)", got)
	}
}

// TestConflictReportsUnsatisfiableRequirement verifies that an
// unsatisfiable pair of requirements on the same package surfaces as a
// ConflictError rather than succeeding silently.
func TestConflictReportsUnsatisfiableRequirement(t *testing.T) {
	graph := compactindex.Graph{
		"a": {gemVersion(t, "a", "1.0.0", map[string]string{"c": ">= 2.0"})},
		"b": {gemVersion(t, "b", "1.0.0", map[string]string{"c": "< 2.0"})},
		"c": {
			gemVersion(t, "c", "1.9.0", nil),
			gemVersion(t, "c", "2.0.0", nil),
		},
	}

	u := buildUniverse(t, graph, map[string]string{"a": ">= 0", "b": ">= 0"})
	_, err := New(zerolog.Nop(), nil).Resolve(context.Background(), u)
	if err == nil {
		t.Fatal("expected an unsatisfiable conflict")
	}

	var conflict *ConflictError
	if !asConflictError(err, &conflict) {
		t.Fatalf("expected a *ConflictError, got %T: %v", err, err)
	}
}

func asConflictError(err error, target **ConflictError) bool {
	if ce, ok := err.(*ConflictError); ok {
		*target = ce
		return true
	}
	return false
}
