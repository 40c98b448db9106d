package lockfile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TaKO8Ki/bundle/internal/resolve"
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

func TestWriteCanonicalFormat(t *testing.T) {
	meta := universe.NewLockMeta()
	meta.Record("rails", mustVersion(t, "7.0.0"), []universe.DependencyMeta{
		{Name: "activesupport", Constraints: []string{"= 7.0.0"}},
	})
	meta.Record("activesupport", mustVersion(t, "7.0.0"), nil)
	meta.Record(universe.RootName, version.Root(), []universe.DependencyMeta{
		{Name: "rails", Constraints: []string{"~> 7.0"}},
	})

	res := &resolve.Resolution{
		Versions: map[string]version.Version{
			"rails":         mustVersion(t, "7.0.0"),
			"activesupport": mustVersion(t, "7.0.0"),
		},
		Meta: meta,
	}

	var b strings.Builder
	if err := Write(res, "https://rubygems.org", "2.5.22", &b); err != nil {
		t.Fatal(err)
	}

	want := `GEM
  remote: https://rubygems.org/
  specs:
    activesupport (7.0.0)
    rails (7.0.0)
      activesupport (= 7.0.0)

PLATFORMS
  ruby

DEPENDENCIES
  rails (~> 7.0)

BUNDLED WITH
   2.5.22
`

	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("lockfile mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteOmitsTrivialConstraints(t *testing.T) {
	meta := universe.NewLockMeta()
	meta.Record("rails", mustVersion(t, "7.0.0"), []universe.DependencyMeta{
		{Name: "activesupport", Constraints: []string{">= 0"}},
	})
	meta.Record(universe.RootName, version.Root(), []universe.DependencyMeta{
		{Name: "rails", Constraints: []string{">= 0"}},
	})

	res := &resolve.Resolution{
		Versions: map[string]version.Version{"rails": mustVersion(t, "7.0.0")},
		Meta:     meta,
	}

	var b strings.Builder
	if err := Write(res, "https://rubygems.org", "2.5.22", &b); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(b.String(), "(>= 0)") {
		t.Errorf("expected trivial \">= 0\" constraint to be omitted, got:\n%s", b.String())
	}
}

func TestWriteReversesSpecConstraintsButNotDependencies(t *testing.T) {
	meta := universe.NewLockMeta()
	meta.Record("a", mustVersion(t, "1.0.0"), []universe.DependencyMeta{
		{Name: "b", Constraints: []string{">= 1.0", "< 2.0"}},
	})
	meta.Record(universe.RootName, version.Root(), []universe.DependencyMeta{
		{Name: "a", Constraints: []string{">= 1.0", "< 2.0"}},
	})

	res := &resolve.Resolution{
		Versions: map[string]version.Version{"a": mustVersion(t, "1.0.0")},
		Meta:     meta,
	}

	var b strings.Builder
	if err := Write(res, "https://rubygems.org", "2.5.22", &b); err != nil {
		t.Fatal(err)
	}

	out := b.String()
	specLine := lineContaining(out, "      b")
	depLine := lineContaining(out, "  a ")

	if !strings.Contains(specLine, "(< 2.0, >= 1.0)") {
		t.Errorf("expected specs: section to reverse constraint order, got %q", specLine)
	}
	if !strings.Contains(depLine, "(>= 1.0, < 2.0)") {
		t.Errorf("expected DEPENDENCIES section to keep original order, got %q", depLine)
	}
}

func lineContaining(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}
