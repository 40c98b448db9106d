package version

import (
	pubgrub "github.com/contriboss/pubgrub-go"
)

// Sort implements pubgrub.Version so a Version can be handed directly
// to the solver.
func (v Version) Sort(other pubgrub.Version) int {
	ov, ok := other.(Version)
	if !ok {
		return 0
	}
	return Compare(v, ov)
}

var _ pubgrub.Version = Version{}

// ToVersionSet implements pubgrub.VersionSetConverter, translating this
// package's own RangeSet algebra into the solver's VersionSet so the
// conflict-driven solver can reason about our requirements directly.
func (r Requirement) ToVersionSet() pubgrub.VersionSet {
	result := pubgrub.FullVersionSet().Complement()
	for _, iv := range r.Range.intervals {
		result = result.Union(intervalToVersionSet(iv))
	}
	return result
}

func intervalToVersionSet(iv interval) pubgrub.VersionSet {
	switch {
	case iv.lo.infinite && iv.hi.infinite:
		return pubgrub.FullVersionSet()
	case iv.lo.infinite:
		return pubgrub.NewUpperBoundVersionSet(iv.hi.value, iv.hi.inclusive)
	case iv.hi.infinite:
		return pubgrub.NewLowerBoundVersionSet(iv.lo.value, iv.lo.inclusive)
	default:
		return pubgrub.NewVersionRangeSet(iv.lo.value, iv.lo.inclusive, iv.hi.value, iv.hi.inclusive)
	}
}

var _ pubgrub.VersionSetConverter = Requirement{}

// Satisfies already matches pubgrub.Condition's method of the same
// name; String is defined in requirement.go. Declare the interface
// assertion here alongside the rest of the solver wiring.
var _ pubgrub.Condition = Requirement{}
