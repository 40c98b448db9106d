package version

// RangeSet is the spec's own version-set algebra: a finite union of
// disjoint, non-adjacent intervals over Version, ordered ascending. It
// exists independently of the third-party solver's VersionSet so the
// requirement algebra (union, intersection, complement, containment,
// disjointness, subset) has a home that does not depend on the solver
// at all; pubgrub_adapter.go bridges it to the solver's own type.
type RangeSet struct {
	intervals []interval
}

type bound struct {
	infinite  bool // true => unbounded in this direction
	value     Version
	inclusive bool
}

type interval struct {
	lo, hi bound
}

func negInf() bound { return bound{infinite: true} }
func posInf() bound { return bound{infinite: true} }

// Empty returns the empty set.
func Empty() RangeSet { return RangeSet{} }

// Full returns the set of all versions.
func Full() RangeSet {
	return RangeSet{intervals: []interval{{lo: negInf(), hi: posInf()}}}
}

// Singleton returns the set containing exactly v.
func Singleton(v Version) RangeSet {
	return RangeSet{intervals: []interval{{
		lo: bound{value: v, inclusive: true},
		hi: bound{value: v, inclusive: true},
	}}}
}

// LowerBound returns the set of versions >= v (or > v if !inclusive).
func LowerBound(v Version, inclusive bool) RangeSet {
	return RangeSet{intervals: []interval{{
		lo: bound{value: v, inclusive: inclusive},
		hi: posInf(),
	}}}
}

// UpperBound returns the set of versions <= v (or < v if !inclusive).
func UpperBound(v Version, inclusive bool) RangeSet {
	return RangeSet{intervals: []interval{{
		lo: negInf(),
		hi: bound{value: v, inclusive: inclusive},
	}}}
}

// Between returns the set lo..hi with the given inclusivity at each end.
func Between(lo Version, loIncl bool, hi Version, hiIncl bool) RangeSet {
	return RangeSet{intervals: []interval{{
		lo: bound{value: lo, inclusive: loIncl},
		hi: bound{value: hi, inclusive: hiIncl},
	}}}
}

// IsEmpty reports whether the set contains no versions.
func (r RangeSet) IsEmpty() bool { return len(r.intervals) == 0 }

// Contains reports whether v falls within any interval of the set.
func (r RangeSet) Contains(v Version) bool {
	for _, iv := range r.intervals {
		if intervalContains(iv, v) {
			return true
		}
	}
	return false
}

func intervalContains(iv interval, v Version) bool {
	if !iv.lo.infinite {
		c := Compare(v, iv.lo.value)
		if c < 0 || (c == 0 && !iv.lo.inclusive) {
			return false
		}
	}
	if !iv.hi.infinite {
		c := Compare(v, iv.hi.value)
		if c > 0 || (c == 0 && !iv.hi.inclusive) {
			return false
		}
	}
	return true
}

// lowLess reports whether low bound a sorts strictly before low bound b
// (as a starting point: -inf first, then by value, ties broken so that
// an inclusive bound starts "before" an exclusive bound at the same
// value).
func lowLess(a, b bound) bool {
	if a.infinite != b.infinite {
		return a.infinite
	}
	if a.infinite {
		return false
	}
	c := Compare(a.value, b.value)
	if c != 0 {
		return c < 0
	}
	return a.inclusive && !b.inclusive
}

func highLess(a, b bound) bool {
	if a.infinite != b.infinite {
		return b.infinite
	}
	if a.infinite {
		return false
	}
	c := Compare(a.value, b.value)
	if c != 0 {
		return c < 0
	}
	return !a.inclusive && b.inclusive
}

// adjacentOrOverlapping reports whether interval a's high bound meets or
// overlaps interval b's low bound, so that union(a, b) is a single
// interval rather than two.
func adjacentOrOverlapping(a, b interval) bool {
	if a.hi.infinite || b.lo.infinite {
		return true
	}
	c := Compare(a.hi.value, b.lo.value)
	if c < 0 {
		return false
	}
	if c > 0 {
		return true
	}
	// Equal values: overlap unless both bounds exclude the point.
	return a.hi.inclusive || b.lo.inclusive
}

func minLow(a, b bound) bound {
	if lowLess(a, b) {
		return a
	}
	return b
}

func maxHigh(a, b bound) bound {
	if highLess(a, b) {
		return b
	}
	return a
}

// Union returns the set of versions in a or b.
func Union(a, b RangeSet) RangeSet {
	all := make([]interval, 0, len(a.intervals)+len(b.intervals))
	all = append(all, a.intervals...)
	all = append(all, b.intervals...)
	sortIntervals(all)

	var out []interval
	for _, iv := range all {
		if len(out) > 0 && adjacentOrOverlapping(out[len(out)-1], iv) {
			last := out[len(out)-1]
			out[len(out)-1] = interval{lo: minLow(last.lo, iv.lo), hi: maxHigh(last.hi, iv.hi)}
			continue
		}
		out = append(out, iv)
	}
	return RangeSet{intervals: out}
}

// Intersection returns the set of versions in both a and b.
func Intersection(a, b RangeSet) RangeSet {
	var out []interval
	i, j := 0, 0
	for i < len(a.intervals) && j < len(b.intervals) {
		ai, bj := a.intervals[i], b.intervals[j]
		lo := ai.lo
		if lowLess(lo, bj.lo) {
			lo = bj.lo
		}
		hi := ai.hi
		if highLess(bj.hi, hi) {
			hi = bj.hi
		}

		if !boundsCross(lo, hi) {
			out = append(out, interval{lo: lo, hi: hi})
		}

		if highLess(ai.hi, bj.hi) {
			i++
		} else {
			j++
		}
	}
	return RangeSet{intervals: out}
}

// boundsCross reports whether lo > hi, meaning the interval is empty.
func boundsCross(lo, hi bound) bool {
	if lo.infinite || hi.infinite {
		return false
	}
	c := Compare(lo.value, hi.value)
	if c > 0 {
		return true
	}
	if c == 0 && (!lo.inclusive || !hi.inclusive) {
		return true
	}
	return false
}

// Complement returns the set of versions not in r.
func Complement(r RangeSet) RangeSet {
	if len(r.intervals) == 0 {
		return Full()
	}

	var out []interval
	var prevHi bound
	hasPrev := false
	for _, iv := range r.intervals {
		if !iv.lo.infinite {
			lo := negInf()
			if hasPrev {
				lo = complementOfHigh(prevHi)
			}
			hi := complementOfLow(iv.lo)
			out = append(out, interval{lo: lo, hi: hi})
		}
		prevHi = iv.hi
		hasPrev = true
	}
	if !prevHi.infinite {
		out = append(out, interval{lo: complementOfHigh(prevHi), hi: posInf()})
	}
	return RangeSet{intervals: out}
}

func complementOfHigh(h bound) bound {
	// The point just "after" a high bound becomes a low bound with
	// flipped inclusivity.
	return bound{value: h.value, inclusive: !h.inclusive}
}

func complementOfLow(l bound) bound {
	return bound{value: l.value, inclusive: !l.inclusive}
}

// IsDisjoint reports whether a and b share no version.
func IsDisjoint(a, b RangeSet) bool { return Intersection(a, b).IsEmpty() }

// SubsetOf reports whether every version in a is also in b.
func SubsetOf(a, b RangeSet) bool { return Intersection(a, Complement(b)).IsEmpty() }

func sortIntervals(ivs []interval) {
	// insertion sort: interval counts per requirement are tiny.
	for i := 1; i < len(ivs); i++ {
		j := i
		for j > 0 && lowLess(ivs[j].lo, ivs[j-1].lo) {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
			j--
		}
	}
}
