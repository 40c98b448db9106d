package version

import (
	"fmt"
	"strings"
)

// Requirement is a version constraint: a RangeSet plus whether it
// admits prerelease versions. A requirement admits prereleases only
// when one of its clauses is an exact match ("=" or a bare version)
// against an explicitly prerelease version (e.g. "= 2.0.0.rc1");
// otherwise prereleases are excluded even if they would fall inside the
// numeric range.
type Requirement struct {
	Range    RangeSet
	AllowPre bool
	raw      string
	clauses  []string
}

// Any is the requirement satisfied by every non-prerelease version.
func Any() Requirement { return Requirement{Range: Full(), raw: ">= 0", clauses: []string{">= 0"}} }

// String renders the original requirement text, falling back to "*"
// when no text was recorded (e.g. a zero Requirement).
func (r Requirement) String() string {
	if r.raw != "" {
		return r.raw
	}
	return "*"
}

// Clauses returns the individual constraint strings that made up this
// requirement, e.g. [">= 1.0", "< 2.0"] for ">= 1.0 & < 2.0". This is
// the per-clause list the lockfile writer reverses and joins, as
// opposed to String's single combined text.
func (r Requirement) Clauses() []string {
	if len(r.clauses) == 0 {
		return []string{r.String()}
	}
	return r.clauses
}

// Satisfies reports whether v meets the requirement: v must fall
// within the range, and v may only be a prerelease if AllowPre is set.
func (r Requirement) Satisfies(v Version) bool {
	if v.IsPrerelease() && !r.AllowPre {
		return false
	}
	return r.Range.Contains(v)
}

// ParseRequirement parses a single requirement string made of one or
// more clauses joined by sep (either "," or "&", both seen in the wild
// for compound requirements such as ">= 2.0, < 3.0"). Recognized
// operators are =, !=, >, >=, <, <=, ~> (pessimistic) and ^ (caret).
func ParseRequirement(text string, sep byte) (Requirement, error) {
	original := strings.TrimSpace(text)
	if original == "" || original == "*" {
		return Any(), nil
	}

	clauses := splitClauses(original, sep)
	result := Full()
	allowPre := false
	trimmed := make([]string, 0, len(clauses))

	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return Requirement{}, &ParseError{Input: text, Cause: "empty requirement clause"}
		}

		set, pre, err := parseClause(clause)
		if err != nil {
			return Requirement{}, err
		}
		result = Intersection(result, set)
		allowPre = allowPre || pre
		trimmed = append(trimmed, clause)
	}

	return Requirement{Range: result, AllowPre: allowPre, raw: original, clauses: trimmed}, nil
}

func splitClauses(s string, sep byte) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return byte(r) == sep })
}

var operators = []string{"~>", "<=", ">=", "!=", "^", "=", ">", "<"}

func parseClause(clause string) (RangeSet, bool, error) {
	for _, op := range operators {
		if strings.HasPrefix(clause, op) {
			versionText := strings.TrimSpace(clause[len(op):])
			v, err := Parse(versionText)
			if err != nil {
				return RangeSet{}, false, err
			}
			set, err := rangeForOperator(op, v)
			if err != nil {
				return RangeSet{}, false, err
			}
			allowPre := op == "=" && v.IsPrerelease()
			return set, allowPre, nil
		}
	}

	// Bare version text is treated as an exact match.
	v, err := Parse(clause)
	if err != nil {
		return RangeSet{}, false, err
	}
	return Singleton(v), v.IsPrerelease(), nil
}

func rangeForOperator(op string, v Version) (RangeSet, error) {
	switch op {
	case "=":
		return Singleton(v), nil
	case "!=":
		return Complement(Singleton(v)), nil
	case ">":
		return LowerBound(v, false), nil
	case ">=":
		return LowerBound(v, true), nil
	case "<":
		return UpperBound(v, false), nil
	case "<=":
		return UpperBound(v, true), nil
	case "~>":
		var next Version
		if len(v.Segments) > 2 {
			next = v.Bump()
		} else {
			next = Version{Segments: []Segment{numSeg(v.Major() + 1)}}
		}
		return Between(v, true, next, false), nil
	case "^":
		var next Version
		if v.Major() > 0 {
			next = Version{Segments: []Segment{numSeg(v.Major() + 1)}}
		} else {
			next = incrementMinor(v)
		}
		return Between(v, true, next, false), nil
	default:
		return RangeSet{}, fmt.Errorf("unsupported requirement operator %q", op)
	}
}

// incrementMinor returns v with its minor segment incremented in place,
// leaving every other segment untouched (e.g. 0.2.3 -> 0.3.3). Used by
// the caret operator's upper bound when major is 0, where bumping the
// major segment would be too permissive.
func incrementMinor(v Version) Version {
	segs := make([]Segment, len(v.Segments))
	copy(segs, v.Segments)
	for len(segs) < 2 {
		segs = append(segs, numSeg(0))
	}
	segs[1] = numSeg(segs[1].Num + 1)
	return Version{Segments: segs}
}
