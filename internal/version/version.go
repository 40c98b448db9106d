// Package version implements the RubyGems version algebra: parsing,
// ordering, the pessimistic (~>) and caret (^) operators, and the
// "bump" rule used to compute their upper bounds.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// segmentKind distinguishes the three kinds of version segment. Numeric
// segments always sort above Text and Prerelease segments (Prerelease is
// used only for the trailing platform tag); a Text segment and a
// Prerelease segment are ordered by comparing their strings.
type segmentKind uint8

const (
	segNumeric segmentKind = iota
	segText
	segPrerelease
)

// Segment is one dot-separated (or digit/letter-boundary) component of a
// version. Exactly one of Num/Str is meaningful, depending on Kind.
type Segment struct {
	Kind segmentKind
	Num  uint64
	Str  string
}

func numSeg(n uint64) Segment  { return Segment{Kind: segNumeric, Num: n} }
func textSeg(s string) Segment { return Segment{Kind: segText, Str: s} }

func (s Segment) String() string {
	switch s.Kind {
	case segNumeric:
		return strconv.FormatUint(s.Num, 10)
	default:
		return s.Str
	}
}

// compareSegment orders two segments per the ambient RubyGems rules:
// numeric sorts above text and prerelease, text vs. prerelease compares
// their strings, and same-kind segments are compared natively.
func compareSegment(a, b Segment) int {
	if a.Kind == b.Kind {
		switch a.Kind {
		case segNumeric:
			switch {
			case a.Num < b.Num:
				return -1
			case a.Num > b.Num:
				return 1
			default:
				return 0
			}
		default:
			return strings.Compare(a.Str, b.Str)
		}
	}

	rank := func(k segmentKind) int {
		switch k {
		case segNumeric:
			return 2
		case segText:
			return 1
		default:
			return 0
		}
	}
	ar, br := rank(a.Kind), rank(b.Kind)

	// Text vs. Prerelease compares lexically on their string payloads
	// rather than purely by rank, matching the platform-tag ordering
	// the original resolver relies on.
	if (a.Kind == segText && b.Kind == segPrerelease) || (a.Kind == segPrerelease && b.Kind == segText) {
		return strings.Compare(a.Str, b.Str)
	}

	switch {
	case ar < br:
		return -1
	case ar > br:
		return 1
	default:
		return 0
	}
}

// Version is a parsed RubyGems version: a list of segments plus an
// optional platform tag (the suffix after a hyphen, e.g. "x86_64-linux").
// Versions carrying a platform tag are never admitted into a resolution
// universe (see internal/universe); Parse still recognizes and preserves
// the tag so callers can detect and reject it explicitly.
type Version struct {
	Segments []Segment
	Platform *Segment
}

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Input string
	Cause string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing version %q: %s", e.Input, e.Cause)
}

// New builds the version major.minor.patch, with no platform tag.
func New(major, minor, patch uint64) Version {
	return Version{Segments: []Segment{numSeg(major), numSeg(minor), numSeg(patch)}}
}

// Root is the synthetic root package version, 0.0.0.
func Root() Version { return New(0, 0, 0) }

// Parse parses a RubyGems version string such as "1.2.3", "2.1.0.rc1",
// or "1.2.3-x86_64-linux" (platform tag after the hyphen). Build
// metadata after a "+" is discarded, matching the ecosystem convention
// this algebra was distilled from.
func Parse(text string) (Version, error) {
	if text == "" {
		return Version{}, &ParseError{Input: text, Cause: "empty version string"}
	}

	if i := strings.IndexByte(text, '+'); i >= 0 {
		text = text[:i]
	}

	main := text
	var platform *Segment
	if i := strings.IndexByte(text, '-'); i >= 0 {
		main = text[:i]
		p := textSeg(text[i+1:])
		p.Kind = segPrerelease
		platform = &p
	}

	if main == "" {
		return Version{}, &ParseError{Input: text, Cause: "empty version before platform tag"}
	}

	var segs []Segment
	for _, part := range strings.Split(main, ".") {
		if part == "" {
			return Version{}, &ParseError{Input: text, Cause: "empty dot-separated segment"}
		}
		segs = append(segs, tokenizeSegmentPart(part)...)
	}

	return Version{Segments: segs, Platform: platform}, nil
}

// tokenizeSegmentPart splits one dot-separated part of a version string
// into its leading ASCII digit run (Numeric) and everything after it
// (Text), e.g. "0" -> [Numeric(0)], "rc1" -> [Text("rc1")],
// "2pre3" -> [Numeric(2), Text("pre3")]. A part with no leading digit
// run is a single Text segment in its entirety.
func tokenizeSegmentPart(part string) []Segment {
	i := 0
	for i < len(part) && isDigit(part[i]) {
		i++
	}
	if i == 0 {
		return []Segment{textSeg(part)}
	}
	digits := part[:i]
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		// Overflow is vanishingly unlikely for real version numbers;
		// fall back to a text segment rather than losing the input.
		return []Segment{textSeg(part)}
	}
	if i == len(part) {
		return []Segment{numSeg(n)}
	}
	return []Segment{numSeg(n), textSeg(part[i:])}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// String renders the version in canonical dotted form, including the
// platform tag if present.
func (v Version) String() string {
	var b strings.Builder
	for i, s := range v.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	if v.Platform != nil {
		b.WriteByte('-')
		b.WriteString(v.Platform.Str)
	}
	return b.String()
}

// BaseVersion returns v with any platform tag stripped.
func (v Version) BaseVersion() Version {
	return Version{Segments: v.Segments}
}

// HasSuffix reports whether v carries any non-numeric main segment
// (prerelease identifiers, e.g. "rc1" in "2.1.0.rc1") or a platform tag.
func (v Version) HasSuffix() bool {
	return v.IsPrerelease() || v.IsPlatform()
}

// IsPrerelease reports whether any main segment is textual, e.g.
// "2.1.0.rc1".
func (v Version) IsPrerelease() bool {
	for _, s := range v.Segments {
		if s.Kind == segText {
			return true
		}
	}
	return false
}

// IsPlatform reports whether v carries a platform tag, e.g.
// "1.18.7-aarch64-linux-gnu". Such versions are rejected from the
// resolution universe; platform-specific variant resolution is out of
// scope.
func (v Version) IsPlatform() bool { return v.Platform != nil }

// Equal reports whether a and b compare equal under Compare.
func (v Version) Equal(other Version) bool { return Compare(v, other) == 0 }

// Compare orders two versions: segment-by-segment on the main dotted
// segments (missing trailing segments are treated as Numeric(0)), then
// by platform tag if the main segments are equal.
func Compare(a, b Version) int {
	n := len(a.Segments)
	if len(b.Segments) > n {
		n = len(b.Segments)
	}
	for i := 0; i < n; i++ {
		sa := segAt(a, i)
		sb := segAt(b, i)
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}

	switch {
	case a.Platform == nil && b.Platform == nil:
		return 0
	case a.Platform == nil:
		return -1
	case b.Platform == nil:
		return 1
	default:
		return compareSegment(*a.Platform, *b.Platform)
	}
}

func segAt(v Version, i int) Segment {
	if i < len(v.Segments) {
		return v.Segments[i]
	}
	return numSeg(0)
}

// Bump computes the exclusive upper bound used by the pessimistic (~>)
// operator: normalize to the dotted textual form, drop every trailing
// non-numeric token, drop one further token if more than one remains,
// then increment the new last token (or produce "1" if none remain).
func (v Version) Bump() Version {
	tokens := strings.Split(v.BaseVersion().String(), ".")

	for len(tokens) > 0 && !allDigits(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > 1 {
		tokens = tokens[:len(tokens)-1]
	}

	if len(tokens) == 0 {
		tokens = []string{"1"}
	} else {
		last := tokens[len(tokens)-1]
		n, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			n = 0
		}
		tokens[len(tokens)-1] = strconv.FormatUint(n+1, 10)
	}

	bumped, err := Parse(strings.Join(tokens, "."))
	if err != nil {
		// Every token is digit-only by construction; this is
		// unreachable, but keep the function total.
		return v
	}
	return bumped
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// Major returns the first (major) numeric segment, or 0 if absent.
func (v Version) Major() uint64 {
	if len(v.Segments) == 0 || v.Segments[0].Kind != segNumeric {
		return 0
	}
	return v.Segments[0].Num
}
