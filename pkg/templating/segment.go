package templating

import (
	"math"
	"strings"
)

// SegmentKind distinguishes fixed text from a list of alternatives.
type SegmentKind string

const (
	KindLiteral      SegmentKind = "literal"
	KindAlternatives SegmentKind = "alternatives"
)

// Segment is one position of a template in enumerate mode. A literal segment
// has exactly one option.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Options []string    `json:"options"`
}

// Literal returns a segment with the single option text.
func Literal(text string) Segment {
	return Segment{Kind: KindLiteral, Options: []string{text}}
}

// Alternatives returns a segment choosing between options.
func Alternatives(options ...string) Segment {
	return Segment{Kind: KindAlternatives, Options: options}
}

// Split sanitizes text and decomposes it into segments, one per literal run
// and one per top-level alternation group. Options are taken verbatim, so
// nested groups and key references inside them are not expanded.
// Text without any content yields a single empty literal.
func Split(text string) []Segment {
	var segments []Segment
	for _, tok := range scanGroups(StripComments(text)) {
		switch tok.kind {
		case tokenLiteral:
			segments = append(segments, Literal(tok.text))
		case tokenGroup:
			options := make([]string, len(tok.options))
			for i, o := range tok.options {
				options[i] = unescapeGroup(o)
			}
			segments = append(segments, Alternatives(options...))
		}
	}
	if len(segments) == 0 {
		segments = append(segments, Literal(""))
	}
	return segments
}

// Combinations returns the number of strings Enumerate would produce for
// segments. It saturates at math.MaxInt.
func Combinations(segments []Segment) int {
	if len(segments) == 0 {
		return 0
	}
	total := 1
	for _, s := range segments {
		n := len(s.Options)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

// Enumerate returns the Cartesian product of segments. The output is ordered
// as a mixed-radix counter in which the first segment is the fastest-varying
// digit and the last segment the slowest.
func Enumerate(segments []Segment) []string {
	total := Combinations(segments)
	if total == 0 {
		return []string{}
	}

	out := make([]string, 0, total)
	index := make([]int, len(segments))
	var b strings.Builder
	for {
		b.Reset()
		for i, s := range segments {
			b.WriteString(s.Options[index[i]])
		}
		out = append(out, b.String())

		digit := 0
		for ; digit < len(segments); digit++ {
			if index[digit] < len(segments[digit].Options)-1 {
				index[digit]++
				break
			}
			index[digit] = 0
		}
		if digit == len(segments) {
			return out
		}
	}
}
