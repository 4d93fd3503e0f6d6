package source

import (
	"sort"

	"github.com/zeebo/xxh3"
)

// Range is a half-open byte range.
type Range struct {
	Start int
	End   int
}

// Source is an immutable file text together with the byte ranges of its
// numbered syntax nodes.
type Source struct {
	id     FileID
	text   string
	hash   uint64
	ranges map[uint64]Range
	lines  []int
}

// New creates a source. ranges maps node numbers to byte ranges and is
// owned by the returned Source.
func New(id FileID, text string, ranges map[uint64]Range) *Source {
	if ranges == nil {
		ranges = make(map[uint64]Range)
	}
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Source{
		id:     id,
		text:   text,
		hash:   xxh3.HashString(text),
		ranges: ranges,
		lines:  lines,
	}
}

// ID returns the file identity.
func (s *Source) ID() FileID { return s.id }

// Text returns the full text.
func (s *Source) Text() string { return s.text }

// Hash returns the xxh3 hash of the text.
func (s *Source) Hash() uint64 { return s.hash }

// Range returns the byte range covered by span. It fails for spans of
// other files and for unknown node numbers.
func (s *Source) Range(span Span) (Range, bool) {
	if span.File() != s.id {
		return Range{}, false
	}
	r, ok := s.ranges[span.Number()]
	return r, ok
}

// Slice returns the text covered by span.
func (s *Source) Slice(span Span) string {
	r, ok := s.Range(span)
	if !ok || r.Start < 0 || r.End > len(s.text) || r.Start > r.End {
		return ""
	}
	return s.text[r.Start:r.End]
}

// Position converts a byte offset to a 1-based line and 0-based column.
func (s *Source) Position(offset int) (line, col int) {
	i := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - s.lines[i]
}

// Line returns the 1-based line of span's start, or 0 if unknown.
func (s *Source) Line(span Span) int {
	r, ok := s.Range(span)
	if !ok {
		return 0
	}
	line, _ := s.Position(r.Start)
	return line
}
