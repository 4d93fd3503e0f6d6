package source

import (
	"cmp"
	"fmt"
)

const (
	numberBits = 48
	maxNumber  = 1<<numberBits - 1
)

// Span identifies a syntax node: the file it belongs to plus a node number
// that is unique within that file. The zero value is the detached span.
type Span struct {
	file FileID
	num  uint64
}

// Detached returns the span of synthesized nodes.
func Detached() Span { return Span{} }

// NewSpan creates a span for node number num of file. Numbers start at 2
// and must fit in 48 bits.
func NewSpan(file FileID, num uint64) Span {
	if file.IsZero() || num < 2 || num > maxNumber {
		return Span{}
	}
	return Span{file: file, num: num}
}

// IsDetached reports whether the span points nowhere.
func (s Span) IsDetached() bool { return s.file.IsZero() }

// File returns the span's file. It is zero for detached spans.
func (s Span) File() FileID { return s.file }

// Number returns the node number within the file.
func (s Span) Number() uint64 { return s.num }

// Raw returns the packed encoding: the file's sequence number in the high
// 16 bits and the node number in the low 48. Detached spans encode as 1.
// The encoding depends on file registration order.
func (s Span) Raw() uint64 {
	if s.IsDetached() {
		return 1
	}
	return uint64(s.file.Seq())<<numberBits | s.num
}

// Compare orders spans by raw encoding.
func (s Span) Compare(o Span) int {
	return cmp.Compare(s.Raw(), o.Raw())
}

// StrictCompare orders spans by file identity and then by node number, so
// the order does not depend on registration order.
func (s Span) StrictCompare(o Span) int {
	if c := s.file.StrictCompare(o.file); c != 0 {
		return c
	}
	return cmp.Compare(s.num, o.num)
}

func (s Span) String() string {
	if s.IsDetached() {
		return "<detached>"
	}
	return fmt.Sprintf("%s#%d", s.file, s.num)
}
