package intern

import (
	"encoding/binary"
	"math"
)

// Key helpers used by AppendKey implementations. Strings are length
// prefixed so that concatenated fields cannot collide.

// AppendString appends a length-prefixed string.
func AppendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

// AppendUint appends an unsigned integer.
func AppendUint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// AppendInt appends a signed integer.
func AppendInt(b []byte, v int64) []byte {
	return binary.AppendVarint(b, v)
}

// AppendFloat appends the bit pattern of a float.
func AppendFloat(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

// AppendBool appends a boolean.
func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// AppendTag appends a one-byte variant tag.
func AppendTag(b []byte, tag byte) []byte {
	return append(b, tag)
}
