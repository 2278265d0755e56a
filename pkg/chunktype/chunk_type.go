// Package chunktype implements the 4-byte chunk type tag used by PNG chunks.
//
// Each byte of a tag is an ASCII letter. Bit 5 of each byte (the lowercase
// bit) carries a property flag:
//
//	byte 0: ancillary bit   - clear means critical
//	byte 1: private bit     - clear means public
//	byte 2: reserved bit    - must be clear
//	byte 3: safe-to-copy bit - set means safe to copy
//
// The flags are exposed through named predicates rather than raw bits.
package chunktype

import (
	"errors"
	"fmt"
)

// Size is the number of bytes in a chunk type tag.
const Size = 4

const propertyBit = 1 << 5

var (
	// ErrInvalidLength is returned when a textual tag is not exactly 4 bytes.
	ErrInvalidLength = errors.New("chunk type must be exactly 4 bytes")
	// ErrInvalidByte is returned when a tag byte is not an ASCII letter.
	ErrInvalidByte = errors.New("chunk type bytes must be ASCII letters")
)

// ChunkType is an immutable 4-byte chunk type tag.
type ChunkType struct {
	b [Size]byte
}

// FromBytes builds a chunk type from its raw bytes.
func FromBytes(b [Size]byte) (ChunkType, error) {
	for i, c := range b {
		if !isLetter(c) {
			return ChunkType{}, fmt.Errorf("%w: byte %d is 0x%02x", ErrInvalidByte, i, c)
		}
	}
	return ChunkType{b: b}, nil
}

// Parse builds a chunk type from its 4-character textual form.
func Parse(s string) (ChunkType, error) {
	if len(s) != Size {
		return ChunkType{}, fmt.Errorf("%w: got %d", ErrInvalidLength, len(s))
	}
	var b [Size]byte
	copy(b[:], s)
	return FromBytes(b)
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) ChunkType {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Bytes returns the raw tag bytes.
func (t ChunkType) Bytes() [Size]byte {
	return t.b
}

// String returns the tag as text.
func (t ChunkType) String() string {
	return string(t.b[:])
}

// Equal reports whether two tags are identical.
func (t ChunkType) Equal(other ChunkType) bool {
	return t.b == other.b
}

// IsZero reports whether t is the zero value, which no constructor returns.
func (t ChunkType) IsZero() bool {
	return t.b == [Size]byte{}
}

// IsCritical reports whether decoders must understand this chunk.
func (t ChunkType) IsCritical() bool {
	return t.b[0]&propertyBit == 0
}

// IsPublic reports whether the tag belongs to the public registry.
func (t ChunkType) IsPublic() bool {
	return t.b[1]&propertyBit == 0
}

// IsReservedBitValid reports whether the reserved bit is clear.
func (t ChunkType) IsReservedBitValid() bool {
	return t.b[2]&propertyBit == 0
}

// IsSafeToCopy reports whether editors may copy the chunk unmodified
// after changing critical chunks.
func (t ChunkType) IsSafeToCopy() bool {
	return t.b[3]&propertyBit != 0
}

// IsValid reports whether every byte is a letter and the reserved bit is clear.
func (t ChunkType) IsValid() bool {
	for _, c := range t.b {
		if !isLetter(c) {
			return false
		}
	}
	return t.IsReservedBitValid()
}

// MarshalText implements encoding.TextMarshaler.
func (t ChunkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ChunkType) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
