package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/pngme/pkg/chunktype"
)

const (
	// LengthSize is the size of the big-endian length field.
	LengthSize = 4
	// CRCSize is the size of the trailing big-endian CRC field.
	CRCSize = 4
	// HeaderSize covers the length and type fields.
	HeaderSize = LengthSize + chunktype.Size
	// Overhead is the number of framing bytes around the payload.
	Overhead = HeaderSize + CRCSize

	// MaxLength is the largest payload the length field can describe.
	MaxLength = math.MaxUint32
)

// Chunk is a length-prefixed, type-tagged, CRC-checked record.
// A Chunk is immutable and its CRC always matches its type and data.
type Chunk struct {
	length    uint32
	chunkType chunktype.ChunkType
	data      []byte
	crc       uint32
}

// New builds a chunk from a type and payload. The chunk takes ownership of data.
func New(t chunktype.ChunkType, data []byte) (*Chunk, error) {
	if uint64(len(data)) > MaxLength {
		return nil, newError(KindPayloadTooLarge, nil, "%d bytes exceeds %d", len(data), uint64(MaxLength))
	}
	if data == nil {
		data = []byte{}
	}
	return &Chunk{
		length:    uint32(len(data)),
		chunkType: t,
		data:      data,
		crc:       Checksum(t, data),
	}, nil
}

// Checksum computes the CRC-32 (IEEE) of the type bytes followed by data.
func Checksum(t chunktype.ChunkType, data []byte) uint32 {
	tag := t.Bytes()
	crc := crc32.Update(0, crc32.IEEETable, tag[:])
	return crc32.Update(crc, crc32.IEEETable, data)
}

// Parse decodes exactly one serialized chunk. The returned chunk does not
// alias b.
func Parse(b []byte) (*Chunk, error) {
	return parse(b, 0)
}

func parse(b []byte, maxLength uint32) (*Chunk, error) {
	if len(b) < Overhead {
		return nil, newError(KindTruncatedInput, nil, "need at least %d bytes, got %d", Overhead, len(b))
	}

	length := binary.BigEndian.Uint32(b[0:LengthSize])
	t, err := parseType(b[LengthSize:HeaderSize])
	if err != nil {
		return nil, err
	}
	if maxLength > 0 && length > maxLength {
		return nil, newError(KindPayloadTooLarge, nil, "declared length %d exceeds limit %d", length, maxLength)
	}

	// The slice boundary is the record boundary: a declared length that
	// disagrees with it in either direction is truncated input.
	end := uint64(Overhead) + uint64(length)
	if uint64(len(b)) < end {
		return nil, newError(KindTruncatedInput, nil, "declared length %d needs %d bytes, got %d", length, end, len(b))
	}
	if uint64(len(b)) > end {
		return nil, newError(KindTruncatedInput, nil, "declared length %d leaves %d extra bytes", length, uint64(len(b))-end)
	}

	dataEnd := HeaderSize + int(length)
	data := bytes.Clone(b[HeaderSize:dataEnd])
	if data == nil {
		data = []byte{}
	}
	stored := binary.BigEndian.Uint32(b[dataEnd:])

	return verify(length, t, data, stored)
}

func parseType(b []byte) (chunktype.ChunkType, error) {
	var raw [chunktype.Size]byte
	copy(raw[:], b)
	t, err := chunktype.FromBytes(raw)
	if err != nil {
		return chunktype.ChunkType{}, newError(KindMalformedTypeTag, err, "%q", raw[:])
	}
	return t, nil
}

func verify(length uint32, t chunktype.ChunkType, data []byte, stored uint32) (*Chunk, error) {
	computed := Checksum(t, data)
	if computed != stored {
		return nil, newError(KindChecksumMismatch, nil, "stored %d, computed %d", stored, computed)
	}
	return &Chunk{
		length:    length,
		chunkType: t,
		data:      data,
		crc:       computed,
	}, nil
}

// Length returns the payload length in bytes.
func (c *Chunk) Length() uint32 {
	return c.length
}

// Type returns the chunk type tag.
func (c *Chunk) Type() chunktype.ChunkType {
	return c.chunkType
}

// Data returns a copy of the payload.
func (c *Chunk) Data() []byte {
	return bytes.Clone(c.data)
}

// CRC returns the chunk checksum.
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// Size returns the serialized size: 12 bytes of framing plus the payload.
func (c *Chunk) Size() int {
	return Overhead + len(c.data)
}

// DataAsString returns the payload as text. It fails with
// ErrInvalidTextPayload when the payload is not valid UTF-8; the chunk
// itself stays valid.
func (c *Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", newError(KindInvalidTextPayload, nil, "%d bytes", len(c.data))
	}
	return string(c.data), nil
}

// Bytes returns the canonical serialized form.
// Format: [Length(4)][Type(4)][Data(Length)][CRC(4)], big-endian.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, c.Size())
	binary.BigEndian.PutUint32(buf[0:], c.length)
	tag := c.chunkType.Bytes()
	copy(buf[LengthSize:], tag[:])
	copy(buf[HeaderSize:], c.data)
	binary.BigEndian.PutUint32(buf[HeaderSize+len(c.data):], c.crc)
	return buf
}

// Equal reports whether both chunks have identical fields.
func (c *Chunk) Equal(other *Chunk) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.length == other.length &&
		c.chunkType.Equal(other.chunkType) &&
		c.crc == other.crc &&
		bytes.Equal(c.data, other.data)
}

func (c *Chunk) String() string {
	var sb strings.Builder
	sb.WriteString("Chunk {\n")
	fmt.Fprintf(&sb, "  Length: %d\n", c.length)
	fmt.Fprintf(&sb, "  Type: %s\n", c.chunkType)
	fmt.Fprintf(&sb, "  Data: %d bytes\n", len(c.data))
	fmt.Fprintf(&sb, "  Crc: %d\n", c.crc)
	sb.WriteString("}\n")
	return sb.String()
}
