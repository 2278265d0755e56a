package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/ssargent/pngme/pkg/chunktype"
)

// bodyChunkSize is the largest up-front buffer ReadFrom allocates for a body.
const bodyChunkSize = 64 * 1024

// Codec encodes and decodes chunks with an optional payload limit.
// A zero MaxLength means no limit beyond the 32-bit length field.
type Codec struct {
	MaxLength uint32
}

// NewCodec creates a codec that rejects payloads longer than maxLength.
func NewCodec(maxLength uint32) *Codec {
	return &Codec{MaxLength: maxLength}
}

// Encode builds a chunk and returns its serialized form.
func (c *Codec) Encode(t chunktype.ChunkType, data []byte) ([]byte, error) {
	if c.MaxLength > 0 && uint64(len(data)) > uint64(c.MaxLength) {
		return nil, newError(KindPayloadTooLarge, nil, "%d bytes exceeds limit %d", len(data), c.MaxLength)
	}
	ch, err := New(t, data)
	if err != nil {
		return nil, err
	}
	return ch.Bytes(), nil
}

// Decode parses exactly one serialized chunk.
func (c *Codec) Decode(b []byte) (*Chunk, error) {
	return parse(b, c.MaxLength)
}

// ReadFrom reads the next chunk from r.
func (c *Codec) ReadFrom(r io.Reader) (*Chunk, error) {
	return ReadFrom(r, c.MaxLength)
}

// ReadFrom reads one chunk from r. It returns io.EOF only when r is
// exhausted before the first byte; a partial chunk is ErrTruncatedInput.
// A non-zero maxLength rejects larger declared lengths before any body
// bytes are read.
func ReadFrom(r io.Reader, maxLength uint32) (*Chunk, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newError(KindTruncatedInput, nil, "header has %d of %d bytes", n, HeaderSize)
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[0:LengthSize])
	t, err := parseType(header[LengthSize:])
	if err != nil {
		return nil, err
	}
	if maxLength > 0 && length > maxLength {
		return nil, newError(KindPayloadTooLarge, nil, "declared length %d exceeds limit %d", length, maxLength)
	}

	body, err := readBody(r, uint64(length)+CRCSize)
	if err != nil {
		return nil, err
	}

	data := body[:length:length]
	stored := binary.BigEndian.Uint32(body[length:])
	return verify(length, t, data, stored)
}

// readBody reads exactly size bytes. The buffer grows with the bytes that
// actually arrive, so a corrupt length cannot force a large allocation.
func readBody(r io.Reader, size uint64) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(size, bodyChunkSize)))
	n, err := io.CopyN(&buf, r, int64(size))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newError(KindTruncatedInput, nil, "body has %d of %d bytes", n, size)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the serialized chunk to w.
func (c *Chunk) WriteTo(w io.Writer) (int64, error) {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:], c.length)
	tag := c.chunkType.Bytes()
	copy(header[LengthSize:], tag[:])

	var total int64
	n, err := w.Write(header[:])
	total += int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(c.data)
	total += int64(n)
	if err != nil {
		return total, err
	}
	var crc [CRCSize]byte
	binary.BigEndian.PutUint32(crc[:], c.crc)
	n, err = w.Write(crc[:])
	total += int64(n)
	return total, err
}
