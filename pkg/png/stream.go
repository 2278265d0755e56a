package png

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/pngme/pkg/chunk"
)

// DefaultBufferSize is used when a Writer is created with size 0.
const DefaultBufferSize = 64 * 1024

// Options controls how PNG data is read.
type Options struct {
	// MaxChunkSize rejects chunks whose declared length is larger.
	// Zero means no limit.
	MaxChunkSize uint32
}

// Reader provides sequential access to the chunks of a PNG stream
type Reader struct {
	reader *bufio.Reader
	codec  *chunk.Codec
	offset int64
	index  int
}

// NewReader validates the signature and positions r at the first chunk.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	br := bufio.NewReader(r)
	var sig [8]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidSignature
		}
		return nil, err
	}
	if !bytes.Equal(sig[:], Signature[:]) {
		return nil, ErrInvalidSignature
	}
	return &Reader{
		reader: br,
		codec:  chunk.NewCodec(opts.MaxChunkSize),
		offset: int64(len(Signature)),
	}, nil
}

// ReadNext reads the next chunk. It returns io.EOF at a clean end of stream.
// Chunk errors are wrapped with the chunk index and byte offset.
func (r *Reader) ReadNext() (*chunk.Chunk, error) {
	c, err := r.codec.ReadFrom(r.reader)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("chunk %d at offset %d: %w", r.index, r.offset, err)
	}
	r.offset += int64(c.Size())
	r.index++
	return c, nil
}

// Offset returns the byte offset of the next chunk.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over the remaining chunks.
func (r *Reader) Iterator() *Iterator {
	return &Iterator{reader: r}
}

// Iterator walks chunks until the end of the stream or the first error.
type Iterator struct {
	reader *Reader
	chunk  *chunk.Chunk
	err    error
}

// Next advances to the next chunk.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.chunk, it.err = it.reader.ReadNext()
	return it.err == nil
}

// Chunk returns the current chunk.
func (it *Iterator) Chunk() *chunk.Chunk {
	return it.chunk
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *Iterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

// Writer writes a PNG stream: the signature followed by chunks.
type Writer struct {
	writer    *bufio.Writer
	offset    int64
	signature bool
}

// NewWriter creates a buffered Writer. A size of 0 uses DefaultBufferSize.
func NewWriter(w io.Writer, size int) *Writer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Writer{writer: bufio.NewWriterSize(w, size)}
}

// WriteChunk appends c, writing the signature first if needed.
func (w *Writer) WriteChunk(c *chunk.Chunk) error {
	if err := w.writeSignature(); err != nil {
		return err
	}
	n, err := c.WriteTo(w.writer)
	w.offset += n
	return err
}

// Flush writes any buffered data. An empty stream still gets a signature.
func (w *Writer) Flush() error {
	if err := w.writeSignature(); err != nil {
		return err
	}
	return w.writer.Flush()
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.offset
}

func (w *Writer) writeSignature() error {
	if w.signature {
		return nil
	}
	n, err := w.writer.Write(Signature[:])
	w.offset += int64(n)
	if err != nil {
		return err
	}
	w.signature = true
	return nil
}
