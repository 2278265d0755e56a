// Package png assembles and disassembles PNG files as ordered chunk lists.
//
// Image data is never decoded; chunks are kept and rewritten verbatim.
package png

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
)

// Signature is the 8-byte header every PNG file starts with.
var Signature = [8]byte{137, 80, 78, 71, 13, 10, 26, 10}

var (
	// ErrInvalidSignature is returned when input does not start with Signature.
	ErrInvalidSignature = errors.New("invalid PNG signature")
	// ErrChunkNotFound is returned when no chunk has the requested type.
	ErrChunkNotFound = errors.New("chunk not found")
)

var iend = chunktype.MustParse("IEND")

// Png is a PNG file held as its chunk list.
type Png struct {
	chunks []*chunk.Chunk
}

// New creates a Png from the given chunks, in order.
func New(chunks ...*chunk.Chunk) *Png {
	return &Png{chunks: append([]*chunk.Chunk(nil), chunks...)}
}

// Parse decodes a complete PNG file. Every chunk is CRC-checked.
func Parse(b []byte) (*Png, error) {
	return ParseWithOptions(b, Options{})
}

// ParseWithOptions is like Parse but bounds chunk sizes.
func ParseWithOptions(b []byte, opts Options) (*Png, error) {
	r, err := NewReader(bytes.NewReader(b), opts)
	if err != nil {
		return nil, err
	}
	p := &Png{}
	it := r.Iterator()
	for it.Next() {
		p.chunks = append(p.chunks, it.Chunk())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadFile reads and parses the PNG file at path.
func ReadFile(path string, opts Options) (*Png, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	p, err := ParseWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// WriteFile writes the serialized file to path. The data goes to a
// temporary file in the same directory which then replaces path, so a
// failed write leaves any existing file untouched.
func (p *Png) WriteFile(path string, perm os.FileMode) error {
	return writeFileAtomic(path, perm, p.writeChunks)
}

func (p *Png) writeChunks(out io.Writer) error {
	w := NewWriter(out, 0)
	for _, c := range p.chunks {
		if err := w.WriteChunk(c); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeFileAtomic(path string, perm os.FileMode, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Header returns a copy of the PNG signature.
func (p *Png) Header() [8]byte {
	return Signature
}

// Chunks returns the chunks in file order.
func (p *Png) Chunks() []*chunk.Chunk {
	return append([]*chunk.Chunk(nil), p.chunks...)
}

// AppendChunk adds c to the file. If the file ends in IEND, c is placed
// before it so the result stays a well-formed image.
func (p *Png) AppendChunk(c *chunk.Chunk) {
	n := len(p.chunks)
	if n > 0 && p.chunks[n-1].Type().Equal(iend) {
		p.chunks = append(p.chunks, nil)
		copy(p.chunks[n:], p.chunks[n-1:])
		p.chunks[n-1] = c
		return
	}
	p.chunks = append(p.chunks, c)
}

// RemoveFirstChunk removes and returns the first chunk of type t.
func (p *Png) RemoveFirstChunk(t chunktype.ChunkType) (*chunk.Chunk, error) {
	for i, c := range p.chunks {
		if c.Type().Equal(t) {
			p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, t)
}

// ChunkByType returns the first chunk of type t, or nil.
func (p *Png) ChunkByType(t chunktype.ChunkType) *chunk.Chunk {
	for _, c := range p.chunks {
		if c.Type().Equal(t) {
			return c
		}
	}
	return nil
}

// ChunksByType returns every chunk of type t in file order.
func (p *Png) ChunksByType(t chunktype.ChunkType) []*chunk.Chunk {
	var out []*chunk.Chunk
	for _, c := range p.chunks {
		if c.Type().Equal(t) {
			out = append(out, c)
		}
	}
	return out
}

// Size returns the serialized file size.
func (p *Png) Size() int {
	n := len(Signature)
	for _, c := range p.chunks {
		n += c.Size()
	}
	return n
}

// Bytes returns the serialized file.
func (p *Png) Bytes() []byte {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, Signature[:]...)
	for _, c := range p.chunks {
		buf = append(buf, c.Bytes()...)
	}
	return buf
}

func (p *Png) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Png {\n  Chunks: %d\n", len(p.chunks))
	for _, c := range p.chunks {
		for _, line := range strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n") {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
