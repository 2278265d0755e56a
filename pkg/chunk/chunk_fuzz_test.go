//go:build fuzz
// +build fuzz

package chunk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ssargent/pngme/pkg/chunktype"
)

// FuzzChunk_RoundTrip tests build/parse round-trip with random payloads
func FuzzChunk_RoundTrip(f *testing.F) {
	f.Add("RuSt", []byte(""))
	f.Add("RuSt", []byte("This is where your secret message will be!"))
	f.Add("IDAT", []byte{0x00, 0x01, 0x02, 0xFF})

	f.Fuzz(func(t *testing.T, tag string, data []byte) {
		ct, err := chunktype.Parse(tag)
		if err != nil {
			t.Skip("invalid tag")
		}
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		c, err := New(ct, data)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		decoded, err := Parse(c.Bytes())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if !decoded.Equal(c) {
			t.Errorf("round trip mismatch")
		}
		if !bytes.Equal(decoded.Data(), data) {
			t.Errorf("Data mismatch")
		}
	})
}

// FuzzChunk_CorruptionDetection tests that a flipped byte is always rejected
func FuzzChunk_CorruptionDetection(f *testing.F) {
	f.Add([]byte("value"), uint(0), byte(0xFF))
	f.Add([]byte("john@example.com"), uint(5), byte(0x01))
	f.Add([]byte("data"), uint(10), byte(0x80))

	f.Fuzz(func(t *testing.T, data []byte, pos uint, mask byte) {
		if len(data) > 10000 || mask == 0 {
			t.Skip()
		}

		c, err := New(chunktype.MustParse("RuSt"), data)
		if err != nil {
			t.Skip("New failed, skipping")
		}
		encoded := c.Bytes()
		if int(pos) >= len(encoded) {
			t.Skip("Corruption position beyond data length")
		}

		corrupted := bytes.Clone(encoded)
		corrupted[pos] ^= mask

		if _, err := Parse(corrupted); err == nil {
			t.Errorf("Corruption not detected! Original: %x, Corrupted: %x, Position: %d",
				encoded, corrupted, pos)
		}
	})
}

// FuzzParse_MalformedData tests that arbitrary input never panics and never
// yields an inconsistent chunk
func FuzzParse_MalformedData(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add(make([]byte, 11))
	f.Add(make([]byte, 12))
	f.Add([]byte{0, 0, 0, 0, 'I', 'E', 'N', 'D', 0xAE, 0x42, 0x60, 0x82})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		c, err := Parse(data)
		if err != nil {
			if KindOf(err) == 0 {
				t.Errorf("error is not a chunk error: %v", err)
			}
			return
		}
		if c.CRC() != Checksum(c.Type(), c.Data()) {
			t.Errorf("parsed chunk has inconsistent CRC")
		}
		if !bytes.Equal(c.Bytes(), data) {
			t.Errorf("re-encoding differs from input")
		}

		_, err = ReadFrom(bytes.NewReader(data), 0)
		if err != nil && !errors.Is(err, ErrTruncatedInput) {
			t.Errorf("ReadFrom disagrees with Parse: %v", err)
		}
	})
}
