package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/ssargent/pngme/pkg/chunktype"
)

const testMessage = "This is where your secret message will be!"

const (
	testCRC        uint32 = 2882656334
	testCorruptCRC uint32 = 2882656333
)

// rawChunk assembles a serialized chunk by hand. The length is always taken
// from the message itself.
func rawChunk(tag, message string, crc uint32) []byte {
	buf := make([]byte, 0, Overhead+len(message))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(message)))
	buf = append(buf, tag...)
	buf = append(buf, message...)
	buf = binary.BigEndian.AppendUint32(buf, crc)
	return buf
}

func testingChunk(t *testing.T) *Chunk {
	t.Helper()
	c, err := Parse(rawChunk("RuSt", testMessage, testCRC))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c, err := New(chunktype.MustParse("RuSt"), []byte(testMessage))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if c.Length() != uint32(len(testMessage)) {
		t.Errorf("Length mismatch: got %d, want %d", c.Length(), len(testMessage))
	}
	if c.Length() != 42 {
		t.Errorf("Length mismatch: got %d, want 42", c.Length())
	}
	if c.CRC() != testCRC {
		t.Errorf("CRC mismatch: got %d, want %d", c.CRC(), testCRC)
	}
}

func TestNew_NilData(t *testing.T) {
	c, err := New(chunktype.MustParse("RuSt"), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Length() != 0 {
		t.Errorf("Length mismatch: got %d, want 0", c.Length())
	}
	if c.Data() == nil {
		t.Error("Data should be empty, not nil")
	}
}

func TestChunkAccessors(t *testing.T) {
	c := testingChunk(t)

	if c.Length() != 42 {
		t.Errorf("Length mismatch: got %d, want 42", c.Length())
	}
	if got := c.Type().String(); got != "RuSt" {
		t.Errorf("Type mismatch: got %q, want %q", got, "RuSt")
	}
	if c.CRC() != testCRC {
		t.Errorf("CRC mismatch: got %d, want %d", c.CRC(), testCRC)
	}
	if c.Size() != 12+len(testMessage) {
		t.Errorf("Size mismatch: got %d, want %d", c.Size(), 12+len(testMessage))
	}

	s, err := c.DataAsString()
	if err != nil {
		t.Fatalf("DataAsString failed: %v", err)
	}
	if s != testMessage {
		t.Errorf("DataAsString mismatch: got %q, want %q", s, testMessage)
	}
}

func TestParse_Golden(t *testing.T) {
	t.Run("valid checksum parses", func(t *testing.T) {
		c, err := Parse(rawChunk("RuSt", testMessage, testCRC))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if !bytes.Equal(c.Data(), []byte(testMessage)) {
			t.Errorf("Data mismatch: got %q", c.Data())
		}
	})

	t.Run("checksum off by one fails", func(t *testing.T) {
		c, err := Parse(rawChunk("RuSt", testMessage, testCorruptCRC))
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
		if c != nil {
			t.Error("no chunk may be returned on checksum mismatch")
		}
	})
}

func TestChunk_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		tag  string
		data []byte
	}{
		{name: "text", tag: "RuSt", data: []byte(testMessage)},
		{name: "empty payload", tag: "IEND", data: []byte{}},
		{name: "binary payload", tag: "biNa", data: []byte{0x00, 0xFF, 0xC3, 0x28, 0x80}},
		{name: "large payload", tag: "IDAT", data: bytes.Repeat([]byte{0xAB}, 64*1024)},
		{name: "unicode text", tag: "tEXt", data: []byte("🔑 clé secrète")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original, err := New(chunktype.MustParse(tc.tag), tc.data)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			encoded := original.Bytes()
			if len(encoded) != 12+len(tc.data) {
				t.Fatalf("encoded length: got %d, want %d", len(encoded), 12+len(tc.data))
			}

			decoded, err := Parse(encoded)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !decoded.Equal(original) {
				t.Errorf("round trip mismatch:\n got %s\nwant %s", decoded, original)
			}
			if !bytes.Equal(decoded.Data(), tc.data) {
				t.Errorf("Data mismatch")
			}
		})
	}
}

func TestChunk_Layout(t *testing.T) {
	c, err := New(chunktype.MustParse("RuSt"), []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	b := c.Bytes()
	if got := binary.BigEndian.Uint32(b[0:4]); got != 3 {
		t.Errorf("length field: got %d, want 3", got)
	}
	if got := string(b[4:8]); got != "RuSt" {
		t.Errorf("type field: got %q", got)
	}
	if !bytes.Equal(b[8:11], []byte{0x01, 0x02, 0x03}) {
		t.Errorf("data field: got %x", b[8:11])
	}
	if got := binary.BigEndian.Uint32(b[11:15]); got != c.CRC() {
		t.Errorf("crc field: got %d, want %d", got, c.CRC())
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	tag := chunktype.MustParse("RuSt")
	data := []byte(testMessage)

	first := Checksum(tag, data)
	second := Checksum(tag, data)
	if first != second {
		t.Errorf("checksum not deterministic: %d != %d", first, second)
	}
	if first != testCRC {
		t.Errorf("checksum: got %d, want %d", first, testCRC)
	}
	// Empty payload covers the tag alone.
	if got := Checksum(tag, nil); got != 3565422908 {
		t.Errorf("empty payload checksum: got %d, want 3565422908", got)
	}
}

func TestParse_TamperDetection(t *testing.T) {
	c, err := New(chunktype.MustParse("RuSt"), []byte(testMessage))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	encoded := c.Bytes()

	for bit := 0; bit < len(encoded)*8; bit++ {
		corrupted := bytes.Clone(encoded)
		corrupted[bit/8] ^= 1 << (bit % 8)

		_, err := Parse(corrupted)
		if err == nil {
			t.Fatalf("bit %d flip was not detected", bit)
		}

		offset := bit / 8
		switch {
		case offset < LengthSize:
			if !errors.Is(err, ErrTruncatedInput) {
				t.Errorf("bit %d in length: unexpected error %v", bit, err)
			}
		case offset < HeaderSize:
			if !errors.Is(err, ErrChecksumMismatch) && !errors.Is(err, ErrMalformedTypeTag) {
				t.Errorf("bit %d in type: unexpected error %v", bit, err)
			}
		default:
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Errorf("bit %d in data/crc: unexpected error %v", bit, err)
			}
		}
	}
}

func TestParse_LengthDisagreesWithInput(t *testing.T) {
	testCases := []struct {
		name   string
		flip   byte
		detail string
	}{
		{name: "length shrinks 42 to 40", flip: 0x02, detail: "leaves 2 extra bytes"},
		{name: "length grows 42 to 43", flip: 0x01, detail: "needs 55 bytes, got 54"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := rawChunk("RuSt", testMessage, testCRC)
			encoded[3] ^= tc.flip

			_, err := Parse(encoded)
			if !errors.Is(err, ErrTruncatedInput) {
				t.Fatalf("expected ErrTruncatedInput, got %v", err)
			}
			if errors.Is(err, ErrChecksumMismatch) {
				t.Fatalf("length change must not be reported as a checksum mismatch")
			}
			if !strings.Contains(err.Error(), tc.detail) {
				t.Errorf("expected detail %q in %q", tc.detail, err.Error())
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	valid := rawChunk("RuSt", testMessage, testCRC)

	testCases := []struct {
		name  string
		input []byte
		want  error
	}{
		{name: "empty input", input: nil, want: ErrTruncatedInput},
		{name: "shorter than framing", input: valid[:11], want: ErrTruncatedInput},
		{name: "data cut short", input: valid[:20], want: ErrTruncatedInput},
		{name: "missing crc", input: valid[:len(valid)-1], want: ErrTruncatedInput},
		{name: "trailing byte", input: append(bytes.Clone(valid), 0x00), want: ErrTruncatedInput},
		{name: "digit in type", input: rawChunk("Ru5t", testMessage, testCRC), want: ErrMalformedTypeTag},
		{name: "wrong crc", input: rawChunk("RuSt", testMessage, 0), want: ErrChecksumMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if c != nil {
				t.Error("expected nil chunk on error")
			}
		})
	}
}

func TestParse_MalformedTypeWrapsCause(t *testing.T) {
	_, err := Parse(rawChunk("Ru5t", testMessage, testCRC))
	if !errors.Is(err, chunktype.ErrInvalidByte) {
		t.Errorf("expected wrapped chunktype.ErrInvalidByte, got %v", err)
	}
	if KindOf(err) != KindMalformedTypeTag {
		t.Errorf("KindOf: got %v", KindOf(err))
	}
}

func TestParse_EmptyPayload(t *testing.T) {
	c, err := New(chunktype.MustParse("IEND"), []byte{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Length() != 0 {
		t.Errorf("Length: got %d, want 0", c.Length())
	}

	decoded, err := Parse(c.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(decoded.Data()) != 0 {
		t.Errorf("expected empty data, got %d bytes", len(decoded.Data()))
	}
	if decoded.CRC() != c.CRC() {
		t.Errorf("CRC: got %d, want %d", decoded.CRC(), c.CRC())
	}
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	encoded := rawChunk("RuSt", testMessage, testCRC)
	c, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	encoded[HeaderSize] ^= 0xFF

	s, err := c.DataAsString()
	if err != nil {
		t.Fatalf("DataAsString failed: %v", err)
	}
	if s != testMessage {
		t.Errorf("chunk changed after input was modified: %q", s)
	}
}

func TestData_ReturnsCopy(t *testing.T) {
	c := testingChunk(t)
	d := c.Data()
	d[0] = 'X'

	if c.Data()[0] != 'T' {
		t.Error("mutating Data() result changed the chunk")
	}
}

func TestDataAsString_InvalidUTF8(t *testing.T) {
	c, err := New(chunktype.MustParse("RuSt"), []byte{0xC3, 0x28})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s, err := c.DataAsString()
	if !errors.Is(err, ErrInvalidTextPayload) {
		t.Fatalf("expected ErrInvalidTextPayload, got %v", err)
	}
	if s != "" {
		t.Errorf("expected empty string, got %q", s)
	}
	if !bytes.Equal(c.Data(), []byte{0xC3, 0x28}) {
		t.Error("payload must be preserved byte for byte")
	}
}

func TestError_Message(t *testing.T) {
	_, err := Parse(rawChunk("RuSt", testMessage, testCorruptCRC))
	want := "chunk: checksum mismatch: stored 2882656333, computed 2882656334"
	if err == nil || err.Error() != want {
		t.Errorf("error message: got %v, want %q", err, want)
	}
	if KindOf(err).String() != "checksum_mismatch" {
		t.Errorf("kind string: got %q", KindOf(err).String())
	}
	if KindOf(errors.New("other")) != 0 {
		t.Error("KindOf should be zero for foreign errors")
	}
}

func TestEqual(t *testing.T) {
	a := testingChunk(t)
	b := testingChunk(t)
	other, err := New(chunktype.MustParse("RuSt"), []byte("different"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !a.Equal(b) {
		t.Error("identical chunks should be equal")
	}
	if a.Equal(other) {
		t.Error("different chunks should not be equal")
	}
	if a.Equal(nil) {
		t.Error("chunk should not equal nil")
	}
}
