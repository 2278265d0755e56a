// Package chunk provides the PNG chunk record codec used by pngme.
//
// A chunk is the unit PNG files are built from. pngme also uses it as a
// generic carrier for messages hidden inside otherwise ordinary images.
//
// # Record Format
//
// Chunks are serialized in the following binary format:
//
//	[Length(4)][Type(4)][Data(Length)][CRC32(4)]
//
// Fields:
//   - Length: 32-bit unsigned payload length in bytes (big-endian)
//   - Type: 4 ASCII letters, see package chunktype
//   - Data: the payload, preserved byte for byte
//   - CRC32: CRC-32 (IEEE, reflected polynomial 0xEDB88320) of Type and Data (big-endian)
//
// The total record size is 12 bytes plus the payload length.
//
// # CRC32 Calculation
//
// The checksum covers the type bytes followed by the data bytes. It is
// accumulated incrementally, so no combined buffer is allocated. The
// length field is not covered; a changed length moves the record boundary,
// which Parse reports as truncated input whichever way it moved.
//
// # Usage
//
//	t := chunktype.MustParse("RuSt")
//	c, err := chunk.New(t, []byte("hello"))
//	if err != nil {
//	    return err
//	}
//
//	encoded := c.Bytes()
//
//	decoded, err := chunk.Parse(encoded)
//	if errors.Is(err, chunk.ErrChecksumMismatch) {
//	    return err // corrupted or tampered
//	}
//
// # Error Handling
//
// Every failure is a *Error whose Kind is one of a closed set:
// checksum mismatch, truncated input, malformed type tag, invalid text
// payload and payload too large. Use errors.Is with the
// package sentinels, or KindOf, to tell them apart. Parse never returns a
// chunk whose CRC disagrees with its type and data.
//
// # Thread Safety
//
// Chunks are immutable after construction and safe to share between
// goroutines. Data returns a copy of the payload.
package chunk
