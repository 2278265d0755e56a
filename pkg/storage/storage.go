// Package storage keeps serialized chunks in a local pebble database.
//
// Values are stored in their wire form and re-parsed on every read, so a
// value corrupted at rest surfaces as chunk.ErrChecksumMismatch.
package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
)

// ErrNotFound is returned when no chunk is stored under an id.
var ErrNotFound = errors.New("chunk not found in stash")

// Config holds configuration for the chunk stash
type Config struct {
	Dir          string // Directory for the pebble database
	Sync         bool   // Fsync every write
	MaxChunkSize uint32 // Reject larger payloads (0 = no limit)
}

// Entry is a stored chunk and its id.
type Entry struct {
	ID    ksuid.KSUID
	Chunk *chunk.Chunk
}

// ChunkStore is the pebble-backed chunk stash.
type ChunkStore struct {
	db        *pebble.DB
	codec     *chunk.Codec
	writeOpts *pebble.WriteOptions
}

// Open opens or creates the stash in config.Dir.
func Open(config Config) (*ChunkStore, error) {
	db, err := pebble.Open(config.Dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open stash: %w", err)
	}
	writeOpts := pebble.NoSync
	if config.Sync {
		writeOpts = pebble.Sync
	}
	return &ChunkStore{
		db:        db,
		codec:     chunk.NewCodec(config.MaxChunkSize),
		writeOpts: writeOpts,
	}, nil
}

// Put stores c under a new time-ordered id.
func (s *ChunkStore) Put(c *chunk.Chunk) (ksuid.KSUID, error) {
	if s.codec.MaxLength > 0 && c.Length() > s.codec.MaxLength {
		return ksuid.Nil, fmt.Errorf("%w: %d bytes exceeds limit %d", chunk.ErrPayloadTooLarge, c.Length(), s.codec.MaxLength)
	}
	id := ksuid.New()
	if err := s.db.Set(id.Bytes(), c.Bytes(), s.writeOpts); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Get loads and verifies the chunk stored under id.
func (s *ChunkStore) Get(id ksuid.KSUID) (*chunk.Chunk, error) {
	value, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer closer.Close()

	c, err := s.codec.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("stashed chunk %s: %w", id, err)
	}
	return c, nil
}

// Delete removes the chunk stored under id.
func (s *ChunkStore) Delete(id ksuid.KSUID) error {
	_, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	if err := closer.Close(); err != nil {
		return err
	}
	return s.db.Delete(id.Bytes(), s.writeOpts)
}

// List returns every stored chunk in id order, which follows creation time
// at one-second resolution. It stops at the first entry that fails
// verification.
func (s *ChunkStore) List() ([]Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("invalid stash key %x: %w", iter.Key(), err)
		}
		c, err := s.codec.Decode(iter.Value())
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("stashed chunk %s: %w", id, err)
		}
		entries = append(entries, Entry{ID: id, Chunk: c})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}
