package api

import (
	"encoding/base64"
	"time"
	"unicode/utf8"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind         string
	Port         int
	APIKey       string
	DefaultType  chunktype.ChunkType // Used when a request names no type
	MaxChunkSize uint32              // Largest accepted payload (0 = no limit)
	MaxBodySize  uint32              // Largest accepted PNG upload (0 = DefaultMaxBodySize)
}

// ChunkSummary describes a chunk without its framing
type ChunkSummary struct {
	Type       string `json:"type"`
	Length     uint32 `json:"length"`
	CRC        uint32 `json:"crc"`
	Size       int    `json:"size"`
	Critical   bool   `json:"critical"`
	Public     bool   `json:"public"`
	SafeToCopy bool   `json:"safe_to_copy"`
	Text       string `json:"text,omitempty"`
	Data       string `json:"data"` // base64
}

// StashEntry is a stashed chunk as returned by the API
type StashEntry struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Chunk     ChunkSummary `json:"chunk"`
}

func summarize(c *chunk.Chunk) ChunkSummary {
	t := c.Type()
	data := c.Data()
	s := ChunkSummary{
		Type:       t.String(),
		Length:     c.Length(),
		CRC:        c.CRC(),
		Size:       c.Size(),
		Critical:   t.IsCritical(),
		Public:     t.IsPublic(),
		SafeToCopy: t.IsSafeToCopy(),
		Data:       base64.StdEncoding.EncodeToString(data),
	}
	if utf8.Valid(data) {
		s.Text = string(data)
	}
	return s
}

func stashEntry(id ksuid.KSUID, c *chunk.Chunk) StashEntry {
	return StashEntry{
		ID:        id.String(),
		CreatedAt: id.Time().UTC(),
		Chunk:     summarize(c),
	}
}
