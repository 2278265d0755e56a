// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/storage"
)

// ChunkStash defines the chunk stash operations the API and CLI rely on
type ChunkStash interface {
	Put(c *chunk.Chunk) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*chunk.Chunk, error)
	Delete(id ksuid.KSUID) error
	List() ([]storage.Entry, error)
	Close() error
}

// StashFactory opens chunk stashes
type StashFactory interface {
	// OpenStash opens the stash described by config
	OpenStash(config storage.Config) (ChunkStash, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer runs the API server until ctx is cancelled
	StartServer(ctx context.Context, stash ChunkStash, config ServerConfig, logger hclog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
