// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/pngme/pkg/storage"
)

// DefaultStashFactory opens pebble-backed stashes
type DefaultStashFactory struct{}

// NewStashFactory creates a new stash factory
func NewStashFactory() StashFactory {
	return &DefaultStashFactory{}
}

// OpenStash opens the pebble stash in config.Dir
func (f *DefaultStashFactory) OpenStash(config storage.Config) (ChunkStash, error) {
	stash, err := storage.Open(config)
	if err != nil {
		return nil, err
	}
	return stash, nil
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with metrics on the default registry
func (s *DefaultServerStarter) StartServer(ctx context.Context, stash ChunkStash, config ServerConfig, logger hclog.Logger) error {
	return StartServer(ctx, stash, config, NewMetrics(prometheus.DefaultRegisterer), logger)
}
