// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/pngme/pkg/api" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	stashFactory  api.StashFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		stashFactory:  api.NewStashFactory(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetStashFactory returns the stash factory
func (c *Container) GetStashFactory() api.StashFactory {
	return c.stashFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetStashFactory allows overriding the stash factory (for testing)
func (c *Container) SetStashFactory(factory api.StashFactory) {
	c.stashFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
