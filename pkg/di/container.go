// Package di provides dependency injection container
package di

import (
	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/api" //nolint:depguard
	"github.com/ssargent/reelshelf/pkg/config"
	"github.com/ssargent/reelshelf/pkg/metadata"
	"github.com/ssargent/reelshelf/pkg/store"
)

// StoreFactory opens the catalog store described by cfg
type StoreFactory func(cfg store.Config, opts ...store.Option) (store.Storage, error)

// FetcherFactory builds the metadata fetcher used by add --fetch
type FetcherFactory func(cfg config.Metadata, logger logrus.FieldLogger) (api.MovieFetcher, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory  api.ServerFactory
	storeFactory   StoreFactory
	fetcherFactory FetcherFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory:  api.NewServerFactory(),
		storeFactory:   defaultStoreFactory,
		fetcherFactory: defaultFetcherFactory,
	}
}

func defaultStoreFactory(cfg store.Config, opts ...store.Option) (store.Storage, error) {
	st, err := store.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func defaultFetcherFactory(cfg config.Metadata, logger logrus.FieldLogger) (api.MovieFetcher, error) {
	f, err := metadata.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// GetStoreFactory returns the store factory
func (c *Container) GetStoreFactory() StoreFactory {
	return c.storeFactory
}

// GetFetcherFactory returns the metadata fetcher factory
func (c *Container) GetFetcherFactory() FetcherFactory {
	return c.fetcherFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}

// SetFetcherFactory allows overriding the metadata fetcher factory (for testing)
func (c *Container) SetFetcherFactory(factory FetcherFactory) {
	c.fetcherFactory = factory
}
