package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/arbor-audio/arbor-node/api"
	"github.com/arbor-audio/arbor-node/stemqueue"
	"github.com/arbor-audio/arbor-node/storage"
)

// APIService owns the lifecycle of the HTTP API server.
type APIService struct {
	engine  *stemqueue.Engine
	storage *storage.Storage
	host    string
	port    int

	mu      sync.Mutex
	api     *api.API
	running bool
}

// NewAPI prepares an API service bound to host:port. Nothing listens until
// Start is called.
func NewAPI(engine *stemqueue.Engine, stg *storage.Storage, host string, port int) *APIService {
	return &APIService{
		engine:  engine,
		storage: stg,
		host:    host,
		port:    port,
	}
}

// Start brings up the API server. Calling Start on a running service is an
// error.
func (as *APIService) Start(_ context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.running {
		return fmt.Errorf("service already running")
	}
	a, err := api.New(&api.APIConfig{
		Host:    as.host,
		Port:    as.port,
		Engine:  as.engine,
		Storage: as.storage,
	})
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.api = a
	as.running = true
	return nil
}

// Stop shuts the service down. The storage stays open; whoever opened the
// database owns its lifecycle.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	as.running = false
}

// HostPort reports the configured listen address.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}
