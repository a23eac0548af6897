package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/storage"
	"github.com/arbor-audio/arbor-node/types"
)

// RegistrySyncer is the part of the voting engine the monitor drives: the
// replay of the chain's membership event log into the off-chain mirror.
type RegistrySyncer interface {
	SyncRegistry(ctx context.Context, projectID string) (*types.Project, error)
}

// RegistryMonitor keeps the off-chain voting group mirrors in sync with the
// chain. Registrations through this node refresh the mirror on the spot; the
// monitor covers registrations sent to the contract by other nodes or by
// clients directly.
type RegistryMonitor struct {
	engine   RegistrySyncer
	storage  *storage.Storage
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// NewRegistryMonitor creates a new RegistryMonitor service.
func NewRegistryMonitor(engine RegistrySyncer, stg *storage.Storage, interval time.Duration) *RegistryMonitor {
	return &RegistryMonitor{
		engine:   engine,
		storage:  stg,
		interval: interval,
	}
}

// Start begins the periodic mirror sync. It returns an error if the service
// is already running.
func (rm *RegistryMonitor) Start(ctx context.Context) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	rm.cancel = cancel

	go rm.syncLoop(ctx)
	return nil
}

// Stop halts the monitoring service.
func (rm *RegistryMonitor) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.cancel != nil {
		rm.cancel()
		rm.cancel = nil
	}
}

func (rm *RegistryMonitor) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.syncAll(ctx)
		}
	}
}

func (rm *RegistryMonitor) syncAll(ctx context.Context) {
	ids, err := rm.storage.ListProjects()
	if err != nil {
		log.Warnw("failed to list projects for registry sync", "error", err.Error())
		return
	}
	for _, id := range ids {
		if _, err := rm.engine.SyncRegistry(ctx, id); err != nil {
			log.Warnw("failed to sync voting group mirror", "projectID", id, "error", err.Error())
		}
	}
}
