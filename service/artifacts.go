package service

import (
	"context"
	"time"

	"github.com/arbor-audio/arbor-node/circuits"
)

// DownloadArtifacts downloads the Semaphore circuit artifacts concurrently.
func DownloadArtifacts(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return circuits.SemaphoreArtifacts.DownloadAll(ctx)
}
