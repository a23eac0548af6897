// Package circuits manages the zkSNARK circuit artifacts used by the stem
// voting protocol: the Semaphore witness calculator, its groth16 proving key
// and the verification key. Artifacts are cached locally by content hash and
// downloaded on demand.
package circuits

import (
	"context"
	"fmt"

	"github.com/arbor-audio/arbor-node/config"
	"github.com/arbor-audio/arbor-node/prover"
	"github.com/arbor-audio/arbor-node/types"
)

// SemaphoreArtifacts contains the circuit artifacts for the anonymous stem
// voting circuit: the circom wasm witness calculator, the groth16 proving
// key and the verification key.
var SemaphoreArtifacts = NewCircuitArtifacts(
	&Artifact{
		RemoteURL: config.SemaphoreCircuitURL,
		Hash:      types.HexStringToHexBytes(config.SemaphoreCircuitHash),
	},
	&Artifact{
		RemoteURL: config.SemaphoreProvingKeyURL,
		Hash:      types.HexStringToHexBytes(config.SemaphoreProvingKeyHash),
	},
	&Artifact{
		RemoteURL: config.SemaphoreVerificationKeyURL,
		Hash:      types.HexStringToHexBytes(config.SemaphoreVerificationKeyHash),
	})

// LoadProver loads the Semaphore artifacts from the local cache, downloading
// any that are missing, and builds a circom prover from them.
func LoadProver(ctx context.Context) (*prover.CircomProver, error) {
	if err := SemaphoreArtifacts.LoadAll(); err != nil {
		if err := SemaphoreArtifacts.DownloadAll(ctx); err != nil {
			return nil, fmt.Errorf("downloading semaphore artifacts: %w", err)
		}
		if err := SemaphoreArtifacts.LoadAll(); err != nil {
			return nil, fmt.Errorf("loading semaphore artifacts: %w", err)
		}
	}
	return prover.NewCircomProver(
		SemaphoreArtifacts.CircuitDefinition(),
		SemaphoreArtifacts.ProvingKey(),
		SemaphoreArtifacts.VerifyingKey())
}
