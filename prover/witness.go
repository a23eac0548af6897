// Package prover builds the voting circuit witness and generates the
// Groth16 proof a member submits to signal support for a queued stem. The
// circuit is a circom artifact; proving runs through the rapidsnark raw
// prover and verification goes through the circom2gnark bridge.
package prover

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/types"
)

// VoteWitness is the private input of the voting circuit: the identity
// secrets, the authentication path of the identity commitment in the group
// tree, the stem-scoped external nullifier and the raw signal. All fields
// are required; the witness is validated at construction so a malformed one
// never reaches the prover.
type VoteWitness struct {
	Trapdoor          *big.Int
	Nullifier         *big.Int
	MerkleProof       *types.MembershipProof
	ExternalNullifier *big.Int
	Signal            []byte
}

// NewVoteWitness assembles and validates a witness for the given identity
// voting on the given stem. The membership proof must belong to the
// identity's commitment; a mismatch means the caller fetched a proof for the
// wrong member.
func NewVoteWitness(voter *identity.Identity, proof *types.MembershipProof, stemID string) (*VoteWitness, error) {
	if voter == nil || voter.Trapdoor == nil || voter.Nullifier == nil {
		return nil, fmt.Errorf("incomplete voter identity")
	}
	if proof == nil {
		return nil, fmt.Errorf("missing membership proof")
	}
	if len(proof.Siblings) != types.GroupTreeMaxLevels {
		return nil, fmt.Errorf("membership proof has %d siblings, want %d",
			len(proof.Siblings), types.GroupTreeMaxLevels)
	}
	if stemID == "" {
		return nil, fmt.Errorf("empty stem id")
	}
	commitment, err := voter.Commitment()
	if err != nil {
		return nil, fmt.Errorf("computing identity commitment: %w", err)
	}
	if commitment.Cmp(new(big.Int).SetBytes(proof.Commitment)) != 0 {
		return nil, fmt.Errorf("membership proof does not match the voter identity")
	}
	extNullifier, err := identity.ExternalNullifier(stemID)
	if err != nil {
		return nil, fmt.Errorf("deriving external nullifier: %w", err)
	}
	signal, err := StemSignal(stemID)
	if err != nil {
		return nil, err
	}
	return &VoteWitness{
		Trapdoor:          voter.Trapdoor,
		Nullifier:         voter.Nullifier,
		MerkleProof:       proof,
		ExternalNullifier: extNullifier,
		Signal:            signal,
	}, nil
}

// NullifierHash returns the public replay tag this witness will produce,
// poseidon(externalNullifier, identityNullifier).
func (w *VoteWitness) NullifierHash() (*big.Int, error) {
	voter := &identity.Identity{Trapdoor: w.Trapdoor, Nullifier: w.Nullifier}
	return voter.NullifierHash(w.ExternalNullifier)
}

// SignalHash returns the field-reduced hash of the raw signal.
func (w *VoteWitness) SignalHash() *big.Int {
	return identity.SignalHash(w.Signal)
}

// CircomInputs encodes the witness as the JSON input document the circom
// witness calculator expects. Numeric values are decimal strings, path
// indices one bit per level.
func (w *VoteWitness) CircomInputs() ([]byte, error) {
	siblings := make([]string, len(w.MerkleProof.Siblings))
	for i, s := range w.MerkleProof.Siblings {
		siblings[i] = new(big.Int).SetBytes(s).String()
	}
	indices := make([]string, 0, types.GroupTreeMaxLevels)
	for _, b := range w.MerkleProof.PathIndices() {
		indices = append(indices, fmt.Sprint(b))
	}
	inputs := map[string]any{
		"identity_trapdoor":   w.Trapdoor.String(),
		"identity_nullifier":  w.Nullifier.String(),
		"path_elements":       siblings,
		"identity_path_index": indices,
		"external_nullifier":  w.ExternalNullifier.String(),
		"signal_hash":         w.SignalHash().String(),
	}
	return json.Marshal(inputs)
}

// StemSignal encodes a stem identifier as the fixed 32-byte signal the
// contract takes. The string is padded with zero bytes on the right; one
// byte is reserved for the terminator, matching the usual bytes32 string
// encoding.
func StemSignal(stemID string) ([]byte, error) {
	if len(stemID) > types.StemSignalLength-1 {
		return nil, fmt.Errorf("stem id %q does not fit in a %d byte signal",
			stemID, types.StemSignalLength)
	}
	signal := make([]byte, types.StemSignalLength)
	copy(signal, stemID)
	return signal, nil
}
