// Package identity implements the anonymous voting identity scheme. An
// identity is derived deterministically from a message signed by the user's
// account key, so re-signing the same message always reproduces the same
// identity. Only the commitment ever leaves the client; trapdoor and
// nullifier are proof-time secrets.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/arbor-audio/arbor-node/crypto/ethereum"
	"github.com/arbor-audio/arbor-node/util"
)

// RegistrationMessage is the consent string a user signs to derive their
// voting identity for a project group.
const RegistrationMessage = "Sign this message to register for this Arbor " +
	"project's anonymous voting group. You are signing to create your " +
	"anonymous identity for the stem queue."

// Identity holds the secrets of an anonymous group member. GroupID scopes
// the identity to the voting group it was registered for.
type Identity struct {
	Trapdoor  *big.Int
	Nullifier *big.Int
	GroupID   uint64
}

// FromSignature derives an identity from the bytes of a signed registration
// message. The derivation is deterministic: same signature, same identity.
func FromSignature(signature []byte, groupID uint64) *Identity {
	trapdoor, nullifier := deriveSecrets(signature)
	return &Identity{
		Trapdoor:  trapdoor,
		Nullifier: nullifier,
		GroupID:   groupID,
	}
}

// Signer is anything that can produce an ethereum personal_sign signature,
// typically an ethereum.SignKeys or a wallet session.
type Signer interface {
	SignEthereum(message []byte) ([]byte, error)
}

// FromSigner signs the registration message with the given keys and derives
// the identity from the resulting signature.
func FromSigner(signer Signer, groupID uint64) (*Identity, error) {
	sig, err := signer.SignEthereum([]byte(RegistrationMessage))
	if err != nil {
		return nil, fmt.Errorf("signing rejected: %w", err)
	}
	return FromSignature(sig, groupID), nil
}

// Commitment returns the public identity commitment,
// poseidon(poseidon(nullifier, trapdoor)).
func (i *Identity) Commitment() (*big.Int, error) {
	secret, err := poseidon.Hash([]*big.Int{i.Nullifier, i.Trapdoor})
	if err != nil {
		return nil, err
	}
	return poseidon.Hash([]*big.Int{secret})
}

// CommitmentBytes returns the commitment as big-endian bytes.
func (i *Identity) CommitmentBytes() ([]byte, error) {
	c, err := i.Commitment()
	if err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}

// NullifierHash computes the replay tag for this identity voting under the
// given external nullifier, poseidon(externalNullifier, identityNullifier).
// For a fixed (identity, external nullifier) pair it is a constant, which is
// what makes double votes detectable without revealing the voter.
func (i *Identity) NullifierHash(externalNullifier *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{externalNullifier, i.Nullifier})
}

// ExternalNullifier derives the per-stem voting scope from the stem
// identifier. It applies the same derivation used for identity commitments to
// the stem ID string, so one identity can vote once per stem while votes on
// different stems stay unlinkable.
func ExternalNullifier(stemID string) (*big.Int, error) {
	trapdoor, nullifier := deriveSecrets([]byte(stemID))
	secret, err := poseidon.Hash([]*big.Int{nullifier, trapdoor})
	if err != nil {
		return nil, err
	}
	return poseidon.Hash([]*big.Int{secret})
}

// SignalHash reduces an arbitrary signal into the circuit field by hashing
// and dropping one byte, the usual convention for keccak-sized signals.
func SignalHash(signal []byte) *big.Int {
	h := ethereum.HashRaw(signal)
	return new(big.Int).Rsh(new(big.Int).SetBytes(h), 8)
}

// deriveSecrets expands a seed into the (trapdoor, nullifier) pair using
// domain-separated sha256 digests reduced into the circuit field.
func deriveSecrets(seed []byte) (*big.Int, *big.Int) {
	base := sha256.Sum256(seed)
	hexSeed := hex.EncodeToString(base[:])
	trapdoor := sha256.Sum256([]byte(hexSeed + "identity_trapdoor"))
	nullifier := sha256.Sum256([]byte(hexSeed + "identity_nullifier"))
	return util.BigToFF(new(big.Int).SetBytes(trapdoor[:])),
		util.BigToFF(new(big.Int).SetBytes(nullifier[:]))
}
