package stemqueue

import (
	"context"
	"math/big"
	"strings"

	"github.com/arbor-audio/arbor-node/prover"
)

// Signer is the connected account's signing capability. The production
// implementation is crypto/ethereum.SignKeys; tests substitute a fixed-key
// or failing signer.
type Signer interface {
	SignEthereum(msg []byte) ([]byte, error)
	AddressString() string
}

// Session is an explicit connected-account context. Every engine operation
// takes one instead of reading ambient wallet state, which keeps the
// protocol testable without a live wallet.
type Session struct {
	Address string
	Signer  Signer
}

// NewSession builds a session for the given signer.
func NewSession(signer Signer) *Session {
	return &Session{
		Address: strings.ToLower(signer.AddressString()),
		Signer:  signer,
	}
}

// ChainWire is the contract surface the engine drives: group membership
// management, proof-carrying vote submission and the authoritative vote
// counter. Implemented by the in-process verifier ledger and by the web3
// contract client.
type ChainWire interface {
	CreateGroup(ctx context.Context, groupID uint64) error
	AddMember(ctx context.Context, groupID uint64, commitment *big.Int) error
	GroupMembers(ctx context.Context, groupID uint64) ([]*big.Int, error)
	SubmitVote(ctx context.Context, groupID uint64, stemSignal []byte, proof *prover.VoteProof) error
	StemVoteCount(ctx context.Context, stemSignal []byte) (uint64, error)
}
