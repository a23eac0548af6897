package verifier

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/prover"
)

func newLedger(t *testing.T, checker ProofChecker) *Ledger {
	return New(metadb.NewTest(t), checker)
}

// craftVote builds the public side of a vote the way the prover would,
// without running the circuit.
func craftVote(t *testing.T, l *Ledger, voter *identity.Identity, stemID string) ([]byte, *prover.VoteProof) {
	t.Helper()
	c := qt.New(t)
	root, err := l.GroupRoot(context.Background(), voter.GroupID)
	c.Assert(err, qt.IsNil)
	ext, err := identity.ExternalNullifier(stemID)
	c.Assert(err, qt.IsNil)
	nh, err := voter.NullifierHash(ext)
	c.Assert(err, qt.IsNil)
	signal, err := prover.StemSignal(stemID)
	c.Assert(err, qt.IsNil)
	return signal, &prover.VoteProof{
		Root:              root,
		NullifierHash:     nh,
		SignalHash:        identity.SignalHash(signal),
		ExternalNullifier: ext,
	}
}

func registerVoters(t *testing.T, l *Ledger, groupID uint64, n int) []*identity.Identity {
	c := qt.New(t)
	c.Assert(l.CreateGroup(context.Background(), groupID), qt.IsNil)
	voters := make([]*identity.Identity, n)
	for i := range voters {
		voters[i] = identity.FromSignature([]byte(fmt.Sprintf("voter %d", i)), groupID)
		commitment, err := voters[i].Commitment()
		c.Assert(err, qt.IsNil)
		c.Assert(l.AddMember(context.Background(), groupID, commitment), qt.IsNil)
	}
	return voters
}

func TestGroupLifecycle(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, nil)

	commitment := big.NewInt(42)
	c.Assert(l.AddMember(ctx, 1, commitment), qt.ErrorIs, ErrUnknownGroup)
	_, err := l.GroupRoot(ctx, 1)
	c.Assert(err, qt.ErrorIs, ErrUnknownGroup)

	c.Assert(l.CreateGroup(ctx, 1), qt.IsNil)
	c.Assert(l.CreateGroup(ctx, 1), qt.IsNotNil)

	c.Assert(l.AddMember(ctx, 1, commitment), qt.IsNil)
	c.Assert(l.AddMember(ctx, 1, commitment), qt.IsNotNil)

	members, err := l.GroupMembers(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(members, qt.HasLen, 1)
	c.Assert(members[0].Cmp(commitment), qt.Equals, 0)
}

func TestVoteScenario(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, nil)
	voters := registerVoters(t, l, 1, 3)

	// second member votes on the stem
	signal, vp := craftVote(t, l, voters[1], "stem_001")
	c.Assert(l.SubmitVote(ctx, 1, signal, vp), qt.IsNil)
	count, err := l.StemVoteCount(ctx, signal)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))

	// same identity, same stem: replayed nullifier
	_, replay := craftVote(t, l, voters[1], "stem_001")
	c.Assert(l.SubmitVote(ctx, 1, signal, replay), qt.ErrorIs, ErrNullifierAlreadyUsed)
	count, err = l.StemVoteCount(ctx, signal)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))

	// a different member may still vote
	signal, vp = craftVote(t, l, voters[0], "stem_001")
	c.Assert(l.SubmitVote(ctx, 1, signal, vp), qt.IsNil)
	count, err = l.StemVoteCount(ctx, signal)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(2))
}

func TestVoteStemIsolation(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, nil)
	voters := registerVoters(t, l, 1, 1)

	s1, vp1 := craftVote(t, l, voters[0], "stem_001")
	s2, vp2 := craftVote(t, l, voters[0], "stem_002")
	c.Assert(vp1.ExternalNullifier.Cmp(vp2.ExternalNullifier), qt.Not(qt.Equals), 0)
	c.Assert(vp1.NullifierHash.Cmp(vp2.NullifierHash), qt.Not(qt.Equals), 0)

	c.Assert(l.SubmitVote(ctx, 1, s1, vp1), qt.IsNil)
	c.Assert(l.SubmitVote(ctx, 1, s2, vp2), qt.IsNil)

	count, err := l.StemVoteCount(ctx, s1)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
	count, err = l.StemVoteCount(ctx, s2)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
}

func TestVoteMisdirectedSignal(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, nil)
	voters := registerVoters(t, l, 1, 1)

	// a proof scoped to stem_A submitted under stem_B's signal must not
	// touch stem_B's counter
	_, vp := craftVote(t, l, voters[0], "stem_A")
	otherSignal, err := prover.StemSignal("stem_B")
	c.Assert(err, qt.IsNil)
	c.Assert(l.SubmitVote(ctx, 1, otherSignal, vp), qt.ErrorIs, ErrSignalMismatch)
	count, err := l.StemVoteCount(ctx, otherSignal)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))

	// nothing was recorded, so the proof still lands on its own stem
	signal, err := prover.StemSignal("stem_A")
	c.Assert(err, qt.IsNil)
	c.Assert(l.SubmitVote(ctx, 1, signal, vp), qt.IsNil)
}

func TestVoteStaleRoot(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, nil)
	voters := registerVoters(t, l, 1, 2)

	signal, vp := craftVote(t, l, voters[0], "stem_001")

	// a registration lands between proof generation and submission
	late := identity.FromSignature([]byte("late voter"), 1)
	commitment, err := late.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(l.AddMember(ctx, 1, commitment), qt.IsNil)

	c.Assert(l.SubmitVote(ctx, 1, signal, vp), qt.ErrorIs, ErrRootMismatch)

	// regenerating against the fresh root succeeds
	signal, vp = craftVote(t, l, voters[0], "stem_001")
	c.Assert(l.SubmitVote(ctx, 1, signal, vp), qt.IsNil)
}

func TestVoteProofCheckerRejection(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	l := newLedger(t, func(*prover.VoteProof) error {
		return fmt.Errorf("pairing check failed")
	})
	voters := registerVoters(t, l, 1, 1)

	signal, vp := craftVote(t, l, voters[0], "stem_001")
	err := l.SubmitVote(ctx, 1, signal, vp)
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)

	// a rejected vote records nothing
	count, err := l.StemVoteCount(ctx, signal)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))
}
