package stemqueue

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/arbor-audio/arbor-node/crypto/ethereum"
	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/groups"
	"github.com/arbor-audio/arbor-node/prover"
	"github.com/arbor-audio/arbor-node/storage"
	"github.com/arbor-audio/arbor-node/types"
	"github.com/arbor-audio/arbor-node/verifier"
)

// fakeProver derives the public signals arithmetically instead of running
// the circuit, which is enough for a ledger with no proof checker.
type fakeProver struct{}

func (fakeProver) Prove(_ context.Context, w *prover.VoteWitness) (*prover.VoteProof, error) {
	nh, err := w.NullifierHash()
	if err != nil {
		return nil, err
	}
	return &prover.VoteProof{
		Proof:             "{}",
		PubSignals:        "[]",
		Root:              new(big.Int).SetBytes(w.MerkleProof.Root),
		NullifierHash:     nh,
		SignalHash:        w.SignalHash(),
		ExternalNullifier: w.ExternalNullifier,
	}, nil
}

// spyChain counts chain interactions so tests can assert short-circuits.
type spyChain struct {
	ChainWire
	votes int
}

func (s *spyChain) SubmitVote(ctx context.Context, groupID uint64, signal []byte, vp *prover.VoteProof) error {
	s.votes++
	return s.ChainWire.SubmitVote(ctx, groupID, signal, vp)
}

type rejectingSigner struct{}

func (rejectingSigner) SignEthereum([]byte) ([]byte, error) {
	return nil, fmt.Errorf("user denied message signature")
}
func (rejectingSigner) AddressString() string { return "0xdead" }

type testRig struct {
	engine *Engine
	chain  *spyChain
	store  *storage.Storage
}

func newTestRig(t *testing.T, threshold uint64) *testRig {
	d := metadb.NewTest(t)
	store := storage.New(d)
	chain := &spyChain{ChainWire: verifier.New(d, nil)}
	registry := groups.NewGroupDB(metadb.NewTest(t))
	return &testRig{
		engine: New(store, registry, chain, fakeProver{}, threshold),
		chain:  chain,
		store:  store,
	}
}

func newSession(t *testing.T) *Session {
	signer := ethereum.NewSignKeys()
	qt.Assert(t, signer.Generate(), qt.IsNil)
	return NewSession(signer)
}

func (r *testRig) newProject(t *testing.T, creator *Session, name string) *types.Project {
	p, err := r.engine.CreateProject(context.Background(), &types.Project{
		Name:      name,
		CreatedBy: creator.Address,
	})
	qt.Assert(t, err, qt.IsNil)
	return p
}

func (r *testRig) queueStem(t *testing.T, uploader *Session, projectID, name string) string {
	p, err := r.engine.AddStemToQueue(context.Background(), uploader, projectID, &types.Stem{
		Name: name,
		Type: types.StemTypeDrums,
	})
	qt.Assert(t, err, qt.IsNil)
	return p.Queue[len(p.Queue)-1].Stem.ID
}

func TestRegisterVoter(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "register test")

	voter, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(voter.GroupID, qt.Equals, p.VotingGroupID)

	// the mirror is derived from the chain log
	got, err := rig.store.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.VoterCommitments, qt.HasLen, 1)
	commitment, err := voter.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(new(big.Int).SetBytes(got.VoterCommitments[0]).Cmp(commitment), qt.Equals, 0)

	// the user record tracks the registered group
	u, err := rig.store.User(creator.Address)
	c.Assert(err, qt.IsNil)
	c.Assert(u.IsRegistered(p.VotingGroupID), qt.IsTrue)

	// registering the same identity twice is rejected
	_, err = rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.ErrorIs, ErrAlreadyRegistered)
}

func TestRegisterVoterSigningRejected(t *testing.T) {
	c := qt.New(t)
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "signing test")

	session := &Session{Address: "0xdead", Signer: rejectingSigner{}}
	_, err := rig.engine.RegisterVoter(context.Background(), session, p.ID)
	c.Assert(err, qt.ErrorIs, ErrSigningRejected)
}

func TestVoteScenarioThreeMembers(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "three members")
	stemID := rig.queueStem(t, newSession(t), p.ID, "kick loop")

	sessions := []*Session{creator, newSession(t), newSession(t)}
	for _, s := range sessions {
		_, err := rig.engine.RegisterVoter(ctx, s, p.ID)
		c.Assert(err, qt.IsNil)
	}

	// second member votes, tally reads one
	count, err := rig.engine.CastVote(ctx, sessions[1], p.ID, stemID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))

	got, err := rig.store.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.QueuedStem(stemID).Votes, qt.Equals, uint64(1))

	// same member again: duplicate nullifier
	_, err = rig.engine.CastVote(ctx, sessions[1], p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrAlreadyVoted)

	// first member votes, tally reads two
	count, err = rig.engine.CastVote(ctx, sessions[0], p.ID, stemID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(2))

	got, err = rig.store.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.QueuedStem(stemID).Votes, qt.Equals, uint64(2))
}

func TestVoteStemIsolation(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "isolation")
	stem1 := rig.queueStem(t, newSession(t), p.ID, "bass")
	stem2 := rig.queueStem(t, newSession(t), p.ID, "pads")

	_, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)

	count, err := rig.engine.CastVote(ctx, creator, p.ID, stem1)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
	count, err = rig.engine.CastVote(ctx, creator, p.ID, stem2)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
}

func TestVoteMisdirectedProof(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "misdirected")
	stem1 := rig.queueStem(t, newSession(t), p.ID, "arp")
	stem2 := rig.queueStem(t, newSession(t), p.ID, "choir")

	_, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)

	// craft a proof scoped to stem1 and submit it for stem2: the engine
	// must refuse before the chain sees it and stem2's tally stays zero
	voter, err := identity.FromSigner(creator.Signer, p.VotingGroupID)
	c.Assert(err, qt.IsNil)
	membership, err := rig.engine.MembershipProof(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)
	witness, err := prover.NewVoteWitness(voter, membership, stem1)
	c.Assert(err, qt.IsNil)
	vp, err := fakeProver{}.Prove(ctx, witness)
	c.Assert(err, qt.IsNil)

	_, err = rig.engine.SubmitVote(ctx, p.ID, stem2, vp)
	c.Assert(err, qt.ErrorIs, ErrVerificationFailed)
	c.Assert(rig.chain.votes, qt.Equals, 0)

	got, err := rig.store.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.QueuedStem(stem2).Votes, qt.Equals, uint64(0))

	// the same proof is still valid for the stem it was generated for
	count, err := rig.engine.SubmitVote(ctx, p.ID, stem1, vp)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
}

// brokenChain fails group creation, simulating a reverted transaction.
type brokenChain struct {
	ChainWire
}

func (brokenChain) CreateGroup(context.Context, uint64) error {
	return fmt.Errorf("transaction reverted")
}

func TestCreateProjectChainFailure(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)

	broken := New(rig.store, groups.NewGroupDB(metadb.NewTest(t)),
		brokenChain{ChainWire: rig.chain}, fakeProver{}, 0)
	_, err := broken.CreateProject(ctx, &types.Project{
		Name:      "doomed",
		CreatedBy: creator.Address,
	})
	c.Assert(err, qt.IsNotNil)

	// the document was rolled back, so the name is free again
	p, err := rig.engine.CreateProject(ctx, &types.Project{
		Name:      "doomed",
		CreatedBy: creator.Address,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(p.Name, qt.Equals, "doomed")
}

func TestVoteUnregisteredShortCircuits(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "unregistered")
	stemID := rig.queueStem(t, newSession(t), p.ID, "hook")

	_, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)

	outsider := newSession(t)
	_, err = rig.engine.CastVote(ctx, outsider, p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrMemberNotFound)
	c.Assert(rig.chain.votes, qt.Equals, 0)

	_, err = rig.engine.MembershipProof(ctx, outsider, p.ID)
	c.Assert(err, qt.ErrorIs, ErrMemberNotFound)
}

func TestVoteUnqueuedStem(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p := rig.newProject(t, creator, "unqueued")
	_, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)

	_, err = rig.engine.CastVote(ctx, creator, p.ID, "no-such-stem")
	c.Assert(err, qt.ErrorIs, ErrStemNotQueued)
}

func TestApproveStem(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	uploader := newSession(t)
	p := rig.newProject(t, creator, "approvals")
	stemID := rig.queueStem(t, uploader, p.ID, "melody")

	// zero votes: denied, document unchanged
	_, err := rig.engine.ApproveStem(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrInsufficientVotes)
	got, err := rig.store.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Queue, qt.HasLen, 1)
	c.Assert(got.Stems, qt.HasLen, 0)

	_, err = rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)
	_, err = rig.engine.CastVote(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.IsNil)

	// non-collaborator may not approve
	_, err = rig.engine.ApproveStem(ctx, uploader, p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrNotCollaborator)

	approved, err := rig.engine.ApproveStem(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.IsNil)
	c.Assert(approved.QueuedStem(stemID), qt.IsNil)
	c.Assert(approved.Stems, qt.HasLen, 1)
	c.Assert(approved.Stems[0].ID, qt.Equals, stemID)
	c.Assert(approved.IsCollaborator(uploader.Address), qt.IsTrue)

	// the stem is gone from the queue now
	_, err = rig.engine.ApproveStem(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrStemNotQueued)
}

func TestApproveStemThreshold(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 2)
	creator := newSession(t)
	p := rig.newProject(t, creator, "threshold")
	stemID := rig.queueStem(t, newSession(t), p.ID, "vox")

	_, err := rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)
	_, err = rig.engine.CastVote(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.IsNil)

	// one vote is below the configured threshold of two
	_, err = rig.engine.ApproveStem(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.ErrorIs, ErrInsufficientVotes)

	second := newSession(t)
	_, err = rig.engine.RegisterVoter(ctx, second, p.ID)
	c.Assert(err, qt.IsNil)
	_, err = rig.engine.CastVote(ctx, second, p.ID, stemID)
	c.Assert(err, qt.IsNil)

	_, err = rig.engine.ApproveStem(ctx, creator, p.ID, stemID)
	c.Assert(err, qt.IsNil)
}

func TestApproveStemTrackLimit(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rig := newTestRig(t, 0)
	creator := newSession(t)
	p, err := rig.engine.CreateProject(ctx, &types.Project{
		Name:       "limited",
		CreatedBy:  creator.Address,
		TrackLimit: 1,
	})
	c.Assert(err, qt.IsNil)

	stem1 := rig.queueStem(t, newSession(t), p.ID, "one")
	stem2 := rig.queueStem(t, newSession(t), p.ID, "two")

	_, err = rig.engine.RegisterVoter(ctx, creator, p.ID)
	c.Assert(err, qt.IsNil)
	for _, id := range []string{stem1, stem2} {
		_, err = rig.engine.CastVote(ctx, creator, p.ID, id)
		c.Assert(err, qt.IsNil)
	}

	_, err = rig.engine.ApproveStem(ctx, creator, p.ID, stem1)
	c.Assert(err, qt.IsNil)
	_, err = rig.engine.ApproveStem(ctx, creator, p.ID, stem2)
	c.Assert(err, qt.ErrorIs, ErrTrackLimitReached)
}
