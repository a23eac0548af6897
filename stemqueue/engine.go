// Package stemqueue implements the anonymous stem voting protocol around a
// project's stem queue: voter registration into the project's voting group,
// proof-carrying vote casting and the queued to approved stem transition.
// The chain is the single source of truth for membership order, nullifiers
// and vote tallies; the engine only mirrors and orchestrates.
package stemqueue

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/groups"
	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/prover"
	"github.com/arbor-audio/arbor-node/storage"
	"github.com/arbor-audio/arbor-node/types"
)

// Engine orchestrates the voting protocol over its collaborators: the
// document store, the off-chain registry mirror, the chain wire and a
// prover.
type Engine struct {
	store     *storage.Storage
	registry  *groups.GroupDB
	chain     ChainWire
	prover    prover.Prover
	threshold uint64
}

// New creates an engine. A zero threshold falls back to the default of one
// vote per approval.
func New(store *storage.Storage, registry *groups.GroupDB, chain ChainWire, prv prover.Prover, threshold uint64) *Engine {
	if threshold == 0 {
		threshold = types.DefaultApprovalThreshold
	}
	return &Engine{
		store:     store,
		registry:  registry,
		chain:     chain,
		prover:    prv,
		threshold: threshold,
	}
}

// Threshold returns the configured approval vote threshold.
func (e *Engine) Threshold() uint64 { return e.threshold }

// CreateProject stores a new project document and creates its voting group
// on chain. A project without a voting group is useless, so a chain failure
// rolls the document back.
func (e *Engine) CreateProject(ctx context.Context, p *types.Project) (*types.Project, error) {
	p, err := e.store.CreateProject(p)
	if err != nil {
		return nil, err
	}
	if err := e.chain.CreateGroup(ctx, p.VotingGroupID); err != nil {
		if delErr := e.store.DeleteProject(p.ID); delErr != nil {
			log.Warnw("failed to roll back project after group creation failure",
				"projectId", p.ID, "err", delErr.Error())
		}
		return nil, fmt.Errorf("creating voting group %d: %w", p.VotingGroupID, err)
	}
	if _, err := e.registry.LoadOrNew(p.VotingGroupID); err != nil {
		return nil, err
	}
	log.Infow("project created",
		"projectId", p.ID,
		"groupId", p.VotingGroupID,
		"createdBy", p.CreatedBy)
	return p, nil
}

// AddStemToQueue stores the uploaded stem and appends it to the project
// queue with zero votes. Anyone with a connected account may queue a stem;
// becoming a collaborator happens at approval time.
func (e *Engine) AddStemToQueue(ctx context.Context, session *Session, projectID string, stem *types.Stem) (*types.Project, error) {
	_ = ctx
	if _, err := e.store.Project(projectID); err != nil {
		return nil, err
	}
	stem.CreatedBy = session.Address
	stem, err := e.store.CreateStem(stem)
	if err != nil {
		return nil, err
	}
	p, err := e.store.UpdateProject(projectID, func(doc *types.Project) error {
		doc.Queue = append(doc.Queue, types.QueuedStem{Stem: *stem, Votes: 0})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUpdateFailed, err)
	}
	log.Infow("stem queued",
		"projectId", projectID,
		"stemId", stem.ID,
		"uploader", session.Address)
	return p, nil
}

// RegisterVoter derives the session's anonymous identity for the project's
// voting group, appends its commitment to the on-chain group and, only after
// chain confirmation, refreshes the off-chain mirror from the chain event
// log and marks the account as registered. The derived identity is returned
// to the caller and never persisted.
func (e *Engine) RegisterVoter(ctx context.Context, session *Session, projectID string) (*identity.Identity, error) {
	p, err := e.store.Project(projectID)
	if err != nil {
		return nil, err
	}
	voter, err := identity.FromSigner(session.Signer, p.VotingGroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	commitment, err := voter.Commitment()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	if err := e.RegisterCommitment(ctx, session.Address, projectID, commitment); err != nil {
		return nil, err
	}
	return voter, nil
}

// RegisterCommitment appends a client-derived identity commitment to the
// project's on-chain group and, after confirmation, refreshes the off-chain
// mirror and marks the account as registered for the group.
func (e *Engine) RegisterCommitment(ctx context.Context, address, projectID string, commitment *big.Int) error {
	p, err := e.store.Project(projectID)
	if err != nil {
		return err
	}
	members, err := e.chain.GroupMembers(ctx, p.VotingGroupID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	for _, m := range members {
		if m.Cmp(commitment) == 0 {
			return ErrAlreadyRegistered
		}
	}
	if err := e.chain.AddMember(ctx, p.VotingGroupID, commitment); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if _, err := e.SyncRegistry(ctx, projectID); err != nil {
		return err
	}
	if _, err := e.store.UpdateUser(address, func(u *types.User) error {
		if !u.IsRegistered(p.VotingGroupID) {
			u.RegisteredGroupIDs = append(u.RegisteredGroupIDs, p.VotingGroupID)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceUpdateFailed, err)
	}
	log.Infow("voter registered",
		"projectId", projectID,
		"groupId", p.VotingGroupID,
		"commitment", commitment.String())
	return nil
}

// SyncRegistry replays the chain's membership event log into the off-chain
// mirror: the registry tree and the project document's commitment list are
// both strictly derived from it, never mutated independently.
func (e *Engine) SyncRegistry(ctx context.Context, projectID string) (*types.Project, error) {
	p, err := e.store.Project(projectID)
	if err != nil {
		return nil, err
	}
	members, err := e.chain.GroupMembers(ctx, p.VotingGroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	ref, err := e.registry.LoadOrNew(p.VotingGroupID)
	if err != nil {
		return nil, err
	}
	if _, err := ref.Sync(members); err != nil {
		return nil, fmt.Errorf("syncing group %d mirror: %w", p.VotingGroupID, err)
	}
	mirror := make([]types.HexBytes, len(members))
	for i, m := range members {
		mirror[i] = m.Bytes()
	}
	p, err = e.store.UpdateProject(projectID, func(doc *types.Project) error {
		doc.VoterCommitments = mirror
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUpdateFailed, err)
	}
	return p, nil
}

// GroupRoot refreshes the mirror and returns the current Merkle root of the
// project's voting group.
func (e *Engine) GroupRoot(ctx context.Context, projectID string) (types.HexBytes, error) {
	p, err := e.SyncRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ref, err := e.registry.Load(p.VotingGroupID)
	if err != nil {
		return nil, err
	}
	return ref.Root()
}

// GroupMembers refreshes the mirror and returns the group's commitments in
// insertion order.
func (e *Engine) GroupMembers(ctx context.Context, projectID string) ([]*big.Int, error) {
	p, err := e.SyncRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.chain.GroupMembers(ctx, p.VotingGroupID)
}

// MembershipProof rebuilds the session's identity and generates its
// inclusion proof against the current group root. An identity that never
// registered fails with ErrMemberNotFound before anything touches the
// chain.
func (e *Engine) MembershipProof(ctx context.Context, session *Session, projectID string) (*types.MembershipProof, error) {
	p, err := e.SyncRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}
	voter, err := identity.FromSigner(session.Signer, p.VotingGroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	return e.proveMembership(voter, p.VotingGroupID)
}

// MembershipProofByCommitment generates the inclusion proof for an already
// derived commitment, for callers that keep their identity on their side of
// the wire.
func (e *Engine) MembershipProofByCommitment(ctx context.Context, projectID string, commitment *big.Int) (*types.MembershipProof, error) {
	p, err := e.SyncRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.proveCommitment(commitment, p.VotingGroupID)
}

func (e *Engine) proveMembership(voter *identity.Identity, groupID uint64) (*types.MembershipProof, error) {
	commitment, err := voter.Commitment()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	return e.proveCommitment(commitment, groupID)
}

func (e *Engine) proveCommitment(commitment *big.Int, groupID uint64) (*types.MembershipProof, error) {
	ref, err := e.registry.Load(groupID)
	if err != nil {
		if errors.Is(err, groups.ErrGroupNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	proof, err := ref.GenProof(commitment)
	if err != nil {
		if errors.Is(err, groups.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	return proof, nil
}

// CastVote runs the whole voting pipeline for the session on a queued stem:
// refresh the mirror, build the membership proof, prove the vote, submit it,
// wait for acceptance, re-read the authoritative tally and persist it on the
// queue entry. The persisted tally is always the chain's counter, never a
// local increment.
func (e *Engine) CastVote(ctx context.Context, session *Session, projectID, stemID string) (uint64, error) {
	p, err := e.SyncRegistry(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if p.QueuedStem(stemID) == nil {
		return 0, ErrStemNotQueued
	}
	voter, err := identity.FromSigner(session.Signer, p.VotingGroupID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	membership, err := e.proveMembership(voter, p.VotingGroupID)
	if err != nil {
		return 0, err
	}
	witness, err := prover.NewVoteWitness(voter, membership, stemID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	vp, err := e.prover.Prove(ctx, witness)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	return e.SubmitVote(ctx, projectID, stemID, vp)
}

// SubmitVote submits an already generated vote proof for a queued stem,
// waits for acceptance, re-reads the authoritative tally and persists it on
// the queue entry. The persisted tally is always the chain's counter, never
// a local increment.
func (e *Engine) SubmitVote(ctx context.Context, projectID, stemID string, vp *prover.VoteProof) (uint64, error) {
	p, err := e.store.Project(projectID)
	if err != nil {
		return 0, err
	}
	if p.QueuedStem(stemID) == nil {
		return 0, ErrStemNotQueued
	}
	signal, err := prover.StemSignal(stemID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	// reject proofs scoped to another stem before they reach the chain
	if identity.SignalHash(signal).Cmp(vp.SignalHash) != 0 {
		return 0, fmt.Errorf("%w: proof signal hash does not match stem %s", ErrVerificationFailed, stemID)
	}
	extNullifier, err := identity.ExternalNullifier(stemID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if extNullifier.Cmp(vp.ExternalNullifier) != 0 {
		return 0, fmt.Errorf("%w: proof external nullifier does not match stem %s", ErrVerificationFailed, stemID)
	}
	if err := e.chain.SubmitVote(ctx, p.VotingGroupID, signal, vp); err != nil {
		if isDuplicateNullifier(err) {
			return 0, ErrAlreadyVoted
		}
		return 0, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	count, err := e.chain.StemVoteCount(ctx, signal)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if _, err := e.store.UpdateProject(projectID, func(doc *types.Project) error {
		entry := doc.QueuedStem(stemID)
		if entry == nil {
			return ErrStemNotQueued
		}
		entry.Votes = count
		return nil
	}); err != nil {
		// the vote landed on chain; the tally repairs itself on the next
		// successful read
		return count, fmt.Errorf("%w: %v", ErrPersistenceUpdateFailed, err)
	}
	log.Infow("vote cast",
		"projectId", projectID,
		"stemId", stemID,
		"votes", count)
	return count, nil
}

// ApproveStem promotes a queued stem into the project's accepted stem list.
// The caller must be a collaborator, the stem must be queued and its tally
// must meet the threshold; any violation aborts with no mutation. On
// success the uploader joins the collaborators.
func (e *Engine) ApproveStem(_ context.Context, session *Session, projectID, stemID string) (*types.Project, error) {
	p, err := e.store.UpdateProject(projectID, func(doc *types.Project) error {
		if !doc.IsCollaborator(session.Address) {
			return ErrNotCollaborator
		}
		entry := doc.QueuedStem(stemID)
		if entry == nil {
			return ErrStemNotQueued
		}
		if entry.Votes < e.threshold {
			return ErrInsufficientVotes
		}
		if doc.TrackLimit > 0 && len(doc.Stems) >= doc.TrackLimit {
			return ErrTrackLimitReached
		}
		queue := make([]types.QueuedStem, 0, len(doc.Queue)-1)
		for _, q := range doc.Queue {
			if q.Stem.ID != stemID {
				queue = append(queue, q)
			}
		}
		doc.Queue = queue
		doc.Stems = append(doc.Stems, entry.Stem)
		if entry.Stem.CreatedBy != "" && !doc.IsCollaborator(entry.Stem.CreatedBy) {
			doc.Collaborators = append(doc.Collaborators, entry.Stem.CreatedBy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infow("stem approved",
		"projectId", projectID,
		"stemId", stemID,
		"approvedBy", session.Address)
	return p, nil
}

// isDuplicateNullifier recognizes the contract's duplicate nullifier revert
// in both the in-process and the RPC error shapes.
func isDuplicateNullifier(err error) bool {
	return err != nil && strings.Contains(err.Error(), "same nullifier twice")
}
