// Package verifier implements the vote verification and nullifier ledger
// semantics of the on-chain contract in process: per-group membership trees,
// root-checked proof acceptance, one nullifier hash per external nullifier
// and an authoritative per-stem vote counter. It backs local and simulated
// deployments and the engine tests; against a real network the same role is
// played by the deployed contract through the web3 client.
package verifier

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/groups"
	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/prover"
)

var (
	// Prefixes for the keys in the database.
	nullifierPrefix = []byte("nf/")
	voteCountPrefix = []byte("vc/")
)

var (
	// ErrNullifierAlreadyUsed rejects a second vote carrying a nullifier
	// hash already recorded for the same external nullifier. The nullifier
	// is the only double-vote flag; no per-member record exists.
	ErrNullifierAlreadyUsed = fmt.Errorf("you cannot use the same nullifier twice")
	// ErrRootMismatch rejects a proof generated against a stale group root.
	ErrRootMismatch = fmt.Errorf("proof root does not match the group root")
	// ErrUnknownGroup rejects operations on a group that was never created.
	ErrUnknownGroup = fmt.Errorf("unknown voting group")
	// ErrSignalMismatch rejects a proof whose public signals were generated
	// for a different stem than the one being voted on.
	ErrSignalMismatch = fmt.Errorf("proof signals do not match the stem signal")
	// ErrInvalidProof rejects a proof that fails cryptographic verification.
	ErrInvalidProof = fmt.Errorf("invalid proof")
)

// ProofChecker validates the cryptographic proof itself. The ledger calls it
// after the cheap root and nullifier checks pass. A nil checker skips the
// pairing check, which the engine tests rely on.
type ProofChecker func(vp *prover.VoteProof) error

// Ledger is the in-process verifier state: the incremental membership trees
// and the nullifier and vote counter records. All mutations are serialized
// through a single lock, mirroring the transaction ordering a chain gives.
type Ledger struct {
	mu      sync.Mutex
	groups  *groups.GroupDB
	db      db.Database
	checker ProofChecker
}

// New creates a ledger over the given database. Membership trees live in
// their own GroupDB namespace so they never alias the off-chain mirror.
func New(d db.Database, checker ProofChecker) *Ledger {
	return &Ledger{
		groups:  groups.NewGroupDB(prefixeddb.NewPrefixedDatabase(d, []byte("chain/"))),
		db:      d,
		checker: checker,
	}
}

// CreateGroup registers a new voting group. Creating a group twice is an
// error, matching the contract's one-group-per-project rule.
func (l *Ledger) CreateGroup(_ context.Context, groupID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.groups.New(groupID)
	return err
}

// AddMember appends an identity commitment to the group's incremental tree.
// Duplicate commitments are rejected with set semantics.
func (l *Ledger) AddMember(_ context.Context, groupID uint64, commitment *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ref, err := l.groups.Load(groupID)
	if err != nil {
		if errors.Is(err, groups.ErrGroupNotFound) {
			return ErrUnknownGroup
		}
		return err
	}
	if _, err := ref.AddMember(commitment); err != nil {
		return err
	}
	root, err := ref.Root()
	if err != nil {
		return err
	}
	log.Debugw("member added to voting group",
		"groupId", groupID,
		"root", fmt.Sprintf("%x", root))
	return nil
}

// GroupMembers returns the group's commitments in insertion order, the event
// log the off-chain mirror replays.
func (l *Ledger) GroupMembers(_ context.Context, groupID uint64) ([]*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ref, err := l.groups.Load(groupID)
	if err != nil {
		if errors.Is(err, groups.ErrGroupNotFound) {
			return nil, ErrUnknownGroup
		}
		return nil, err
	}
	return ref.Members()
}

// GroupRoot returns the current root of the group's incremental tree.
func (l *Ledger) GroupRoot(_ context.Context, groupID uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.groupRoot(groupID)
}

func (l *Ledger) groupRoot(groupID uint64) (*big.Int, error) {
	ref, err := l.groups.Load(groupID)
	if err != nil {
		if errors.Is(err, groups.ErrGroupNotFound) {
			return nil, ErrUnknownGroup
		}
		return nil, err
	}
	root, err := ref.Root()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(root), nil
}

// SubmitVote verifies a vote proof and, if it passes, records the nullifier
// hash and increments the stem's vote counter. The checks run in contract
// order: group root first, then the stem binding of the public signals, then
// nullifier uniqueness, then the proof itself.
func (l *Ledger) SubmitVote(_ context.Context, groupID uint64, stemSignal []byte, vp *prover.VoteProof) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	root, err := l.groupRoot(groupID)
	if err != nil {
		return err
	}
	if root.Cmp(vp.Root) != 0 {
		return ErrRootMismatch
	}
	// the proof is only valid for the stem whose signal hash and external
	// nullifier it carries; a proof scoped to another stem must not touch
	// this stem's counter
	if identity.SignalHash(stemSignal).Cmp(vp.SignalHash) != 0 {
		return ErrSignalMismatch
	}
	stemID := string(bytes.TrimRight(stemSignal, "\x00"))
	extNullifier, err := identity.ExternalNullifier(stemID)
	if err != nil {
		return err
	}
	if extNullifier.Cmp(vp.ExternalNullifier) != 0 {
		return ErrSignalMismatch
	}
	used, err := l.nullifierUsed(vp.ExternalNullifier, vp.NullifierHash)
	if err != nil {
		return err
	}
	if used {
		return ErrNullifierAlreadyUsed
	}
	if l.checker != nil {
		if err := l.checker(vp); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
	}
	if err := l.recordNullifier(vp.ExternalNullifier, vp.NullifierHash); err != nil {
		return err
	}
	count, err := l.bumpVoteCount(stemSignal)
	if err != nil {
		return err
	}
	log.Infow("vote accepted",
		"groupId", groupID,
		"nullifierHash", vp.NullifierHash.String(),
		"votes", count)
	return nil
}

// StemVoteCount returns the authoritative vote counter for a stem signal.
func (l *Ledger) StemVoteCount(_ context.Context, stemSignal []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.voteCount(stemSignal)
}

func nullifierKey(externalNullifier, nullifierHash *big.Int) []byte {
	key := make([]byte, 0, 64)
	key = append(key, externalNullifier.Bytes()...)
	key = append(key, '/')
	key = append(key, nullifierHash.Bytes()...)
	return key
}

func (l *Ledger) nullifierUsed(externalNullifier, nullifierHash *big.Int) (bool, error) {
	rTx := prefixeddb.NewPrefixedReader(l.db, nullifierPrefix)
	if _, err := rTx.Get(nullifierKey(externalNullifier, nullifierHash)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Ledger) recordNullifier(externalNullifier, nullifierHash *big.Int) error {
	wTx := prefixeddb.NewPrefixedWriteTx(l.db.WriteTx(), nullifierPrefix)
	if err := wTx.Set(nullifierKey(externalNullifier, nullifierHash), []byte{1}); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

func (l *Ledger) voteCount(stemSignal []byte) (uint64, error) {
	rTx := prefixeddb.NewPrefixedReader(l.db, voteCountPrefix)
	data, err := rTx.Get(stemSignal)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func (l *Ledger) bumpVoteCount(stemSignal []byte) (uint64, error) {
	count, err := l.voteCount(stemSignal)
	if err != nil {
		return 0, err
	}
	count++
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, count)
	wTx := prefixeddb.NewPrefixedWriteTx(l.db.WriteTx(), voteCountPrefix)
	if err := wTx.Set(stemSignal, data); err != nil {
		wTx.Discard()
		return 0, err
	}
	return count, wTx.Commit()
}
