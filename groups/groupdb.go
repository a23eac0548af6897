// Package groups maintains the membership registries of project voting
// groups. Each group mirrors the on-chain incremental merkle tree: an
// append-only, ordered list of identity commitments whose insertion order
// determines the leaf index and therefore the root. The mirror is only ever
// reconstructed from the on-chain event log, never mutated independently.
package groups

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/arbor-audio/arbor-node/types"
)

const (
	groupDBreferencePrefix = "gr/"
	groupDBtreePrefix      = "gt/"
	groupDBindexPrefix     = "gx/"
)

var (
	// ErrGroupNotFound is returned when a voting group is not in the local database.
	ErrGroupNotFound = fmt.Errorf("voting group not found in the local database")
	// ErrGroupAlreadyExists is returned by New() if the group already exists.
	ErrGroupAlreadyExists = fmt.Errorf("voting group already exists in the local database")
	// ErrMemberNotFound is returned when generating a proof for a commitment
	// that was never registered in the group.
	ErrMemberNotFound = fmt.Errorf("commitment is not a member of the group")
	// ErrMemberAlreadyExists is returned when registering a duplicate commitment.
	ErrMemberAlreadyExists = fmt.Errorf("commitment already registered in the group")
	// ErrMirrorDiverged is returned when the replayed on-chain member log is
	// not an extension of the local mirror.
	ErrMirrorDiverged = fmt.Errorf("on-chain member log diverges from the local mirror")

	defaultHashFunction = arbo.HashFunctionPoseidon
)

// GroupDB is a persistent database of voting group trees, one per project.
type GroupDB struct {
	mu           sync.RWMutex
	db           db.Database
	loadedGroups map[uint64]*GroupRef
}

// NewGroupDB creates a new GroupDB backed by the given key-value database.
func NewGroupDB(d db.Database) *GroupDB {
	return &GroupDB{
		db:           d,
		loadedGroups: make(map[uint64]*GroupRef),
	}
}

// New creates a new empty voting group. It returns ErrGroupAlreadyExists if
// the group ID is already taken.
func (g *GroupDB) New(groupID uint64) (*GroupRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.loadedGroups[groupID]; exists {
		return nil, ErrGroupAlreadyExists
	}
	if _, err := g.db.Get(referenceKey(groupID)); err == nil {
		return nil, ErrGroupAlreadyExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, err
	}

	ref := &GroupRef{
		ID:        groupID,
		MaxLevels: types.GroupTreeMaxLevels,
		CreatedAt: time.Now(),
		db:        g.db,
	}
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(g.db, treePrefix(groupID)),
		MaxLevels:    types.GroupTreeMaxLevels,
		HashFunction: defaultHashFunction,
	})
	if err != nil {
		return nil, err
	}
	ref.tree = tree

	if err := g.writeReference(ref); err != nil {
		return nil, err
	}
	g.loadedGroups[groupID] = ref
	return ref, nil
}

// Exists reports whether the group is present in the local database.
func (g *GroupDB) Exists(groupID uint64) bool {
	g.mu.RLock()
	_, exists := g.loadedGroups[groupID]
	g.mu.RUnlock()
	if exists {
		return true
	}
	_, err := g.db.Get(referenceKey(groupID))
	return err == nil
}

// Load returns the group from memory or from the persistent database.
func (g *GroupDB) Load(groupID uint64) (*GroupRef, error) {
	g.mu.RLock()
	if ref, exists := g.loadedGroups[groupID]; exists {
		g.mu.RUnlock()
		return ref, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if ref, exists := g.loadedGroups[groupID]; exists {
		return ref, nil
	}

	b, err := g.db.Get(referenceKey(groupID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, groupID)
		}
		return nil, err
	}
	var ref GroupRef
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&ref); err != nil {
		return nil, err
	}
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(g.db, treePrefix(groupID)),
		MaxLevels:    ref.MaxLevels,
		HashFunction: defaultHashFunction,
	})
	if err != nil {
		return nil, err
	}
	ref.tree = tree
	ref.db = g.db

	g.loadedGroups[groupID] = &ref
	return &ref, nil
}

// LoadOrNew loads the group, creating it if it does not exist yet.
func (g *GroupDB) LoadOrNew(groupID uint64) (*GroupRef, error) {
	ref, err := g.Load(groupID)
	if errors.Is(err, ErrGroupNotFound) {
		return g.New(groupID)
	}
	return ref, err
}

// writeReference persists a group reference.
func (g *GroupDB) writeReference(ref *GroupRef) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ref); err != nil {
		return err
	}
	wtx := g.db.WriteTx()
	defer wtx.Discard()
	if err := wtx.Set(referenceKey(ref.ID), buf.Bytes()); err != nil {
		return err
	}
	return wtx.Commit()
}

// VerifyProof verifies a membership proof against the given root. The
// commitment travels in the proof as big-endian bytes and has to be
// re-encoded into the tree's leaf representation before checking.
func VerifyProof(proof *types.MembershipProof) bool {
	key := leafKey(proof.Index)
	value := arbo.BigIntToBytes(leafValueLen, new(big.Int).SetBytes(proof.Commitment))
	valid, err := arbo.CheckProof(defaultHashFunction, key, value, proof.Root, proof.PackedSiblings)
	if err != nil {
		return false
	}
	return valid
}

func referenceKey(groupID uint64) []byte {
	return append([]byte(groupDBreferencePrefix), encodeGroupID(groupID)...)
}

func treePrefix(groupID uint64) []byte {
	return append([]byte(groupDBtreePrefix), encodeGroupID(groupID)...)
}

func indexPrefix(groupID uint64) []byte {
	return append([]byte(groupDBindexPrefix), encodeGroupID(groupID)...)
}

func encodeGroupID(groupID uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, groupID)
	return b
}
