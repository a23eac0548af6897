package groups

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/arbor-audio/arbor-node/types"
)

const (
	// leafKeyLen is the byte length of the leaf keys (insertion indices).
	// Keys must fit within the tree depth, so 16 bits for a depth-20 tree.
	leafKeyLen = types.GroupTreeMaxLevels / 8
	// leafValueLen is the byte length of the stored identity commitments.
	leafValueLen = 32
)

// GroupRef is a reference to a voting group. It holds the merkle tree and
// the insertion-order bookkeeping. All tree access goes through treeMu.
type GroupRef struct {
	ID        uint64
	MaxLevels int
	CreatedAt time.Time

	tree   *arbo.Tree `gob:"-"`
	treeMu sync.Mutex `gob:"-"`
	db     db.Database
}

// Tree returns the underlying arbo tree pointer.
// (Not concurrency-safe; use AddMember, Root or GenProof.)
func (gr *GroupRef) Tree() *arbo.Tree {
	return gr.tree
}

// Size returns the number of registered members.
func (gr *GroupRef) Size() uint64 {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()
	return gr.size()
}

// AddMember appends an identity commitment to the group and returns its leaf
// index. Commitments are unique within a group; re-registering returns
// ErrMemberAlreadyExists. The registry is append-only, members are never
// removed.
func (gr *GroupRef) AddMember(commitment *big.Int) (uint64, error) {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()

	if _, err := gr.memberIndex(commitment); err == nil {
		return 0, ErrMemberAlreadyExists
	} else if !errors.Is(err, ErrMemberNotFound) {
		return 0, err
	}

	index := gr.size()
	value := arbo.BigIntToBytes(leafValueLen, commitment)
	if err := gr.tree.Add(leafKey(index), value); err != nil {
		return 0, err
	}
	if err := gr.writeMemberIndex(commitment, index); err != nil {
		return 0, err
	}
	return index, nil
}

// MemberIndex returns the leaf index of a commitment, or ErrMemberNotFound.
func (gr *GroupRef) MemberIndex(commitment *big.Int) (uint64, error) {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()
	return gr.memberIndex(commitment)
}

// Members returns the registered commitments in insertion order.
func (gr *GroupRef) Members() ([]*big.Int, error) {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()

	size := gr.size()
	members := make([]*big.Int, 0, size)
	for i := uint64(0); i < size; i++ {
		_, value, err := gr.tree.Get(leafKey(i))
		if err != nil {
			return nil, err
		}
		members = append(members, arbo.BytesToBigInt(value))
	}
	return members, nil
}

// Root returns the current merkle root of the group tree.
func (gr *GroupRef) Root() (types.HexBytes, error) {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()
	return gr.tree.Root()
}

// GenProof generates the merkle inclusion proof for a commitment. The
// commitment must be a registered member; otherwise ErrMemberNotFound is
// returned and no proof is produced.
func (gr *GroupRef) GenProof(commitment *big.Int) (*types.MembershipProof, error) {
	gr.treeMu.Lock()
	defer gr.treeMu.Unlock()

	index, err := gr.memberIndex(commitment)
	if err != nil {
		return nil, err
	}
	_, value, packed, existence, err := gr.tree.GenProof(leafKey(index))
	if err != nil {
		return nil, err
	}
	if !existence {
		return nil, ErrMemberNotFound
	}
	root, err := gr.tree.Root()
	if err != nil {
		return nil, err
	}
	siblings, err := arbo.UnpackSiblings(defaultHashFunction, packed)
	if err != nil {
		return nil, err
	}
	// zero-pad the path up to the circuit depth
	padded := make([]types.HexBytes, gr.MaxLevels)
	for i := range padded {
		if i < len(siblings) {
			padded[i] = types.HexBytes(siblings[i])
		} else {
			padded[i] = make(types.HexBytes, defaultHashFunction.Len())
		}
	}
	return &types.MembershipProof{
		GroupID:        gr.ID,
		Root:           types.HexBytes(root),
		Index:          index,
		Commitment:     types.HexBytes(arbo.BytesToBigInt(value).Bytes()),
		Siblings:       padded,
		PackedSiblings: types.HexBytes(packed),
		Existence:      true,
	}, nil
}

// Sync reconciles the local mirror with the ordered commitment log replayed
// from the chain. The log must extend the current mirror; any divergence in
// the shared prefix means the mirror was corrupted and is reported as
// ErrMirrorDiverged. Returns the root after applying the missing suffix.
func (gr *GroupRef) Sync(chainLog []*big.Int) (types.HexBytes, error) {
	gr.treeMu.Lock()
	size := gr.size()
	if uint64(len(chainLog)) < size {
		gr.treeMu.Unlock()
		return nil, ErrMirrorDiverged
	}
	for i := uint64(0); i < size; i++ {
		_, value, err := gr.tree.Get(leafKey(i))
		if err != nil {
			gr.treeMu.Unlock()
			return nil, err
		}
		if arbo.BytesToBigInt(value).Cmp(chainLog[i]) != 0 {
			gr.treeMu.Unlock()
			return nil, ErrMirrorDiverged
		}
	}
	missing := chainLog[size:]
	gr.treeMu.Unlock()

	for _, commitment := range missing {
		if _, err := gr.AddMember(commitment); err != nil {
			return nil, err
		}
	}
	return gr.Root()
}

// size returns the current leaf count. Caller holds treeMu.
func (gr *GroupRef) size() uint64 {
	n, err := gr.tree.GetNLeafs()
	if err != nil {
		return 0
	}
	return uint64(n)
}

// memberIndex looks up a commitment's leaf index. Caller holds treeMu.
func (gr *GroupRef) memberIndex(commitment *big.Int) (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(gr.db, indexPrefix(gr.ID))
	key := arbo.BigIntToBytes(leafValueLen, commitment)
	data, err := rd.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}
	return arbo.BytesToBigInt(data).Uint64(), nil
}

// writeMemberIndex persists the commitment to leaf index mapping. Caller
// holds treeMu.
func (gr *GroupRef) writeMemberIndex(commitment *big.Int, index uint64) error {
	wtx := prefixeddb.NewPrefixedWriteTx(gr.db.WriteTx(), indexPrefix(gr.ID))
	key := arbo.BigIntToBytes(leafValueLen, commitment)
	if err := wtx.Set(key, arbo.BigIntToBytes(8, new(big.Int).SetUint64(index))); err != nil {
		wtx.Discard()
		return err
	}
	return wtx.Commit()
}

func leafKey(index uint64) []byte {
	return arbo.BigIntToBytes(leafKeyLen, new(big.Int).SetUint64(index))
}
