// storage package holds the off-chain documents of the platform: projects
// (with their stem queues), users and stems. It is a prefixed key-value
// store; every document type lives under its own prefix:
//   - 'p/'  for projects
//   - 'pn/' for the project name index
//   - 'u/'  for users
//   - 's/'  for stems
//   - 'vg/' for the voting group counter
//
// Documents are mutated through versioned updates: every write bumps the
// document version and replacing a document checks the caller saw the latest
// version first. This closes the race between concurrent approve and vote
// tally writes on the same project.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	projectPrefix     = []byte("p/")
	projectNamePrefix = []byte("pn/")
	userPrefix        = []byte("u/")
	stemPrefix        = []byte("s/")
	groupCountPrefix  = []byte("vg/")
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = fmt.Errorf("document not found")
	// ErrVersionConflict is returned when replacing a document whose stored
	// version is newer than the one the caller read.
	ErrVersionConflict = fmt.Errorf("document version conflict")
	// ErrProjectNameTaken is returned when creating a project with a name
	// already in use. Project names are unique.
	ErrProjectNameTaken = fmt.Errorf("project name already taken")
)

// Storage is the prefixed document store shared by the node services.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance over the given database.
func New(d db.Database) *Storage {
	return &Storage{db: d}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}

// setArtifact stores a document under the given prefix and key.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// getArtifact retrieves and decodes a document. Returns ErrNotFound if the
// key does not exist.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rTx.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return decodeArtifact(data, out)
}

// deleteArtifact removes a document.
func (s *Storage) deleteArtifact(prefix, key []byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Delete(key); err != nil {
		wTx.Discard()
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return wTx.Commit()
}

// listArtifacts returns the keys stored under a prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	var keys [][]byte
	if err := rTx.Iterate(nil, func(k, _ []byte) bool {
		key := make([]byte, len(k))
		copy(key, k)
		keys = append(keys, key)
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}
