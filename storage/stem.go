package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbor-audio/arbor-node/types"
)

// Stem retrieves a standalone stem document.
func (s *Storage) Stem(stemID string) (*types.Stem, error) {
	st := &types.Stem{}
	if err := s.getArtifact(stemPrefix, []byte(stemID), st); err != nil {
		return nil, err
	}
	return st, nil
}

// CreateStem stores a new stem document, allocating its ID. Stem IDs are 12
// random bytes hex encoded, short enough to fit the bytes32 vote signal.
func (s *Storage) CreateStem(st *types.Stem) (*types.Stem, error) {
	if st == nil {
		return nil, fmt.Errorf("nil stem")
	}
	if st.Name == "" {
		return nil, fmt.Errorf("stem name is required")
	}
	u := uuid.New()
	st.ID = hex.EncodeToString(u[:12])
	st.CreatedAt = time.Now()
	if err := s.setArtifact(stemPrefix, []byte(st.ID), st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStem removes a stem document. Deleting a missing stem is not an
// error.
func (s *Storage) DeleteStem(stemID string) error {
	if err := s.deleteArtifact(stemPrefix, []byte(stemID)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
