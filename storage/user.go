package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arbor-audio/arbor-node/types"
)

// User retrieves a user document by its lowercase hex address.
func (s *Storage) User(address string) (*types.User, error) {
	u := &types.User{}
	if err := s.getArtifact(userPrefix, userKey(address), u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetUser stores a user document, creating it if it does not exist.
func (s *Storage) SetUser(u *types.User) error {
	if u == nil || u.Address == "" {
		return fmt.Errorf("user address is required")
	}
	u.Address = strings.ToLower(u.Address)
	return s.setArtifact(userPrefix, userKey(u.Address), u)
}

// UpdateUser applies the update function to the current user document and
// persists the result with a bumped version. A missing user is created empty
// before the update runs.
func (s *Storage) UpdateUser(address string, update func(*types.User) error) (*types.User, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	u, err := s.User(address)
	if errors.Is(err, ErrNotFound) {
		u = &types.User{
			Address:   strings.ToLower(address),
			CreatedAt: time.Now(),
		}
	} else if err != nil {
		return nil, err
	}
	if err := update(u); err != nil {
		return nil, err
	}
	u.Version++
	u.UpdatedAt = time.Now()
	if err := s.setArtifact(userPrefix, userKey(u.Address), u); err != nil {
		return nil, err
	}
	return u, nil
}

func userKey(address string) []byte {
	return []byte(strings.ToLower(address))
}
