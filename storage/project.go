package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbor-audio/arbor-node/types"
)

// Project retrieves a project document. Returns ErrNotFound if it does not
// exist.
func (s *Storage) Project(projectID string) (*types.Project, error) {
	p := &types.Project{}
	if err := s.getArtifact(projectPrefix, []byte(projectID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProject stores a new project document, allocating its ID and voting
// group ID. Project names are unique; a duplicate name is rejected with
// ErrProjectNameTaken. The creator starts as the only collaborator.
func (s *Storage) CreateProject(p *types.Project) (*types.Project, error) {
	if p == nil {
		return nil, fmt.Errorf("nil project")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	var existing []byte
	if err := s.getArtifact(projectNamePrefix, []byte(p.Name), &existing); err == nil {
		return nil, ErrProjectNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	groupID, err := s.nextVotingGroupID()
	if err != nil {
		return nil, err
	}

	p.ID = uuid.NewString()
	p.VotingGroupID = groupID
	p.Version = 0
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	if p.CreatedBy != "" && !p.IsCollaborator(p.CreatedBy) {
		p.Collaborators = append(p.Collaborators, p.CreatedBy)
	}

	if err := s.setArtifact(projectPrefix, []byte(p.ID), p); err != nil {
		return nil, err
	}
	if err := s.setArtifact(projectNamePrefix, []byte(p.Name), []byte(p.ID)); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject applies the update function to the current project document
// and persists the result with a bumped version, atomically with respect to
// other updates through this storage instance.
func (s *Storage) UpdateProject(projectID string, update func(*types.Project) error) (*types.Project, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p, err := s.Project(projectID)
	if err != nil {
		return nil, err
	}
	if err := update(p); err != nil {
		return nil, err
	}
	p.Version++
	p.UpdatedAt = time.Now()
	if err := s.setArtifact(projectPrefix, []byte(projectID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplaceProject overwrites the whole project document. The caller must pass
// the document at the version it read; a newer stored version aborts with
// ErrVersionConflict and no mutation.
func (s *Storage) ReplaceProject(p *types.Project) (*types.Project, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	stored, err := s.Project(p.ID)
	if err != nil {
		return nil, err
	}
	if stored.Version != p.Version {
		return nil, fmt.Errorf("%w: stored %d, given %d", ErrVersionConflict, stored.Version, p.Version)
	}
	p.Version++
	p.UpdatedAt = time.Now()
	if err := s.setArtifact(projectPrefix, []byte(p.ID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project document and frees its name. Used to roll
// back a creation whose voting group never materialized on chain.
func (s *Storage) DeleteProject(projectID string) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p, err := s.Project(projectID)
	if err != nil {
		return err
	}
	if err := s.deleteArtifact(projectNamePrefix, []byte(p.Name)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.deleteArtifact(projectPrefix, []byte(projectID))
}

// ListProjects returns the stored project IDs.
func (s *Storage) ListProjects() ([]string, error) {
	keys, err := s.listArtifacts(projectPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = string(k)
	}
	return ids, nil
}

// nextVotingGroupID allocates the next voting group identifier. Group IDs
// start at 1 and grow monotonically. Caller holds globalLock.
func (s *Storage) nextVotingGroupID() (uint64, error) {
	var count uint64
	if err := s.getArtifact(groupCountPrefix, []byte("count"), &count); err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	count++
	if err := s.setArtifact(groupCountPrefix, []byte("count"), count); err != nil {
		return 0, err
	}
	return count, nil
}
