package types

import (
	"strings"
	"time"
)

// StemType classifies the musical role of an uploaded stem.
type StemType string

const (
	StemTypeDrums      StemType = "drums"
	StemTypePercussion StemType = "percussion"
	StemTypeBass       StemType = "bass"
	StemTypeChords     StemType = "chords"
	StemTypeMelody     StemType = "melody"
	StemTypeVocals     StemType = "vocals"
	StemTypeCombo      StemType = "combo"
	StemTypeOther      StemType = "other"
)

// Stem is an uploaded audio stem. The audio itself lives in the
// content-addressed blob store; only the locators are kept here.
type Stem struct {
	ID          string    `json:"id"                 cbor:"0,keyasint"`
	Name        string    `json:"name"               cbor:"1,keyasint"`
	Type        StemType  `json:"type"               cbor:"2,keyasint"`
	MetadataURL string    `json:"metadataUrl"        cbor:"3,keyasint,omitempty"`
	AudioURL    string    `json:"audioUrl"           cbor:"4,keyasint,omitempty"`
	Filename    string    `json:"filename"           cbor:"5,keyasint,omitempty"`
	Filetype    string    `json:"filetype"           cbor:"6,keyasint,omitempty"`
	Filesize    int64     `json:"filesize"           cbor:"7,keyasint,omitempty"`
	CreatedBy   string    `json:"createdBy"          cbor:"8,keyasint"`
	CreatedAt   time.Time `json:"createdAt"          cbor:"9,keyasint,omitempty"`
}

// QueuedStem is a stem waiting in a project queue together with its vote
// tally. The tally is a mirror of the on-chain counter, overwritten on every
// successful vote, never incremented locally.
type QueuedStem struct {
	Stem  Stem   `json:"stem"  cbor:"0,keyasint"`
	Votes uint64 `json:"votes" cbor:"1,keyasint"`
}

// Project is the off-chain project document. The queue, the accepted stems
// and the collaborator list are mutated only through versioned updates.
// VoterCommitments is a mirror of the on-chain group membership, ordered by
// insertion, and is only ever rebuilt from the on-chain event log.
type Project struct {
	ID               string       `json:"id"                cbor:"0,keyasint"`
	CreatedBy        string       `json:"createdBy"         cbor:"1,keyasint"`
	Collaborators    []string     `json:"collaborators"     cbor:"2,keyasint"`
	Name             string       `json:"name"              cbor:"3,keyasint"`
	Description      string       `json:"description"       cbor:"4,keyasint,omitempty"`
	BPM              int          `json:"bpm"               cbor:"5,keyasint,omitempty"`
	TrackLimit       int          `json:"trackLimit"        cbor:"6,keyasint,omitempty"`
	Tags             []string     `json:"tags"              cbor:"7,keyasint,omitempty"`
	Stems            []Stem       `json:"stems"             cbor:"8,keyasint,omitempty"`
	Queue            []QueuedStem `json:"queue"             cbor:"9,keyasint,omitempty"`
	VotingGroupID    uint64       `json:"votingGroupId"     cbor:"10,keyasint"`
	VoterCommitments []HexBytes   `json:"voterCommitments"  cbor:"11,keyasint,omitempty"`
	Version          uint64       `json:"version"           cbor:"12,keyasint"`
	CreatedAt        time.Time    `json:"createdAt"         cbor:"13,keyasint,omitempty"`
	UpdatedAt        time.Time    `json:"updatedAt"         cbor:"14,keyasint,omitempty"`
}

// IsCollaborator reports whether the given account address is a current
// project collaborator. Addresses compare case-insensitively so checksummed
// and lowercased forms match.
func (p *Project) IsCollaborator(address string) bool {
	for _, c := range p.Collaborators {
		if strings.EqualFold(c, address) {
			return true
		}
	}
	return false
}

// QueuedStem returns the queue entry holding the stem with the given ID, or
// nil if the stem is not queued.
func (p *Project) QueuedStem(stemID string) *QueuedStem {
	for i := range p.Queue {
		if p.Queue[i].Stem.ID == stemID {
			return &p.Queue[i]
		}
	}
	return nil
}

// User is the off-chain record of a connected account. Identity secrets are
// never part of it; only the registered group IDs are mirrored so the client
// can show registration state.
type User struct {
	Address            string    `json:"address"            cbor:"0,keyasint"`
	DisplayName        string    `json:"displayName"        cbor:"1,keyasint,omitempty"`
	ProjectIDs         []string  `json:"projectIds"         cbor:"2,keyasint,omitempty"`
	RegisteredGroupIDs []uint64  `json:"registeredGroupIds" cbor:"3,keyasint,omitempty"`
	Version            uint64    `json:"version"            cbor:"4,keyasint"`
	CreatedAt          time.Time `json:"createdAt"          cbor:"5,keyasint,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"          cbor:"6,keyasint,omitempty"`
}

// IsRegistered reports whether the user already registered a voting identity
// for the given group.
func (u *User) IsRegistered(groupID uint64) bool {
	for _, id := range u.RegisteredGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
