package api

import (
	"github.com/arbor-audio/arbor-node/types"
)

// NewProjectRequest is the body of POST /projects.
type NewProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	BPM         int      `json:"bpm,omitempty"`
	TrackLimit  int      `json:"trackLimit,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedBy   string   `json:"createdBy"`
}

// ProjectList is the response of GET /projects.
type ProjectList struct {
	Projects []*types.Project `json:"projects"`
}

// NewStemRequest is the body of POST /projects/{projectId}/stems.
type NewStemRequest struct {
	Name        string         `json:"name"`
	Type        types.StemType `json:"type"`
	MetadataURL string         `json:"metadataUrl,omitempty"`
	AudioURL    string         `json:"audioUrl,omitempty"`
	Filename    string         `json:"filename,omitempty"`
	Filetype    string         `json:"filetype,omitempty"`
	Filesize    int64          `json:"filesize,omitempty"`
	Address     string         `json:"address"`
}

// RegisterVoterRequest is the body of POST /projects/{projectId}/voters.
// The commitment is derived client side; the secrets behind it never reach
// the server.
type RegisterVoterRequest struct {
	Address    string         `json:"address"`
	Commitment types.HexBytes `json:"commitment"`
}

// GroupRoot is the response of GET /projects/{projectId}/group/root.
type GroupRoot struct {
	GroupID uint64         `json:"groupId"`
	Root    types.HexBytes `json:"root"`
}

// GroupMembers is the response of GET /projects/{projectId}/group/members.
// Commitments travel as decimal strings, the representation circuit clients
// feed straight into the witness.
type GroupMembers struct {
	GroupID     uint64          `json:"groupId"`
	Commitments []*types.BigInt `json:"commitments"`
}

// Vote is the body of POST /projects/{projectId}/stems/{stemId}/votes. The
// proof and its public signals are the raw JSON strings produced by the
// client side groth16 prover.
type Vote struct {
	Proof      string `json:"proof"`
	PubSignals string `json:"pubSignals"`
}

// VoteResponse carries the authoritative on-chain tally after a vote has
// been accepted.
type VoteResponse struct {
	StemID string `json:"stemId"`
	Votes  uint64 `json:"votes"`
}

// ApproveStemRequest is the body of POST /projects/{projectId}/stems/{stemId}/approve.
type ApproveStemRequest struct {
	Address string `json:"address"`
}
