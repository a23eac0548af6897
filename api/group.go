package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"github.com/arbor-audio/arbor-node/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// registerVoter appends a client-derived identity commitment to the
// project's on-chain voting group
// POST /projects/{projectId}/voters
func (a *API) registerVoter(w http.ResponseWriter, r *http.Request) {
	req := &RegisterVoterRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !common.IsHexAddress(req.Address) {
		ErrMalformedAddress.With(req.Address).Write(w)
		return
	}
	if len(req.Commitment) == 0 {
		ErrMalformedCommitment.With("missing commitment").Write(w)
		return
	}
	commitment := new(big.Int).SetBytes(req.Commitment)
	if err := a.engine.RegisterCommitment(r.Context(), strings.ToLower(req.Address),
		chi.URLParam(r, ProjectURLParam), commitment); err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteOK(w)
}

// groupRoot returns the current Merkle root of the project's voting group
// GET /projects/{projectId}/group/root
func (a *API) groupRoot(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, ProjectURLParam)
	root, err := a.engine.GroupRoot(r.Context(), projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	p, err := a.storage.Project(projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, &GroupRoot{GroupID: p.VotingGroupID, Root: root})
}

// groupMembers returns the group commitments in insertion order
// GET /projects/{projectId}/group/members
func (a *API) groupMembers(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, ProjectURLParam)
	members, err := a.engine.GroupMembers(r.Context(), projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	p, err := a.storage.Project(projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	commitments := make([]*types.BigInt, len(members))
	for i, m := range members {
		commitments[i] = (*types.BigInt)(m)
	}
	httpWriteJSON(w, &GroupMembers{GroupID: p.VotingGroupID, Commitments: commitments})
}

// membershipProof returns the inclusion proof for a commitment against the
// current group root
// GET /projects/{projectId}/group/proof?commitment=0x...
func (a *API) membershipProof(w http.ResponseWriter, r *http.Request) {
	var commitment types.HexBytes
	if err := commitment.SetString(r.URL.Query().Get("commitment")); err != nil {
		ErrMalformedCommitment.WithErr(err).Write(w)
		return
	}
	if len(commitment) == 0 {
		ErrMalformedCommitment.With("missing commitment").Write(w)
		return
	}
	proof, err := a.engine.MembershipProofByCommitment(r.Context(),
		chi.URLParam(r, ProjectURLParam), new(big.Int).SetBytes(commitment))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, proof)
}
