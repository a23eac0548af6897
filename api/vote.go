package api

import (
	"encoding/json"
	"net/http"

	"github.com/arbor-audio/arbor-node/prover"
	"github.com/go-chi/chi/v5"
)

// newVote submits a vote proof on a queued stem and returns the on-chain
// tally after acceptance
// POST /projects/{projectId}/stems/{stemId}/votes
func (a *API) newVote(w http.ResponseWriter, r *http.Request) {
	vote := &Vote{}
	if err := json.NewDecoder(r.Body).Decode(vote); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	vp, err := prover.ParseVoteProof(vote.Proof, vote.PubSignals)
	if err != nil {
		ErrMalformedProof.WithErr(err).Write(w)
		return
	}
	stemID := chi.URLParam(r, StemURLParam)
	votes, err := a.engine.SubmitVote(r.Context(), chi.URLParam(r, ProjectURLParam), stemID, vp)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, &VoteResponse{StemID: stemID, Votes: votes})
}
