package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/stemqueue"
	"github.com/arbor-audio/arbor-node/storage"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// writeEngineError maps the voting engine and storage error taxonomy to the
// API error catalogue and writes the match to the response.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ErrProjectNotFound.WithErr(err).Write(w)
	case errors.Is(err, storage.ErrProjectNameTaken):
		ErrProjectNameTaken.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrAlreadyRegistered):
		ErrAlreadyRegistered.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrMemberNotFound):
		ErrMemberNotFound.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrStemNotQueued):
		ErrStemNotQueued.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrAlreadyVoted):
		ErrDuplicateVote.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrVerificationFailed):
		ErrProofVerificationFail.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrNotCollaborator):
		ErrNotCollaborator.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrInsufficientVotes):
		ErrInsufficientVotes.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrTrackLimitReached):
		ErrTrackLimitReached.WithErr(err).Write(w)
	case errors.Is(err, stemqueue.ErrRegistrationFailed):
		ErrChainOperationFailed.WithErr(err).Write(w)
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}
