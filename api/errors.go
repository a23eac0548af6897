package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arbor-audio/arbor-node/log"
)

// Error carries a handler failure to the client: a stable numeric code, the
// HTTP status to reply with and the underlying error.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

func (e Error) Error() string {
	return e.Err.Error()
}

// MarshalJSON encodes the error string and code. HTTPstatus travels in the
// response status line, not the body.
//
// Example output: {"error":"project not found","code":40007}
func (e Error) MarshalJSON() ([]byte, error) {
	// json.Marshal never calls Err.Error() on its own, hence the wrapper
	out := struct {
		Err  string `json:"error"`
		Code int    `json:"code"`
	}{e.Err.Error(), e.Code}
	return json.Marshal(out)
}

// Write sends the error to the client as a JSON body with e.HTTPstatus.
func (e Error) Write(w http.ResponseWriter) {
	body, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	if log.Level() == log.LogLevelDebug {
		log.Debugw("API error response", "error", e.Error(), "code", e.Code, "httpStatus", e.HTTPstatus)
	}
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, string(body), e.HTTPstatus)
}

// Withf appends a formatted detail string to the error, keeping code and status.
func (e Error) Withf(format string, args ...any) Error {
	e.Err = fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...))
	return e
}

// With appends a detail string to the error, keeping code and status.
func (e Error) With(s string) Error {
	e.Err = fmt.Errorf("%w: %v", e.Err, s)
	return e
}

// WithErr appends err as a detail string. The catalogue error stays the one
// that unwraps, so errors.Is against the sentinel still matches.
func (e Error) WithErr(err error) Error {
	e.Err = fmt.Errorf("%w: %v", e.Err, err.Error())
	return e
}
