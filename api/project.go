package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/arbor-audio/arbor-node/stemqueue"
	"github.com/arbor-audio/arbor-node/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// newProject creates a new project document and its on-chain voting group
// POST /projects
func (a *API) newProject(w http.ResponseWriter, r *http.Request) {
	req := &NewProjectRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Name == "" {
		ErrMalformedBody.With("missing project name").Write(w)
		return
	}
	if !common.IsHexAddress(req.CreatedBy) {
		ErrMalformedAddress.With(req.CreatedBy).Write(w)
		return
	}
	p, err := a.engine.CreateProject(r.Context(), &types.Project{
		Name:        req.Name,
		Description: req.Description,
		BPM:         req.BPM,
		TrackLimit:  req.TrackLimit,
		Tags:        req.Tags,
		CreatedBy:   strings.ToLower(req.CreatedBy),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, p)
}

// project returns a project document
// GET /projects/{projectId}
func (a *API) project(w http.ResponseWriter, r *http.Request) {
	p, err := a.storage.Project(chi.URLParam(r, ProjectURLParam))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, p)
}

// projectList returns all project documents
// GET /projects
func (a *API) projectList(w http.ResponseWriter, r *http.Request) {
	ids, err := a.storage.ListProjects()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	projects := make([]*types.Project, 0, len(ids))
	for _, id := range ids {
		p, err := a.storage.Project(id)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		projects = append(projects, p)
	}
	httpWriteJSON(w, &ProjectList{Projects: projects})
}

// newStem queues an uploaded stem on the project
// POST /projects/{projectId}/stems
func (a *API) newStem(w http.ResponseWriter, r *http.Request) {
	req := &NewStemRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Name == "" {
		ErrMalformedBody.With("missing stem name").Write(w)
		return
	}
	if !common.IsHexAddress(req.Address) {
		ErrMalformedAddress.With(req.Address).Write(w)
		return
	}
	session := &stemqueue.Session{Address: strings.ToLower(req.Address)}
	p, err := a.engine.AddStemToQueue(r.Context(), session, chi.URLParam(r, ProjectURLParam), &types.Stem{
		Name:        req.Name,
		Type:        req.Type,
		MetadataURL: req.MetadataURL,
		AudioURL:    req.AudioURL,
		Filename:    req.Filename,
		Filetype:    req.Filetype,
		Filesize:    req.Filesize,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, p)
}

// approveStem promotes a queued stem into the project stem list
// POST /projects/{projectId}/stems/{stemId}/approve
func (a *API) approveStem(w http.ResponseWriter, r *http.Request) {
	req := &ApproveStemRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !common.IsHexAddress(req.Address) {
		ErrMalformedAddress.With(req.Address).Write(w)
		return
	}
	session := &stemqueue.Session{Address: strings.ToLower(req.Address)}
	p, err := a.engine.ApproveStem(r.Context(), session,
		chi.URLParam(r, ProjectURLParam), chi.URLParam(r, StemURLParam))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpWriteJSON(w, p)
}

// user returns the off-chain record of a connected account
// GET /users/{address}
func (a *API) user(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, UserURLParam)
	if !common.IsHexAddress(address) {
		ErrMalformedAddress.With(address).Write(w)
		return
	}
	u, err := a.storage.User(address)
	if err != nil {
		ErrResourceNotFound.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, u)
}
