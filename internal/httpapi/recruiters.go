package httpapi

import (
	"encoding/json"
	"net/http"

	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/model"
)

func (s *Server) listRecruiters(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	recruiters, err := s.recruiters.List(r.Context(), owner, r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, recruiters)
}

func (s *Server) createRecruiter(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	var params model.RecruiterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	rec, err := s.recruiters.Create(r.Context(), owner, params)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getRecruiter(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	id, ok := entityID(r)
	if !ok {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	rec, err := s.recruiters.Get(r.Context(), id, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, rec)
}

func (s *Server) patchRecruiter(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	id, ok := entityID(r)
	if !ok {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var patch lifecycle.Fields
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	rec, err := s.recruiters.EditFields(r.Context(), id, owner, patch)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, rec)
}

func (s *Server) deleteRecruiter(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	id, ok := entityID(r)
	if !ok {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.recruiters.Delete(r.Context(), id, owner); err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, map[string]any{"deleted": id})
}

func (s *Server) moveRecruiter(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	id, ok := entityID(r)
	if !ok {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var body statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}
	rec, err := s.recruiters.ChangeStatus(r.Context(), id, owner, body.Status, body.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, rec)
}

func (s *Server) recruiterHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	id, ok := entityID(r)
	if !ok {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	rec, history, err := s.recruiters.GetWithHistory(r.Context(), id, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, map[string]any{"recruiter": rec, "history": history})
}
