package httpapi

import (
	"encoding/json"
	"net/http"

	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/model"
)

func (s *Server) listVacancies(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	vacancies, err := s.vacancies.List(r.Context(), owner, r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, vacancies)
}

func (s *Server) createVacancy(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	var params model.VacancyParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	v, err := s.vacancies.Create(r.Context(), owner, params)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) getVacancy(w http.ResponseWriter, r *http.Request) {
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
	v, err := s.vacancies.Get(r.Context(), id, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, v)
}

func (s *Server) patchVacancy(w http.ResponseWriter, r *http.Request) {
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
	v, err := s.vacancies.EditFields(r.Context(), id, owner, patch)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, v)
}

func (s *Server) deleteVacancy(w http.ResponseWriter, r *http.Request) {
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
	if err := s.vacancies.Delete(r.Context(), id, owner); err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, map[string]any{"deleted": id})
}

func (s *Server) moveVacancy(w http.ResponseWriter, r *http.Request) {
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
	v, err := s.vacancies.ChangeStatus(r.Context(), id, owner, body.Status, body.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, v)
}

func (s *Server) vacancyHistory(w http.ResponseWriter, r *http.Request) {
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
	v, history, err := s.vacancies.GetWithHistory(r.Context(), id, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, map[string]any{"vacancy": v, "history": history})
}
