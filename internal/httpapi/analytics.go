package httpapi

import (
	"net/http"

	"huntboard/tracker-service/internal/analytics"
	"huntboard/tracker-service/internal/lifecycle"
)

func (s *Server) vacancyStats(w http.ResponseWriter, r *http.Request) {
	s.stats(w, r, lifecycle.KindVacancy)
}

func (s *Server) recruiterStats(w http.ResponseWriter, r *http.Request) {
	s.stats(w, r, lifecycle.KindRecruiter)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request, kind lifecycle.Kind) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	stats, err := s.analytics.StatusCounts(r.Context(), kind, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, stats)
}

func (s *Server) vacancyFunnel(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	stats, err := s.analytics.StatusCounts(r.Context(), lifecycle.KindVacancy, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, analytics.BuildVacancyFunnel(stats))
}

func (s *Server) recruiterFunnel(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	stats, err := s.analytics.StatusCounts(r.Context(), lifecycle.KindRecruiter, owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jsonOK(w, analytics.BuildRecruiterFunnel(stats))
}
