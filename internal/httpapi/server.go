// Package httpapi exposes the tracker over HTTP. It handles only transport
// concerns — routing, JSON codec, owner-id extraction, error mapping — and
// delegates everything else to the lifecycle and analytics services.
//
// All routes expect an x-user-id header forwarded by the Gateway.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"huntboard/tracker-service/internal/analytics"
	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/model"
	"huntboard/tracker-service/internal/telemetry"
)

// VacancyService and RecruiterService alias the kind-specific lifecycle engines.
type (
	VacancyService   = lifecycle.Service[*model.Vacancy, model.VacancyParams]
	RecruiterService = lifecycle.Service[*model.Recruiter, model.RecruiterParams]
)

// Server wires HTTP handlers over the domain services.
type Server struct {
	vacancies  *VacancyService
	recruiters *RecruiterService
	analytics  *analytics.Service
	log        *slog.Logger
}

// New constructs the API server.
func New(vacancies *VacancyService, recruiters *RecruiterService, an *analytics.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{vacancies: vacancies, recruiters: recruiters, analytics: an, log: log}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonOK(w, map[string]string{"status": "ok", "service": "tracker-service"})
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Route("/vacancies", func(r chi.Router) {
		r.Get("/", s.listVacancies)
		r.Post("/", s.createVacancy)
		r.Get("/{id}", s.getVacancy)
		r.Patch("/{id}", s.patchVacancy)
		r.Delete("/{id}", s.deleteVacancy)
		r.Post("/{id}/status", s.moveVacancy)
		r.Get("/{id}/history", s.vacancyHistory)
	})

	r.Route("/recruiters", func(r chi.Router) {
		r.Get("/", s.listRecruiters)
		r.Post("/", s.createRecruiter)
		r.Get("/{id}", s.getRecruiter)
		r.Patch("/{id}", s.patchRecruiter)
		r.Delete("/{id}", s.deleteRecruiter)
		r.Post("/{id}/status", s.moveRecruiter)
		r.Get("/{id}/history", s.recruiterHistory)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/vacancies/stats", s.vacancyStats)
		r.Get("/vacancies/funnel", s.vacancyFunnel)
		r.Get("/recruiters/stats", s.recruiterStats)
		r.Get("/recruiters/funnel", s.recruiterFunnel)
	})

	return r
}

// ownerID extracts the caller's user id from the x-user-id header.
func ownerID(r *http.Request) (int64, bool) {
	raw := r.Header.Get("x-user-id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// entityID parses the {id} route parameter.
func entityID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// statusChangeRequest is the body of POST /{kind}/{id}/status.
type statusChangeRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// writeDomainError maps engine errors to HTTP responses. Storage internals
// never cross the boundary: unexpected errors are logged and replaced with a
// generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		unknownErr  *lifecycle.UnknownStatusError
		illegalErr  *lifecycle.IllegalTransitionError
		fieldErr    *lifecycle.IllegalFieldEditError
		validateErr *lifecycle.ValidationError
	)
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.As(err, &unknownErr):
		jsonError(w, unknownErr.Error(), http.StatusBadRequest)
	case errors.As(err, &illegalErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":       illegalErr.Error(),
			"allowedNext": illegalErr.Allowed,
		})
	case errors.As(err, &fieldErr):
		jsonError(w, fieldErr.Error(), http.StatusBadRequest)
	case errors.As(err, &validateErr):
		jsonError(w, validateErr.Error(), http.StatusBadRequest)
	default:
		s.log.Error("storage failure", "err", err)
		jsonError(w, "storage failure", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
