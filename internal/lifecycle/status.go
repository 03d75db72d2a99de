// Package lifecycle implements the status state machine for tracked entities.
//
// Every entity kind (vacancy, recruiter) carries a current status drawn from a
// fixed set, and may only move along the edges of that kind's transition
// graph. Each committed move is recorded in an append-only status ledger.
//
// Vacancy status graph:
//
//	found ──► applied ──► viewed ──► noResponse ◄──► invited ──► offer
//	  │          │                                                 │
//	  └──────────┴──► rejected ──► (re-entry) ◄── archived ◄───────┘
//
// The graph is deliberately asymmetric: rejected and archived allow re-entry
// into the early pipeline (a stalled lead can be resumed), while offer only
// moves forward to archival — an offer is a fact, not a stage to undo.
package lifecycle

import "fmt"

// Kind discriminates the two trackable entity types.
type Kind string

const (
	KindVacancy   Kind = "vacancy"
	KindRecruiter Kind = "recruiter"
)

// ParseKind converts a raw string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindVacancy, KindRecruiter:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Status values mirror the vacancy_status / recruiter_status enums in PostgreSQL.
type Status string

// Vacancy statuses.
const (
	VacancyFound      Status = "found"
	VacancyApplied    Status = "applied"
	VacancyViewed     Status = "viewed"
	VacancyNoResponse Status = "noResponse"
	VacancyInvited    Status = "invited"
	VacancyOffer      Status = "offer"
	VacancyRejected   Status = "rejected"
	VacancyArchived   Status = "archived"
)

// Recruiter statuses.
const (
	RecruiterContacting Status = "contacting"
	RecruiterWaiting    Status = "waiting"
	RecruiterInProcess  Status = "in_process"
	RecruiterGotOffer   Status = "got_offer"
	RecruiterRejected   Status = "rejected"
	RecruiterArchived   Status = "archived"
)

// Registry holds one kind's status set and transition graph. Registries are
// built once at init and never mutated.
type Registry struct {
	kind        Kind
	initial     Status
	statuses    []Status
	transitions map[Status][]Status
	labels      map[Status]string
}

// Vacancies is the vacancy status registry.
var Vacancies = &Registry{
	kind:    KindVacancy,
	initial: VacancyFound,
	statuses: []Status{
		VacancyFound, VacancyApplied, VacancyViewed, VacancyNoResponse,
		VacancyInvited, VacancyOffer, VacancyRejected, VacancyArchived,
	},
	transitions: map[Status][]Status{
		VacancyFound:      {VacancyApplied, VacancyViewed, VacancyNoResponse, VacancyInvited, VacancyArchived},
		VacancyApplied:    {VacancyViewed, VacancyNoResponse, VacancyInvited, VacancyRejected, VacancyArchived},
		VacancyViewed:     {VacancyNoResponse, VacancyInvited, VacancyRejected, VacancyArchived},
		VacancyNoResponse: {VacancyInvited, VacancyOffer, VacancyRejected, VacancyArchived},
		VacancyInvited:    {VacancyNoResponse, VacancyOffer, VacancyRejected, VacancyArchived},
		VacancyOffer:      {VacancyNoResponse, VacancyRejected, VacancyArchived},
		VacancyRejected:   {VacancyApplied, VacancyViewed, VacancyNoResponse, VacancyArchived},
		VacancyArchived:   {VacancyFound, VacancyApplied, VacancyViewed, VacancyNoResponse},
	},
	labels: map[Status]string{
		VacancyFound:      "vacancy found",
		VacancyApplied:    "application sent",
		VacancyViewed:     "viewed, no reply",
		VacancyNoResponse: "no response",
		VacancyInvited:    "invited to interview",
		VacancyOffer:      "offer received",
		VacancyRejected:   "rejected",
		VacancyArchived:   "archived",
	},
}

// Recruiters is the recruiter status registry.
var Recruiters = &Registry{
	kind:    KindRecruiter,
	initial: RecruiterContacting,
	statuses: []Status{
		RecruiterContacting, RecruiterWaiting, RecruiterInProcess,
		RecruiterGotOffer, RecruiterRejected, RecruiterArchived,
	},
	transitions: map[Status][]Status{
		RecruiterContacting: {RecruiterWaiting, RecruiterInProcess, RecruiterRejected, RecruiterArchived},
		RecruiterWaiting:    {RecruiterInProcess, RecruiterRejected, RecruiterArchived, RecruiterContacting},
		RecruiterInProcess:  {RecruiterWaiting, RecruiterGotOffer, RecruiterRejected, RecruiterArchived},
		RecruiterGotOffer:   {RecruiterArchived},
		RecruiterRejected:   {RecruiterArchived},
		RecruiterArchived:   {RecruiterContacting},
	},
	labels: map[Status]string{
		RecruiterContacting: "reaching out",
		RecruiterWaiting:    "waiting for reply",
		RecruiterInProcess:  "in process",
		RecruiterGotOffer:   "offer received",
		RecruiterRejected:   "rejected",
		RecruiterArchived:   "archived",
	},
}

// RegistryFor returns the registry for kind.
func RegistryFor(kind Kind) *Registry {
	if kind == KindRecruiter {
		return Recruiters
	}
	return Vacancies
}

// Kind returns the entity kind this registry governs.
func (r *Registry) Kind() Kind { return r.kind }

// Initial is the status assigned on creation.
func (r *Registry) Initial() Status { return r.initial }

// Statuses returns the full status set in pipeline order.
func (r *Registry) Statuses() []Status {
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// IsValid reports whether s is a member of the kind's status set.
func (r *Registry) IsValid(s Status) bool {
	_, ok := r.labels[s]
	return ok
}

// Parse converts a raw string to a Status, returning *UnknownStatusError for
// values outside the kind's status set.
func (r *Registry) Parse(raw string) (Status, error) {
	s := Status(raw)
	if !r.IsValid(s) {
		return "", &UnknownStatusError{Kind: r.kind, Status: raw, Valid: r.Statuses()}
	}
	return s, nil
}

// AllowedNext returns the statuses reachable from s in one transition.
func (r *Registry) AllowedNext(s Status) ([]Status, error) {
	if !r.IsValid(s) {
		return nil, &UnknownStatusError{Kind: r.kind, Status: string(s), Valid: r.Statuses()}
	}
	next := r.transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out, nil
}

// Describe returns the human-readable label for s, or the raw value for
// statuses outside the set.
func (r *Registry) Describe(s Status) string {
	if label, ok := r.labels[s]; ok {
		return label
	}
	return string(s)
}

// ValidateTransition decides whether moving from → to is permitted.
// Self-transitions short-circuit to success without consulting the graph.
func (r *Registry) ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !r.IsValid(from) {
		return &UnknownStatusError{Kind: r.kind, Status: string(from), Valid: r.Statuses()}
	}
	if !r.IsValid(to) {
		return &UnknownStatusError{Kind: r.kind, Status: string(to), Valid: r.Statuses()}
	}
	allowed := r.transitions[from]
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return &IllegalTransitionError{Kind: r.kind, From: from, To: to, Allowed: append([]Status(nil), allowed...)}
}
