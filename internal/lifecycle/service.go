package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"huntboard/tracker-service/internal/telemetry"
)

// Entity is the minimal view the engine needs of a tracked record.
type Entity interface {
	CurrentStatus() Status
}

// Fields is a partial update for an entity's non-lifecycle attributes, keyed
// by API field name. Repositories whitelist the keys they accept.
type Fields map[string]any

// Repository persists one entity kind. All lookups are owner-scoped: a record
// owned by someone else must surface as ErrNotFound.
type Repository[E Entity, P any] interface {
	Create(ctx context.Context, ownerID int64, params P, initial Status) (E, error)
	FindOne(ctx context.Context, id, ownerID int64) (E, error)
	List(ctx context.Context, ownerID int64, status *Status) ([]E, error)
	UpdateFields(ctx context.Context, id, ownerID int64, patch Fields) (E, error)

	// Transition commits the status change, derived-field patch, optional note
	// and the ledger entry in a single transaction, conditional on the entity
	// still being in from. Returns ErrStaleStatus when that condition fails.
	Transition(ctx context.Context, id, ownerID int64, from, to Status, patch FieldPatch, note string, changedAt time.Time) (E, error)

	// Delete removes the entity and all of its ledger entries.
	Delete(ctx context.Context, id, ownerID int64) error
}

// StatusChange describes one committed transition, for event publication.
type StatusChange struct {
	Kind      Kind
	EntityID  int64
	OwnerID   int64
	From      Status
	To        Status
	ChangedAt time.Time
}

// Publisher fans a committed transition out to interested consumers.
// Publication failures must not fail the transition.
type Publisher interface {
	StatusChanged(ctx context.Context, ev StatusChange)
}

// maxTransitionAttempts bounds the optimistic-concurrency retry loop in
// ChangeStatus. Each retry re-reads and re-validates against the fresh status.
const maxTransitionAttempts = 3

// Service orchestrates the status lifecycle for one entity kind. It is
// transport-agnostic and holds no mutable state of its own; construct one per
// kind at startup with that kind's registry, effect table and repository.
type Service[E Entity, P any] struct {
	reg     *Registry
	effects EffectTable
	repo    Repository[E, P]
	ledger  Ledger
	events  Publisher
	log     *slog.Logger
}

// NewService wires a lifecycle engine for one entity kind. events may be nil.
func NewService[E Entity, P any](reg *Registry, effects EffectTable, repo Repository[E, P], ledger Ledger, events Publisher, log *slog.Logger) *Service[E, P] {
	if log == nil {
		log = slog.Default()
	}
	return &Service[E, P]{
		reg:     reg,
		effects: effects,
		repo:    repo,
		ledger:  ledger,
		events:  events,
		log:     log.With("kind", string(reg.Kind())),
	}
}

// Registry exposes the kind's status registry to callers (for listings and
// status descriptions).
func (s *Service[E, P]) Registry() *Registry { return s.reg }

// Create persists a new entity at the kind's initial status. No ledger entry
// is written — the ledger begins at the first real transition.
func (s *Service[E, P]) Create(ctx context.Context, ownerID int64, params P) (E, error) {
	return s.repo.Create(ctx, ownerID, params, s.reg.Initial())
}

// Get loads one entity scoped by (id, ownerID).
func (s *Service[E, P]) Get(ctx context.Context, id, ownerID int64) (E, error) {
	return s.repo.FindOne(ctx, id, ownerID)
}

// List returns the owner's entities, optionally filtered to one status.
// statusFilter is the raw query value; empty means no filter.
func (s *Service[E, P]) List(ctx context.Context, ownerID int64, statusFilter string) ([]E, error) {
	if statusFilter == "" {
		return s.repo.List(ctx, ownerID, nil)
	}
	st, err := s.reg.Parse(statusFilter)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ownerID, &st)
}

// ChangeStatus performs a complete, atomic status change: ownership check,
// graph validation, derived-field stamping, persistence and ledger append.
//
// Self-transitions return the entity unchanged with no write and no ledger
// entry. Racing transitions against the same entity are serialized by the
// repository's conditional update; on a stale read the engine re-validates
// against the post-race status rather than the one it originally loaded.
func (s *Service[E, P]) ChangeStatus(ctx context.Context, id, ownerID int64, rawStatus, note string) (E, error) {
	var zero E

	to, err := s.reg.Parse(rawStatus)
	if err != nil {
		telemetry.TransitionRejects.WithLabelValues(string(s.reg.Kind()), "unknown_status").Inc()
		return zero, err
	}

	for attempt := 1; ; attempt++ {
		entity, err := s.repo.FindOne(ctx, id, ownerID)
		if err != nil {
			return zero, err
		}

		from := entity.CurrentStatus()
		if from == to {
			return entity, nil
		}

		if err := s.reg.ValidateTransition(from, to); err != nil {
			telemetry.TransitionRejects.WithLabelValues(string(s.reg.Kind()), "illegal_transition").Inc()
			return zero, err
		}

		now := time.Now().UTC()
		patch := s.effects.PatchFor(to, now)

		updated, err := s.repo.Transition(ctx, id, ownerID, from, to, patch, note, now)
		if errors.Is(err, ErrStaleStatus) {
			if attempt < maxTransitionAttempts {
				s.log.Debug("stale status read, retrying transition",
					"id", id, "from", from, "to", to, "attempt", attempt)
				continue
			}
			return zero, fmt.Errorf("transition %s → %s: %w", from, to, err)
		}
		if err != nil {
			return zero, err
		}

		telemetry.Transitions.WithLabelValues(string(s.reg.Kind()), string(from), string(to)).Inc()
		s.log.Info("status changed", "id", id, "from", from, "to", to)

		if s.events != nil {
			s.events.StatusChanged(ctx, StatusChange{
				Kind:      s.reg.Kind(),
				EntityID:  id,
				OwnerID:   ownerID,
				From:      from,
				To:        to,
				ChangedAt: now,
			})
		}
		return updated, nil
	}
}

// EditFields applies a direct partial update to non-lifecycle attributes.
// A patch touching status is rejected: status only changes through ChangeStatus.
func (s *Service[E, P]) EditFields(ctx context.Context, id, ownerID int64, patch Fields) (E, error) {
	var zero E
	if _, ok := patch["status"]; ok {
		return zero, &IllegalFieldEditError{Field: "status"}
	}
	return s.repo.UpdateFields(ctx, id, ownerID, patch)
}

// Delete removes the entity and, in the same transaction, its ledger history.
func (s *Service[E, P]) Delete(ctx context.Context, id, ownerID int64) error {
	return s.repo.Delete(ctx, id, ownerID)
}

// History returns the entity's transitions, most recent first.
func (s *Service[E, P]) History(ctx context.Context, entityID int64) ([]Entry, error) {
	return s.ledger.History(ctx, s.reg.Kind(), entityID)
}

// GetWithHistory loads the entity together with its transition history.
func (s *Service[E, P]) GetWithHistory(ctx context.Context, id, ownerID int64) (E, []Entry, error) {
	var zero E
	entity, err := s.repo.FindOne(ctx, id, ownerID)
	if err != nil {
		return zero, nil, err
	}
	history, err := s.ledger.History(ctx, s.reg.Kind(), id)
	if err != nil {
		return zero, nil, err
	}
	return entity, history, nil
}
