package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an entity is missing or does not belong to the
// calling owner. The two cases are deliberately indistinguishable so an owner
// mismatch does not leak the entity's existence.
var ErrNotFound = errors.New("entity not found")

// ErrStaleStatus is returned by a repository when a conditional status update
// finds the entity no longer in the expected source status. The service
// re-reads and re-validates on this error.
var ErrStaleStatus = errors.New("status changed concurrently")

// UnknownStatusError marks a status string outside the kind's status set.
type UnknownStatusError struct {
	Kind   Kind
	Status string
	Valid  []Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown %s status %q (valid: %s)", e.Kind, e.Status, joinStatuses(e.Valid))
}

// IllegalTransitionError marks a (from → to) pair that is not an edge of the
// kind's transition graph. Allowed carries the full allowed-next set so the
// caller can render a corrective message.
type IllegalTransitionError struct {
	Kind    Kind
	From    Status
	To      Status
	Allowed []Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s transition %s → %s is not allowed (allowed: %s)",
		e.Kind, e.From, e.To, joinStatuses(e.Allowed))
}

// IllegalFieldEditError marks an attempt to set a lifecycle-managed field
// through the generic field-edit path.
type IllegalFieldEditError struct {
	Field string
}

func (e *IllegalFieldEditError) Error() string {
	return fmt.Sprintf("field %q can only change through a status transition", e.Field)
}

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func joinStatuses(ss []Status) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
