package lifecycle

import "time"

// FieldPatch is the derived-field update applied alongside a transition.
// ApplicationDate is stamped only if the entity has none yet; LastContactDate
// always overwrites.
type FieldPatch struct {
	ApplicationDate *time.Time
	LastContactDate *time.Time
}

// IsZero reports whether the patch carries no updates.
func (p FieldPatch) IsZero() bool {
	return p.ApplicationDate == nil && p.LastContactDate == nil
}

// EffectTable maps a destination status to the derived-field patch stamped on
// entering it. Effects are keyed by destination only — they never depend on
// the source status.
type EffectTable map[Status]func(now time.Time) FieldPatch

// PatchFor returns the patch for entering status to at time now.
func (t EffectTable) PatchFor(to Status, now time.Time) FieldPatch {
	if fn, ok := t[to]; ok {
		return fn(now)
	}
	return FieldPatch{}
}

func stampApplication(now time.Time) FieldPatch { return FieldPatch{ApplicationDate: &now} }
func stampLastContact(now time.Time) FieldPatch { return FieldPatch{LastContactDate: &now} }

// VacancyEffects: applying stamps the application date, contact-shaped
// statuses stamp the last contact date.
var VacancyEffects = EffectTable{
	VacancyApplied:    stampApplication,
	VacancyNoResponse: stampLastContact,
	VacancyInvited:    stampLastContact,
}

// RecruiterEffects: any status implying an exchange stamps the last contact date.
var RecruiterEffects = EffectTable{
	RecruiterWaiting:   stampLastContact,
	RecruiterInProcess: stampLastContact,
}
