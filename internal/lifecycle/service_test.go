package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"huntboard/tracker-service/internal/lifecycle"
)

// ── In-memory fakes ────────────────────────────────────────────────────────
//
// The fakes mirror the store's contract: FindOne returns a snapshot, and
// Transition applies the status change, field patch and ledger append under
// one lock, conditional on the entity still holding the expected source
// status (ErrStaleStatus otherwise).

type fakeEntity struct {
	id              int64
	owner           int64
	status          lifecycle.Status
	applicationDate *time.Time
	lastContactDate *time.Time
	notes           *string
}

func (e *fakeEntity) CurrentStatus() lifecycle.Status { return e.status }

func (e *fakeEntity) clone() *fakeEntity {
	c := *e
	return &c
}

type fakeParams struct {
	notes *string
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []lifecycle.Entry
}

func (l *fakeLedger) appendLocked(e lifecycle.Entry) {
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
}

func (l *fakeLedger) History(_ context.Context, kind lifecycle.Kind, entityID int64) ([]lifecycle.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]lifecycle.Entry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.Kind == kind && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	kind      lifecycle.Kind
	seq       int64
	entities  map[int64]*fakeEntity
	ledger    *fakeLedger
	failStale int // inject N artificial stale-read failures on Transition
}

func newFakeRepo(kind lifecycle.Kind) *fakeRepo {
	return &fakeRepo{
		kind:     kind,
		entities: make(map[int64]*fakeEntity),
		ledger:   &fakeLedger{},
	}
}

func (r *fakeRepo) Create(_ context.Context, ownerID int64, p fakeParams, initial lifecycle.Status) (*fakeEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e := &fakeEntity{id: r.seq, owner: ownerID, status: initial, notes: p.notes}
	r.entities[e.id] = e
	return e.clone(), nil
}

func (r *fakeRepo) FindOne(_ context.Context, id, ownerID int64) (*fakeEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok || e.owner != ownerID {
		return nil, lifecycle.ErrNotFound
	}
	return e.clone(), nil
}

func (r *fakeRepo) List(_ context.Context, ownerID int64, status *lifecycle.Status) ([]*fakeEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*fakeEntity, 0)
	for _, e := range r.entities {
		if e.owner != ownerID {
			continue
		}
		if status != nil && e.status != *status {
			continue
		}
		out = append(out, e.clone())
	}
	return out, nil
}

func (r *fakeRepo) UpdateFields(_ context.Context, id, ownerID int64, patch lifecycle.Fields) (*fakeEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok || e.owner != ownerID {
		return nil, lifecycle.ErrNotFound
	}
	if raw, ok := patch["notes"]; ok {
		if s, ok := raw.(string); ok {
			e.notes = &s
		}
	}
	return e.clone(), nil
}

func (r *fakeRepo) Transition(_ context.Context, id, ownerID int64, from, to lifecycle.Status, patch lifecycle.FieldPatch, note string, changedAt time.Time) (*fakeEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok || e.owner != ownerID {
		return nil, lifecycle.ErrNotFound
	}
	if r.failStale > 0 {
		r.failStale--
		return nil, lifecycle.ErrStaleStatus
	}
	if e.status != from {
		return nil, lifecycle.ErrStaleStatus
	}

	e.status = to
	if patch.ApplicationDate != nil && e.applicationDate == nil {
		e.applicationDate = patch.ApplicationDate
	}
	if patch.LastContactDate != nil {
		e.lastContactDate = patch.LastContactDate
	}
	notePtr := (*string)(nil)
	if note != "" {
		n := note
		e.notes = &n
		notePtr = &n
	}

	r.ledger.mu.Lock()
	old := from
	r.ledger.appendLocked(lifecycle.Entry{
		Kind:      r.kind,
		EntityID:  id,
		OldStatus: &old,
		NewStatus: to,
		Note:      notePtr,
		ChangedAt: changedAt,
	})
	r.ledger.mu.Unlock()

	return e.clone(), nil
}

func (r *fakeRepo) Delete(_ context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok || e.owner != ownerID {
		return lifecycle.ErrNotFound
	}
	delete(r.entities, id)

	r.ledger.mu.Lock()
	kept := r.ledger.entries[:0]
	for _, entry := range r.ledger.entries {
		if !(entry.Kind == r.kind && entry.EntityID == id) {
			kept = append(kept, entry)
		}
	}
	r.ledger.entries = kept
	r.ledger.mu.Unlock()
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.StatusChange
}

func (p *recordingPublisher) StatusChanged(_ context.Context, ev lifecycle.StatusChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func newVacancyEngine() (*lifecycle.Service[*fakeEntity, fakeParams], *fakeRepo, *recordingPublisher) {
	repo := newFakeRepo(lifecycle.KindVacancy)
	pub := &recordingPublisher{}
	svc := lifecycle.NewService(lifecycle.Vacancies, lifecycle.VacancyEffects, repo, repo.ledger, pub, nil)
	return svc, repo, pub
}

// ── End-to-end scenario ────────────────────────────────────────────────────

func TestChangeStatus_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newVacancyEngine()

	v, err := svc.Create(ctx, 7, fakeParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.status != lifecycle.VacancyFound {
		t.Fatalf("new vacancy status = %s, want found", v.status)
	}
	if history, _ := svc.History(ctx, v.id); len(history) != 0 {
		t.Fatalf("fresh vacancy should have empty history, got %d entries", len(history))
	}

	v, err = svc.ChangeStatus(ctx, v.id, 7, "applied", "sent CV")
	if err != nil {
		t.Fatalf("ChangeStatus(applied): %v", err)
	}
	if v.status != lifecycle.VacancyApplied {
		t.Errorf("status = %s, want applied", v.status)
	}
	if v.applicationDate == nil {
		t.Error("applicationDate should be stamped on entering applied")
	}

	history, err := svc.History(ctx, v.id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	entry := history[0]
	if entry.OldStatus == nil || *entry.OldStatus != lifecycle.VacancyFound || entry.NewStatus != lifecycle.VacancyApplied {
		t.Errorf("history entry = %v → %s, want found → applied", entry.OldStatus, entry.NewStatus)
	}
	if entry.Note == nil || *entry.Note != "sent CV" {
		t.Errorf("history note = %v, want \"sent CV\"", entry.Note)
	}

	// applied → offer is not an edge; nothing may change.
	_, err = svc.ChangeStatus(ctx, v.id, 7, "offer", "")
	var illegal *lifecycle.IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("ChangeStatus(offer) = %v, want *IllegalTransitionError", err)
	}
	wantAllowed := map[lifecycle.Status]bool{
		lifecycle.VacancyViewed: true, lifecycle.VacancyNoResponse: true,
		lifecycle.VacancyInvited: true, lifecycle.VacancyRejected: true,
		lifecycle.VacancyArchived: true,
	}
	if len(illegal.Allowed) != len(wantAllowed) {
		t.Errorf("allowed-next = %v, want the applied edge set", illegal.Allowed)
	}
	for _, s := range illegal.Allowed {
		if !wantAllowed[s] {
			t.Errorf("allowed-next contains unexpected status %s", s)
		}
	}

	after, _ := repo.FindOne(ctx, v.id, 7)
	if after.status != lifecycle.VacancyApplied {
		t.Errorf("status after rejected transition = %s, want applied", after.status)
	}
	if history, _ = svc.History(ctx, v.id); len(history) != 1 {
		t.Errorf("history length after rejected transition = %d, want 1", len(history))
	}
	if len(pub.events) != 1 {
		t.Errorf("published events = %d, want 1", len(pub.events))
	}
}

// ── Individual properties ──────────────────────────────────────────────────

func TestChangeStatus_SelfTransitionIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	got, err := svc.ChangeStatus(ctx, v.id, 1, "found", "still looking")
	if err != nil {
		t.Fatalf("self-transition: %v", err)
	}
	if got.status != lifecycle.VacancyFound {
		t.Errorf("status = %s, want found", got.status)
	}
	if history, _ := svc.History(ctx, v.id); len(history) != 0 {
		t.Error("self-transition must not append a ledger entry")
	}
	if len(pub.events) != 0 {
		t.Error("self-transition must not publish an event")
	}
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	_, err := svc.ChangeStatus(ctx, v.id, 1, "hired", "")
	var unknown *lifecycle.UnknownStatusError
	if !errors.As(err, &unknown) {
		t.Fatalf("ChangeStatus(hired) = %v, want *UnknownStatusError", err)
	}
}

func TestChangeStatus_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	_, err := svc.ChangeStatus(ctx, v.id, 2, "applied", "")
	if !errors.Is(err, lifecycle.ErrNotFound) {
		t.Fatalf("other owner's transition = %v, want ErrNotFound", err)
	}
	// Absent entity must be indistinguishable from a foreign one.
	_, err = svc.ChangeStatus(ctx, 9999, 1, "applied", "")
	if !errors.Is(err, lifecycle.ErrNotFound) {
		t.Fatalf("absent entity transition = %v, want ErrNotFound", err)
	}
}

func TestChangeStatus_LedgerStatusAgreement(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	path := []string{"applied", "viewed", "invited", "offer", "archived", "found"}
	for _, next := range path {
		if _, err := svc.ChangeStatus(ctx, v.id, 1, next, ""); err != nil {
			t.Fatalf("ChangeStatus(%s): %v", next, err)
		}
	}

	history, _ := svc.History(ctx, v.id)
	if len(history) != len(path) {
		t.Fatalf("history length = %d, want %d", len(history), len(path))
	}
	current, _ := repo.FindOne(ctx, v.id, 1)
	if history[0].NewStatus != current.status {
		t.Errorf("most recent ledger entry %s != current status %s", history[0].NewStatus, current.status)
	}
	// Entries must chain: each older entry's NewStatus is the next entry's OldStatus.
	for i := 0; i < len(history)-1; i++ {
		if history[i].OldStatus == nil || *history[i].OldStatus != history[i+1].NewStatus {
			t.Errorf("ledger chain broken at entry %d: %v → %s after %s",
				i, history[i].OldStatus, history[i].NewStatus, history[i+1].NewStatus)
		}
	}
}

func TestChangeStatus_RetriesStaleRead(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	repo.failStale = 1

	got, err := svc.ChangeStatus(ctx, v.id, 1, "applied", "")
	if err != nil {
		t.Fatalf("ChangeStatus with one stale read should succeed on retry: %v", err)
	}
	if got.status != lifecycle.VacancyApplied {
		t.Errorf("status = %s, want applied", got.status)
	}
}

func TestChangeStatus_GivesUpAfterRepeatedStaleReads(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	repo.failStale = 10

	_, err := svc.ChangeStatus(ctx, v.id, 1, "applied", "")
	if !errors.Is(err, lifecycle.ErrStaleStatus) {
		t.Fatalf("exhausted retries = %v, want wrapped ErrStaleStatus", err)
	}
	if history, _ := svc.History(ctx, v.id); len(history) != 0 {
		t.Error("failed transition must not append a ledger entry")
	}
}

// Two racing transitions must never both commit against the same stale read.
// Whichever lands second is validated against the first one's result: it
// either succeeds from the new status or fails the graph check.
func TestChangeStatus_ConcurrentRace(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, target := range []string{"applied", "archived"} {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			_, results[i] = svc.ChangeStatus(ctx, v.id, 1, target, "")
		}(i, target)
	}
	wg.Wait()

	history, _ := svc.History(ctx, v.id)
	current, _ := repo.FindOne(ctx, v.id, 1)

	committed := 0
	for _, err := range results {
		if err == nil {
			committed++
			continue
		}
		var illegal *lifecycle.IllegalTransitionError
		if !errors.As(err, &illegal) {
			t.Fatalf("racing transition failed with %v, want success or *IllegalTransitionError", err)
		}
	}
	if committed != len(history) {
		t.Fatalf("%d committed transitions but %d ledger entries", committed, len(history))
	}
	if len(history) > 0 && history[0].NewStatus != current.status {
		t.Errorf("current status %s disagrees with latest ledger entry %s", current.status, history[0].NewStatus)
	}
	// The chain property is the race detector: a stale double-commit would
	// produce two entries claiming the same OldStatus.
	for i := 0; i < len(history)-1; i++ {
		if history[i].OldStatus == nil || *history[i].OldStatus != history[i+1].NewStatus {
			t.Errorf("ledger chain broken: both transitions committed against a stale status")
		}
	}
}

func TestEditFields_RejectsStatusKey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	_, err := svc.EditFields(ctx, v.id, 1, lifecycle.Fields{"status": "applied"})
	var fieldErr *lifecycle.IllegalFieldEditError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("EditFields with status key = %v, want *IllegalFieldEditError", err)
	}
	if fieldErr.Field != "status" {
		t.Errorf("Field = %q, want \"status\"", fieldErr.Field)
	}
}

func TestEditFields_PassesThroughOtherKeys(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	got, err := svc.EditFields(ctx, v.id, 1, lifecycle.Fields{"notes": "ping them monday"})
	if err != nil {
		t.Fatalf("EditFields: %v", err)
	}
	if got.notes == nil || *got.notes != "ping them monday" {
		t.Errorf("notes = %v, want updated", got.notes)
	}
}

func TestDelete_CascadesLedger(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	if _, err := svc.ChangeStatus(ctx, v.id, 1, "applied", ""); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if err := svc.Delete(ctx, v.id, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, v.id, 1); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if history, _ := svc.History(ctx, v.id); len(history) != 0 {
		t.Error("ledger entries must be deleted with the entity")
	}
}

func TestList_StatusFilterValidated(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	if _, err := svc.List(ctx, 1, "hired"); err == nil {
		t.Error("List with unknown status filter should fail")
	}
	if _, err := svc.List(ctx, 1, ""); err != nil {
		t.Errorf("List without filter: %v", err)
	}
}

func TestGetWithHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newVacancyEngine()

	v, _ := svc.Create(ctx, 1, fakeParams{})
	if _, err := svc.ChangeStatus(ctx, v.id, 1, "applied", ""); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	got, history, err := svc.GetWithHistory(ctx, v.id, 1)
	if err != nil {
		t.Fatalf("GetWithHistory: %v", err)
	}
	if got.status != lifecycle.VacancyApplied || len(history) != 1 {
		t.Errorf("GetWithHistory = (%s, %d entries), want (applied, 1)", got.status, len(history))
	}
}

// Recruiter engine shares the implementation; cover its effect table wiring.
func TestChangeStatus_RecruiterLastContactStamp(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(lifecycle.KindRecruiter)
	svc := lifecycle.NewService(lifecycle.Recruiters, lifecycle.RecruiterEffects, repo, repo.ledger, nil, nil)

	r, _ := svc.Create(ctx, 3, fakeParams{})
	if r.status != lifecycle.RecruiterContacting {
		t.Fatalf("new recruiter status = %s, want contacting", r.status)
	}

	got, err := svc.ChangeStatus(ctx, r.id, 3, "waiting", "")
	if err != nil {
		t.Fatalf("ChangeStatus(waiting): %v", err)
	}
	if got.lastContactDate == nil {
		t.Error("lastContactDate should be stamped on entering waiting")
	}

	// got_offer only archives.
	if _, err := svc.ChangeStatus(ctx, r.id, 3, "in_process", ""); err != nil {
		t.Fatalf("ChangeStatus(in_process): %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, r.id, 3, "got_offer", ""); err != nil {
		t.Fatalf("ChangeStatus(got_offer): %v", err)
	}
	var illegal *lifecycle.IllegalTransitionError
	if _, err := svc.ChangeStatus(ctx, r.id, 3, "waiting", ""); !errors.As(err, &illegal) {
		t.Fatalf("got_offer → waiting = %v, want *IllegalTransitionError", err)
	}
}
