package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"huntboard/tracker-service/internal/events"
	"huntboard/tracker-service/internal/lifecycle"
)

func TestStatusChanged_PublishesEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, events.Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil { // wait for subscription confirmation
		t.Fatalf("subscribe: %v", err)
	}

	pub := events.NewPublisher(rdb, nil)
	changedAt := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	pub.StatusChanged(ctx, lifecycle.StatusChange{
		Kind:      lifecycle.KindVacancy,
		EntityID:  42,
		OwnerID:   7,
		From:      lifecycle.VacancyFound,
		To:        lifecycle.VacancyApplied,
		ChangedAt: changedAt,
	})

	msg, err := sub.ReceiveTimeout(ctx, 2*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	payload, ok := msg.(*redis.Message)
	if !ok {
		t.Fatalf("received %T, want *redis.Message", msg)
	}

	var ev events.StatusChangedEvent
	if err := json.Unmarshal([]byte(payload.Payload), &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != events.Channel {
		t.Errorf("Type = %q, want %q", ev.Type, events.Channel)
	}
	if ev.EntityType != "vacancy" || ev.EntityID != 42 || ev.UserID != 7 {
		t.Errorf("event identity = %s/%d/%d, want vacancy/42/7", ev.EntityType, ev.EntityID, ev.UserID)
	}
	if ev.From != "found" || ev.To != "applied" {
		t.Errorf("event edge = %s → %s, want found → applied", ev.From, ev.To)
	}
	if ev.EventID == "" {
		t.Error("EventID should be set")
	}
	if !ev.ChangedAt.Equal(changedAt) {
		t.Errorf("ChangedAt = %v, want %v", ev.ChangedAt, changedAt)
	}
}

// Publication is best-effort: a dead Redis must not panic or block.
func TestStatusChanged_SwallowsPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	defer rdb.Close()

	pub := events.NewPublisher(rdb, nil)
	pub.StatusChanged(context.Background(), lifecycle.StatusChange{
		Kind:     lifecycle.KindRecruiter,
		EntityID: 1,
		OwnerID:  1,
		From:     lifecycle.RecruiterContacting,
		To:       lifecycle.RecruiterWaiting,
	})
}
