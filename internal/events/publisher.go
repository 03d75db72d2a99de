// Package events publishes status-change notifications to Redis so downstream
// consumers (gateway SSE, chat bot) can react without polling.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"huntboard/tracker-service/internal/lifecycle"
)

// Channel carries one JSON message per committed status transition.
const Channel = "EVENT_STATUS_CHANGED"

// StatusChangedEvent is the wire shape published on Channel.
type StatusChangedEvent struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	UserID     int64     `json:"userId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ChangedAt  time.Time `json:"changedAt"`
}

// Publisher implements lifecycle.Publisher over Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewPublisher returns a publisher on rdb.
func NewPublisher(rdb *redis.Client, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{rdb: rdb, log: log}
}

// StatusChanged publishes the transition. Failures are logged, never
// propagated: the transition is already committed and event delivery is
// best-effort.
func (p *Publisher) StatusChanged(ctx context.Context, ev lifecycle.StatusChange) {
	payload, err := json.Marshal(StatusChangedEvent{
		EventID:    uuid.New().String(),
		Type:       Channel,
		EntityType: string(ev.Kind),
		EntityID:   ev.EntityID,
		UserID:     ev.OwnerID,
		From:       string(ev.From),
		To:         string(ev.To),
		ChangedAt:  ev.ChangedAt,
	})
	if err != nil {
		p.log.Warn("marshal status event failed", "err", err)
		return
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		p.log.Warn("publish status event failed",
			"kind", string(ev.Kind), "entityId", ev.EntityID, "err", err)
	}
}
