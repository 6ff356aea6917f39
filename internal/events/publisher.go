// Package events hands domain events to the external messaging collaborator.
// Publishing is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

const (
	TypeOrderAssigned             = "order.assigned"
	TypeOrderStatusChanged        = "order.status_changed"
	TypeDeliveryTaskStatusChanged = "delivery_task.status_changed"
	TypeJobQuoted                 = "job.quoted"
)

type Event struct {
	Type       string    `json:"type"`
	RoutingKey string    `json:"-"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error {
	return nil
}
