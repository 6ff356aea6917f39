package notification

import (
	"time"

	"github.com/gofrs/uuid"
)

// Notification is an in-app notice addressed to one account. EntityID points
// at the record it is about, such as a service job.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	EntityID  *string   `json:"entity_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	UserID   uuid.UUID
	Type     string
	Title    string
	Body     *string
	EntityID *string
}
