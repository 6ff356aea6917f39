package job

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusQuoted    Status = "quoted"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusQuoted, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Job is a customer's request for a service worker. A worker may quote it
// while it is pending or already quoted; a later quote replaces the earlier.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	WorkerID    *uuid.UUID `json:"worker_id"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	QuotedPrice *float64   `json:"quoted_price"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Filter struct {
	Status Status
	Page   int
	Limit  int
}

type CreateInput struct {
	UserID      *uuid.UUID
	WorkerID    *uuid.UUID
	Description string
}

type QuoteInput struct {
	QuotedPrice *float64
	WorkerID    *uuid.UUID
}
