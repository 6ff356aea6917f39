package worker

import (
	"time"

	"github.com/gofrs/uuid"
)

// Worker is a service worker or driver that can be bound to an order.
// CurrentTask is set while IsAvailable is false.
type Worker struct {
	ID            uuid.UUID  `json:"id"`
	ProfileID     *uuid.UUID `json:"profile_id"`
	ProfileName   *string    `json:"profile_name"`
	AccountName   *string    `json:"account_name,omitempty"`
	AccountEmail  *string    `json:"account_email,omitempty"`
	Specialty     *string    `json:"specialty"`
	Description   *string    `json:"description"`
	HourlyRate    *float64   `json:"hourly_rate"`
	Badges        []string   `json:"badges"`
	Rating        float64    `json:"rating"`
	CompletedJobs int        `json:"completed_jobs"`
	IsAvailable   bool       `json:"is_available"`
	CurrentTask   *string    `json:"current_task"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DisplayName is the name snapshotted onto an order at assignment.
func (w *Worker) DisplayName() *string {
	for _, name := range []*string{w.AccountName, w.ProfileName, w.Specialty} {
		if name != nil && *name != "" {
			return name
		}
	}
	return nil
}

// Filter narrows a worker listing. A zero Limit returns every match.
type Filter struct {
	Specialty string
	Available *bool
	Page      int
	Limit     int
}

type CreateInput struct {
	ProfileID    *uuid.UUID
	ProfileName  *string
	ProfileEmail *string
	Password     *string
	Role         string
	Specialty    *string
	Description  *string
	HourlyRate   *float64
	Badges       []string
	IsAvailable  *bool
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	ProfileName *string
	Specialty   *string
	Description *string
	HourlyRate  *float64
	Badges      []string
	IsAvailable *bool
	CurrentTask *string
}
