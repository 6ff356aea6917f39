package delivery

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusUnassigned Status = "unassigned"
	StatusAssigned   Status = "assigned"
	StatusPickedUp   Status = "picked_up"
	StatusDelivered  Status = "delivered"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusPickedUp, StatusDelivered:
		return true
	}
	return false
}

type Action string

const (
	ActionAccept   Action = "accept"
	ActionPickup   Action = "pickup"
	ActionDeliver  Action = "deliver"
	ActionLocation Action = "location"
)

// Task tracks fulfilment of an order from the driver's side.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   *uuid.UUID `json:"order_id"`
	DriverID  *uuid.UUID `json:"driver_id"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActionPayload carries the action-specific fields. Lat and Lng are pointers
// so a JSON null is distinguishable from zero.
type ActionPayload struct {
	DriverID      *uuid.UUID
	Lat           *float64
	Lng           *float64
	DeliveryPhoto *string
	Signature     *string
	Notes         *string
}

type Filter struct {
	Status Status
	Page   int
	Limit  int
}

// Period selects the trailing window an earnings summary covers.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

type EarningsFilter struct {
	DriverID *uuid.UUID
	Since    *time.Time
}

type Earnings struct {
	Period              Period  `json:"period"`
	TotalEarnings       float64 `json:"total_earnings"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	AveragePerDelivery  float64 `json:"average_per_delivery"`
}
