package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Type string

const (
	TypeDelivery Type = "delivery"
	TypeService  Type = "service"
)

func (t Type) IsValid() bool {
	return t == TypeDelivery || t == TypeService
}

type Item struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Price       float64    `json:"price"`
	Image       *string    `json:"image"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Order is a checkout record. StoreID is empty for service jobs and WorkerID
// stays empty until the order leaves pending through an assignment.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	UserID          *uuid.UUID `json:"user_id"`
	StoreID         *uuid.UUID `json:"store_id"`
	WorkerID        *uuid.UUID `json:"worker_id"`
	WorkerName      *string    `json:"worker_name"`
	Type            Type       `json:"type"`
	Status          Status     `json:"status"`
	TotalAmount     float64    `json:"total_amount"`
	DeliveryAddress *string    `json:"delivery_address"`
	DeliveryLat     *float64   `json:"delivery_lat"`
	DeliveryLng     *float64   `json:"delivery_lng"`
	CustomerName    *string    `json:"customer_name"`
	CustomerPhone   *string    `json:"customer_phone"`
	Notes           *string    `json:"notes"`
	Items           []Item     `json:"items,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Filter struct {
	Status Status
	Page   int
	Limit  int
}
