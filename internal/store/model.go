package store

import (
	"time"

	"github.com/gofrs/uuid"
)

// Store is a merchant. Categories holds store_categories ids.
type Store struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     *uuid.UUID `json:"owner_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Categories  []string   `json:"categories"`
	Location    *string    `json:"location"`
	Phone       *string    `json:"phone"`
	IsOpen      bool       `json:"is_open"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	StoreID     uuid.UUID `json:"store_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Image       *string   `json:"image"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

type Filter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

type ProductFilter struct {
	Search string
	Page   int
	Limit  int
}

type OwnerInput struct {
	Email    string
	Password string
	Name     *string
	Phone    *string
}

type CreateInput struct {
	Name        string
	Description *string
	Categories  []string
	Location    *string
	Phone       *string
	IsOpen      *bool
	// OwnerID links an existing account. Owner provisions a new one instead.
	OwnerID *uuid.UUID
	Owner   *OwnerInput
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Categories  []string
	Location    *string
	Phone       *string
	IsOpen      *bool
}

type ProductInput struct {
	Name        string
	Description *string
	Price       *float64
	Image       *string
	IsAvailable *bool
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	IsAvailable *bool
}
