package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

const DefaultBadgeColor = "#22c55e"

// Category is a store tag. StoreCount is derived at read time and may be
// stale by the time the caller sees it.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Icon        *string   `json:"icon"`
	StoreCount  int       `json:"store_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Badge is a worker tag.
type Badge struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	WorkerCount int       `json:"worker_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryInput struct {
	Name        string
	Description *string
	Icon        *string
}

type BadgeInput struct {
	Name        string
	Description *string
	Color       *string
}
