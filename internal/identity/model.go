package identity

import (
	"time"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleOperation     Role = "operation"
	RoleStoreOwner    Role = "store_owner"
	RoleDriver        Role = "driver"
	RoleServiceWorker Role = "service_worker"
	RoleUser          Role = "user"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperation, RoleStoreOwner, RoleDriver, RoleServiceWorker, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User is an identity account. PasswordHash never leaves the package in a
// response body.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         *string    `json:"name"`
	Phone        *string    `json:"phone"`
	Role         Role       `json:"role"`
	Disabled     bool       `json:"disabled"`
	PasswordHash string     `json:"-"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"`
	User        *User     `json:"user"`
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     *string
	Phone    *string
	Role     Role
}

type UpdateUserInput struct {
	Name     *string
	Phone    *string
	Role     *Role
	Disabled *bool
	Password *string
}
