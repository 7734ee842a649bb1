package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleDispatcher UserRole = "dispatcher"
	RoleAdmin      UserRole = "admin"
)

// User is an account belonging to exactly one carrier (tenant). Drivers are
// not users; they are addressed by driver id in notifications.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CarrierID    uuid.UUID `json:"carrier_id" db:"carrier_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUserIDsByCarrier(ctx context.Context, carrierID uuid.UUID) ([]uuid.UUID, error)
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
