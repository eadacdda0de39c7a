package user

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyExists is returned by repositories that detect the creation of a duplicate user
var ErrAlreadyExists = errors.New("user already exists")

// Repository defines the user repository API
type Repository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*User, error)

	// Create creates a new user
	Create(ctx context.Context, create *Create) (*User, error)

	// Update updates an existing user
	Update(ctx context.Context, id string, update *Update) (*User, error)

	// Delete deletes a user by their ID
	Delete(ctx context.Context, id string) error
}

// Create is used to create a new user.
// LoginAt is used as both the first and the last login time.
type Create struct {
	ID          string
	DisplayName string
	Email       string
	LoginAt     time.Time
}

// Update is used to update an existing user
type Update struct {
	DisplayName *string
	Email       *string
	LastLogin   *time.Time
}
