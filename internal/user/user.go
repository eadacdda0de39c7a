package user

import (
	"context"
	"errors"
	"time"
)

// User represents a user who logged in to the portal at least once.
// The ID is the subject claim issued by the OIDC provider.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	FirstLogin  time.Time `json:"first_login"`
	LastLogin   time.Time `json:"last_login"`
}

// Login describes a successful login as reported by the OIDC provider
type Login struct {
	ID          string
	DisplayName string
	Email       string
	At          time.Time
}

// ErrLoginConflict is returned by RecordLogin if the user vanished and reappeared while the login was recorded
var ErrLoginConflict = errors.New("the user changed concurrently while recording the login")

// RecordLogin creates the user of a login if it does not exist yet and refreshes their profile and last login time
// otherwise.
// A user deleted while the login is recorded is created again; a user created by a concurrent login is updated.
func RecordLogin(ctx context.Context, repo Repository, login *Login) (*User, error) {
	existing, err := repo.GetByID(ctx, login.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updated, err := repo.Update(ctx, existing.ID, login.update())
		if err != nil || updated != nil {
			return updated, err
		}
	}

	created, err := repo.Create(ctx, &Create{
		ID:          login.ID,
		DisplayName: login.DisplayName,
		Email:       login.Email,
		LoginAt:     login.At,
	})
	if !errors.Is(err, ErrAlreadyExists) {
		return created, err
	}

	updated, err := repo.Update(ctx, login.ID, login.update())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrLoginConflict
	}
	return updated, nil
}

func (login *Login) update() *Update {
	return &Update{
		DisplayName: &login.DisplayName,
		Email:       &login.Email,
		LastLogin:   &login.At,
	}
}
