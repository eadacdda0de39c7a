package session

import (
	"context"
	"time"
)

// Create is used to create a new session
type Create struct {
	UserID      string
	SessionID   string
	AccessToken string
	Expires     int64
}

// Storage defines the session storage API
type Storage interface {
	// GetByRawToken retrieves a session by its raw (prior hashing) token
	GetByRawToken(ctx context.Context, rawToken string) (*Session, error)

	// Create creates a new session and returns its raw token
	Create(ctx context.Context, create *Create) (string, error)

	// TerminateByRawToken terminates the session with the given raw (prior hashing) token
	TerminateByRawToken(ctx context.Context, rawToken string) error

	// TerminateBySessionID terminates a session by its session ID
	TerminateBySessionID(ctx context.Context, sessionID string) error

	// TerminateByUserID terminates all sessions of a specific user ID
	TerminateByUserID(ctx context.Context, userID string) error

	// TerminateExpired terminates all sessions that are expired
	TerminateExpired(ctx context.Context) (int, error)
}

// Resolve returns the live session belonging to the given raw token.
// A missing token, an unknown token and an expired session all resolve to a nil session without an error; only
// storage failures are reported.
func Resolve(ctx context.Context, storage Storage, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, nil
	}
	ses, err := storage.GetByRawToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if ses == nil || ses.IsExpired(time.Now()) {
		return nil, nil
	}
	return ses, nil
}
