package inmem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"github.com/hashicorp/go-memdb"
	"github.com/one-edge/portal/internal/api/portal/session"
	"github.com/one-edge/portal/internal/random"
	"time"
)

const tableSessions = "sessions"

var tokenLength = 64

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableSessions: {
			Name: tableSessions,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Token"},
				},
				"sessionID": {
					Name:         "sessionID",
					Unique:       true,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "SessionID"},
				},
				"userID": {
					Name:         "userID",
					Unique:       false,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "UserID"},
				},
			},
		},
	},
}

// Driver represents the in-memory session storage driver built using hashicorp/go-memdb
type Driver struct {
	db *memdb.MemDB
}

var _ session.Storage = (*Driver)(nil)

// New creates a new empty in-memory session storage driver
func New() (*Driver, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Driver{db}, nil
}

// GetByRawToken retrieves a session by its raw (prior hashing) token
func (driver *Driver) GetByRawToken(_ context.Context, rawToken string) (*session.Session, error) {
	txn := driver.db.Txn(false)
	obj, err := txn.First(tableSessions, "id", hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	// Hand out copies so callers cannot mutate the indexed objects
	cpy := *obj.(*session.Session)
	return &cpy, nil
}

// Create creates a new session and returns its raw token.
// Creating a session with the ID of an existing one replaces the existing session.
func (driver *Driver) Create(_ context.Context, create *session.Create) (string, error) {
	rawToken := random.String(tokenLength, random.CharsetTokens)

	ses := &session.Session{
		Token:       hashToken(rawToken),
		SessionID:   create.SessionID,
		UserID:      create.UserID,
		AccessToken: create.AccessToken,
		Expires:     create.Expires,
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()
	if ses.SessionID != "" {
		if _, err := txn.DeleteAll(tableSessions, "sessionID", ses.SessionID); err != nil {
			return "", err
		}
	}
	if err := txn.Insert(tableSessions, ses); err != nil {
		return "", err
	}
	txn.Commit()

	return rawToken, nil
}

// TerminateByRawToken terminates the session with the given raw (prior hashing) token
func (driver *Driver) TerminateByRawToken(_ context.Context, rawToken string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableSessions, "id", hashToken(rawToken)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// TerminateBySessionID terminates a session by its session ID
func (driver *Driver) TerminateBySessionID(_ context.Context, sessionID string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableSessions, "sessionID", sessionID); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// TerminateByUserID terminates all sessions of a specific user ID
func (driver *Driver) TerminateByUserID(_ context.Context, userID string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableSessions, "userID", userID); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// TerminateExpired terminates all sessions that are expired
func (driver *Driver) TerminateExpired(_ context.Context) (int, error) {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(tableSessions, "id")
	if err != nil {
		return 0, err
	}

	// Collect first; deleting while iterating would invalidate the iterator
	now := time.Now()
	var expired []*session.Session
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if ses := obj.(*session.Session); ses.IsExpired(now) {
			expired = append(expired, ses)
		}
	}
	for _, ses := range expired {
		if err := txn.Delete(tableSessions, ses); err != nil {
			return 0, err
		}
	}

	txn.Commit()
	return len(expired), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
