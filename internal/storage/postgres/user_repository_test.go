package postgres

import (
	"errors"
	"fmt"
	"github.com/jackc/pgconn"
	"github.com/one-edge/portal/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestBuildUserUpdate(t *testing.T) {
	name := "Jane"
	email := "jane@example.com"
	login := time.Date(2026, 10, 16, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	tests := []struct {
		name     string
		update   *user.Update
		expected string
		values   []interface{}
	}{
		{
			name:   "nothing to update",
			update: &user.Update{},
		},
		{
			name:     "display name only",
			update:   &user.Update{DisplayName: &name},
			expected: "UPDATE users SET display_name = $1 WHERE user_id = $2",
			values:   []interface{}{"Jane", "user-1"},
		},
		{
			name:     "all fields",
			update:   &user.Update{DisplayName: &name, Email: &email, LastLogin: &login},
			expected: "UPDATE users SET display_name = $1, email = $2, last_login = $3 WHERE user_id = $4",
			values:   []interface{}{"Jane", "jane@example.com", login.UTC(), "user-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, values, err := buildUserUpdate("user-1", tt.update)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Contains(t, names, "1_create_users.up.sql")
	assert.Contains(t, names, "1_create_users.down.sql")
}

func TestTranslateCreateError(t *testing.T) {
	duplicate := &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}
	assert.ErrorIs(t, translateCreateError(duplicate), user.ErrAlreadyExists)
	assert.ErrorIs(t, translateCreateError(fmt.Errorf("insert: %w", duplicate)), user.ErrAlreadyExists)

	other := &pgconn.PgError{Code: "23502"}
	assert.Same(t, other, translateCreateError(other))

	plain := errors.New("connection reset")
	assert.Same(t, plain, translateCreateError(plain))
}
