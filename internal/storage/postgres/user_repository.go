package postgres

import (
	"context"
	"errors"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/one-edge/portal/internal/user"
)

const codeUniqueViolation = "23505"

// UserRepository implements the user.Repository interface using PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

var _ user.Repository = (*UserRepository)(nil)

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	row := repo.db.QueryRow(ctx, "SELECT user_id, display_name, email, first_login, last_login FROM users WHERE user_id = $1", id)
	obj, err := repo.rowToUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// Create creates a new user
func (repo *UserRepository) Create(ctx context.Context, create *user.Create) (*user.User, error) {
	loginAt := create.LoginAt.UTC()
	_, err := repo.db.Exec(
		ctx,
		"INSERT INTO users (user_id, display_name, email, first_login, last_login) VALUES ($1, $2, $3, $4, $5)",
		create.ID,
		create.DisplayName,
		create.Email,
		loginAt,
		loginAt,
	)
	if err != nil {
		return nil, translateCreateError(err)
	}

	return &user.User{
		ID:          create.ID,
		DisplayName: create.DisplayName,
		Email:       create.Email,
		FirstLogin:  loginAt,
		LastLogin:   loginAt,
	}, nil
}

// translateCreateError maps unique violations of the user ID to user.ErrAlreadyExists
func translateCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return user.ErrAlreadyExists
	}
	return err
}

// Update updates an existing user
func (repo *UserRepository) Update(ctx context.Context, id string, update *user.Update) (*user.User, error) {
	sql, values, err := buildUserUpdate(id, update)
	if err != nil {
		return nil, err
	}
	if sql != "" {
		if _, err := repo.db.Exec(ctx, sql, values...); err != nil {
			return nil, err
		}
	}

	// Re-fetch the user
	return repo.GetByID(ctx, id)
}

// buildUserUpdate builds the UPDATE statement for the set fields of update.
// It returns an empty statement if there is nothing to update.
func buildUserUpdate(id string, update *user.Update) (string, []interface{}, error) {
	if update.DisplayName == nil && update.Email == nil && update.LastLogin == nil {
		return "", nil, nil
	}

	query := squirrel.Update("users").Where(squirrel.Eq{"user_id": id})
	if update.DisplayName != nil {
		query = query.Set("display_name", *update.DisplayName)
	}
	if update.Email != nil {
		query = query.Set("email", *update.Email)
	}
	if update.LastLogin != nil {
		query = query.Set("last_login", update.LastLogin.UTC())
	}
	return query.PlaceholderFormat(squirrel.Dollar).ToSql()
}

// Delete deletes a user by their ID
func (repo *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := repo.db.Exec(ctx, "DELETE FROM users WHERE user_id = $1", id)
	return err
}

func (repo *UserRepository) rowToUser(row pgx.Row) (*user.User, error) {
	obj := new(user.User)
	if err := row.Scan(&obj.ID, &obj.DisplayName, &obj.Email, &obj.FirstLogin, &obj.LastLogin); err != nil {
		return nil, err
	}
	return obj, nil
}
