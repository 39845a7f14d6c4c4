package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, first_name, last_name, email, password_hash, github_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	var githubID sql.NullInt64
	if err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &githubID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	return nil
}

// Create inserts a new user, filling in ID and timestamps. A taken
// username is reported as apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, nullInt64(user.GitHubID), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "username", user.Username)
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user has that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	row := u.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err := scanUser(row, &user); err != nil {
		return nil, notFoundOnNoRows(err, "user", id)
	}
	return &user, nil
}

// GetByUsername looks a user up by their unique username.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	row := u.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if err := scanUser(row, &user); err != nil {
		return nil, notFoundOnNoRows(err, "user", username)
	}
	return &user, nil
}

// UpsertGitHub inserts or refreshes a user keyed by GitHub ID.
//
// Existing users keep their internal ID and username; only the email is
// refreshed, since the username is part of profile URLs.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting user %q: missing github id", user.Username)
	}

	var existing model.User
	row := u.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID)
	err := scanUser(row, &existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return u.Create(ctx, user)
	}

	existing.UpdatedAt = time.Now().UTC()
	if user.Email != "" {
		existing.Email = user.Email
	}
	if _, err := u.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
		existing.Email, existing.UpdatedAt, existing.ID,
	); err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}

	*user = existing
	return nil
}

// Delete removes the user and, through ON DELETE CASCADE, their posts,
// comments and follow relations.
func (u *UserDB) Delete(ctx context.Context, id string) error {
	res, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return checkAffected(res, "user", id)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
