package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.FollowRepository = (*FollowDB)(nil)

// FollowDB stores follow relations. UNIQUE(user_id, author_id) and
// CHECK(user_id <> author_id) hold the invariants even under concurrent
// requests.
type FollowDB struct {
	conn *sql.DB
}

// Create inserts the relation. A duplicate pair returns
// apperror.ErrConflict; a self-follow returns apperror.ErrValidation.
func (f *FollowDB) Create(ctx context.Context, follow *model.Follow) error {
	follow.ID = xid.New().String()
	follow.CreatedAt = time.Now().UTC()

	_, err := f.conn.ExecContext(ctx,
		`INSERT INTO follows (id, user_id, author_id, created_at) VALUES (?, ?, ?, ?)`,
		follow.ID, follow.UserID, follow.AuthorID, follow.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return apperror.Conflict("follow", "author", follow.AuthorID)
	case isCheckViolation(err):
		return apperror.ValidationFailed("author", "users cannot follow themselves")
	case isForeignKeyViolation(err):
		return apperror.NotFound("user", follow.AuthorID)
	default:
		return fmt.Errorf("sqlite: creating follow %s -> %s: %w", follow.UserID, follow.AuthorID, err)
	}
}

func (f *FollowDB) Exists(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	err := f.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)`,
		userID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", userID, authorID, err)
	}
	return exists, nil
}

func (f *FollowDB) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	res, err := f.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow %s -> %s: %w", userID, authorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// CountFollowing is how many authors userID follows.
func (f *FollowDB) CountFollowing(ctx context.Context, userID string) (int, error) {
	return f.count(ctx, `SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID)
}

// CountFollowers is how many users follow authorID.
func (f *FollowDB) CountFollowers(ctx context.Context, authorID string) (int, error) {
	return f.count(ctx, `SELECT COUNT(*) FROM follows WHERE author_id = ?`, authorID)
}

func (f *FollowDB) count(ctx context.Context, query, id string) (int, error) {
	var n int
	if err := f.conn.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting follows for %s: %w", id, err)
	}
	return n, nil
}
