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

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB stores comments.
type CommentDB struct {
	conn *sql.DB
}

func (c *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now().UTC()

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("post", comment.PostID)
		}
		return fmt.Errorf("sqlite: creating comment on post %s: %w", comment.PostID, err)
	}
	return nil
}

// ListByPost returns the post's comments oldest first.
func (c *CommentDB) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := c.conn.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.author_id, c.text, c.created_at,
		        u.username, u.first_name, u.last_name
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at, c.rowid`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %s: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var (
			cm     model.Comment
			author model.User
		)
		if err := rows.Scan(
			&cm.ID, &cm.PostID, &cm.AuthorID, &cm.Text, &cm.CreatedAt,
			&author.Username, &author.FirstName, &author.LastName,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		author.ID = cm.AuthorID
		cm.Author = author.Ref()
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}
