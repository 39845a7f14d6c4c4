package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.PostRepository = (*PostDB)(nil)

// PostDB stores posts. Reads join the author and group so handlers can
// render a post without further queries.
type PostDB struct {
	conn *sql.DB
}

const postSelect = `
	SELECT p.id, p.text, p.created_at, p.author_id, p.group_id, p.image,
	       u.username, u.first_name, u.last_name,
	       g.title, g.slug
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

// Newest first. rowid breaks ties between posts created in the same instant.
const postOrder = ` ORDER BY p.created_at DESC, p.rowid DESC`

func scanPost(row interface{ Scan(...any) error }, p *model.Post) error {
	var (
		groupID               sql.NullString
		firstName, lastName   string
		groupTitle, groupSlug sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Text, &p.CreatedAt, &p.AuthorID, &groupID, &p.Image,
		&p.Author.Username, &firstName, &lastName,
		&groupTitle, &groupSlug,
	); err != nil {
		return err
	}

	author := model.User{ID: p.AuthorID, Username: p.Author.Username, FirstName: firstName, LastName: lastName}
	p.Author = author.Ref()

	p.GroupID = nil
	p.Group = nil
	if groupID.Valid {
		id := groupID.String
		p.GroupID = &id
		p.Group = &model.GroupRef{ID: id, Title: groupTitle.String, Slug: groupSlug.String}
	}
	return nil
}

// where builds the WHERE clause for a filter. Values always travel as
// parameters.
func where(f repository.PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AuthorID != "" {
		conds = append(conds, "p.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.GroupID != "" {
		conds = append(conds, "p.group_id = ?")
		args = append(args, f.GroupID)
	}
	if f.FollowerID != "" {
		conds = append(conds, "p.author_id IN (SELECT author_id FROM follows WHERE user_id = ?)")
		args = append(args, f.FollowerID)
	}
	if f.Search != "" {
		conds = append(conds, `p.text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "p.created_at >= ?")
		args = append(args, timeBound(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "p.created_at < ?")
		args = append(args, timeBound(f.Until))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// timeBound formats t like the stored created_at values (UTC, the
// driver's "sqlite" layout) so the bound compares correctly as text.
func timeBound(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999999-07:00")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts a post. ID and CreatedAt are always assigned here.
// An unknown author or group surfaces as a validation error.
func (d *PostDB) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now().UTC()

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO posts (id, text, created_at, author_id, group_id, image)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.Text, post.CreatedAt, post.AuthorID, nullString(post.GroupID), post.Image,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("group", "referenced author or group does not exist")
		}
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

func (d *PostDB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	row := d.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id)
	if err := scanPost(row, &post); err != nil {
		return nil, notFoundOnNoRows(err, "post", id)
	}
	return &post, nil
}

// List returns one window of matching posts, newest first.
func (d *PostDB) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := max(opts.Offset, 0)

	cond, args := where(filter)
	args = append(args, limit, offset)

	rows, err := d.conn.QueryContext(ctx, postSelect+cond+postOrder+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		var p model.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// Count returns how many posts match the filter.
func (d *PostDB) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	cond, args := where(filter)
	var n int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// Update saves text, group and image. Author and creation time never change.
func (d *PostDB) Update(ctx context.Context, post *model.Post) error {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?`,
		post.Text, nullString(post.GroupID), post.Image, post.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("group", "referenced group does not exist")
		}
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}
	return checkAffected(res, "post", post.ID)
}

// Delete removes the post and its comments.
func (d *PostDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return checkAffected(res, "post", id)
}
