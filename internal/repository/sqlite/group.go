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

var _ repository.GroupRepository = (*GroupDB)(nil)

// GroupDB stores groups.
type GroupDB struct {
	conn *sql.DB
}

const groupColumns = `id, title, slug, description, created_at`

func scanGroup(row interface{ Scan(...any) error }, g *model.Group) error {
	return row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description, &g.CreatedAt)
}

func (g *GroupDB) Create(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()
	group.CreatedAt = time.Now().UTC()

	_, err := g.conn.ExecContext(ctx,
		`INSERT INTO post_groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Title, group.Slug, group.Description, group.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", "slug", group.Slug)
		}
		return fmt.Errorf("sqlite: creating group %q: %w", group.Slug, err)
	}
	return nil
}

func (g *GroupDB) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	row := g.conn.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM post_groups WHERE id = ?`, id)
	if err := scanGroup(row, &group); err != nil {
		return nil, notFoundOnNoRows(err, "group", id)
	}
	return &group, nil
}

func (g *GroupDB) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var group model.Group
	row := g.conn.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM post_groups WHERE slug = ?`, slug)
	if err := scanGroup(row, &group); err != nil {
		return nil, notFoundOnNoRows(err, "group", slug)
	}
	return &group, nil
}

// List returns all groups in creation order.
func (g *GroupDB) List(ctx context.Context) ([]model.Group, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM post_groups ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var group model.Group
		if err := scanGroup(rows, &group); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

// Update changes title and description. The slug is immutable.
func (g *GroupDB) Update(ctx context.Context, group *model.Group) error {
	res, err := g.conn.ExecContext(ctx,
		`UPDATE post_groups SET title = ?, description = ? WHERE id = ?`,
		group.Title, group.Description, group.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating group %s: %w", group.ID, err)
	}
	return checkAffected(res, "group", group.ID)
}

// Delete removes the group; its posts stay with group_id set to NULL.
func (g *GroupDB) Delete(ctx context.Context, id string) error {
	res, err := g.conn.ExecContext(ctx, `DELETE FROM post_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
	}
	return checkAffected(res, "group", id)
}
