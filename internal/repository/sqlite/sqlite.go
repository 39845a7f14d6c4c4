// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go port of SQLite, so the binary builds
// without cgo. All access goes through database/sql with parameterized
// queries.
//
// Foreign keys carry the data model's lifecycle rules:
//   - deleting a user removes their posts, comments and follow rows
//   - deleting a post removes its comments
//   - deleting a group keeps its posts, with group_id set to NULL
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/sakif/yatube/internal/apperror"
)

// DB owns the connection pool. Each entity gets a small repository type
// (UserDB, PostDB, ...) that shares it; use the accessor methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath is a file path or ":memory:". Pragmas go in the DSN so that every
// pooled connection gets them; a PRAGMA statement would only reach one.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate empty database.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func dsn(path string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if !isMemory(path) {
		// WAL lets readers proceed while a write is in progress.
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() *UserDB       { return &UserDB{conn: db.conn} }
func (db *DB) Groups() *GroupDB     { return &GroupDB{conn: db.conn} }
func (db *DB) Posts() *PostDB       { return &PostDB{conn: db.conn} }
func (db *DB) Comments() *CommentDB { return &CommentDB{conn: db.conn} }
func (db *DB) Follows() *FollowDB   { return &FollowDB{conn: db.conn} }

// migrate creates the schema. Every statement is idempotent, so it runs on
// each start.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				username      TEXT NOT NULL UNIQUE,
				first_name    TEXT NOT NULL DEFAULT '',
				last_name     TEXT NOT NULL DEFAULT '',
				email         TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);`},
		// "groups" is a keyword in newer SQLite versions.
		{"post_groups", `
			CREATE TABLE IF NOT EXISTS post_groups (
				id          TEXT PRIMARY KEY,
				title       TEXT NOT NULL,
				slug        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				created_at  DATETIME NOT NULL
			);`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id         TEXT PRIMARY KEY,
				text       TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				group_id   TEXT REFERENCES post_groups(id) ON DELETE SET NULL,
				image      TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
			CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
			CREATE INDEX IF NOT EXISTS idx_posts_group_id ON posts(group_id);`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				text       TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, author_id),
				CHECK (user_id <> author_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_author_id ON follows(author_id);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func isCheckViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_CHECK
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY
}

// notFoundOnNoRows maps sql.ErrNoRows to an apperror, wrapping anything else.
func notFoundOnNoRows(err error, resource, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, key)
	}
	return fmt.Errorf("sqlite: getting %s %s: %w", resource, key, err)
}

// checkAffected returns NotFound when a write touched no rows.
func checkAffected(res sql.Result, resource, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, key)
	}
	return nil
}
