// Package repository declares the storage contracts the service layer
// depends on. internal/repository/sqlite implements them.
package repository

import (
	"context"
	"time"

	"github.com/sakif/yatube/internal/model"
)

// ListOptions is a LIMIT/OFFSET window.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post listing. Zero value lists every post.
type PostFilter struct {
	AuthorID   string    // posts by this author
	GroupID    string    // posts filed under this group
	FollowerID string    // posts by authors this user follows (the feed)
	Search     string    // case-insensitive substring of the text
	Since      time.Time // created at or after; zero means no lower bound
	Until      time.Time // created before; zero means no upper bound
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpsertGitHub(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
}

type FollowRepository interface {
	// Create returns apperror.ErrConflict when the pair already exists.
	Create(ctx context.Context, follow *model.Follow) error
	Exists(ctx context.Context, userID, authorID string) (bool, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID, authorID string) (bool, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	CountFollowers(ctx context.Context, authorID string) (int, error)
}
