package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

// FollowService manages subscriptions between users.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

// NewFollowService creates a FollowService. users resolves the author
// named in follow URLs; follows stores the subscriptions.
func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, logger *slog.Logger) *FollowService {
	return &FollowService{users: users, follows: follows, logger: logger}
}

// IsFollow reports whether userID follows authorID. An empty userID is an
// anonymous viewer: the answer is false and the store is not asked.
func (s *FollowService) IsFollow(ctx context.Context, userID, authorID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	ok, err := s.follows.Exists(ctx, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}
	return ok, nil
}

// Follow subscribes userID to the author with username and returns the
// author. Following yourself, or someone you already follow, changes
// nothing.
func (s *FollowService) Follow(ctx context.Context, userID, username string) (*model.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		s.logger.Debug("self-follow ignored", slog.String("user", userID))
		return author, nil
	}

	exists, err := s.follows.Exists(ctx, userID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("checking follow: %w", err)
	}
	if exists {
		return author, nil
	}

	err = s.follows.Create(ctx, &model.Follow{UserID: userID, AuthorID: author.ID})
	switch {
	case err == nil:
		s.logger.Info("follow created",
			slog.String("user", userID),
			slog.String("author", author.ID),
		)
	case errors.Is(err, apperror.ErrConflict):
		// a concurrent request inserted the same pair
	default:
		return nil, fmt.Errorf("creating follow: %w", err)
	}
	return author, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, userID, username string) (*model.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.Delete(ctx, userID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("deleting follow: %w", err)
	}
	if removed {
		s.logger.Info("follow removed",
			slog.String("user", userID),
			slog.String("author", author.ID),
		)
	}
	return author, nil
}

// Following is how many authors userID follows.
func (s *FollowService) Following(ctx context.Context, userID string) (int, error) {
	return s.follows.CountFollowing(ctx, userID)
}

// Followers is how many users follow userID.
func (s *FollowService) Followers(ctx context.Context, userID string) (int, error) {
	return s.follows.CountFollowers(ctx, userID)
}
