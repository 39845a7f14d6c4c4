package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

const MaxGroupTitleLength = 200

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService manages groups. There is no web form for groups; the
// admin CLI is the only writer.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

// NewGroupService creates a GroupService over the group store.
func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, logger: logger}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "group title is required")
	}
	if utf8.RuneCountInString(title) > MaxGroupTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("group title must be %d characters or less", MaxGroupTitleLength))
	}
	return title, nil
}

// Create validates and stores a group. A taken slug is apperror.ErrConflict.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	slug = strings.TrimSpace(slug)
	if !slugRe.MatchString(slug) {
		return nil, apperror.ValidationFailed("slug",
			"slug may contain only letters, numbers, underscores and hyphens")
	}

	group := &model.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}
	s.logger.Info("group created", slog.String("id", group.ID), slog.String("slug", slug))
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) GetByID(ctx context.Context, id string) (*model.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	return s.groups.GetBySlug(ctx, slug)
}

// Update changes title and/or description; nil leaves a field as is.
func (s *GroupService) Update(ctx context.Context, slug string, title, description *string) (*model.Group, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if title != nil {
		if group.Title, err = validateTitle(*title); err != nil {
			return nil, err
		}
	}
	if description != nil {
		group.Description = strings.TrimSpace(*description)
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("updating group: %w", err)
	}
	s.logger.Info("group updated", slog.String("slug", slug))
	return group, nil
}

// Delete removes the group. Its posts remain, without a group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	s.logger.Info("group deleted", slog.String("slug", slug))
	return nil
}
