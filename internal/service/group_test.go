package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/yatube/internal/apperror"
)

func TestGroupService_Create(t *testing.T) {
	svc := NewGroupService(&fakeGroups{}, discardLogger())
	ctx := context.Background()

	g, err := svc.Create(ctx, "  Cats  ", "cats_1", "all about cats")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if g.Title != "Cats" || g.ID == "" {
		t.Errorf("Create() = %+v", g)
	}

	tests := []struct {
		name, title, slug string
		want              error
	}{
		{"empty title", "", "x", apperror.ErrValidation},
		{"long title", strings.Repeat("t", MaxGroupTitleLength+1), "x", apperror.ErrValidation},
		{"bad slug", "T", "has space", apperror.ErrValidation},
		{"empty slug", "T", "", apperror.ErrValidation},
		{"taken slug", "T", "cats_1", apperror.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.title, tt.slug, ""); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGroupService_UpdateKeepsSlug(t *testing.T) {
	svc := NewGroupService(&fakeGroups{}, discardLogger())
	ctx := context.Background()
	svc.Create(ctx, "Cats", "cats", "old")

	title := "Felines"
	g, err := svc.Update(ctx, "cats", &title, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if g.Title != "Felines" || g.Slug != "cats" || g.Description != "old" {
		t.Errorf("Update() = %+v", g)
	}

	if _, err := svc.Update(ctx, "dogs", &title, nil); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGroupService_Delete(t *testing.T) {
	svc := NewGroupService(&fakeGroups{}, discardLogger())
	ctx := context.Background()
	svc.Create(ctx, "Cats", "cats", "")

	if err := svc.Delete(ctx, "cats"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	groups, _ := svc.List(ctx)
	if len(groups) != 0 {
		t.Errorf("List() after delete = %d groups", len(groups))
	}
	if err := svc.Delete(ctx, "cats"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}
