package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
)

func TestGroupCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	created := createTestGroup(t, db, "cats")

	bySlug, err := db.Groups().GetBySlug(context.Background(), "cats")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if bySlug.ID != created.ID || bySlug.Title != "Group cats" {
		t.Errorf("GetBySlug() = %+v", bySlug)
	}

	byID, err := db.Groups().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Slug != "cats" {
		t.Errorf("GetByID().Slug = %q", byID.Slug)
	}
}

func TestGroupCreate_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	createTestGroup(t, db, "cats")

	err := db.Groups().Create(context.Background(), &model.Group{Title: "again", Slug: "cats"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestGroupGetBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Groups().GetBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetBySlug() error = %v, want ErrNotFound", err)
	}
}

func TestGroupList_CreationOrder(t *testing.T) {
	db := newTestDB(t)
	createTestGroup(t, db, "b")
	createTestGroup(t, db, "a")

	groups, err := db.Groups().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(groups) != 2 || groups[0].Slug != "b" || groups[1].Slug != "a" {
		t.Errorf("List() = %+v, want [b a]", groups)
	}
}

func TestGroupUpdate_KeepsSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	group := createTestGroup(t, db, "cats")

	group.Title = "Cats and kittens"
	group.Slug = "ignored"
	if err := db.Groups().Update(ctx, group); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Groups().GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "Cats and kittens" || found.Slug != "cats" {
		t.Errorf("after Update() = %+v", found)
	}
}

func TestGroupDelete_SetsPostGroupToNull(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, db, "author")
	group := createTestGroup(t, db, "cats")
	post := createTestPost(t, db, author, group, "survivor")

	if err := db.Groups().Delete(ctx, group.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	found, err := db.Posts().GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("post should survive group delete: %v", err)
	}
	if found.GroupID != nil {
		t.Errorf("GroupID = %v, want nil", *found.GroupID)
	}
}
