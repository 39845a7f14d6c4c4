package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
)

func TestCommentCreateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")
	post := createTestPost(t, db, author, nil, "discuss")

	for _, text := range []string{"first", "second"} {
		if err := db.Comments().Create(ctx, &model.Comment{PostID: post.ID, AuthorID: reader.ID, Text: text}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	comments, err := db.Comments().ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListByPost() error = %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("len = %d, want 2", len(comments))
	}
	if comments[0].Text != "first" || comments[1].Text != "second" {
		t.Errorf("comments not oldest first: %q, %q", comments[0].Text, comments[1].Text)
	}
	if comments[0].Author.Username != "reader" {
		t.Errorf("Author.Username = %q", comments[0].Author.Username)
	}
}

func TestCommentCreate_UnknownPost(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")

	err := db.Comments().Create(context.Background(), &model.Comment{PostID: "ghost", AuthorID: author.ID, Text: "hi"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() error = %v, want ErrNotFound", err)
	}
}
