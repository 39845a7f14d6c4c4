package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("post", "cv37rs3pp9olc6atsptg"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("text", "This field is required."),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("group", "slug", "cats"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("only the author may edit this post"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid username or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading profile: %w", NotFound("user", "leo")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrForbidden",
			err:       NotFound("post", "abc"),
			target:    ErrForbidden,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound names the resource and key",
			err:         NotFound("group", "cats"),
			wantMessage: "group not found: cats",
		},
		{
			name:        "ValidationFailed keeps the message",
			err:         ValidationFailed("text", "This field is required."),
			wantMessage: "This field is required.",
		},
		{
			name:        "Conflict quotes the value",
			err:         Conflict("user", "username", "leo"),
			wantMessage: `user with username "leo" already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestFieldOf(t *testing.T) {
	field, ok := FieldOf(fmt.Errorf("creating post: %w", ValidationFailed("group", "Select a valid choice.")))
	if !ok || field != "group" {
		t.Errorf("FieldOf() = (%q, %v), want (%q, true)", field, ok, "group")
	}

	if _, ok := FieldOf(errors.New("plain")); ok {
		t.Error("FieldOf() should report false for errors without a field")
	}
	if _, ok := FieldOf(NotFound("post", "x")); ok {
		t.Error("FieldOf() should report false when Field is empty")
	}
}
