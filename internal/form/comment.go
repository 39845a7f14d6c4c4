package form

import (
	"fmt"
	"net/http"
	"strings"
)

// CommentForm is the single-field comment form shown under a post.
type CommentForm struct {
	Text   string `form:"text" json:"text" validate:"required"`
	Errors Errors `form:"-" json:"errors,omitempty"`
}

func ParseComment(r *http.Request) (*CommentForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parsing body: %w", err)
	}
	return &CommentForm{
		Text:   strings.TrimSpace(r.PostFormValue("text")),
		Errors: Errors{},
	}, nil
}

func (f *CommentForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	check(f, f.Errors)
	return f.Errors.Valid()
}
