package form

import (
	"fmt"
	"net/http"
	"strings"
)

// SignupForm creates a password account. Email is optional.
type SignupForm struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Email     string `form:"email" json:"email" validate:"omitempty,max=254,email"`
	Password1 string `form:"password1" json:"-" validate:"required,min=8,max=72"`
	Password2 string `form:"password2" json:"-" validate:"required,eqfield=Password1"`
	Errors    Errors `form:"-" json:"errors,omitempty"`
}

func ParseSignup(r *http.Request) (*SignupForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parsing body: %w", err)
	}
	return &SignupForm{
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
		Errors:    Errors{},
	}, nil
}

func (f *SignupForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	check(f, f.Errors)
	// max counts runes; bcrypt's limit is in bytes.
	if len(f.Password1) > 72 && !f.Errors.Has("password1") {
		f.Errors.Add("password1", "Ensure this value has at most 72 bytes.")
	}
	return f.Errors.Valid()
}

// LoginForm is the username/password form. Next is where to go after a
// successful login; it is echoed back when the form is re-shown.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"-" validate:"required"`
	Next     string `form:"next" json:"next,omitempty"`
	Errors   Errors `form:"-" json:"errors,omitempty"`
}

func ParseLogin(r *http.Request) (*LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parsing body: %w", err)
	}
	next := r.PostFormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     next,
		Errors:   Errors{},
	}, nil
}

func (f *LoginForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	check(f, f.Errors)
	return f.Errors.Valid()
}
