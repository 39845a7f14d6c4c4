// Package form decodes and validates the HTML-style forms the site accepts:
// posts, comments, signup and login.
//
// Each form keeps the submitted values and a field → messages map so a
// handler can send both back when validation fails. Field rules are struct
// tags checked with go-playground/validator; rules that need the store
// (does this group exist?) run through small interfaces.
package form

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Messages shown for failed rules.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidName   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgPasswordMatch = "The two password fields didn't match."
	MsgFileTooLarge  = "The uploaded file is too large."
)

// Errors maps a field name to its messages. The "__all__" key holds
// errors that belong to the form as a whole.
type Errors map[string][]string

// NonField is the key for form-wide errors.
const NonField = "__all__"

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Valid reports whether no errors were recorded.
func (e Errors) Valid() bool {
	return len(e) == 0
}

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance builds the shared validator. Field names in errors
// come from the `form` tag so they match the submitted keys.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// check runs the struct tags of s and records failures in errs.
func check(s any, errs Errors) {
	err := validatorInstance().Struct(s)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "email":
		return MsgInvalidEmail
	case "username":
		return MsgInvalidName
	case "eqfield":
		return MsgPasswordMatch
	default:
		return "Enter a valid value."
	}
}
