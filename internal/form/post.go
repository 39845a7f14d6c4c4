package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/media"
	"github.com/sakif/yatube/internal/model"
)

// GroupChecker looks up the group a post is filed under.
type GroupChecker interface {
	GetByID(ctx context.Context, id string) (*model.Group, error)
}

// PostForm is the create/edit post form. Group is a group ID or empty.
// Image is set only when a file was uploaded and sniffed as an image;
// ClearImage asks the edit view to drop the current image.
type PostForm struct {
	Text       string       `form:"text" json:"text" validate:"required"`
	Group      string       `form:"group" json:"group"`
	Image      *media.Image `form:"-" json:"-"`
	ClearImage bool         `form:"image-clear" json:"imageClear,omitempty"`
	Errors     Errors       `form:"-" json:"errors,omitempty"`

	truncated bool
}

// NewPostForm is the form pre-filled from an existing post, or empty.
func NewPostForm(post *model.Post) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = *post.GroupID
		}
	}
	return f
}

// ParsePost reads a urlencoded or multipart body. Upload problems (not an
// image, too large) are recorded as field errors; only unreadable bodies
// return an error. Fields sent before an oversized upload are kept.
func ParsePost(r *http.Request, maxUpload int64) (*PostForm, error) {
	if isMultipart(r) {
		return parseMultipartPost(r, maxUpload)
	}

	f := &PostForm{Errors: Errors{}}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parsing body: %w", err)
	}
	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	f.Group = strings.TrimSpace(r.PostFormValue("group"))
	f.ClearImage = isChecked(r.PostFormValue("image-clear"))
	return f, nil
}

// parseMultipartPost streams the parts instead of using ParseMultipartForm,
// which drops every value once the body goes over the limit.
func parseMultipartPost(r *http.Request, maxUpload int64) (*PostForm, error) {
	f := &PostForm{Errors: Errors{}}
	r.Body = http.MaxBytesReader(nil, r.Body, maxUpload+maxFieldBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("form: parsing multipart body: %w", err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isTooBig(err) {
				f.markTruncated()
				break
			}
			return nil, fmt.Errorf("form: parsing multipart body: %w", err)
		}

		name := part.FormName()
		if name == "image" {
			if part.FileName() == "" {
				continue
			}
			img, err := readImage(part, part.FileName(), maxUpload)
			switch {
			case errors.Is(err, media.ErrNotImage):
				f.Errors.Add("image", MsgInvalidImage)
			case errors.Is(err, errTooLarge):
				f.Errors.Add("image", MsgFileTooLarge)
			case isTooBig(err):
				f.markTruncated()
			case err != nil:
				return nil, err
			default:
				f.Image = img
			}
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		if err != nil {
			if isTooBig(err) {
				f.markTruncated()
				break
			}
			return nil, fmt.Errorf("form: reading field %s: %w", name, err)
		}
		switch name {
		case "text":
			f.Text = strings.TrimSpace(string(value))
		case "group":
			f.Group = strings.TrimSpace(string(value))
		case "image-clear":
			f.ClearImage = isChecked(string(value))
		}
	}
	return f, nil
}

// maxFieldBytes caps each non-file field and is the body allowance on top
// of the upload limit.
const maxFieldBytes = 1 << 20

// markTruncated records that the body was cut off at the size limit. Fields
// after the cut never arrived, so Validate does not report them as missing.
func (f *PostForm) markTruncated() {
	f.truncated = true
	if !f.Errors.Has("image") {
		f.Errors.Add("image", MsgFileTooLarge)
	}
}

func isTooBig(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig)
}

var errTooLarge = errors.New("form: upload too large")

func readImage(file io.Reader, filename string, maxUpload int64) (*media.Image, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("form: reading image: %w", err)
	}
	if int64(len(data)) > maxUpload {
		return nil, errTooLarge
	}
	return media.Detect(filename, data)
}

// Validate applies the field rules and checks that the chosen group
// exists. It returns true when the form can be saved.
func (f *PostForm) Validate(ctx context.Context, groups GroupChecker) (bool, error) {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	check(f, f.Errors)
	if f.truncated && f.Text == "" {
		delete(f.Errors, "text")
	}

	if f.Group != "" && !f.Errors.Has("group") {
		if _, err := groups.GetByID(ctx, f.Group); err != nil {
			if !errors.Is(err, apperror.ErrNotFound) {
				return false, fmt.Errorf("form: checking group: %w", err)
			}
			f.Errors.Add("group", MsgInvalidChoice)
		}
	}
	return f.Errors.Valid(), nil
}

// GroupID is the selected group as the nullable model value.
func (f *PostForm) GroupID() *string {
	if f.Group == "" {
		return nil
	}
	g := f.Group
	return &g
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
