package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/form"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/service"
)

// PostHandler serves the post listings, post pages and the post and
// comment forms.
//
// SILENT REDIRECTS:
// Some requests end in a redirect without any error message, the way the
// HTML views behaved: a non-author who opens edit or delete lands back on
// the post, and an empty comment just returns to the post. Only a missing
// post is an error (404). Invalid post forms are not errors either: they
// come back with status 200 and field errors, ready to be shown again.
type PostHandler struct {
	posts     *service.PostService
	groups    *service.GroupService
	accounts  *service.AccountService
	maxUpload int64
	logger    *slog.Logger
}

// NewPostHandler creates a PostHandler. groups fills the group choices on
// the post form; accounts resolves the author's username for the redirect
// after a post is created. maxUpload is the image size limit in bytes.
func NewPostHandler(
	posts *service.PostService,
	groups *service.GroupService,
	accounts *service.AccountService,
	maxUpload int64,
	logger *slog.Logger,
) *PostHandler {
	return &PostHandler{
		posts:     posts,
		groups:    groups,
		accounts:  accounts,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

type pagePayload struct {
	Page service.PostPage `json:"page"`
}

type postFormPayload struct {
	Form   *form.PostForm `json:"form"`
	Groups []model.Group  `json:"groups"`
	IsEdit bool           `json:"isEdit"`
	PostID string         `json:"postId,omitempty"`
}

type detailPayload struct {
	*service.PostDetail
	Form *form.CommentForm `json:"form"`
}

// Index is the landing page: every post, newest first.
//
// HTTP: GET /?page=N
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Index(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pagePayload{Page: page})
}

// GroupPosts lists the posts filed under a group.
//
// HTTP: GET /group/{slug}/?page=N
func (h *PostHandler) GroupPosts(w http.ResponseWriter, r *http.Request) {
	gp, err := h.posts.GroupPosts(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, gp)
}

// Profile lists an author's posts with the viewer's follow state.
//
// HTTP: GET /profile/{username}/?page=N
func (h *PostHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Profile(r.Context(), currentUserID(r), chi.URLParam(r, "username"), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Feed lists posts by the authors the current user follows.
//
// HTTP: GET /follow/?page=N (login required)
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Feed(r.Context(), currentUserID(r), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pagePayload{Page: page})
}

// Detail shows a post, its comments and an empty comment form.
//
// HTTP: GET /posts/{id}/
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.posts.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detailPayload{PostDetail: detail, Form: &form.CommentForm{Errors: form.Errors{}}})
}

// Create shows the new post form (GET) or saves a post (POST). Invalid
// submissions get the form back with field errors and status 200; a saved
// post redirects to the author's profile.
//
// HTTP: GET, POST /create/ (login required)
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.renderPostForm(w, r, form.NewPostForm(nil), "")
		return
	}

	userID := currentUserID(r)
	f, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if !f.Errors.Valid() {
		h.renderPostForm(w, r, f, "")
		return
	}

	_, err := h.posts.Create(r.Context(), userID, postInput(f))
	if err != nil {
		if addFieldError(f.Errors, err) {
			h.renderPostForm(w, r, f, "")
			return
		}
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, profileURL(user.Username))
}

// Edit shows the pre-filled form (GET) or saves changes (POST). Anyone but
// the author is sent back to the post without an error.
//
// HTTP: GET, POST /posts/{id}/edit/ (login required, author only)
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := currentUserID(r)

	post, err := h.posts.Authorize(r.Context(), userID, id)
	if errors.Is(err, apperror.ErrForbidden) {
		redirect(w, r, postURL(id))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if r.Method != http.MethodPost {
		h.renderPostForm(w, r, form.NewPostForm(post), id)
		return
	}

	f, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if !f.Errors.Valid() {
		h.renderPostForm(w, r, f, id)
		return
	}

	_, err = h.posts.Update(r.Context(), userID, id, postInput(f))
	switch {
	case err == nil:
		redirect(w, r, postURL(id))
	case errors.Is(err, apperror.ErrForbidden):
		redirect(w, r, postURL(id))
	case addFieldError(f.Errors, err):
		h.renderPostForm(w, r, f, id)
	default:
		writeError(w, h.logger, err)
	}
}

// Delete removes the post and redirects to the author's profile. Anyone
// but the author is sent back to the post.
//
// HTTP: GET, POST /posts/{id}/delete/ (login required, author only)
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.Delete(r.Context(), currentUserID(r), id)
	switch {
	case err == nil:
		redirect(w, r, profileURL(post.Author.Username))
	case errors.Is(err, apperror.ErrForbidden):
		redirect(w, r, postURL(id))
	default:
		writeError(w, h.logger, err)
	}
}

// AddComment saves a comment and always redirects back to the post. An
// empty comment is dropped without telling the user.
//
// HTTP: GET, POST /posts/{id}/comment/ (login required)
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := form.ParseComment(r)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("", "malformed form body"))
		return
	}

	if f.Validate() {
		_, err = h.posts.AddComment(r.Context(), currentUserID(r), id, f.Text)
	} else {
		// still 404 for an unknown post
		_, err = h.posts.Get(r.Context(), id)
	}
	if err != nil && !errors.Is(err, apperror.ErrValidation) {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, postURL(id))
}

// parsePostForm decodes and validates the body. It writes the error
// response itself and returns false when the body is unusable.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (*form.PostForm, bool) {
	f, err := form.ParsePost(r, h.maxUpload)
	if err != nil {
		h.logger.Warn("unreadable post form", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.ValidationFailed("", "malformed form body"))
		return nil, false
	}
	if _, err := f.Validate(r.Context(), h.groups); err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return f, true
}

func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, f *form.PostForm, postID string) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postFormPayload{
		Form:   f,
		Groups: groups,
		IsEdit: postID != "",
		PostID: postID,
	})
}

func postInput(f *form.PostForm) service.PostInput {
	return service.PostInput{
		Text:       f.Text,
		GroupID:    f.GroupID(),
		Image:      f.Image,
		ClearImage: f.ClearImage,
	}
}

// addFieldError copies a field validation error from a service into the
// form's errors. It reports whether err was such an error.
func addFieldError(errs form.Errors, err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
		return false
	}
	field, ok := apperror.FieldOf(err)
	if !ok {
		field = form.NonField
	}
	errs.Add(field, appErr.Message)
	return true
}
