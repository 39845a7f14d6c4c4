package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/yatube/internal/service"
)

// FollowHandler subscribes and unsubscribes the current user. Both routes
// always end on the author's profile; repeating them changes nothing.
type FollowHandler struct {
	follows *service.FollowService
	logger  *slog.Logger
}

// NewFollowHandler creates a FollowHandler.
func NewFollowHandler(follows *service.FollowService, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, logger: logger}
}

// Follow handles GET, POST /profile/{username}/follow/ (login required).
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	author, err := h.follows.Follow(r.Context(), currentUserID(r), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, profileURL(author.Username))
}

// Unfollow handles GET, POST /profile/{username}/unfollow/ (login required).
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	author, err := h.follows.Unfollow(r.Context(), currentUserID(r), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, profileURL(author.Username))
}
