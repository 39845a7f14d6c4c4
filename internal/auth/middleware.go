package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
)

// CookieName is the cookie that carries the session token.
const CookieName = "session"

type contextKey string

const userIDKey contextKey = "userID"

// UserLookup resolves the user a session token names.
// service.AccountService and the sqlite user store both satisfy it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// OptionalAuth puts the user ID in the request context when the session
// cookie holds a valid token for a user that still exists. Missing or bad
// tokens leave the request anonymous; it never rejects a request.
//
// A token whose user was deleted also leaves the request anonymous, and the
// cookie is cleared. A failed lookup (store down) is anonymous for this
// request only.
func OptionalAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			_, err = users.GetUserByID(r.Context(), userID)
			switch {
			case err == nil:
				r = r.WithContext(WithUserID(r.Context(), userID))
			case errors.Is(err, apperror.ErrNotFound):
				ClearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth lets authenticated requests through and redirects the rest
// to loginURL with the requested path in ?next=. It reads the identity
// OptionalAuth stored, so mount it below OptionalAuth.
func RequireAuth(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				http.Redirect(w, r, LoginRedirectURL(loginURL, r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirectURL builds "<loginURL>?next=<target>". Slashes in target
// stay readable, so /create/ becomes ?next=/create/.
func LoginRedirectURL(loginURL, target string) string {
	q := url.Values{"next": {target}}.Encode()
	return loginURL + "?" + strings.ReplaceAll(q, "%2F", "/")
}

// SafeNext returns next if it is a local absolute path, or fallback.
// Protocol-relative ("//host") and absolute URLs are refused so a crafted
// login link cannot bounce the user to another site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores token in the session cookie for tokens.TTL().
func SetSessionCookie(w http.ResponseWriter, tokens *TokenService, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie. The
// token itself stays valid until it expires.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
