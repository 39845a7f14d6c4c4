package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/form"
	"github.com/sakif/yatube/internal/service"
)

const stateCookie = "oauth_state"

// MsgUsernameTaken is shown on the signup form for a taken username.
const MsgUsernameTaken = "A user with that username already exists."

// AuthHandler serves signup, login, logout and the GitHub OAuth flow.
// github is nil when no OAuth app is configured.
type AuthHandler struct {
	accounts      *service.AccountService
	tokens        *auth.TokenService
	github        *auth.GitHubProvider
	loginURL      string
	secureCookies bool
	logger        *slog.Logger
}

// AuthHandlerConfig carries the auth settings from config.Config. GitHub
// is nil unless an OAuth app is configured; the GitHub routes are not
// mounted then.
type AuthHandlerConfig struct {
	LoginURL      string
	SecureCookies bool
	GitHub        *auth.GitHubProvider
}

// NewAuthHandler creates an AuthHandler. LoginURL is where signup sends
// new users; SecureCookies marks the session and state cookies Secure.
func NewAuthHandler(
	accounts *service.AccountService,
	tokens *auth.TokenService,
	cfg AuthHandlerConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		tokens:        tokens,
		github:        cfg.GitHub,
		loginURL:      cfg.LoginURL,
		secureCookies: cfg.SecureCookies,
		logger:        logger,
	}
}

type signupPayload struct {
	Form *form.SignupForm `json:"form"`
}

type loginPayload struct {
	Form          *form.LoginForm `json:"form"`
	GitHubEnabled bool            `json:"githubEnabled"`
}

// Signup shows the signup form or creates the account and sends the
// user to the login page.
//
// HTTP: GET, POST /auth/signup/
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusOK, signupPayload{Form: &form.SignupForm{Errors: form.Errors{}}})
		return
	}

	f, err := form.ParseSignup(r)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("", "malformed form body"))
		return
	}
	if !f.Validate() {
		writeJSON(w, http.StatusOK, signupPayload{Form: f})
		return
	}

	_, err = h.accounts.Signup(r.Context(), service.SignupInput{
		Username:  f.Username,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Password:  f.Password1,
	})
	switch {
	case err == nil:
		redirect(w, r, h.loginURL)
	case errors.Is(err, apperror.ErrConflict):
		f.Errors.Add("username", MsgUsernameTaken)
		writeJSON(w, http.StatusOK, signupPayload{Form: f})
	case addFieldError(f.Errors, err):
		writeJSON(w, http.StatusOK, signupPayload{Form: f})
	default:
		writeError(w, h.logger, err)
	}
}

// Login shows the login form or checks the credentials, sets the session
// cookie and redirects to ?next= (local paths only) or the index.
//
// HTTP: GET, POST /auth/login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		f := &form.LoginForm{Next: r.URL.Query().Get("next"), Errors: form.Errors{}}
		writeJSON(w, http.StatusOK, loginPayload{Form: f, GitHubEnabled: h.github != nil})
		return
	}

	f, err := form.ParseLogin(r)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("", "malformed form body"))
		return
	}
	if !f.Validate() {
		writeJSON(w, http.StatusOK, loginPayload{Form: f, GitHubEnabled: h.github != nil})
		return
	}

	res, err := h.accounts.Login(r.Context(), f.Username, f.Password)
	if errors.Is(err, apperror.ErrUnauthorized) {
		f.Errors.Add(form.NonField, service.MsgBadCredentials)
		writeJSON(w, http.StatusOK, loginPayload{Form: f, GitHubEnabled: h.github != nil})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, h.tokens, res.Token, h.secureCookies)
	redirect(w, r, auth.SafeNext(f.Next, "/"))
}

// Logout drops the session cookie.
//
// HTTP: GET, POST /auth/logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GitHubLogin starts the OAuth flow. The random state goes into a
// short-lived cookie and is checked on the callback.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// GitHubCallback finishes the OAuth flow: check state, exchange the code,
// create or refresh the account, set the session cookie.
//
// HTTP: GET /auth/github/callback?code=…&state=…
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, h.loginURL)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.Unauthorized("authentication failed"))
		return
	}

	res, err := h.accounts.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, h.tokens, res.Token, h.secureCookies)
	redirect(w, r, "/")
}
