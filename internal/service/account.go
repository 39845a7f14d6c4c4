package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

const (
	MaxUsernameLength = 150
	MaxNameLength     = 150
	MinPasswordLength = 8
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// MsgBadCredentials is the login failure message. It does not say whether
// the username exists.
const MsgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// SignupInput is a new password account.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthResult is a signed-in user and the session token to put in the
// cookie.
type AuthResult struct {
	User  *model.User
	Token string
}

// AccountService handles signup, password and GitHub login, and account
// removal.
//
//	AuthHandler → AccountService → UserRepository
//	                             ↘ TokenService, PasswordService
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService. tokens signs the session
// issued on login; passwords hashes and checks password accounts.
func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup creates a password account. A taken username comes back as
// apperror.ErrConflict on the "username" field.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		return nil, apperror.ValidationFailed("username", "This field is required.")
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	case !usernameRe.MatchString(username):
		return nil, apperror.ValidationFailed("username",
			"username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	if utf8.RuneCountInString(in.FirstName) > MaxNameLength || utf8.RuneCountInString(in.LastName) > MaxNameLength {
		return nil, apperror.ValidationFailed("first_name",
			fmt.Sprintf("names must be %d characters or less", MaxNameLength))
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password1",
			fmt.Sprintf("password must be between %d and %d bytes", MinPasswordLength, auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: %w", err)
	}

	user := &model.User{
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: creating user %q: %w", username, err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID), slog.String("username", username))
	return user, nil
}

// Login checks a username and password and issues a session token.
// Unknown users, wrong passwords and GitHub-only accounts all fail the
// same way.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgBadCredentials)
		}
		return nil, fmt.Errorf("service/account: looking up %q: %w", username, err)
	}
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized(MsgBadCredentials)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login failed", slog.String("username", user.Username))
			return nil, apperror.Unauthorized(MsgBadCredentials)
		}
		return nil, fmt.Errorf("service/account: %w", err)
	}

	return s.issue(user, "password")
}

// LoginOrRegisterGitHub creates the account on first GitHub login and
// refreshes it afterwards. If the GitHub login is already taken by a
// password account, the new user gets "<login>-gh<id>" instead.
func (s *AccountService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/account: GitHub user must not be nil")
	}

	id := ghUser.ID
	first, last, _ := strings.Cut(strings.TrimSpace(ghUser.Name), " ")
	user := &model.User{
		Username:  ghUser.Login,
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Email:     ghUser.Email,
		GitHubID:  &id,
	}

	err := s.users.UpsertGitHub(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user.Username = ghUser.Login + "-gh" + strconv.FormatInt(id, 10)
		err = s.users.UpsertGitHub(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/account: upserting user (githubID=%d): %w", id, err)
	}

	return s.issue(user, "github")
}

func (s *AccountService) issue(user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for user %s: %w", user.ID, err)
	}
	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("method", method),
	)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AccountService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("login required")
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *AccountService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// DeleteUser removes the account with all of its posts, comments and
// follow relations.
func (s *AccountService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("service/account: deleting user %q: %w", username, err)
	}
	s.logger.Info("user deleted", slog.String("userID", user.ID), slog.String("username", username))
	return nil
}
