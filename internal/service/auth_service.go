package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/model"
	"github.com/iliyamo/devvibe-backend/internal/observability"
	"github.com/iliyamo/devvibe-backend/internal/repository"
	"github.com/iliyamo/devvibe-backend/internal/utils"
)

// Public messages.
const (
	MsgCredentialsRequired = "Email and password are required"
	MsgUserExists          = "User already exists"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgNotAuthenticated    = "Authentication credentials were not provided"
	MsgInvalidSession      = "Invalid or expired token"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgEmailTooLong        = "Email must be at most 254 characters"
	MsgNameTooLong         = "Name must be at most 150 characters"
	MsgRegistrationFailed  = "Registration failed"
)

// verifyPassword is swapped in tests to observe the comparisons Login makes.
var verifyPassword = utils.VerifyPassword

// RegisterInput is the payload of a registration.  Name is optional.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string        `json:"token"`
	User  model.Summary `json:"user"`
}

// AuthService registers accounts, verifies credentials and issues session
// tokens.
type AuthService struct {
	users   UserStore
	tokens  TokenConfig
	metrics *observability.Metrics
	log     *slog.Logger

	// dummyHash is compared against on unknown emails so that a login costs
	// one bcrypt round whether or not the account exists.
	dummyHash string
}

func NewAuthService(users UserStore, tokens TokenConfig, metrics *observability.Metrics, log *slog.Logger) *AuthService {
	// a fixed short input cannot hit bcrypt's length limit
	dummy, _ := utils.HashPassword("devvibe-login-timing", tokens.BcryptCost)
	return &AuthService{users: users, tokens: tokens, metrics: metrics, log: log, dummyHash: dummy}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" {
		return AuthResult{}, apperr.Validation(MsgCredentialsRequired)
	}
	if utf8.RuneCountInString(email) > model.MaxEmailLen {
		return AuthResult{}, apperr.Validation(MsgEmailTooLong)
	}
	if utf8.RuneCountInString(name) > model.MaxNameLen {
		return AuthResult{}, apperr.Validation(MsgNameTooLong)
	}

	// The pre-check spares a bcrypt round for the common duplicate case; the
	// store's unique constraint still decides races.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.metrics.Auth("register", "conflict")
		return AuthResult{}, apperr.Conflict(MsgUserExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, oops.In("auth").With("operation", "GetByEmail").Wrap(err)
	}

	hash, err := hashPassword("auth", in.Password, s.tokens.BcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	u, err := s.users.Create(ctx, email, hash, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			s.metrics.Auth("register", "conflict")
			return AuthResult{}, apperr.Conflict(MsgUserExists)
		case errors.Is(err, repository.ErrValueTooLong):
			return AuthResult{}, apperr.Validation(MsgRegistrationFailed)
		}
		return AuthResult{}, oops.In("auth").With("operation", "Create").Wrap(err)
	}

	res, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	s.metrics.Auth("register", "success")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "email", u.Email)
	return res, nil
}

// Login verifies credentials and issues a fresh session token.  Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, apperr.Validation(MsgCredentialsRequired)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			verifyPassword(s.dummyHash, in.Password)
			s.metrics.Auth("login", "failure")
			s.log.WarnContext(ctx, "login failed: no such user", "email", email)
			return AuthResult{}, apperr.Auth(MsgInvalidCredentials)
		}
		return AuthResult{}, oops.In("auth").With("operation", "GetByEmail").Wrap(err)
	}
	if !verifyPassword(u.PasswordHash, in.Password) {
		s.metrics.Auth("login", "failure")
		s.log.WarnContext(ctx, "login failed: bad password", "user_id", u.ID)
		return AuthResult{}, apperr.Auth(MsgInvalidCredentials)
	}

	res, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	s.metrics.Auth("login", "success")
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return res, nil
}

// VerifySession validates a session token and returns its account id.
func (s *AuthService) VerifySession(token string) (uint64, error) {
	if token == "" {
		return 0, apperr.Auth(MsgNotAuthenticated)
	}
	id, err := utils.ParseAccessToken(s.tokens.Secret, token)
	if err != nil {
		return 0, apperr.Auth(MsgInvalidSession)
	}
	return id, nil
}

// Me returns the summary of the account the session token belongs to.
func (s *AuthService) Me(ctx context.Context, token string) (model.Summary, error) {
	id, err := s.VerifySession(token)
	if err != nil {
		return model.Summary{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Summary{}, apperr.Auth(MsgInvalidSession)
		}
		return model.Summary{}, oops.In("auth").With("operation", "GetByID").Wrap(err)
	}
	return u.Summary(), nil
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	access, err := utils.NewAccessToken(s.tokens.Secret, u.ID, s.tokens.AccessTTL)
	if err != nil {
		return AuthResult{}, oops.In("auth").With("operation", "NewAccessToken").Wrap(err)
	}
	return AuthResult{Token: access.Token, User: u.Summary()}, nil
}

// hashPassword maps bcrypt's length limit to a validation error.
func hashPassword(scope, plain string, cost int) (string, error) {
	hash, err := utils.HashPassword(plain, cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return "", oops.In(scope).With("operation", "HashPassword").Wrap(err)
	}
	return hash, nil
}
