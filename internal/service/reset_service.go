package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/mail"
	"github.com/iliyamo/devvibe-backend/internal/observability"
	"github.com/iliyamo/devvibe-backend/internal/repository"
	"github.com/iliyamo/devvibe-backend/internal/utils"
)

// Public messages.
const (
	MsgEmailRequired     = "Email is required"
	MsgResetLinkSent     = "If the email exists, a reset link has been sent"
	MsgSendFailed        = "Failed to send email. Please try again later."
	MsgMissingFields     = "Missing required fields"
	MsgInvalidResetLink  = "Invalid reset link"
	MsgExpiredResetLink  = "Invalid or expired reset link"
	MsgPasswordResetDone = "Password reset successfully"
	resetPath            = "/#/reset-password?"
)

// ResetInput is the payload of a password reset.
type ResetInput struct {
	UID      string
	Token    string
	Password string
}

// PasswordResetService issues reset links by email and applies resets.
// Reset tokens are stateless: they are bound to the password hash current at
// issuance, so a successful reset consumes every outstanding token.
type PasswordResetService struct {
	users       UserStore
	mailer      mail.Mailer
	tokens      TokenConfig
	frontendURL string
	from        string
	metrics     *observability.Metrics
	log         *slog.Logger
}

func NewPasswordResetService(users UserStore, mailer mail.Mailer, tokens TokenConfig, frontendURL, from string, metrics *observability.Metrics, log *slog.Logger) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		mailer:      mailer,
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		from:        from,
		metrics:     metrics,
		log:         log,
	}
}

// ForgotPassword mails a reset link when the email belongs to an account.
// Unknown and known emails get the same answer.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Validation(MsgEmailRequired)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.ResetEmail("unknown_email")
			s.log.InfoContext(ctx, "password reset requested for unknown email")
			return MsgResetLinkSent, nil
		}
		return "", oops.In("password_reset").With("operation", "GetByEmail").Wrap(err)
	}

	token, err := utils.NewResetToken(s.tokens.Secret, u.ID, u.PasswordHash, s.tokens.ResetTTL)
	if err != nil {
		return "", oops.In("password_reset").With("operation", "NewResetToken").Wrap(err)
	}

	link := s.ResetLink(EncodeUID(u.ID), token)
	if err := s.mailer.Send(ctx, mail.ResetEmail(s.from, u.Email, link)); err != nil {
		s.metrics.ResetEmail("failed")
		s.log.ErrorContext(ctx, "reset email not sent", "user_id", u.ID, "error", err)
		return "", apperr.Delivery(MsgSendFailed, err)
	}

	s.metrics.ResetEmail("sent")
	s.log.InfoContext(ctx, "reset email sent", "user_id", u.ID)
	return MsgResetLinkSent, nil
}

// ResetPassword verifies a reset link and replaces the account's password.
func (s *PasswordResetService) ResetPassword(ctx context.Context, in ResetInput) (string, error) {
	if in.UID == "" || in.Token == "" || in.Password == "" {
		return "", apperr.Validation(MsgMissingFields)
	}

	id, err := DecodeUID(in.UID)
	if err != nil {
		return "", apperr.InvalidToken(MsgInvalidResetLink)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.InvalidToken(MsgInvalidResetLink)
		}
		return "", oops.In("password_reset").With("operation", "GetByID").Wrap(err)
	}

	if err := utils.VerifyResetToken(s.tokens.Secret, in.Token, u.ID, u.PasswordHash); err != nil {
		s.log.WarnContext(ctx, "reset token rejected", "user_id", u.ID, "reason", err)
		return "", apperr.InvalidToken(MsgExpiredResetLink)
	}

	hash, err := hashPassword("password_reset", in.Password, s.tokens.BcryptCost)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, u.PasswordHash, hash); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleWrite):
			// another reset won the race and consumed the token
			return "", apperr.InvalidToken(MsgExpiredResetLink)
		case errors.Is(err, repository.ErrNotFound):
			return "", apperr.InvalidToken(MsgInvalidResetLink)
		}
		return "", oops.In("password_reset").With("operation", "UpdatePassword").Wrap(err)
	}

	s.metrics.Auth("password_reset", "success")
	s.log.InfoContext(ctx, "password reset", "user_id", u.ID)
	return MsgPasswordResetDone, nil
}

// ResetLink builds the frontend URL the reset email points at.
func (s *PasswordResetService) ResetLink(uid, token string) string {
	return s.frontendURL + resetPath + "uid=" + url.QueryEscape(uid) + "&token=" + url.QueryEscape(token)
}

// EncodeUID renders an account id for a reset link: the decimal id,
// base64url encoded without padding.
func EncodeUID(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

// DecodeUID reverses EncodeUID.  Padded input is accepted.
func DecodeUID(uid string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("zero uid")
	}
	return id, nil
}
