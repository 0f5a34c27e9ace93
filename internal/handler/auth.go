package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/service"
	"github.com/iliyamo/devvibe-backend/internal/utils"
)

// storeTimeout bounds the store calls behind a single request.
const storeTimeout = 5 * time.Second

// Messages for bodies that cannot be decoded at all.
const (
	msgRegisterFailed = service.MsgRegistrationFailed
	msgLoginFailed    = "Login failed"
	msgForgotFailed   = "Failed to process request"
	msgResetFailed    = "Failed to reset password"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Auth  *service.AuthService
	Reset *service.PasswordResetService
}

func NewAuthHandler(auth *service.AuthService, reset *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{Auth: auth, Reset: reset}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type forgotReq struct {
	Email string `json:"email" form:"email"`
}

type resetReq struct {
	UID      string `json:"uid" form:"uid"`
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// Register: create an account and return a session token. 201 on success.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(msgRegisterFailed)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login: verify credentials and return a fresh session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(msgLoginFailed)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Me: the account behind the bearer token.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	user, err := h.Auth.Me(ctx, utils.BearerToken(c.Request()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ForgotPassword: mail a reset link. The answer does not reveal whether the
// email is registered.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(msgForgotFailed)
	}

	// no store timeout here: the SMTP send shares this context
	msg, err := h.Reset.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// ResetPassword: apply a reset link.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(msgResetFailed)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	msg, err := h.Reset.ResetPassword(ctx, service.ResetInput{UID: req.UID, Token: req.Token, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}
