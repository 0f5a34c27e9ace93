// Package router registers the HTTP routes on an echo instance.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devvibe-backend/internal/handler"
)

// Deps carries what the routes need.  Metrics is optional.
type Deps struct {
	Auth    *handler.AuthHandler
	AI      *handler.AIHandler
	Metrics http.Handler
	// APIMiddleware runs on every /api route, after routing.
	APIMiddleware []echo.MiddlewareFunc
}

// Endpoints are listed by the root route.
var Endpoints = []string{
	"/healthz",
	"/api/health",
	"/api/accounts/register",
	"/api/accounts/login",
	"/api/accounts/me",
	"/api/accounts/forgot-password",
	"/api/accounts/reset-password",
	"/api/ai/ask",
}

// RegisterRoutes registers the unauthenticated service routes.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Root(Endpoints))
	e.GET("/healthz", handler.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}
}

// RegisterAPI registers the account and AI routes under /api.
func RegisterAPI(e *echo.Echo, d Deps) {
	api := e.Group("/api", d.APIMiddleware...)
	api.GET("/health", handler.Health)

	accounts := api.Group("/accounts")
	accounts.POST("/register", d.Auth.Register)
	accounts.POST("/login", d.Auth.Login)
	accounts.GET("/me", d.Auth.Me)
	accounts.POST("/forgot-password", d.Auth.ForgotPassword)
	accounts.POST("/reset-password", d.Auth.ResetPassword)

	api.POST("/ai/ask", d.AI.Ask)
}
