package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devvibe-backend/internal/utils"
)

// SessionVerifier resolves a session token to an account id.
type SessionVerifier interface {
	VerifySession(token string) (uint64, error)
}

// OptionalJWT records the account id of a valid bearer session token in the
// context.  It never rejects a request: endpoints that need a session check
// it themselves, and anonymous callers simply stay anonymous for rate
// limiting.
func OptionalJWT(v SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := utils.BearerToken(c.Request()); raw != "" {
				if id, err := v.VerifySession(raw); err == nil {
					setUserID(c, id)
				}
			}
			return next(c)
		}
	}
}
