package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the caller's account id (a
// decimal string) once a valid session token has been seen.
const UserIDKey = "user_id"

// userID returns the caller's account id, or "anon" when the request
// carried no valid session token.
func userID(c echo.Context) string {
	if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}

func setUserID(c echo.Context, id uint64) {
	c.Set(UserIDKey, strconv.FormatUint(id, 10))
}
