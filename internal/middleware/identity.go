package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/model"
	"github.com/iliyamo/apartment-portal/internal/session"
)

// GuardFrom returns the session guard set by Session, or nil.
func GuardFrom(c echo.Context) *session.Guard {
	g, _ := c.Get(KeyGuard).(*session.Guard)
	return g
}

// UserFrom returns the signed-in user set by Session, or nil.
func UserFrom(c echo.Context) *model.User {
	u, _ := c.Get(KeyUser).(*model.User)
	return u
}

// TokenFrom returns the backend token of the signed-in user.
func TokenFrom(c echo.Context) string {
	t, _ := c.Get(KeyToken).(string)
	return t
}

// currentUserID returns the signed-in user's id, or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(KeyUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// sessionKey identifies the browser for rate limiting: the session cookie
// when present, the user id otherwise.
func sessionKey(c echo.Context, cookieName string) string {
	if s, ok := c.Get(KeySessionID).(string); ok && s != "" {
		return s
	}
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return currentUserID(c)
}
