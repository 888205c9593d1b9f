package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/session"
)

// Context keys set by Session.
const (
	KeyGuard     = "guard"
	KeySessionID = "session_id"
	KeyToken     = "token"
	KeyUserID    = "user_id"
	KeyRole      = "role"
	KeyUser      = "user"
)

// Cookie describes the browser cookie that carries the session id.
type Cookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Set writes the session cookie for id.
func (ck Cookie) Set(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     ck.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ck.TTL / time.Second),
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (ck Cookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     ck.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session hydrates the session guard from the cookie's storage on every
// request and rejects the request with 401 unless the session is
// authenticated. Handlers read the guard and the user through the
// helpers in identity.go.
func Session(store session.Store, ck Cookie) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(ck.Name)
			if err != nil || cookie.Value == "" {
				return unauthorized(c, "Please log in to continue", false)
			}

			g := session.NewGuard(store.Session(cookie.Value))
			if err := g.CheckAuthState(c.Request().Context()); err != nil {
				if errors.Is(err, session.ErrTokenExpired) {
					ck.Clear(c)
					return unauthorized(c, "Your session has expired. Please log in again", true)
				}
				c.Logger().Errorf("session: hydrate %s: %v", cookie.Value, err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "message": "Session store unavailable"})
			}

			st := g.State()
			if !st.Authenticated {
				ck.Clear(c)
				return unauthorized(c, "Please log in to continue", false)
			}

			c.Set(KeyGuard, g)
			c.Set(KeySessionID, cookie.Value)
			c.Set(KeyToken, st.Token)
			c.Set(KeyUser, st.User)
			c.Set(KeyUserID, st.User.ID)
			c.Set(KeyRole, st.User.Role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string, expired bool) error {
	body := echo.Map{"success": false, "message": msg}
	if expired {
		body["expired"] = true
	}
	return c.JSON(http.StatusUnauthorized, body)
}
