package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
	"github.com/iliyamo/apartment-portal/internal/session"
)

// AuthHandler signs users in and out. Credentials are checked by the
// backend; the portal keeps the returned token in the session store.
type AuthHandler struct{ *Deps }

func NewAuthHandler(d *Deps) *AuthHandler { return &AuthHandler{Deps: d} }

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// dashboards maps a role to the page the browser opens after login.
var dashboards = map[string]string{
	model.RoleAdmin:       "/admin",
	model.RoleMaintenance: "/maintenance",
	model.RoleTenant:      "/tenant",
}

type sessionView struct {
	User      model.User `json:"user"`
	Dashboard string     `json:"dashboard"`
}

// Login: POST /v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "Login failed")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx := c.Request().Context()
	res, err := h.Backend.Login(ctx, req.Email, req.Password)
	if backend.IsUnauthorized(err) {
		// Wrong credentials, not an expired session.
		return fail(c, http.StatusUnauthorized, backend.UserMessage(err, "Invalid email or password"))
	}
	if err != nil {
		return h.respond(c, err, "Login failed")
	}
	if !res.User.Valid() {
		c.Logger().Warnf("login: backend returned unusable profile for %s", req.Email)
		return fail(c, http.StatusBadGateway, "Login failed")
	}

	id := uuid.NewString()
	g := session.NewGuard(h.Sessions.Session(id))
	accepted, err := g.Login(ctx, res.Token, res.User)
	if err != nil {
		return h.respond(c, err, "Login failed")
	}
	if !accepted {
		return fail(c, http.StatusUnauthorized, "Session expired. Please try again")
	}
	h.Cookie.Set(c, id)
	return ok(c, http.StatusOK, sessionView{User: res.User, Dashboard: dashboards[res.User.Role]}, "Login successful")
}

// Logout: POST /v1/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if g := middleware.GuardFrom(c); g != nil {
		if err := g.Logout(c.Request().Context()); err != nil {
			c.Logger().Errorf("logout: %v", err)
		}
	}
	h.Cookie.Clear(c)
	return ok(c, http.StatusOK, nil, "Logged out")
}

// Me: GET /v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.UserFrom(c)
	if u == nil {
		return fail(c, http.StatusUnauthorized, "Please log in to continue")
	}
	return ok(c, http.StatusOK, sessionView{User: *u, Dashboard: dashboards[u.Role]}, "")
}

// ChangePassword: PUT /v1/auth/change-password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "Failed to change password")
	}
	if req.CurrentPassword == req.NewPassword {
		return h.respond(c, validationError("newPassword", "must differ from the current password"), "")
	}
	if err := h.client(c).ChangePassword(c.Request().Context(), req.CurrentPassword, req.NewPassword); err != nil {
		return h.respond(c, err, "Failed to change password")
	}
	return ok(c, http.StatusOK, nil, "Password changed successfully")
}
