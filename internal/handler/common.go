package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/billing"
	"github.com/iliyamo/apartment-portal/internal/lifecycle"
	"github.com/iliyamo/apartment-portal/internal/listing"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
	"github.com/iliyamo/apartment-portal/internal/repository"
	"github.com/iliyamo/apartment-portal/internal/session"
	"github.com/iliyamo/apartment-portal/internal/store"
)

// Deps is what every handler shares: the backend client, session storage
// and the single list store per collection.
type Deps struct {
	Backend  *backend.Client
	Sessions session.Store
	Cookie   middleware.Cookie

	Bills       *store.ListStore[billing.UtilityBill]
	Apartments  *store.ListStore[model.Apartment]
	Tenants     *store.ListStore[model.Tenant]
	Beverages   *store.ListStore[model.Beverage]
	Maintenance *store.ListStore[model.MaintenanceRequest]
	Leave       *store.ListStore[model.LeaveRequest]
	Locks       *lifecycle.Locks

	Audit     *repository.AuditRepo // nil when MySQL is not configured
	Publisher lifecycle.Publisher   // nil when events are disabled

	Now func() time.Time
}

// NewDeps builds Deps with empty list stores whose entries live at most
// listTTL.
func NewDeps(client *backend.Client, sessions session.Store, cookie middleware.Cookie, listTTL time.Duration) *Deps {
	return &Deps{
		Backend:     client,
		Sessions:    sessions,
		Cookie:      cookie,
		Bills:       store.New[billing.UtilityBill](listTTL),
		Apartments:  store.New[model.Apartment](listTTL),
		Tenants:     store.New[model.Tenant](listTTL),
		Beverages:   store.New[model.Beverage](listTTL),
		Maintenance: store.New[model.MaintenanceRequest](listTTL),
		Leave:       store.New[model.LeaveRequest](listTTL),
		Locks:       lifecycle.NewLocks(),
		Now:         time.Now,
	}
}

// client returns the backend client acting for the signed-in user.
func (d *Deps) client(c echo.Context) *backend.Client {
	return d.Backend.WithToken(middleware.TokenFrom(c))
}

// bills returns a lifecycle manager for the signed-in user.
func (d *Deps) bills(c echo.Context) *lifecycle.Manager {
	opts := []lifecycle.Option{lifecycle.WithClock(d.Now)}
	if u := middleware.UserFrom(c); u != nil {
		opts = append(opts, lifecycle.WithActor(u.ID))
	}
	if d.Audit != nil {
		opts = append(opts, lifecycle.WithRecorder(d.Audit))
	}
	if d.Publisher != nil {
		opts = append(opts, lifecycle.WithPublisher(d.Publisher))
	}
	return lifecycle.NewManager(d.client(c), d.Bills, d.Locks, opts...)
}

func ok(c echo.Context, status int, data any, msg string) error {
	body := echo.Map{"success": true, "data": data}
	if msg != "" {
		body["message"] = msg
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// bind decodes the request body into dst and validates its tags.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return validationError("body", "Invalid request body")
	}
	return lifecycle.Validate(dst)
}

// respond maps err to a response. fallback is shown for errors that carry
// no message of their own.
func (d *Deps) respond(c echo.Context, err error, fallback string) error {
	var (
		ve *lifecycle.ValidationError
		be *backend.BackendError
		ne *backend.NetworkError
	)
	switch {
	case errors.Is(err, context.Canceled):
		// The browser went away; nobody reads this response.
		return nil
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"success": false,
			"message": "Please correct the highlighted fields",
			"errors":  ve.Fields,
		})
	case errors.Is(err, lifecycle.ErrBillPaid):
		return fail(c, http.StatusConflict, "This bill has already been paid")
	case errors.Is(err, lifecycle.ErrBusy):
		return fail(c, http.StatusConflict, "This bill is being updated. Please wait")
	case errors.Is(err, lifecycle.ErrNotFound):
		return fail(c, http.StatusNotFound, "Bill not found")
	case errors.Is(err, listing.ErrUnknownField):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrUnavailable):
		return fail(c, http.StatusServiceUnavailable, "Bill history is not available")
	case backend.IsUnauthorized(err):
		if g := middleware.GuardFrom(c); g != nil {
			if lerr := g.Logout(c.Request().Context()); lerr != nil {
				c.Logger().Errorf("logout after 401: %v", lerr)
			}
		}
		d.Cookie.Clear(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"message": "Your session has expired. Please log in again",
			"expired": true,
		})
	case errors.As(err, &be):
		status := be.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		return fail(c, status, backend.UserMessage(err, fallback))
	case errors.As(err, &ne), errors.Is(err, context.DeadlineExceeded):
		c.Logger().Warnf("backend unreachable: %v", err)
		return fail(c, http.StatusServiceUnavailable, backend.MsgCannotConnect)
	}
	c.Logger().Errorf("%s: %v", fallback, err)
	return fail(c, http.StatusInternalServerError, fallback)
}

// ErrorHandler is the last-resort handler for errors and panics recovered
// by echo. Unexpected failures offer the page a reload or a step back.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		_ = fail(c, he.Code, msg)
		return
	}
	log.Printf("unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	_ = c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"message": "Something went wrong",
		"actions": []string{"reload", "back"},
	})
}

func validationError(field, msg string) error {
	return &lifecycle.ValidationError{Fields: map[string]string{field: msg}}
}
