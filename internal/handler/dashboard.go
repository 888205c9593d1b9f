package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/apartment-portal/internal/billing"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
)

// DashboardHandler assembles the landing page of each role. The pieces are
// fetched concurrently; any failure fails the page.
type DashboardHandler struct{ *Deps }

func NewDashboardHandler(d *Deps) *DashboardHandler { return &DashboardHandler{Deps: d} }

const recentLimit = 5

type dashboardView struct {
	Role        string                     `json:"role"`
	Stats       model.DashboardStats       `json:"stats"`
	Bills       []billView                 `json:"bills,omitempty"`
	Maintenance []model.MaintenanceRequest `json:"maintenance,omitempty"`
	Leave       []model.LeaveRequest       `json:"leave,omitempty"`
}

// Show: GET /v1/{admin,maintenance,tenant}/dashboard
func (h *DashboardHandler) Show(c echo.Context) error {
	u := middleware.UserFrom(c)
	client := h.client(c)
	now := h.Now()
	v := dashboardView{Role: u.Role}

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		stats, err := client.DashboardStats(ctx, u.Role)
		v.Stats = stats
		return err
	})

	switch u.Role {
	case model.RoleAdmin:
		g.Go(func() error {
			bills, err := h.bills(c).List(ctx)
			if err != nil {
				return err
			}
			v.Bills = unpaid(bills, now, true)
			return nil
		})
		g.Go(func() error {
			items, err := h.Maintenance.Get(ctx, maintenanceKey+":admin", func(ctx context.Context) ([]model.MaintenanceRequest, error) {
				return client.MaintenanceRequests().List(ctx, nil)
			})
			v.Maintenance = open(items)
			return err
		})
	case model.RoleMaintenance:
		g.Go(func() error {
			items, err := h.Maintenance.Get(ctx, maintenanceKey+":worker:"+u.ID, func(ctx context.Context) ([]model.MaintenanceRequest, error) {
				return client.MaintenanceRequests().ListAt(ctx, "/assigned", nil)
			})
			v.Maintenance = open(items)
			return err
		})
		g.Go(func() error {
			items, err := h.Leave.Get(ctx, leaveKey+":worker:"+u.ID, func(ctx context.Context) ([]model.LeaveRequest, error) {
				return client.LeaveRequests().ListAt(ctx, "/my-requests", nil)
			})
			v.Leave = first(items, recentLimit)
			return err
		})
	case model.RoleTenant:
		g.Go(func() error {
			bills, err := h.bills(c).ListMine(ctx, u.ID)
			if err != nil {
				return err
			}
			v.Bills = unpaid(bills, now, false)
			return nil
		})
		g.Go(func() error {
			items, err := h.Maintenance.Get(ctx, maintenanceKey+":tenant:"+u.ID, func(ctx context.Context) ([]model.MaintenanceRequest, error) {
				return client.MaintenanceRequests().ListAt(ctx, "/my-requests", nil)
			})
			v.Maintenance = open(items)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return h.respond(c, err, "Failed to load dashboard")
	}
	return ok(c, http.StatusOK, v, "")
}

// unpaid returns the first few unpaid bills, earliest due first.
func unpaid(bills []billing.UtilityBill, now time.Time, admin bool) []billView {
	var out []billing.UtilityBill
	for _, b := range bills {
		if b.Status != billing.StatusPaid {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b billing.UtilityBill) int { return a.DueDate.Compare(b.DueDate) })
	views := make([]billView, 0, recentLimit)
	for _, b := range first(out, recentLimit) {
		views = append(views, viewOf(b, now, admin))
	}
	return views
}

// open returns the first few requests not yet completed or cancelled.
func open(items []model.MaintenanceRequest) []model.MaintenanceRequest {
	var out []model.MaintenanceRequest
	for _, m := range items {
		if m.Status == model.MaintenancePending || m.Status == model.MaintenanceInProgress {
			out = append(out, m)
		}
	}
	return first(out, recentLimit)
}

func first[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
