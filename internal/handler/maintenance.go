package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/listing"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
)

// MaintenanceHandler serves repair requests: tenants open them, admins
// assign them and workers move them through their states.
type MaintenanceHandler struct{ *Deps }

func NewMaintenanceHandler(d *Deps) *MaintenanceHandler { return &MaintenanceHandler{Deps: d} }

const maintenanceKey = "maintenance"

var maintenanceFields = listing.Fields[model.MaintenanceRequest]{
	"status":     func(m model.MaintenanceRequest) any { return m.Status },
	"priority":   func(m model.MaintenanceRequest) any { return priorityRank[m.Priority] },
	"assignedTo": func(m model.MaintenanceRequest) any { return m.AssignedTo },
	"createdAt":  func(m model.MaintenanceRequest) any { return m.CreatedAt },
	"title":      func(m model.MaintenanceRequest) any { return m.Title },
	listing.SearchField: func(m model.MaintenanceRequest) any {
		return m.Title + " " + m.Description
	},
}

// priorityRank makes "sort=priority" order by urgency rather than name.
var priorityRank = map[string]int{"low": 1, "medium": 2, "high": 3, "urgent": 4}

// list reads scope ("" for all, "/assigned", "/my-requests") through the
// list store under key.
func (h *MaintenanceHandler) list(c echo.Context, key, scope string) error {
	res := h.client(c).MaintenanceRequests()
	items, err := h.Maintenance.Get(c.Request().Context(), key, func(ctx context.Context) ([]model.MaintenanceRequest, error) {
		return res.ListAt(ctx, scope, nil)
	})
	if err != nil {
		return h.respond(c, err, "Failed to fetch maintenance requests")
	}
	q := c.QueryParams()
	spec := listing.SpecFromQuery(q, "status", "assignedTo")
	if p := strings.TrimSpace(q.Get("priority")); p != "" && p != "all" {
		spec.Filters["priority"] = func(v any) bool { return v == priorityRank[strings.ToLower(p)] }
	}
	visible, err := listing.Apply(items, maintenanceFields, spec)
	if err != nil {
		return h.respond(c, err, "")
	}
	return ok(c, http.StatusOK, visible, "")
}

// ListAll: GET /v1/admin/maintenance
func (h *MaintenanceHandler) ListAll(c echo.Context) error {
	return h.list(c, maintenanceKey+":admin", "")
}

// ListAssigned: GET /v1/maintenance/requests
func (h *MaintenanceHandler) ListAssigned(c echo.Context) error {
	return h.list(c, maintenanceKey+":worker:"+middleware.UserFrom(c).ID, "/assigned")
}

// ListMine: GET /v1/tenant/maintenance
func (h *MaintenanceHandler) ListMine(c echo.Context) error {
	return h.list(c, maintenanceKey+":tenant:"+middleware.UserFrom(c).ID, "/my-requests")
}

type openRequestReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// Open: POST /v1/tenant/maintenance
func (h *MaintenanceHandler) Open(c echo.Context) error {
	var req openRequestReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "")
	}
	u := middleware.UserFrom(c)
	in := model.MaintenanceRequest{
		TenantID:    u.TenantID,
		ApartmentID: u.ApartmentID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		Status:      model.MaintenancePending,
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	out, err := h.client(c).MaintenanceRequests().Create(c.Request().Context(), in)
	if err != nil {
		return h.respond(c, err, "Failed to submit maintenance request")
	}
	h.Maintenance.Invalidate(maintenanceKey)
	return ok(c, http.StatusCreated, out, "Maintenance request submitted")
}

type assignReq struct {
	AssignedTo string `json:"assignedTo" validate:"required"`
	Notes      string `json:"notes"`
}

// Assign: PUT /v1/admin/maintenance/:id/assign
func (h *MaintenanceHandler) Assign(c echo.Context) error {
	var req assignReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "")
	}
	in := echo.Map{"assignedTo": req.AssignedTo, "status": model.MaintenanceInProgress}
	if req.Notes != "" {
		in["notes"] = req.Notes
	}
	return h.update(c, in, "Request assigned")
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
	Notes  string `json:"notes"`
}

// UpdateStatus: PUT /v1/maintenance/requests/:id/status (worker) and
// /v1/admin/maintenance/:id/status (admin)
func (h *MaintenanceHandler) UpdateStatus(c echo.Context) error {
	var req statusReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "")
	}
	in := echo.Map{"status": req.Status}
	if req.Notes != "" {
		in["notes"] = req.Notes
	}
	if req.Status == model.MaintenanceCompleted {
		in["completedAt"] = h.Now().UTC()
	}
	return h.update(c, in, "Status updated")
}

func (h *MaintenanceHandler) update(c echo.Context, in echo.Map, msg string) error {
	out, err := h.client(c).MaintenanceRequests().Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.respond(c, err, "Failed to update maintenance request")
	}
	h.Maintenance.Invalidate(maintenanceKey)
	return ok(c, http.StatusOK, out, msg)
}

// Delete: DELETE /v1/admin/maintenance/:id
func (h *MaintenanceHandler) Delete(c echo.Context) error {
	if err := h.client(c).MaintenanceRequests().Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.respond(c, err, "Failed to delete maintenance request")
	}
	h.Maintenance.Invalidate(maintenanceKey)
	return ok(c, http.StatusOK, nil, "Maintenance request deleted")
}
