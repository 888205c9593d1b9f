package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/listing"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
)

// LeaveHandler serves worker leave requests and their review by admins.
type LeaveHandler struct{ *Deps }

func NewLeaveHandler(d *Deps) *LeaveHandler { return &LeaveHandler{Deps: d} }

const leaveKey = "leave"

var leaveFields = listing.Fields[model.LeaveRequest]{
	"status":     func(l model.LeaveRequest) any { return l.Status },
	"workerName": func(l model.LeaveRequest) any { return l.WorkerName },
	"startDate":  func(l model.LeaveRequest) any { return l.StartDate },
	"endDate":    func(l model.LeaveRequest) any { return l.EndDate },
	"createdAt":  func(l model.LeaveRequest) any { return l.CreatedAt },
	listing.SearchField: func(l model.LeaveRequest) any {
		return l.WorkerName + " " + l.Reason
	},
}

func (h *LeaveHandler) list(c echo.Context, key, scope string) error {
	res := h.client(c).LeaveRequests()
	items, err := h.Leave.Get(c.Request().Context(), key, func(ctx context.Context) ([]model.LeaveRequest, error) {
		return res.ListAt(ctx, scope, nil)
	})
	if err != nil {
		return h.respond(c, err, "Failed to fetch leave requests")
	}
	visible, err := listing.Apply(items, leaveFields, listing.SpecFromQuery(c.QueryParams(), "status"))
	if err != nil {
		return h.respond(c, err, "")
	}
	return ok(c, http.StatusOK, visible, "")
}

// ListAll: GET /v1/admin/leave
func (h *LeaveHandler) ListAll(c echo.Context) error {
	return h.list(c, leaveKey+":admin", "")
}

// ListMine: GET /v1/maintenance/leave
func (h *LeaveHandler) ListMine(c echo.Context) error {
	return h.list(c, leaveKey+":worker:"+middleware.UserFrom(c).ID, "/my-requests")
}

type leaveReq struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required"`
}

// Submit: POST /v1/maintenance/leave
func (h *LeaveHandler) Submit(c echo.Context) error {
	var req leaveReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "")
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		return h.respond(c, validationError("endDate", "must not be before the start date"), "")
	}
	u := middleware.UserFrom(c)
	in := model.LeaveRequest{
		WorkerID:   u.ID,
		WorkerName: u.Name,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     model.LeavePending,
	}
	out, err := h.client(c).LeaveRequests().Create(c.Request().Context(), in)
	if err != nil {
		return h.respond(c, err, "Failed to submit leave request")
	}
	h.Leave.Invalidate(leaveKey)
	return ok(c, http.StatusCreated, out, "Leave request submitted")
}

type reviewReq struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes string `json:"adminNotes"`
}

// Review: PUT /v1/admin/leave/:id
func (h *LeaveHandler) Review(c echo.Context) error {
	var req reviewReq
	if err := bind(c, &req); err != nil {
		return h.respond(c, err, "")
	}
	out, err := h.client(c).LeaveRequests().Update(c.Request().Context(), c.Param("id"), echo.Map{
		"status":     req.Status,
		"adminNotes": req.AdminNotes,
	})
	if err != nil {
		return h.respond(c, err, "Failed to update leave request")
	}
	h.Leave.Invalidate(leaveKey)
	return ok(c, http.StatusOK, out, "Leave request "+req.Status)
}
