package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/billing"
	"github.com/iliyamo/apartment-portal/internal/export"
	"github.com/iliyamo/apartment-portal/internal/lifecycle"
	"github.com/iliyamo/apartment-portal/internal/listing"
	"github.com/iliyamo/apartment-portal/internal/middleware"
)

// BillHandler serves utility bills: the admin lifecycle screens and the
// tenant's own bill list.
type BillHandler struct{ *Deps }

func NewBillHandler(d *Deps) *BillHandler { return &BillHandler{Deps: d} }

// billView is a bill as a list row or detail page shows it.
type billView struct {
	billing.UtilityBill
	DisplayStatus billing.Status   `json:"displayStatus"`
	TotalDisplay  string           `json:"totalDisplay"`
	Actions       []billing.Action `json:"actions"`
}

func viewOf(b billing.UtilityBill, now time.Time, admin bool) billView {
	v := billView{
		UtilityBill:   b,
		DisplayStatus: billing.DisplayStatus(b, now),
		TotalDisplay:  billing.FormatCurrency(b.TotalAmount),
		Actions:       []billing.Action{},
	}
	if admin {
		v.Actions = billing.Actions(b)
	}
	return v
}

func billFields(now time.Time) listing.Fields[billing.UtilityBill] {
	return listing.Fields[billing.UtilityBill]{
		"tenant":       func(b billing.UtilityBill) any { return b.TenantName },
		"tenantId":     func(b billing.UtilityBill) any { return b.TenantID },
		"billingMonth": func(b billing.UtilityBill) any { return b.BillingMonth },
		"status":       func(b billing.UtilityBill) any { return string(billing.DisplayStatus(b, now)) },
		"totalAmount":  func(b billing.UtilityBill) any { return b.TotalAmount },
		"dueDate":      func(b billing.UtilityBill) any { return b.DueDate },
		"createdAt":    func(b billing.UtilityBill) any { return b.CreatedAt },
		listing.SearchField: func(b billing.UtilityBill) any {
			return b.TenantName + " " + b.BillingMonth + " " + b.ID
		},
	}
}

var billFilters = []string{"status", "billingMonth", "tenantId"}

func (h *BillHandler) render(c echo.Context, bills []billing.UtilityBill, admin bool) error {
	now := h.Now()
	visible, err := listing.Apply(bills, billFields(now), listing.SpecFromQuery(c.QueryParams(), billFilters...))
	if err != nil {
		return h.respond(c, err, "")
	}
	out := make([]billView, 0, len(visible))
	for _, b := range visible {
		out = append(out, viewOf(b, now, admin))
	}
	return ok(c, http.StatusOK, out, "")
}

// List: GET /v1/admin/bills
func (h *BillHandler) List(c echo.Context) error {
	bills, err := h.bills(c).List(c.Request().Context())
	if err != nil {
		return h.respond(c, err, "Failed to fetch utility bills")
	}
	return h.render(c, bills, true)
}

// Get: GET /v1/admin/bills/:id
// The response carries the bill and the edit form rebuilt from its lines.
func (h *BillHandler) Get(c echo.Context) error {
	b, err := h.bills(c).Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respond(c, err, "Failed to fetch utility bill")
	}
	return ok(c, http.StatusOK, echo.Map{
		"bill": viewOf(b, h.Now(), true),
		"form": lifecycle.FormFromBill(b),
	}, "")
}

// Create: POST /v1/admin/bills
func (h *BillHandler) Create(c echo.Context) error {
	var form lifecycle.BillForm
	if err := c.Bind(&form); err != nil {
		return h.respond(c, validationError("body", amountMessage(err)), "")
	}
	b, err := h.bills(c).CreateAndSend(c.Request().Context(), form)
	if err != nil {
		return h.respond(c, err, "Failed to create utility bill")
	}
	return ok(c, http.StatusCreated, viewOf(b, h.Now(), true), "Bill created and sent to tenant")
}

// Update: PUT /v1/admin/bills/:id
func (h *BillHandler) Update(c echo.Context) error {
	var form lifecycle.BillForm
	if err := c.Bind(&form); err != nil {
		return h.respond(c, validationError("body", amountMessage(err)), "")
	}
	b, err := h.bills(c).Update(c.Request().Context(), c.Param("id"), form)
	if err != nil {
		return h.respond(c, err, "Failed to update utility bill")
	}
	return ok(c, http.StatusOK, viewOf(b, h.Now(), true), "Bill updated successfully")
}

type payReq struct {
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes"`
}

// Pay: PUT /v1/admin/bills/:id/pay
func (h *BillHandler) Pay(c echo.Context) error {
	var req payReq
	if err := c.Bind(&req); err != nil {
		return h.respond(c, validationError("body", "Invalid request body"), "")
	}
	b, err := h.bills(c).MarkPaid(c.Request().Context(), c.Param("id"), req.PaymentMethod, req.Notes)
	if err != nil {
		return h.respond(c, err, "Failed to mark bill as paid")
	}
	return ok(c, http.StatusOK, viewOf(b, h.Now(), true), "Bill marked as paid")
}

// Delete: DELETE /v1/admin/bills/:id
func (h *BillHandler) Delete(c echo.Context) error {
	if err := h.bills(c).Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.respond(c, err, "Failed to delete utility bill")
	}
	return ok(c, http.StatusOK, nil, "Bill deleted successfully")
}

type previewView struct {
	Lines         []billing.UtilityLine `json:"utilities"`
	LineDisplays  []string              `json:"lineDisplays"`
	TotalAmount   float64               `json:"totalAmount"`
	TotalDisplay  string                `json:"totalDisplay"`
	BillingPeriod *billing.Period       `json:"billingPeriod,omitempty"`
}

// Preview: POST /v1/admin/bills/preview
// Runs the calculator on a partial form. Nothing is validated beyond the
// numbers and nothing is sent to the backend; zero lines stay visible.
func (h *BillHandler) Preview(c echo.Context) error {
	var form lifecycle.BillForm
	if err := c.Bind(&form); err != nil {
		return h.respond(c, validationError("body", amountMessage(err)), "")
	}
	metered, services := form.Lines()
	lines := billing.PreviewLines(metered, services)
	total := billing.ComputeGrandTotal(metered, services)
	v := previewView{
		Lines:        lines,
		LineDisplays: make([]string, len(lines)),
		TotalAmount:  total,
		TotalDisplay: billing.FormatCurrency(total),
	}
	for i, l := range lines {
		v.LineDisplays[i] = billing.FormatCurrency(l.Amount)
	}
	if p, err := billing.PeriodForMonth(form.BillingMonth); err == nil {
		v.BillingPeriod = &p
	}
	return ok(c, http.StatusOK, v, "")
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export: GET /v1/admin/bills/export  (same filters as List)
func (h *BillHandler) Export(c echo.Context) error {
	bills, err := h.bills(c).List(c.Request().Context())
	if err != nil {
		return h.respond(c, err, "Failed to fetch utility bills")
	}
	now := h.Now()
	visible, err := listing.Apply(bills, billFields(now), listing.SpecFromQuery(c.QueryParams(), billFilters...))
	if err != nil {
		return h.respond(c, err, "")
	}
	data, err := export.Render(visible, now)
	if err != nil {
		return h.respond(c, err, "Failed to export utility bills")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="utility-bills-%s.xlsx"`, now.Format("2006-01-02")))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}

// History: GET /v1/admin/bills/:id/history
func (h *BillHandler) History(c echo.Context) error {
	events, err := h.Audit.ListByBill(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respond(c, err, "Failed to load bill history")
	}
	return ok(c, http.StatusOK, events, "")
}

// Mine: GET /v1/tenant/bills
func (h *BillHandler) Mine(c echo.Context) error {
	u := middleware.UserFrom(c)
	bills, err := h.bills(c).ListMine(c.Request().Context(), u.ID)
	if err != nil {
		return h.respond(c, err, "Failed to fetch your bills")
	}
	return h.render(c, bills, false)
}

// amountMessage turns a body decoding error into form text.
func amountMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		if errors.Is(he.Internal, billing.ErrInvalidNumber) {
			return "Readings, quantities and rates must be numbers"
		}
		if errors.Is(he.Internal, billing.ErrNegativeNumber) {
			return "Readings, quantities and rates must not be negative"
		}
	}
	return "Invalid request body"
}
