package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

// BillPayload is the body of a bill create or update.
type BillPayload struct {
	TenantID      string                `json:"tenantId"`
	BillingMonth  string                `json:"billingMonth"`
	BillingPeriod billing.Period        `json:"billingPeriod"`
	Utilities     []billing.UtilityLine `json:"utilities"`
	Subtotal      float64               `json:"subtotal"`
	TotalAmount   float64               `json:"totalAmount"`
	DueDate       time.Time             `json:"dueDate"`
	Status        billing.Status        `json:"status,omitempty"` // empty on update
	AdminNotes    string                `json:"adminNotes,omitempty"`
}

// Payment is the body of a mark-paid call.
type Payment struct {
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"adminNotes,omitempty"`
	PaidAt        time.Time `json:"paidAt"`
}

const billsPath = "/utility-bills"

// ListBills fetches every bill (admin scope).
func (c *Client) ListBills(ctx context.Context) ([]billing.UtilityBill, error) {
	var out []billing.UtilityBill
	if err := c.do(ctx, http.MethodGet, billsPath, nil, nil, &out, "Failed to fetch utility bills"); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyBills fetches the token holder's own bills (tenant scope).
func (c *Client) ListMyBills(ctx context.Context) ([]billing.UtilityBill, error) {
	var out []billing.UtilityBill
	if err := c.do(ctx, http.MethodGet, billsPath+"/my-bills", nil, nil, &out, "Failed to fetch your bills"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBill fetches one bill.
func (c *Client) GetBill(ctx context.Context, id string) (billing.UtilityBill, error) {
	var out billing.UtilityBill
	err := c.do(ctx, http.MethodGet, billsPath+"/"+url.PathEscape(id), nil, nil, &out, "Failed to fetch utility bill")
	return out, err
}

// CreateBill stores a new bill.
func (c *Client) CreateBill(ctx context.Context, p BillPayload) (billing.UtilityBill, error) {
	var out billing.UtilityBill
	err := c.do(ctx, http.MethodPost, billsPath, nil, p, &out, "Failed to create utility bill")
	return out, err
}

// UpdateBill replaces a bill's lines and totals.
func (c *Client) UpdateBill(ctx context.Context, id string, p BillPayload) (billing.UtilityBill, error) {
	var out billing.UtilityBill
	err := c.do(ctx, http.MethodPut, billsPath+"/"+url.PathEscape(id), nil, p, &out, "Failed to update utility bill")
	return out, err
}

// MarkBillPaid records a payment. The backend refuses bills already paid.
func (c *Client) MarkBillPaid(ctx context.Context, id string, p Payment) (billing.UtilityBill, error) {
	var out billing.UtilityBill
	err := c.do(ctx, http.MethodPut, billsPath+"/"+url.PathEscape(id)+"/pay", nil, p, &out, "Failed to mark bill as paid")
	return out, err
}

// DeleteBill removes a bill.
func (c *Client) DeleteBill(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, billsPath+"/"+url.PathEscape(id), nil, nil, nil, "Failed to delete utility bill")
}
