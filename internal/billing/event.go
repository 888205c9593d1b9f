package billing

import "time"

// EventType names a bill lifecycle transition.
type EventType string

const (
	EventSent    EventType = "bill.sent"
	EventUpdated EventType = "bill.updated"
	EventPaid    EventType = "bill.paid"
	EventDeleted EventType = "bill.deleted"
)

// Event describes one successful lifecycle action. It feeds the audit trail
// and the notification queue.
type Event struct {
	Type         EventType `json:"type"`
	BillID       string    `json:"billId"`
	TenantID     string    `json:"tenantId,omitempty"`
	BillingMonth string    `json:"billingMonth,omitempty"`
	TotalAmount  float64   `json:"totalAmount"`
	Status       Status    `json:"status,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	At           time.Time `json:"at"`
}

// NewEvent builds the event for bill b.
func NewEvent(t EventType, b UtilityBill, actor string, at time.Time) Event {
	return Event{
		Type:         t,
		BillID:       b.ID,
		TenantID:     b.TenantID,
		BillingMonth: b.BillingMonth,
		TotalAmount:  b.TotalAmount,
		Status:       b.Status,
		Actor:        actor,
		At:           at,
	}
}
