// Package queue carries bill lifecycle events over RabbitMQ: a publisher
// used by the lifecycle manager and a consumer that writes a notification
// log.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

// BillQueueName is the durable queue bill events are routed to.
const BillQueueName = "bill.events"

// BillEvent is the message body. Amounts travel unrounded; the display
// form is added for consumers that only log or notify.
type BillEvent struct {
	billing.Event
	TotalDisplay string `json:"totalDisplay"`
}

// NewBillEvent wraps e for publishing.
func NewBillEvent(e billing.Event) BillEvent {
	return BillEvent{Event: e, TotalDisplay: billing.FormatCurrency(e.TotalAmount)}
}

var eventTitles = map[billing.EventType]string{
	billing.EventSent:    "Bill sent",
	billing.EventUpdated: "Bill updated",
	billing.EventPaid:    "Bill paid",
	billing.EventDeleted: "Bill deleted",
}

// LogLine renders ev as one line of the notification log.
func (ev BillEvent) LogLine() string {
	title, ok := eventTitles[ev.Type]
	if !ok {
		title = string(ev.Type)
	}
	total := ev.TotalDisplay
	if total == "" {
		total = billing.FormatCurrency(ev.TotalAmount)
	}
	return fmt.Sprintf("[%s] %s | bill_id=%s | tenant_id=%s | month=%s | status=%s | total=%s | by=%s\n",
		ev.At.UTC().Format(time.RFC3339), title, ev.BillID, dash(ev.TenantID), dash(ev.BillingMonth),
		dash(string(ev.Status)), total, dash(ev.Actor))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
