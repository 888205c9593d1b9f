package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// UtilityType names a billable utility or service. Flat services accept
// custom names in addition to the constants below.
type UtilityType string

const (
	Electricity  UtilityType = "electricity"
	FloorHeating UtilityType = "floor_heating"
	CarCharging  UtilityType = "car_charging"

	WaterJar        UtilityType = "water_jar"
	CleaningService UtilityType = "cleaning_service"
	Gas             UtilityType = "gas"
)

// IsMetered reports whether t is one of the reading-based utilities.
func (t UtilityType) IsMetered() bool {
	switch t {
	case Electricity, FloorHeating, CarCharging:
		return true
	}
	return false
}

// LineKind is the discriminant of UtilityLine.
type LineKind string

const (
	KindMetered LineKind = "metered"
	KindFlat    LineKind = "flat"
)

// UtilityLine is one persisted bill line. Kind decides which input fields
// are meaningful: readings for metered lines, quantity for flat ones.
// Consumption and Amount are computed when the bill is built.
type UtilityLine struct {
	Kind            LineKind    `json:"kind"`
	UtilityType     UtilityType `json:"utilityType"`
	PreviousReading float64     `json:"previousReading,omitempty"`
	CurrentReading  float64     `json:"currentReading,omitempty"`
	Quantity        float64     `json:"quantity,omitempty"`
	Rate            float64     `json:"rate"`
	Consumption     float64     `json:"consumption"`
	Amount          float64     `json:"amount"`
}

// UnmarshalJSON accepts lines stored before the kind field existed and
// derives the kind from the utility type once, at decode time.
func (l *UtilityLine) UnmarshalJSON(b []byte) error {
	type plain UtilityLine
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Kind == "" {
		if p.UtilityType.IsMetered() {
			p.Kind = KindMetered
		} else {
			p.Kind = KindFlat
		}
	}
	*l = UtilityLine(p)
	return nil
}

// Status is the stored bill state. StatusOverdue is only ever produced by
// DisplayStatus.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Period is the inclusive billing window.
type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// UtilityBill is a tenant's bill as held by the backend.
type UtilityBill struct {
	ID            string        `json:"id"`
	TenantID      string        `json:"tenantId"`
	TenantName    string        `json:"tenantName,omitempty"`
	BillingMonth  string        `json:"billingMonth"`
	BillingPeriod Period        `json:"billingPeriod"`
	Lines         []UtilityLine `json:"utilities"`
	Subtotal      float64       `json:"subtotal"`
	TotalAmount   float64       `json:"totalAmount"`
	DueDate       time.Time     `json:"dueDate"`
	Status        Status        `json:"status"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	AdminNotes    string        `json:"adminNotes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// PeriodForMonth converts "YYYY-MM" into the first and last day of that
// month in UTC.
func PeriodForMonth(month string) (Period, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return Period{}, fmt.Errorf("billing month %q: want YYYY-MM", month)
	}
	end := start.AddDate(0, 1, -1)
	return Period{StartDate: start, EndDate: end}, nil
}

// MonthOf formats t as a billing month.
func MonthOf(t time.Time) string { return t.UTC().Format("2006-01") }

// DisplayStatus is the status shown to users: a sent bill past its due
// date reads as overdue.
func DisplayStatus(b UtilityBill, now time.Time) Status {
	if b.Status == StatusSent && !b.DueDate.IsZero() && b.DueDate.Before(now) {
		return StatusOverdue
	}
	return b.Status
}

// CanEdit reports whether the bill may still be changed.
func CanEdit(b UtilityBill) bool { return b.Status != StatusPaid }

// CanMarkPaid reports whether a payment may be recorded. Payment is
// terminal, so a paid bill never offers it again.
func CanMarkPaid(b UtilityBill) bool {
	return b.Status == StatusSent || b.Status == StatusOverdue
}

// Action is a control the UI may offer for a bill.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionMarkPaid Action = "mark_paid"
	ActionDelete   Action = "delete"
)

// Actions lists the controls available for b.
func Actions(b UtilityBill) []Action {
	out := make([]Action, 0, 3)
	if CanEdit(b) {
		out = append(out, ActionEdit)
	}
	if CanMarkPaid(b) {
		out = append(out, ActionMarkPaid)
	}
	return append(out, ActionDelete)
}
