package lifecycle

import (
	"time"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

const dateLayout = "2006-01-02"

// MeteredInput is one reading-based row of the bill form.
type MeteredInput struct {
	UtilityType     billing.UtilityType `json:"utilityType"`
	PreviousReading billing.Amount      `json:"previousReading"`
	CurrentReading  billing.Amount      `json:"currentReading"`
	Rate            billing.Amount      `json:"rate"`
}

// ServiceInput is one flat-charge row of the bill form.
type ServiceInput struct {
	UtilityType billing.UtilityType `json:"utilityType"`
	Quantity    billing.Amount      `json:"quantity"`
	Rate        billing.Amount      `json:"rate"`
}

// BillForm is what the admin submits to create or edit a bill. BillingMonth
// defaults to the current month.
type BillForm struct {
	TenantID     string         `json:"tenantId" validate:"required"`
	BillingMonth string         `json:"billingMonth" validate:"omitempty,datetime=2006-01"`
	Metered      []MeteredInput `json:"meteredUtilities"`
	Services     []ServiceInput `json:"serviceUtilities"`
	DueDate      string         `json:"dueDate" validate:"required,datetime=2006-01-02"`
	AdminNotes   string         `json:"adminNotes"`
}

// Lines converts the form rows for the calculator.
func (f BillForm) Lines() ([]billing.MeteredLine, []billing.ServiceLine) {
	metered := make([]billing.MeteredLine, 0, len(f.Metered))
	for _, m := range f.Metered {
		metered = append(metered, billing.MeteredLine{
			UtilityType:     m.UtilityType,
			PreviousReading: float64(m.PreviousReading),
			CurrentReading:  float64(m.CurrentReading),
			Rate:            float64(m.Rate),
		})
	}
	services := make([]billing.ServiceLine, 0, len(f.Services))
	for _, s := range f.Services {
		services = append(services, billing.ServiceLine{
			UtilityType: s.UtilityType,
			Quantity:    float64(s.Quantity),
			Rate:        float64(s.Rate),
		})
	}
	return metered, services
}

// FormFromBill fills the edit form from a stored bill, splitting its lines
// back into metered and service rows.
func FormFromBill(b billing.UtilityBill) BillForm {
	metered, services := billing.SplitLines(b.Lines)
	f := BillForm{
		TenantID:     b.TenantID,
		BillingMonth: b.BillingMonth,
		AdminNotes:   b.AdminNotes,
	}
	if !b.DueDate.IsZero() {
		f.DueDate = b.DueDate.Format(dateLayout)
	}
	for _, m := range metered {
		f.Metered = append(f.Metered, MeteredInput{
			UtilityType:     m.UtilityType,
			PreviousReading: billing.Amount(m.PreviousReading),
			CurrentReading:  billing.Amount(m.CurrentReading),
			Rate:            billing.Amount(m.Rate),
		})
	}
	for _, s := range services {
		f.Services = append(f.Services, ServiceInput{
			UtilityType: s.UtilityType,
			Quantity:    billing.Amount(s.Quantity),
			Rate:        billing.Amount(s.Rate),
		})
	}
	return f
}

// draft is a validated form with its derived fields.
type draft struct {
	month   string
	period  billing.Period
	dueDate time.Time
	lines   []billing.UtilityLine
	total   float64
}

func (f BillForm) build(now time.Time) (draft, error) {
	if err := Validate(f); err != nil {
		return draft{}, err
	}
	month := f.BillingMonth
	if month == "" {
		month = billing.MonthOf(now)
	}
	period, err := billing.PeriodForMonth(month)
	if err != nil {
		return draft{}, &ValidationError{Fields: map[string]string{"billingMonth": "must be a month formatted 2006-01"}}
	}
	due, err := time.Parse(dateLayout, f.DueDate)
	if err != nil {
		return draft{}, &ValidationError{Fields: map[string]string{"dueDate": "Please select a due date"}}
	}
	metered, services := f.Lines()
	return draft{
		month:   month,
		period:  period,
		dueDate: due,
		lines:   billing.BuildLines(metered, services),
		total:   billing.ComputeGrandTotal(metered, services),
	}, nil
}
