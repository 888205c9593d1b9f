// Package billing computes utility bill line items and totals and holds the
// bill model shared by the lifecycle manager, handlers and export.
package billing

import "math"

// MeteredLine is a reading-based charge as entered on the bill form.
type MeteredLine struct {
	UtilityType     UtilityType `json:"utilityType"`
	PreviousReading float64     `json:"previousReading"`
	CurrentReading  float64     `json:"currentReading"`
	Rate            float64     `json:"rate"`
}

// ServiceLine is a flat quantity × rate charge as entered on the bill form.
type ServiceLine struct {
	UtilityType UtilityType `json:"utilityType"`
	Quantity    float64     `json:"quantity"`
	Rate        float64     `json:"rate"`
}

// coerce maps NaN, ±Inf and negative inputs to zero.
func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Consumption returns max(0, current - previous). A meter that reads lower
// than last period is treated as no usage.
func Consumption(l MeteredLine) float64 {
	d := coerce(l.CurrentReading) - coerce(l.PreviousReading)
	if d < 0 {
		return 0
	}
	return d
}

// ComputeMeteredAmount returns consumption × rate. It never returns a
// negative number.
func ComputeMeteredAmount(l MeteredLine) float64 {
	return Consumption(l) * coerce(l.Rate)
}

// ComputeServiceAmount returns quantity × rate.
func ComputeServiceAmount(l ServiceLine) float64 {
	return coerce(l.Quantity) * coerce(l.Rate)
}

// ComputeGrandTotal sums every metered and service amount. Zero-usage lines
// contribute zero, so the total is the same whether or not they were dropped.
func ComputeGrandTotal(metered []MeteredLine, services []ServiceLine) float64 {
	var total float64
	for _, l := range metered {
		total += ComputeMeteredAmount(l)
	}
	for _, l := range services {
		total += ComputeServiceAmount(l)
	}
	return total
}

// BuildLines tags each input with its computed consumption and amount and
// drops lines without usage. The result is what gets persisted on a bill.
func BuildLines(metered []MeteredLine, services []ServiceLine) []UtilityLine {
	return buildLines(metered, services, false)
}

// PreviewLines is BuildLines for the edit form: zero-usage lines are kept
// so they display as zero.
func PreviewLines(metered []MeteredLine, services []ServiceLine) []UtilityLine {
	return buildLines(metered, services, true)
}

func buildLines(metered []MeteredLine, services []ServiceLine, keepZero bool) []UtilityLine {
	out := make([]UtilityLine, 0, len(metered)+len(services))
	for _, l := range metered {
		c := Consumption(l)
		if c <= 0 && !keepZero {
			continue
		}
		out = append(out, UtilityLine{
			Kind:            KindMetered,
			UtilityType:     l.UtilityType,
			PreviousReading: coerce(l.PreviousReading),
			CurrentReading:  coerce(l.CurrentReading),
			Rate:            coerce(l.Rate),
			Consumption:     c,
			Amount:          ComputeMeteredAmount(l),
		})
	}
	for _, l := range services {
		q := coerce(l.Quantity)
		if q <= 0 && !keepZero {
			continue
		}
		out = append(out, UtilityLine{
			Kind:        KindFlat,
			UtilityType: l.UtilityType,
			Quantity:    q,
			Rate:        coerce(l.Rate),
			Consumption: q,
			Amount:      ComputeServiceAmount(l),
		})
	}
	return out
}

// SumLines totals the amounts already carried on tagged lines.
func SumLines(lines []UtilityLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Amount
	}
	return total
}

// SplitLines turns persisted lines back into form inputs, using the line
// kind rather than the utility type name.
func SplitLines(lines []UtilityLine) ([]MeteredLine, []ServiceLine) {
	var metered []MeteredLine
	var services []ServiceLine
	for _, l := range lines {
		switch l.Kind {
		case KindMetered:
			metered = append(metered, MeteredLine{
				UtilityType:     l.UtilityType,
				PreviousReading: l.PreviousReading,
				CurrentReading:  l.CurrentReading,
				Rate:            l.Rate,
			})
		case KindFlat:
			services = append(services, ServiceLine{
				UtilityType: l.UtilityType,
				Quantity:    l.Quantity,
				Rate:        l.Rate,
			})
		}
	}
	return metered, services
}
