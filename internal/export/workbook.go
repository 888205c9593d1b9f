// Package export renders bills as an xlsx workbook for admins.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

// Sheet names.
const (
	BillsSheet = "Bills"
	LinesSheet = "Lines"
)

var (
	billHeader = []any{"Bill ID", "Tenant", "Month", "Period start", "Period end", "Due date", "Status", "Total", "Paid at", "Payment method"}
	lineHeader = []any{"Bill ID", "Utility", "Kind", "Previous reading", "Current reading", "Consumption", "Quantity", "Rate", "Amount"}
)

// BillsWorkbook builds a workbook with one row per bill and one row per
// bill line. Status is the display status at now, so overdue bills read
// as overdue.
func BillsWorkbook(bills []billing.UtilityBill, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", BillsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := sheetWriter{f: f}
	w.row(BillsSheet, 1, billHeader)
	w.row(LinesSheet, 1, lineHeader)
	w.style(BillsSheet, "A1", "J1", bold)
	w.style(LinesSheet, "A1", "I1", bold)

	line := 2
	for i, b := range bills {
		r := i + 2
		paidAt := ""
		if b.PaidAt != nil {
			paidAt = b.PaidAt.Format("2006-01-02")
		}
		w.row(BillsSheet, r, []any{
			b.ID, tenantLabel(b), b.BillingMonth,
			date(b.BillingPeriod.StartDate), date(b.BillingPeriod.EndDate), date(b.DueDate),
			string(billing.DisplayStatus(b, now)), b.TotalAmount, paidAt, b.PaymentMethod,
		})
		for _, l := range b.Lines {
			row := []any{b.ID, string(l.UtilityType), string(l.Kind), nil, nil, nil, nil, l.Rate, l.Amount}
			if l.Kind == billing.KindMetered {
				row[3], row[4], row[5] = l.PreviousReading, l.CurrentReading, l.Consumption
			} else {
				row[6] = l.Quantity
			}
			w.row(LinesSheet, line, row)
			line++
		}
	}
	if len(bills) > 0 {
		w.style(BillsSheet, "H2", fmt.Sprintf("H%d", len(bills)+1), money)
	}
	if line > 2 {
		w.style(LinesSheet, "H2", fmt.Sprintf("I%d", line-1), money)
	}
	w.width(BillsSheet, "A", "J", 16)
	w.width(LinesSheet, "A", "I", 16)

	if w.err != nil {
		_ = f.Close()
		return nil, w.err
	}
	return f, nil
}

// Render builds the workbook for bills and returns the xlsx bytes. Nothing
// is written anywhere until the whole file has been serialized.
func Render(bills []billing.UtilityBill, now time.Time) ([]byte, error) {
	f, err := BillsWorkbook(bills, now)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so rows can be written without
// checking each call.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, r int, vals []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &vals)
}

func (w *sheetWriter) style(sheet, from, to string, id int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(sheet, from, to, id)
	}
}

func (w *sheetWriter) width(sheet, from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, from, to, width)
	}
}

func tenantLabel(b billing.UtilityBill) string {
	if b.TenantName != "" {
		return b.TenantName
	}
	return b.TenantID
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
