package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

func TestRender(t *testing.T) {
	now := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	lines := billing.BuildLines(
		[]billing.MeteredLine{{UtilityType: billing.Electricity, PreviousReading: 1200, CurrentReading: 1250, Rate: 15}},
		[]billing.ServiceLine{{UtilityType: billing.WaterJar, Quantity: 2, Rate: 50}},
	)
	bills := []billing.UtilityBill{{
		ID: "b1", TenantName: "Asha Rai", BillingMonth: "2026-10",
		DueDate: time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC), Status: billing.StatusSent,
		Lines: lines, TotalAmount: 850,
	}}

	data, err := Render(bills, now)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(BillsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "b1" || rows[1][1] != "Asha Rai" {
		t.Fatalf("unexpected bill rows %v", rows)
	}
	if rows[1][6] != string(billing.StatusOverdue) {
		t.Errorf("status = %q, want overdue", rows[1][6])
	}

	lineRows, err := f.GetRows(LinesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(lineRows) != 3 {
		t.Fatalf("expected header + 2 lines, got %v", lineRows)
	}
	if lineRows[1][1] != "electricity" || lineRows[1][2] != "metered" || lineRows[2][2] != "flat" {
		t.Errorf("unexpected line rows %v", lineRows)
	}
}
