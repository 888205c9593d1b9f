package billing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestComputeMeteredAmount(t *testing.T) {
	tests := []struct {
		name string
		line MeteredLine
		want float64
	}{
		{"normal usage", MeteredLine{Electricity, 100, 150, 15}, 750},
		{"meter decreased clamps to zero", MeteredLine{Electricity, 150, 100, 15}, 0},
		{"no usage", MeteredLine{FloorHeating, 40, 40, 9}, 0},
		{"from zero", MeteredLine{CarCharging, 0, 50, 15}, 750},
		{"negative rate coerces to zero", MeteredLine{Electricity, 0, 10, -3}, 0},
		{"NaN reading coerces to zero", MeteredLine{Electricity, math.NaN(), 10, 2}, 20},
		{"infinite rate coerces to zero", MeteredLine{Electricity, 0, 10, math.Inf(1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMeteredAmount(tt.line)
			if got != tt.want {
				t.Errorf("ComputeMeteredAmount() = %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Errorf("amount must never be negative, got %v", got)
			}
		})
	}
}

func TestComputeServiceAmount(t *testing.T) {
	if got := ComputeServiceAmount(ServiceLine{WaterJar, 3, 50}); got != 150 {
		t.Fatalf("ComputeServiceAmount() = %v, want 150", got)
	}
	if got := ComputeServiceAmount(ServiceLine{Gas, -2, 50}); got != 0 {
		t.Fatalf("negative quantity should coerce to 0, got %v", got)
	}
}

func TestComputeGrandTotal(t *testing.T) {
	metered := []MeteredLine{{Electricity, 100, 150, 15}, {FloorHeating, 10, 10, 4}}
	services := []ServiceLine{{WaterJar, 3, 50}, {CleaningService, 0, 200}}

	total := ComputeGrandTotal(metered, services)
	if total != 900 {
		t.Fatalf("ComputeGrandTotal() = %v, want 900", total)
	}
	if got := FormatCurrency(total); got != "Rs. 900.00" {
		t.Fatalf("FormatCurrency() = %q, want %q", got, "Rs. 900.00")
	}
}

func TestBuildLinesDropsZeroUsage(t *testing.T) {
	metered := []MeteredLine{{Electricity, 0, 50, 15}, {FloorHeating, 10, 10, 4}}
	services := []ServiceLine{{WaterJar, 2, 50}, {Gas, 0, 300}}

	lines := BuildLines(metered, services)
	if len(lines) != 2 {
		t.Fatalf("expected 2 persisted lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Kind != KindMetered || lines[0].Consumption != 50 || lines[0].Amount != 750 {
		t.Errorf("unexpected metered line: %+v", lines[0])
	}
	if lines[1].Kind != KindFlat || lines[1].Amount != 100 {
		t.Errorf("unexpected flat line: %+v", lines[1])
	}
	if SumLines(lines) != ComputeGrandTotal(metered, services) {
		t.Errorf("line sum %v != grand total %v", SumLines(lines), ComputeGrandTotal(metered, services))
	}

	preview := PreviewLines(metered, services)
	if len(preview) != 4 {
		t.Fatalf("preview should keep zero lines, got %d", len(preview))
	}
}

func TestSplitLinesUsesKind(t *testing.T) {
	// A custom flat service whose name looks like nothing known must still
	// come back as a service line.
	lines := BuildLines(
		[]MeteredLine{{CarCharging, 5, 25, 10}},
		[]ServiceLine{{UtilityType("laundry"), 4, 30}},
	)
	metered, services := SplitLines(lines)
	if len(metered) != 1 || metered[0].CurrentReading != 25 {
		t.Fatalf("unexpected metered split: %+v", metered)
	}
	if len(services) != 1 || services[0].UtilityType != "laundry" || services[0].Quantity != 4 {
		t.Fatalf("unexpected service split: %+v", services)
	}
}

func TestUtilityLineDecodeWithoutKind(t *testing.T) {
	raw := `[{"utilityType":"electricity","previousReading":1,"currentReading":3,"rate":2,"amount":4},
	         {"utilityType":"water_jar","quantity":2,"rate":50,"amount":100}]`
	var lines []UtilityLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if lines[0].Kind != KindMetered || lines[1].Kind != KindFlat {
		t.Fatalf("kinds not derived: %+v", lines)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{"", 0, nil},
		{"  12.5 ", 12.5, nil},
		{"abc", 0, ErrInvalidNumber},
		{"NaN", 0, ErrInvalidNumber},
		{"-1", 0, ErrNegativeNumber},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseAmount(%q) err = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDisplayStatusAndActions(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sent := UtilityBill{Status: StatusSent, DueDate: now.Add(-24 * time.Hour)}
	if got := DisplayStatus(sent, now); got != StatusOverdue {
		t.Errorf("DisplayStatus() = %s, want overdue", got)
	}
	sent.DueDate = now.Add(24 * time.Hour)
	if got := DisplayStatus(sent, now); got != StatusSent {
		t.Errorf("DisplayStatus() = %s, want sent", got)
	}

	paid := UtilityBill{Status: StatusPaid, DueDate: now.Add(-24 * time.Hour)}
	if got := DisplayStatus(paid, now); got != StatusPaid {
		t.Errorf("paid bill must not display overdue, got %s", got)
	}
	for _, a := range Actions(paid) {
		if a == ActionMarkPaid || a == ActionEdit {
			t.Errorf("paid bill offered %s", a)
		}
	}
	if got := Actions(sent); len(got) != 3 {
		t.Errorf("sent bill actions = %v, want edit, mark_paid, delete", got)
	}
}

func TestPeriodForMonth(t *testing.T) {
	p, err := PeriodForMonth("2024-02")
	if err != nil {
		t.Fatalf("PeriodForMonth: %v", err)
	}
	if p.StartDate.Day() != 1 || p.EndDate.Day() != 29 {
		t.Fatalf("unexpected period %v - %v", p.StartDate, p.EndDate)
	}
	if _, err := PeriodForMonth("Feb 2024"); err == nil {
		t.Fatal("expected error for malformed month")
	}
}

func TestAmountDecodesNumbersAndText(t *testing.T) {
	var line struct {
		Reading Amount `json:"reading"`
		Rate    Amount `json:"rate"`
		Unused  Amount `json:"unused"`
	}
	if err := json.Unmarshal([]byte(`{"reading":"1250.5","rate":15,"unused":""}`), &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line.Reading != 1250.5 || line.Rate != 15 || line.Unused != 0 {
		t.Fatalf("unexpected values %+v", line)
	}
	for _, bad := range []string{`{"reading":"abc"}`, `{"reading":"-3"}`, `{"reading":-3}`} {
		if err := json.Unmarshal([]byte(bad), &line); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}
