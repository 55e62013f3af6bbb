package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"helper-admin.kz/internal/stats"
)

func TestWriteMonthly(t *testing.T) {
	rows := []stats.MonthlyRow{
		{Month: "Jan 2025", Revenue: 1000, Commission: 100, Orders: 2, AvgOrderValue: 500},
		{Month: "Feb 2025", Revenue: 3000, Commission: 300, Orders: 1, AvgOrderValue: 3000},
	}
	var buf bytes.Buffer
	if err := WriteMonthly(&buf, rows, "Helper: выручка"); err != nil {
		t.Fatalf("WriteMonthly: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != monthlySheet {
		t.Errorf("листы = %v", got)
	}
	checks := map[string]string{
		"A1": "Helper: выручка",
		"A3": "Месяц",
		"A4": "Jan 2025",
		"A5": "Feb 2025",
		"A6": "Итого",
		"D6": "3",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(monthlySheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}
