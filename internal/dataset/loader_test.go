package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

var header = []any{
	ColName, ColLaunchSite, ColLaunchDate, ColOwner, ColOrbitClass, ColOrbitType,
	ColPerigee, ColApogee, ColInclination, ColPeriod,
}

func buildWorkbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		r := row
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestReadXLSX(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"Sputnik 1", "Baikonur Cosmodrome", 21097, "Russia", "LEO", "Elliptical", 215, 939, 65.1, 96.2},
		[]any{},
		[]any{"Orphan", "", 21300, "USA"},
	)

	rows, err := ReadXLSX(buf)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (blank line skipped)", len(rows))
	}

	// Short rows are padded so every header column is present.
	if _, ok := rows[1][ColPeriod]; !ok {
		t.Errorf("short row missing padded column %q", ColPeriod)
	}

	records := Normalize(rows)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	r := records[0]
	if r.Date.Year() != 1957 || r.Date.Month() != 10 || r.Date.Day() != 4 {
		t.Errorf("Date = %v, want 1957-10-04", r.Date)
	}
	if r.Perigee != 215 || r.Apogee != 939 {
		t.Errorf("Perigee/Apogee = %v/%v, want 215/939", r.Perigee, r.Apogee)
	}
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	if _, err := ReadXLSX(strings.NewReader("definitely not a zip")); err == nil {
		t.Error("expected error for non-xlsx input")
	}
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Name of Satellite , Launch Site,Date of Launch,Perigee (km)",
		"Explorer 1,Cape Canaveral,1958-01-31,347",
		",,,",
		"Vanguard 1,Cape Canaveral,1958-03-17",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	// Header names are trimmed.
	if rows[0][ColName] != "Explorer 1" {
		t.Errorf("row 0 name = %v, want Explorer 1", rows[0][ColName])
	}
	if rows[1][ColPerigee] != "" {
		t.Errorf("missing cell = %v, want empty string", rows[1][ColPerigee])
	}
}

func TestLoad_Extensions(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "launches.csv")
	content := "Launch Site,Date of Launch\nKourou,1999-12-10\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	records, err := LoadRecords(csvPath)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 1 || records[0].LaunchSite != "Kourou" {
		t.Errorf("records = %+v, want one Kourou record", records)
	}

	jsonPath := filepath.Join(dir, "launches.json")
	if err := os.WriteFile(jsonPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(jsonPath); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.json) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.xlsx")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteRecordTable_FromNormalize(t *testing.T) {
	records := Normalize([]Row{
		{ColName: "Sputnik 1", ColLaunchSite: "Baikonur", ColLaunchDate: "1957-10-04"},
	})

	var buf bytes.Buffer
	WriteRecordTable(&buf, records)

	out := buf.String()
	if !strings.Contains(out, "1957-10-04") || !strings.Contains(out, "Sputnik 1") {
		t.Errorf("table missing record: %q", out)
	}
	if !strings.Contains(out, "Total: 1 launch records") {
		t.Errorf("table missing total: %q", out)
	}
}
