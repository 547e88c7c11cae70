package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoSheet is returned for a workbook without worksheets.
	ErrNoSheet = errors.New("workbook has no sheets")

	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Load reads the rows of a dataset file. The format follows the extension:
// .xlsx (first worksheet) or .csv. The first row holds column names.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadRecords loads and normalizes a dataset file.
func LoadRecords(path string) ([]LaunchRecord, error) {
	rows, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Normalize(rows), nil
}

// ReadXLSX reads the first worksheet of a workbook. Cells are read raw, so
// date cells arrive as Excel serial numbers rather than locale-formatted
// text.
func ReadXLSX(r io.Reader) ([]Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	grid, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromGrid(grid), nil
}

// ReadCSV reads a comma-separated dataset with a header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are padded below
	cr.LazyQuotes = true

	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromGrid(grid), nil
}

// rowsFromGrid maps every data line onto the header. Short lines are padded
// with "" and blank lines are skipped.
func rowsFromGrid(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}

	header := make([]string, len(grid[0]))
	for i, name := range grid[0] {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, line := range grid[1:] {
		if isBlank(line) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			value := ""
			if i < len(line) {
				value = line[i]
			}
			row[name] = value
		}
		rows = append(rows, row)
	}
	return rows
}

func isBlank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
