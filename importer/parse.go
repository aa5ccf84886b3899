package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PreviewRowLimit is how many data rows a preview carries back to the caller.
const PreviewRowLimit = 5

// Preview is the bounded first look at an import file: the header, the first
// few mapped rows and the total data row count.
type Preview struct {
	Header    []string      `json:"header"`
	Rows      []GuestRecord `json:"rows"`
	TotalRows int           `json:"total_rows"`
}

// Parse reads an entire import file into GuestRecords. CSV input is consumed
// row at a time; spreadsheet input loads the first sheet into memory before
// mapping. Rows whose cell count does not match the header are skipped.
// Legacy .xls (BIFF) workbooks are rejected up front: the spreadsheet reader
// only understands zip-based .xlsx containers.
func Parse(r io.Reader, filename string) ([]GuestRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	case ".xls":
		return nil, fmt.Errorf("legacy .xls workbooks are not supported; re-save the file as .xlsx")
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", ext)
	}
}

// ParsePreview reads the file once, returning the first PreviewRowLimit rows
// together with the full row count.
func ParsePreview(r io.Reader, filename string) (*Preview, error) {
	records, err := Parse(r, filename)
	if err != nil {
		return nil, err
	}

	preview := &Preview{TotalRows: len(records)}
	n := len(records)
	if n > PreviewRowLimit {
		n = PreviewRowLimit
	}
	preview.Rows = records[:n]
	preview.Header = []string{colTitle, colFirstName, colLastName, colEmail, colPhone, colRole}
	return preview, nil
}

func parseCSV(r io.Reader) ([]GuestRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Rows with the wrong cell count are skipped, not fatal
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	var records []GuestRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row: %w", err)
		}
		if len(row) != len(header) {
			continue // skip malformed rows
		}

		data := make(map[string]string, len(header))
		for i, col := range header {
			data[col] = row[i]
		}
		records = append(records, recordFromRow(data))
	}

	return records, nil
}

func parseXLSX(r io.Reader) ([]GuestRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	// Only the first sheet is imported.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := rows[0]
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	var records []GuestRecord
	for _, row := range rows[1:] {
		data := make(map[string]string, len(header))
		for i, col := range header {
			// excelize trims trailing empty cells, so short rows are
			// padded with blanks rather than skipped
			if i < len(row) {
				data[col] = row[i]
			}
		}
		records = append(records, recordFromRow(data))
	}

	return records, nil
}
