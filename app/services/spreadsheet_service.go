package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet service error constants
var (
	ErrUnsupportedFile = errors.New("unsupported spreadsheet file type")
	ErrNoDataRows      = errors.New("spreadsheet contains no data rows")
)

// ParsedRow is one spreadsheet row with its detected contact fields
type ParsedRow struct {
	Index int
	Data  map[string]any
	Email string
	Phone string
}

// ParsedSheet is the parsed spreadsheet: the header row in file order plus
// one ParsedRow per data row.
type ParsedSheet struct {
	Headers []string
	Rows    []ParsedRow
}

// SpreadsheetService parses uploaded tabular files into rows
type SpreadsheetService interface {
	Parse(fileName string, content []byte) (*ParsedSheet, error)
}

// SpreadsheetServiceImpl implements SpreadsheetService for CSV and XLSX files
type SpreadsheetServiceImpl struct{}

// NewSpreadsheetService creates a new spreadsheet service
func NewSpreadsheetService() SpreadsheetService {
	return &SpreadsheetServiceImpl{}
}

// Parse reads the file into rows, detecting contact columns by header name
func (s *SpreadsheetServiceImpl) Parse(fileName string, content []byte) (*ParsedSheet, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		records, err = parseCSV(content)
	case ".xlsx":
		records, err = parseXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, ErrNoDataRows
	}

	headers := records[0]
	emailCol := detectEmailColumn(headers)
	phoneCol := detectPhoneColumn(headers)

	rows := make([]ParsedRow, 0, len(records)-1)
	for i, record := range records[1:] {
		data := make(map[string]any, len(headers))
		for j, header := range headers {
			if j < len(record) {
				data[header] = record[j]
			} else {
				data[header] = ""
			}
		}

		row := ParsedRow{Index: i, Data: data}
		if emailCol >= 0 && emailCol < len(record) {
			row.Email = strings.TrimSpace(record[emailCol])
		}
		if phoneCol >= 0 && phoneCol < len(record) {
			row.Phone = strings.TrimSpace(record[phoneCol])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	return &ParsedSheet{Headers: headers, Rows: rows}, nil
}

func parseCSV(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	return records, nil
}

func parseXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoDataRows
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read XLSX rows: %w", err)
	}

	return rows, nil
}

// detectEmailColumn returns the index of the first column whose name
// contains "email" or "mail", or -1 when none matches.
func detectEmailColumn(headers []string) int {
	for i, h := range headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "email") || strings.Contains(lower, "mail") {
			return i
		}
	}
	return -1
}

// detectPhoneColumn returns the index of the first column whose name looks
// like a phone column, or -1 when none matches.
func detectPhoneColumn(headers []string) int {
	keywords := []string{"phone", "mobile", "whatsapp", "cell", "contact_number"}
	for i, h := range headers {
		lower := strings.ToLower(h)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}
