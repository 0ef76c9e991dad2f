package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv input is empty")

// ErrInvalidEncoding is returned when the input is not valid UTF-8.
var ErrInvalidEncoding = errors.New("csv input is not valid UTF-8")

// SchemaError reports required columns absent from the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("Missing required columns: %s", strings.Join(e.Missing, ", "))
}

// HeaderIndex maps a lower-cased column name to its position.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex. When a name repeats, the first wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Row is one data record with its 1-based line number in the source file.
type Row struct {
	Line   int
	fields []string
	header HeaderIndex
}

// Get returns the trimmed cell for column, or "" if the row is short.
func (r Row) Get(column string) string {
	pos, ok := r.header[strings.ToLower(column)]
	if !ok || pos >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[pos])
}

// Table is a parsed file whose header satisfied the required columns.
type Table struct {
	Header HeaderIndex
	Rows   []Row
}

// Parse reads all of data and validates its header against required.
// It returns ErrEmptyInput, ErrInvalidEncoding, a *SchemaError, or a
// wrapped *csv.ParseError.
func Parse(data []byte, required []string) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := ValidateHeaders(header, required)
	if err != nil {
		return nil, err
	}

	table := &Table{Header: idx}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, fields: record, header: idx})
	}
	return table, nil
}

// ValidateHeaders returns the header index, or a *SchemaError naming every
// required column that is absent.
func ValidateHeaders(header []string, required []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string
	for _, col := range required {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}
