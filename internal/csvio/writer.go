package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer emits records under a fixed header with standard CSV quoting.
type Writer struct {
	w       *csv.Writer
	columns int
}

// NewWriter writes header immediately.
func NewWriter(w io.Writer, header []string) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: cw, columns: len(header)}, nil
}

func (w *Writer) Write(fields []string) error {
	if len(fields) != w.columns {
		return fmt.Errorf("record has %d fields, header has %d", len(fields), w.columns)
	}
	return w.w.Write(fields)
}

// Flush must be called once all records are written.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
