// SPDX-License-Identifier: MIT

// Package table writes spectral bins as a header-less CSV of
// (bin_index, value) rows.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"timbre/internal/analysis"
)

// Writer streams rows to an underlying io.Writer. Rows are buffered by the
// csv package and flushed on Flush or Close.
type Writer struct {
	csv    *csv.Writer
	closer io.Closer
	rows   int
	record [2]string
}

// NewWriter wraps w. The caller keeps ownership of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Create opens path for writing, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", path, err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// WriteRow writes one (index, value) row. Values use the shortest
// representation that round-trips, so NaN and ±Inf are written as
// "NaN", "+Inf" and "-Inf".
func (w *Writer) WriteRow(index int, value float64) error {
	w.record[0] = strconv.Itoa(index)
	w.record[1] = strconv.FormatFloat(value, 'g', -1, 64)
	if err := w.csv.Write(w.record[:]); err != nil {
		return fmt.Errorf("writing row %d: %w", index, err)
	}
	w.rows++
	return nil
}

// WriteBins writes one row per bin, deriving each value with kind.
func (w *Writer) WriteBins(bins []complex128, kind analysis.ValueKind) error {
	for k, c := range bins {
		if err := w.WriteRow(k, kind.Value(c)); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush writes any buffered rows and reports the first write error.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and, for writers made by Create, closes the file.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

// WriteFile writes bins to path in one call.
func WriteFile(path string, bins []complex128, kind analysis.ValueKind) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := w.WriteBins(bins, kind); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
