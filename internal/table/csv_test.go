// SPDX-License-Identifier: MIT
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"timbre/internal/analysis"
)

func TestWriteBins(t *testing.T) {
	bins := []complex128{complex(1, 0), complex(0.5, -2), complex(0, 0.25), complex(3, 4)}

	tests := []struct {
		kind analysis.ValueKind
		want string
	}{
		{analysis.Imag, "0,0\n1,-2\n2,0.25\n3,4\n"},
		{analysis.Real, "0,1\n1,0.5\n2,0\n3,3\n"},
		{analysis.Magnitude, "0,1\n1,2.0615528128088303\n2,0.25\n3,5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := w.WriteBins(bins, tt.kind); err != nil {
				t.Fatalf("WriteBins error: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close error: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if w.Rows() != len(bins) {
				t.Errorf("Rows() = %d, want %d", w.Rows(), len(bins))
			}
		})
	}
}

func TestWriteRowNonFinite(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.WriteRow(0, math.NaN())
	_ = w.WriteRow(1, math.Inf(1))
	_ = w.WriteRow(2, math.Inf(-1))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	want := "0,NaN\n1,+Inf\n2,-Inf\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteFileReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectrum.csv")
	bins, err := analysis.Analyze([]int{0, 0, 0, 0}, 4)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if err := WriteFile(path, bins, analysis.Imag); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d rows, want 4 (no header)", len(records))
	}
	for i, r := range records {
		if len(r) != 2 || r[0] != strconv.Itoa(i) {
			t.Fatalf("row %d = %v, want two fields starting with %d", i, r, i)
		}
		if v, err := strconv.ParseFloat(r[1], 64); err != nil || v != 0 {
			t.Errorf("row %d value = %q, want 0", i, r[1])
		}
	}
}

func TestCreateInMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	if _, err := Create(path); err == nil {
		t.Fatal("expected error creating table in a missing directory")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFlushReportsWriteError(t *testing.T) {
	w := NewWriter(failingWriter{})
	if err := w.WriteRow(0, 1); err != nil {
		t.Fatalf("WriteRow error before flush: %v", err)
	}
	if err := w.Close(); err == nil {
		t.Fatal("expected Close to report the write error")
	}
}

func BenchmarkWriteBins(b *testing.B) {
	bins := make([]complex128, 4096)
	for i := range bins {
		bins[i] = complex(float64(i), -float64(i)/3)
	}
	b.ReportAllocs()
	for b.Loop() {
		w := NewWriter(&bytes.Buffer{})
		_ = w.WriteBins(bins, analysis.Imag)
		_ = w.Flush()
	}
}
