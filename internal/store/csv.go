// Package store writes batch results to files, databases and object storage.
package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/snappy"

	"github.com/Garsondee/Ward-Sense/internal/batch"
	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// Sink persists one batch result.
type Sink interface {
	Write(ctx context.Context, res *batch.Result) error
}

// Header is the raw table header: run index, step, then every metric column.
func Header() []string {
	return append([]string{"iteration", "Step"}, sim.MetricColumns...)
}

// FileName is the conventional raw-data file name for a variant.
func FileName(v sim.Variant) string {
	switch v {
	case sim.NoWard:
		return "no_ward_data.csv"
	case sim.Ward:
		return "ward_data.csv"
	case sim.PatientAssignment:
		return "patient_assignment_data.csv"
	case sim.AdmissionWard:
		return "admission_ward_data.csv"
	case sim.AdmissionPatientAssignment:
		return "admission_assignment_data.csv"
	default:
		return v.String() + "_data.csv"
	}
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []batch.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("csv: header: %w", err)
	}
	rec := make([]string, 0, 2+len(sim.MetricColumns))
	for _, row := range rows {
		rec = rec[:0]
		rec = append(rec, strconv.Itoa(row.Iteration), strconv.Itoa(row.Step))
		for _, v := range row.Metrics.Values() {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: row %d/%d: %w", row.Iteration, row.Step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVSink writes each variant's rows to Dir/FileName(variant). With Snappy
// set the file is snappy-framed and gets a ".sz" suffix.
type CSVSink struct {
	Dir    string
	Snappy bool
}

// Path is where Write puts the rows of v.
func (s CSVSink) Path(v sim.Variant) string {
	name := FileName(v)
	if s.Snappy {
		name += ".sz"
	}
	return filepath.Join(s.Dir, name)
}

func (s CSVSink) Write(_ context.Context, res *batch.Result) (err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("csv: mkdir %s: %w", s.Dir, err)
	}
	path := s.Path(res.Variant)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("csv: close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	var out io.Writer = bw
	var sw *snappy.Writer
	if s.Snappy {
		sw = snappy.NewBufferedWriter(bw)
		out = sw
	}
	if err := WriteCSV(out, res.Rows); err != nil {
		return fmt.Errorf("csv: %s: %w", path, err)
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			return fmt.Errorf("csv: snappy close %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("csv: flush %s: %w", path, err)
	}
	return nil
}

// OpenCSV opens a file written by CSVSink, undoing snappy framing when the
// name ends in ".sz".
func OpenCSV(path string) (*csv.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(path) == ".sz" {
		r = snappy.NewReader(r)
	}
	return csv.NewReader(r), f, nil
}
