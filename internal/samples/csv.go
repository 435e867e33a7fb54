package samples

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// SampleHeader is the column layout of a sample log.
var SampleHeader = []string{"t", "ax", "ay", "az", "gx", "gy", "gz", "mx", "my", "mz"}

// EstimateHeader is the column layout of an estimate log.
var EstimateHeader = []string{"t", "w", "x", "y", "z", "yaw", "pitch", "roll", "skipped"}

// ErrShortRecord is returned for a sample record with the wrong number of fields.
var ErrShortRecord = errors.New("wrong number of fields in sample record")

// Reader reads samples from a CSV log laid out as SampleHeader. A header line
// is optional and recognised by a non-numeric first field.
type Reader struct {
	csv   *csv.Reader
	first bool
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr, first: true}
}

// Next implements Source.
func (r *Reader) Next() (Sample, error) {
	record, err := r.csv.Read()
	if err != nil {
		return Sample{}, err
	}

	if r.first {
		r.first = false
		if len(record) > 0 {
			if _, err := strconv.ParseFloat(record[0], 64); err != nil {
				return r.Next()
			}
		}
	}

	line, _ := r.csv.FieldPos(0)
	if len(record) != len(SampleHeader) {
		return Sample{}, fmt.Errorf("line %d: %w: got %d, want %d", line, ErrShortRecord, len(record), len(SampleHeader))
	}

	var v [10]float64
	for i, field := range record {
		if v[i], err = strconv.ParseFloat(field, 64); err != nil {
			return Sample{}, fmt.Errorf("line %d: failed to parse %s: %w", line, SampleHeader[i], err)
		}
	}

	return Sample{
		T:    v[0],
		Acc:  vec(v[1], v[2], v[3]),
		Gyro: vec(v[4], v[5], v[6]),
		Mag:  vec(v[7], v[8], v[9]),
	}, nil
}

// ReadAll reads every sample from r.
func ReadAll(r io.Reader) ([]Sample, error) {
	reader := NewReader(r)
	var out []Sample
	for {
		s, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

// SampleWriter writes samples laid out as SampleHeader.
type SampleWriter struct {
	csv         *csv.Writer
	wroteHeader bool
}

// NewSampleWriter returns a SampleWriter writing to w.
func NewSampleWriter(w io.Writer) *SampleWriter {
	return &SampleWriter{csv: csv.NewWriter(w)}
}

// Write writes one sample, preceded by the header on the first call.
func (w *SampleWriter) Write(s Sample) error {
	if !w.wroteHeader {
		if err := w.csv.Write(SampleHeader); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.csv.Write([]string{
		formatFloat(s.T),
		formatFloat(s.Acc.X), formatFloat(s.Acc.Y), formatFloat(s.Acc.Z),
		formatFloat(s.Gyro.X), formatFloat(s.Gyro.Y), formatFloat(s.Gyro.Z),
		formatFloat(s.Mag.X), formatFloat(s.Mag.Y), formatFloat(s.Mag.Z),
	})
}

// Flush writes any buffered data and reports write errors.
func (w *SampleWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// EstimateWriter writes estimates laid out as EstimateHeader.
type EstimateWriter struct {
	csv         *csv.Writer
	wroteHeader bool
}

// NewEstimateWriter returns an EstimateWriter writing to w.
func NewEstimateWriter(w io.Writer) *EstimateWriter {
	return &EstimateWriter{csv: csv.NewWriter(w)}
}

// Write writes one estimate, preceded by the header on the first call.
func (w *EstimateWriter) Write(e Estimate) error {
	if !w.wroteHeader {
		if err := w.csv.Write(EstimateHeader); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.csv.Write([]string{
		formatFloat(e.T),
		formatFloat(e.Q.Real), formatFloat(e.Q.Imag), formatFloat(e.Q.Jmag), formatFloat(e.Q.Kmag),
		formatFloat(e.Yaw), formatFloat(e.Pitch), formatFloat(e.Roll),
		strconv.FormatBool(e.Skipped),
	})
}

// Flush writes any buffered data and reports write errors.
func (w *EstimateWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
