// Package dataset reads and writes labeled data in the svmlight sparse text
// format:
//
//	<label> <index>:<value> <index>:<value> ... # comment
//
// Feature indexes are 1-based in the file and 0-based in the loaded matrix.
// Omitted features are zero. Blank lines and full-line comments are skipped.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// Set is a labeled data set: one row of X and one entry of Y per instance.
type Set struct {
	X *mat.Dense
	Y []float64
}

// NumInstances returns the number of rows.
func (s *Set) NumInstances() int {
	return len(s.Y)
}

// NumFeatures returns the number of columns.
func (s *Set) NumFeatures() int {
	if s.X == nil {
		return 0
	}
	_, c := s.X.Dims()
	return c
}

// ReadOption configures Read.
type ReadOption func(*readConfig)

type readConfig struct {
	columns int
}

// WithColumns fixes the width of the loaded matrix, typically to a trained
// model's attribute count. Instances indexing past it are rejected; without
// this option the width is the largest index seen.
func WithColumns(n int) ReadOption {
	return func(c *readConfig) {
		c.columns = n
	}
}

// ReadFile loads a svmlight file.
func ReadFile(path string, opts ...ReadOption) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %q", path)
	}
	defer func() { _ = file.Close() }()

	set, err := Read(file, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: read %q", path)
	}
	return set, nil
}

type sparseRow struct {
	label   float64
	indexes []int
	values  []float64
}

// Read loads svmlight lines from r.
func Read(r io.Reader, opts ...ReadOption) (*Set, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var rows []sparseRow
	maxIndex := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.NewValueError("dataset.Read",
				fmt.Sprintf("line %d: invalid label %q", lineNo, fields[0]))
		}

		row := sparseRow{
			label:   label,
			indexes: make([]int, 0, len(fields)-1),
			values:  make([]float64, 0, len(fields)-1),
		}
		for _, field := range fields[1:] {
			colon := strings.IndexByte(field, ':')
			if colon <= 0 {
				return nil, errors.NewValueError("dataset.Read",
					fmt.Sprintf("line %d: invalid feature %q, want index:value", lineNo, field))
			}
			index, err := strconv.Atoi(field[:colon])
			if err != nil || index < 1 {
				return nil, errors.NewValueError("dataset.Read",
					fmt.Sprintf("line %d: invalid feature index %q", lineNo, field[:colon]))
			}
			value, err := strconv.ParseFloat(field[colon+1:], 64)
			if err != nil {
				return nil, errors.NewValueError("dataset.Read",
					fmt.Sprintf("line %d: invalid feature value %q", lineNo, field[colon+1:]))
			}
			if index > maxIndex {
				maxIndex = index
			}
			row.indexes = append(row.indexes, index)
			row.values = append(row.values, value)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "dataset.Read")
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.Read")
	}

	columns := maxIndex
	if cfg.columns > 0 {
		if maxIndex > cfg.columns {
			return nil, errors.NewDimensionError("dataset.Read", cfg.columns, maxIndex, 1)
		}
		columns = cfg.columns
	}

	set := &Set{
		X: mat.NewDense(len(rows), columns, nil),
		Y: make([]float64, len(rows)),
	}
	for i, row := range rows {
		set.Y[i] = row.label
		for k, index := range row.indexes {
			set.X.Set(i, index-1, row.values[k])
		}
	}
	return set, nil
}

// WriteFile saves a set as a svmlight file.
func WriteFile(path string, set *Set) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create %q", path)
	}
	defer func() { _ = file.Close() }()

	if err := Write(file, set); err != nil {
		return errors.Wrapf(err, "dataset: write %q", path)
	}
	return nil
}

// Write writes the set as svmlight lines, omitting zero-valued features.
func Write(w io.Writer, set *Set) error {
	if set == nil || set.X == nil {
		return errors.NewValueError("dataset.Write", "nil set")
	}
	rows, cols := set.X.Dims()
	if rows != len(set.Y) {
		return errors.NewDimensionError("dataset.Write", len(set.Y), rows, 0)
	}

	bw := bufio.NewWriter(w)
	for i := 0; i < rows; i++ {
		if _, err := bw.WriteString(formatValue(set.Y[i])); err != nil {
			return errors.Wrap(err, "dataset.Write")
		}
		for j := 0; j < cols; j++ {
			v := set.X.At(i, j)
			if v == 0 {
				continue
			}
			if _, err := fmt.Fprintf(bw, " %d:%s", j+1, formatValue(v)); err != nil {
				return errors.Wrap(err, "dataset.Write")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "dataset.Write")
		}
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
