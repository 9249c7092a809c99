// Package dataio reads and writes sample matrices as CSV, one sample per row.
package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrEmptyTable = errors.New("csv table has no data rows")

type ReadOptions struct {
	// Header skips the first record. When false, a first record that does
	// not parse as numbers is treated as a header anyway.
	Header bool
	// Columns selects a subset of columns by index. Nil keeps all.
	Columns []int
}

func ReadCSV(in io.Reader, opts ReadOptions) (*mat.Dense, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		data  []float64
		cols  = -1
		rows  int
		index int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", index+1, err)
		}
		index++
		if blankRecord(record) {
			continue
		}
		if index == 1 && opts.Header {
			continue
		}
		if opts.Columns != nil {
			record, err = selectColumns(record, opts.Columns, index)
			if err != nil {
				return nil, err
			}
		}
		values, err := parseRecord(record, index)
		if err != nil {
			if rows == 0 && index == 1 {
				continue
			}
			return nil, err
		}
		if cols == -1 {
			cols = len(values)
		} else if len(values) != cols {
			return nil, fmt.Errorf("csv row %d has %d columns, want %d", index, len(values), cols)
		}
		data = append(data, values...)
		rows++
	}
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyTable
	}
	return mat.NewDense(rows, cols, data), nil
}

func ReadCSVFile(path string, opts ReadOptions) (*mat.Dense, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csv path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteCSV writes m row by row using the shortest float representation.
func WriteCSV(out io.Writer, m mat.Matrix, header []string) error {
	rows, cols := m.Dims()
	if header != nil && len(header) != cols {
		return fmt.Errorf("csv header has %d names for %d columns", len(header), cols)
	}
	writer := csv.NewWriter(out)
	if header != nil {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteCSVFile(path string, m mat.Matrix, header []string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("csv path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, m, header); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ColumnNames returns prefix0..prefix{n-1}.
func ColumnNames(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strconv.Itoa(i)
	}
	return out
}

func parseRecord(record []string, index int) ([]float64, error) {
	values := make([]float64, len(record))
	for i, raw := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parse csv row %d column %d: %w", index, i, err)
		}
		values[i] = v
	}
	return values, nil
}

func selectColumns(record []string, columns []int, index int) ([]string, error) {
	out := make([]string, len(columns))
	for i, c := range columns {
		if c < 0 || c >= len(record) {
			return nil, fmt.Errorf("csv row %d has no column %d", index, c)
		}
		out[i] = record[c]
	}
	return out, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
