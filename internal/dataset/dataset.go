package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/phishscan/internal/feature"
)

// Label values used by the dataset.
const (
	LabelPhishing   = -1
	LabelLegitimate = 1
)

var (
	indexColumns = []string{"Index", "index", "id", "ID"}
	labelColumns = []string{"class", "Result"}
)

// Dataset is a labeled feature matrix laid out in schema order.
type Dataset struct {
	// Schema defines the column order of X.
	Schema *feature.Schema

	// X holds one row of indicator values per sample.
	X [][]float64

	// Y holds the label of each row.
	Y []int
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// ClassCounts returns the number of samples per label.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, y := range d.Y {
		counts[y]++
	}
	return counts
}

// Classes returns the distinct labels in ascending order.
func (d *Dataset) Classes() []int {
	classes := make([]int, 0, 2)
	for y := range d.ClassCounts() {
		classes = append(classes, y)
	}
	slices.Sort(classes)
	return classes
}

// Subset returns the rows at idx. Rows are shared, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Schema: d.Schema,
		X:      make([][]float64, len(idx)),
		Y:      make([]int, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// LoadCSV reads a dataset file.
func LoadCSV(path string, schema *feature.Schema) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // dataset path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, schema)
}

// ReadCSV parses a dataset from r. Columns are located by header name so a
// reordered file still yields vectors in schema order; unknown columns other
// than the index and the label are ignored.
//
// Cells must be -1, 0 or 1. The per-indicator domain is not enforced here:
// published exports use Neutral in a few columns the extractor treats as
// binary, and such values score through the trees normally.
func ReadCSV(r io.Reader, schema *feature.Schema) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range indexColumns {
		delete(positions, name)
	}

	labelCol := -1
	for _, name := range labelColumns {
		if i, ok := positions[name]; ok {
			labelCol = i
			break
		}
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("%w: expected one of %v", ErrMissingLabel, labelColumns)
	}

	columns := make([]int, schema.Len())
	for i, name := range schema.Names() {
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		columns[i] = pos
	}

	ds := &Dataset{Schema: schema}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		label, err := parseInt(record[labelCol])
		if err != nil || (label != LabelPhishing && label != LabelLegitimate) {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidLabel, line, record[labelCol])
		}

		row := make([]float64, len(columns))
		for i, pos := range columns {
			v, err := parseInt(record[pos])
			if err != nil || v < int(feature.Suspicious) || v > int(feature.Legitimate) {
				return nil, fmt.Errorf("%w: line %d column %s: %q", ErrInvalidValue, line, schema.Spec(i).Name, record[pos])
			}
			row[i] = float64(v)
		}

		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}

	if ds.Len() == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

// parseInt accepts integers written as "1", "-1" or "1.0".
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
