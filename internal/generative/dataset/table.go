// Package dataset provides the training statistics the distributions are
// fitted from: an in-memory columnar Table, a SQL-backed loader and the
// dataset info file carrying the atom decoder and node-count histogram.
package dataset

import (
	"fmt"
	"sort"

	"github.com/turtacn/molgen/pkg/errors"
)

// Table is an in-memory columnar training set.  NumAtoms and every property
// column are parallel sequences indexed by example.
type Table struct {
	numAtoms []int
	columns  map[string][]float64
}

// NewTable validates that every column has one value per example.
func NewTable(numAtoms []int, columns map[string][]float64) (*Table, error) {
	if len(numAtoms) == 0 {
		return nil, errors.ConfigurationError("dataset has no examples")
	}
	for i, n := range numAtoms {
		if n < 0 {
			return nil, errors.ConfigurationError("num_atoms must be non-negative").WithDetail(fmt.Sprintf("row=%d", i))
		}
	}
	cols := make(map[string][]float64, len(columns))
	for name, values := range columns {
		if len(values) != len(numAtoms) {
			return nil, errors.ConfigurationError("column length does not match num_atoms").
				WithDetail(fmt.Sprintf("column=%s rows=%d num_atoms=%d", name, len(values), len(numAtoms)))
		}
		cols[name] = values
	}
	return &Table{numAtoms: numAtoms, columns: cols}, nil
}

// NumAtoms returns the node count of every example.
func (t *Table) NumAtoms() []int { return t.numAtoms }

// Column returns the named property column.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Len returns the number of examples.
func (t *Table) Len() int { return len(t.numAtoms) }

// ColumnNames returns the property column names, sorted.
func (t *Table) ColumnNames() []string {
	out := make([]string, 0, len(t.columns))
	for name := range t.columns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NodeCountHistogram counts examples per node count.
func (t *Table) NodeCountHistogram() map[int]int {
	out := make(map[int]int)
	for _, n := range t.numAtoms {
		out[n]++
	}
	return out
}

//Personal.AI order the ending
