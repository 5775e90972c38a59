package ptjpl

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// Tolerances of the regression comparison.
const (
	VerifyRelTol = 1e-5
	VerifyAbsTol = 1e-8
)

// Mismatch is one element outside tolerance.
type Mismatch struct {
	Index     int
	Model     float64
	Reference float64
}

// ColumnReport summarises the comparison of one output column.
type ColumnReport struct {
	Name       string
	Missing    bool
	Mismatches []Mismatch
	MaxDiff    float64
}

// VerifyReport is the result of comparing model outputs with a reference
// table.
type VerifyReport struct {
	Rows    int
	Columns []ColumnReport
}

// OK reports whether every column matched.
func (r *VerifyReport) OK() bool {
	for _, c := range r.Columns {
		if c.Missing || len(c.Mismatches) > 0 {
			return false
		}
	}
	return true
}

func (r *VerifyReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compared %d rows\n", r.Rows)
	for _, c := range r.Columns {
		switch {
		case c.Missing:
			fmt.Fprintf(&b, "%s: missing from reference\n", c.Name)
		case len(c.Mismatches) == 0:
			fmt.Fprintf(&b, "%s: ok\n", c.Name)
		default:
			fmt.Fprintf(&b, "%s: %d mismatches, max difference %g\n", c.Name, len(c.Mismatches), c.MaxDiff)
			for _, mm := range c.Mismatches {
				fmt.Fprintf(&b, "  row %d: model %g, reference %g\n", mm.Index, mm.Model, mm.Reference)
			}
		}
	}
	return b.String()
}

// Verify processes inputs with m and compares the output columns with
// reference. NaN matches NaN.
func Verify(ctx context.Context, m *Model, inputs, reference *Table) (*VerifyReport, error) {
	out, err := m.ProcessTable(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if reference.Rows != out.Rows {
		return nil, fmt.Errorf("reference has %d rows, inputs have %d", reference.Rows, out.Rows)
	}
	return CompareTables(out, reference, TableOutputColumns), nil
}

// CompareTables compares the named numeric columns of got against want.
func CompareTables(got, want *Table, columns []string) *VerifyReport {
	report := &VerifyReport{Rows: got.Rows}
	for _, name := range columns {
		g, w := got.Column(name), want.Column(name)
		c := ColumnReport{Name: name}
		if g == nil || w == nil {
			c.Missing = true
			report.Columns = append(report.Columns, c)
			continue
		}
		for i := range g {
			if withinTolerance(g[i], w[i]) {
				continue
			}
			c.Mismatches = append(c.Mismatches, Mismatch{Index: i, Model: g[i], Reference: w[i]})
			if d := math.Abs(g[i] - w[i]); d > c.MaxDiff || math.IsNaN(d) {
				c.MaxDiff = d
			}
		}
		report.Columns = append(report.Columns, c)
	}
	return report
}

func withinTolerance(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return scalar.EqualWithinAbsOrRel(a, b, VerifyAbsTol, VerifyRelTol)
}
