package ptjpl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the defined elements of a field.
type Summary struct {
	N      int
	NaN    int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes statistics over the non-NaN elements of f. Statistics of
// a field with no defined elements are NaN.
func Summarize(f Field) Summary {
	defined := make([]float64, 0, len(f))
	for _, v := range f {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	s := Summary{N: len(f), NaN: len(f) - len(defined)}
	if len(defined) == 0 {
		s.Min, s.Max, s.Mean, s.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min = floats.Min(defined)
	s.Max = floats.Max(defined)
	if len(defined) == 1 {
		s.Mean, s.StdDev = defined[0], 0
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(defined, nil)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d nan=%d min=%.4g max=%.4g mean=%.4g sd=%.4g", s.N, s.NaN, s.Min, s.Max, s.Mean, s.StdDev)
}
