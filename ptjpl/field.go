package ptjpl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// Field is a physical quantity sampled elementwise. A Field of length 1 is a
// scalar and broadcasts against fields of any length. Grids are stored
// flattened in row-major order; their shape is carried by Geometry.
type Field []float64

// Scalar returns a broadcastable single-value field.
func Scalar(v float64) Field {
	return Field{v}
}

// Series returns a field holding one value per sample.
func Series(vs ...float64) Field {
	return append(Field{}, vs...)
}

// Filled returns a field of length n with every element set to v.
func Filled(n int, v float64) Field {
	f := make(Field, n)
	for i := range f {
		f[i] = v
	}
	return f
}

// NaNs returns a field of length n holding only NaN.
func NaNs(n int) Field {
	return Filled(n, math.NaN())
}

func (f Field) Len() int {
	return len(f)
}

func (f Field) IsScalar() bool {
	return len(f) == 1
}

// At returns element i, broadcasting scalars.
func (f Field) At(i int) float64 {
	if len(f) == 1 {
		return f[0]
	}
	return f[i]
}

func (f Field) Clone() Field {
	if f == nil {
		return nil
	}
	return append(Field{}, f...)
}

// CountNaN returns the number of NaN elements.
func (f Field) CountNaN() int {
	return floats.Count(math.IsNaN, f)
}

// MarshalJSON writes NaN elements as null. JSON has no infinity, so ±Inf is
// written as null too and decodes as NaN.
func (f Field) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either a number or an array of numbers. Null array
// elements become NaN; a bare null leaves the field absent.
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = nil
		return nil
	}
	if len(b) > 0 && b[0] != '[' {
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("ptjpl: field: %w", err)
		}
		*f = Field{v}
		return nil
	}
	var vs []*float64
	if err := json.Unmarshal(b, &vs); err != nil {
		return fmt.Errorf("ptjpl: field: %w", err)
	}
	out := make(Field, len(vs))
	for i, v := range vs {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*f = out
	return nil
}

// broadcastLen returns the common length of the given fields. Nil fields are
// ignored and scalars broadcast.
func broadcastLen(named map[string]Field) (int, error) {
	n := 1
	var first string
	for name, f := range named {
		if f == nil || len(f) == 1 {
			continue
		}
		if len(f) == 0 {
			return 0, &ShapeError{Name: name, Len: 0, Want: n}
		}
		if n == 1 {
			n = len(f)
			first = name
			continue
		}
		if len(f) != n {
			return 0, &ShapeError{Name: name, Len: len(f), Want: n, Other: first}
		}
	}
	return n, nil
}

// mapN evaluates fn for every element of an n-length result.
func mapN(n int, fn func(i int) float64) Field {
	out := make(Field, n)
	for i := range out {
		out[i] = fn(i)
	}
	return out
}

func resultLen(fs ...Field) int {
	n := 1
	for _, f := range fs {
		if len(f) > n {
			n = len(f)
		}
	}
	return n
}

// map1 applies fn elementwise.
func map1(a Field, fn func(a float64) float64) Field {
	return mapN(len(a), func(i int) float64 { return fn(a[i]) })
}

// map2 applies fn elementwise with broadcasting.
func map2(a, b Field, fn func(a, b float64) float64) Field {
	return mapN(resultLen(a, b), func(i int) float64 { return fn(a.At(i), b.At(i)) })
}

// clip bounds v to [lo, hi]. NaN passes through.
func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floor returns max(v, lo) keeping NaN.
func floor(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}
