// Package sebal estimates soil heat flux with the empirical SEBAL relation.
package sebal

import (
	"context"

	"github.com/udawtr/ptjpl-go/ptjpl"
)

// SEBAL regression coefficients.
const (
	Coeff1 = 0.0038
	Coeff2 = 0.0074
)

// Model implements ptjpl.SoilHeatFlux.
type Model struct{}

var _ ptjpl.SoilHeatFlux = Model{}

// SoilHeatFlux returns
//
//	G = max(Rn * ST * (0.0038 + 0.0074 * albedo) * (1 - 0.98 * NDVI^4), 0)
//
// with ST in Celsius. NaN inputs give NaN.
func (Model) SoilHeatFlux(ctx context.Context, Rn, ST, NDVI, albedo ptjpl.Field) (ptjpl.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := 1
	for _, f := range []ptjpl.Field{Rn, ST, NDVI, albedo} {
		if len(f) > 1 {
			if n > 1 && len(f) != n {
				return nil, &ptjpl.ShapeError{Name: "soil heat flux inputs", Len: len(f), Want: n}
			}
			n = len(f)
		}
	}
	G := make(ptjpl.Field, n)
	for i := range G {
		G[i] = SoilHeatFlux(Rn.At(i), ST.At(i), NDVI.At(i), albedo.At(i))
	}
	return G, nil
}

// SoilHeatFlux is the elementwise SEBAL relation.
func SoilHeatFlux(Rn, ST, NDVI, albedo float64) float64 {
	ndvi2 := NDVI * NDVI
	G := Rn * ST * (Coeff1 + Coeff2*albedo) * (1 - 0.98*ndvi2*ndvi2)
	if G < 0 {
		return 0
	}
	return G
}
