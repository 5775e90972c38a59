// Package geodesy computes ellipsoidal distances and inverse-distance weights
// used to interpolate point data.
package geodesy

import (
	"errors"
	"math"

	"github.com/ctessum/geom"
)

// GRS80 ellipsoid.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257222101
)

const iterationLimit = 10000

// ErrNoConvergence is returned for nearly antipodal points where the inverse
// problem does not converge.
var ErrNoConvergence = errors.New("geodesy: vincenty inverse did not converge")

// Vincenty returns the distance [m] on the GRS80 ellipsoid between two points
// given in decimal degrees.
//
// Notes:
//
//	https://en.wikipedia.org/wiki/Vincenty%27s_formulae
//	https://vldb.gsi.go.jp/sokuchi/surveycalc/surveycalc/bl2stf.html
func Vincenty(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if math.Abs(lat1-lat2) < 1e-9 && math.Abs(lon1-lon2) < 1e-9 {
		return 0, nil
	}

	a := SemiMajorAxis
	f := Flattening
	b := (1 - f) * a

	// reduced latitudes
	U1 := math.Atan((1 - f) * math.Tan(degreeToRad(lat1)))
	U2 := math.Atan((1 - f) * math.Tan(degreeToRad(lat2)))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	L := degreeToRad(lon2) - degreeToRad(lon1)
	lambda := L

	var prev, cos2A, sinS, cosS, cos2Sm, sigma float64
	converged := false
	for i := 0; i < iterationLimit; i++ {
		sinL, cosL := math.Sincos(lambda)
		sinS = math.Hypot(cosU2*sinL, cosU1*sinU2-sinU1*cosU2*cosL)
		cosS = sinU1*sinU2 + cosU1*cosU2*cosL
		sigma = math.Atan2(sinS, cosS)
		sinA := cosU1 * cosU2 * sinL / sinS
		cos2A = 1 - sinA*sinA
		cos2Sm = 0
		if cos2A != 0 {
			// equatorial lines have cos2A = 0
			cos2Sm = cosS - 2*sinU1*sinU2/cos2A
		}
		C := f / 16 * cos2A * (4 + f*(4-3*cos2A))

		prev = lambda
		lambda = L + (1-C)*f*sinA*(sigma+C*sinS*(cos2Sm+C*cosS*(-1+2*cos2Sm*cos2Sm)))
		if math.Abs(lambda-prev) <= 1e-12 {
			converged = true
			break
		}
	}
	if !converged {
		return math.NaN(), ErrNoConvergence
	}

	u2 := cos2A * (a*a - b*b) / (b * b)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	dS := B * sinS * (cos2Sm + B/4*(cosS*(-1+2*cos2Sm*cos2Sm)-B/6*cos2Sm*(-3+4*sinS*sinS)*(-3+4*cos2Sm*cos2Sm)))

	return b * A * (sigma - dS), nil
}

// Distance is Vincenty between two points with X longitude and Y latitude.
func Distance(p, q geom.Point) (float64, error) {
	return Vincenty(p.Y, p.X, q.Y, q.X)
}

// InverseDistanceWeights returns weights proportional to 1/d that sum to 1.
// A zero distance takes the whole weight.
func InverseDistanceWeights(distances []float64) []float64 {
	weights := make([]float64, len(distances))
	for i, d := range distances {
		if d == 0 {
			weights[i] = 1
			return weights
		}
	}

	var total float64
	for _, d := range distances {
		total += 1 / d
	}
	for i, d := range distances {
		weights[i] = 1 / d / total
	}
	return weights
}

func degreeToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
