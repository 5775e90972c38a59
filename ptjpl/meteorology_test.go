package ptjpl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturationVaporPressure(t *testing.T) {
	svp := SaturationVaporPressurePa(Series(25, -3.5, -40))
	assert.InDelta(t, 3160.8828992761783, svp[0], 1e-9)
	// floored at 1 kPa in the cold
	assert.Equal(t, 1000.0, svp[1])
	assert.Equal(t, 1000.0, svp[2])

	assert.InDelta(t, svp[0]/1000, SaturationVaporPressureKPa(Scalar(25))[0], 1e-12)
}

func TestVaporPressureDeficit(t *testing.T) {
	svp := Scalar(3000)
	assert.Equal(t, Field{1500}, VaporPressureDeficit(svp, Scalar(0.5)))

	// RH outside [0, 1] is clamped before use
	assert.Equal(t, Field{0}, VaporPressureDeficit(svp, Scalar(1.2)))
	assert.Equal(t, Field{3000}, VaporPressureDeficit(svp, Scalar(-0.1)))

	assert.True(t, math.IsNaN(VaporPressureDeficit(svp, Scalar(math.NaN()))[0]))
	assert.Equal(t, Field{1200}, ActualVaporPressure(svp, Scalar(0.4)))
}

func TestSlopeAndEpsilon(t *testing.T) {
	delta := SlopePa(Scalar(25))
	assert.InDelta(t, 188.20952469227737, delta[0], 1e-9)
	assert.InDelta(t, delta[0]/1000, SlopeKPa(Scalar(25))[0], 1e-12)

	eps := Epsilon(delta, Scalar(GammaPa))
	assert.InDelta(t, 0.7397896164458755, eps[0], 1e-12)
}

func TestResolveEpsilon(t *testing.T) {
	Ta := Scalar(25)

	// explicit epsilon wins over everything
	assert.Equal(t, Field{0.5}, resolveEpsilon(Scalar(0.5), Scalar(100), Scalar(100), Ta, GammaPa))

	// explicit delta with explicit gamma
	assert.Equal(t, Field{0.25}, resolveEpsilon(nil, Scalar(100), Scalar(300), Ta, GammaPa))

	// explicit delta with the configured gamma
	assert.InDelta(t, 100/(100+GammaPa), resolveEpsilon(nil, Scalar(100), nil, Ta, GammaPa)[0], 1e-12)

	// delta from Ta
	assert.InDelta(t, 0.7397896164458755, resolveEpsilon(nil, nil, nil, Ta, GammaPa)[0], 1e-12)
}

func TestTemperatureConversion(t *testing.T) {
	assert.Equal(t, Field{273.15, 298.15}, CelsiusToKelvin(Series(0, 25)))
	assert.InDelta(t, 25.0, KelvinToCelsius(Scalar(298.15))[0], 1e-12)
}

func TestAirProperties(t *testing.T) {
	Ps := SurfacePressure(Scalar(0), Scalar(15))
	assert.InDelta(t, 101325.0, Ps[0], 1e-9)
	assert.Less(t, SurfacePressure(Scalar(1500), Scalar(15))[0], Ps[0])

	q := SpecificHumidity(Scalar(1500), Ps)
	assert.InDelta(t, 0.622*1500/(101325-0.387*1500), q[0], 1e-12)

	cp := SpecificHeat(Scalar(0))
	assert.Equal(t, CPD, cp[0])

	rho := AirDensity(Ps, Scalar(288.15), Scalar(0))
	assert.InDelta(t, 101325.0/(RD*288.15), rho[0], 1e-12)

	assert.InDelta(t, 2.441975e6, LatentHeatOfVaporization(Scalar(25))[0], 1e-3)
}
