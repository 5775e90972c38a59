// Package verma estimates instantaneous net radiation from its shortwave and
// longwave components following Verma et al. (2016).
package verma

import (
	"context"
	"math"

	"github.com/udawtr/ptjpl-go/ptjpl"
)

// StefanBoltzmann constant [W/m2/K4].
const StefanBoltzmann = 5.67036713e-8

// Model implements ptjpl.NetRadiation.
type Model struct {
	// CloudMask marks cloudy elements, whose sky is treated as a black body.
	// Nil means clear sky everywhere.
	CloudMask []bool
}

var _ ptjpl.NetRadiation = (*Model)(nil)

func (m *Model) cloudy(i int) bool {
	switch len(m.CloudMask) {
	case 0:
		return false
	case 1:
		return m.CloudMask[0]
	}
	return m.CloudMask[i]
}

// NetRadiation computes Rn and its components. Negative net shortwave,
// longwave and total radiation are clipped to zero.
func (m *Model) NetRadiation(ctx context.Context, in ptjpl.NetRadiationInputs) (ptjpl.NetRadiationResult, error) {
	if err := ctx.Err(); err != nil {
		return ptjpl.NetRadiationResult{}, err
	}

	n := 1
	for _, f := range []ptjpl.Field{in.SWin, in.Albedo, in.ST, in.Emissivity, in.Ta, in.RH} {
		if len(f) > n {
			n = len(f)
		}
	}
	if len(m.CloudMask) > 1 && len(m.CloudMask) != n {
		return ptjpl.NetRadiationResult{}, &ptjpl.ShapeError{Name: "cloud mask", Len: len(m.CloudMask), Want: n}
	}

	r := ptjpl.NetRadiationResult{
		Rn:    make(ptjpl.Field, n),
		SWout: make(ptjpl.Field, n),
		SWnet: make(ptjpl.Field, n),
		LWin:  make(ptjpl.Field, n),
		LWout: make(ptjpl.Field, n),
		LWnet: make(ptjpl.Field, n),
	}
	for i := 0; i < n; i++ {
		swin := in.SWin.At(i)
		albedo := clip(in.Albedo.At(i), 0, 1)
		emissivity := clip(in.Emissivity.At(i), 0, 1)
		TaK := in.Ta.At(i) + 273.15
		STK := in.ST.At(i) + 273.15

		swout := floor(swin*albedo, 0)
		swnet := floor(swin-swout, 0)

		lwin := StefanBoltzmann * math.Pow(TaK, 4)
		if !m.cloudy(i) {
			lwin *= AtmosphericEmissivity(VaporPressure(in.Ta.At(i), in.RH.At(i)), TaK)
		}
		lwout := emissivity * StefanBoltzmann * math.Pow(STK, 4)
		lwnet := floor(lwin-lwout, 0)

		r.SWout[i] = swout
		r.SWnet[i] = swnet
		r.LWin[i] = lwin
		r.LWout[i] = lwout
		r.LWnet[i] = lwnet
		r.Rn[i] = floor(swnet+lwnet, 0)
	}
	return r, nil
}

// VaporPressure returns the water vapor pressure [Pa] at air temperature Ta
// [C] and relative humidity RH [0-1].
func VaporPressure(Ta, RH float64) float64 {
	return RH * 0.6113 * math.Pow(10, 7.5*Ta/(Ta+237.3)) * 1000
}

// AtmosphericEmissivity returns the clear-sky emissivity (Brutsaert form) for
// vapor pressure Ea [Pa] and air temperature TaK [K].
func AtmosphericEmissivity(Ea, TaK float64) float64 {
	eta1 := 0.465 * Ea / TaK
	return 1 - (1+eta1)*math.Exp(-math.Sqrt(1.2+3*eta1))
}

// DaylightNetRadiation integrates instantaneous Rn observed at solar hour to
// its mean over the daylight period of day doy at latitude lat [deg].
func DaylightNetRadiation(Rn, hour, doy, lat ptjpl.Field) ptjpl.Field {
	SHA := ptjpl.SunriseHourAngle(doy, lat)
	return ptjpl.DaylightFlux(Rn, hour, ptjpl.SunriseHour(SHA), ptjpl.DaylightHours(SHA))
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func floor(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}
