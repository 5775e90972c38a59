package ptjpl

import "math"

//--------------------------------------
// Meteorological derivations
//--------------------------------------

const (
	RD  = 286.9  // gas constant for dry air [J/kg/K]
	RW  = 461.5  // gas constant for moist air [J/kg/K]
	CPW = 1846.0 // specific heat of water vapor [J/kg/K]
	CPD = 1005.0 // specific heat of dry air [J/kg/K]
)

// SaturationVaporPressureKPa returns the saturation vapor pressure [kPa] of air
// at Ta [C]. The result is floored at 1 kPa.
func SaturationVaporPressureKPa(Ta Field) Field {
	return map1(Ta, svpKPa)
}

// SaturationVaporPressurePa is SaturationVaporPressureKPa in Pa.
func SaturationVaporPressurePa(Ta Field) Field {
	return map1(Ta, func(t float64) float64 { return svpKPa(t) * 1000 })
}

func svpKPa(Ta float64) float64 {
	return floor(0.611*math.Exp((Ta*17.27)/(Ta+237.7)), 1)
}

// ActualVaporPressure returns RH * SVP in the units of SVP.
func ActualVaporPressure(SVP, RH Field) Field {
	return map2(SVP, RH, func(svp, rh float64) float64 { return rh * svp })
}

// VaporPressureDeficit returns max(SVP - RH*SVP, 0). RH is clamped to [0, 1]
// first.
func VaporPressureDeficit(SVP, RH Field) Field {
	return map2(SVP, RH, vpd)
}

func vpd(svp, rh float64) float64 {
	rh = clip(rh, 0, 1)
	return floor(svp-rh*svp, 0)
}

// SlopeKPa returns the slope of the saturation vapor pressure curve (delta)
// [kPa/C] at Ta [C] (FAO-56).
func SlopeKPa(Ta Field) Field {
	return map1(Ta, slopeKPa)
}

// SlopePa is SlopeKPa in Pa/C.
func SlopePa(Ta Field) Field {
	return map1(Ta, func(t float64) float64 { return slopeKPa(t) * 1000 })
}

func slopeKPa(Ta float64) float64 {
	return 4098 * (0.6108 * math.Exp(17.27*Ta/(237.7+Ta))) / math.Pow(Ta+237.3, 2)
}

// Epsilon returns delta / (delta + gamma). Both must share units.
func Epsilon(delta, gamma Field) Field {
	return map2(delta, gamma, func(d, g float64) float64 { return d / (d + g) })
}

// resolveEpsilon picks explicit epsilon, then explicit delta combined with
// gamma, then delta computed from Ta.
func resolveEpsilon(epsilon, delta, gamma, Ta Field, gammaPa float64) Field {
	if epsilon != nil {
		return epsilon
	}
	if gamma == nil {
		gamma = Scalar(gammaPa)
	}
	if delta == nil {
		delta = SlopePa(Ta)
	}
	return Epsilon(delta, gamma)
}

func CelsiusToKelvin(T Field) Field {
	return map1(T, func(t float64) float64 { return t + 273.15 })
}

func KelvinToCelsius(T Field) Field {
	return map1(T, func(t float64) float64 { return t - 273.15 })
}

// SpecificHumidity returns kg water per kg air from the actual vapor pressure
// and the surface pressure, both in Pa.
func SpecificHumidity(Ea, Ps Field) Field {
	return map2(Ea, Ps, func(ea, ps float64) float64 {
		return (0.622 * ea) / (ps - (0.387 * ea))
	})
}

// SpecificHeat returns the specific heat of moist air [J/kg/K].
func SpecificHeat(q Field) Field {
	return map1(q, func(q float64) float64 { return q*CPW + (1-q)*CPD })
}

// AirDensity returns the density of moist air [kg/m3].
//
// Args:
//
//	Ps: surface pressure [Pa]
//	TaK: air temperature [K]
//	q: specific humidity [kg/kg]
func AirDensity(Ps, TaK, q Field) Field {
	n := resultLen(Ps, TaK, q)
	return mapN(n, func(i int) float64 {
		rhoD := Ps.At(i) / (RD * TaK.At(i))
		return rhoD * ((1.0 + q.At(i)) / (1.0 + q.At(i)*(RW/RD)))
	})
}

// SurfacePressure returns the surface pressure [Pa] at elevation [m] for an
// air temperature Ta [C], using a standard lapse rate of 0.0065 C/m.
func SurfacePressure(elevation, Ta Field) Field {
	return map2(elevation, Ta, func(z, t float64) float64 {
		TaK := t + 273.15
		return 101325.0 * math.Pow(1.0-0.0065*z/TaK, 9.807/(0.0065*287.0))
	})
}

// LatentHeatOfVaporization returns lambda [J/kg] at Ta [C].
func LatentHeatOfVaporization(Ta Field) Field {
	return map1(Ta, latentHeat)
}

func latentHeat(Ta float64) float64 {
	return (2.501 - 0.002361*Ta) * 1e6
}

func radToDegree(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func degreeToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
