package ptjpl

import "math"

// ConstraintBundle holds the dimensionless constraints of PT-JPL. Each field
// lies in [0, 1], or is NaN where its source input is invalid.
type ConstraintBundle struct {
	Fwet Field // relative surface wetness
	Fg   Field // green canopy fraction
	FM   Field // plant moisture constraint
	FSM  Field // soil moisture constraint
	FT   Field // plant temperature constraint
}

// RelativeSurfaceWetness returns fwet = max(RH^4, minFwet). When threshold is
// not nil, elements with RH below the threshold are forced to minFwet.
// RH must already lie in [0, 1].
func RelativeSurfaceWetness(RH Field, threshold *float64, minFwet float64) Field {
	return map1(RH, func(rh float64) float64 {
		return fwet(rh, threshold, minFwet)
	})
}

func fwet(rh float64, threshold *float64, minFwet float64) float64 {
	if threshold != nil && rh < *threshold {
		return minFwet
	}
	return floor(math.Pow(rh, 4), minFwet)
}

// GreenCanopyFraction returns fg = clip(fAPAR / fIPAR, 0, 1) where fIPAR > 0
// and NaN elsewhere.
func GreenCanopyFraction(fAPAR, fIPAR Field) Field {
	return map2(fAPAR, fIPAR, ratioConstraint)
}

// PlantMoistureConstraint returns fM = clip(fAPAR / fAPARmax, 0, 1) where
// fAPARmax > 0 and NaN elsewhere.
func PlantMoistureConstraint(fAPAR, fAPARmax Field) Field {
	return map2(fAPAR, fAPARmax, ratioConstraint)
}

func ratioConstraint(num, den float64) float64 {
	if !(den > 0) {
		return math.NaN()
	}
	return clip(num/den, 0, 1)
}

// SoilMoistureConstraint returns fSM = clip(RH^(VPD/beta), 0, 1).
//
// Args:
//
//	RH: relative humidity [0-1]
//	VPD: vapor pressure deficit [Pa]
//	betaPa: sensitivity [Pa]
func SoilMoistureConstraint(RH, VPD Field, betaPa float64) Field {
	return map2(RH, VPD, func(rh, vpd float64) float64 {
		return clip(math.Pow(rh, vpd/betaPa), 0, 1)
	})
}

// OptimumTemperature applies the Topt corrections: with floorToTa, Topt is
// raised to Ta wherever the air is warmer than the optimum, then Topt is
// floored at minimum.
func OptimumTemperature(Ta, Topt Field, floorToTa bool, minimum float64) Field {
	return map2(Ta, Topt, func(ta, topt float64) float64 {
		return toptCorrected(ta, topt, floorToTa, minimum)
	})
}

func toptCorrected(ta, topt float64, floorToTa bool, minimum float64) float64 {
	if floorToTa && ta > topt {
		topt = ta
	}
	return floor(topt, minimum)
}

// PlantTemperatureConstraint returns fT = exp(-((Ta - Topt) / Topt)^2). Topt
// should already be corrected with OptimumTemperature.
func PlantTemperatureConstraint(Ta, Topt Field) Field {
	return map2(Ta, Topt, ft)
}

func ft(ta, topt float64) float64 {
	return math.Exp(-math.Pow((ta-topt)/topt, 2))
}

// Constraints computes the bundle from resolved meteorology and vegetation.
// RH must already lie in [0, 1], VPD is in Pa and Topt is uncorrected.
func Constraints(cfg Config, RH, VPD, Ta, Topt, fAPAR, fIPAR, fAPARmax Field) ConstraintBundle {
	return ConstraintBundle{
		Fwet: RelativeSurfaceWetness(RH, cfg.RHThreshold, cfg.MinFwet),
		Fg:   GreenCanopyFraction(fAPAR, fIPAR),
		FM:   PlantMoistureConstraint(fAPAR, fAPARmax),
		FSM:  SoilMoistureConstraint(RH, VPD, cfg.BetaPa),
		FT:   PlantTemperatureConstraint(Ta, OptimumTemperature(Ta, Topt, cfg.FloorTopt, cfg.MinimumTopt)),
	}
}
