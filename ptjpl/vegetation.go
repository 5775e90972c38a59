package ptjpl

import "math"

// SAVI approximates the soil-adjusted vegetation index from NDVI with a linear
// empirical fit.
func SAVI(NDVI Field) Field {
	return map1(NDVI, savi)
}

func savi(ndvi float64) float64 {
	return ndvi*0.45 + 0.132
}

// FAPAR returns the fraction of absorbed PAR from SAVI, clipped to [0, 1].
func FAPAR(SAVI Field) Field {
	return map1(SAVI, fapar)
}

func fapar(savi float64) float64 {
	return clip(savi*1.3632+-0.048, 0, 1)
}

// FIPAR returns the fraction of intercepted PAR from NDVI. Elements where the
// fraction is exactly zero are NaN so that later ratios stay undefined instead
// of dividing by zero.
func FIPAR(NDVI Field) Field {
	return map1(NDVI, fipar)
}

func fipar(ndvi float64) float64 {
	f := clip(clip(ndvi, 0, 1)-0.05, 0, 1)
	if f == 0 {
		return math.NaN()
	}
	return f
}

// LAI inverts the Beer-Lambert law on fIPAR:
//
//	LAI = clip(-ln(1 - fIPAR) / kPAR, minLAI, maxLAI)
//
// NaN fIPAR gives NaN LAI. fIPAR = 1 gives maxLAI.
func LAI(fIPAR Field, kPAR, minLAI, maxLAI float64) Field {
	return map1(fIPAR, func(f float64) float64 {
		return lai(f, kPAR, minLAI, maxLAI)
	})
}

func lai(fipar, kPAR, minLAI, maxLAI float64) float64 {
	return clip(-math.Log(1-fipar)/kPAR, minLAI, maxLAI)
}
