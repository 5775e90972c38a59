package ptjpl

import "math"

// Fluxes is the decomposition of net energy into latent heat components
// [W/m2].
type Fluxes struct {
	RnSoil         Field
	LESoil         Field
	RnCanopy       Field
	PET            Field
	LECanopy       Field
	LEInterception Field
	LE             Field
}

// Partition splits net radiation into soil and canopy shares and computes the
// soil, canopy and interception latent heat fluxes. The total is bounded by
// the Priestley-Taylor potential: LE = max(min(sum, PET), 0), so LE is never
// negative even where PET is. Demand above PET is discarded.
func Partition(cfg Config, Rn, G, epsilon, LAI Field, c ConstraintBundle) Fluxes {
	n := resultLen(Rn, G, epsilon, LAI, c.Fwet, c.Fg, c.FM, c.FSM, c.FT)
	f := Fluxes{
		RnSoil:         make(Field, n),
		LESoil:         make(Field, n),
		RnCanopy:       make(Field, n),
		PET:            make(Field, n),
		LECanopy:       make(Field, n),
		LEInterception: make(Field, n),
		LE:             make(Field, n),
	}
	alpha := cfg.Alpha
	for i := 0; i < n; i++ {
		rn, g, eps := Rn.At(i), G.At(i), epsilon.At(i)
		fwet := c.Fwet.At(i)

		rnSoil := rn * math.Exp(-cfg.KRn*LAI.At(i))
		leSoil := floor((fwet+c.FSM.At(i)*(1-fwet))*alpha*eps*(rnSoil-g), 0)
		rnCanopy := rn - rnSoil
		pet := alpha * eps * (rn - g)
		leCanopy := floor(alpha*(1-fwet)*c.Fg.At(i)*c.FT.At(i)*c.FM.At(i)*eps*rnCanopy, 0)
		leInterception := floor(fwet*alpha*eps*rnCanopy, 0)

		f.RnSoil[i] = rnSoil
		f.LESoil[i] = leSoil
		f.RnCanopy[i] = rnCanopy
		f.PET[i] = pet
		f.LECanopy[i] = leCanopy
		f.LEInterception[i] = leInterception
		f.LE[i] = boundLE(leSoil+leCanopy+leInterception, pet)
	}
	return f
}

func boundLE(sum, pet float64) float64 {
	if math.IsNaN(sum) || math.IsNaN(pet) {
		return math.NaN()
	}
	return math.Max(math.Min(sum, pet), 0)
}
