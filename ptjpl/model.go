package ptjpl

import (
	"context"
	"math"

	"github.com/hhkbp2/go-logging"
)

// Model runs PT-JPL with a fixed configuration and set of collaborators. It
// holds no mutable state and is safe for concurrent use.
type Model struct {
	cfg           Config
	collaborators Collaborators
	logger        logging.Logger
}

func NewModel(cfg Config, c Collaborators) *Model {
	return &Model{
		cfg:           cfg.Clone(),
		collaborators: c,
		logger:        logging.GetLogger(defaultLogName),
	}
}

// Config returns a copy of the model's configuration. Changing it does not
// affect the model.
func (m *Model) Config() Config {
	return m.cfg.Clone()
}

// Run resolves in and computes the flux decomposition with the model's
// configuration.
func (m *Model) Run(ctx context.Context, in *InputSet) (*Result, error) {
	return m.RunWithConfig(ctx, in, m.cfg)
}

// RunWithConfig is Run with the configuration replaced for this call only.
func (m *Model) RunWithConfig(ctx context.Context, in *InputSet, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res, err := m.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	rin := res.Inputs

	RH := rin.RH
	if cfg.StrictRH {
		if err := checkRH(RH); err != nil {
			return nil, err
		}
	} else {
		RH = clampRH(RH)
	}

	Ta := rin.Ta
	SVP := SaturationVaporPressurePa(Ta)
	VPD := VaporPressureDeficit(SVP, RH)
	epsilon := resolveEpsilon(rin.Epsilon, rin.Delta, rin.Gamma, Ta, cfg.GammaPa)

	fAPAR := FAPAR(SAVI(rin.NDVI))
	fIPAR := FIPAR(rin.NDVI)
	lai := LAI(fIPAR, cfg.KPAR, cfg.MinLAI, cfg.MaxLAI)

	bundle := Constraints(cfg, RH, VPD, Ta, rin.Topt, fAPAR, fIPAR, rin.FAPARmax)
	fluxes := Partition(cfg, rin.Rn, rin.G, epsilon, lai, bundle)

	result := &Result{
		Fluxes:      fluxes,
		Rn:          rin.Rn,
		G:           broadcastTo(rin.G, len(fluxes.LE)),
		GDerived:    res.GDerived,
		Constraints: bundle,
		LAI:         lai,
		Epsilon:     epsilon,
		Resolution:  res,
	}

	if cfg.UpscaleToDaylight {
		d, ok := upscale(rin, result)
		if ok {
			result.Daylight = d
		} else {
			m.logger.Warnf("daylight upscaling requested without day of year or time")
		}
	}

	m.logger.Debugf("PT-JPL computed %d elements, %d undefined LE", len(fluxes.LE), fluxes.LE.CountNaN())
	return result, nil
}

// checkRH rejects relative humidity outside [0, 1]. NaN is missing data and
// passes.
func checkRH(RH Field) error {
	for i, v := range RH {
		if v < 0 || v > 1 {
			return &DomainError{Name: "RH", Index: i, Value: v}
		}
	}
	return nil
}

func clampRH(RH Field) Field {
	return map1(RH, func(v float64) float64 { return clip(v, 0, 1) })
}

func broadcastTo(f Field, n int) Field {
	if len(f) == n {
		return f
	}
	return mapN(n, f.At)
}

// isDefined reports whether v is a finite number.
func isDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
