package ptjpl

import (
	"context"
	"time"

	"github.com/hhkbp2/go-logging"
)

// Source names recorded in Resolution.Sources.
const (
	SourceExplicit     = "explicit"
	SourceClimatology  = "climatology"
	SourceAtmosphere   = "atmospheric state"
	SourceNetRadiation = "net radiation"
	SourceSoilHeatFlux = "soil heat flux"
	SourceUnavailable  = "unavailable"
)

// Resolution is a fully resolved input set together with the source that
// supplied each resolved field.
type Resolution struct {
	Inputs   *InputSet
	Sources  map[string]string
	GDerived bool
	N        int
}

// Source returns where the named field came from, or "" if it was not
// resolved.
func (r *Resolution) Source(name string) string {
	return r.Sources[name]
}

// resolveSource yields a field, or reports itself unavailable with ok false.
type resolveSource struct {
	name  string
	fetch func(r *resolver, ctx context.Context) (f Field, ok bool, err error)
}

// resolveStep is one row of the decision table. When no source is
// available, fallback decides between a substitute value and an error.
type resolveStep struct {
	name     string
	target   func(in *InputSet) *Field
	sources  []resolveSource
	fallback func(r *resolver) (Field, error)
}

// resolutionTable lists the fields in the order they are resolved. Later rows
// may depend on fields resolved by earlier rows.
var resolutionTable = []resolveStep{
	{
		name:   "Topt",
		target: func(in *InputSet) *Field { return &in.Topt },
		sources: []resolveSource{
			explicitSource,
			{SourceClimatology, func(r *resolver, ctx context.Context) (Field, bool, error) {
				return r.climatology(ctx, "Topt", Climatology.Topt)
			}},
		},
		fallback: unavailableField("Topt"),
	},
	{
		name:   "fAPARmax",
		target: func(in *InputSet) *Field { return &in.FAPARmax },
		sources: []resolveSource{
			explicitSource,
			{SourceClimatology, func(r *resolver, ctx context.Context) (Field, bool, error) {
				return r.climatology(ctx, "fAPARmax", Climatology.FAPARmax)
			}},
		},
		fallback: unavailableField("fAPARmax"),
	},
	{
		name:   "Ta",
		target: func(in *InputSet) *Field { return &in.Ta },
		sources: []resolveSource{
			explicitSource,
			{SourceAtmosphere, func(r *resolver, ctx context.Context) (Field, bool, error) {
				return r.atmosphere(ctx, "Ta", AtmosphericState.Ta)
			}},
		},
		fallback: missingField("Ta"),
	},
	{
		name:   "RH",
		target: func(in *InputSet) *Field { return &in.RH },
		sources: []resolveSource{
			explicitSource,
			{SourceAtmosphere, func(r *resolver, ctx context.Context) (Field, bool, error) {
				return r.atmosphere(ctx, "RH", AtmosphericState.RH)
			}},
		},
		fallback: missingField("RH"),
	},
	{
		name:   "Rn",
		target: func(in *InputSet) *Field { return &in.Rn },
		sources: []resolveSource{
			explicitSource,
			{SourceNetRadiation, (*resolver).netRadiation},
		},
		fallback: missingField("Rn"),
	},
	{
		name:   "G",
		target: func(in *InputSet) *Field { return &in.G },
		sources: []resolveSource{
			explicitSource,
			{SourceSoilHeatFlux, (*resolver).soilHeatFlux},
		},
		fallback: missingField("G"),
	},
}

// explicitSource is marked by a nil fetch; the step's own target is read.
var explicitSource = resolveSource{name: SourceExplicit}

func unavailableField(name string) func(r *resolver) (Field, error) {
	return func(r *resolver) (Field, error) {
		r.logger.Warnf("%s is unavailable; constraints depending on it are NaN", name)
		return NaNs(r.n), nil
	}
}

func missingField(name string) func(r *resolver) (Field, error) {
	return func(r *resolver) (Field, error) {
		return nil, &MissingInputError{Name: name}
	}
}

type resolver struct {
	in      *InputSet
	c       Collaborators
	n       int
	sources map[string]string
	logger  logging.Logger
}

// Resolve completes in with the model's collaborators. The caller's input set
// is not modified.
func (m *Model) Resolve(ctx context.Context, in *InputSet) (*Resolution, error) {
	if in == nil || in.NDVI == nil {
		return nil, &MissingInputError{Name: "NDVI"}
	}
	n, err := inputLen(in)
	if err != nil {
		return nil, err
	}

	r := &resolver{
		in:      in.clone(),
		c:       m.collaborators,
		n:       n,
		sources: map[string]string{},
		logger:  m.logger,
	}
	for _, step := range resolutionTable {
		if err := r.run(ctx, step); err != nil {
			return nil, err
		}
	}
	return &Resolution{
		Inputs:   r.in,
		Sources:  r.sources,
		GDerived: r.sources["G"] == SourceSoilHeatFlux,
		N:        r.n,
	}, nil
}

// inputLen returns the broadcast length of an input set, including the
// number of points in its geometry.
func inputLen(in *InputSet) (int, error) {
	n, err := broadcastLen(in.fields())
	if err != nil {
		return 0, err
	}
	if g := in.Geometry.Len(); g > 1 {
		if n == 1 {
			return g, nil
		}
		if g != n {
			return 0, &ShapeError{Name: "geometry", Len: g, Want: n}
		}
	}
	return n, nil
}

func (r *resolver) run(ctx context.Context, step resolveStep) error {
	target := step.target(r.in)
	for _, src := range step.sources {
		if src.fetch == nil {
			if *target != nil {
				r.sources[step.name] = SourceExplicit
				return nil
			}
			continue
		}
		f, ok, err := src.fetch(r, ctx)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := r.checkShape(step.name, f); err != nil {
			return err
		}
		r.logger.Debugf("%s resolved from %s", step.name, src.name)
		*target = f
		r.sources[step.name] = src.name
		return nil
	}
	f, err := step.fallback(r)
	if err != nil {
		return err
	}
	*target = f
	r.sources[step.name] = SourceUnavailable
	return nil
}

func (r *resolver) checkShape(name string, f Field) error {
	if len(f) == 1 || len(f) == r.n {
		return nil
	}
	return &ShapeError{Name: name, Len: len(f), Want: r.n}
}

func (r *resolver) hasGeometry() bool {
	return r.in.Geometry.Len() > 0
}

// climatology treats lookup failures as missing data.
func (r *resolver) climatology(ctx context.Context, name string, lookup func(Climatology, context.Context, *Geometry) (Field, error)) (Field, bool, error) {
	if r.c.Climatology == nil || !r.hasGeometry() {
		return nil, false, nil
	}
	f, err := lookup(r.c.Climatology, ctx, r.in.Geometry)
	if err != nil {
		r.logger.Warnf("climatology lookup of %s failed: %v", name, err)
		return nil, false, nil
	}
	return f, true, nil
}

func (r *resolver) atmosphere(ctx context.Context, name string, lookup func(AtmosphericState, context.Context, time.Time, *Geometry) (Field, error)) (Field, bool, error) {
	if r.c.Atmosphere == nil || !r.hasGeometry() || r.in.Time.IsZero() {
		return nil, false, nil
	}
	f, err := lookup(r.c.Atmosphere, ctx, r.in.Time, r.in.Geometry)
	if err != nil {
		return nil, false, &CollaboratorError{Collaborator: SourceAtmosphere + " " + name, Err: err}
	}
	return f, true, nil
}

// swin resolves incoming shortwave on demand; it is only needed when net
// radiation has to be computed.
func (r *resolver) swin(ctx context.Context) (Field, error) {
	if r.in.SWin != nil {
		r.sources["SWin"] = SourceExplicit
		return r.in.SWin, nil
	}
	f, ok, err := r.atmosphere(ctx, "SWin", AtmosphericState.SWin)
	if err != nil || !ok {
		return nil, err
	}
	if err := r.checkShape("SWin", f); err != nil {
		return nil, err
	}
	r.in.SWin = f
	r.sources["SWin"] = SourceAtmosphere
	return f, nil
}

func (r *resolver) netRadiation(ctx context.Context) (Field, bool, error) {
	if r.c.NetRadiation == nil {
		return nil, false, nil
	}
	in := r.in
	if in.Albedo == nil || in.ST == nil || in.Emissivity == nil {
		return nil, false, nil
	}
	swin, err := r.swin(ctx)
	if err != nil || swin == nil {
		return nil, false, err
	}
	res, err := r.c.NetRadiation.NetRadiation(ctx, NetRadiationInputs{
		SWin:       swin,
		Albedo:     in.Albedo,
		ST:         in.ST,
		Emissivity: in.Emissivity,
		Ta:         in.Ta,
		RH:         in.RH,
	})
	if err != nil {
		return nil, false, &CollaboratorError{Collaborator: SourceNetRadiation, Err: err}
	}
	return res.Rn, true, nil
}

func (r *resolver) soilHeatFlux(ctx context.Context) (Field, bool, error) {
	if r.c.SoilHeatFlux == nil {
		return nil, false, nil
	}
	in := r.in
	if in.ST == nil || in.Albedo == nil {
		return nil, false, nil
	}
	G, err := r.c.SoilHeatFlux.SoilHeatFlux(ctx, in.Rn, in.ST, in.NDVI, in.Albedo)
	if err != nil {
		return nil, false, &CollaboratorError{Collaborator: SourceSoilHeatFlux, Err: err}
	}
	return G, true, nil
}
