package ptjpl

import (
	"context"
	"time"
)

// Climatology supplies static auxiliary fields keyed by location. Values are
// in physical units; missing data is NaN.
type Climatology interface {
	Topt(ctx context.Context, g *Geometry) (Field, error)
	FAPARmax(ctx context.Context, g *Geometry) (Field, error)
}

// AtmosphericState supplies meteorology at a time and location.
type AtmosphericState interface {
	Ta(ctx context.Context, t time.Time, g *Geometry) (Field, error)   // [C]
	RH(ctx context.Context, t time.Time, g *Geometry) (Field, error)   // [0-1]
	SWin(ctx context.Context, t time.Time, g *Geometry) (Field, error) // [W/m2]
}

// NetRadiationInputs are the inputs of a net radiation model.
type NetRadiationInputs struct {
	SWin       Field // [W/m2]
	Albedo     Field
	ST         Field // [C]
	Emissivity Field
	Ta         Field // [C]
	RH         Field // [0-1]
}

// NetRadiationResult holds net radiation and its radiative components [W/m2].
type NetRadiationResult struct {
	Rn    Field
	SWout Field
	SWnet Field
	LWin  Field
	LWout Field
	LWnet Field
}

// NetRadiation estimates net radiation from its components.
type NetRadiation interface {
	NetRadiation(ctx context.Context, in NetRadiationInputs) (NetRadiationResult, error)
}

// SoilHeatFlux estimates soil heat flux [W/m2].
type SoilHeatFlux interface {
	SoilHeatFlux(ctx context.Context, Rn, ST, NDVI, albedo Field) (Field, error)
}

// Collaborators groups the optional external services of a Model. Nil members
// are simply unavailable as fallback sources.
type Collaborators struct {
	Climatology  Climatology
	Atmosphere   AtmosphericState
	NetRadiation NetRadiation
	SoilHeatFlux SoilHeatFlux
}
