package ptjpl

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	PTAlpha        = 1.26   // Priestley-Taylor coefficient for unstressed vegetation
	BetaPa         = 1000.0 // soil moisture constraint sensitivity [Pa]
	KRn            = 0.6    // net radiation extinction coefficient
	KPAR           = 0.5    // PAR extinction coefficient
	MinimumTopt    = 0.1    // [C]
	RHThreshold    = 0.7
	MinFwet        = 0.0001
	GammaKPa       = 0.0662 // psychrometric constant [kPa/C]
	GammaPa        = GammaKPa * 1000
	MinLAI         = 0.0
	MaxLAI         = 10.0
	NDVIThreshold  = 0.06
	defaultLogName = "ptjpl"
)

// Config holds the model constants of one invocation. It is passed by value
// and never modified by the model.
type Config struct {
	Alpha       float64 `yaml:"alpha" json:"alpha"`
	BetaPa      float64 `yaml:"beta_pa" json:"beta_pa"`
	KRn         float64 `yaml:"k_rn" json:"k_rn"`
	KPAR        float64 `yaml:"k_par" json:"k_par"`
	MinimumTopt float64 `yaml:"minimum_topt" json:"minimum_topt"`
	FloorTopt   bool    `yaml:"floor_topt" json:"floor_topt"`

	// RHThreshold forces wetness to MinFwet below this relative humidity.
	// Nil disables thresholding (legacy output revisions).
	RHThreshold *float64 `yaml:"rh_threshold" json:"rh_threshold"`
	MinFwet     float64  `yaml:"min_fwet" json:"min_fwet"`

	GammaPa float64 `yaml:"gamma_pa" json:"gamma_pa"`
	MinLAI  float64 `yaml:"min_lai" json:"min_lai"`
	MaxLAI  float64 `yaml:"max_lai" json:"max_lai"`

	// StrictRH rejects relative humidity outside [0, 1] instead of clamping it.
	StrictRH bool `yaml:"strict_rh" json:"strict_rh"`

	// NDVIThreshold masks tabular NDVI at or below this value as no data.
	NDVIThreshold float64 `yaml:"ndvi_threshold" json:"ndvi_threshold"`

	UpscaleToDaylight bool `yaml:"upscale_to_daylight" json:"upscale_to_daylight"`
}

// DefaultConfig returns the current PT-JPL constants.
func DefaultConfig() Config {
	threshold := RHThreshold
	return Config{
		Alpha:         PTAlpha,
		BetaPa:        BetaPa,
		KRn:           KRn,
		KPAR:          KPAR,
		MinimumTopt:   MinimumTopt,
		FloorTopt:     true,
		RHThreshold:   &threshold,
		MinFwet:       MinFwet,
		GammaPa:       GammaPa,
		MinLAI:        MinLAI,
		MaxLAI:        MaxLAI,
		NDVIThreshold: NDVIThreshold,
	}
}

// LegacyConfig reproduces the earlier collections: wetness is RH^4 without a
// threshold and without a floor.
func LegacyConfig() Config {
	c := DefaultConfig()
	c.RHThreshold = nil
	c.MinFwet = 0
	return c
}

// Clone returns a copy of c that shares no memory with it.
func (c Config) Clone() Config {
	if c.RHThreshold != nil {
		v := *c.RHThreshold
		c.RHThreshold = &v
	}
	return c
}

// WithRHThreshold returns a copy of c with the threshold replaced.
func (c Config) WithRHThreshold(v float64) Config {
	c.RHThreshold = &v
	return c
}

// Validate reports constants that would make the model undefined everywhere.
func (c Config) Validate() error {
	switch {
	case !(c.Alpha > 0):
		return fmt.Errorf("ptjpl: config: alpha must be positive, got %g", c.Alpha)
	case !(c.BetaPa > 0):
		return fmt.Errorf("ptjpl: config: beta_pa must be positive, got %g", c.BetaPa)
	case c.KRn < 0 || math.IsNaN(c.KRn):
		return fmt.Errorf("ptjpl: config: k_rn must not be negative, got %g", c.KRn)
	case !(c.KPAR > 0):
		return fmt.Errorf("ptjpl: config: k_par must be positive, got %g", c.KPAR)
	case !(c.MinimumTopt > 0):
		return fmt.Errorf("ptjpl: config: minimum_topt must be positive, got %g", c.MinimumTopt)
	case c.MinFwet < 0 || c.MinFwet > 1 || math.IsNaN(c.MinFwet):
		return fmt.Errorf("ptjpl: config: min_fwet must be in [0, 1], got %g", c.MinFwet)
	case c.RHThreshold != nil && (*c.RHThreshold < 0 || *c.RHThreshold > 1):
		return fmt.Errorf("ptjpl: config: rh_threshold must be in [0, 1], got %g", *c.RHThreshold)
	case !(c.GammaPa > 0):
		return fmt.Errorf("ptjpl: config: gamma_pa must be positive, got %g", c.GammaPa)
	case !(c.MaxLAI >= c.MinLAI):
		return fmt.Errorf("ptjpl: config: max_lai %g below min_lai %g", c.MaxLAI, c.MinLAI)
	}
	return nil
}

// LoadConfig reads YAML constants from path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
