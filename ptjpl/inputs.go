package ptjpl

import (
	"time"

	"github.com/ctessum/geom"
)

// Geometry locates the elements of a field. X is longitude and Y latitude in
// degrees. Rows and Cols are zero for a sample series; for a grid
// Rows*Cols equals the number of points, stored row-major.
type Geometry struct {
	Points geom.MultiPoint
	Rows   int
	Cols   int
}

// NewSiteGeometry returns a series geometry with one point per site.
func NewSiteGeometry(lat, lon []float64) *Geometry {
	pts := make(geom.MultiPoint, len(lat))
	for i := range lat {
		pts[i] = geom.Point{X: lon[i], Y: lat[i]}
	}
	return &Geometry{Points: pts}
}

// NewGridGeometry returns a regular grid of cell centres starting at the
// north-west corner (lat0, lon0) and stepping south and east.
func NewGridGeometry(lat0, lon0, dlat, dlon float64, rows, cols int) *Geometry {
	pts := make(geom.MultiPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pts = append(pts, geom.Point{
				X: lon0 + (float64(c)+0.5)*dlon,
				Y: lat0 - (float64(r)+0.5)*dlat,
			})
		}
	}
	return &Geometry{Points: pts, Rows: rows, Cols: cols}
}

func (g *Geometry) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Points)
}

func (g *Geometry) Latitudes() Field {
	out := make(Field, len(g.Points))
	for i, p := range g.Points {
		out[i] = p.Y
	}
	return out
}

func (g *Geometry) Longitudes() Field {
	out := make(Field, len(g.Points))
	for i, p := range g.Points {
		out[i] = p.X
	}
	return out
}

// Bounds returns the bounding box of the points.
func (g *Geometry) Bounds() *geom.Bounds {
	return g.Points.Bounds()
}

// InputSet is the partially specified input of one invocation. Nil fields are
// absent and are resolved from collaborators where possible.
type InputSet struct {
	NDVI       Field `json:"NDVI"`
	ST         Field `json:"ST_C,omitempty"`  // surface temperature [C]
	Emissivity Field `json:"emissivity,omitempty"`
	Albedo     Field `json:"albedo,omitempty"`
	Rn         Field `json:"Rn_Wm2,omitempty"`   // net radiation [W/m2]
	Ta         Field `json:"Ta_C,omitempty"`     // air temperature [C]
	RH         Field `json:"RH,omitempty"`       // relative humidity [0-1]
	SWin       Field `json:"SWin_Wm2,omitempty"` // incoming shortwave [W/m2]
	G          Field `json:"G_Wm2,omitempty"`    // soil heat flux [W/m2]
	Topt       Field `json:"Topt_C,omitempty"`   // optimum temperature [C]
	FAPARmax   Field `json:"fAPARmax,omitempty"`

	Delta   Field `json:"delta_Pa,omitempty"` // slope of the saturation curve [Pa/C]
	Gamma   Field `json:"gamma_Pa,omitempty"` // psychrometric constant [Pa/C]
	Epsilon Field `json:"epsilon,omitempty"`

	Geometry *Geometry `json:"-"`
	Time     time.Time `json:"time_UTC,omitempty"`

	DayOfYear Field `json:"doy,omitempty"`
	HourOfDay Field `json:"hour_of_day,omitempty"` // solar hour
}

// fields returns the named fields of the set for shape validation.
func (in *InputSet) fields() map[string]Field {
	return map[string]Field{
		"NDVI":        in.NDVI,
		"ST_C":        in.ST,
		"emissivity":  in.Emissivity,
		"albedo":      in.Albedo,
		"Rn":          in.Rn,
		"Ta_C":        in.Ta,
		"RH":          in.RH,
		"SWin":        in.SWin,
		"G":           in.G,
		"Topt":        in.Topt,
		"fAPARmax":    in.FAPARmax,
		"delta":       in.Delta,
		"gamma":       in.Gamma,
		"epsilon":     in.Epsilon,
		"doy":         in.DayOfYear,
		"hour_of_day": in.HourOfDay,
	}
}

// clone returns a shallow copy; fields are shared but never written.
func (in *InputSet) clone() *InputSet {
	c := *in
	return &c
}
