// Package station supplies air temperature, relative humidity and incoming
// shortwave radiation interpolated from station observations.
package station

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/hhkbp2/go-logging"
	"github.com/udawtr/ptjpl-go/geodesy"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

// Variables served by a Store.
const (
	VarTa   = "Ta"
	VarRH   = "RH"
	VarSWin = "SWin"
)

const (
	DefaultMaxTimeGap = 3 * time.Hour
	DefaultNeighbors  = 4
	DefaultCacheSize  = 4096
)

// Store implements ptjpl.AtmosphericState over a set of stations. For each
// point it takes the observation nearest in time at every station and blends
// the closest Neighbors stations with inverse-distance weights.
//
// When Elevation is set, station air temperatures are moved to the ground
// elevation of the point with LapseRate before blending. Stations without an
// elevation are used as observed.
type Store struct {
	MaxTimeGap time.Duration
	Neighbors  int
	CacheSize  int
	Elevation  ElevationSource

	stations []*Station
	bounds   *geom.Bounds

	cacheInit sync.Once
	cache     *requestcache.Cache
	elevCache *requestcache.Cache
	logger    logging.Logger
}

var _ ptjpl.AtmosphericState = (*Store)(nil)

// NewStore returns a store over records with the default search settings.
func NewStore(records []Record) *Store {
	s := &Store{
		MaxTimeGap: DefaultMaxTimeGap,
		Neighbors:  DefaultNeighbors,
		CacheSize:  DefaultCacheSize,
		stations:   groupStations(records),
		logger:     logging.GetLogger("ptjpl.station"),
	}
	pts := make(geom.MultiPoint, len(s.stations))
	for i, st := range s.stations {
		pts[i] = st.Location
	}
	s.bounds = pts.Bounds()
	s.logger.Infof("%d stations, %d records", len(s.stations), len(records))
	return s
}

// Open loads every station file in dir.
func Open(dir string) (*Store, error) {
	records, err := ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no station records in %s", dir)
	}
	return NewStore(records), nil
}

func (s *Store) Stations() []*Station {
	return s.stations
}

// Bounds returns the bounding box of the station locations.
func (s *Store) Bounds() *geom.Bounds {
	return s.bounds
}

func (s *Store) Ta(ctx context.Context, t time.Time, g *ptjpl.Geometry) (ptjpl.Field, error) {
	return s.field(ctx, VarTa, t, g)
}

func (s *Store) RH(ctx context.Context, t time.Time, g *ptjpl.Geometry) (ptjpl.Field, error) {
	return s.field(ctx, VarRH, t, g)
}

func (s *Store) SWin(ctx context.Context, t time.Time, g *ptjpl.Geometry) (ptjpl.Field, error) {
	return s.field(ctx, VarSWin, t, g)
}

type pointRequest struct {
	variable string
	t        time.Time
	p        geom.Point
}

// ErrNoGeometry is returned for a lookup without points.
var ErrNoGeometry = errors.New("station: lookup needs a geometry with at least one point")

func (s *Store) field(ctx context.Context, variable string, t time.Time, g *ptjpl.Geometry) (ptjpl.Field, error) {
	if g.Len() == 0 {
		return nil, ErrNoGeometry
	}
	s.cacheInit.Do(func() {
		s.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(pointRequest)
			return s.interpolate(ctx, r.variable, r.t, r.p)
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(s.CacheSize))
		s.elevCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return s.Elevation.Elevation(ctx, request.(geom.Point))
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(s.CacheSize))
	})

	out := make(ptjpl.Field, g.Len())
	for i, p := range g.Points {
		req := s.cache.NewRequest(ctx,
			pointRequest{variable: variable, t: t, p: p},
			fmt.Sprintf("%s_%d_%g_%g", variable, t.Unix(), p.X, p.Y),
		)
		v, err := req.Result()
		if err != nil {
			return nil, err
		}
		out[i] = v.(float64)
	}
	return out, nil
}

func value(r Record, variable string) float64 {
	switch variable {
	case VarTa:
		return r.Ta
	case VarRH:
		return r.RH
	case VarSWin:
		return r.SWin
	}
	return math.NaN()
}

type candidate struct {
	distance float64
	value    float64
}

// targetElevation returns the elevation of p, or NaN when it is not known.
func (s *Store) targetElevation(ctx context.Context, p geom.Point) float64 {
	if s.Elevation == nil {
		return math.NaN()
	}
	r, err := s.elevCache.NewRequest(ctx, p, fmt.Sprintf("%g_%g", p.X, p.Y)).Result()
	if err != nil {
		s.logger.Warnf("no elevation at (%g, %g), using uncorrected Ta: %v", p.Y, p.X, err)
		return math.NaN()
	}
	return r.(float64)
}

// interpolate blends the nearest stations observing variable near t.
func (s *Store) interpolate(ctx context.Context, variable string, t time.Time, p geom.Point) (float64, error) {
	elev := math.NaN()
	if variable == VarTa {
		elev = s.targetElevation(ctx, p)
	}

	var cands []candidate
	for _, st := range s.stations {
		rec, ok := st.nearest(t, s.MaxTimeGap)
		if !ok {
			continue
		}
		v := value(rec, variable)
		if math.IsNaN(v) {
			continue
		}
		if !math.IsNaN(elev) && !math.IsNaN(st.Elevation) {
			v = CorrectTa(v, elev-st.Elevation)
		}
		d, err := geodesy.Distance(p, st.Location)
		if err != nil {
			s.logger.Debugf("skipping station %s: %v", st.ID, err)
			continue
		}
		cands = append(cands, candidate{distance: d, value: v})
	}
	if len(cands) == 0 {
		return math.NaN(), fmt.Errorf("station: no %s observation within %v of %s near (%g, %g)",
			variable, s.MaxTimeGap, t.Format(time.RFC3339), p.Y, p.X)
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].distance < cands[j].distance })
	if n := s.Neighbors; n > 0 && len(cands) > n {
		cands = cands[:n]
	}
	distances := make([]float64, len(cands))
	for i, c := range cands {
		distances[i] = c.distance
	}
	var v float64
	for i, w := range geodesy.InverseDistanceWeights(distances) {
		v += w * cands[i].value
	}
	return v, nil
}
