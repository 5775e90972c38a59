// Package climatology serves the static PT-JPL auxiliary inputs, optimum
// temperature and maximum fAPAR, from a table of sites.
package climatology

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/hhkbp2/go-logging"
	"github.com/udawtr/ptjpl-go/geodesy"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

// DefaultMaxDistance is the search radius of a site lookup [m].
const DefaultMaxDistance = 5000.0

// Site is one row of the static table.
type Site struct {
	ID       string
	Name     string
	Location geom.Point
	Topt     float64 // [C]
	FAPARmax float64
}

// Table implements ptjpl.Climatology by matching each point to the nearest
// site within MaxDistance. Points without a site are NaN.
type Table struct {
	MaxDistance float64
	CacheSize   int

	sites []Site

	cacheInit sync.Once
	cache     *requestcache.Cache
	logger    logging.Logger
}

var _ ptjpl.Climatology = (*Table)(nil)

func NewTable(sites []Site) *Table {
	return &Table{
		MaxDistance: DefaultMaxDistance,
		CacheSize:   1024,
		sites:       sites,
		logger:      logging.GetLogger("ptjpl.climatology"),
	}
}

// Open reads a site table from a CSV file.
func Open(path string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open site table: %w", err)
	}
	defer f.Close()
	sites, err := ReadSites(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewTable(sites), nil
}

// ReadSites reads the columns ID, name, lat, lon, Topt_C and fAPARmax. A
// fAPARmax of zero is no data.
func ReadSites(r io.Reader) ([]Site, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read site header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"ID", "lat", "lon", "Topt_C", "fAPARmax"} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("site table has no %s column", name)
		}
	}

	var sites []Site
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read site row: %w", err)
		}
		var vals [4]float64
		for k, name := range []string{"lat", "lon", "Topt_C", "fAPARmax"} {
			s := strings.TrimSpace(row[index[name]])
			if s == "" || strings.EqualFold(s, "nan") {
				vals[k] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			vals[k] = v
		}
		site := Site{
			ID:       row[index["ID"]],
			Location: geom.Point{X: vals[1], Y: vals[0]},
			Topt:     vals[2],
			FAPARmax: vals[3],
		}
		if i, ok := index["name"]; ok {
			site.Name = row[i]
		}
		if site.FAPARmax == 0 {
			site.FAPARmax = math.NaN()
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func (t *Table) Sites() []Site {
	return t.sites
}

func (t *Table) Topt(ctx context.Context, g *ptjpl.Geometry) (ptjpl.Field, error) {
	return t.field(ctx, g, func(s Site) float64 { return s.Topt })
}

func (t *Table) FAPARmax(ctx context.Context, g *ptjpl.Geometry) (ptjpl.Field, error) {
	return t.field(ctx, g, func(s Site) float64 { return s.FAPARmax })
}

// ErrNoGeometry is returned for a lookup without points.
var ErrNoGeometry = errors.New("climatology: lookup needs a geometry with at least one point")

func (t *Table) field(ctx context.Context, g *ptjpl.Geometry, get func(Site) float64) (ptjpl.Field, error) {
	if g.Len() == 0 {
		return nil, ErrNoGeometry
	}
	t.cacheInit.Do(func() {
		t.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return t.nearest(request.(geom.Point)), nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(t.CacheSize))
	})

	out := make(ptjpl.Field, g.Len())
	misses := 0
	for i, p := range g.Points {
		req := t.cache.NewRequest(ctx, p, fmt.Sprintf("%g_%g", p.X, p.Y))
		r, err := req.Result()
		if err != nil {
			return nil, err
		}
		idx := r.(int)
		if idx < 0 {
			out[i] = math.NaN()
			misses++
			continue
		}
		out[i] = get(t.sites[idx])
	}
	if misses > 0 {
		t.logger.Debugf("%d of %d points have no site within %g m", misses, g.Len(), t.MaxDistance)
	}
	return out, nil
}

// nearest returns the index of the closest site within MaxDistance, or -1.
func (t *Table) nearest(p geom.Point) int {
	best, bestD := -1, math.Inf(1)
	for i, s := range t.sites {
		d, err := geodesy.Distance(p, s.Location)
		if err != nil || d > t.MaxDistance {
			continue
		}
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
