package station

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

// Record is one station observation.
type Record struct {
	Time    time.Time
	Station string
	Lat     float64
	Lon     float64
	Ta      float64 // air temperature [C]
	RH      float64 // relative humidity [0-1]
	SWin    float64 // incoming shortwave [W/m2]
	Elev    float64 // station elevation [m], NaN if unknown
}

// Station is the time-ordered series of one station.
type Station struct {
	ID        string
	Location  geom.Point
	Elevation float64
	Records   []Record
}

// nearest returns the record closest in time to t, if it lies within maxGap.
func (s *Station) nearest(t time.Time, maxGap time.Duration) (Record, bool) {
	i := sort.Search(len(s.Records), func(i int) bool { return !s.Records[i].Time.Before(t) })
	best, gap := -1, time.Duration(math.MaxInt64)
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(s.Records) {
			continue
		}
		d := s.Records[j].Time.Sub(t)
		if d < 0 {
			d = -d
		}
		if d < gap {
			best, gap = j, d
		}
	}
	if best < 0 || gap > maxGap {
		return Record{}, false
	}
	return s.Records[best], true
}

// columns of a station file
const (
	colTime    = "time"
	colStation = "station"
	colLat     = "lat"
	colLon     = "lon"
	colTa      = "Ta_C"
	colRH      = "RH"
	colSWin    = "SWin_Wm2"
	colTd      = "Td_C"
	colElev    = "elev_m"
)

// ReadRecords reads station records from CSV. The SWin_Wm2 and elev_m
// columns are optional. Relative humidity above 1.5 is taken to be in
// percent. Without an RH value it is derived from the dew point Td_C.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read station header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{colTime, colStation, colLat, colLon, colTa} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("station file has no %s column", name)
		}
	}
	_, hasRH := index[colRH]
	_, hasTd := index[colTd]
	if !hasRH && !hasTd {
		return nil, fmt.Errorf("station file has neither %s nor %s column", colRH, colTd)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read station row: %w", err)
		}

		t, err := ptjpl.ParseTime(row[index[colTime]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := Record{
			Time:    t,
			Station: strings.TrimSpace(row[index[colStation]]),
			RH:      math.NaN(),
			SWin:    math.NaN(),
			Elev:    math.NaN(),
		}
		Td := math.NaN()
		for name, dst := range map[string]*float64{
			colLat: &rec.Lat, colLon: &rec.Lon, colTa: &rec.Ta, colRH: &rec.RH, colSWin: &rec.SWin,
			colTd: &Td, colElev: &rec.Elev,
		} {
			i, ok := index[name]
			if !ok {
				continue
			}
			v, err := parseValue(row[i])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			*dst = v
		}
		if rec.RH > 1.5 {
			rec.RH /= 100
		}
		if math.IsNaN(rec.RH) && !math.IsNaN(Td) {
			rec.RH = dewPointRH(rec.Ta, Td)
		}
		if rec.SWin < 0 {
			rec.SWin = 0
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// ReadFile reads a station file, decompressing it when the name ends in .gz.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	records, err := ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// readConcurrency is the number of station files read at once.
const readConcurrency = 4

// ReadDir reads every .csv and .csv.gz file in dir. Up to readConcurrency
// files are read at once; records keep the order of the file names.
func ReadDir(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz")) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	type loaded struct {
		index   int
		records []Record
		err     error
	}
	c := make(chan loaded, len(paths))
	sem := make(chan struct{}, readConcurrency)
	for i, path := range paths {
		go func(i int, path string) {
			sem <- struct{}{}
			defer func() { <-sem }()
			rs, err := ReadFile(path)
			c <- loaded{index: i, records: rs, err: err}
		}(i, path)
	}

	perFile := make([][]Record, len(paths))
	var firstErr error
	for range paths {
		l := <-c
		if l.err != nil && firstErr == nil {
			firstErr = l.err
		}
		perFile[l.index] = l.records
	}
	if firstErr != nil {
		return nil, firstErr
	}

	var records []Record
	for _, rs := range perFile {
		records = append(records, rs...)
	}
	return records, nil
}

// groupStations collects records by station, ordered by time. The location
// and elevation of a station are those of its first record.
func groupStations(records []Record) []*Station {
	byID := map[string]*Station{}
	var stations []*Station
	for _, r := range records {
		s, ok := byID[r.Station]
		if !ok {
			s = &Station{ID: r.Station, Location: geom.Point{X: r.Lon, Y: r.Lat}, Elevation: r.Elev}
			byID[r.Station] = s
			stations = append(stations, s)
		}
		s.Records = append(s.Records, r)
	}
	for _, s := range stations {
		sort.SliceStable(s.Records, func(i, j int) bool { return s.Records[i].Time.Before(s.Records[j].Time) })
	}
	return stations
}
