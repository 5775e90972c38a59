package station

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

const stationCSV = `time,station,lat,lon,Ta_C,RH,SWin_Wm2
2019-06-21 18:00:00,A,38.0,-121.0,20,50,700
2019-06-21 19:00:00,A,38.0,-121.0,22,0.4,-5
2019-06-21 19:00:00,B,38.1,-121.0,30,0.6,800
`

func testRecords(t *testing.T) []Record {
	records, err := ReadRecords(strings.NewReader(stationCSV))
	require.NoError(t, err)
	return records
}

func at(s string) time.Time {
	t, err := ptjpl.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReadRecords(t *testing.T) {
	records := testRecords(t)
	require.Len(t, records, 3)

	assert.Equal(t, "A", records[0].Station)
	assert.Equal(t, at("2019-06-21T18:00:00Z"), records[0].Time)
	assert.Equal(t, 0.5, records[0].RH, "percent is rescaled")
	assert.Equal(t, 0.4, records[1].RH)
	assert.Equal(t, 0.0, records[1].SWin, "negative shortwave is zero")
	assert.Equal(t, 38.1, records[2].Lat)
}

func TestReadRecords_OptionalShortwave(t *testing.T) {
	records, err := ReadRecords(strings.NewReader("time,station,lat,lon,Ta_C,RH\n2019-06-21 19:00,A,38,-121,22,\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, math.IsNaN(records[0].SWin))
	assert.True(t, math.IsNaN(records[0].RH))
}

func TestReadRecords_MissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("time,station,lat,lon,Ta_C\n"))
	assert.Error(t, err)
}

func TestStation_Nearest(t *testing.T) {
	s := groupStations(testRecords(t))[0]
	require.Equal(t, "A", s.ID)

	rec, ok := s.nearest(at("2019-06-21 18:20:00"), time.Hour)
	require.True(t, ok)
	assert.Equal(t, 20.0, rec.Ta)

	rec, ok = s.nearest(at("2019-06-21 18:40:00"), time.Hour)
	require.True(t, ok)
	assert.Equal(t, 22.0, rec.Ta)

	_, ok = s.nearest(at("2019-06-21 23:00:00"), time.Hour)
	assert.False(t, ok)
}

func TestStore(t *testing.T) {
	s := NewStore(testRecords(t))
	assert.Len(t, s.Stations(), 2)
	assert.Equal(t, 38.0, s.Bounds().Min.Y)
	assert.Equal(t, 38.1, s.Bounds().Max.Y)

	ctx := context.Background()
	g := ptjpl.NewSiteGeometry([]float64{38.0, 38.05}, []float64{-121.0, -121.0})

	Ta, err := s.Ta(ctx, at("2019-06-21 19:00:00"), g)
	require.NoError(t, err)
	require.Len(t, Ta, 2)
	assert.Equal(t, 22.0, Ta[0], "a station location takes its own value")
	assert.InDelta(t, 26.0, Ta[1], 0.01)

	RH, err := s.RH(ctx, at("2019-06-21 18:00:00"), g)
	require.NoError(t, err)
	assert.Equal(t, 0.5, RH[0])

	SWin, err := s.SWin(ctx, at("2019-06-21 19:00:00"), g)
	require.NoError(t, err)
	assert.Equal(t, 0.0, SWin[0])
}

func TestStore_NoObservation(t *testing.T) {
	s := NewStore(testRecords(t))
	g := ptjpl.NewSiteGeometry([]float64{38.0}, []float64{-121.0})
	_, err := s.Ta(context.Background(), at("2019-06-23 19:00:00"), g)
	assert.Error(t, err)
}

func TestStore_NoGeometry(t *testing.T) {
	s := NewStore(testRecords(t))
	_, err := s.Ta(context.Background(), at("2019-06-21 19:00:00"), nil)
	assert.ErrorIs(t, err, ErrNoGeometry)
	_, err = s.RH(context.Background(), at("2019-06-21 19:00:00"), &ptjpl.Geometry{})
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestStore_InModel(t *testing.T) {
	s := NewStore(testRecords(t))
	m := ptjpl.NewModel(ptjpl.DefaultConfig(), ptjpl.Collaborators{Atmosphere: s})
	res, err := m.Run(context.Background(), &ptjpl.InputSet{
		NDVI:     ptjpl.Scalar(0.6),
		Rn:       ptjpl.Scalar(500),
		G:        ptjpl.Scalar(50),
		Topt:     ptjpl.Scalar(28),
		FAPARmax: ptjpl.Scalar(0.8),
		Time:     at("2019-06-21 19:00:00"),
		Geometry: ptjpl.NewSiteGeometry([]float64{38.0}, []float64{-121.0}),
	})
	require.NoError(t, err)
	assert.Equal(t, ptjpl.SourceAtmosphere, res.Resolution.Source("Ta"))
	assert.False(t, math.IsNaN(res.LE[0]))
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(stationCSV), 0o644))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("time,station,lat,lon,Ta_C,RH\n2019-06-21 19:00:00,C,39,-120,18,0.7\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv.gz"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	records, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Len(t, s.Stations(), 3)

	_, err = Open(t.TempDir())
	assert.Error(t, err)
}

func TestReadDir_ManyFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3*readConcurrency; i++ {
		body := fmt.Sprintf("time,station,lat,lon,Ta_C,RH\n2019-06-21 19:00:00,S%02d,38,-121,%d,0.5\n", i, i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("s%02d.csv", i)), []byte(body), 0o644))
	}
	records, err := ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 3*readConcurrency)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("S%02d", i), r.Station)
		assert.Equal(t, float64(i), r.Ta)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "zz.csv"), []byte("time,station\n"), 0o644))
	_, err = ReadDir(dir)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/data/a.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(stationCSV))
	}))
	defer ts.Close()

	dir := t.TempDir()
	paths, err := Fetch(context.Background(), ts.Client(), ts.URL+"/data/", dir, []string{"a.csv"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, stationCSV, string(b))

	// cached files are not downloaded again
	_, err = Fetch(context.Background(), ts.Client(), ts.URL+"/data/", dir, []string{"a.csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	_, err = Fetch(context.Background(), ts.Client(), ts.URL+"/data/", dir, []string{"missing.csv"})
	assert.Error(t, err)
	assert.False(t, fileExists(filepath.Join(dir, "missing.csv")))
	assert.False(t, fileExists(filepath.Join(dir, "missing.csv.part")))
}
