package ptjpl

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sebalFlux reproduces the SEBAL relation for table tests without
// importing the collaborator package.
type sebalFlux struct{}

func (sebalFlux) SoilHeatFlux(ctx context.Context, Rn, ST, NDVI, albedo Field) (Field, error) {
	n := resultLen(Rn, ST, NDVI, albedo)
	return mapN(n, func(i int) float64 {
		ndvi := NDVI.At(i)
		G := Rn.At(i) * ST.At(i) * (0.0038 + 0.0074*albedo.At(i)) * (1 - 0.98*math.Pow(ndvi, 4))
		return floor(G, 0)
	}), nil
}

func readTestTable(t *testing.T, name string) *Table {
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()
	tbl, err := ReadTable(f)
	require.NoError(t, err)
	return tbl
}

func TestReadTable(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("ID,NDVI,RH\na,0.5,\nb,NaN,0.4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows)
	assert.Equal(t, []string{"ID", "NDVI", "RH"}, tbl.Columns)
	assert.Equal(t, []string{"a", "b"}, tbl.Text["ID"])
	assert.Equal(t, 0.5, tbl.Column("NDVI")[0])
	assert.True(t, math.IsNaN(tbl.Column("NDVI")[1]))
	assert.True(t, math.IsNaN(tbl.Column("RH")[0]))
}

func TestTable_WriteCSV(t *testing.T) {
	tbl := NewTable(2)
	tbl.SetText("ID", []string{"a", "b"})
	tbl.SetColumn("LE_Wm2", Series(1.25, math.NaN()))
	tbl.SetColumn("k", Scalar(3))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "ID,LE_Wm2,k\na,1.25,3\nb,NaN,3\n", buf.String())
}

func TestProcessTable_Regression(t *testing.T) {
	m := NewModel(DefaultConfig(), Collaborators{SoilHeatFlux: sebalFlux{}})
	report, err := Verify(context.Background(), m, readTestTable(t, "inputs.csv"), readTestTable(t, "reference.csv"))
	require.NoError(t, err)
	assert.True(t, report.OK(), report.String())
	assert.Len(t, report.Columns, len(TableOutputColumns))
}

func TestProcessTable(t *testing.T) {
	m := NewModel(DefaultConfig(), Collaborators{SoilHeatFlux: sebalFlux{}})
	in := readTestTable(t, "inputs.csv")
	out, err := m.ProcessTable(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.Rows, out.Rows)
	for _, name := range TableOutputColumns {
		assert.Contains(t, out.Columns, name)
	}
	// input columns are carried through
	assert.Equal(t, in.Text["ID"], out.Text["ID"])
	assert.Nil(t, in.Column("LE_Wm2"))

	// NDVI at or below the vegetation threshold is no data
	bare := 4
	assert.True(t, math.IsNaN(out.Column("LE_Wm2")[bare]))
	// fAPARmax of zero is no data
	zero := 5
	assert.True(t, math.IsNaN(out.Column("LE_canopy_Wm2")[zero]))
	assert.False(t, math.IsNaN(out.Column("LE_soil_Wm2")[zero]))
}

func TestProcessTable_TaAlias(t *testing.T) {
	m := NewModel(DefaultConfig(), Collaborators{})
	in, err := ReadTable(strings.NewReader("NDVI,Ta,RH,Rn,G,Topt,fAPARmax\n0.6,25,0.5,500,50,28,0.8\n"))
	require.NoError(t, err)
	out, err := m.ProcessTable(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 205.59136431426788, out.Column("LE_Wm2")[0], 1e-9)
	assert.Equal(t, 50.0, out.Column("G_Wm2")[0])
}

func TestProcessTable_MissingTemperature(t *testing.T) {
	m := NewModel(DefaultConfig(), Collaborators{})
	in, err := ReadTable(strings.NewReader("NDVI,RH,Rn,G\n0.6,0.5,500,50\n"))
	require.NoError(t, err)
	_, err = m.ProcessTable(context.Background(), in)
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Ta_C", missing.Name)
}

func TestProcessTable_StrictRH(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictRH = true
	m := NewModel(cfg, Collaborators{})
	in, err := ReadTable(strings.NewReader("NDVI,Ta_C,RH,Rn,G,Topt,fAPARmax\n0.6,25,50,500,50,28,0.8\n"))
	require.NoError(t, err)
	_, err = m.ProcessTable(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

func TestProcessTable_TimeGroups(t *testing.T) {
	atmo := &fakeAtmosphere{ta: Scalar(25), rh: Scalar(0.5)}
	m := NewModel(DefaultConfig(), Collaborators{Atmosphere: atmo})
	in, err := ReadTable(strings.NewReader(
		"time_UTC,lat,lon,NDVI,Rn,G,Topt,fAPARmax\n" +
			"2019-06-21 19:00:00,38.4,-120.9,0.6,500,50,28,0.8\n" +
			"2019-06-22 19:00:00,38.4,-120.9,0.6,500,50,28,0.8\n" +
			"2019-06-21 19:00:00,38.5,-121.0,0.6,500,50,28,0.8\n"))
	require.NoError(t, err)

	out, err := m.ProcessTable(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, atmo.calls["Ta"])
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 205.59136431426788, out.Column("LE_Wm2")[i], 1e-9)
	}
}

func TestCompareTables(t *testing.T) {
	got := NewTable(3)
	got.SetColumn("x", Series(1, math.NaN(), 3))
	want := NewTable(3)
	want.SetColumn("x", Series(1+1e-9, math.NaN(), 3.1))

	report := CompareTables(got, want, []string{"x", "y"})
	assert.False(t, report.OK())
	require.Len(t, report.Columns, 2)
	require.Len(t, report.Columns[0].Mismatches, 1)
	assert.Equal(t, 2, report.Columns[0].Mismatches[0].Index)
	assert.InDelta(t, 0.1, report.Columns[0].MaxDiff, 1e-9)
	assert.True(t, report.Columns[1].Missing)
	assert.Contains(t, report.String(), "x: 1 mismatches")
}
