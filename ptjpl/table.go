package ptjpl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are the accepted formats of the time_UTC column.
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Table is a column-oriented CSV table. Columns that parse as numbers are
// held as fields; all others are kept as text.
type Table struct {
	Columns []string
	Numeric map[string]Field
	Text    map[string][]string
	Rows    int
}

func NewTable(rows int) *Table {
	return &Table{
		Numeric: map[string]Field{},
		Text:    map[string][]string{},
		Rows:    rows,
	}
}

func (t *Table) Has(name string) bool {
	_, num := t.Numeric[name]
	_, txt := t.Text[name]
	return num || txt
}

// Column returns a numeric column, or nil.
func (t *Table) Column(name string) Field {
	return t.Numeric[name]
}

// SetColumn adds or replaces a numeric column. Scalars are broadcast to the
// number of rows.
func (t *Table) SetColumn(name string, f Field) {
	if !t.Has(name) {
		t.Columns = append(t.Columns, name)
	}
	delete(t.Text, name)
	t.Numeric[name] = broadcastTo(f, t.Rows)
}

func (t *Table) SetText(name string, v []string) {
	if !t.Has(name) {
		t.Columns = append(t.Columns, name)
	}
	delete(t.Numeric, name)
	t.Text[name] = v
}

// Clone returns a copy sharing no column storage with t.
func (t *Table) Clone() *Table {
	c := NewTable(t.Rows)
	c.Columns = append([]string{}, t.Columns...)
	for k, v := range t.Numeric {
		c.Numeric[k] = v.Clone()
	}
	for k, v := range t.Text {
		c.Text[k] = append([]string{}, v...)
	}
	return c
}

// ReadTable reads a CSV table with a header row. Empty cells and "NaN" are
// NaN in numeric columns.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}

	t := NewTable(len(records))
	for j, name := range header {
		raw := make([]string, len(records))
		for i, rec := range records {
			raw[i] = rec[j]
		}
		if f, ok := parseColumn(raw); ok {
			t.SetColumn(name, f)
		} else {
			t.SetText(name, raw)
		}
	}
	return t, nil
}

func parseColumn(raw []string) (Field, bool) {
	f := make(Field, len(raw))
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "nan") {
			f[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f[i] = v
	}
	return f, true
}

// WriteCSV writes the table with NaN as "NaN".
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	row := make([]string, len(t.Columns))
	for i := 0; i < t.Rows; i++ {
		for j, name := range t.Columns {
			if f, ok := t.Numeric[name]; ok {
				row[j] = formatFloat(f[i])
			} else {
				row[j] = t.Text[name][i]
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TableOutputColumns are appended by ProcessTable in this order.
var TableOutputColumns = []string{
	"G_Wm2", "Rn_soil_Wm2", "LE_soil_Wm2", "Rn_canopy_Wm2", "PET_Wm2", "LE_canopy_Wm2",
	"LE_interception_Wm2", "LE_Wm2",
}

// tableColumn maps output keys to their table column names.
func tableColumn(key string) string {
	switch key {
	case KeyEF, KeyETDaylightKg:
		return key
	}
	return key + "_Wm2"
}

// tableAliases lists the accepted column names of each input, first match
// wins.
var tableAliases = map[string][]string{
	"NDVI":       {"NDVI"},
	"ST_C":       {"ST_C"},
	"albedo":     {"albedo"},
	"emissivity": {"emissivity"},
	"Ta_C":       {"Ta_C", "Ta"},
	"RH":         {"RH"},
	"Rn":         {"Rn", "Rn_Wm2"},
	"SWin":       {"SWin", "SWin_Wm2"},
	"G":          {"G", "G_Wm2"},
	"Topt":       {"Topt", "Topt_C"},
	"fAPARmax":   {"fAPARmax"},
	"lat":        {"lat", "latitude"},
	"lon":        {"lon", "longitude"},
}

func (t *Table) lookup(name string) Field {
	for _, alias := range tableAliases[name] {
		if f := t.Column(alias); f != nil {
			return f
		}
	}
	return nil
}

// ProcessTable runs the model over every row of in and returns a copy with
// the output columns appended. NDVI at or below the configured threshold and
// fAPARmax of zero are treated as no data. Rows sharing a time_UTC value are
// computed in one invocation.
func (m *Model) ProcessTable(ctx context.Context, in *Table) (*Table, error) {
	cfg := m.cfg
	if in.lookup("NDVI") == nil {
		return nil, &MissingInputError{Name: "NDVI"}
	}
	if in.lookup("Ta_C") == nil && m.collaborators.Atmosphere == nil {
		return nil, &MissingInputError{Name: "Ta_C"}
	}

	out := in.Clone()
	if in.Rows == 0 {
		for _, name := range TableOutputColumns {
			out.SetColumn(name, Field{})
		}
		return out, nil
	}

	groups, times, err := timeGroups(in)
	if err != nil {
		return nil, err
	}

	cols := map[string]Field{}
	for _, name := range TableOutputColumns {
		cols[name] = NaNs(in.Rows)
	}

	for g, rows := range groups {
		set := tableInputs(in, rows, cfg)
		set.Time = times[g]

		res, err := m.RunWithConfig(ctx, set, cfg)
		if err != nil {
			return nil, err
		}
		for key, f := range res.Map() {
			name := tableColumn(key)
			dst, ok := cols[name]
			if !ok {
				dst = NaNs(in.Rows)
				cols[name] = dst
			}
			for k, row := range rows {
				dst[row] = f.At(k)
			}
		}
	}

	for _, name := range TableOutputColumns {
		out.SetColumn(name, cols[name])
	}
	extra := make([]string, 0, len(cols))
	for name := range cols {
		if !out.Has(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out.SetColumn(name, cols[name])
	}

	m.logger.Infof("processed %d rows in %d invocations", in.Rows, len(groups))
	return out, nil
}

// timeGroups partitions rows by time_UTC. Without the column every row is in
// one group with a zero time.
func timeGroups(t *Table) ([][]int, []time.Time, error) {
	raw, ok := t.Text["time_UTC"]
	if !ok {
		all := make([]int, t.Rows)
		for i := range all {
			all[i] = i
		}
		return [][]int{all}, []time.Time{{}}, nil
	}

	index := map[string]int{}
	var groups [][]int
	var times []time.Time
	for i, s := range raw {
		g, ok := index[s]
		if !ok {
			ts, err := ParseTime(s)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			g = len(groups)
			index[s] = g
			groups = append(groups, nil)
			times = append(times, ts)
		}
		groups[g] = append(groups[g], i)
	}
	return groups, times, nil
}

// ParseTime parses a UTC timestamp in any of TimeLayouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// tableInputs builds the input set of the given rows.
func tableInputs(t *Table, rows []int, cfg Config) *InputSet {
	pick := func(name string) Field {
		f := t.lookup(name)
		if f == nil {
			return nil
		}
		out := make(Field, len(rows))
		for k, row := range rows {
			out[k] = f[row]
		}
		return out
	}

	set := &InputSet{
		NDVI: map1(pick("NDVI"), func(v float64) float64 {
			if v > cfg.NDVIThreshold {
				return v
			}
			return math.NaN()
		}),
		ST:         pick("ST_C"),
		Albedo:     pick("albedo"),
		Emissivity: pick("emissivity"),
		Ta:         pick("Ta_C"),
		RH:         pick("RH"),
		Rn:         pick("Rn"),
		SWin:       pick("SWin"),
		G:          pick("G"),
		Topt:       pick("Topt"),
	}
	if f := pick("fAPARmax"); f != nil {
		set.FAPARmax = map1(f, func(v float64) float64 {
			if v == 0 {
				return math.NaN()
			}
			return v
		})
	}
	if lat, lon := pick("lat"), pick("lon"); lat != nil && lon != nil {
		set.Geometry = NewSiteGeometry(lat, lon)
	}
	return set
}
