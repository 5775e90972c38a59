package ptjpl

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolarDeclination(t *testing.T) {
	dec := SolarDeclination(DayAngle(Series(172, 1)))
	assert.InDelta(t, 23.452046074516133, dec[0], 1e-9)
	assert.InDelta(t, -23.058629169260467, dec[1], 1e-9)
}

func TestSunriseHourAngle(t *testing.T) {
	sha := SunriseHourAngle(Scalar(172), Series(35, 0, 80, -80))
	assert.InDelta(t, 107.68371739732409, sha[0], 1e-9)
	assert.InDelta(t, 90.0, sha[1], 1e-9)
	// polar day and polar night
	assert.Equal(t, 180.0, sha[2])
	assert.Equal(t, 0.0, sha[3])

	assert.InDelta(t, 14.357828986309878, DaylightHours(sha)[0], 1e-9)
	assert.InDelta(t, 4.821085506845061, SunriseHour(sha)[0], 1e-9)
}

func TestDaylightFlux(t *testing.T) {
	sha := SunriseHourAngle(Scalar(172), Scalar(35))
	sunrise, daylight := SunriseHour(sha), DaylightHours(sha)

	f := DaylightFlux(Scalar(500), Series(13, 2, 19.5, 23), sunrise, daylight)
	assert.InDelta(t, 260.8677485890562, f[0], 1e-9)
	// outside daylight the integration is undefined
	assert.True(t, math.IsNaN(f[1]))
	assert.True(t, math.IsNaN(f[2]))
	assert.True(t, math.IsNaN(f[3]))

	// polar night has no daylight
	night := SunriseHourAngle(Scalar(172), Scalar(-80))
	f = DaylightFlux(Scalar(100), Scalar(12), SunriseHour(night), DaylightHours(night))
	assert.True(t, math.IsNaN(f[0]))
}

func TestSolarHour(t *testing.T) {
	at := time.Date(2019, time.June, 21, 19, 30, 0, 0, time.UTC)
	h := SolarHour(at, Series(-120, 0, 90))
	assert.InDelta(t, 11.5, h[0], 1e-12)
	assert.InDelta(t, 19.5, h[1], 1e-12)
	assert.InDelta(t, 1.5, h[2], 1e-12)
}

func TestRun_Daylight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpscaleToDaylight = true
	m := NewModel(cfg, Collaborators{})

	in := scenario()
	in.DayOfYear = Scalar(172)
	in.HourOfDay = Scalar(13)
	in.Geometry = NewSiteGeometry([]float64{35}, []float64{0})
	res, err := m.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.Daylight)

	d := res.Daylight
	assert.InDelta(t, 260.8677485890562, d.RnDaylight[0], 1e-9)
	assert.InDelta(t, 0.45686969847615083, d.EF[0], 1e-12)
	assert.InDelta(t, 119.18256964003443, d.LEDaylight[0], 1e-9)
	assert.InDelta(t, 2.522683742030977, d.ETDaylightKg[0], 1e-9)

	m2 := res.Map()
	assert.Contains(t, m2, KeyETDaylightKg)
	assert.Contains(t, m2, KeyRnDaylight)
}

func TestRun_DaylightFromTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpscaleToDaylight = true
	m := NewModel(cfg, Collaborators{})

	in := scenario()
	// 13:00 solar time on day 172 at longitude 0
	in.Time = time.Date(2019, time.June, 21, 13, 0, 0, 0, time.UTC)
	in.Geometry = NewSiteGeometry([]float64{35}, []float64{0})
	res, err := m.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.Daylight)
	assert.InDelta(t, 260.8677485890562, res.Daylight.RnDaylight[0], 1e-9)
}

func TestRun_DaylightWithoutDate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpscaleToDaylight = true
	res, err := NewModel(cfg, Collaborators{}).Run(context.Background(), scenario())
	require.NoError(t, err)
	assert.Nil(t, res.Daylight)
}

func TestEvaporativeFraction(t *testing.T) {
	assert.True(t, math.IsNaN(evaporativeFraction(0, 10)))
	assert.Equal(t, 0.5, evaporativeFraction(200, 100))
}
