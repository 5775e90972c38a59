package verma

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

func inputs(ST float64) ptjpl.NetRadiationInputs {
	return ptjpl.NetRadiationInputs{
		SWin:       ptjpl.Scalar(800),
		Albedo:     ptjpl.Scalar(0.15),
		ST:         ptjpl.Scalar(ST),
		Emissivity: ptjpl.Scalar(0.97),
		Ta:         ptjpl.Scalar(25),
		RH:         ptjpl.Scalar(0.5),
	}
}

func TestNetRadiation(t *testing.T) {
	m := &Model{}
	r, err := m.NetRadiation(context.Background(), inputs(10))
	require.NoError(t, err)

	assert.InDelta(t, 120, r.SWout[0], 1e-9)
	assert.InDelta(t, 680, r.SWnet[0], 1e-9)
	assert.InDelta(t, 365.44598300333826, r.LWin[0], 1e-6)
	assert.InDelta(t, 353.5486444758167, r.LWout[0], 1e-6)
	assert.InDelta(t, 691.8973385275217, r.Rn[0], 1e-6)
}

func TestNetRadiation_Cloudy(t *testing.T) {
	m := &Model{CloudMask: []bool{true}}
	r, err := m.NetRadiation(context.Background(), inputs(10))
	require.NoError(t, err)
	assert.InDelta(t, 774.5260662510957, r.Rn[0], 1e-6)
}

func TestNetRadiation_ClipsLongwave(t *testing.T) {
	m := &Model{}
	r, err := m.NetRadiation(context.Background(), inputs(30))
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.LWnet[0])
	assert.InDelta(t, 680, r.Rn[0], 1e-9)
}

func TestNetRadiation_Broadcast(t *testing.T) {
	in := inputs(10)
	in.SWin = ptjpl.Series(800, math.NaN(), 0)
	m := &Model{CloudMask: []bool{false, false, true}}
	r, err := m.NetRadiation(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, r.Rn, 3)
	assert.InDelta(t, 691.8973385275217, r.Rn[0], 1e-6)
	assert.True(t, math.IsNaN(r.Rn[1]))
	// at night only the longwave balance remains
	assert.InDelta(t, r.LWnet[2], r.Rn[2], 1e-9)
}

func TestNetRadiation_MaskShape(t *testing.T) {
	m := &Model{CloudMask: []bool{true, false}}
	in := inputs(10)
	in.SWin = ptjpl.Series(800, 800, 800)
	_, err := m.NetRadiation(context.Background(), in)
	var shape *ptjpl.ShapeError
	assert.ErrorAs(t, err, &shape)
}

func TestNetRadiation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Model{}).NetRadiation(ctx, inputs(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAtmosphericEmissivity(t *testing.T) {
	Ea := VaporPressure(25, 0.5)
	assert.InDelta(t, 1585.093, Ea, 1e-3)
	e := AtmosphericEmissivity(Ea, 298.15)
	assert.True(t, e > 0 && e < 1)
}

func TestDaylightNetRadiation(t *testing.T) {
	// solar noon carries the peak of the sinusoid
	Rn := DaylightNetRadiation(ptjpl.Scalar(500), ptjpl.Scalar(12), ptjpl.Scalar(172), ptjpl.Scalar(38))
	require.Len(t, Rn, 1)
	assert.InDelta(t, 1.6*500/math.Pi, Rn[0], 1e-9)

	night := DaylightNetRadiation(ptjpl.Scalar(500), ptjpl.Scalar(2), ptjpl.Scalar(172), ptjpl.Scalar(38))
	assert.True(t, math.IsNaN(night[0]))
}
