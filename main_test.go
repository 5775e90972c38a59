package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udawtr/ptjpl-go/station"
)

func TestElevationSource(t *testing.T) {
	src, err := elevationSource(false, "")
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = elevationSource(true, "")
	assert.Error(t, err)

	src, err = elevationSource(true, "http://localhost/dem")
	require.NoError(t, err)
	api, ok := src.(*station.ElevationAPI)
	require.True(t, ok)
	assert.Equal(t, "http://localhost/dem", api.URL)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(math.NaN()))
	assert.Len(t, optional(1), 1)
}
