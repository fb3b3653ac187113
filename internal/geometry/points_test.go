package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    mgl64.Vec3
		wantErr bool
	}{
		{"plain", "0.1,0.7,-0.05", mgl64.Vec3{0.1, 0.7, -0.05}, false},
		{"spaces", " 1 , 2 , 3 ", mgl64.Vec3{1, 2, 3}, false},
		{"brackets", "[0, -0.5, 1e-2]", mgl64.Vec3{0, -0.5, 0.01}, false},
		{"two components", "1,2", mgl64.Vec3{}, true},
		{"four components", "1,2,3,4", mgl64.Vec3{}, true},
		{"not a number", "1,abc,3", mgl64.Vec3{}, true},
		{"empty", "", mgl64.Vec3{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PointFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointFromSlice(t *testing.T) {
	p, err := PointFromSlice([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, p)

	_, err = PointFromSlice([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestPointGeomRoundTrip(t *testing.T) {
	p := mgl64.Vec3{0.25, -0.7, 0.12}
	pt, err := PointToGeom(p)
	require.NoError(t, err)
	assert.Equal(t, p, PointFromGeom(pt))
}

func TestPointToGeom_NonFinite(t *testing.T) {
	tests := []struct {
		name string
		p    mgl64.Vec3
	}{
		{"nan x", mgl64.Vec3{math.NaN(), 0, 0}},
		{"inf y", mgl64.Vec3{0, math.Inf(1), 0}},
		{"nan z", mgl64.Vec3{0, 0, math.NaN()}},
		{"inf z", mgl64.Vec3{0, 0, math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := PointToGeom(tt.p)
			assert.ErrorIs(t, err, ErrInvalidCoordinates)
			assert.True(t, pt.IsEmpty())
		})
	}
}
