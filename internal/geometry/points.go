package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when a point string cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromString parses "x,y,z" (whitespace and surrounding brackets are tolerated).
func PointFromString(coords string) (mgl64.Vec3, error) {
	s := strings.TrimSpace(coords)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, ErrInvalidCoordinates
	}
	var p mgl64.Vec3
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return mgl64.Vec3{}, ErrInvalidCoordinates
		}
		p[i] = v
	}
	return p, nil
}

// PointFromSlice converts a decoded [x, y, z] list.
func PointFromSlice(values []float64) (mgl64.Vec3, error) {
	if len(values) != 3 {
		return mgl64.Vec3{}, ErrInvalidCoordinates
	}
	return mgl64.Vec3{values[0], values[1], values[2]}, nil
}

// PointToGeom converts a vector into an XYZ point for storage. Non-finite
// coordinates are rejected.
func PointToGeom(p mgl64.Vec3) (geom.Point, error) {
	if math.IsNaN(p.Z()) || math.IsInf(p.Z(), 0) {
		return geom.NewEmptyPoint(geom.DimXYZ), ErrInvalidCoordinates
	}
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X(), Y: p.Y()},
			Z:    p.Z(),
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// PointFromGeom converts a stored point back into a vector. Empty points map to the origin.
func PointFromGeom(pt geom.Point) mgl64.Vec3 {
	c, ok := pt.Coordinates()
	if !ok {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{c.X, c.Y, c.Z}
}
