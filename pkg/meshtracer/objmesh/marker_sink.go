package objmesh

import (
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

const (
	defaultMarkerRadius = 0.1
	defaultMarkerDetail = 2
)

// MarkerSink collects hit points as small sphere meshes that can be written
// to an STL file for inspection in a mesh viewer. Not safe for concurrent use.
type MarkerSink struct {
	// Radius is the marker sphere radius.
	Radius float64
	// Detail is the sphere subdivision level passed to fauxgl.NewSphere.
	Detail int

	markers int
	mesh    *fauxgl.Mesh
}

var _ meshtracer.SceneSink = (*MarkerSink)(nil)

// NewMarkerSink returns a MarkerSink with radius 0.1.
func NewMarkerSink() *MarkerSink {
	return &MarkerSink{
		Radius: defaultMarkerRadius,
		Detail: defaultMarkerDetail,
		mesh:   fauxgl.NewEmptyMesh(),
	}
}

// PlaceMarker implements meshtracer.SceneSink.
func (s *MarkerSink) PlaceMarker(point mgl64.Vec3) {
	marker := fauxgl.NewSphere(s.Detail)
	marker.Transform(fauxgl.Scale(fauxgl.V(s.Radius, s.Radius, s.Radius)).
		Translate(fauxgl.V(point.X(), point.Y(), point.Z())))

	s.mesh.Add(marker)
	s.markers++
}

// Markers returns the number of markers placed so far.
func (s *MarkerSink) Markers() int {
	return s.markers
}

// SaveSTL writes all markers to an STL file.
func (s *MarkerSink) SaveSTL(path string) error {
	return fauxgl.SaveSTL(path, s.mesh)
}
