// Package meshtracer casts rays against triangle meshes and reports the hit
// point closest to the ray origin, culling faces that do not oppose the ray.
//
// Geometry is consumed through the Mesh interface so any source of world-space
// faces (mesh files, BSP maps, procedural geometry) can be cast against.
package meshtracer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer/mollertrumbore"
)

// DefaultMinDotProduct is the default facing cull threshold.
// Zero would cull only strictly back-facing polygons; -0.25 additionally
// drops near-grazing front faces. Note that the threshold compares against
// the dot product of the face normal with the unnormalized ray direction,
// so its effect scales with |through - origin|.
const DefaultMinDotProduct = -0.25

// ErrInvalidMesh is returned when a MeshProvider cannot resolve a handle.
// Providers wrap it with handle context; check with errors.Is.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a read-only collection of world-space polygon faces.
// Implementations must not require mutation during a cast.
type Mesh interface {
	// FaceCount returns the number of faces.
	FaceCount() int
	// FaceNormal returns the world-space unit normal of a face.
	FaceNormal(face int) mgl64.Vec3
	// FaceTriangles returns the face's triangulated world-space vertices.
	// The length is always a multiple of 3 and the winding is consistent
	// with the face normal.
	FaceTriangles(face int) []mgl64.Vec3
}

// MeshProvider resolves mesh handles to meshes.
type MeshProvider interface {
	Mesh(handle string) (Mesh, error)
}

// SceneSink receives hit points for visualization. Fire-and-forget: the
// caster ignores sink failures, so implementations must not panic.
type SceneSink interface {
	PlaceMarker(point mgl64.Vec3)
}

// NopSink is a SceneSink that does nothing.
type NopSink struct{}

// PlaceMarker implements SceneSink.
func (NopSink) PlaceMarker(mgl64.Vec3) {}

// CastResult is the outcome of casting one ray against one mesh.
type CastResult struct {
	Hit   bool
	Point mgl64.Vec3
	// Triangles is the number of candidate triangles tested after culling.
	Triangles int
}

// CastRayAgainstMesh casts the ray defined by origin and a point it passes
// through against m and returns the qualifying hit point closest to origin.
//
// Faces whose normal n satisfies (through-origin)·n > minDotProduct are
// skipped entirely. All triangles of the surviving faces are tested; among
// the hits the one with the smallest Euclidean distance to origin wins,
// first-encountered on ties.
func CastRayAgainstMesh(m Mesh, origin, through mgl64.Vec3, minDotProduct float64) CastResult {
	return castRay(m, origin, through, minDotProduct, 0)
}

func castRay(m Mesh, origin, through mgl64.Vec3, minDotProduct float64, maxTriangles int) CastResult {
	rayVector := through.Sub(origin)

	var candidates []mgl64.Vec3

	for i := 0; i < m.FaceCount(); i++ {
		if rayVector.Dot(m.FaceNormal(i)) > minDotProduct {
			continue // back-facing or too grazing
		}

		candidates = append(candidates, m.FaceTriangles(i)...)
	}

	if maxTriangles > 0 && len(candidates) > 3*maxTriangles {
		candidates = candidates[:3*maxTriangles]
	}

	out := CastResult{
		Triangles: len(candidates) / 3,
	}

	closestLen := mgl64.MaxValue

	for i := 0; i+2 < len(candidates); i += 3 {
		r := mollertrumbore.RayIntersectsTriangle(origin, through, [3]mgl64.Vec3{
			candidates[i],
			candidates[i+1],
			candidates[i+2],
		})
		if !r.Hit {
			continue
		}

		// distance from the ray origin, not the through point, so a
		// through point inside the mesh still selects the entry face
		if l := origin.Sub(r.Point).Len(); l < closestLen {
			closestLen = l
			out.Hit = true
			out.Point = r.Point
		}
	}

	return out
}

// Caster binds a MeshProvider, an optional SceneSink and cull settings.
// The zero value is not usable; construct with NewCaster.
type Caster struct {
	// Provider resolves mesh handles.
	Provider MeshProvider
	// Sink, if non-nil, receives the hit point of every successful cast.
	Sink SceneSink
	// MinDotProduct is the facing cull threshold, DefaultMinDotProduct
	// unless overridden.
	MinDotProduct float64
	// MaxTriangles caps the number of candidate triangles tested per cast,
	// 0 meaning unbounded. Triangles beyond the cap are dropped in face
	// order. This is a defensive bound, off by default.
	MaxTriangles int
}

// NewCaster returns a Caster with the default cull threshold.
func NewCaster(provider MeshProvider) *Caster {
	return &Caster{
		Provider:      provider,
		MinDotProduct: DefaultMinDotProduct,
	}
}

// CastRay resolves handle through the Caster's provider and casts the ray
// defined by origin and through against it. A handle the provider cannot
// resolve yields an error satisfying errors.Is(err, ErrInvalidMesh),
// distinct from a well-formed cast that hits nothing.
func (c *Caster) CastRay(handle string, origin, through mgl64.Vec3) (CastResult, error) {
	m, err := c.Provider.Mesh(handle)
	if err != nil {
		return CastResult{}, errors.Wrapf(err, "failed to resolve mesh %q", handle)
	}

	out := castRay(m, origin, through, c.MinDotProduct, c.MaxTriangles)

	if out.Hit && c.Sink != nil {
		c.Sink.PlaceMarker(out.Point)
	}

	return out, nil
}
