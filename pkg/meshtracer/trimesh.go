package meshtracer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// TriangleMesh is an in-memory Mesh: a triangle soup grouped into faces with
// stored per-face normals. It satisfies MeshProvider for itself, so a single
// procedural mesh can back a Caster directly.
type TriangleMesh struct {
	faces   [][]mgl64.Vec3
	normals []mgl64.Vec3
}

// AddFace appends a face with the given world-space unit normal and
// triangulated vertices. The vertex count must be a positive multiple of 3.
func (m *TriangleMesh) AddFace(normal mgl64.Vec3, verts ...mgl64.Vec3) error {
	if len(verts) == 0 || len(verts)%3 != 0 {
		return errors.Errorf("face vertex count must be a positive multiple of 3, got %d", len(verts))
	}

	m.faces = append(m.faces, verts)
	m.normals = append(m.normals, normal)

	return nil
}

// AddTriangle appends a single-triangle face, deriving the face normal from
// the winding of v0, v1, v2.
func (m *TriangleMesh) AddTriangle(v0, v1, v2 mgl64.Vec3) error {
	return m.AddFace(FaceNormal(v0, v1, v2), v0, v1, v2)
}

// FaceCount implements Mesh.
func (m *TriangleMesh) FaceCount() int {
	return len(m.faces)
}

// FaceNormal implements Mesh.
func (m *TriangleMesh) FaceNormal(face int) mgl64.Vec3 {
	return m.normals[face]
}

// FaceTriangles implements Mesh.
func (m *TriangleMesh) FaceTriangles(face int) []mgl64.Vec3 {
	return m.faces[face]
}

// Mesh implements MeshProvider: every handle resolves to the mesh itself.
func (m *TriangleMesh) Mesh(string) (Mesh, error) {
	return m, nil
}

// FaceNormal returns the unit normal implied by the winding of v0, v1, v2,
// or the zero vector for a degenerate triangle.
func FaceNormal(v0, v1, v2 mgl64.Vec3) mgl64.Vec3 {
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	if n.Len() == 0 {
		return n
	}

	return n.Normalize()
}

// Extents returns the minimum and maximum corners of the axis-aligned
// bounding box enclosing all faces of m.
func Extents(m Mesh) (min, max mgl64.Vec3) {
	min = mgl64.Vec3{mgl64.MaxValue, mgl64.MaxValue, mgl64.MaxValue}
	max = mgl64.Vec3{-mgl64.MaxValue, -mgl64.MaxValue, -mgl64.MaxValue}

	for face := 0; face < m.FaceCount(); face++ {
		for _, vertex := range m.FaceTriangles(face) {
			for i, f := range vertex {
				if f < min[i] {
					min[i] = f
				}
				if f > max[i] {
					max[i] = f
				}
			}
		}
	}

	return
}
