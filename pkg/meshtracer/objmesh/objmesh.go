// Package objmesh loads OBJ and STL files as castable meshes, backed by
// github.com/fogleman/fauxgl. It also provides a scene sink that drops a
// small sphere marker at every hit point and can write the markers to STL.
package objmesh

import (
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

// Mesh is a triangle mesh loaded from a file. Each triangle is a face of its
// own, with the normal derived from the vertex winding.
type Mesh struct {
	tris    [][3]mgl64.Vec3
	normals []mgl64.Vec3
}

// FaceCount implements meshtracer.Mesh.
func (m *Mesh) FaceCount() int {
	return len(m.tris)
}

// FaceNormal implements meshtracer.Mesh.
func (m *Mesh) FaceNormal(face int) mgl64.Vec3 {
	return m.normals[face]
}

// FaceTriangles implements meshtracer.Mesh.
func (m *Mesh) FaceTriangles(face int) []mgl64.Vec3 {
	return m.tris[face][:]
}

// FromFauxgl adapts a fauxgl mesh.
func FromFauxgl(m *fauxgl.Mesh) *Mesh {
	out := &Mesh{
		tris:    make([][3]mgl64.Vec3, len(m.Triangles)),
		normals: make([]mgl64.Vec3, len(m.Triangles)),
	}

	for i, t := range m.Triangles {
		tri := [3]mgl64.Vec3{
			vec64(t.V1.Position),
			vec64(t.V2.Position),
			vec64(t.V3.Position),
		}

		out.tris[i] = tri
		out.normals[i] = meshtracer.FaceNormal(tri[0], tri[1], tri[2])
	}

	return out
}

// LoadMesh loads an OBJ or STL file, selected by file extension.
func LoadMesh(path string) (*Mesh, error) {
	var (
		fm  *fauxgl.Mesh
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		fm, err = fauxgl.LoadOBJ(path)
	case ".stl":
		fm, err = fauxgl.LoadSTL(path)
	default:
		return nil, errors.Errorf("unsupported mesh file extension %q", filepath.Ext(path))
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to load mesh file %q", path)
	}

	return FromFauxgl(fm), nil
}

// Provider resolves mesh handles to OBJ/STL files relative to a directory.
// Loaded meshes are cached; Provider is not safe for concurrent use.
type Provider struct {
	dir   string
	cache map[string]*Mesh
}

// NewProvider returns a Provider rooted at dir.
func NewProvider(dir string) *Provider {
	return &Provider{
		dir:   dir,
		cache: make(map[string]*Mesh),
	}
}

// Mesh implements meshtracer.MeshProvider. Handles that do not resolve to a
// loadable mesh file yield meshtracer.ErrInvalidMesh.
func (p *Provider) Mesh(handle string) (meshtracer.Mesh, error) {
	if m, ok := p.cache[handle]; ok {
		return m, nil
	}

	m, err := LoadMesh(filepath.Join(p.dir, handle))
	if err != nil {
		return nil, errors.Wrapf(meshtracer.ErrInvalidMesh, "%q: %v", handle, err)
	}

	p.cache[handle] = m

	return m, nil
}

func vec64(v fauxgl.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
