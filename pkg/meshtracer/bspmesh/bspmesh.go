// Package bspmesh exposes the geometry of Source-engine BSP maps as castable
// meshes: the world polygon soup under the "worldspawn" handle and each
// static prop's collision model under "prop/<n>".
package bspmesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/galaco/bsp"
	"github.com/galaco/bsp/lumps"
	vpk "github.com/galaco/vpk2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

// WorldHandle resolves to the map's world polygon mesh.
const WorldHandle = "worldspawn"

const (
	propHandlePrefix = "prop/"
	maxSurfinfoVerts = 32
)

// Map is a loaded BSP map. It implements meshtracer.MeshProvider.
type Map struct {
	world *worldMesh
	props []*propMesh
}

// LoadMap loads a BSP map from a file. Static-prop collision models are
// resolved from the map's pakfile and the given VPK archives (each path is a
// multi-chunk VPK prefix, without the "_dir.vpk" suffix). A map whose prop
// models are partially missing is still returned, alongside a
// MissingModelsError.
func LoadMap(path string, vpkPaths ...string) (*Map, error) {
	bspfile, err := bsp.ReadFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read bsp file %q", path)
	}

	vpks := make([]*vpk.VPK, 0, len(vpkPaths))

	for _, p := range vpkPaths {
		pak, err := vpk.Open(vpk.MultiVPK(p))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open vpk %q", p)
		}

		vpks = append(vpks, pak)
	}

	m := &Map{
		world: buildWorldMesh(bspfile),
	}

	models, modelsErr := loadModels(bspfile, vpks)

	m.props = buildPropMeshes(bspfile, models)

	if modelsErr != nil {
		// map is usable, world geometry and resolved props intact
		return m, modelsErr
	}

	return m, nil
}

// Mesh implements meshtracer.MeshProvider.
func (m *Map) Mesh(handle string) (meshtracer.Mesh, error) {
	if handle == WorldHandle {
		return m.world, nil
	}

	if idx, ok := propIndex(handle); ok && idx < len(m.props) {
		return m.props[idx], nil
	}

	return nil, errors.Wrapf(meshtracer.ErrInvalidMesh, "unknown handle %q", handle)
}

// Handles returns all handles this map resolves.
func (m *Map) Handles() []string {
	out := make([]string, 0, len(m.props)+1)
	out = append(out, WorldHandle)

	for i := range m.props {
		out = append(out, fmt.Sprintf("%s%d", propHandlePrefix, i))
	}

	return out
}

// PropCount returns the number of static props in the map.
func (m *Map) PropCount() int {
	return len(m.props)
}

func propIndex(handle string) (int, bool) {
	if !strings.HasPrefix(handle, propHandlePrefix) {
		return 0, false
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(handle, propHandlePrefix))
	if err != nil || idx < 0 {
		return 0, false
	}

	return idx, true
}

type worldFace struct {
	tris   []mgl64.Vec3 // fan triangulation, winding consistent with normal
	normal mgl64.Vec3
}

type worldMesh struct {
	faces []worldFace
}

// FaceCount implements meshtracer.Mesh.
func (m *worldMesh) FaceCount() int {
	return len(m.faces)
}

// FaceNormal implements meshtracer.Mesh.
func (m *worldMesh) FaceNormal(face int) mgl64.Vec3 {
	return m.faces[face].normal
}

// FaceTriangles implements meshtracer.Mesh.
func (m *worldMesh) FaceTriangles(face int) []mgl64.Vec3 {
	return m.faces[face].tris
}

func buildWorldMesh(bspfile *bsp.Bsp) *worldMesh {
	surfaces := bspfile.Lump(bsp.LumpFaces).(*lumps.Face).GetData()
	surfEdges := bspfile.Lump(bsp.LumpSurfEdges).(*lumps.Surfedge).GetData()
	vertices := bspfile.Lump(bsp.LumpVertexes).(*lumps.Vertex).GetData()
	edges := bspfile.Lump(bsp.LumpEdges).(*lumps.Edge).GetData()
	planes := bspfile.Lump(bsp.LumpPlanes).(*lumps.Planes).GetData()

	faces := make([]worldFace, 0, len(surfaces))

	for _, surface := range surfaces {
		firstEdge := int(surface.FirstEdge)
		numEdges := int(surface.NumEdges)

		if numEdges < 3 || numEdges > maxSurfinfoVerts || surface.TexInfo <= 0 {
			continue
		}

		outline := make([]mgl64.Vec3, numEdges)

		for i := 0; i < numEdges; i++ {
			edgeIndex := surfEdges[firstEdge+i]

			var v mgl32.Vec3
			if edgeIndex >= 0 {
				v = vertices[edges[edgeIndex][0]]
			} else {
				v = vertices[edges[-edgeIndex][1]]
			}

			outline[i] = vec64(v)
		}

		normal := vec64(planes[surface.Planenum].Normal)
		if surface.Side != 0 {
			// the face uses the back side of its plane
			normal = normal.Mul(-1)
		}

		faces = append(faces, worldFace{
			tris:   fanTriangulate(outline),
			normal: normal,
		})
	}

	return &worldMesh{faces: faces}
}

func fanTriangulate(outline []mgl64.Vec3) []mgl64.Vec3 {
	tris := make([]mgl64.Vec3, 0, 3*(len(outline)-2))

	for i := 1; i+1 < len(outline); i++ {
		tris = append(tris, outline[0], outline[i], outline[i+1])
	}

	return tris
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
