package objmesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

// unit cube centered at the origin, outward-facing winding
const cubeOBJ = `
v -0.5 -0.5 -0.5
v 0.5 -0.5 -0.5
v 0.5 0.5 -0.5
v -0.5 0.5 -0.5
v -0.5 -0.5 0.5
v 0.5 -0.5 0.5
v 0.5 0.5 0.5
v -0.5 0.5 0.5
f 1 4 3
f 1 3 2
f 5 6 7
f 5 7 8
f 1 5 8
f 1 8 4
f 2 3 7
f 2 7 6
f 1 2 6
f 1 6 5
f 3 4 8
f 3 8 7
`

func writeCubeOBJ(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(cubeOBJ), 0o644))

	return dir
}

func TestProvider_CastAgainstOBJ(t *testing.T) {
	t.Parallel()

	c := meshtracer.NewCaster(NewProvider(writeCubeOBJ(t)))

	r, err := c.CastRay("cube.obj", mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 0})

	require.NoError(t, err)
	assert.True(t, r.Hit)
	assert.InDelta(t, 0, r.Point.X(), 1e-6)
	assert.InDelta(t, 0, r.Point.Y(), 1e-6)
	assert.InDelta(t, -0.5, r.Point.Z(), 1e-6)
}

func TestProvider_UnknownHandle(t *testing.T) {
	t.Parallel()

	p := NewProvider(t.TempDir())

	_, err := p.Mesh("missing.obj")

	require.Error(t, err)
	assert.ErrorIs(t, err, meshtracer.ErrInvalidMesh)
}

func TestProvider_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.ply"), []byte("ply"), 0o644))

	_, err := NewProvider(dir).Mesh("cube.ply")

	require.Error(t, err)
	assert.ErrorIs(t, err, meshtracer.ErrInvalidMesh)
}

func TestProvider_CachesMeshes(t *testing.T) {
	t.Parallel()

	dir := writeCubeOBJ(t)
	p := NewProvider(dir)

	first, err := p.Mesh("cube.obj")
	require.NoError(t, err)

	// deleting the file must not invalidate the cached mesh
	require.NoError(t, os.Remove(filepath.Join(dir, "cube.obj")))

	second, err := p.Mesh("cube.obj")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestMesh_NormalsFromWinding(t *testing.T) {
	t.Parallel()

	m, err := LoadMesh(filepath.Join(writeCubeOBJ(t), "cube.obj"))
	require.NoError(t, err)

	require.Equal(t, 12, m.FaceCount())

	// first face is part of the -z side
	n := m.FaceNormal(0)
	assert.InDelta(t, 0, n.X(), 1e-9)
	assert.InDelta(t, 0, n.Y(), 1e-9)
	assert.InDelta(t, -1, n.Z(), 1e-9)

	assert.Len(t, m.FaceTriangles(0), 3)
}

func TestMarkerSink_SaveSTL(t *testing.T) {
	t.Parallel()

	sink := NewMarkerSink()
	sink.PlaceMarker(mgl64.Vec3{0, 0, -0.5})
	sink.PlaceMarker(mgl64.Vec3{1, 2, 3})

	assert.Equal(t, 2, sink.Markers())

	path := filepath.Join(t.TempDir(), "markers.stl")
	require.NoError(t, sink.SaveSTL(path))

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, stat.Size(), int64(84)) // more than a bare STL header
}
