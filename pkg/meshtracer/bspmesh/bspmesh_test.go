package bspmesh

import (
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

func TestLoadMap_NonExisting(t *testing.T) {
	t.Parallel()

	_, err := LoadMap("../../../testdata/does_not_exist.bsp")
	assert.Error(t, err)
}

func TestLoadMap_BadFile(t *testing.T) {
	t.Parallel()

	_, err := LoadMap("./bspmesh_test.go")
	assert.Error(t, err)
}

func TestPropIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		handle string
		idx    int
		ok     bool
	}{
		{"prop/0", 0, true},
		{"prop/42", 42, true},
		{"prop/-1", 0, false},
		{"prop/x", 0, false},
		{"worldspawn", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		idx, ok := propIndex(tt.handle)
		assert.Equal(t, tt.ok, ok, "handle %q", tt.handle)
		if tt.ok {
			assert.Equal(t, tt.idx, idx, "handle %q", tt.handle)
		}
	}
}

func TestFanTriangulate(t *testing.T) {
	t.Parallel()

	quad := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{1, 1, 0},
		{0, 1, 0},
	}

	tris := fanTriangulate(quad)

	require.Len(t, tris, 6)
	assert.Equal(t, quad[0], tris[0])
	assert.Equal(t, quad[1], tris[1])
	assert.Equal(t, quad[2], tris[2])
	assert.Equal(t, quad[0], tris[3])
	assert.Equal(t, quad[2], tris[4])
	assert.Equal(t, quad[3], tris[5])
}

// set MESHTRACER_TEST_BSP to a .bsp file to run; optionally
// MESHTRACER_TEST_VPK to a multi-chunk VPK prefix for prop models.
func testMap(t *testing.T) *Map {
	t.Helper()

	path := os.Getenv("MESHTRACER_TEST_BSP")
	if path == "" {
		t.Skip("MESHTRACER_TEST_BSP not set")
	}

	var vpkPaths []string
	if p := os.Getenv("MESHTRACER_TEST_VPK"); p != "" {
		vpkPaths = append(vpkPaths, p)
	}

	m, err := LoadMap(path, vpkPaths...)
	if err != nil {
		// maps are usable with missing prop models
		require.ErrorAs(t, err, &MissingModelsError{})
	}

	require.NotNil(t, m)

	return m
}

func TestMap_WorldMesh(t *testing.T) {
	t.Parallel()

	m := testMap(t)

	world, err := m.Mesh(WorldHandle)
	require.NoError(t, err)
	assert.Greater(t, world.FaceCount(), 0)

	for face := 0; face < world.FaceCount(); face++ {
		tris := world.FaceTriangles(face)
		assert.Equal(t, 0, len(tris)%3)
		assert.NotEmpty(t, tris)
	}

	min, max := meshtracer.Extents(world)
	for i := 0; i < 3; i++ {
		assert.LessOrEqual(t, min[i], max[i])
	}
}

func TestMap_Handles(t *testing.T) {
	t.Parallel()

	m := testMap(t)

	handles := m.Handles()
	require.NotEmpty(t, handles)
	assert.Equal(t, WorldHandle, handles[0])
	assert.Len(t, handles, m.PropCount()+1)

	for _, h := range handles {
		_, err := m.Mesh(h)
		assert.NoError(t, err, "handle %q", h)
	}

	_, err := m.Mesh("no-such-handle")
	assert.ErrorIs(t, err, meshtracer.ErrInvalidMesh)
}

func TestMap_CastRay(t *testing.T) {
	t.Parallel()

	m := testMap(t)

	world, err := m.Mesh(WorldHandle)
	require.NoError(t, err)

	// cast straight down from above the map's center
	min, max := meshtracer.Extents(world)
	center := min.Add(max).Mul(0.5)
	origin := mgl64.Vec3{center.X(), center.Y(), max.Z() + 1000}

	r := meshtracer.CastRayAgainstMesh(world, origin, center, meshtracer.DefaultMinDotProduct)

	assert.Greater(t, r.Triangles, 0)

	if r.Hit {
		assert.Less(t, r.Point.Z(), origin.Z())
	}
}
