package bspmesh

import (
	"fmt"
	"io"
	"strings"

	"github.com/galaco/bsp"
	"github.com/galaco/bsp/lumps"
	"github.com/galaco/bsp/primitives/game"
	"github.com/galaco/studiomodel"
	"github.com/galaco/studiomodel/mdl"
	"github.com/galaco/studiomodel/phy"
	"github.com/galaco/studiomodel/vtx"
	"github.com/galaco/studiomodel/vvd"
	vpk "github.com/galaco/vpk2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
)

// propMesh is a static prop's collision model in world space. Every collision
// triangle is a face of its own, normal derived from the winding.
type propMesh struct {
	tris    [][3]mgl64.Vec3
	normals []mgl64.Vec3
}

// FaceCount implements meshtracer.Mesh.
func (m *propMesh) FaceCount() int {
	return len(m.tris)
}

// FaceNormal implements meshtracer.Mesh.
func (m *propMesh) FaceNormal(face int) mgl64.Vec3 {
	return m.normals[face]
}

// FaceTriangles implements meshtracer.Mesh.
func (m *propMesh) FaceTriangles(face int) []mgl64.Vec3 {
	return m.tris[face][:]
}

func buildPropMeshes(bspfile *bsp.Bsp, models []*studiomodel.StudioModel) []*propMesh {
	gameLump := bspfile.Lump(bsp.LumpGame).(*lumps.Game).GetData()
	spLump := gameLump.GetStaticPropLump()

	out := make([]*propMesh, 0, len(spLump.PropLumps))

	for _, p := range spLump.PropLumps {
		model := models[p.GetPropType()]

		var phyData *phy.Phy
		if model != nil {
			phyData = model.Phy
		}

		// missing model or missing collision data yields an empty mesh,
		// so the handle still resolves
		tris := propTriangles(p, phyData)

		pm := &propMesh{
			tris:    tris,
			normals: make([]mgl64.Vec3, len(tris)),
		}

		for i, tri := range tris {
			pm.normals[i] = meshtracer.FaceNormal(tri[0], tri[1], tri[2])
		}

		out = append(out, pm)
	}

	return out
}

func propTriangles(prop game.IStaticPropDataLump, phyData *phy.Phy) [][3]mgl64.Vec3 {
	if phyData == nil {
		return nil
	}

	angleMatrices := []mgl64.Mat4{
		mgl64.Rotate3DX(float64(prop.GetAngles()[0])).Mat4(),
		mgl64.Rotate3DY(float64(prop.GetAngles()[1])).Mat4(),
		mgl64.Rotate3DZ(float64(prop.GetAngles()[2])).Mat4(),
	}

	origin := vec64(prop.GetOrigin())

	out := make([][3]mgl64.Vec3, len(phyData.TriangleFaces))

	for i, t := range phyData.TriangleFaces {
		a := origin.Add(phyVertexToWorld(phyData.Vertices[t.V1].Vec3()))
		b := origin.Add(phyVertexToWorld(phyData.Vertices[t.V2].Vec3()))
		c := origin.Add(phyVertexToWorld(phyData.Vertices[t.V3].Vec3()))

		for _, mat := range angleMatrices {
			a = mgl64.TransformCoordinate(a, mat)
			b = mgl64.TransformCoordinate(b, mat)
			c = mgl64.TransformCoordinate(c, mat)
		}

		out[i] = [3]mgl64.Vec3{a, b, c}
	}

	return out
}

// phy vertices are stored in metres with the engine's axes swapped
func phyVertexToWorld(v mgl32.Vec3) (out mgl64.Vec3) {
	const inchesPerMetre = 1 / 0.0254

	out[0] = inchesPerMetre * float64(v[2])
	out[1] = inchesPerMetre * float64(-v[0])
	out[2] = inchesPerMetre * float64(-v[1])

	return out
}

type virtualFileSystem interface {
	open(string) (io.ReadCloser, error)
}

func loadModelPart[T any](fs virtualFileSystem, filePath string, reader func(io.Reader) (T, error)) (T, error) {
	var def T

	f, err := fs.open(filePath)
	if err != nil {
		return def, errors.Wrapf(err, "failed to open model part file %q", filePath)
	}

	defer f.Close()

	part, err := reader(f)
	if err != nil {
		return def, errors.Wrapf(err, "failed to read model part from %q", filePath)
	}

	return part, nil
}

func loadModel(fs virtualFileSystem, filePath string) (*studiomodel.StudioModel, error) {
	model := strings.Split(filePath, ".mdl")[0]

	mdlData, err := loadModelPart(fs, model+".mdl", mdl.ReadFromStream)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read mdl")
	}

	vvdData, err := loadModelPart(fs, model+".vvd", vvd.ReadFromStream)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read vvd")
	}

	vtxData, err := loadModelPart(fs, model+".dx90.vtx", vtx.ReadFromStream)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read vtx")
	}

	phyData, err := loadModelPart(fs, model+".phy", phy.ReadFromStream)
	if err != nil && !errors.Is(err, errFileNotFound) { // .phy is optional
		return nil, errors.Wrap(err, "failed to read phy")
	}

	return &studiomodel.StudioModel{
		Filename: model,
		Mdl:      mdlData,
		Vvd:      vvdData,
		Vtx:      vtxData,
		Phy:      phyData,
	}, nil
}

// MissingModelsError reports static-prop models that could not be resolved
// from the pakfile or the mounted VPK archives.
type MissingModelsError struct {
	missingModels []string
}

func (m MissingModelsError) Error() string {
	return fmt.Sprintf(`missing models: ("%s")`, strings.Join(m.missingModels, `", "`))
}

func loadModels(bspfile *bsp.Bsp, vpks []*vpk.VPK) ([]*studiomodel.StudioModel, error) {
	fs := &vfs{
		pakfile: bspfile.Lump(bsp.LumpPakfile).(*lumps.Pakfile).GetData(),
		vpks:    vpks,
	}

	var (
		models        []*studiomodel.StudioModel
		missingModels []string
	)

	gameLump := bspfile.Lump(bsp.LumpGame).(*lumps.Game).GetData()

	for _, model := range gameLump.GetStaticPropLump().DictLump.Name {
		m, err := loadModel(fs, model)
		if err != nil {
			missingModels = append(missingModels, model)

			models = append(models, nil)

			continue
		}

		models = append(models, m)
	}

	if len(missingModels) > 0 {
		return models, MissingModelsError{
			missingModels: missingModels,
		}
	}

	return models, nil
}
