// Command meshtrace casts a ray against a mesh file and prints the closest
// front-facing hit point. Optionally writes a sphere marker at the hit point
// to an STL file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer"
	"github.com/saiko-tech/mesh-tracer/pkg/meshtracer/objmesh"
)

func parseVec3(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected \"x,y,z\", got %q", s)
	}

	var v mgl64.Vec3

	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("bad component %q in %q", p, s)
		}

		v[i] = f
	}

	return v, nil
}

func main() {
	var (
		meshPath = flag.String("mesh", "", "path to an OBJ or STL mesh file (required)")
		originS  = flag.String("origin", "", "ray origin as \"x,y,z\" (required)")
		throughS = flag.String("through", "", "point the ray passes through as \"x,y,z\" (required)")
		minDot   = flag.Float64("min-dot", meshtracer.DefaultMinDotProduct, "facing cull threshold")
		markers  = flag.String("markers", "", "write a hit marker to this STL file")
	)

	flag.Parse()

	if *meshPath == "" || *originS == "" || *throughS == "" {
		flag.Usage()
		os.Exit(1)
	}

	origin, err := parseVec3(*originS)
	if err != nil {
		fmt.Printf("Error: -origin: %v\n", err)
		os.Exit(1)
	}

	through, err := parseVec3(*throughS)
	if err != nil {
		fmt.Printf("Error: -through: %v\n", err)
		os.Exit(1)
	}

	caster := meshtracer.NewCaster(objmesh.NewProvider(filepath.Dir(*meshPath)))
	caster.MinDotProduct = *minDot

	var sink *objmesh.MarkerSink
	if *markers != "" {
		sink = objmesh.NewMarkerSink()
		caster.Sink = sink
	}

	r, err := caster.CastRay(filepath.Base(*meshPath), origin, through)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !r.Hit {
		fmt.Printf("no hit (%d triangles tested)\n", r.Triangles)
		return
	}

	fmt.Printf("hit: %.6f,%.6f,%.6f (%d triangles tested)\n",
		r.Point.X(), r.Point.Y(), r.Point.Z(), r.Triangles)

	if sink != nil {
		if err := sink.SaveSTL(*markers); err != nil {
			fmt.Printf("Error: failed to write markers: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("markers written to", *markers)
	}
}
