package main

import (
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"

	"github.com/go-sculpt/sculpt"
)

// renderPreview rasterizes the visible part of the mesh to a PNG. The model
// is fit to a bi-unit cube, so the camera setup works for any input scale.
func renderPreview(m *sculpt.Mesh, outPath string) error {
	const (
		width, height = 960, 720
		scale         = 2 // supersampling factor
		fovy          = 30
		near, far     = 1, 10
	)
	tris := visibleTriangles(m)
	ftris := make([]*fauxgl.Triangle, 0, len(tris))
	for _, t := range tris {
		ftris = append(ftris, fauxgl.NewTriangleForPoints(
			fauxgl.V(t[0].X, t[0].Y, t[0].Z),
			fauxgl.V(t[1].X, t[1].Y, t[1].Z),
			fauxgl.V(t[2].X, t[2].Y, t[2].Z),
		))
	}
	var (
		eye    = fauxgl.V(3, 3, 3)
		center = fauxgl.V(0, 0, 0)
		up     = fauxgl.V(0, 0, 1)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor("#468966")
	context.Shader = shader
	if len(ftris) > 0 {
		mesh := fauxgl.NewTriangleMesh(ftris)
		mesh.BiUnitCube()
		context.DrawMesh(mesh)
	}

	// Downsample for antialiasing.
	image := resize.Resize(width, height, context.Image(), resize.Bilinear)
	return fauxgl.SavePNG(outPath, image)
}
