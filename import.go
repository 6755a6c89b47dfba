package sculpt

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt/internal/d3"
)

// Triangle is one input triangle for mesh import, vertices in winding order.
type Triangle [3]r3.Vec

// MeshFromTriangles welds triangle soup (STL and friends) into an indexed
// mesh by snapping vertices to a resolution grid of side vertexTol.
// vertexTol should be of the order of 1/1000th of the size of the smallest
// triangle in the model. If set to 0 then it is inferred automatically.
func MeshFromTriangles(triangles []Triangle, vertexTolOrZero float64) (*Mesh, error) {
	if len(triangles) == 0 {
		return nil, errors.New("sculpt: no triangles to import")
	}
	bb := d3.EmptyBox()
	minDist2 := math.MaxFloat64
	maxDist2 := -math.MaxFloat64
	for i := range triangles {
		for j, vert := range triangles[i] {
			bb = bb.Include(vert)
			side2 := r3.Norm2(r3.Sub(triangles[i][(j+1)%3], vert))
			minDist2 = math.Min(minDist2, side2)
			maxDist2 = math.Max(maxDist2, side2)
		}
	}
	tol := vertexTolOrZero
	suggested := math.Sqrt(minDist2) / 256
	if tol > math.Sqrt(maxDist2)/2 {
		return nil, errors.New("sculpt: vertex tolerance larger than triangle size")
	}
	if tol == 0 {
		tol = suggested
	}
	size := bb.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	div := int64(maxDim/tol + 1e-12)
	if div <= 0 {
		return nil, errors.New("sculpt: tolerance larger than model size")
	}
	if div > math.MaxInt64/2 {
		return nil, errors.New("sculpt: tolerance too small, overflowed int64")
	}

	cache := make(map[[3]int64]int)
	var positions []r3.Vec
	faces := make([][]int, 0, len(triangles))
	ri := 1 / tol
	for i := range triangles {
		var face [3]int
		degenerate := false
		for j, vert := range triangles[i] {
			// Scale vert to be integer in resolution-space.
			v := r3.Scale(ri, vert)
			vi := [3]int64{int64(v.X), int64(v.Y), int64(v.Z)}
			idx, ok := cache[vi]
			if !ok {
				idx = len(positions)
				cache[vi] = idx
				positions = append(positions, vert)
			}
			face[j] = idx
			for k := 0; k < j; k++ {
				if face[k] == idx {
					degenerate = true
				}
			}
		}
		// Welding can collapse slivers to fewer than 3 distinct vertices.
		if degenerate {
			continue
		}
		faces = append(faces, []int{face[0], face[1], face[2]})
	}
	if len(faces) == 0 {
		return nil, errors.New("sculpt: all triangles degenerate after welding")
	}
	return NewMesh(positions, faces), nil
}
