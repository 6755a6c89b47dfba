package hide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/gesture"
	"github.com/go-sculpt/sculpt/internal/bitvec"
)

func r3FromF32(v [3]float32) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// gestureOpName maps a gesture shape to its operation identifier.
func gestureOpName(shape gesture.Shape) string {
	switch shape {
	case gesture.ShapeBox:
		return OpHideShowBox
	case gesture.ShapeLasso:
		return OpHideShowLasso
	case gesture.ShapeLine:
		return OpHideShowLine
	default:
		return OpHideShowPolyline
	}
}

// ApplyGesture shows or hides the geometry selected by a screen gesture.
// Nodes whose bounds the gesture cannot reach are skipped up front; an
// empty candidate set still records an (empty) undo step.
func (e *Engine) ApplyGesture(obj *sculpt.Object, g *gesture.Data, action Action) {
	hide := actionToHide(action)
	name := gestureOpName(g.Shape)
	nodes := obj.PBVH.GatherAffected(func(n *sculpt.Node) bool {
		return g.AffectsBounds(n.Bounds())
	})

	e.pushBegin(name)
	switch obj.Rep() {
	case sculpt.RepFaces:
		m := obj.Mesh
		e.vertHideUpdate(obj, nodes, func(verts []int, out []bool) {
			for i, v := range verts {
				if g.ContainsPoint(m.Positions[v]) && g.TestNormal(m.Normals[v]) {
					out[i] = hide
				}
			}
		})
	case sculpt.RepGrids:
		c := obj.CCG
		size := c.GridSize()
		e.gridHideUpdate(obj, nodes, func(gi int, bits bitvec.Span) {
			grid := c.Grids[gi]
			for i := 0; i < size*size; i++ {
				elem := &grid[i]
				if g.ContainsPoint(elem.CoVec()) && g.TestNormal(elem.NoVec()) {
					bits.Set(i, hide)
				}
			}
		})
	case sculpt.RepBMesh:
		e.bmeshUpdate(obj, nodes, func(v *sculpt.BMVert) bool {
			co := r3FromF32(v.Co)
			no := r3FromF32(v.No)
			return g.ContainsPoint(co) && g.TestNormal(no)
		}, hide)
	}
	e.pushEnd(obj, name)
}
