package hide

import (
	"sync"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/internal/bitvec"
	"github.com/go-sculpt/sculpt/internal/threading"
)

// FilterAction selects the direction of a visibility filter pass.
type FilterAction int

const (
	// FilterGrow expands the visible region by one vertex ring per
	// iteration.
	FilterGrow FilterAction = iota
	// FilterShrink expands the hidden region instead.
	FilterShrink
)

func (a FilterAction) String() string {
	if a == FilterGrow {
		return "grow"
	}
	return "shrink"
}

// vertexIterationThreshold is the vertex count one automatic filter
// iteration covers.
const vertexIterationThreshold = 50000

// FilterParams configures VisibilityFilter. Iterations is clamped to
// [1, 100]; AutoIterationCount overrides it with a count derived from the
// vertex count so the visual step size is roughly resolution independent.
type FilterParams struct {
	Action             FilterAction
	Iterations         int
	AutoIterationCount bool
}

// AutoIterations returns the iteration count for a mesh of n vertices.
func AutoIterations(n int) int {
	it := (n + vertexIterationThreshold - 1) / vertexIterationThreshold
	if it < 1 {
		it = 1
	}
	return it
}

func (p FilterParams) iterations(obj *sculpt.Object) int {
	if p.AutoIterationCount {
		return AutoIterations(obj.VertCount())
	}
	it := p.Iterations
	if it < 1 {
		it = 1
	}
	if it > 100 {
		it = 100
	}
	return it
}

// VisibilityFilter grows or shrinks the visible region topologically. With
// nothing hidden (and nothing to grow back) the operation is a no-op and
// records no undo step.
func (e *Engine) VisibilityFilter(obj *sculpt.Object, p FilterParams) {
	// Both directions dilate from the hidden frontier; no hidden state
	// means no frontier.
	switch obj.Rep() {
	case sculpt.RepFaces:
		if !obj.Mesh.Attributes.Contains(sculpt.AttrPoint, sculpt.AttrHideVert) {
			return
		}
	case sculpt.RepGrids:
		if obj.CCG.GridHidden == nil {
			return
		}
	}
	target := p.Action == FilterShrink // hidden flag value being spread
	iterations := p.iterations(obj)

	e.pushBegin(OpVisibilityFilter)
	switch obj.Rep() {
	case sculpt.RepFaces:
		e.growShrinkMesh(obj, target, iterations)
	case sculpt.RepGrids:
		e.growShrinkGrids(obj, target, iterations)
	case sculpt.RepBMesh:
		e.growShrinkBMesh(obj, target, iterations)
	}
	e.pushEnd(obj, OpVisibilityFilter)
}

// growShrinkMesh dilates the target value one vertex ring per iteration.
// Double buffered: each iteration reads the previous state and writes the
// next, so writes cannot feed the same iteration's reads.
func (e *Engine) growShrinkMesh(obj *sculpt.Object, target bool, iterations int) {
	m := obj.Mesh
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	bufs := [2][]bool{
		append([]bool(nil), hideVert...),
		append([]bool(nil), hideVert...),
	}
	// Faces incident to hidden vertices gate the frontier walk; derive the
	// gate locally so a missing .hide_poly layer doesn't matter.
	hidePoly := make([]bool, m.NumFaces())
	sculpt.AllFaceHideFromVert(m, hideVert, hidePoly)

	for it := 0; it < iterations; it++ {
		read := bufs[it%2]
		write := bufs[1-it%2]
		copy(write, read)
		affectVisibilityMesh(m, hidePoly, read, write, target)
		sculpt.AllFaceHideFromVert(m, write, hidePoly)
	}

	final := bufs[iterations%2]
	e.vertHideUpdate(obj, obj.PBVH.Leaves(), func(verts []int, out []bool) {
		for i, v := range verts {
			out[i] = final[v]
		}
	})
}

// affectVisibilityMesh spreads the target value within every face touching
// the hidden region: each corner vertex already at target sets its two
// face-adjacent corner vertices to target. Writes are collected per worker
// and applied after the join.
func affectVisibilityMesh(m *sculpt.Mesh, hidePoly, read, write []bool, target bool) {
	var mu sync.Mutex
	var pending []int
	threading.ParallelRange(m.NumFaces(), 512, func(start, end int) {
		var local []int
		for f := start; f < end; f++ {
			if !hidePoly[f] {
				continue
			}
			cs, ce := m.FaceRange(f)
			for c := cs; c < ce; c++ {
				if read[m.CornerVerts[c]] != target {
					continue
				}
				prev := c - 1
				if c == cs {
					prev = ce - 1
				}
				next := c + 1
				if c == ce-1 {
					next = cs
				}
				local = append(local, m.CornerVerts[prev], m.CornerVerts[next])
			}
		}
		if len(local) > 0 {
			mu.Lock()
			pending = append(pending, local...)
			mu.Unlock()
		}
	})
	for _, v := range pending {
		write[v] = target
	}
}

// growShrinkGrids dilates across grid samples, following seam duplicates so
// both sides of a grid boundary stay in step.
func (e *Engine) growShrinkGrids(obj *sculpt.Object, target bool, iterations int) {
	c := obj.CCG
	size := c.GridSize()
	bufs := [2]*bitvec.Group{c.GridHidden.Clone(), c.GridHidden.Clone()}

	for it := 0; it < iterations; it++ {
		read := bufs[it%2]
		write := bufs[1-it%2]
		write.CopyFrom(read)

		var mu sync.Mutex
		var pending []sculpt.GridCoord
		threading.ParallelRange(c.NumGrids(), 8, func(start, end int) {
			var local, nbuf []sculpt.GridCoord
			for g := start; g < end; g++ {
				row := read.Row(g)
				for y := 0; y < size; y++ {
					for x := 0; x < size; x++ {
						if row.Get(sculpt.GridXYToIndex(size, x, y)) != target {
							continue
						}
						nbuf = c.NeighborCoords(sculpt.GridCoord{Grid: g, X: x, Y: y}, true, nbuf[:0])
						local = append(local, nbuf...)
					}
				}
			}
			if len(local) > 0 {
				mu.Lock()
				pending = append(pending, local...)
				mu.Unlock()
			}
		})
		for _, q := range pending {
			write.Row(q.Grid).Set(sculpt.GridXYToIndex(size, q.X, q.Y), target)
		}
	}

	final := bufs[iterations%2]
	e.gridHideUpdate(obj, obj.PBVH.Leaves(), func(g int, bits bitvec.Span) {
		bits.CopyFrom(final.Row(g))
	})
}

// growShrinkBMesh snapshots the hidden flags each iteration and moves every
// vertex with a snapshot-target neighbor to the target.
func (e *Engine) growShrinkBMesh(obj *sculpt.Object, target bool, iterations int) {
	bm := obj.BM
	nodes := obj.PBVH.Leaves()
	var nbuf []*sculpt.BMVert
	for it := 0; it < iterations; it++ {
		snapshot := make([]bool, len(bm.Verts))
		for i, v := range bm.Verts {
			snapshot[i] = v.TestFlag(sculpt.ElemHidden)
		}
		e.bmeshUpdate(obj, nodes, func(v *sculpt.BMVert) bool {
			nbuf = v.Neighbors(nbuf[:0])
			for _, nb := range nbuf {
				if snapshot[nb.Index] == target {
					return true
				}
			}
			return false
		}, target)
	}
}
