package hide

import (
	"sync/atomic"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/internal/bitvec"
	"github.com/go-sculpt/sculpt/internal/threading"
	"github.com/go-sculpt/sculpt/undo"
)

// The updaters apply a predicate over PBVH nodes and keep the derived state
// (face/edge flush, undo entries, node flags) consistent. Faces and grids
// run in parallel over nodes: each node owns a disjoint set of faces, grids
// and unique vertices, so sweeps never write the same element twice.

// vertPredicate rewrites the hidden values of a node's vertices. hiddenOut
// arrives pre-filled with the current values, so predicates can leave
// unmatched entries unchanged.
type vertPredicate func(verts []int, hiddenOut []bool)

// gather copies src values at the given indices into dst, growing it as
// needed, and returns dst.
func gather(src []bool, indices []int, dst []bool) []bool {
	dst = dst[:0]
	for _, i := range indices {
		dst = append(dst, src[i])
	}
	return dst
}

// scatter writes vals back to dst at the given indices.
func scatter(dst []bool, indices []int, vals []bool) {
	for k, i := range indices {
		dst[i] = vals[k]
	}
}

// indexedEqual reports whether vals matches src at the given indices.
func indexedEqual(src []bool, indices []int, vals []bool) bool {
	for k, i := range indices {
		if src[i] != vals[k] {
			return false
		}
	}
	return true
}

// vertHideUpdate runs pred over the unique vertices of each node, scatters
// changed results into .hide_vert and flushes faces and edges. Reports
// whether anything changed.
func (e *Engine) vertHideUpdate(obj *sculpt.Object, nodes []*sculpt.Node, pred vertPredicate) bool {
	m := obj.Mesh
	hideVert := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	scratch := threading.NewScratch(func() []bool { return nil })
	var anyChanged atomic.Bool

	threading.ParallelRange(len(nodes), 1, func(start, end int) {
		buf := scratch.Get()
		defer func() { scratch.Put(buf) }()
		for i := start; i < end; i++ {
			n := nodes[i]
			verts := n.UniqueVerts()
			buf = gather(hideVert.Span, verts, buf)
			pred(verts, buf)
			if indexedEqual(hideVert.Span, verts, buf) {
				continue
			}
			e.pushNode(n, undo.TypeHideVert)
			scatter(hideVert.Span, verts, buf)
			n.MarkRebuildDraw()
			n.MarkUpdateVisibility()
			anyChanged.Store(true)
		}
	})
	hideVert.Finish()

	if anyChanged.Load() {
		e.flushVertChanges(obj)
	}
	return anyChanged.Load()
}

// flushVertChanges re-derives .hide_poly per node and .hide_edge globally
// after .hide_vert changed, then recomputes fully-hidden state for flagged
// nodes.
func (e *Engine) flushVertChanges(obj *sculpt.Object) {
	m := obj.Mesh
	nodes := obj.PBVH.Leaves()
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	hidePoly := m.Attributes.BoolForWrite(sculpt.AttrFace, sculpt.AttrHidePoly)
	scratch := threading.NewScratch(func() []bool { return nil })

	threading.ParallelRange(len(nodes), 1, func(start, end int) {
		buf := scratch.Get()
		defer func() { scratch.Put(buf) }()
		for i := start; i < end; i++ {
			n := nodes[i]
			faces := n.Faces()
			if cap(buf) < len(faces) {
				buf = make([]bool, len(faces))
			}
			buf = buf[:len(faces)]
			sculpt.FaceHideFromVert(m, faces, hideVert, buf)
			if indexedEqual(hidePoly.Span, faces, buf) {
				continue
			}
			scatter(hidePoly.Span, faces, buf)
			n.MarkRebuildDraw()
			n.MarkUpdateVisibility()
		}
	})
	hidePoly.Finish()

	hideEdge := m.Attributes.BoolForWrite(sculpt.AttrEdge, sculpt.AttrHideEdge)
	sculpt.EdgeHideFromVert(m.Edges, hideVert, hideEdge.Span)
	hideEdge.Finish()

	obj.PBVH.UpdateVisibility()
}

// gridPredicate rewrites one grid's hidden bits, pre-filled with the current
// state.
type gridPredicate func(grid int, bits bitvec.Span)

// gridHideUpdate runs pred over every grid of each node, installing changed
// bitsets and syncing derived state. Reports whether anything changed.
func (e *Engine) gridHideUpdate(obj *sculpt.Object, nodes []*sculpt.Node, pred gridPredicate) bool {
	c := obj.CCG
	hidden := c.GridHiddenEnsure()
	rowLen := hidden.RowLen()
	scratch := threading.NewScratch(func() bitvec.Span { return bitvec.NewSpan(rowLen) })
	var anyChanged atomic.Bool

	threading.ParallelRange(len(nodes), 1, func(start, end int) {
		local := scratch.Get()
		defer func() { scratch.Put(local) }()
		for i := start; i < end; i++ {
			n := nodes[i]
			nodeChanged := false
			for _, g := range n.GridIndices() {
				row := hidden.Row(g)
				local.CopyFrom(row)
				pred(g, local)
				if local.Equal(row) {
					continue
				}
				if !nodeChanged {
					e.pushNode(n, undo.TypeHideVert)
					nodeChanged = true
				}
				row.CopyFrom(local)
			}
			if nodeChanged {
				n.MarkRebuildDraw()
				n.MarkUpdateVisibility()
				anyChanged.Store(true)
			}
		}
	})

	if anyChanged.Load() {
		c.MarkHiddenModified()
		obj.PBVH.UpdateVisibility()
		c.SyncVisibilityToBase()
	}
	return anyChanged.Load()
}

// bmVertPredicate decides whether a BMesh vertex is affected.
type bmVertPredicate func(v *sculpt.BMVert) bool

// bmeshUpdate applies the hide direction to every vertex accepted by pred.
// Nodes run sequentially: shared edges and faces make cross-node mutation
// racy. Every node gets an undo push whether or not it changes, at most
// once per step.
func (e *Engine) bmeshUpdate(obj *sculpt.Object, nodes []*sculpt.Node, pred bmVertPredicate, hide bool) bool {
	anyChangedAll := false
	for _, n := range nodes {
		e.pushNode(n, undo.TypeHideVert)
		anyChanged := false
		apply := func(v *sculpt.BMVert) {
			if pred(v) && v.TestFlag(sculpt.ElemHidden) != hide {
				v.ToggleFlag(sculpt.ElemHidden)
				anyChanged = true
			}
		}
		for _, v := range n.BMUniqueVerts() {
			apply(v)
		}
		for _, v := range n.BMOtherVerts() {
			apply(v)
		}
		for _, f := range n.BMFaces() {
			faceHidden := false
			for _, v := range f.Verts {
				if v.TestFlag(sculpt.ElemHidden) {
					faceHidden = true
					break
				}
			}
			if faceHidden {
				f.SetFlag(sculpt.ElemHidden)
			} else {
				f.ClearFlag(sculpt.ElemHidden)
			}
		}
		if anyChanged {
			n.MarkRebuildDraw()
			n.MarkUpdateVisibility()
			anyChangedAll = true
		}
	}
	if anyChangedAll {
		obj.PBVH.UpdateVisibility()
		bmeshFlushEdges(obj.BM)
	}
	return anyChangedAll
}

// bmeshFlushEdges re-derives edge hidden flags from endpoints.
func bmeshFlushEdges(bm *sculpt.BMesh) {
	for _, ed := range bm.Edges {
		if ed.V1.TestFlag(sculpt.ElemHidden) || ed.V2.TestFlag(sculpt.ElemHidden) {
			ed.SetFlag(sculpt.ElemHidden)
		} else {
			ed.ClearFlag(sculpt.ElemHidden)
		}
	}
}
