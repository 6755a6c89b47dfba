package hide

import (
	"sync/atomic"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/internal/bitvec"
	"github.com/go-sculpt/sculpt/internal/threading"
	"github.com/go-sculpt/sculpt/undo"
)

// ShowHideAll shows or hides the whole object. Showing when nothing is
// hidden returns without recording an undo step.
func (e *Engine) ShowHideAll(obj *sculpt.Object, action Action) {
	if action == ActionShow {
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
	}
	e.pushBegin(OpHideShowAll)
	nodes := obj.PBVH.Leaves()
	hide := actionToHide(action)
	switch obj.Rep() {
	case sculpt.RepFaces:
		if action == ActionShow {
			e.meshShowAll(obj, nodes)
		} else {
			e.vertHideUpdate(obj, nodes, func(verts []int, out []bool) {
				for i := range out {
					out[i] = true
				}
			})
		}
	case sculpt.RepGrids:
		if action == ActionShow {
			e.gridsShowAll(obj, nodes)
		} else {
			e.gridHideUpdate(obj, nodes, func(_ int, bits bitvec.Span) {
				bits.Fill(true)
			})
		}
	case sculpt.RepBMesh:
		e.bmeshUpdate(obj, nodes, func(*sculpt.BMVert) bool { return true }, hide)
	}
	e.pushEnd(obj, OpHideShowAll)
}

// meshShowAll removes the hide attributes outright instead of zeroing them.
// Nodes still referencing hidden vertices record undo and rebuild.
func (e *Engine) meshShowAll(obj *sculpt.Object, nodes []*sculpt.Node) {
	m := obj.Mesh
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	if hideVert != nil {
		threading.ParallelRange(len(nodes), 1, func(start, end int) {
			for i := start; i < end; i++ {
				n := nodes[i]
				if nodeHasHiddenVert(hideVert, n) {
					e.pushNode(n, undo.TypeHideVert)
					n.MarkRebuildDraw()
				}
				n.MarkUpdateVisibility()
			}
		})
	}
	m.Attributes.Remove(sculpt.AttrPoint, sculpt.AttrHideVert)
	m.HideVertFlush()
	obj.PBVH.UpdateVisibility()
}

func nodeHasHiddenVert(hideVert []bool, n *sculpt.Node) bool {
	for _, v := range n.UniqueVerts() {
		if hideVert[v] {
			return true
		}
	}
	for _, v := range n.OtherVerts() {
		if hideVert[v] {
			return true
		}
	}
	return false
}

// gridsShowAll frees the grid bit storage and clears node state.
func (e *Engine) gridsShowAll(obj *sculpt.Object, nodes []*sculpt.Node) {
	c := obj.CCG
	hidden := c.GridHidden
	var anyChanged atomic.Bool
	threading.ParallelRange(len(nodes), 1, func(start, end int) {
		for i := start; i < end; i++ {
			n := nodes[i]
			for _, g := range n.GridIndices() {
				if hidden.Row(g).Any() {
					e.pushNode(n, undo.TypeHideVert)
					n.MarkRebuildDraw()
					anyChanged.Store(true)
					break
				}
			}
			n.MarkUpdateVisibility()
		}
	})
	c.GridHiddenFree()
	if anyChanged.Load() {
		c.MarkHiddenModified()
	}
	obj.PBVH.UpdateVisibility()
	c.SyncVisibilityToBase()
}

// ShowHideMasked shows or hides the vertices whose sculpt mask exceeds 0.5.
// Without a mask layer, show delegates to show-all and hide does nothing.
func (e *Engine) ShowHideMasked(obj *sculpt.Object, action Action) {
	hide := actionToHide(action)
	switch obj.Rep() {
	case sculpt.RepFaces:
		mask := obj.Mesh.Attributes.FloatSpan(sculpt.AttrPoint, sculpt.AttrSculptMask)
		if mask == nil {
			if action == ActionShow {
				e.ShowHideAll(obj, ActionShow)
			}
			return
		}
		e.pushBegin(OpHideShowMasked)
		e.vertHideUpdate(obj, obj.PBVH.Leaves(), func(verts []int, out []bool) {
			for i, v := range verts {
				if mask[v] > 0.5 {
					out[i] = hide
				}
			}
		})
		e.pushEnd(obj, OpHideShowMasked)
	case sculpt.RepGrids:
		c := obj.CCG
		e.pushBegin(OpHideShowMasked)
		if c.Key().HasMask {
			size := c.GridSize()
			e.gridHideUpdate(obj, obj.PBVH.Leaves(), func(g int, bits bitvec.Span) {
				grid := c.Grids[g]
				for i := 0; i < size*size; i++ {
					if grid[i].Mask > 0.5 {
						bits.Set(i, hide)
					}
				}
			})
		} else {
			// No mask samples: the whole surface counts as unmasked.
			e.gridHideUpdate(obj, obj.PBVH.Leaves(), func(_ int, bits bitvec.Span) {
				bits.Fill(hide)
			})
		}
		e.pushEnd(obj, OpHideShowMasked)
	case sculpt.RepBMesh:
		e.pushBegin(OpHideShowMasked)
		e.bmeshUpdate(obj, obj.PBVH.Leaves(), func(v *sculpt.BMVert) bool {
			return v.Mask > 0.5
		}, hide)
		e.pushEnd(obj, OpHideShowMasked)
	}
}

// InvertVisibility flips the hidden state of every element.
func (e *Engine) InvertVisibility(obj *sculpt.Object) {
	e.pushBegin(OpVisibilityInvert)
	nodes := obj.PBVH.Leaves()
	switch obj.Rep() {
	case sculpt.RepFaces:
		e.invertMesh(obj, nodes)
	case sculpt.RepGrids:
		e.gridHideUpdate(obj, nodes, func(_ int, bits bitvec.Span) {
			bits.Invert()
		})
	case sculpt.RepBMesh:
		e.invertBMesh(obj, nodes)
	}
	e.pushEnd(obj, OpVisibilityInvert)
}

// invertMesh flips .hide_poly per node, then flushes vertices and edges
// from faces. Inversion is face-domain: a vertex stays visible if any of
// its faces is visible afterwards.
func (e *Engine) invertMesh(obj *sculpt.Object, nodes []*sculpt.Node) {
	m := obj.Mesh
	hidePoly := m.Attributes.BoolForWrite(sculpt.AttrFace, sculpt.AttrHidePoly)
	threading.ParallelRange(len(nodes), 1, func(start, end int) {
		for i := start; i < end; i++ {
			n := nodes[i]
			if len(n.Faces()) == 0 {
				continue
			}
			e.pushNode(n, undo.TypeHideFace)
			for _, f := range n.Faces() {
				hidePoly.Span[f] = !hidePoly.Span[f]
			}
			n.MarkRebuildDraw()
			n.MarkUpdateVisibility()
		}
	})
	hidePoly.Finish()
	m.HideFaceFlush()
	obj.PBVH.UpdateVisibility()
}

// invertBMesh toggles unique vertices first, then recomputes face flags so
// every face sees its final corner state.
func (e *Engine) invertBMesh(obj *sculpt.Object, nodes []*sculpt.Node) {
	for _, n := range nodes {
		e.pushNode(n, undo.TypeHideVert)
		for _, v := range n.BMUniqueVerts() {
			v.ToggleFlag(sculpt.ElemHidden)
		}
		n.MarkRebuildDraw()
		n.MarkUpdateVisibility()
	}
	for _, n := range nodes {
		for _, f := range n.BMFaces() {
			hidden := false
			for _, v := range f.Verts {
				if v.TestFlag(sculpt.ElemHidden) {
					hidden = true
					break
				}
			}
			if hidden {
				f.SetFlag(sculpt.ElemHidden)
			} else {
				f.ClearFlag(sculpt.ElemHidden)
			}
		}
	}
	bmeshFlushEdges(obj.BM)
	obj.PBVH.UpdateVisibility()
}
