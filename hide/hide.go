// Package hide implements the sculpt-mode visibility operations: global and
// masked show/hide, inversion, topological grow/shrink and gesture-driven
// hiding, over all three mesh representations.
package hide

import (
	"sync"

	"go.uber.org/zap"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/undo"
)

// Action selects the direction of a show/hide operation.
type Action int

const (
	ActionHide Action = iota
	ActionShow
)

func (a Action) String() string {
	if a == ActionHide {
		return "hide"
	}
	return "show"
}

// actionToHide maps an action to the hidden flag value it writes.
func actionToHide(a Action) bool { return a == ActionHide }

// Operation identifiers, as registered with the host and recorded in undo
// step names.
const (
	OpHideShowAll      = "hide_show_all"
	OpHideShowMasked   = "hide_show_masked"
	OpVisibilityInvert = "visibility_invert"
	OpVisibilityFilter = "visibility_filter"
	OpHideShowBox      = "hide_show"
	OpHideShowLasso    = "hide_show_lasso_gesture"
	OpHideShowLine     = "hide_show_line_gesture"
	OpHideShowPolyline = "hide_show_polyline_gesture"
)

// Engine runs visibility operations against sculpt objects. The zero value
// is not usable; construct with NewEngine.
type Engine struct {
	// Undo receives the per-node undo pushes of every operation.
	Undo undo.Recorder
	// Log reports operation summaries.
	Log *zap.Logger
	// Notify, if set, is called after every completed operation so the host
	// can tag a redraw.
	Notify func(*sculpt.Object)

	mu     sync.Mutex
	pushed map[*sculpt.Node]uint8
}

// NewEngine returns an engine recording into rec. A nil rec discards undo
// data; a nil log disables logging.
func NewEngine(rec undo.Recorder, log *zap.Logger) *Engine {
	if rec == nil {
		rec = undo.Discard{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Undo: rec, Log: log}
}

// pushBegin opens an undo step and resets the per-step node set.
func (e *Engine) pushBegin(name string) {
	e.Undo.PushBegin(name)
	e.mu.Lock()
	e.pushed = make(map[*sculpt.Node]uint8)
	e.mu.Unlock()
}

// pushNode records a node into the open step, at most once per (node, type).
// Safe to call from parallel node sweeps.
func (e *Engine) pushNode(n *sculpt.Node, t undo.Type) {
	bit := uint8(1) << uint(t)
	e.mu.Lock()
	if e.pushed[n]&bit != 0 {
		e.mu.Unlock()
		return
	}
	e.pushed[n] |= bit
	e.mu.Unlock()
	e.Undo.PushNode(n, t)
}

// pushEnd closes the step, invalidates caches keyed on visibility and tags
// a redraw.
func (e *Engine) pushEnd(obj *sculpt.Object, name string) {
	e.Undo.PushEnd()
	e.mu.Lock()
	pushed := len(e.pushed)
	e.pushed = nil
	e.mu.Unlock()
	obj.InvalidateTopologyIslands()
	e.Log.Debug("visibility operation",
		zap.String("op", name),
		zap.Stringer("rep", obj.Rep()),
		zap.Int("nodes_pushed", pushed))
	if e.Notify != nil {
		e.Notify(obj)
	}
}

// NodeVisibleVerts appends the currently visible vertices owned by the node
// and returns the extended slice.
func NodeVisibleVerts(m *sculpt.Mesh, n *sculpt.Node, out []int) []int {
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for _, v := range n.UniqueVerts() {
		if hideVert == nil || !hideVert[v] {
			out = append(out, v)
		}
	}
	return out
}

// SyncAllFromFaces rebuilds vertex and edge visibility from face visibility
// across the active representation. Used after face-level edits made outside
// the engine; records no undo step.
func (e *Engine) SyncAllFromFaces(obj *sculpt.Object) {
	switch obj.Rep() {
	case sculpt.RepFaces:
		obj.Mesh.HideFaceFlush()
	case sculpt.RepGrids:
		obj.CCG.SyncFaceVisibilityToGrids()
		obj.CCG.MarkHiddenModified()
		obj.CCG.SyncVisibilityToBase()
	case sculpt.RepBMesh:
		syncBMeshFromFaces(obj.BM)
	}
	for _, n := range obj.PBVH.Leaves() {
		n.MarkRebuildDraw()
		n.MarkUpdateVisibility()
	}
	obj.PBVH.UpdateVisibility()
	obj.InvalidateTopologyIslands()
	if e.Notify != nil {
		e.Notify(obj)
	}
}

// syncBMeshFromFaces hides each vertex attached only to hidden faces, then
// re-derives edge flags. Face flags are the source and stay untouched.
func syncBMeshFromFaces(bm *sculpt.BMesh) {
	for _, v := range bm.Verts {
		hasFace := false
		allHidden := true
		for _, ed := range v.Edges() {
			for _, f := range ed.Faces() {
				hasFace = true
				if !f.TestFlag(sculpt.ElemHidden) {
					allHidden = false
				}
			}
		}
		if !hasFace {
			continue
		}
		if allHidden {
			v.SetFlag(sculpt.ElemHidden)
		} else {
			v.ClearFlag(sculpt.ElemHidden)
		}
	}
	for _, ed := range bm.Edges {
		if ed.V1.TestFlag(sculpt.ElemHidden) || ed.V2.TestFlag(sculpt.ElemHidden) {
			ed.SetFlag(sculpt.ElemHidden)
		} else {
			ed.ClearFlag(sculpt.ElemHidden)
		}
	}
}
