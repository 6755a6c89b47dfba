package hide

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/undo"
)

func cubeMesh() *sculpt.Mesh {
	positions := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	faces := [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	}
	return sculpt.NewMesh(positions, faces)
}

func planeMesh(nx, ny int) *sculpt.Mesh {
	var positions []r3.Vec
	for y := 0; y <= ny; y++ {
		for x := 0; x <= nx; x++ {
			positions = append(positions, r3.Vec{X: float64(x), Y: float64(y)})
		}
	}
	var faces [][]int
	stride := nx + 1
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := y*stride + x
			faces = append(faces, []int{v, v + 1, v + stride + 1, v + stride})
		}
	}
	return sculpt.NewMesh(positions, faces)
}

func newTestEngine() (*Engine, *undo.Log) {
	log := &undo.Log{}
	return NewEngine(log, nil), log
}

// checkFlushInvariants asserts hide_poly and hide_edge agree with
// hide_vert.
func checkFlushInvariants(t *testing.T, m *sculpt.Mesh) {
	t.Helper()
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	hidePoly := m.Attributes.BoolSpan(sculpt.AttrFace, sculpt.AttrHidePoly)
	hideEdge := m.Attributes.BoolSpan(sculpt.AttrEdge, sculpt.AttrHideEdge)
	if hideVert == nil {
		if hidePoly != nil && anyTrue(hidePoly) {
			t.Error("hide_poly set with no hide_vert layer")
		}
		if hideEdge != nil && anyTrue(hideEdge) {
			t.Error("hide_edge set with no hide_vert layer")
		}
		return
	}
	for f := 0; f < m.NumFaces(); f++ {
		want := false
		for _, v := range m.FaceVerts(f) {
			if hideVert[v] {
				want = true
			}
		}
		got := hidePoly != nil && hidePoly[f]
		if got != want {
			t.Errorf("face %d hidden=%v, want %v", f, got, want)
		}
	}
	for e, ev := range m.Edges {
		want := hideVert[ev[0]] || hideVert[ev[1]]
		got := hideEdge != nil && hideEdge[e]
		if got != want {
			t.Errorf("edge %d hidden=%v, want %v", e, got, want)
		}
	}
}

func anyTrue(s []bool) bool {
	for _, v := range s {
		if v {
			return true
		}
	}
	return false
}

func TestShowAllWithoutHiddenStateIsNoop(t *testing.T) {
	e, log := newTestEngine()
	obj := sculpt.NewFacesObject(planeMesh(4, 4), 4)
	e.ShowHideAll(obj, ActionShow)
	if steps := log.Steps(); len(steps) != 0 {
		t.Fatalf("show-all on clean mesh recorded %d undo steps", len(steps))
	}

	gobj, err := sculpt.NewGridsObject(planeMesh(2, 2), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	e.ShowHideAll(gobj, ActionShow)
	if steps := log.Steps(); len(steps) != 0 {
		t.Fatalf("grids show-all on clean mesh recorded %d undo steps", len(steps))
	}
}

func TestHideAllShowAllFaces(t *testing.T) {
	e, log := newTestEngine()
	m := planeMesh(4, 4)
	obj := sculpt.NewFacesObject(m, 4)

	e.ShowHideAll(obj, ActionHide)
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		if !h {
			t.Fatalf("vert %d visible after hide-all", v)
		}
	}
	checkFlushInvariants(t, m)
	for _, n := range obj.PBVH.Leaves() {
		if !n.FullyHidden() {
			t.Error("node not fully hidden after hide-all")
		}
	}
	if last := log.Last(); last.Name != OpHideShowAll || len(last.Entries) == 0 {
		t.Fatalf("hide-all step = %q with %d entries", last.Name, len(last.Entries))
	}

	e.ShowHideAll(obj, ActionShow)
	if m.Attributes.Contains(sculpt.AttrPoint, sculpt.AttrHideVert) {
		t.Error("hide_vert survived show-all")
	}
	if m.Attributes.Contains(sculpt.AttrFace, sculpt.AttrHidePoly) {
		t.Error("hide_poly survived show-all")
	}
	if m.Attributes.Contains(sculpt.AttrEdge, sculpt.AttrHideEdge) {
		t.Error("hide_edge survived show-all")
	}
	for _, n := range obj.PBVH.Leaves() {
		if n.FullyHidden() {
			t.Error("node fully hidden after show-all")
		}
	}
}

func TestShowHideMaskedFaces(t *testing.T) {
	e, log := newTestEngine()
	m := cubeMesh()
	mask := m.Attributes.FloatForWrite(sculpt.AttrPoint, sculpt.AttrSculptMask)
	mask[0] = 1
	mask[1] = 1
	obj := sculpt.NewFacesObject(m, 0)

	e.ShowHideMasked(obj, ActionHide)

	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v := 0; v < m.NumVerts(); v++ {
		want := v <= 1
		if hideVert[v] != want {
			t.Errorf("vert %d hidden=%v, want %v", v, hideVert[v], want)
		}
	}
	checkFlushInvariants(t, m)
	if last := log.Last(); last.Name != OpHideShowMasked {
		t.Errorf("step name = %q", last.Name)
	}

	// Showing the masked verts again restores full visibility.
	e.ShowHideMasked(obj, ActionShow)
	hideVert = m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	if anyTrue(hideVert) {
		t.Error("verts still hidden after masked show")
	}
}

func TestShowHideMaskedWithoutMask(t *testing.T) {
	e, log := newTestEngine()
	m := cubeMesh()
	obj := sculpt.NewFacesObject(m, 0)

	e.ShowHideMasked(obj, ActionHide)
	if len(log.Steps()) != 0 {
		t.Fatal("masked hide without mask recorded an undo step")
	}
	if m.Attributes.Contains(sculpt.AttrPoint, sculpt.AttrHideVert) {
		t.Fatal("masked hide without mask created hide_vert")
	}

	// Show delegates to show-all even without a mask.
	hv := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	hv.Span[0] = true
	hv.Finish()
	m.HideVertFlush()
	e.ShowHideMasked(obj, ActionShow)
	if m.Attributes.Contains(sculpt.AttrPoint, sculpt.AttrHideVert) {
		t.Fatal("masked show without mask did not clear visibility")
	}
	if last := log.Last(); last.Name != OpHideShowAll {
		t.Errorf("delegated step name = %q", last.Name)
	}
}

func TestMaskedUndoTouchesOnlyOwningNodes(t *testing.T) {
	e, log := newTestEngine()
	m := planeMesh(6, 6)
	mask := m.Attributes.FloatForWrite(sculpt.AttrPoint, sculpt.AttrSculptMask)
	mask[0] = 1
	obj := sculpt.NewFacesObject(m, 4)

	e.ShowHideMasked(obj, ActionHide)
	last := log.Last()
	if len(last.Entries) != 1 {
		t.Fatalf("undo entries = %d, want 1 (only the owner of vert 0)", len(last.Entries))
	}
	owner := last.Entries[0].Node
	found := false
	for _, v := range owner.UniqueVerts() {
		if v == 0 {
			found = true
		}
	}
	if !found {
		t.Error("undo entry is not the node owning the changed vert")
	}
}

func TestInvertFaces(t *testing.T) {
	e, log := newTestEngine()
	m := cubeMesh()
	hv := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	hv.Span[0] = true
	hv.Finish()
	m.HideVertFlush()
	obj := sculpt.NewFacesObject(m, 0)

	e.InvertVisibility(obj)

	// Inversion is face-domain: the faces around vert 0 become visible and
	// the rest hide, so after the flush only the far corner (vert 6, which
	// touches no visible face) stays hidden.
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		want := v == 6
		if h != want {
			t.Errorf("vert %d hidden=%v, want %v", v, h, want)
		}
	}
	hidePoly := m.Attributes.BoolSpan(sculpt.AttrFace, sculpt.AttrHidePoly)
	for f := 0; f < m.NumFaces(); f++ {
		touchesV0 := false
		for _, v := range m.FaceVerts(f) {
			if v == 0 {
				touchesV0 = true
			}
		}
		if hidePoly[f] != !touchesV0 {
			t.Errorf("face %d hidden=%v, want %v", f, hidePoly[f], !touchesV0)
		}
	}
	if last := log.Last(); last.Name != OpVisibilityInvert {
		t.Errorf("step name = %q", last.Name)
	}
	for _, entry := range log.Last().Entries {
		if entry.Type != undo.TypeHideFace {
			t.Errorf("faces invert pushed %v, want %v", entry.Type, undo.TypeHideFace)
		}
	}

	// Involution: inverting again restores the initial state.
	e.InvertVisibility(obj)
	hideVert = m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		want := v == 0
		if h != want {
			t.Errorf("after double invert vert %d hidden=%v, want %v", v, h, want)
		}
	}
}

func TestInvertGridsInvolution(t *testing.T) {
	e, _ := newTestEngine()
	obj, err := sculpt.NewGridsObject(planeMesh(2, 1), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := obj.CCG
	hidden := c.GridHiddenEnsure()
	hidden.Row(0).Set(4, true)
	initial := hidden.Clone()

	e.InvertVisibility(obj)
	if !c.GridHidden.Row(0).Get(0) || c.GridHidden.Row(0).Get(4) {
		t.Fatal("grid bits not inverted")
	}
	if !c.GridHidden.Row(1).All() {
		t.Fatal("fully visible grid did not invert to fully hidden")
	}

	e.InvertVisibility(obj)
	for g := 0; g < c.NumGrids(); g++ {
		if !c.GridHidden.Row(g).Equal(initial.Row(g)) {
			t.Fatalf("grid %d differs after double invert", g)
		}
	}
}

func TestInvertBMeshInvolution(t *testing.T) {
	e, _ := newTestEngine()
	m := planeMesh(3, 3)
	obj := sculpt.NewBMeshObject(m, 4)
	obj.BM.Verts[0].SetFlag(sculpt.ElemHidden)
	obj.BM.FlushVertHidden()

	e.InvertVisibility(obj)
	for i, v := range obj.BM.Verts {
		want := i != 0
		if v.TestFlag(sculpt.ElemHidden) != want {
			t.Errorf("vert %d hidden=%v, want %v", i, v.TestFlag(sculpt.ElemHidden), want)
		}
	}
	for _, f := range obj.BM.Faces {
		if !f.TestFlag(sculpt.ElemHidden) {
			t.Error("face with hidden corners not hidden after invert")
		}
	}

	e.InvertVisibility(obj)
	for i, v := range obj.BM.Verts {
		want := i == 0
		if v.TestFlag(sculpt.ElemHidden) != want {
			t.Errorf("after double invert vert %d hidden=%v, want %v", i, v.TestFlag(sculpt.ElemHidden), want)
		}
	}
}

func TestShowHideAllGrids(t *testing.T) {
	e, log := newTestEngine()
	obj, err := sculpt.NewGridsObject(planeMesh(2, 2), 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := obj.CCG
	c.GridHiddenEnsure().Row(0).Set(0, true)

	e.ShowHideAll(obj, ActionShow)
	if c.GridHidden != nil {
		t.Fatal("grid hidden storage survived show-all")
	}
	for _, n := range obj.PBVH.Leaves() {
		if n.FullyHidden() {
			t.Error("node fully hidden after show-all")
		}
	}
	last := log.Last()
	if len(last.Entries) != 1 {
		t.Fatalf("undo entries = %d, want 1 (only the node holding grid 0)", len(last.Entries))
	}

	e.ShowHideAll(obj, ActionHide)
	if c.GridHidden == nil {
		t.Fatal("no hidden storage after hide-all")
	}
	for g := 0; g < c.NumGrids(); g++ {
		if !c.GridHidden.Row(g).All() {
			t.Fatalf("grid %d not fully hidden", g)
		}
	}
	for _, n := range obj.PBVH.Leaves() {
		if !n.FullyHidden() {
			t.Error("node not fully hidden after hide-all")
		}
	}
	// Hidden state mirrors into the base mesh.
	checkFlushInvariants(t, c.Base())
}

func TestGridsHiddenModifiedConsumedOnNotify(t *testing.T) {
	e, _ := newTestEngine()
	obj, err := sculpt.NewGridsObject(planeMesh(2, 2), 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	// A host re-uploads grid hidden data when the modified flag is set;
	// taking it clears it for the next operation.
	var tookModified []bool
	e.Notify = func(o *sculpt.Object) {
		tookModified = append(tookModified, o.CCG.TakeHiddenModified())
	}

	e.ShowHideAll(obj, ActionHide)
	e.ShowHideAll(obj, ActionHide) // already hidden, nothing changes

	want := []bool{true, false}
	if len(tookModified) != len(want) {
		t.Fatalf("notify calls = %d, want %d", len(tookModified), len(want))
	}
	for i := range want {
		if tookModified[i] != want[i] {
			t.Errorf("take %d = %v, want %v", i, tookModified[i], want[i])
		}
	}
}

func TestShowHideAllBMesh(t *testing.T) {
	e, _ := newTestEngine()
	obj := sculpt.NewBMeshObject(planeMesh(3, 3), 4)

	e.ShowHideAll(obj, ActionHide)
	for i, v := range obj.BM.Verts {
		if !v.TestFlag(sculpt.ElemHidden) {
			t.Fatalf("vert %d visible after hide-all", i)
		}
	}
	for _, f := range obj.BM.Faces {
		if !f.TestFlag(sculpt.ElemHidden) {
			t.Fatal("face visible after hide-all")
		}
	}
	for _, n := range obj.PBVH.Leaves() {
		if !n.FullyHidden() {
			t.Error("node not fully hidden")
		}
	}

	e.ShowHideAll(obj, ActionShow)
	for i, v := range obj.BM.Verts {
		if v.TestFlag(sculpt.ElemHidden) {
			t.Fatalf("vert %d hidden after show-all", i)
		}
	}
	for _, ed := range obj.BM.Edges {
		if ed.TestFlag(sculpt.ElemHidden) {
			t.Fatal("edge hidden after show-all")
		}
	}
}

func TestNotifyCalledPerOperation(t *testing.T) {
	e, _ := newTestEngine()
	calls := 0
	e.Notify = func(*sculpt.Object) { calls++ }
	obj := sculpt.NewFacesObject(planeMesh(2, 2), 2)

	e.ShowHideAll(obj, ActionHide)
	e.InvertVisibility(obj)
	if calls != 2 {
		t.Fatalf("notify calls = %d, want 2", calls)
	}
	if obj.TopologyIslandsValid() {
		t.Error("island cache still valid after visibility change")
	}
}

func TestNodeVisibleVerts(t *testing.T) {
	m := planeMesh(2, 2)
	obj := sculpt.NewFacesObject(m, 0)
	n := obj.PBVH.Leaves()[0]

	all := NodeVisibleVerts(m, n, nil)
	if len(all) != len(n.UniqueVerts()) {
		t.Fatalf("visible verts = %d, want %d", len(all), len(n.UniqueVerts()))
	}

	hv := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	hv.Span[n.UniqueVerts()[0]] = true
	hv.Finish()
	fewer := NodeVisibleVerts(m, n, nil)
	if len(fewer) != len(all)-1 {
		t.Fatalf("visible verts = %d, want %d", len(fewer), len(all)-1)
	}
}

func TestSyncAllFromFaces(t *testing.T) {
	e, _ := newTestEngine()
	m := planeMesh(2, 2)
	obj := sculpt.NewFacesObject(m, 2)
	hp := m.Attributes.BoolForWrite(sculpt.AttrFace, sculpt.AttrHidePoly)
	for f := range hp.Span {
		hp.Span[f] = true
	}
	hp.Finish()

	e.SyncAllFromFaces(obj)
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		if !h {
			t.Fatalf("vert %d visible with every face hidden", v)
		}
	}
	for _, n := range obj.PBVH.Leaves() {
		if !n.FullyHidden() {
			t.Error("node not fully hidden after sync")
		}
	}
}

func TestSyncAllFromFacesBMesh(t *testing.T) {
	e, _ := newTestEngine()
	obj := sculpt.NewBMeshObject(planeMesh(2, 1), 1)
	for _, f := range obj.BM.Faces {
		f.SetFlag(sculpt.ElemHidden)
	}

	e.SyncAllFromFaces(obj)
	for i, v := range obj.BM.Verts {
		if !v.TestFlag(sculpt.ElemHidden) {
			t.Fatalf("vert %d visible with every face hidden", i)
		}
	}
	for _, ed := range obj.BM.Edges {
		if !ed.TestFlag(sculpt.ElemHidden) {
			t.Fatal("edge visible with every face hidden")
		}
	}
}
