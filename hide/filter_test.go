package hide

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt"
)

// twoTriangles is a pair of triangles sharing edge (0,1).
func twoTriangles() *sculpt.Mesh {
	positions := []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0.5, Y: 1}, {X: 0.5, Y: -1},
	}
	return sculpt.NewMesh(positions, [][]int{{0, 1, 2}, {1, 0, 3}})
}

func setHiddenVerts(m *sculpt.Mesh, verts ...int) {
	hv := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	for _, v := range verts {
		hv.Span[v] = true
	}
	hv.Finish()
	m.HideVertFlush()
}

func TestAutoIterations(t *testing.T) {
	cases := []struct{ verts, want int }{
		{0, 1},
		{1, 1},
		{50000, 1},
		{50001, 2},
		{200000, 4},
	}
	for _, c := range cases {
		if got := AutoIterations(c.verts); got != c.want {
			t.Errorf("AutoIterations(%d)=%d, want %d", c.verts, got, c.want)
		}
	}
}

func TestFilterWithoutHiddenStateIsNoop(t *testing.T) {
	e, log := newTestEngine()
	m := sculpt.NewMesh([]r3.Vec{{}, {X: 1}, {Y: 1}}, [][]int{{0, 1, 2}})
	obj := sculpt.NewFacesObject(m, 0)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})
	if len(log.Steps()) != 0 {
		t.Fatal("filter without hide_vert recorded an undo step")
	}
	if m.Attributes.Contains(sculpt.AttrPoint, sculpt.AttrHideVert) {
		t.Fatal("filter without hide_vert created the layer")
	}
}

func TestShrinkWithNothingHiddenIsUnchanged(t *testing.T) {
	e, _ := newTestEngine()
	m := sculpt.NewMesh([]r3.Vec{{}, {X: 1}, {Y: 1}}, [][]int{{0, 1, 2}})
	w := m.Attributes.BoolForWrite(sculpt.AttrPoint, sculpt.AttrHideVert)
	w.Finish()
	obj := sculpt.NewFacesObject(m, 0)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	if anyTrue(hideVert) {
		t.Fatal("shrink with no hidden frontier changed visibility")
	}
}

func TestShrinkExpandsHiddenOneRing(t *testing.T) {
	e, _ := newTestEngine()
	m := twoTriangles()
	setHiddenVerts(m, 0)
	obj := sculpt.NewFacesObject(m, 0)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})

	// Vert 0 sits on both faces, so its face-adjacent corners (1, 2 and
	// 1, 3) all become hidden.
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		if !h {
			t.Errorf("vert %d visible after shrink, want hidden", v)
		}
	}
	checkFlushInvariants(t, m)
}

func TestGrowExpandsVisibleOneRing(t *testing.T) {
	e, _ := newTestEngine()
	m := twoTriangles()
	setHiddenVerts(m, 1, 2, 3)
	obj := sculpt.NewFacesObject(m, 0)

	e.VisibilityFilter(obj, FilterParams{Action: FilterGrow, Iterations: 1})

	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		if h {
			t.Errorf("vert %d hidden after grow, want visible", v)
		}
	}
	checkFlushInvariants(t, m)
}

func TestShrinkThenGrowIsNotIdentity(t *testing.T) {
	e, _ := newTestEngine()
	m := twoTriangles()
	setHiddenVerts(m, 0)
	obj := sculpt.NewFacesObject(m, 0)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})
	e.VisibilityFilter(obj, FilterParams{Action: FilterGrow, Iterations: 1})

	// Shrink hid everything; with no visible vertex left there is no
	// frontier for grow to expand from, so grow is a no-op here.
	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	if !hideVert[1] || !hideVert[2] || !hideVert[3] {
		t.Error("grow after total shrink resurrected visibility")
	}
}

func TestGrowConvergesToAllVisible(t *testing.T) {
	e, _ := newTestEngine()
	m := planeMesh(5, 5)
	hidden := make([]int, 0, m.NumVerts())
	for v := 1; v < m.NumVerts(); v++ {
		hidden = append(hidden, v)
	}
	setHiddenVerts(m, hidden...)
	obj := sculpt.NewFacesObject(m, 4)

	e.VisibilityFilter(obj, FilterParams{Action: FilterGrow, Iterations: 20})

	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	if anyTrue(hideVert) {
		t.Fatal("grow did not converge to all-visible")
	}
	checkFlushInvariants(t, m)
}

func TestShrinkConvergesToAllHidden(t *testing.T) {
	e, _ := newTestEngine()
	m := planeMesh(5, 5)
	setHiddenVerts(m, 0)
	obj := sculpt.NewFacesObject(m, 4)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 20})

	hideVert := m.Attributes.BoolSpan(sculpt.AttrPoint, sculpt.AttrHideVert)
	for v, h := range hideVert {
		if !h {
			t.Fatalf("vert %d visible after converged shrink", v)
		}
	}
	for _, n := range obj.PBVH.Leaves() {
		if !n.FullyHidden() {
			t.Error("node not fully hidden after converged shrink")
		}
	}
}

func TestShrinkGridsCrossesSeams(t *testing.T) {
	e, _ := newTestEngine()
	obj, err := sculpt.NewGridsObject(planeMesh(2, 1), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := obj.CCG
	// Hide the middle sample of the seam between the two grids.
	c.GridHiddenEnsure().Row(0).Set(sculpt.GridXYToIndex(3, 2, 1), true)

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})

	for _, q := range []sculpt.GridCoord{
		{Grid: 0, X: 2, Y: 1}, // the seed
		{Grid: 0, X: 1, Y: 1},
		{Grid: 0, X: 2, Y: 0},
		{Grid: 0, X: 2, Y: 2},
		{Grid: 1, X: 0, Y: 1}, // its duplicate across the seam
		{Grid: 1, X: 1, Y: 1}, // and the neighbor beyond it
	} {
		if !c.GridHidden.Row(q.Grid).Get(sculpt.GridXYToIndex(3, q.X, q.Y)) {
			t.Errorf("sample %+v not hidden after seam shrink", q)
		}
	}
	// Samples two steps away stay visible.
	if c.GridHidden.Row(1).Get(sculpt.GridXYToIndex(3, 2, 1)) {
		t.Error("shrink overshot by a ring")
	}
}

func TestGrowGridsUndoOnlyTouchedNodes(t *testing.T) {
	e, log := newTestEngine()
	obj, err := sculpt.NewGridsObject(planeMesh(4, 1), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := obj.CCG
	// Hide grids 0 and 1 entirely; grow once. Only grid 1 borders visible
	// samples (grid 2's seam), so grids 0, 2 and 3 stay unchanged.
	hidden := c.GridHiddenEnsure()
	hidden.Row(0).Fill(true)
	hidden.Row(1).Fill(true)

	e.VisibilityFilter(obj, FilterParams{Action: FilterGrow, Iterations: 1})

	last := log.Last()
	if last.Name != OpVisibilityFilter {
		t.Fatalf("step name = %q", last.Name)
	}
	for _, entry := range last.Entries {
		for _, g := range entry.Node.GridIndices() {
			if g != 1 {
				t.Errorf("undo pushed for untouched grid %d", g)
			}
		}
	}
	if len(last.Entries) == 0 {
		t.Fatal("no undo entries for changed grids")
	}
}

func TestShrinkBMesh(t *testing.T) {
	e, _ := newTestEngine()
	m := twoTriangles()
	obj := sculpt.NewBMeshObject(m, 0)
	obj.BM.Verts[0].SetFlag(sculpt.ElemHidden)
	obj.BM.FlushVertHidden()

	e.VisibilityFilter(obj, FilterParams{Action: FilterShrink, Iterations: 1})

	// Vert 0's neighbors are 1, 2 and 3; all become hidden.
	for i, v := range obj.BM.Verts {
		if !v.TestFlag(sculpt.ElemHidden) {
			t.Errorf("vert %d visible after shrink", i)
		}
	}
	for _, f := range obj.BM.Faces {
		if !f.TestFlag(sculpt.ElemHidden) {
			t.Error("face visible after shrink")
		}
	}
}

func TestGrowBMeshMultipleIterations(t *testing.T) {
	e, _ := newTestEngine()
	m := planeMesh(4, 1)
	obj := sculpt.NewBMeshObject(m, 2)
	for _, v := range obj.BM.Verts {
		v.SetFlag(sculpt.ElemHidden)
	}
	// Leave one corner visible.
	obj.BM.Verts[0].ClearFlag(sculpt.ElemHidden)
	obj.BM.FlushVertHidden()

	e.VisibilityFilter(obj, FilterParams{Action: FilterGrow, Iterations: 10})
	for i, v := range obj.BM.Verts {
		if v.TestFlag(sculpt.ElemHidden) {
			t.Errorf("vert %d still hidden after converged grow", i)
		}
	}
}

func TestFilterIterationClamp(t *testing.T) {
	p := FilterParams{Action: FilterShrink, Iterations: 0}
	m := planeMesh(1, 1)
	obj := sculpt.NewFacesObject(m, 0)
	if got := p.iterations(obj); got != 1 {
		t.Errorf("iterations(0) clamped to %d, want 1", got)
	}
	p.Iterations = 500
	if got := p.iterations(obj); got != 100 {
		t.Errorf("iterations(500) clamped to %d, want 100", got)
	}
	p.AutoIterationCount = true
	if got := p.iterations(obj); got != 1 {
		t.Errorf("auto iterations = %d, want 1 for a tiny mesh", got)
	}
}
