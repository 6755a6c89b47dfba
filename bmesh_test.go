package sculpt

import "testing"

func TestNewBMeshFromMesh(t *testing.T) {
	m := testCube()
	hv := m.Attributes.BoolForWrite(AttrPoint, AttrHideVert)
	hv.Span[5] = true
	hv.Finish()
	mask := m.Attributes.FloatForWrite(AttrPoint, AttrSculptMask)
	mask[2] = 0.5

	bm := NewBMeshFromMesh(m)
	if len(bm.Verts) != 8 || len(bm.Edges) != 12 || len(bm.Faces) != 6 {
		t.Fatalf("counts = %d/%d/%d", len(bm.Verts), len(bm.Edges), len(bm.Faces))
	}
	if !bm.Verts[5].TestFlag(ElemHidden) {
		t.Error("hide_vert not carried to vertex flag")
	}
	if bm.Verts[4].TestFlag(ElemHidden) {
		t.Error("spurious hidden flag")
	}
	if bm.Verts[2].Mask != 0.5 {
		t.Errorf("mask=%g, want 0.5", bm.Verts[2].Mask)
	}
	for i, v := range bm.Verts {
		if v.Index != i {
			t.Fatalf("vert %d has Index %d", i, v.Index)
		}
		if len(v.Edges()) != 3 {
			t.Errorf("cube vert %d has %d edges, want 3", i, len(v.Edges()))
		}
		if n := v.Neighbors(nil); len(n) != 3 {
			t.Errorf("cube vert %d has %d neighbors, want 3", i, len(n))
		}
	}
	for i, e := range bm.Edges {
		if len(e.Faces()) != 2 {
			t.Errorf("cube edge %d has %d faces, want 2", i, len(e.Faces()))
		}
	}
}

func TestBMeshFlagOps(t *testing.T) {
	v := &BMVert{}
	v.SetFlag(ElemHidden)
	if !v.TestFlag(ElemHidden) {
		t.Fatal("SetFlag did not stick")
	}
	v.ToggleFlag(ElemHidden)
	if v.TestFlag(ElemHidden) {
		t.Fatal("ToggleFlag did not clear")
	}
	v.ToggleFlag(ElemHidden)
	v.ClearFlag(ElemHidden)
	if v.TestFlag(ElemHidden) {
		t.Fatal("ClearFlag did not clear")
	}
}

func TestBMeshFlushVertHidden(t *testing.T) {
	bm := NewBMeshFromMesh(testCube())
	bm.Verts[0].SetFlag(ElemHidden)
	bm.FlushVertHidden()

	for _, e := range bm.Edges {
		want := e.V1 == bm.Verts[0] || e.V2 == bm.Verts[0]
		if e.TestFlag(ElemHidden) != want {
			t.Errorf("edge hidden=%v, want %v", e.TestFlag(ElemHidden), want)
		}
	}
	hiddenFaces := 0
	for _, f := range bm.Faces {
		if f.TestFlag(ElemHidden) {
			hiddenFaces++
		}
	}
	if hiddenFaces != 3 {
		t.Errorf("hidden faces=%d, want 3", hiddenFaces)
	}

	bm.Verts[0].ClearFlag(ElemHidden)
	bm.FlushVertHidden()
	for _, f := range bm.Faces {
		if f.TestFlag(ElemHidden) {
			t.Error("face stayed hidden after flush")
		}
	}
}
