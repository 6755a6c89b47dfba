package sculpt

// BMesh is the editable half-edge style representation used for dynamic
// topology sculpting. Elements are pointer-linked; visibility lives in a
// flag bit on each element rather than in attribute layers.

// ElemFlag is a bitfield of per-element state flags.
type ElemFlag uint8

const (
	// ElemHidden marks an element invisible.
	ElemHidden ElemFlag = 1 << iota
)

// BMVert is a BMesh vertex.
type BMVert struct {
	Co    [3]float32
	No    [3]float32
	Mask  float32
	Index int
	Flag  ElemFlag

	edges []*BMEdge
}

// BMEdge is a BMesh edge between two vertices.
type BMEdge struct {
	V1, V2 *BMVert
	Flag   ElemFlag

	faces []*BMFace
}

// BMFace is a BMesh face over an ordered vertex loop.
type BMFace struct {
	Verts []*BMVert
	Edges []*BMEdge
	Flag  ElemFlag
}

// SetFlag sets the given flag bits.
func (v *BMVert) SetFlag(f ElemFlag) { v.Flag |= f }

// ClearFlag clears the given flag bits.
func (v *BMVert) ClearFlag(f ElemFlag) { v.Flag &^= f }

// TestFlag reports whether any of the given flag bits is set.
func (v *BMVert) TestFlag(f ElemFlag) bool { return v.Flag&f != 0 }

// ToggleFlag flips the given flag bits.
func (v *BMVert) ToggleFlag(f ElemFlag) { v.Flag ^= f }

func (e *BMEdge) SetFlag(f ElemFlag)       { e.Flag |= f }
func (e *BMEdge) ClearFlag(f ElemFlag)     { e.Flag &^= f }
func (e *BMEdge) TestFlag(f ElemFlag) bool { return e.Flag&f != 0 }

func (fa *BMFace) SetFlag(f ElemFlag)       { fa.Flag |= f }
func (fa *BMFace) ClearFlag(f ElemFlag)     { fa.Flag &^= f }
func (fa *BMFace) TestFlag(f ElemFlag) bool { return fa.Flag&f != 0 }

// OtherVert returns the edge endpoint that is not v.
func (e *BMEdge) OtherVert(v *BMVert) *BMVert {
	if e.V1 == v {
		return e.V2
	}
	return e.V1
}

// Edges returns the edges incident to the vertex. The slice aliases the
// mesh and must not be modified.
func (v *BMVert) Edges() []*BMEdge { return v.edges }

// Faces returns the faces incident to the edge.
func (e *BMEdge) Faces() []*BMFace { return e.faces }

// Neighbors appends the vertices connected to v by an edge and returns the
// extended slice.
func (v *BMVert) Neighbors(out []*BMVert) []*BMVert {
	for _, e := range v.edges {
		out = append(out, e.OtherVert(v))
	}
	return out
}

// BMesh holds the element tables. Slices are in creation order; vertex
// Index fields match their position in Verts.
type BMesh struct {
	Verts []*BMVert
	Edges []*BMEdge
	Faces []*BMFace
}

// NewBMeshFromMesh converts an indexed mesh into pointer-linked form,
// carrying over positions, normals, mask and hide state.
func NewBMeshFromMesh(m *Mesh) *BMesh {
	bm := &BMesh{
		Verts: make([]*BMVert, m.NumVerts()),
		Edges: make([]*BMEdge, m.NumEdges()),
		Faces: make([]*BMFace, 0, m.NumFaces()),
	}
	mask := m.Attributes.FloatSpan(AttrPoint, AttrSculptMask)
	hideVert := m.Attributes.BoolSpan(AttrPoint, AttrHideVert)
	hideEdge := m.Attributes.BoolSpan(AttrEdge, AttrHideEdge)
	hidePoly := m.Attributes.BoolSpan(AttrFace, AttrHidePoly)

	for i := range bm.Verts {
		p, n := m.Positions[i], m.Normals[i]
		v := &BMVert{
			Co:    [3]float32{float32(p.X), float32(p.Y), float32(p.Z)},
			No:    [3]float32{float32(n.X), float32(n.Y), float32(n.Z)},
			Index: i,
		}
		if mask != nil {
			v.Mask = mask[i]
		}
		if hideVert != nil && hideVert[i] {
			v.SetFlag(ElemHidden)
		}
		bm.Verts[i] = v
	}
	for i, ev := range m.Edges {
		e := &BMEdge{V1: bm.Verts[ev[0]], V2: bm.Verts[ev[1]]}
		if hideEdge != nil && hideEdge[i] {
			e.SetFlag(ElemHidden)
		}
		e.V1.edges = append(e.V1.edges, e)
		e.V2.edges = append(e.V2.edges, e)
		bm.Edges[i] = e
	}
	for f := 0; f < m.NumFaces(); f++ {
		start, end := m.FaceRange(f)
		face := &BMFace{
			Verts: make([]*BMVert, 0, end-start),
			Edges: make([]*BMEdge, 0, end-start),
		}
		for c := start; c < end; c++ {
			face.Verts = append(face.Verts, bm.Verts[m.CornerVerts[c]])
			e := bm.Edges[m.cornerEdges[c]]
			face.Edges = append(face.Edges, e)
			e.faces = append(e.faces, face)
		}
		if hidePoly != nil && hidePoly[f] {
			face.SetFlag(ElemHidden)
		}
		bm.Faces = append(bm.Faces, face)
	}
	return bm
}

// FlushVertHidden re-derives edge and face hidden flags from vertex flags:
// an edge hides when either endpoint hides, a face when any corner hides.
func (bm *BMesh) FlushVertHidden() {
	for _, e := range bm.Edges {
		if e.V1.TestFlag(ElemHidden) || e.V2.TestFlag(ElemHidden) {
			e.SetFlag(ElemHidden)
		} else {
			e.ClearFlag(ElemHidden)
		}
	}
	for _, f := range bm.Faces {
		hidden := false
		for _, v := range f.Verts {
			if v.TestFlag(ElemHidden) {
				hidden = true
				break
			}
		}
		if hidden {
			f.SetFlag(ElemHidden)
		} else {
			f.ClearFlag(ElemHidden)
		}
	}
}
