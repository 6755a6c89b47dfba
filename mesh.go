package sculpt

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt/internal/d3"
)

// Mesh is the static indexed mesh representation. Faces are stored as a
// corner list sliced by offsets: the corners of face f are
// CornerVerts[FaceOffsets[f]:FaceOffsets[f+1]].
type Mesh struct {
	Positions []r3.Vec
	Normals   []r3.Vec
	// CornerVerts maps each face corner to its vertex index.
	CornerVerts []int
	// FaceOffsets has NumFaces+1 entries delimiting corner runs.
	FaceOffsets []int
	// Edges holds unique vertex pairs, lower index first.
	Edges [][2]int
	// Attributes stores the optional hide/mask layers.
	Attributes *AttributeStore

	// cornerEdges maps each face corner to the edge between it and the
	// next corner of the same face.
	cornerEdges []int

	// cornerTris triangulates every face as a corner-index fan.
	cornerTris [][3]int
	// triFaces maps each triangle to its owning face.
	triFaces []int
}

// NewMesh builds a mesh from vertex positions and per-face vertex lists.
// Edge and triangle tables and averaged vertex normals are derived here;
// the attribute store starts empty (everything visible, no mask).
func NewMesh(positions []r3.Vec, faces [][]int) *Mesh {
	m := &Mesh{Positions: positions}
	corners := 0
	for _, f := range faces {
		if len(f) < 3 {
			panic("sculpt: face with fewer than 3 corners")
		}
		corners += len(f)
	}
	m.CornerVerts = make([]int, 0, corners)
	m.FaceOffsets = make([]int, 1, len(faces)+1)
	for _, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(positions) {
				panic(fmt.Sprintf("sculpt: corner vertex %d out of range", v))
			}
			m.CornerVerts = append(m.CornerVerts, v)
		}
		m.FaceOffsets = append(m.FaceOffsets, len(m.CornerVerts))
	}
	m.calcEdges()
	m.calcTris()
	m.calcNormals()
	m.Attributes = NewAttributeStore(m.NumVerts(), m.NumEdges(), m.NumFaces(), m.NumCorners())
	return m
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() d3.Box {
	b := d3.EmptyBox()
	for _, p := range m.Positions {
		b = b.Include(p)
	}
	return b
}

func (m *Mesh) NumVerts() int   { return len(m.Positions) }
func (m *Mesh) NumFaces() int   { return len(m.FaceOffsets) - 1 }
func (m *Mesh) NumEdges() int   { return len(m.Edges) }
func (m *Mesh) NumCorners() int { return len(m.CornerVerts) }
func (m *Mesh) NumTris() int    { return len(m.cornerTris) }

// FaceRange returns the half-open corner range of face f.
func (m *Mesh) FaceRange(f int) (start, end int) {
	return m.FaceOffsets[f], m.FaceOffsets[f+1]
}

// FaceVerts returns the vertex indices of face f's corners. The returned
// slice aliases the mesh and must not be modified.
func (m *Mesh) FaceVerts(f int) []int {
	start, end := m.FaceRange(f)
	return m.CornerVerts[start:end]
}

// TriFaces maps each triangle of the face triangulation to its owning face.
func (m *Mesh) TriFaces() []int { return m.triFaces }

// TriVerts returns the three vertex indices of triangle t.
func (m *Mesh) TriVerts(t int) [3]int {
	tri := m.cornerTris[t]
	return [3]int{m.CornerVerts[tri[0]], m.CornerVerts[tri[1]], m.CornerVerts[tri[2]]}
}

// faceCornerPrev returns the corner before c within the face corner range
// [start, end), wrapping around.
func faceCornerPrev(start, end, c int) int {
	if c == start {
		return end - 1
	}
	return c - 1
}

// faceCornerNext returns the corner after c within [start, end), wrapping.
func faceCornerNext(start, end, c int) int {
	if c == end-1 {
		return start
	}
	return c + 1
}

func (m *Mesh) calcEdges() {
	index := make(map[[2]int]int, m.NumCorners())
	m.cornerEdges = make([]int, m.NumCorners())
	for f := 0; f < m.NumFaces(); f++ {
		start, end := m.FaceRange(f)
		for c := start; c < end; c++ {
			a := m.CornerVerts[c]
			b := m.CornerVerts[faceCornerNext(start, end, c)]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			e, ok := index[key]
			if !ok {
				e = len(m.Edges)
				index[key] = e
				m.Edges = append(m.Edges, key)
			}
			m.cornerEdges[c] = e
		}
	}
}

func (m *Mesh) calcTris() {
	for f := 0; f < m.NumFaces(); f++ {
		start, end := m.FaceRange(f)
		// Fan triangulation from the first corner.
		for c := start + 1; c < end-1; c++ {
			m.cornerTris = append(m.cornerTris, [3]int{start, c, c + 1})
			m.triFaces = append(m.triFaces, f)
		}
	}
}

func (m *Mesh) calcNormals() {
	m.Normals = make([]r3.Vec, len(m.Positions))
	for f := 0; f < m.NumFaces(); f++ {
		verts := m.FaceVerts(f)
		a := m.Positions[verts[0]]
		n := r3.Cross(r3.Sub(m.Positions[verts[1]], a), r3.Sub(m.Positions[verts[2]], a))
		for _, v := range verts {
			m.Normals[v] = r3.Add(m.Normals[v], n)
		}
	}
	for i, n := range m.Normals {
		if r3.Norm2(n) > 0 {
			m.Normals[i] = r3.Unit(n)
		}
	}
}
