package sculpt

import (
	"github.com/go-sculpt/sculpt/internal/threading"
)

// Flush procedures keep the three hide layers consistent with each other. A
// face is hidden iff any of its corner vertices is hidden; an edge is hidden
// iff either endpoint is hidden.

// FaceHideFromVert recomputes the hidden state of the given faces from
// their corner vertices, writing one value per entry of faces into hideFace.
func FaceHideFromVert(m *Mesh, faces []int, hideVert []bool, hideFace []bool) {
	for i, f := range faces {
		hidden := false
		for _, v := range m.FaceVerts(f) {
			if hideVert[v] {
				hidden = true
				break
			}
		}
		hideFace[i] = hidden
	}
}

// AllFaceHideFromVert recomputes hidePoly for every face of the mesh.
func AllFaceHideFromVert(m *Mesh, hideVert []bool, hidePoly []bool) {
	threading.ParallelRange(m.NumFaces(), 1024, func(start, end int) {
		for f := start; f < end; f++ {
			hidden := false
			for _, v := range m.FaceVerts(f) {
				if hideVert[v] {
					hidden = true
					break
				}
			}
			hidePoly[f] = hidden
		}
	})
}

// EdgeHideFromVert recomputes hideEdge for every edge from endpoint
// visibility.
func EdgeHideFromVert(edges [][2]int, hideVert []bool, hideEdge []bool) {
	threading.ParallelRange(len(edges), 2048, func(start, end int) {
		for e := start; e < end; e++ {
			hideEdge[e] = hideVert[edges[e][0]] || hideVert[edges[e][1]]
		}
	})
}

// HideVertFlush makes .hide_poly and .hide_edge consistent with .hide_vert.
// When .hide_vert is absent everything is visible and the derived layers
// are removed outright.
func (m *Mesh) HideVertFlush() {
	hideVert := m.Attributes.BoolSpan(AttrPoint, AttrHideVert)
	if hideVert == nil {
		m.Attributes.Remove(AttrFace, AttrHidePoly)
		m.Attributes.Remove(AttrEdge, AttrHideEdge)
		return
	}
	hidePoly := m.Attributes.BoolForWrite(AttrFace, AttrHidePoly)
	AllFaceHideFromVert(m, hideVert, hidePoly.Span)
	hidePoly.Finish()

	hideEdge := m.Attributes.BoolForWrite(AttrEdge, AttrHideEdge)
	EdgeHideFromVert(m.Edges, hideVert, hideEdge.Span)
	hideEdge.Finish()
}

// HideFaceFlush makes .hide_vert and .hide_edge consistent with .hide_poly.
// A vertex or edge attached to any visible face becomes visible; one
// attached only to hidden faces becomes hidden. Loose elements are left
// alone.
func (m *Mesh) HideFaceFlush() {
	hidePoly := m.Attributes.BoolSpan(AttrFace, AttrHidePoly)
	if hidePoly == nil {
		m.Attributes.Remove(AttrPoint, AttrHideVert)
		m.Attributes.Remove(AttrEdge, AttrHideEdge)
		return
	}
	hideVert := m.Attributes.BoolForWrite(AttrPoint, AttrHideVert)
	hideEdge := m.Attributes.BoolForWrite(AttrEdge, AttrHideEdge)

	// Hide elements of hidden faces first; visible faces win afterwards.
	for f := 0; f < m.NumFaces(); f++ {
		if !hidePoly[f] {
			continue
		}
		start, end := m.FaceRange(f)
		for c := start; c < end; c++ {
			hideVert.Span[m.CornerVerts[c]] = true
			hideEdge.Span[m.cornerEdges[c]] = true
		}
	}
	for f := 0; f < m.NumFaces(); f++ {
		if hidePoly[f] {
			continue
		}
		start, end := m.FaceRange(f)
		for c := start; c < end; c++ {
			hideVert.Span[m.CornerVerts[c]] = false
			hideEdge.Span[m.cornerEdges[c]] = false
		}
	}
	hideVert.Finish()
	hideEdge.Finish()
}
