package sculpt

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt/internal/d3"
	"github.com/go-sculpt/sculpt/internal/threading"
)

// The PBVH partitions the sculpt surface into leaf nodes holding a disjoint
// set of faces (or grids, or BMesh faces). Edits address whole nodes so that
// draw buffers, undo and visibility recompute at node granularity.
//
// Every face belongs to exactly one leaf, so parallel sweeps over leaves
// write disjoint face state. Vertices on node seams appear in several
// leaves; exactly one leaf lists such a vertex as unique, the rest as other.

// DefaultLeafLimit is the target face count per leaf.
const DefaultLeafLimit = 400

type nodeFlag uint8

const (
	nodeUpdateVisibility nodeFlag = 1 << iota
	nodeRebuildDraw
)

// Node is one leaf of the PBVH.
type Node struct {
	bounds d3.Box

	// Faces representation.
	faces       []int
	tris        []int
	uniqueVerts []int
	otherVerts  []int

	// Grids representation.
	gridIndices []int

	// BMesh representation.
	bmFaces       []*BMFace
	bmUniqueVerts []*BMVert
	bmOtherVerts  []*BMVert

	fullyHidden bool
	flag        nodeFlag
}

// Bounds returns the node's bounding box.
func (n *Node) Bounds() d3.Box { return n.bounds }

// Faces returns the mesh faces owned by the node.
func (n *Node) Faces() []int { return n.faces }

// Tris returns the triangulation triangles of the node's faces.
func (n *Node) Tris() []int { return n.tris }

// UniqueVerts returns the vertices owned by this node.
func (n *Node) UniqueVerts() []int { return n.uniqueVerts }

// OtherVerts returns vertices referenced by the node's faces but owned by
// another node.
func (n *Node) OtherVerts() []int { return n.otherVerts }

// GridIndices returns the grids owned by the node.
func (n *Node) GridIndices() []int { return n.gridIndices }

// BMFaces returns the BMesh faces owned by the node.
func (n *Node) BMFaces() []*BMFace { return n.bmFaces }

// BMUniqueVerts returns the BMesh vertices owned by the node.
func (n *Node) BMUniqueVerts() []*BMVert { return n.bmUniqueVerts }

// BMOtherVerts returns BMesh vertices used but not owned by the node.
func (n *Node) BMOtherVerts() []*BMVert { return n.bmOtherVerts }

// FullyHidden reports whether every vertex of the node is hidden, letting
// draw and raycast skip it.
func (n *Node) FullyHidden() bool { return n.fullyHidden }

// MarkUpdateVisibility schedules a fully-hidden recompute for the node.
func (n *Node) MarkUpdateVisibility() { n.flag |= nodeUpdateVisibility }

// MarkRebuildDraw schedules a draw buffer rebuild for the node.
func (n *Node) MarkRebuildDraw() { n.flag |= nodeRebuildDraw }

// RebuildDrawPending reports whether a draw rebuild is scheduled.
func (n *Node) RebuildDrawPending() bool { return n.flag&nodeRebuildDraw != 0 }

// ClearRebuildDraw acknowledges a completed draw rebuild.
func (n *Node) ClearRebuildDraw() { n.flag &^= nodeRebuildDraw }

// PBVH is the spatial partition over one of the three representations.
type PBVH struct {
	leaves []*Node

	mesh *Mesh
	ccg  *SubdivCCG
	bm   *BMesh
}

// Leaves returns all leaf nodes.
func (p *PBVH) Leaves() []*Node { return p.leaves }

// GatherAffected returns the leaves whose bounds pass the predicate.
func (p *PBVH) GatherAffected(pred func(*Node) bool) []*Node {
	var nodes []*Node
	for _, n := range p.leaves {
		if pred(n) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// splitItems recursively partitions item indices by centroid median along
// the longest bounds axis, emitting leaves of at most leafLimit items.
func splitItems(items []int, centroid func(int) r3.Vec, leafLimit int, emit func([]int)) {
	if len(items) <= leafLimit {
		emit(items)
		return
	}
	cb := d3.EmptyBox()
	for _, it := range items {
		cb = cb.Include(centroid(it))
	}
	size := cb.Size()
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > size.X && size.Z > size.Y {
		axis = 2
	}
	key := func(it int) float64 {
		c := centroid(it)
		switch axis {
		case 0:
			return c.X
		case 1:
			return c.Y
		}
		return c.Z
	}
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
	mid := len(items) / 2
	splitItems(items[:mid], centroid, leafLimit, emit)
	splitItems(items[mid:], centroid, leafLimit, emit)
}

// BuildFaces builds a PBVH over an indexed mesh, partitioning by faces.
func BuildFaces(m *Mesh, leafLimit int) *PBVH {
	if leafLimit <= 0 {
		leafLimit = DefaultLeafLimit
	}
	p := &PBVH{mesh: m}
	items := make([]int, m.NumFaces())
	for i := range items {
		items[i] = i
	}
	centroid := func(f int) r3.Vec {
		verts := m.FaceVerts(f)
		var c r3.Vec
		for _, v := range verts {
			c = r3.Add(c, m.Positions[v])
		}
		return r3.Scale(1/float64(len(verts)), c)
	}
	splitItems(items, centroid, leafLimit, func(faces []int) {
		n := &Node{faces: append([]int(nil), faces...)}
		p.leaves = append(p.leaves, n)
	})

	// Triangles follow their owning face.
	faceNode := make([]*Node, m.NumFaces())
	for _, n := range p.leaves {
		for _, f := range n.faces {
			faceNode[f] = n
		}
	}
	for t, f := range m.TriFaces() {
		n := faceNode[f]
		n.tris = append(n.tris, t)
	}

	// The first leaf touching a vertex owns it.
	vertOwner := make([]*Node, m.NumVerts())
	for _, n := range p.leaves {
		seen := make(map[int]bool)
		bounds := d3.EmptyBox()
		for _, f := range n.faces {
			for _, v := range m.FaceVerts(f) {
				bounds = bounds.Include(m.Positions[v])
				if seen[v] {
					continue
				}
				seen[v] = true
				if vertOwner[v] == nil {
					vertOwner[v] = n
					n.uniqueVerts = append(n.uniqueVerts, v)
				} else if vertOwner[v] != n {
					n.otherVerts = append(n.otherVerts, v)
				}
			}
		}
		n.bounds = bounds
	}
	return p
}

// BuildGrids builds a PBVH over a grids object, partitioning by grids. Every
// sample belongs to exactly one grid, so node sweeps never share samples.
func BuildGrids(c *SubdivCCG, leafLimit int) *PBVH {
	if leafLimit <= 0 {
		leafLimit = DefaultLeafLimit
	}
	p := &PBVH{ccg: c}
	items := make([]int, c.NumGrids())
	for i := range items {
		items[i] = i
	}
	centroid := func(g int) r3.Vec {
		grid := c.Grids[g]
		mid := grid[len(grid)/2]
		return mid.CoVec()
	}
	splitItems(items, centroid, leafLimit, func(grids []int) {
		n := &Node{gridIndices: append([]int(nil), grids...)}
		bounds := d3.EmptyBox()
		for _, g := range n.gridIndices {
			for i := range c.Grids[g] {
				bounds = bounds.Include(c.Grids[g][i].CoVec())
			}
		}
		n.bounds = bounds
		p.leaves = append(p.leaves, n)
	})
	return p
}

// BuildBMesh builds a PBVH over a BMesh, partitioning by faces.
func BuildBMesh(bm *BMesh, leafLimit int) *PBVH {
	if leafLimit <= 0 {
		leafLimit = DefaultLeafLimit
	}
	p := &PBVH{bm: bm}
	items := make([]int, len(bm.Faces))
	for i := range items {
		items[i] = i
	}
	centroid := func(fi int) r3.Vec {
		f := bm.Faces[fi]
		var c r3.Vec
		for _, v := range f.Verts {
			c = r3.Add(c, r3.Vec{X: float64(v.Co[0]), Y: float64(v.Co[1]), Z: float64(v.Co[2])})
		}
		return r3.Scale(1/float64(len(f.Verts)), c)
	}
	splitItems(items, centroid, leafLimit, func(faces []int) {
		n := &Node{bmFaces: make([]*BMFace, 0, len(faces))}
		for _, fi := range faces {
			n.bmFaces = append(n.bmFaces, bm.Faces[fi])
		}
		p.leaves = append(p.leaves, n)
	})

	vertOwner := make(map[*BMVert]*Node, len(bm.Verts))
	for _, n := range p.leaves {
		seen := make(map[*BMVert]bool)
		bounds := d3.EmptyBox()
		for _, f := range n.bmFaces {
			for _, v := range f.Verts {
				bounds = bounds.Include(r3.Vec{X: float64(v.Co[0]), Y: float64(v.Co[1]), Z: float64(v.Co[2])})
				if seen[v] {
					continue
				}
				seen[v] = true
				if owner, ok := vertOwner[v]; !ok {
					vertOwner[v] = n
					n.bmUniqueVerts = append(n.bmUniqueVerts, v)
				} else if owner != n {
					n.bmOtherVerts = append(n.bmOtherVerts, v)
				}
			}
		}
		n.bounds = bounds
	}
	return p
}

// UpdateVisibility recomputes fully-hidden state for every node flagged
// with MarkUpdateVisibility and clears the flag.
func (p *PBVH) UpdateVisibility() {
	threading.ParallelRange(len(p.leaves), 1, func(start, end int) {
		for i := start; i < end; i++ {
			n := p.leaves[i]
			if n.flag&nodeUpdateVisibility == 0 {
				continue
			}
			n.flag &^= nodeUpdateVisibility
			switch {
			case p.mesh != nil:
				n.fullyHidden = nodeFullyHiddenMesh(p.mesh, n)
			case p.ccg != nil:
				n.fullyHidden = nodeFullyHiddenGrids(p.ccg, n)
			case p.bm != nil:
				n.fullyHidden = nodeFullyHiddenBMesh(n)
			}
		}
	})
}

func nodeFullyHiddenMesh(m *Mesh, n *Node) bool {
	hideVert := m.Attributes.BoolSpan(AttrPoint, AttrHideVert)
	if hideVert == nil {
		return false
	}
	for _, v := range n.uniqueVerts {
		if !hideVert[v] {
			return false
		}
	}
	for _, v := range n.otherVerts {
		if !hideVert[v] {
			return false
		}
	}
	return true
}

func nodeFullyHiddenGrids(c *SubdivCCG, n *Node) bool {
	if c.GridHidden == nil {
		return false
	}
	for _, g := range n.gridIndices {
		if !c.GridHidden.Row(g).All() {
			return false
		}
	}
	return true
}

func nodeFullyHiddenBMesh(n *Node) bool {
	for _, v := range n.bmUniqueVerts {
		if !v.TestFlag(ElemHidden) {
			return false
		}
	}
	for _, v := range n.bmOtherVerts {
		if !v.TestFlag(ElemHidden) {
			return false
		}
	}
	return true
}
