package sculpt

import (
	"fmt"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt/internal/bitvec"
)

// SubdivCCG is the Catmull-Clark grids representation: one square grid of
// samples per base quad face. Hidden state is a packed bitset per grid,
// row-major (y*size + x), allocated lazily and freed wholesale when the
// whole surface becomes visible.
type SubdivCCG struct {
	// Grids holds size*size samples per base face.
	Grids [][]GridElem
	// GridHidden is nil while every sample is visible.
	GridHidden *bitvec.Group

	base     *Mesh
	gridSize int
	hasMask  bool

	// adj maps each grid side to the matching side of the neighbor grid
	// across the shared base edge.
	adj [][4]gridSide
	// vertCoord is the canonical grid coordinate of each base vertex.
	vertCoord []GridCoord

	hiddenModified bool
}

// GridElem is one subdivision surface sample.
type GridElem struct {
	Co   [3]float32
	No   [3]float32
	Mask float32
}

// CoVec returns the sample position as an r3 vector.
func (e *GridElem) CoVec() r3.Vec {
	return r3.Vec{X: float64(e.Co[0]), Y: float64(e.Co[1]), Z: float64(e.Co[2])}
}

// NoVec returns the sample normal as an r3 vector.
func (e *GridElem) NoVec() r3.Vec {
	return r3.Vec{X: float64(e.No[0]), Y: float64(e.No[1]), Z: float64(e.No[2])}
}

// CCGKey describes the sample layout of a SubdivCCG.
type CCGKey struct {
	GridSize int
	HasMask  bool
}

// GridCoord addresses one sample of one grid.
type GridCoord struct {
	Grid, X, Y int
}

// gridSide links one side of a grid to the side of the grid across the
// shared base edge. grid is -1 on surface boundaries. sameDir is true when
// both sides traverse the shared edge in the same vertex order.
type gridSide struct {
	grid, side int
	sameDir    bool
}

// GridXYToIndex returns the row-major sample index of (x, y).
func GridXYToIndex(gridSize, x, y int) int { return y*gridSize + x }

// NewSubdivCCG subdivides a quad mesh into per-face grids of gridSize x
// gridSize samples. Positions, normals and mask are bilinearly interpolated
// from the face corners.
func NewSubdivCCG(m *Mesh, gridSize int) (*SubdivCCG, error) {
	if gridSize < 2 {
		return nil, fmt.Errorf("sculpt: grid size %d too small", gridSize)
	}
	mask := m.Attributes.FloatSpan(AttrPoint, AttrSculptMask)
	c := &SubdivCCG{
		base:     m,
		gridSize: gridSize,
		hasMask:  mask != nil,
		Grids:    make([][]GridElem, m.NumFaces()),
	}
	s := gridSize
	for f := 0; f < m.NumFaces(); f++ {
		verts := m.FaceVerts(f)
		if len(verts) != 4 {
			return nil, fmt.Errorf("sculpt: face %d has %d corners, grids need quads", f, len(verts))
		}
		grid := make([]GridElem, s*s)
		for y := 0; y < s; y++ {
			v := float64(y) / float64(s-1)
			for x := 0; x < s; x++ {
				u := float64(x) / float64(s-1)
				elem := &grid[GridXYToIndex(s, x, y)]
				co := bilerp(m.Positions[verts[0]], m.Positions[verts[1]], m.Positions[verts[2]], m.Positions[verts[3]], u, v)
				no := bilerp(m.Normals[verts[0]], m.Normals[verts[1]], m.Normals[verts[2]], m.Normals[verts[3]], u, v)
				elem.Co = [3]float32{float32(co.X), float32(co.Y), float32(co.Z)}
				elem.No = normalized32(float32(no.X), float32(no.Y), float32(no.Z))
				if mask != nil {
					mu, mv := float32(u), float32(v)
					m0 := mask[verts[0]]*(1-mu) + mask[verts[1]]*mu
					m1 := mask[verts[3]]*(1-mu) + mask[verts[2]]*mu
					elem.Mask = m0*(1-mv) + m1*mv
				}
			}
		}
		c.Grids[f] = grid
	}
	c.buildAdjacency()
	return c, nil
}

// bilerp interpolates a quad's corner values at parametric (u, v), with
// corners in winding order c0..c3.
func bilerp(c0, c1, c2, c3 r3.Vec, u, v float64) r3.Vec {
	bottom := r3.Add(r3.Scale(1-u, c0), r3.Scale(u, c1))
	top := r3.Add(r3.Scale(1-u, c3), r3.Scale(u, c2))
	return r3.Add(r3.Scale(1-v, bottom), r3.Scale(v, top))
}

func normalized32(x, y, z float32) [3]float32 {
	n := math32.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		return [3]float32{}
	}
	return [3]float32{x / n, y / n, z / n}
}

func (c *SubdivCCG) buildAdjacency() {
	m := c.base
	c.adj = make([][4]gridSide, len(c.Grids))
	for g := range c.adj {
		for side := range c.adj[g] {
			c.adj[g][side] = gridSide{grid: -1, side: -1}
		}
	}
	type sideRef struct {
		grid, side int
		from, to   int
	}
	byEdge := make(map[[2]int][]sideRef)
	for f := 0; f < m.NumFaces(); f++ {
		verts := m.FaceVerts(f)
		for side := 0; side < 4; side++ {
			a, b := verts[side], verts[(side+1)%4]
			key := [2]int{a, b}
			if a > b {
				key[0], key[1] = b, a
			}
			byEdge[key] = append(byEdge[key], sideRef{grid: f, side: side, from: a, to: b})
		}
	}
	for _, refs := range byEdge {
		for i := 0; i+1 < len(refs); i += 2 {
			a, b := refs[i], refs[i+1]
			sameDir := a.from == b.from
			c.adj[a.grid][a.side] = gridSide{grid: b.grid, side: b.side, sameDir: sameDir}
			c.adj[b.grid][b.side] = gridSide{grid: a.grid, side: a.side, sameDir: sameDir}
		}
	}

	c.vertCoord = make([]GridCoord, m.NumVerts())
	for i := range c.vertCoord {
		c.vertCoord[i] = GridCoord{Grid: -1}
	}
	for f := 0; f < m.NumFaces(); f++ {
		verts := m.FaceVerts(f)
		for k, v := range verts {
			if c.vertCoord[v].Grid == -1 {
				c.vertCoord[v] = cornerCoord(f, k, c.gridSize)
			}
		}
	}
}

// cornerCoord returns the grid coordinate of face corner k.
func cornerCoord(grid, k, s int) GridCoord {
	switch k {
	case 0:
		return GridCoord{Grid: grid, X: 0, Y: 0}
	case 1:
		return GridCoord{Grid: grid, X: s - 1, Y: 0}
	case 2:
		return GridCoord{Grid: grid, X: s - 1, Y: s - 1}
	default:
		return GridCoord{Grid: grid, X: 0, Y: s - 1}
	}
}

// sideCoord returns the coordinate at parameter t along a grid side,
// walking in face corner order.
func sideCoord(grid, side, t, s int) GridCoord {
	switch side {
	case 0:
		return GridCoord{Grid: grid, X: t, Y: 0}
	case 1:
		return GridCoord{Grid: grid, X: s - 1, Y: t}
	case 2:
		return GridCoord{Grid: grid, X: s - 1 - t, Y: s - 1}
	default:
		return GridCoord{Grid: grid, X: 0, Y: s - 1 - t}
	}
}

// sideParam returns the parameter of coord along the given side, assuming
// coord lies on it.
func sideParam(coord GridCoord, side, s int) int {
	switch side {
	case 0:
		return coord.X
	case 1:
		return coord.Y
	case 2:
		return s - 1 - coord.X
	default:
		return s - 1 - coord.Y
	}
}

// coordSides returns which sides of its grid coord lies on (0 to 2 of them).
func coordSides(coord GridCoord, s int, out []int) []int {
	out = out[:0]
	if coord.Y == 0 {
		out = append(out, 0)
	}
	if coord.X == s-1 {
		out = append(out, 1)
	}
	if coord.Y == s-1 {
		out = append(out, 2)
	}
	if coord.X == 0 {
		out = append(out, 3)
	}
	return out
}

// Key returns the sample layout of the CCG.
func (c *SubdivCCG) Key() CCGKey {
	return CCGKey{GridSize: c.gridSize, HasMask: c.hasMask}
}

// GridSize returns the side length of every grid.
func (c *SubdivCCG) GridSize() int { return c.gridSize }

// NumGrids returns the grid count.
func (c *SubdivCCG) NumGrids() int { return len(c.Grids) }

// TotalSamples returns the sample count over all grids.
func (c *SubdivCCG) TotalSamples() int {
	return len(c.Grids) * c.gridSize * c.gridSize
}

// Base returns the base mesh the grids were built from.
func (c *SubdivCCG) Base() *Mesh { return c.base }

// VertCoord returns the canonical sample of a base mesh vertex.
func (c *SubdivCCG) VertCoord(v int) GridCoord { return c.vertCoord[v] }

// GridHiddenEnsure returns the hidden bit storage, allocating an all-visible
// group on first use.
func (c *SubdivCCG) GridHiddenEnsure() *bitvec.Group {
	if c.GridHidden == nil {
		c.GridHidden = bitvec.NewGroup(len(c.Grids), c.gridSize*c.gridSize)
	}
	return c.GridHidden
}

// GridHiddenFree drops the hidden bit storage; every sample becomes visible.
func (c *SubdivCCG) GridHiddenFree() {
	c.GridHidden = nil
}

// MarkHiddenModified flags the multires data as needing a rebuild after
// hidden state edits.
func (c *SubdivCCG) MarkHiddenModified() { c.hiddenModified = true }

// TakeHiddenModified reports and clears the modified flag.
func (c *SubdivCCG) TakeHiddenModified() bool {
	mod := c.hiddenModified
	c.hiddenModified = false
	return mod
}

// duplicates appends the coordinates of coord's topological vertex in other
// grids (coord itself excluded) and returns the extended slice. Interior
// samples have none; side samples have one; corner samples orbit all grids
// around the base vertex.
func (c *SubdivCCG) duplicates(coord GridCoord, out []GridCoord) []GridCoord {
	s := c.gridSize
	var sidesBuf [4]int
	seen := func(q GridCoord, acc []GridCoord) bool {
		if q == coord {
			return true
		}
		for _, p := range acc {
			if p == q {
				return true
			}
		}
		return false
	}
	start := len(out)
	queue := []GridCoord{coord}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, side := range coordSides(cur, s, sidesBuf[:0]) {
			nb := c.adj[cur.Grid][side]
			if nb.grid < 0 {
				continue
			}
			t := sideParam(cur, side, s)
			if !nb.sameDir {
				t = s - 1 - t
			}
			q := sideCoord(nb.grid, nb.side, t, s)
			if seen(q, out[start:]) {
				continue
			}
			out = append(out, q)
			queue = append(queue, q)
		}
	}
	return out
}

// NeighborCoords appends the grid coordinates of every topological neighbor
// of coord, including (when includeDuplicates is set) every duplicate those
// samples have across grid seams, and returns the extended slice. Duplicate
// entries of coord's own vertex are included so seam rows stay consistent
// under idempotent writes.
func (c *SubdivCCG) NeighborCoords(coord GridCoord, includeDuplicates bool, out []GridCoord) []GridCoord {
	s := c.gridSize
	instances := make([]GridCoord, 0, 8)
	instances = append(instances, coord)
	instances = c.duplicates(coord, instances)

	appendUnique := func(q GridCoord) {
		for _, p := range out {
			if p == q {
				return
			}
		}
		out = append(out, q)
	}

	for _, inst := range instances {
		if inst != coord && includeDuplicates {
			appendUnique(inst)
		}
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			x, y := inst.X+d[0], inst.Y+d[1]
			if x < 0 || y < 0 || x >= s || y >= s {
				continue
			}
			n := GridCoord{Grid: inst.Grid, X: x, Y: y}
			appendUnique(n)
			if includeDuplicates {
				for _, dup := range c.duplicates(n, nil) {
					appendUnique(dup)
				}
			}
		}
	}
	return out
}

// SyncVisibilityToBase mirrors grid hidden state into the base mesh hide
// attributes and flushes faces and edges.
func (c *SubdivCCG) SyncVisibilityToBase() {
	m := c.base
	if c.GridHidden == nil {
		m.Attributes.Remove(AttrPoint, AttrHideVert)
		m.HideVertFlush()
		return
	}
	hideVert := m.Attributes.BoolForWrite(AttrPoint, AttrHideVert)
	for v := range hideVert.Span {
		coord := c.vertCoord[v]
		if coord.Grid < 0 {
			continue
		}
		hideVert.Span[v] = c.GridHidden.Row(coord.Grid).Get(GridXYToIndex(c.gridSize, coord.X, coord.Y))
	}
	hideVert.Finish()
	m.HideVertFlush()
}

// SyncFaceVisibilityToGrids propagates base face hiding into the grid
// bitsets: every sample of a hidden face's grid becomes hidden.
func (c *SubdivCCG) SyncFaceVisibilityToGrids() {
	hidePoly := c.base.Attributes.BoolSpan(AttrFace, AttrHidePoly)
	if hidePoly == nil {
		c.GridHiddenFree()
		return
	}
	hidden := c.GridHiddenEnsure()
	for f, h := range hidePoly {
		hidden.Row(f).Fill(h)
	}
}
