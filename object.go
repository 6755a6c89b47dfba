package sculpt

// Rep identifies which representation a sculpt object is edited through.
type Rep int

const (
	RepFaces Rep = iota
	RepGrids
	RepBMesh
)

func (r Rep) String() string {
	switch r {
	case RepFaces:
		return "faces"
	case RepGrids:
		return "grids"
	case RepBMesh:
		return "bmesh"
	}
	return "unknown"
}

// Object bundles a mesh with its active sculpt representation and PBVH.
// Mesh is always set; CCG or BM are set when the object is edited through
// grids or dynamic topology.
type Object struct {
	Mesh *Mesh
	CCG  *SubdivCCG
	BM   *BMesh
	PBVH *PBVH

	rep Rep

	// topologyIslandsValid guards the cached connected-component keys used
	// by the expand tools; any visibility change invalidates them.
	topologyIslandsValid bool
}

// NewFacesObject wraps a mesh for direct editing.
func NewFacesObject(m *Mesh, leafLimit int) *Object {
	return &Object{
		Mesh: m,
		PBVH: BuildFaces(m, leafLimit),
		rep:  RepFaces,
	}
}

// NewGridsObject subdivides a quad mesh into grids and wraps it for
// multires editing.
func NewGridsObject(m *Mesh, gridSize, leafLimit int) (*Object, error) {
	ccg, err := NewSubdivCCG(m, gridSize)
	if err != nil {
		return nil, err
	}
	return &Object{
		Mesh: m,
		CCG:  ccg,
		PBVH: BuildGrids(ccg, leafLimit),
		rep:  RepGrids,
	}, nil
}

// NewBMeshObject converts a mesh to pointer-linked form and wraps it for
// dynamic topology editing.
func NewBMeshObject(m *Mesh, leafLimit int) *Object {
	bm := NewBMeshFromMesh(m)
	return &Object{
		Mesh: m,
		BM:   bm,
		PBVH: BuildBMesh(bm, leafLimit),
		rep:  RepBMesh,
	}
}

// Rep returns the active representation.
func (o *Object) Rep() Rep { return o.rep }

// VertCount returns the vertex count of the active representation; for
// grids this is the total sample count.
func (o *Object) VertCount() int {
	switch o.rep {
	case RepGrids:
		return o.CCG.TotalSamples()
	case RepBMesh:
		return len(o.BM.Verts)
	}
	return o.Mesh.NumVerts()
}

// InvalidateTopologyIslands drops the cached island keys.
func (o *Object) InvalidateTopologyIslands() { o.topologyIslandsValid = false }

// ValidateTopologyIslands marks the island cache as freshly built.
func (o *Object) ValidateTopologyIslands() { o.topologyIslandsValid = true }

// TopologyIslandsValid reports whether the island cache may be reused.
func (o *Object) TopologyIslandsValid() bool { return o.topologyIslandsValid }
