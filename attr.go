package sculpt

import "fmt"

// AttrDomain selects which mesh element an attribute layer is stored on.
type AttrDomain uint8

const (
	AttrPoint AttrDomain = iota
	AttrEdge
	AttrFace
	AttrCorner
	numAttrDomains
)

func (d AttrDomain) String() string {
	switch d {
	case AttrPoint:
		return "Point"
	case AttrEdge:
		return "Edge"
	case AttrFace:
		return "Face"
	case AttrCorner:
		return "Corner"
	}
	return fmt.Sprintf("AttrDomain(%d)", uint8(d))
}

// Attribute names persisted with the mesh.
const (
	AttrHideVert   = ".hide_vert"   // Point, bool
	AttrHidePoly   = ".hide_poly"   // Face, bool
	AttrHideEdge   = ".hide_edge"   // Edge, bool
	AttrSculptMask = ".sculpt_mask" // Point, float32
)

type attrKey struct {
	domain AttrDomain
	name   string
}

// AttributeStore holds typed per-domain attribute layers with
// lookup-or-create semantics. A missing boolean layer means "all false".
type AttributeStore struct {
	domainLen [numAttrDomains]int
	bools     map[attrKey][]bool
	floats    map[attrKey][]float32
}

// NewAttributeStore returns a store sized for a mesh with the given element
// counts per domain.
func NewAttributeStore(points, edges, faces, corners int) *AttributeStore {
	s := &AttributeStore{
		bools:  make(map[attrKey][]bool),
		floats: make(map[attrKey][]float32),
	}
	s.domainLen[AttrPoint] = points
	s.domainLen[AttrEdge] = edges
	s.domainLen[AttrFace] = faces
	s.domainLen[AttrCorner] = corners
	return s
}

// DomainLen returns the number of elements in a domain.
func (s *AttributeStore) DomainLen(domain AttrDomain) int {
	return s.domainLen[domain]
}

// Contains reports whether the named layer exists on the domain.
func (s *AttributeStore) Contains(domain AttrDomain, name string) bool {
	k := attrKey{domain, name}
	if _, ok := s.bools[k]; ok {
		return true
	}
	_, ok := s.floats[k]
	return ok
}

// BoolSpan returns the named boolean layer, or nil if it does not exist.
// The span is valid until the layer is removed.
func (s *AttributeStore) BoolSpan(domain AttrDomain, name string) []bool {
	return s.bools[attrKey{domain, name}]
}

// FloatSpan returns the named float layer, or nil if it does not exist.
func (s *AttributeStore) FloatSpan(domain AttrDomain, name string) []float32 {
	return s.floats[attrKey{domain, name}]
}

// BoolWriter is a writable view of a boolean layer obtained from
// BoolForWrite. Call Finish once the writes are complete; the span must not
// be used afterwards.
type BoolWriter struct {
	Span []bool

	store *AttributeStore
	key   attrKey
}

// BoolForWrite returns a writer for the named boolean layer, creating it
// zero-initialized if absent.
func (s *AttributeStore) BoolForWrite(domain AttrDomain, name string) BoolWriter {
	k := attrKey{domain, name}
	span, ok := s.bools[k]
	if !ok {
		span = make([]bool, s.domainLen[domain])
		s.bools[k] = span
	}
	return BoolWriter{Span: span, store: s, key: k}
}

// Finish commits the writes made through the writer's span.
func (w *BoolWriter) Finish() {
	if w.store == nil {
		panic("sculpt: Finish on zero BoolWriter")
	}
	w.Span = nil
	w.store = nil
}

// FloatForWrite returns the named float layer for writing, creating it
// zero-initialized if absent.
func (s *AttributeStore) FloatForWrite(domain AttrDomain, name string) []float32 {
	k := attrKey{domain, name}
	span, ok := s.floats[k]
	if !ok {
		span = make([]float32, s.domainLen[domain])
		s.floats[k] = span
	}
	return span
}

// Remove deletes the named layer from the domain. Removing a boolean layer
// is equivalent to zeroing it.
func (s *AttributeStore) Remove(domain AttrDomain, name string) {
	k := attrKey{domain, name}
	delete(s.bools, k)
	delete(s.floats, k)
}
