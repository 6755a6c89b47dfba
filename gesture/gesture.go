// Package gesture evaluates screen-space selection shapes (box, lasso,
// line, polyline) against world-space geometry for visibility operations.
package gesture

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt/internal/d3"
)

// Selection says which side of the drawn shape the operation affects.
type Selection int

const (
	// SelectionInside affects geometry inside the shape.
	SelectionInside Selection = iota
	// SelectionOutside affects everything outside it.
	SelectionOutside
)

// Shape identifies the drawn gesture.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeLasso
	ShapeLine
	ShapePolyline
)

// View is the orthographic camera the gesture was drawn in. Forward points
// away from the viewer into the scene.
type View struct {
	Origin  r3.Vec
	Forward r3.Vec
	Up      r3.Vec
}

// Project maps a world point onto the view plane.
func (v View) Project(p r3.Vec) r2.Vec {
	right := r3.Unit(r3.Cross(v.Forward, v.Up))
	up := r3.Unit(r3.Cross(right, v.Forward))
	d := r3.Sub(p, v.Origin)
	return r2.Vec{X: r3.Dot(d, right), Y: r3.Dot(d, up)}
}

// Data is one gesture ready to test geometry against.
type Data struct {
	Shape     Shape
	Selection Selection
	// FrontFacesOnly restricts the gesture to geometry facing the viewer.
	FrontFacesOnly bool
	View           View

	// Box is the world-space region for ShapeBox.
	Box d3.Box
	// Polygon is the screen-space outline for lasso and polyline shapes.
	Polygon []r2.Vec
	// Line half-plane: a point on the boundary and the inward normal.
	LinePoint, LineNormal r2.Vec
}

// NewBox returns a gesture selecting a world-space box.
func NewBox(sel Selection, box d3.Box) *Data {
	return &Data{Shape: ShapeBox, Selection: sel, Box: box}
}

// NewLasso returns a gesture selecting a freehand screen-space outline.
func NewLasso(sel Selection, view View, outline []r2.Vec) *Data {
	return &Data{Shape: ShapeLasso, Selection: sel, View: view, Polygon: outline}
}

// NewPolyline returns a gesture selecting a clicked screen-space polygon.
func NewPolyline(sel Selection, view View, outline []r2.Vec) *Data {
	return &Data{Shape: ShapePolyline, Selection: sel, View: view, Polygon: outline}
}

// NewLine returns a gesture splitting the view along the segment p0-p1.
// The selected side is to the left of p0->p1; flip selects the right side.
func NewLine(sel Selection, view View, p0, p1 r2.Vec, flip bool) *Data {
	dir := r2.Sub(p1, p0)
	normal := r2.Vec{X: -dir.Y, Y: dir.X}
	if flip {
		normal = r2.Scale(-1, normal)
	}
	return &Data{Shape: ShapeLine, Selection: sel, View: view, LinePoint: p0, LineNormal: normal}
}

// ContainsPoint reports whether the gesture affects the world point,
// honoring the inside/outside selection.
func (d *Data) ContainsPoint(p r3.Vec) bool {
	inside := d.rawContains(p)
	if d.Selection == SelectionOutside {
		return !inside
	}
	return inside
}

func (d *Data) rawContains(p r3.Vec) bool {
	switch d.Shape {
	case ShapeBox:
		return d.Box.Contains(p)
	case ShapeLine:
		q := d.View.Project(p)
		return r2.Dot(r2.Sub(q, d.LinePoint), d.LineNormal) >= 0
	default:
		return polygonContains(d.Polygon, d.View.Project(p))
	}
}

// TestNormal reports whether geometry with the given normal may be affected.
// Always true unless FrontFacesOnly is set.
func (d *Data) TestNormal(n r3.Vec) bool {
	if !d.FrontFacesOnly {
		return true
	}
	return r3.Dot(d.View.Forward, n) < 0
}

// AffectsBounds is a conservative prefilter: false only when no point of
// the box can be affected. Outside selections reach everywhere, so they
// never prefilter.
func (d *Data) AffectsBounds(b d3.Box) bool {
	if d.Selection == SelectionOutside {
		return true
	}
	switch d.Shape {
	case ShapeBox:
		return d.Box.Intersects(b)
	case ShapeLine:
		for _, v := range b.Vertices() {
			q := d.View.Project(v)
			if r2.Dot(r2.Sub(q, d.LinePoint), d.LineNormal) >= 0 {
				return true
			}
		}
		return false
	default:
		// Screen-space bounding rectangle overlap.
		if len(d.Polygon) == 0 {
			return false
		}
		bmin := r2.Vec{X: 1e300, Y: 1e300}
		bmax := r2.Vec{X: -1e300, Y: -1e300}
		for _, v := range b.Vertices() {
			q := d.View.Project(v)
			bmin = minElem2(bmin, q)
			bmax = maxElem2(bmax, q)
		}
		pmin := d.Polygon[0]
		pmax := d.Polygon[0]
		for _, q := range d.Polygon[1:] {
			pmin = minElem2(pmin, q)
			pmax = maxElem2(pmax, q)
		}
		return bmin.X <= pmax.X && pmin.X <= bmax.X &&
			bmin.Y <= pmax.Y && pmin.Y <= bmax.Y
	}
}

// polygonContains is the even-odd crossing test.
func polygonContains(poly []r2.Vec, p r2.Vec) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func minElem2(a, b r2.Vec) r2.Vec {
	if b.X < a.X {
		a.X = b.X
	}
	if b.Y < a.Y {
		a.Y = b.Y
	}
	return a
}

func maxElem2(a, b r2.Vec) r2.Vec {
	if b.X > a.X {
		a.X = b.X
	}
	if b.Y > a.Y {
		a.Y = b.Y
	}
	return a
}
