package main

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/gesture"
	"github.com/go-sculpt/sculpt/hide"
	"github.com/go-sculpt/sculpt/internal/d3"
)

// Script is a YAML-scripted sequence of visibility operations.
type Script struct {
	// LeafLimit overrides the PBVH leaf size; 0 keeps the default.
	LeafLimit int `yaml:"leaf_limit"`
	// View is the camera gestures are evaluated in; defaults to looking
	// down the -Z axis.
	View *ViewSpec `yaml:"view"`
	Ops  []OpSpec  `yaml:"ops"`
}

// ViewSpec is a serializable orthographic camera.
type ViewSpec struct {
	Origin  [3]float64 `yaml:"origin"`
	Forward [3]float64 `yaml:"forward"`
	Up      [3]float64 `yaml:"up"`
}

func (v *ViewSpec) view() gesture.View {
	if v == nil {
		return gesture.View{
			Origin:  r3.Vec{Z: 10},
			Forward: r3.Vec{Z: -1},
			Up:      r3.Vec{Y: 1},
		}
	}
	return gesture.View{
		Origin:  r3.Vec{X: v.Origin[0], Y: v.Origin[1], Z: v.Origin[2]},
		Forward: r3.Vec{X: v.Forward[0], Y: v.Forward[1], Z: v.Forward[2]},
		Up:      r3.Vec{X: v.Up[0], Y: v.Up[1], Z: v.Up[2]},
	}
}

// OpSpec is one scripted operation. Fields beyond Op apply only to the
// operations that use them.
type OpSpec struct {
	// Op is the operation identifier, e.g. "hide_show_all".
	Op     string `yaml:"op"`
	Action string `yaml:"action"` // hide (default) or show

	// visibility_filter.
	Iterations     int  `yaml:"iterations"`
	AutoIterations bool `yaml:"auto_iterations"`

	// Gestures.
	Area string `yaml:"area"` // inside (default) or outside
	Box  *struct {
		Min [3]float64 `yaml:"min"`
		Max [3]float64 `yaml:"max"`
	} `yaml:"box"`
	Points         [][2]float64 `yaml:"points"`
	Flip           bool         `yaml:"flip"`
	FrontFacesOnly bool         `yaml:"front_faces_only"`
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

func (o OpSpec) action() (hide.Action, error) {
	switch o.Action {
	case "", "hide":
		return hide.ActionHide, nil
	case "show":
		return hide.ActionShow, nil
	}
	return 0, fmt.Errorf("op %s: unknown action %q", o.Op, o.Action)
}

func (o OpSpec) filterAction() (hide.FilterAction, error) {
	switch o.Action {
	case "", "grow":
		return hide.FilterGrow, nil
	case "shrink":
		return hide.FilterShrink, nil
	}
	return 0, fmt.Errorf("op %s: unknown action %q", o.Op, o.Action)
}

func (o OpSpec) selection() (gesture.Selection, error) {
	switch o.Area {
	case "", "inside":
		return gesture.SelectionInside, nil
	case "outside":
		return gesture.SelectionOutside, nil
	}
	return 0, fmt.Errorf("op %s: unknown area %q", o.Op, o.Area)
}

func (o OpSpec) points2() []r2.Vec {
	pts := make([]r2.Vec, len(o.Points))
	for i, p := range o.Points {
		pts[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return pts
}

// Run applies the script's operations to the object in order.
func (s *Script) Run(e *hide.Engine, obj *sculpt.Object) error {
	view := s.View.view()
	for i, op := range s.Ops {
		if err := runOp(e, obj, op, view); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}

func runOp(e *hide.Engine, obj *sculpt.Object, op OpSpec, view gesture.View) error {
	switch op.Op {
	case hide.OpHideShowAll:
		action, err := op.action()
		if err != nil {
			return err
		}
		e.ShowHideAll(obj, action)
	case hide.OpHideShowMasked:
		action, err := op.action()
		if err != nil {
			return err
		}
		e.ShowHideMasked(obj, action)
	case hide.OpVisibilityInvert:
		e.InvertVisibility(obj)
	case hide.OpVisibilityFilter:
		fa, err := op.filterAction()
		if err != nil {
			return err
		}
		e.VisibilityFilter(obj, hide.FilterParams{
			Action:             fa,
			Iterations:         op.Iterations,
			AutoIterationCount: op.AutoIterations,
		})
	case hide.OpHideShowBox, hide.OpHideShowLasso, hide.OpHideShowLine, hide.OpHideShowPolyline:
		action, err := op.action()
		if err != nil {
			return err
		}
		g, err := op.gesture(view)
		if err != nil {
			return err
		}
		e.ApplyGesture(obj, g, action)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

func (o OpSpec) gesture(view gesture.View) (*gesture.Data, error) {
	sel, err := o.selection()
	if err != nil {
		return nil, err
	}
	var g *gesture.Data
	switch o.Op {
	case hide.OpHideShowBox:
		if o.Box == nil {
			return nil, fmt.Errorf("op %s: missing box", o.Op)
		}
		g = gesture.NewBox(sel, d3.Box{
			Min: r3.Vec{X: o.Box.Min[0], Y: o.Box.Min[1], Z: o.Box.Min[2]},
			Max: r3.Vec{X: o.Box.Max[0], Y: o.Box.Max[1], Z: o.Box.Max[2]},
		})
	case hide.OpHideShowLine:
		if len(o.Points) != 2 {
			return nil, fmt.Errorf("op %s: need exactly 2 points", o.Op)
		}
		pts := o.points2()
		g = gesture.NewLine(sel, view, pts[0], pts[1], o.Flip)
	case hide.OpHideShowLasso:
		if len(o.Points) < 3 {
			return nil, fmt.Errorf("op %s: need at least 3 points", o.Op)
		}
		g = gesture.NewLasso(sel, view, o.points2())
	default: // polyline
		if len(o.Points) < 3 {
			return nil, fmt.Errorf("op %s: need at least 3 points", o.Op)
		}
		g = gesture.NewPolyline(sel, view, o.points2())
	}
	g.FrontFacesOnly = o.FrontFacesOnly
	return g, nil
}
