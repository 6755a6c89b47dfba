// Package undo records which PBVH nodes each visibility operation changed so
// a host application can snapshot the minimal amount of state.
package undo

import (
	"sync"

	"github.com/go-sculpt/sculpt"
)

// Type says which layer a node snapshot must capture.
type Type int

const (
	// TypeHideVert captures per-vertex (or per-sample) hidden state.
	TypeHideVert Type = iota
	// TypeHideFace captures per-face hidden state.
	TypeHideFace
)

func (t Type) String() string {
	switch t {
	case TypeHideVert:
		return "hide_vert"
	case TypeHideFace:
		return "hide_face"
	}
	return "unknown"
}

// Recorder receives undo pushes from visibility operations. PushNode may be
// called concurrently between PushBegin and PushEnd; operations push each
// changed node at most once per step.
type Recorder interface {
	PushBegin(name string)
	PushNode(n *sculpt.Node, t Type)
	PushEnd()
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) PushBegin(string)            {}
func (Discard) PushNode(*sculpt.Node, Type) {}
func (Discard) PushEnd()                    {}

// Entry is one recorded node push.
type Entry struct {
	Node *sculpt.Node
	Type Type
}

// Step is one named operation with the nodes it touched.
type Step struct {
	Name    string
	Entries []Entry
}

// Log is a Recorder that keeps every step in memory. Useful for tests and
// as the backing for a host undo stack.
type Log struct {
	mu    sync.Mutex
	steps []Step
	open  bool
}

func (l *Log) PushBegin(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open {
		panic("undo: PushBegin with open step")
	}
	l.open = true
	l.steps = append(l.steps, Step{Name: name})
}

func (l *Log) PushNode(n *sculpt.Node, t Type) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		panic("undo: PushNode without open step")
	}
	step := &l.steps[len(l.steps)-1]
	step.Entries = append(step.Entries, Entry{Node: n, Type: t})
}

func (l *Log) PushEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		panic("undo: PushEnd without open step")
	}
	l.open = false
}

// Steps returns a copy of the recorded steps.
func (l *Log) Steps() []Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Last returns the most recent step, or a zero Step if none were recorded.
func (l *Log) Last() Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.steps) == 0 {
		return Step{}
	}
	return l.steps[len(l.steps)-1]
}
