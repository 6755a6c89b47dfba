package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt"
)

// loadSTLMesh reads an STL file and welds it into an indexed mesh.
func loadSTLMesh(path string) (*sculpt.Mesh, error) {
	fm, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	tris := make([]sculpt.Triangle, 0, len(fm.Triangles))
	for _, t := range fm.Triangles {
		tris = append(tris, sculpt.Triangle{
			vecFromFauxgl(t.V1.Position),
			vecFromFauxgl(t.V2.Position),
			vecFromFauxgl(t.V3.Position),
		})
	}
	m, err := sculpt.MeshFromTriangles(tris, 0)
	if err != nil {
		return nil, fmt.Errorf("weld %s: %w", path, err)
	}
	return m, nil
}

func vecFromFauxgl(v fauxgl.Vector) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// visibleTriangles returns the triangles of faces that are not hidden.
func visibleTriangles(m *sculpt.Mesh) []sculpt.Triangle {
	hidePoly := m.Attributes.BoolSpan(sculpt.AttrFace, sculpt.AttrHidePoly)
	triFaces := m.TriFaces()
	var tris []sculpt.Triangle
	for t := 0; t < m.NumTris(); t++ {
		if hidePoly != nil && hidePoly[triFaces[t]] {
			continue
		}
		tv := m.TriVerts(t)
		tris = append(tris, sculpt.Triangle{
			m.Positions[tv[0]], m.Positions[tv[1]], m.Positions[tv[2]],
		})
	}
	return tris
}

// stlHeader defines the binary STL file header.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

// writeSTL writes the triangles to path in binary STL format.
func writeSTL(path string, tris []sculpt.Triangle) error {
	if len(tris) == 0 {
		return errors.New("no visible triangles to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	header := stlHeader{Count: uint32(len(tris))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var rec struct {
		Normal  [3]float32
		V       [3][3]float32
		Padding uint16
	}
	for _, tri := range tris {
		n := triangleNormal(tri)
		rec.Normal = [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
		for i, v := range tri {
			rec.V[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func triangleNormal(t sculpt.Triangle) r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if r3.Norm2(n) == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Unit(n)
}
