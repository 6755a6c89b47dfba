package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deadsy/sdfx/obj"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/gesture"
	"github.com/go-sculpt/sculpt/hide"
	"github.com/go-sculpt/sculpt/undo"
)

var flagDemoDir string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate a bolt model and run a sample visibility pipeline",
	Long: `demo meshes a hex bolt, hides its upper half with a line gesture,
grows the hidden region and writes before/after previews plus the trimmed
model into the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(flagDemoDir, 0o755); err != nil {
			return err
		}
		boltPath := filepath.Join(flagDemoDir, "bolt.stl")
		if err := generateBolt(boltPath); err != nil {
			return fmt.Errorf("generate bolt: %w", err)
		}
		m, err := loadSTLMesh(boltPath)
		if err != nil {
			return err
		}
		log.Info("meshed bolt",
			zap.Int("verts", m.NumVerts()),
			zap.Int("tris", m.NumTris()))
		if err := renderPreview(m, filepath.Join(flagDemoDir, "before.png")); err != nil {
			return err
		}

		target := sculpt.NewFacesObject(m, 0)
		engine := hide.NewEngine(&undo.Log{}, log)

		// Side-on view so the line gesture splits the bolt along its axis.
		view := gesture.View{
			Origin:  r3.Vec{X: 100},
			Forward: r3.Vec{X: -1},
			Up:      r3.Vec{Z: 1},
		}
		mid := m.Bounds().Center().Z
		line := gesture.NewLine(gesture.SelectionInside, view,
			r2.Vec{X: -100, Y: mid}, r2.Vec{X: 100, Y: mid}, false)
		engine.ApplyGesture(target, line, hide.ActionHide)
		engine.VisibilityFilter(target, hide.FilterParams{
			Action:     hide.FilterGrow,
			Iterations: 2,
		})

		outPath := filepath.Join(flagDemoDir, "trimmed.stl")
		if err := writeSTL(outPath, visibleTriangles(m)); err != nil {
			return err
		}
		if err := renderPreview(m, filepath.Join(flagDemoDir, "after.png")); err != nil {
			return err
		}
		log.Info("demo complete", zap.String("dir", flagDemoDir))
		return nil
	},
}

// generateBolt meshes a hex bolt and writes it to path.
func generateBolt(path string) error {
	bolt, err := obj.Bolt(&obj.BoltParms{
		Thread:      "npt_1/2",
		Style:       "hex",
		Tolerance:   0.1,
		TotalLength: 20,
		ShankLength: 10,
	})
	if err != nil {
		return err
	}
	// sdfx logs to stdout while meshing.
	stdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	sdfxrender.ToSTL(bolt, 120, path, &sdfxrender.MarchingCubesOctree{})
	os.Stdout = stdout
	return nil
}

func init() {
	demoCmd.Flags().StringVar(&flagDemoDir, "dir", "demo-out", "output directory")
	rootCmd.AddCommand(demoCmd)
}
