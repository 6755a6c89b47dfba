package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-sculpt/sculpt"
	"github.com/go-sculpt/sculpt/hide"
	"github.com/go-sculpt/sculpt/undo"
)

var (
	flagScript  string
	flagOut     string
	flagPreview string
)

var applyCmd = &cobra.Command{
	Use:   "apply <model.stl>",
	Short: "Run a visibility script against a model",
	Long: `apply loads an STL model, runs the operations of a YAML script
against it and writes the visible triangles to a new STL file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := LoadScript(flagScript)
		if err != nil {
			return err
		}
		m, err := loadSTLMesh(args[0])
		if err != nil {
			return err
		}
		log.Info("loaded model",
			zap.String("path", args[0]),
			zap.Int("verts", m.NumVerts()),
			zap.Int("faces", m.NumFaces()))

		obj := sculpt.NewFacesObject(m, script.LeafLimit)
		history := &undo.Log{}
		engine := hide.NewEngine(history, log)
		if err := script.Run(engine, obj); err != nil {
			return err
		}
		log.Info("script done",
			zap.Int("ops", len(script.Ops)),
			zap.Int("undo_steps", len(history.Steps())))

		tris := visibleTriangles(m)
		if flagOut != "" {
			if err := writeSTL(flagOut, tris); err != nil {
				return fmt.Errorf("write %s: %w", flagOut, err)
			}
			log.Info("wrote model", zap.String("path", flagOut), zap.Int("triangles", len(tris)))
		}
		if flagPreview != "" {
			if err := renderPreview(m, flagPreview); err != nil {
				return fmt.Errorf("render %s: %w", flagPreview, err)
			}
			log.Info("wrote preview", zap.String("path", flagPreview))
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&flagScript, "script", "", "YAML script of visibility operations (required)")
	applyCmd.Flags().StringVar(&flagOut, "out", "", "write visible triangles to this STL file")
	applyCmd.Flags().StringVar(&flagPreview, "preview", "", "render the visible geometry to this PNG file")
	_ = applyCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(applyCmd)
}
