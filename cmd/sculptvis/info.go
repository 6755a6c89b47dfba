package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <model.stl>",
	Short: "Print mesh statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadSTLMesh(args[0])
		if err != nil {
			return err
		}
		bounds := m.Bounds()
		size := bounds.Size()
		fmt.Printf("vertices:  %d\n", m.NumVerts())
		fmt.Printf("edges:     %d\n", m.NumEdges())
		fmt.Printf("faces:     %d\n", m.NumFaces())
		fmt.Printf("triangles: %d\n", m.NumTris())
		fmt.Printf("bounds:    min (%g, %g, %g) max (%g, %g, %g)\n",
			bounds.Min.X, bounds.Min.Y, bounds.Min.Z,
			bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
		fmt.Printf("size:      (%g, %g, %g)\n", size.X, size.Y, size.Z)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
