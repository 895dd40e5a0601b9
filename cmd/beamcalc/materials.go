package main

import (
	"fmt"
	"text/tabwriter"

	"Girder/internal/calc/beam"

	"github.com/spf13/cobra"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "List the materials and their properties",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MATERIAL\tE (GPa)\tALLOWABLE (MPa)\tDENSITY (kg/m³)")
		for _, m := range beam.Materials() {
			p, _ := m.Properties()
			fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\n", m, p.ElasticModulusPa/1e9, p.AllowableStressPa/1e6, p.DensityKgM3)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(materialsCmd)
}
