package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beamcalc",
	Short: "Beam response calculator",
	Long: `beamcalc - single-span beam response calculator

Computes the maximum bending moment, deflection and stress of a
rectangular beam under a point load and a uniformly distributed load,
and classifies the safety factor against a target.

Supports: simply_supported, cantilever, continuous.
Materials: reinforced_concrete, steel, timber.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
