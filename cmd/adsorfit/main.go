// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "adsorfit",
	Short:   "Batch adsorption-isotherm curve fitting",
	Long:    `ADSORFIT fits a library of theoretical adsorption isotherm models against many experimental datasets and reports, per experiment, the model that best explains the data.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "run configuration YAML file (default is ./adsorfit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(preprocessCmd)
}

// Commands are defined in separate files:
// - fitCmd in fit.go
// - preprocessCmd in preprocess.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
