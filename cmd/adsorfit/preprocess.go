// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Args:  cobra.NoArgs,
	Short: "Inspect column resolution and grouping without fitting",
	RunE:  runPreprocess,
}

func init() {
	preprocessCmd.Flags().String("input", "", "path to input CSV")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" {
		return fmt.Errorf("--input is required")
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	raw, err := readTable(inputPath)
	if err != nil {
		return err
	}

	_, resolved, summary, err := preprocess.Preprocess(raw, preprocess.Options{
		DetectColumns:   cfg.Columns.Detect,
		ExperimentCol:   cfg.Columns.Experiment,
		TemperatureCol:  cfg.Columns.Temperature,
		PressureCol:     cfg.Columns.Pressure,
		UptakeCol:       cfg.Columns.Uptake,
		DetectionCutoff: cfg.Columns.DetectionCutoff,
	})
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "resolved columns: experiment=%s temperature=%s pressure=%s uptake=%s\n",
		resolved.Experiment, resolved.Temperature, resolved.Pressure, resolved.Uptake)
	fmt.Fprintf(os.Stdout, "experiments=%d rows_dropped=%d avg_measurements=%.2f\n",
		summary.ExperimentCount, summary.RowsDropped, summary.AverageMeasurements)
	fmt.Fprintf(os.Stdout, "available models: %s\n", strings.Join(sortedModelNames(), ", "))
	return nil
}
