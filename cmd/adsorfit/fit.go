// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cpmech/gosl/io"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/CTCycle/ADSORFIT-model-fitting/batch"
	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
	"github.com/CTCycle/ADSORFIT-model-fitting/report"
	"github.com/CTCycle/ADSORFIT-model-fitting/result"
	"github.com/CTCycle/ADSORFIT-model-fitting/table"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Args:  cobra.NoArgs,
	Short: "Fit enabled models against every experiment in an input CSV",
	RunE:  runFit,
}

func init() {
	fitCmd.Flags().String("input", "", "path to input CSV")
	fitCmd.Flags().String("output", "", "path to output wide-table CSV")
	fitCmd.Flags().String("best-fit-dir", "", "optional directory to write per-model best_fit_<model>.csv subsets")
	fitCmd.Flags().Int("workers", 0, "worker pool size (0 = use config, 1 = sequential)")
}

func runFit(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	bestFitDir, _ := cmd.Flags().GetString("best-fit-dir")
	workersFlag, _ := cmd.Flags().GetInt("workers")
	if inputPath == "" || outputPath == "" {
		return fmt.Errorf("--input and --output are required")
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	workers := cfg.Workers
	if workersFlag > 0 {
		workers = workersFlag
	}

	logLevel := report.LevelInfo
	if verbose {
		logLevel = report.LevelDebug
	}
	logger := report.NewLogger(report.Config{
		Level:  logLevel,
		Format: report.Format(cfg.LogFormat),
		Output: os.Stdout,
	})

	var metrics *report.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = report.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			_ = http.ListenAndServe(cfg.MetricsAddr, mux)
		}()
		logger.Info("metrics server listening", map[string]interface{}{"addr": cfg.MetricsAddr})
	}

	raw, err := readTable(inputPath)
	if err != nil {
		return err
	}

	grouped, resolved, summary, err := preprocess.Preprocess(raw, preprocess.Options{
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
	logger.Info("preprocessing complete", map[string]interface{}{
		"experiments":  summary.ExperimentCount,
		"rows_dropped": summary.RowsDropped,
		"experiment_col":  resolved.Experiment,
		"temperature_col": resolved.Temperature,
		"pressure_col":    resolved.Pressure,
		"uptake_col":      resolved.Uptake,
	})

	cancel := &batch.CancelToken{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancellation requested", nil)
		cancel.Cancel()
	}()
	defer signal.Stop(sigCh)

	onProgress := func(done, total int) {
		if verbose {
			logger.Debug("progress", map[string]interface{}{"done": done, "total": total})
		}
	}

	tree, err := batch.FitAll(grouped, cfg.Models, cfg.MaxIterations, workers, onProgress, cancel, logger, metrics)
	if err != nil {
		return fmt.Errorf("fitting configuration error: %w", err)
	}

	okCount, failCount := 0, 0
	for _, outcomes := range tree.Outcomes {
		for _, o := range outcomes {
			if o.Success {
				okCount++
			} else {
				failCount++
			}
		}
	}
	logger.RunSummary(tree.Experiments, okCount, failCount, tree.Cancelled)
	io.Pf("\nrun summary\n===========\n")
	io.Pf("  experiments = %30d\n", tree.Experiments)
	io.PfGreen("  fits ok     = %30d\n", okCount)
	if failCount > 0 {
		io.PfRed("  fits failed = %30d\n", failCount)
	} else {
		io.Pf("  fits failed = %30d\n", failCount)
	}

	wide := result.SelectBest(result.Adapt(tree, grouped))
	if err := writeWideTable(outputPath, wide); err != nil {
		return err
	}

	if bestFitDir != "" {
		if err := os.MkdirAll(bestFitDir, 0o755); err != nil {
			return fmt.Errorf("failed to create best-fit-dir: %w", err)
		}
		for _, model := range wide.Models {
			subset := result.PerModelSubset(wide, model)
			path := filepath.Join(bestFitDir, "best_fit_"+strings.ToLower(model)+".csv")
			if err := writeSubset(path, subset, model); err != nil {
				return err
			}
		}
	}

	if tree.Cancelled {
		return fmt.Errorf("run cancelled after %d experiments", tree.Experiments)
	}
	return nil
}

func readTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()
	return table.Read(f)
}
