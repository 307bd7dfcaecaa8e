// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report wires structured logging and optional run metrics for
// the bulk fitter's shell. See
// _examples/jhkimqd-chaos-utils/pkg/reporting/logger.go for the Logger
// shape this wrapper generalizes.
package report

import (
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Level is a logging severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log sink's rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger provides the structured logging surface the bulk fitter uses to
// record FitFailure events at WARN and a run summary at INFO
// (spec.md §7).
type Logger struct {
	logger zerolog.Logger
}

// NewLogger builds a Logger per cfg, defaulting to stdout/info/text.
func NewLogger(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var output io.Writer = cfg.Output
	if cfg.Format == FormatText || cfg.Format == "" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(output).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		zlog = zlog.Level(zerolog.DebugLevel)
	case LevelWarn:
		zlog = zlog.Level(zerolog.WarnLevel)
	case LevelError:
		zlog = zlog.Level(zerolog.ErrorLevel)
	default:
		zlog = zlog.Level(zerolog.InfoLevel)
	}
	return &Logger{logger: zlog}
}

// FitFailure logs one per-fit failure at WARN with the fields spec.md §7
// requires: experiment, model, reason.
func (l *Logger) FitFailure(experiment, model, reason string) {
	l.logger.Warn().
		Str("experiment", experiment).
		Str("model", model).
		Str("reason", reason).
		Msg("fit failed")
}

// RunSummary logs the end-of-run INFO line.
func (l *Logger) RunSummary(experiments, fitsOK, fitsFailed int, cancelled bool) {
	l.logger.Info().
		Int("experiments", experiments).
		Int("fits_ok", fitsOK).
		Int("fits_failed", fitsFailed).
		Bool("cancelled", cancelled).
		Msg("run complete")
}

// Info logs a free-form informational message with key/value fields.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	event := l.logger.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Debug logs a free-form debug message with key/value fields.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	event := l.logger.Debug()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Metrics holds the optional run-progress counters/gauges exposed by the
// CLI shell's "fit" command (SPEC_FULL.md §3).
type Metrics struct {
	FitsTotal        prometheus.Counter
	FitsFailedTotal  prometheus.Counter
	ExperimentsDone  prometheus.Gauge
	ExperimentsTotal prometheus.Gauge
}

// NewMetrics registers the ADSORFIT run-progress collectors against reg.
// Pass prometheus.NewRegistry() for an isolated registry (tests, or a
// process hosting more than one run), or prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "adsorfit_fits_total",
			Help: "Total number of (experiment, model) fits attempted.",
		}),
		FitsFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "adsorfit_fits_failed_total",
			Help: "Total number of (experiment, model) fits that returned Failed.",
		}),
		ExperimentsDone: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adsorfit_experiments_done",
			Help: "Number of experiments fully processed in the current run.",
		}),
		ExperimentsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adsorfit_experiments_total",
			Help: "Total number of experiments in the current run.",
		}),
	}
}
