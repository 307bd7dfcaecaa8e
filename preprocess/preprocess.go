// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preprocess implements C2: ingestion of a heterogeneous tabular
// record set into per-experiment numeric arrays, with optional column
// auto-detection. See original_source/ADSORFIT/app/utils/data/processing.py
// for the Python reference this was ported from (identify_target_columns,
// drop_negative_values, aggregate_by_experiment, calculate_min_max).
package preprocess

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/CTCycle/ADSORFIT-model-fitting/table"
)

// logical column stems searched for during auto-detection.
const (
	stemExperiment  = "experiment"
	stemTemperature = "temperature"
	stemPressure    = "pressure"
	stemUptake      = "uptake"
)

// aliases lists the short tokens real-world headers abbreviate each
// logical column to (e.g. "T_K", "P_pa", "n_mol_per_g"), checked against
// a header cell's underscore/whitespace-separated tokens when the plain
// substring match fails.
var aliases = map[string][]string{
	stemExperiment:  {"experiment", "exp", "sample", "id", "run", "trial"},
	stemTemperature: {"temperature", "temp", "t"},
	stemPressure:    {"pressure", "press", "p"},
	stemUptake:      {"uptake", "loading", "adsorbed", "capacity", "q", "n"},
}

// defaultDetectionCutoff is the minimum similarity score (0..1) a header
// cell must reach via closest-match fallback to resolve a logical column.
const defaultDetectionCutoff = 0.6

// Options configures preprocessing.
type Options struct {
	DetectColumns    bool
	ExperimentCol    string
	TemperatureCol   string
	PressureCol      string
	UptakeCol        string
	DetectionCutoff  float64 // defaults to 0.6 when <= 0
}

// ResolvedColumns records which header cell each logical column resolved
// to, for downstream provenance (spec.md §4.2).
type ResolvedColumns struct {
	Experiment  string
	Temperature string
	Pressure    string
	Uptake      string
}

// Experiment is one grouped experiment: a scalar temperature and parallel
// ordered pressure/uptake sequences, plus derived stats.
type Experiment struct {
	ID          string
	Temperature float64
	Pressure    []float64
	Uptake      []float64

	MinPressure      float64
	MaxPressure      float64
	MinUptake        float64
	MaxUptake        float64
	MeasurementCount int
}

// GroupedTable is the preprocessor's output: one Experiment per distinct
// identifier, in first-seen order.
type GroupedTable struct {
	Experiments []*Experiment
}

// Summary carries run statistics for logs/UI.
type Summary struct {
	Resolved           ResolvedColumns
	RowsDropped        int
	ExperimentCount    int
	AverageMeasurements float64
}

// MissingColumn is returned when a required logical column cannot be
// resolved in the input header.
type MissingColumn struct {
	Logical string
}

func (e *MissingColumn) Error() string {
	return "preprocess: missing required column: " + e.Logical
}

// EmptyDataset is returned when zero experiments remain after filtering.
type EmptyDataset struct{}

func (e *EmptyDataset) Error() string {
	return "preprocess: zero experiments after filtering"
}

// Preprocess runs C2 steps 1-5 over a raw table and returns the grouped
// experiment table, the resolved column mapping, and a run summary.
func Preprocess(raw *table.Table, opts Options) (*GroupedTable, ResolvedColumns, Summary, error) {
	cutoff := opts.DetectionCutoff
	if cutoff <= 0 {
		cutoff = defaultDetectionCutoff
	}

	resolved, err := resolveColumns(raw.Header, opts, cutoff)
	if err != nil {
		return nil, ResolvedColumns{}, Summary{}, err
	}

	idxExp := table.ColumnIndex(raw.Header, resolved.Experiment)
	idxTemp := table.ColumnIndex(raw.Header, resolved.Temperature)
	idxPres := table.ColumnIndex(raw.Header, resolved.Pressure)
	idxUpt := table.ColumnIndex(raw.Header, resolved.Uptake)

	type groupKey = string
	order := make([]groupKey, 0)
	groups := make(map[groupKey]*Experiment)
	dropped := 0

	for _, row := range raw.Rows {
		expID := strings.TrimSpace(row[idxExp])
		tempStr := strings.TrimSpace(row[idxTemp])
		presStr := strings.TrimSpace(row[idxPres])
		uptStr := strings.TrimSpace(row[idxUpt])

		if expID == "" || tempStr == "" || presStr == "" || uptStr == "" {
			dropped++
			continue
		}

		temp, errT := strconv.ParseFloat(tempStr, 64)
		pres, errP := strconv.ParseFloat(presStr, 64)
		upt, errU := strconv.ParseFloat(uptStr, 64)
		if errT != nil || errP != nil || errU != nil {
			dropped++
			continue
		}

		if temp <= 0 || pres < 0 || upt < 0 {
			dropped++
			continue
		}

		exp, ok := groups[expID]
		if !ok {
			exp = &Experiment{ID: expID, Temperature: temp}
			groups[expID] = exp
			order = append(order, expID)
		}
		exp.Pressure = append(exp.Pressure, pres)
		exp.Uptake = append(exp.Uptake, upt)
	}

	experiments := make([]*Experiment, 0, len(order))
	for _, id := range order {
		exp := groups[id]
		deriveStats(exp)
		experiments = append(experiments, exp)
	}

	if len(experiments) == 0 {
		return nil, resolved, Summary{}, &EmptyDataset{}
	}

	totalMeasurements := 0
	for _, exp := range experiments {
		totalMeasurements += exp.MeasurementCount
	}

	summary := Summary{
		Resolved:            resolved,
		RowsDropped:         dropped,
		ExperimentCount:     len(experiments),
		AverageMeasurements: float64(totalMeasurements) / float64(len(experiments)),
	}

	return &GroupedTable{Experiments: experiments}, resolved, summary, nil
}

// deriveStats computes min/max pressure/uptake and measurement count for
// one group (spec.md §4.2 step 4).
func deriveStats(exp *Experiment) {
	exp.MeasurementCount = len(exp.Pressure)
	if exp.MeasurementCount == 0 {
		return
	}
	exp.MinPressure, exp.MaxPressure = exp.Pressure[0], exp.Pressure[0]
	exp.MinUptake, exp.MaxUptake = exp.Uptake[0], exp.Uptake[0]
	for i := 1; i < exp.MeasurementCount; i++ {
		if exp.Pressure[i] < exp.MinPressure {
			exp.MinPressure = exp.Pressure[i]
		}
		if exp.Pressure[i] > exp.MaxPressure {
			exp.MaxPressure = exp.Pressure[i]
		}
		if exp.Uptake[i] < exp.MinUptake {
			exp.MinUptake = exp.Uptake[i]
		}
		if exp.Uptake[i] > exp.MaxUptake {
			exp.MaxUptake = exp.Uptake[i]
		}
	}
}

// resolveColumns implements spec.md §4.2 step 1: configured names take
// priority; when DetectColumns is set, each logical column not given
// explicitly is located by case-insensitive substring match against its
// default stem, then by an abbreviation-token match (e.g. "T_K",
// "exp_id"), falling back to the closest Levenshtein match above cutoff.
// Ties are broken by column order (first match wins).
func resolveColumns(header []string, opts Options, cutoff float64) (ResolvedColumns, error) {
	resolved := ResolvedColumns{
		Experiment:  opts.ExperimentCol,
		Temperature: opts.TemperatureCol,
		Pressure:    opts.PressureCol,
		Uptake:      opts.UptakeCol,
	}

	if opts.DetectColumns {
		var err error
		if resolved.Experiment == "" {
			resolved.Experiment, err = detectColumn(header, stemExperiment, cutoff)
			if err != nil {
				return resolved, err
			}
		}
		if resolved.Temperature == "" {
			resolved.Temperature, err = detectColumn(header, stemTemperature, cutoff)
			if err != nil {
				return resolved, err
			}
		}
		if resolved.Pressure == "" {
			resolved.Pressure, err = detectColumn(header, stemPressure, cutoff)
			if err != nil {
				return resolved, err
			}
		}
		if resolved.Uptake == "" {
			resolved.Uptake, err = detectColumn(header, stemUptake, cutoff)
			if err != nil {
				return resolved, err
			}
		}
	}

	checks := []struct {
		logical string
		name    string
	}{
		{stemExperiment, resolved.Experiment},
		{stemTemperature, resolved.Temperature},
		{stemPressure, resolved.Pressure},
		{stemUptake, resolved.Uptake},
	}
	for _, c := range checks {
		if c.name == "" || table.ColumnIndex(header, c.name) < 0 {
			return resolved, &MissingColumn{Logical: c.logical}
		}
	}
	return resolved, nil
}

// detectColumn finds the header cell matching stem: first a
// case-insensitive substring match (first column wins on ties), then an
// abbreviation-token match against aliases (handles headers like "T_K"
// or "exp_id" that share no substring with the full stem name), then a
// closest-string-match fallback above cutoff.
func detectColumn(header []string, stem string, cutoff float64) (string, error) {
	lowerStem := strings.ToLower(stem)
	for _, h := range header {
		if strings.Contains(strings.ToLower(h), lowerStem) {
			return h, nil
		}
	}

	if h, ok := detectByAlias(header, stem); ok {
		return h, nil
	}

	best := ""
	bestScore := -1.0
	for _, h := range header {
		score := similarity(lowerStem, strings.ToLower(h))
		if score > bestScore {
			bestScore = score
			best = h
		}
	}
	if bestScore >= cutoff {
		return best, nil
	}
	return "", &MissingColumn{Logical: stem}
}

// detectByAlias checks each header cell's tokens (split on any run of
// non-alphanumeric characters) against the known abbreviations for stem,
// first column wins on ties.
func detectByAlias(header []string, stem string) (string, bool) {
	known := aliases[stem]
	if len(known) == 0 {
		return "", false
	}
	for _, h := range header {
		for _, tok := range tokenize(h) {
			for _, alias := range known {
				if tok == alias {
					return h, true
				}
			}
		}
	}
	return "", false
}

// tokenize splits a header cell into lowercase alphanumeric runs, so
// "T_K" -> ["t","k"] and "n_mol_per_g" -> ["n","mol","per","g"].
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return tokens
}

// similarity returns a 0..1 score derived from Levenshtein edit distance,
// matching the "closest match above a cutoff" semantics of Python's
// difflib.get_close_matches used by the original preprocessor.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}
