// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result implements C5: flattening the ragged fit results tree
// into a wide table, one row per experiment, and selecting each row's
// best/worst model by LSS. See
// original_source/ADSORFIT/src/packages/utils/repository/serializer.py
// and DatasetAdapter.save_to_database for the per-model subset export
// this generalizes.
package result

import (
	"math"

	"github.com/CTCycle/ADSORFIT-model-fitting/batch"
	"github.com/CTCycle/ADSORFIT-model-fitting/isotherm"
	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
)

// lssSuffix is appended to a model name to form its LSS column name.
const lssSuffix = " LSS"

// Row is one experiment's wide-table row: the grouped fields plus
// per-model parameter/error/LSS values keyed by column name, so the
// column set can grow with however many models were enabled.
type Row struct {
	ExperimentID string
	Temperature  float64
	Columns      map[string]float64 // "<Model> <param>", "<Model> <param> error", "<Model> LSS"
	BestModel    string              // "" when every model's LSS is NaN
	WorstModel   string
}

// WideTable is the final C5 artifact: one Row per experiment, in
// grouped-table order, plus the model names in configuration order
// (needed for deterministic column emission and tie-breaks).
type WideTable struct {
	Models []string
	Rows   []Row
}

// Adapt flattens tree against grouped into a WideTable. tree.Models is
// used as the fitted-model list and its order as the tie-break order for
// SelectBest; grouped and tree must describe the same experiments in the
// same order (batch.FitAll's contract).
func Adapt(tree *batch.ResultsTree, grouped *preprocess.GroupedTable) *WideTable {
	wt := &WideTable{Models: tree.Models}
	wt.Rows = make([]Row, len(grouped.Experiments))

	for i, exp := range grouped.Experiments {
		row := Row{
			ExperimentID: exp.ID,
			Temperature:  exp.Temperature,
			Columns:      make(map[string]float64),
		}
		for _, model := range tree.Models {
			outcomes := tree.Outcomes[model]
			if i >= len(outcomes) {
				continue // partial (cancelled) tree: row has no data for this model
			}
			outcome := outcomes[i]
			desc, err := isotherm.Get(model)
			if err != nil {
				continue
			}
			for j, param := range desc.Params {
				row.Columns[model+" "+param] = outcome.Params[j]
				row.Columns[model+" "+param+" error"] = outcome.StdErrors[j]
			}
			row.Columns[model+lssSuffix] = outcome.LSS
		}
		wt.Rows[i] = row
	}
	return wt
}

// SelectBest fills BestModel/WorstModel on every row of w, returning w
// itself (the operation is idempotent: calling it twice yields the same
// table, spec.md §8 invariant 7).
func SelectBest(w *WideTable) *WideTable {
	for i := range w.Rows {
		w.Rows[i].BestModel = pickExtremum(&w.Rows[i], w.Models, true)
		w.Rows[i].WorstModel = pickExtremum(&w.Rows[i], w.Models, false)
	}
	return w
}

// pickExtremum returns the model name with the smallest (wantMin) or
// largest (!wantMin) finite LSS in row, ignoring NaN, tie-broken by
// models' order (configuration order). Returns "" if every LSS is NaN.
func pickExtremum(row *Row, models []string, wantMin bool) string {
	best := ""
	bestLSS := math.NaN()
	for _, model := range models {
		lss, ok := row.Columns[model+lssSuffix]
		if !ok || math.IsNaN(lss) {
			continue
		}
		if best == "" {
			best = model
			bestLSS = lss
			continue
		}
		if (wantMin && lss < bestLSS) || (!wantMin && lss > bestLSS) {
			best = model
			bestLSS = lss
		}
	}
	return best
}

// PerModelSubset returns, for one model, the rows whose BestModel == model
// (SelectBest must have been called first), trimmed to the grouped
// fields plus that model's own columns -- the Go analogue of the
// original's per-model BEST_FIT_{model} export tables.
func PerModelSubset(w *WideTable, model string) []Row {
	subset := make([]Row, 0)
	for _, row := range w.Rows {
		if row.BestModel != model {
			continue
		}
		trimmed := Row{
			ExperimentID: row.ExperimentID,
			Temperature:  row.Temperature,
			Columns:      make(map[string]float64),
			BestModel:    row.BestModel,
			WorstModel:   row.WorstModel,
		}
		prefix := model + " "
		for k, v := range row.Columns {
			if hasPrefix(k, prefix) || k == model+lssSuffix {
				trimmed.Columns[k] = v
			}
		}
		subset = append(subset, trimmed)
	}
	return subset
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
