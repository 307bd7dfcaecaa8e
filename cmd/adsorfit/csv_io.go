// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/CTCycle/ADSORFIT-model-fitting/isotherm"
	"github.com/CTCycle/ADSORFIT-model-fitting/result"
	"github.com/CTCycle/ADSORFIT-model-fitting/table"
)

// perModelColumns returns the ordered "<model> <param>", "<model> <param>
// error", "<model> LSS" column names for one model, in descriptor
// parameter order.
func perModelColumns(model string) []string {
	desc, err := isotherm.Get(model)
	if err != nil {
		return nil
	}
	cols := make([]string, 0, 2*len(desc.Params)+1)
	for _, p := range desc.Params {
		cols = append(cols, model+" "+p, model+" "+p+" error")
	}
	cols = append(cols, model+" LSS")
	return cols
}

// formatCell renders a float for CSV output; NaN is the literal "NaN"
// (spec.md §6 file-format note: either empty or literal NaN is
// acceptable -- this module picks the literal consistently).
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeWideTable emits wide as UTF-8 comma-separated CSV: experiment,
// temperature, then every model's parameter/error/LSS columns in
// wide.Models order, then best_model/worst_model.
func writeWideTable(path string, wide *result.WideTable) error {
	header := []string{"experiment", "temperature"}
	for _, model := range wide.Models {
		header = append(header, perModelColumns(model)...)
	}
	header = append(header, "best_model", "worst_model")

	rows := make([][]string, len(wide.Rows))
	for i, row := range wide.Rows {
		rows[i] = rowToRecord(row, header)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer f.Close()
	return table.Write(f, &table.Table{Header: header, Rows: rows})
}

func rowToRecord(row result.Row, header []string) []string {
	record := make([]string, len(header))
	record[0] = row.ExperimentID
	record[1] = formatCell(row.Temperature)
	for i := 2; i < len(header)-2; i++ {
		col := header[i]
		if v, ok := row.Columns[col]; ok {
			record[i] = formatCell(v)
		} else {
			record[i] = formatCell(math.NaN())
		}
	}
	record[len(header)-2] = row.BestModel
	record[len(header)-1] = row.WorstModel
	return record
}

// writeSubset emits one model's PerModelSubset rows to path, with a
// header trimmed to the grouped fields plus that model's own columns,
// followed by best_model/worst_model.
func writeSubset(path string, rows []result.Row, model string) error {
	header := append([]string{"experiment", "temperature"}, perModelColumns(model)...)
	header = append(header, "best_model", "worst_model")

	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = rowToRecord(row, header)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer f.Close()
	return table.Write(f, &table.Table{Header: header, Rows: records})
}

// sortedModelNames returns the names of every registered isotherm model
// in alphabetical order, used by the preprocess subcommand's summary
// output.
func sortedModelNames() []string {
	names := isotherm.Names()
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
