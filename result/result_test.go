package result

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/CTCycle/ADSORFIT-model-fitting/batch"
	"github.com/CTCycle/ADSORFIT-model-fitting/fit"
	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
)

func Test_adapt_and_select01(tst *testing.T) {
	chk.PrintTitle("adapt_and_select01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		{ID: "A", Temperature: 298},
		{ID: "B", Temperature: 310},
	}}

	tree := &batch.ResultsTree{
		Models: []string{"Langmuir", "Sips"},
		Outcomes: map[string][]fit.Outcome{
			"Langmuir": {
				{Success: true, Params: []float64{0.5, 2.0}, StdErrors: []float64{0.01, 0.02}, LSS: 0.001},
				{Success: true, Params: []float64{0.4, 1.8}, StdErrors: []float64{0.01, 0.02}, LSS: 0.2},
			},
			"Sips": {
				{Success: true, Params: []float64{0.5, 2.0, 1.0}, StdErrors: []float64{0.01, 0.02, 0.03}, LSS: 0.05},
				{Success: true, Params: []float64{0.4, 1.8, 2.0}, StdErrors: []float64{0.01, 0.02, 0.03}, LSS: 0.01},
			},
		},
	}

	w := SelectBest(Adapt(tree, grouped))
	if len(w.Rows) != 2 {
		tst.Errorf("expected 2 rows, got %d\n", len(w.Rows))
	}
	chk.String(tst, w.Rows[0].BestModel, "Langmuir")
	chk.String(tst, w.Rows[1].BestModel, "Sips")
	chk.Float64(tst, "row0 Langmuir k", 1e-14, w.Rows[0].Columns["Langmuir k"], 0.5)
	chk.Float64(tst, "row1 Sips n", 1e-14, w.Rows[1].Columns["Sips n"], 2.0)
}

func Test_select_best_ignores_nan01(tst *testing.T) {
	chk.PrintTitle("select_best_ignores_nan01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{{ID: "A", Temperature: 298}}}
	tree := &batch.ResultsTree{
		Models: []string{"Langmuir", "Temkin"},
		Outcomes: map[string][]fit.Outcome{
			"Langmuir": {{Success: true, Params: []float64{0.5, 2.0}, StdErrors: []float64{0.01, 0.02}, LSS: 0.01}},
			"Temkin":   {{Success: false, Params: []float64{math.NaN(), math.NaN()}, StdErrors: []float64{math.NaN(), math.NaN()}, LSS: math.NaN()}},
		},
	}
	w := SelectBest(Adapt(tree, grouped))
	chk.String(tst, w.Rows[0].BestModel, "Langmuir")
}

func Test_select_best_all_nan01(tst *testing.T) {
	chk.PrintTitle("select_best_all_nan01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{{ID: "A", Temperature: 298}}}
	tree := &batch.ResultsTree{
		Models: []string{"Temkin"},
		Outcomes: map[string][]fit.Outcome{
			"Temkin": {{Success: false, Params: []float64{math.NaN(), math.NaN()}, StdErrors: []float64{math.NaN(), math.NaN()}, LSS: math.NaN()}},
		},
	}
	w := SelectBest(Adapt(tree, grouped))
	if w.Rows[0].BestModel != "" {
		tst.Errorf("expected empty BestModel, got %q\n", w.Rows[0].BestModel)
	}
}

func Test_select_best_idempotent01(tst *testing.T) {
	chk.PrintTitle("select_best_idempotent01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{{ID: "A", Temperature: 298}}}
	tree := &batch.ResultsTree{
		Models: []string{"Langmuir", "Sips"},
		Outcomes: map[string][]fit.Outcome{
			"Langmuir": {{Success: true, Params: []float64{0.5, 2.0}, StdErrors: []float64{0.01, 0.02}, LSS: 0.2}},
			"Sips":     {{Success: true, Params: []float64{0.5, 2.0, 1.0}, StdErrors: []float64{0.01, 0.02, 0.03}, LSS: 0.05}},
		},
	}
	w := SelectBest(Adapt(tree, grouped))
	first := w.Rows[0].BestModel
	w2 := SelectBest(w)
	if w2.Rows[0].BestModel != first {
		tst.Errorf("expected idempotent BestModel, got %q then %q\n", first, w2.Rows[0].BestModel)
	}
}

func Test_per_model_subset01(tst *testing.T) {
	chk.PrintTitle("per_model_subset01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		{ID: "A", Temperature: 298},
		{ID: "B", Temperature: 310},
	}}
	tree := &batch.ResultsTree{
		Models: []string{"Langmuir", "Sips"},
		Outcomes: map[string][]fit.Outcome{
			"Langmuir": {
				{Success: true, Params: []float64{0.5, 2.0}, StdErrors: []float64{0.01, 0.02}, LSS: 0.01},
				{Success: true, Params: []float64{0.4, 1.8}, StdErrors: []float64{0.01, 0.02}, LSS: 0.2},
			},
			"Sips": {
				{Success: true, Params: []float64{0.5, 2.0, 1.0}, StdErrors: []float64{0.01, 0.02, 0.03}, LSS: 0.05},
				{Success: true, Params: []float64{0.4, 1.8, 2.0}, StdErrors: []float64{0.01, 0.02, 0.03}, LSS: 0.01},
			},
		},
	}
	w := SelectBest(Adapt(tree, grouped))
	subset := PerModelSubset(w, "Sips")
	if len(subset) != 1 || subset[0].ExperimentID != "B" {
		tst.Errorf("expected 1 row for experiment B, got %+v\n", subset)
	}
	if _, ok := subset[0].Columns["Langmuir k"]; ok {
		tst.Errorf("did not expect Langmuir columns in Sips subset\n")
	}
}
