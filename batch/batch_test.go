package batch

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/CTCycle/ADSORFIT-model-fitting/config"
	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
)

func langmuirExperiment(id string, k, qsat float64, pressure []float64) *preprocess.Experiment {
	uptake := make([]float64, len(pressure))
	for i, p := range pressure {
		kP := k * p
		uptake[i] = qsat * kP / (1 + kP)
	}
	return &preprocess.Experiment{ID: id, Temperature: 298, Pressure: pressure, Uptake: uptake}
}

func langmuirConfig() []config.ModelConfig {
	return []config.ModelConfig{
		{Name: "Langmuir", Params: map[string]config.ParamBounds{
			"k":    {Initial: 1e-3, Min: 1e-6, Max: 10},
			"qsat": {Initial: 1, Min: 0, Max: 100},
		}},
	}
}

func Test_fitall_basic01(tst *testing.T) {
	chk.PrintTitle("fitall_basic01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2, 5, 10}),
		langmuirExperiment("B", 0.3, 1.5, []float64{0, 1, 2, 5, 10}),
	}}

	var progressCalls [][2]int
	tree, err := FitAll(grouped, langmuirConfig(), 1000, 1, func(done, total int) {
		progressCalls = append(progressCalls, [2]int{done, total})
	}, nil, nil, nil)
	if err != nil {
		tst.Errorf("FitAll failed: %v\n", err)
		return
	}
	if tree.Cancelled {
		tst.Errorf("did not expect cancellation\n")
	}
	if len(tree.Outcomes["Langmuir"]) != 2 {
		tst.Errorf("expected 2 outcomes, got %d\n", len(tree.Outcomes["Langmuir"]))
	}
	for i, o := range tree.Outcomes["Langmuir"] {
		if !o.Success {
			tst.Errorf("expected experiment %d to succeed, got: %s\n", i, o.Reason)
		}
	}
	if len(progressCalls) != 2 || progressCalls[0] != [2]int{1, 2} || progressCalls[1] != [2]int{2, 2} {
		tst.Errorf("unexpected progress sequence: %v\n", progressCalls)
	}
}

func Test_fitall_invalid_bounds01(tst *testing.T) {
	chk.PrintTitle("fitall_invalid_bounds01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2}),
	}}
	bad := []config.ModelConfig{
		{Name: "Langmuir", Params: map[string]config.ParamBounds{
			"k":    {Initial: 1, Min: 10, Max: 1}, // min > max
			"qsat": {Initial: 1, Min: 0, Max: 100},
		}},
	}
	_, err := FitAll(grouped, bad, 1000, 1, nil, nil, nil, nil)
	if err == nil {
		tst.Errorf("expected InvalidBounds error\n")
		return
	}
	if _, ok := err.(*InvalidBounds); !ok {
		tst.Errorf("expected *InvalidBounds, got %T\n", err)
	}
}

func Test_fitall_non_finite_bound01(tst *testing.T) {
	// §7: a non-finite configured bound must fail the whole run before
	// any fitting, the same as min > max.
	chk.PrintTitle("fitall_non_finite_bound01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2}),
	}}
	bad := []config.ModelConfig{
		{Name: "Langmuir", Params: map[string]config.ParamBounds{
			"k":    {Initial: 1, Min: 1e-6, Max: math.Inf(1)},
			"qsat": {Initial: 1, Min: 0, Max: 100},
		}},
	}
	_, err := FitAll(grouped, bad, 1000, 1, nil, nil, nil, nil)
	if err == nil {
		tst.Errorf("expected InvalidBounds error\n")
		return
	}
	if _, ok := err.(*InvalidBounds); !ok {
		tst.Errorf("expected *InvalidBounds, got %T\n", err)
	}
}

func Test_fitall_initial_out_of_range01(tst *testing.T) {
	// §3 config invariant: min <= initial <= max.
	chk.PrintTitle("fitall_initial_out_of_range01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2}),
	}}
	bad := []config.ModelConfig{
		{Name: "Langmuir", Params: map[string]config.ParamBounds{
			"k":    {Initial: 20, Min: 1e-6, Max: 10}, // initial > max
			"qsat": {Initial: 1, Min: 0, Max: 100},
		}},
	}
	_, err := FitAll(grouped, bad, 1000, 1, nil, nil, nil, nil)
	if err == nil {
		tst.Errorf("expected InvalidBounds error\n")
		return
	}
	if _, ok := err.(*InvalidBounds); !ok {
		tst.Errorf("expected *InvalidBounds, got %T\n", err)
	}
}

func Test_fitall_unknown_model01(tst *testing.T) {
	chk.PrintTitle("fitall_unknown_model01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2}),
	}}
	bad := []config.ModelConfig{{Name: "DoesNotExist"}}
	_, err := FitAll(grouped, bad, 1000, 1, nil, nil, nil, nil)
	if err == nil {
		tst.Errorf("expected UnknownModel error\n")
		return
	}
	if _, ok := err.(*UnknownModel); !ok {
		tst.Errorf("expected *UnknownModel, got %T\n", err)
	}
}

func Test_fitall_cancellation01(tst *testing.T) {
	chk.PrintTitle("fitall_cancellation01")

	experiments := make([]*preprocess.Experiment, 100)
	for i := range experiments {
		experiments[i] = langmuirExperiment("E", 0.5, 2.0, []float64{0, 1, 2, 5, 10})
	}
	grouped := &preprocess.GroupedTable{Experiments: experiments}

	var cancel CancelToken
	calls := 0
	tree, err := FitAll(grouped, langmuirConfig(), 1000, 1, func(done, total int) {
		calls++
		if calls == 3 {
			cancel.Cancel()
		}
	}, &cancel, nil, nil)
	if err != nil {
		tst.Errorf("FitAll failed: %v\n", err)
		return
	}
	if !tree.Cancelled {
		tst.Errorf("expected Cancelled=true\n")
	}
	if len(tree.Outcomes["Langmuir"]) != 3 {
		tst.Errorf("expected exactly 3 entries, got %d\n", len(tree.Outcomes["Langmuir"]))
	}
}

func Test_fitall_cancel_before_start01(tst *testing.T) {
	chk.PrintTitle("fitall_cancel_before_start01")

	grouped := &preprocess.GroupedTable{Experiments: []*preprocess.Experiment{
		langmuirExperiment("A", 0.5, 2.0, []float64{0, 1, 2}),
	}}
	var cancel CancelToken
	cancel.Cancel()

	tree, err := FitAll(grouped, langmuirConfig(), 1000, 1, nil, &cancel, nil, nil)
	if err != nil {
		tst.Errorf("FitAll failed: %v\n", err)
		return
	}
	if !tree.Cancelled {
		tst.Errorf("expected Cancelled=true\n")
	}
	if len(tree.Outcomes["Langmuir"]) != 0 {
		tst.Errorf("expected empty tree, got %d entries\n", len(tree.Outcomes["Langmuir"]))
	}
}

func Test_fitall_parallel_equivalence01(tst *testing.T) {
	chk.PrintTitle("fitall_parallel_equivalence01")

	experiments := make([]*preprocess.Experiment, 12)
	for i := range experiments {
		experiments[i] = langmuirExperiment("E", 0.2+0.05*float64(i), 1.0+0.1*float64(i), []float64{0, 1, 2, 5, 10, 20})
	}
	grouped := &preprocess.GroupedTable{Experiments: experiments}

	seq, err := FitAll(grouped, langmuirConfig(), 1000, 1, nil, nil, nil, nil)
	if err != nil {
		tst.Errorf("sequential FitAll failed: %v\n", err)
		return
	}
	par, err := FitAll(grouped, langmuirConfig(), 1000, 8, nil, nil, nil, nil)
	if err != nil {
		tst.Errorf("parallel FitAll failed: %v\n", err)
		return
	}

	for i := range experiments {
		a := seq.Outcomes["Langmuir"][i]
		b := par.Outcomes["Langmuir"][i]
		chk.Array(tst, "params", 0, a.Params, b.Params)
		chk.Float64(tst, "lss", 0, a.LSS, b.LSS)
	}
}
