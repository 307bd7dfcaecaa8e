// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package batch implements C4: the bulk fitter that iterates every
// (experiment, model) pair, reports progress, and supports cooperative
// cancellation. Sequential and worker-pool execution are the same
// contract behind a Workers knob, the way
// gonum.org/v1/gonum/optimize/cmaes dispatches its per-generation
// simulations across a sync.WaitGroup-bounded pool (see
// other_examples/.../optimize-cmaes.go.go).
package batch

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/CTCycle/ADSORFIT-model-fitting/config"
	"github.com/CTCycle/ADSORFIT-model-fitting/fit"
	"github.com/CTCycle/ADSORFIT-model-fitting/isotherm"
	"github.com/CTCycle/ADSORFIT-model-fitting/preprocess"
	"github.com/CTCycle/ADSORFIT-model-fitting/report"
)

// InvalidBounds is returned when a configured parameter bound is
// non-finite or min > max, surfaced before any fitting begins
// (spec.md §7).
type InvalidBounds struct {
	Model string
	Param string
}

func (e *InvalidBounds) Error() string {
	return "batch: invalid bounds for " + e.Model + "." + e.Param
}

// UnknownModel is returned when a configured model name is not
// registered in the isotherm package.
type UnknownModel struct {
	Name string
}

func (e *UnknownModel) Error() string {
	return "batch: unknown model: " + e.Name
}

// safe defaults applied to any parameter a ModelConfig does not mention
// (spec.md §4.4).
const (
	defaultInitial = 1.0
	defaultMin     = 0.0
	defaultMax     = 100.0
)

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// CancelToken is a cooperative cancellation flag polled between
// experiments and between per-model fits. The zero value is "not
// cancelled"; call Cancel to request a stop. Safe for concurrent use.
type CancelToken struct {
	flag int32
}

// Cancel requests cancellation. Idempotent.
func (c *CancelToken) Cancel() {
	if c != nil {
		atomic.StoreInt32(&c.flag, 1)
	}
}

// Cancelled reports whether Cancel has been called.
func (c *CancelToken) Cancelled() bool {
	return c != nil && atomic.LoadInt32(&c.flag) == 1
}

// ProgressFunc is invoked exactly once per completed experiment, with
// done increasing monotonically by 1 and total held constant
// (spec.md §4.4, invariant 5).
type ProgressFunc func(done, total int)

// ResultsTree is the bulk fitter's output: one aligned outcome sequence
// per enabled model name, in configuration order, each sequence aligned
// 1:1 with Experiments in the preprocessor's output order.
type ResultsTree struct {
	Models      []string
	Outcomes    map[string][]fit.Outcome
	Cancelled   bool
	Experiments int // number of experiments actually processed before stopping
}

// resolvedBounds is one model's per-parameter bounds, already assembled
// in the descriptor's parameter order.
type resolvedBounds struct {
	model  *isotherm.Descriptor
	bounds fit.Bounds
}

// resolveModelConfigs validates and assembles fit.Bounds for every
// configured model, in the descriptor's parameter order, applying the
// safe defaults for any parameter the configuration omits.
func resolveModelConfigs(models []config.ModelConfig) ([]resolvedBounds, error) {
	resolved := make([]resolvedBounds, 0, len(models))
	for _, mc := range models {
		desc, err := isotherm.Get(mc.Name)
		if err != nil {
			return nil, &UnknownModel{Name: mc.Name}
		}

		p := len(desc.Params)
		bounds := fit.Bounds{
			Initial: make([]float64, p),
			Min:     make([]float64, p),
			Max:     make([]float64, p),
		}
		for i, name := range desc.Params {
			pb, ok := mc.Params[name]
			if !ok {
				bounds.Initial[i] = defaultInitial
				bounds.Min[i] = defaultMin
				bounds.Max[i] = defaultMax
				continue
			}
			bounds.Initial[i] = pb.Initial
			bounds.Min[i] = pb.Min
			bounds.Max[i] = pb.Max
		}
		for i, name := range desc.Params {
			if !isFinite(bounds.Min[i]) || !isFinite(bounds.Max[i]) || !isFinite(bounds.Initial[i]) {
				return nil, &InvalidBounds{Model: mc.Name, Param: name}
			}
			if bounds.Min[i] > bounds.Max[i] {
				return nil, &InvalidBounds{Model: mc.Name, Param: name}
			}
			if bounds.Initial[i] < bounds.Min[i] || bounds.Initial[i] > bounds.Max[i] {
				return nil, &InvalidBounds{Model: mc.Name, Param: name}
			}
		}
		resolved = append(resolved, resolvedBounds{model: desc, bounds: bounds})
	}
	return resolved, nil
}

// FitAll runs C4 over every experiment in grouped, fitting every model
// named in models. maxIter bounds each individual fit. onProgress, if
// non-nil, is called once per completed experiment. cancel, if non-nil,
// is polled before dispatching each experiment and after each per-model
// fit; once set, the run stops and returns the partial tree with
// Cancelled=true. workers<=1 runs sequentially; workers>1 dispatches
// experiments to a fixed-size pool, gathering results in submission
// order so the tree's ordering never depends on worker count
// (spec.md §5, invariant 6).
func FitAll(
	grouped *preprocess.GroupedTable,
	models []config.ModelConfig,
	maxIter int,
	workers int,
	onProgress ProgressFunc,
	cancel *CancelToken,
	logger *report.Logger,
	metrics *report.Metrics,
) (*ResultsTree, error) {
	resolved, err := resolveModelConfigs(models)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(resolved))
	for i, rb := range resolved {
		names[i] = rb.model.Name
	}

	tree := &ResultsTree{
		Models:   names,
		Outcomes: make(map[string][]fit.Outcome, len(names)),
	}
	for _, name := range names {
		tree.Outcomes[name] = make([]fit.Outcome, len(grouped.Experiments))
	}

	total := len(grouped.Experiments)
	if metrics != nil {
		metrics.ExperimentsTotal.Set(float64(total))
	}

	if workers <= 1 {
		runSequential(grouped, resolved, maxIter, onProgress, cancel, logger, metrics, tree)
	} else {
		runPooled(grouped, resolved, maxIter, workers, onProgress, cancel, logger, metrics, tree)
	}

	if tree.Cancelled {
		// a cancelled run reports only the contiguous prefix of
		// experiments it actually finished (spec.md §8 scenario S4).
		for _, name := range names {
			tree.Outcomes[name] = tree.Outcomes[name][:tree.Experiments]
		}
	}
	return tree, nil
}

// fitExperiment runs every enabled model against one experiment,
// recording outcomes directly into tree at index idx. It polls cancel
// after each per-model fit and returns true if cancellation was
// observed (the experiment is still counted as done up to that point).
func fitExperiment(
	exp *preprocess.Experiment,
	idx int,
	resolved []resolvedBounds,
	maxIter int,
	cancel *CancelToken,
	logger *report.Logger,
	metrics *report.Metrics,
	tree *ResultsTree,
) bool {
	for _, rb := range resolved {
		outcome := fit.Fit(rb.model, exp.Pressure, exp.Uptake, rb.bounds, maxIter)
		tree.Outcomes[rb.model.Name][idx] = outcome

		if metrics != nil {
			metrics.FitsTotal.Inc()
			if !outcome.Success {
				metrics.FitsFailedTotal.Inc()
			}
		}
		if !outcome.Success && logger != nil {
			logger.FitFailure(exp.ID, rb.model.Name, outcome.Reason)
		}
		if cancel.Cancelled() {
			return true
		}
	}
	return false
}

// runSequential is the W=1 execution shape: a single worker iterates
// experiments in order, checking cancel before each dispatch.
func runSequential(
	grouped *preprocess.GroupedTable,
	resolved []resolvedBounds,
	maxIter int,
	onProgress ProgressFunc,
	cancel *CancelToken,
	logger *report.Logger,
	metrics *report.Metrics,
	tree *ResultsTree,
) {
	total := len(grouped.Experiments)
	done := 0
	for idx, exp := range grouped.Experiments {
		if cancel.Cancelled() {
			tree.Cancelled = true
			tree.Experiments = done
			return
		}
		stopped := fitExperiment(exp, idx, resolved, maxIter, cancel, logger, metrics, tree)
		done++
		tree.Experiments = done
		if metrics != nil {
			metrics.ExperimentsDone.Set(float64(done))
		}
		if onProgress != nil {
			onProgress(done, total)
		}
		if stopped {
			tree.Cancelled = true
			return
		}
	}
}

// runPooled is the W>1 execution shape: a fixed-size pool of workers
// pulls experiment indices from a shared channel. Results are written
// directly into tree at each experiment's own index, so submission
// order (not completion order) determines the tree's final layout --
// the dispatch loop still respects cancellation and progress ordering
// by gating on a single mutex-protected "next index to report" counter.
func runPooled(
	grouped *preprocess.GroupedTable,
	resolved []resolvedBounds,
	maxIter int,
	workers int,
	onProgress ProgressFunc,
	cancel *CancelToken,
	logger *report.Logger,
	metrics *report.Metrics,
	tree *ResultsTree,
) {
	total := len(grouped.Experiments)
	jobs := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	nextToReport := 0
	reportedDone := 0
	finished := make([]bool, total)
	anyStopped := false
	stopDispatch := make(chan struct{})
	var stopOnce sync.Once

	requestStop := func() {
		stopOnce.Do(func() { close(stopDispatch) })
	}

	markDone := func(idx int, stopped bool) {
		mu.Lock()
		defer mu.Unlock()
		finished[idx] = true
		if stopped {
			anyStopped = true
		}
		for nextToReport < total && finished[nextToReport] {
			reportedDone++
			if metrics != nil {
				metrics.ExperimentsDone.Set(float64(reportedDone))
			}
			if onProgress != nil {
				onProgress(reportedDone, total)
			}
			nextToReport++
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				stopped := fitExperiment(grouped.Experiments[idx], idx, resolved, maxIter, cancel, logger, metrics, tree)
				markDone(idx, stopped)
				if stopped {
					requestStop()
				}
			}
		}()
	}

dispatch:
	for idx := range grouped.Experiments {
		if cancel.Cancelled() {
			break dispatch
		}
		select {
		case <-stopDispatch:
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	tree.Experiments = reportedDone
	tree.Cancelled = anyStopped || reportedDone < total
	mu.Unlock()
}
