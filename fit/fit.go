// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fit implements C3: a bounded nonlinear least-squares solver
// (Levenberg-Marquardt with box constraints) fitting one isotherm model
// to one experiment's (pressure, uptake) measurements. See
// original_source/.../solver/fitting.py (single_experiment_fit) for the
// bounds/initial/covariance/NaN-on-exception contract this replaces
// scipy's curve_fit with.
package fit

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/CTCycle/ADSORFIT-model-fitting/isotherm"
)

// Bounds carries, for one model, the per-parameter initial guess and box
// constraints, already assembled in the descriptor's parameter order
// (spec.md §4.4).
type Bounds struct {
	Initial []float64
	Min     []float64
	Max     []float64
}

// Outcome is a fit result for one (experiment, model) pair. On failure,
// Params and StdErrors are NaN-filled slices of the correct length and
// LSS is NaN; Reason explains why. Failures never propagate as errors --
// they are recorded here and the caller (batch.FitAll) continues.
type Outcome struct {
	Success    bool
	Params     []float64
	StdErrors  []float64
	Covariance [][]float64 // nil on failure
	LSS        float64
	Reason     string
}

// solver tuning constants. These are implementation constants, not
// user-configurable knobs -- spec.md exposes only max_iter.
const (
	initialLambda     = 1e-3
	lambdaUp          = 10.0
	lambdaDown        = 10.0
	lambdaCeiling     = 1e12
	stepTolerance     = 1e-12
	costTolerance     = 1e-14
	gradientTolerance = 1e-10
	jacobianStep      = 1e-6
	maxLambdaRetries  = 30
	conditionCeiling  = 1e14
)

// Fit runs a bounded Levenberg-Marquardt fit of desc against
// (pressure, uptake), starting at bounds.Initial and never leaving
// [bounds.Min, bounds.Max]. maxIter bounds the number of residual
// (function) evaluations at the initial guess and at trial points; the
// evaluations made by the finite-difference Jacobian are not counted.
// Determinism: identical inputs always reach the
// same Outcome -- no RNG, no global state is read.
func Fit(desc *isotherm.Descriptor, pressure, uptake []float64, bounds Bounds, maxIter int) Outcome {
	p := len(desc.Params)

	for i := 0; i < p; i++ {
		if !isFinite(bounds.Min[i]) || !isFinite(bounds.Max[i]) || bounds.Min[i] > bounds.Max[i] {
			return failed(p, "invalid bounds")
		}
	}

	x := clamp(cloneSlice(bounds.Initial), bounds.Min, bounds.Max)

	residualFn := func(y, params []float64) {
		q := desc.Eval(pressure, params)
		for i := range y {
			y[i] = uptake[i] - q[i]
		}
	}

	n := len(pressure)
	r := make([]float64, n)
	residualFn(r, x)
	if !allFinite(r) {
		return failed(p, "domain error at initial guess")
	}
	cost := sumSquares(r)

	evals := 1
	lambda := initialLambda
	converged := false

	jSettings := &fd.JacobianSettings{Formula: fd.Central, Step: jacobianStep}

	for evals < maxIter {
		J := mat.NewDense(n, p, nil)
		fd.Jacobian(J, residualFn, x, jSettings)
		if !matFinite(J) {
			return failed(p, "domain error computing Jacobian")
		}

		JtJ := new(mat.Dense)
		JtJ.Mul(J.T(), J)
		var Jtr mat.VecDense
		Jtr.MulVec(J.T(), mat.NewVecDense(n, r))

		if vecNorm(Jtr.RawVector().Data) < gradientTolerance {
			// first-order optimality already satisfied at x (e.g. the
			// model is locally constant in params, as Langmuir is at
			// pressure==0 everywhere): no step can improve the fit.
			converged = true
			break
		}

		// descent step: (JtJ + lambda*diag(JtJ)) delta = -Jt r.
		var negJtr mat.VecDense
		negJtr.ScaleVec(-1, &Jtr)

		accepted := false
		for retry := 0; retry < maxLambdaRetries && lambda < lambdaCeiling; retry++ {
			A := dampedNormalMatrix(JtJ, lambda)
			var delta mat.VecDense
			if err := delta.SolveVec(A, &negJtr); err != nil {
				lambda *= lambdaUp
				continue
			}

			candidate := clamp(addVec(x, delta.RawVector().Data), bounds.Min, bounds.Max)
			rc := make([]float64, n)
			residualFn(rc, candidate)
			evals++
			if !allFinite(rc) {
				lambda *= lambdaUp
				if evals >= maxIter {
					return failed(p, "domain error during iteration")
				}
				continue
			}

			candidateCost := sumSquares(rc)
			if candidateCost < cost {
				stepNorm := vecNorm(delta.RawVector().Data)
				costDrop := cost - candidateCost
				x = candidate
				r = rc
				cost = candidateCost
				lambda /= lambdaDown
				accepted = true
				if stepNorm < stepTolerance*(vecNorm(x)+stepTolerance) || costDrop < costTolerance*cost {
					converged = true
				}
				break
			}
			lambda *= lambdaUp
			if evals >= maxIter {
				break
			}
		}

		if converged {
			break
		}
		if !accepted {
			return failed(p, "solver diverged: no improving step found")
		}
		if evals >= maxIter {
			break
		}
	}

	if !converged {
		// mirrors scipy's curve_fit raising when maxfev is exceeded
		// without satisfying the optimality tolerances; the Python
		// reference catches this exception and records a Failed outcome.
		return failed(p, "exceeded max_iter without convergence")
	}

	// final Jacobian at the optimum, for the covariance estimate.
	J := mat.NewDense(n, p, nil)
	fd.Jacobian(J, residualFn, x, jSettings)
	if !matFinite(J) {
		return Outcome{
			Success:   true,
			Params:    x,
			StdErrors: nanSlice(p),
			LSS:       cost,
		}
	}

	JtJ := new(mat.Dense)
	JtJ.Mul(J.T(), J)

	dof := n - p
	if dof < 1 {
		dof = 1
	}
	sigma2 := cost / float64(dof)

	stdErrors, covariance := covarianceOf(JtJ, sigma2, p)

	return Outcome{
		Success:    true,
		Params:     x,
		StdErrors:  stdErrors,
		Covariance: covariance,
		LSS:        cost,
	}
}

// covarianceOf computes cov = (JtJ)^-1 * sigma2 and the per-parameter
// standard errors. If JtJ is singular or ill-conditioned, std errors are
// NaN but params/LSS from the caller are kept (spec.md §4.3).
func covarianceOf(JtJ *mat.Dense, sigma2 float64, p int) ([]float64, [][]float64) {
	if mat.Cond(JtJ, 2) > conditionCeiling {
		return nanSlice(p), nil
	}

	var inv mat.Dense
	if err := inv.Inverse(JtJ); err != nil {
		return nanSlice(p), nil
	}

	cov := make([][]float64, p)
	stdErrors := make([]float64, p)
	for i := 0; i < p; i++ {
		cov[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			cov[i][j] = inv.At(i, j) * sigma2
		}
		diag := cov[i][i]
		if diag < 0 || math.IsNaN(diag) {
			stdErrors[i] = math.NaN()
		} else {
			stdErrors[i] = math.Sqrt(diag)
		}
	}
	return stdErrors, cov
}

func dampedNormalMatrix(JtJ *mat.Dense, lambda float64) *mat.Dense {
	p, _ := JtJ.Dims()
	A := mat.NewDense(p, p, nil)
	A.CloneFrom(JtJ)
	for i := 0; i < p; i++ {
		A.Set(i, i, A.At(i, i)+lambda*JtJ.At(i, i))
	}
	return A
}

func failed(p int, reason string) Outcome {
	return Outcome{
		Success:   false,
		Params:    nanSlice(p),
		StdErrors: nanSlice(p),
		LSS:       math.NaN(),
		Reason:    reason,
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func cloneSlice(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

func clamp(x, min, max []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		v := x[i]
		if v < min[i] {
			v = min[i]
		}
		if v > max[i] {
			v = max[i]
		}
		out[i] = v
	}
	return out
}

func addVec(x []float64, delta []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + delta[i]
	}
	return out
}

func vecNorm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func sumSquares(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}

func matFinite(m *mat.Dense) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !isFinite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}
