// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package isotherm implements the library of theoretical adsorption
// isotherm models fitted by the bulk fitting core. Each model is a pure
// function f(P; θ) evaluated elementwise over a pressure array; there is
// no state and no dynamic attribute lookup, only a closed registry of
// named descriptors.
package isotherm

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Descriptor holds a model's parameter order and its pure evaluator.
// Params lists parameter names in the fixed order expected by Eval and
// by every caller indexing params/std_errors arrays.
type Descriptor struct {
	Name   string
	Params []string
	Eval   func(pressure []float64, params []float64) []float64
}

// allocators holds all available isotherm models; name => allocator.
var allocators = map[string]func() *Descriptor{}

// Get returns the descriptor registered under name. Lookup is
// case-sensitive on the canonical names below; callers normalize
// incoming names before calling Get if needed.
func Get(name string) (*Descriptor, error) {
	alloc, ok := allocators[name]
	if !ok {
		return nil, chk.Err("isotherm: model %q is not available in the registry", name)
	}
	return alloc(), nil
}

// Names returns the names of all registered models, in registration order.
func Names() []string {
	names := make([]string, 0, len(order))
	names = append(names, order...)
	return names
}

var order []string

func register(name string, alloc func() *Descriptor) {
	allocators[name] = alloc
	order = append(order, name)
}

func init() {
	register("Langmuir", newLangmuir)
	register("Sips", newSips)
	register("Freundlich", newFreundlich)
	register("Temkin", newTemkin)
}

// newLangmuir returns the Langmuir monolayer-adsorption model:
//
//	q = qsat * (k*P) / (1 + k*P)
//
// Params: k, qsat.
func newLangmuir() *Descriptor {
	return &Descriptor{
		Name:   "Langmuir",
		Params: []string{"k", "qsat"},
		Eval: func(pressure, params []float64) []float64 {
			k, qsat := params[0], params[1]
			q := make([]float64, len(pressure))
			for i, p := range pressure {
				kP := k * p
				q[i] = qsat * (kP / (1 + kP))
			}
			return q
		},
	}
}

// newSips returns the Sips hybrid Langmuir/Freundlich model:
//
//	q = qsat * (k*P^n) / (1 + k*P^n)
//
// Params: k, qsat, n.
func newSips() *Descriptor {
	return &Descriptor{
		Name:   "Sips",
		Params: []string{"k", "qsat", "n"},
		Eval: func(pressure, params []float64) []float64 {
			k, qsat, n := params[0], params[1], params[2]
			q := make([]float64, len(pressure))
			for i, p := range pressure {
				kP := k * math.Pow(p, n)
				q[i] = qsat * (kP / (1 + kP))
			}
			return q
		},
	}
}

// newFreundlich returns the Freundlich multilayer-adsorption model:
//
//	q = (k*P)^(1/n)
//
// Params: k, n.
//
// The source contained three incompatible Freundlich variants across
// copies: (k*P)^(1/N), k*P^(1/N), and one with ambiguous operator
// precedence. (k*P)^(1/n) is the form used in the most recent and most
// consistently repeated implementation (models.py's Freundlich_model)
// and is the one locked in here.
func newFreundlich() *Descriptor {
	return &Descriptor{
		Name:   "Freundlich",
		Params: []string{"k", "n"},
		Eval: func(pressure, params []float64) []float64 {
			k, n := params[0], params[1]
			q := make([]float64, len(pressure))
			for i, p := range pressure {
				q[i] = math.Pow(k*p, 1/n)
			}
			return q
		},
	}
}

// newTemkin returns the Temkin model:
//
//	q = β * ln(k*P)
//
// Params: k, β.
//
// Callers must ensure k*P > 0 for every pressure; zero or negative
// pressure yields a domain error surfaced by the solver as a Failed
// outcome (spec C1/C3), never a panic.
func newTemkin() *Descriptor {
	return &Descriptor{
		Name:   "Temkin",
		Params: []string{"k", "beta"},
		Eval: func(pressure, params []float64) []float64 {
			k, beta := params[0], params[1]
			q := make([]float64, len(pressure))
			for i, p := range pressure {
				q[i] = beta * math.Log(k*p)
			}
			return q
		},
	}
}
