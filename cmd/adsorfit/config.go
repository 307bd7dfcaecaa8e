// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/CTCycle/ADSORFIT-model-fitting/config"
)

// loadRunConfig loads --config if given, defaulting to ./adsorfit.yaml if
// present, falling back to config.Default() when neither exists.
func loadRunConfig() (*config.RunConfig, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("adsorfit.yaml"); err == nil {
			path = "adsorfit.yaml"
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
