package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_default01(tst *testing.T) {
	chk.PrintTitle("default01")

	cfg := Default()
	if len(cfg.Models) != 4 {
		tst.Errorf("expected 4 default models, got %d\n", len(cfg.Models))
	}
	if cfg.MaxIterations != 1000 {
		tst.Errorf("expected MaxIterations=1000, got %d\n", cfg.MaxIterations)
	}
	if cfg.Workers != 1 {
		tst.Errorf("expected Workers=1, got %d\n", cfg.Workers)
	}
}

func Test_load01(tst *testing.T) {
	chk.PrintTitle("load01")

	yamlDoc := `
columns:
  detect: true
models:
  - name: Langmuir
    params:
      k:
        initial: 0.1
        min: 1e-6
        max: 10
      qsat:
        initial: 1
        min: 0
        max: 100
max_iterations: 500
workers: 4
`
	dir := tst.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		tst.Fatalf("WriteFile failed: %v\n", err)
	}

	cfg, err := Load(path)
	if err != nil {
		tst.Errorf("Load failed: %v\n", err)
		return
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Name != "Langmuir" {
		tst.Errorf("unexpected models: %+v\n", cfg.Models)
	}
	chk.Float64(tst, "k.initial", 1e-14, cfg.Models[0].Params["k"].Initial, 0.1)
	if cfg.MaxIterations != 500 {
		tst.Errorf("expected MaxIterations=500, got %d\n", cfg.MaxIterations)
	}
	if cfg.Workers != 4 {
		tst.Errorf("expected Workers=4, got %d\n", cfg.Workers)
	}
}

func Test_load_missing01(tst *testing.T) {
	chk.PrintTitle("load_missing01")

	_, err := Load(filepath.Join(tst.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		tst.Errorf("expected error for missing file\n")
	}
}
