package isotherm

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_langmuir01(tst *testing.T) {
	chk.PrintTitle("langmuir01")

	d, err := Get("Langmuir")
	if err != nil {
		tst.Errorf("Get failed: %v\n", err)
		return
	}
	if len(d.Params) != 2 {
		tst.Errorf("expected 2 params, got %d\n", len(d.Params))
	}

	P := []float64{0, 1, 2, 5, 10}
	k, qsat := 0.5, 2.0
	q := d.Eval(P, []float64{k, qsat})
	for i, p := range P {
		want := qsat * (k * p) / (1 + k*p)
		chk.Float64(tst, "q", 1e-14, q[i], want)
	}
}

func Test_sips01(tst *testing.T) {
	chk.PrintTitle("sips01")

	d, err := Get("Sips")
	if err != nil {
		tst.Errorf("Get failed: %v\n", err)
		return
	}
	P := []float64{1, 2, 4}
	k, qsat, n := 0.3, 3.0, 2.0
	q := d.Eval(P, []float64{k, qsat, n})
	for i, p := range P {
		kP := k * math.Pow(p, n)
		want := qsat * kP / (1 + kP)
		chk.Float64(tst, "q", 1e-14, q[i], want)
	}
}

func Test_freundlich01(tst *testing.T) {
	chk.PrintTitle("freundlich01")

	d, err := Get("Freundlich")
	if err != nil {
		tst.Errorf("Get failed: %v\n", err)
		return
	}
	P := []float64{1, 2, 4}
	k, n := 1.5, 2.0
	q := d.Eval(P, []float64{k, n})
	for i, p := range P {
		want := math.Pow(k*p, 1/n)
		chk.Float64(tst, "q", 1e-14, q[i], want)
	}
}

func Test_temkin01(tst *testing.T) {
	chk.PrintTitle("temkin01")

	d, err := Get("Temkin")
	if err != nil {
		tst.Errorf("Get failed: %v\n", err)
		return
	}
	P := []float64{1, 2, 4}
	k, beta := 0.8, 1.2
	q := d.Eval(P, []float64{k, beta})
	for i, p := range P {
		want := beta * math.Log(k*p)
		chk.Float64(tst, "q", 1e-14, q[i], want)
	}
}

func Test_unknown01(tst *testing.T) {
	chk.PrintTitle("unknown01")

	_, err := Get("DoesNotExist")
	if err == nil {
		tst.Errorf("expected error for unknown model\n")
	}
}

func Test_names01(tst *testing.T) {
	chk.PrintTitle("names01")

	names := Names()
	want := map[string]bool{"Langmuir": true, "Sips": true, "Freundlich": true, "Temkin": true}
	if len(names) != len(want) {
		tst.Errorf("expected %d names, got %d\n", len(want), len(names))
	}
	for _, n := range names {
		if !want[n] {
			tst.Errorf("unexpected model name %q\n", n)
		}
	}
}
