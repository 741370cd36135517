package synth

import (
	"errors"
	"math"
	"testing"
)

func TestBestDividerDCF77(t *testing.T) {
	d, err := BestDivider(77500, BCM283xSources)
	if err != nil {
		t.Fatalf("BestDivider: %v", err)
	}
	if d.Source.Name != "HDMI" || d.DivI != 2787 || d.DivF != 99 {
		t.Fatalf("got %s divI=%d divF=%d, want HDMI 2787/99", d.Source.Name, d.DivI, d.DivF)
	}
	if math.Abs(d.Hz-77500.0026) > 1e-3 {
		t.Errorf("achieved %.6f Hz", d.Hz)
	}
}

func TestBestDividerIsOptimal(t *testing.T) {
	for _, freq := range []float64{40000, 60000, 77500, 100000, 1e6, 4.8e6} {
		best, err := BestDivider(freq, BCM283xSources)
		if err != nil {
			t.Fatalf("%v Hz: %v", freq, err)
		}
		if best.Error != math.Abs(best.Hz-freq) {
			t.Errorf("%v Hz: inconsistent error %v", freq, best.Error)
		}
		for _, src := range BCM283xSources {
			d, ok := divide(src, freq)
			if ok && d.Error < best.Error {
				t.Errorf("%v Hz: %s gives %v < chosen %s %v", freq, src.Name, d.Error, best.Source.Name, best.Error)
			}
		}
	}
}

func TestBestDividerSourceOrder(t *testing.T) {
	// Оба источника дают точный делитель; выигрывает более высокочастотный,
	// независимо от порядка в списке.
	sources := []Source{
		{Name: "slow", ID: 1, Hz: 1e6},
		{Name: "fast", ID: 2, Hz: 2e6},
	}
	d, err := BestDivider(1e5, sources)
	if err != nil {
		t.Fatal(err)
	}
	if d.Source.Name != "fast" || d.DivI != 20 || d.DivF != 0 || d.Error != 0 {
		t.Errorf("got %+v", d)
	}
	if sources[0].Name != "slow" {
		t.Error("input slice reordered")
	}
}

func TestBestDividerSkipsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"one hertz", 1},
		{"above sources", 2e9},
		{"zero", 0},
		{"negative", -77500},
		{"nan", math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BestDivider(tt.freq, BCM283xSources); !errors.Is(err, ErrNoDivider) {
				t.Errorf("got %v, want ErrNoDivider", err)
			}
		})
	}
	if _, err := BestDivider(77500, nil); !errors.Is(err, ErrNoDivider) {
		t.Errorf("empty sources: got %v", err)
	}
}

func TestDivideCarry(t *testing.T) {
	// 10.9999 → дробь округляется до 1024 и переносится в целую часть.
	d, ok := divide(Source{Name: "x", Hz: 10.9999}, 1)
	if !ok {
		t.Fatal("divide rejected valid ratio")
	}
	if d.DivI != 11 || d.DivF != 0 {
		t.Errorf("got %d/%d, want 11/0", d.DivI, d.DivF)
	}
}
