package effects

import (
	"math"
	"testing"
)

func TestEchoProducesOutput(t *testing.T) {
	e := NewEcho(44100, 100, 0.5, 0.5)
	// Feed a pulse and check delayed output appears
	e.Process(1.0, 0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		e.Process(0, i)
	}
	if out := e.Process(0, 0); math.Abs(out) < 0.01 {
		t.Errorf("expected delayed output, got %f", out)
	}
	e.Reset()
	for i := 0; i < 5000; i++ {
		if out := e.Process(0, i); out != 0 {
			t.Fatalf("reset echo still ringing: %f", out)
		}
	}
}

func TestDistortionOffIsPassthrough(t *testing.T) {
	d := NewDistortion(NewDistortionParams("D"))
	for _, x := range []float64{-2, -0.5, 0, 0.3, 5} {
		if got := d.Process(x, 0); got != x {
			t.Errorf("Process(%v) = %v with distortion off", x, got)
		}
	}
}

func TestDistortionBounded(t *testing.T) {
	p := NewDistortionParams("D")
	d := NewDistortion(p)
	p.Drive.SetValue(20)
	for _, kind := range []DistortionType{DistortionSoft, DistortionHard, DistortionFold} {
		t.Run(kind.String(), func(t *testing.T) {
			p.Type.SetValue(float64(kind))
			for x := -1.0; x <= 1.0; x += 0.01 {
				if y := d.Process(x, 0); math.Abs(y) > 1+1e-12 {
					t.Fatalf("Process(%v) = %v out of range", x, y)
				}
			}
			if y := d.Process(0.5, 0); math.Abs(y) < 0.01 {
				t.Error("expected non-zero distortion output")
			}
		})
	}
}

func TestDistortionMix(t *testing.T) {
	p := NewDistortionParams("D")
	d := NewDistortion(p)
	p.Type.SetValue(float64(DistortionHard))
	p.Drive.SetValue(10)
	p.Mix.SetValue(0)
	if got := d.Process(0.5, 0); got != 0.5 {
		t.Fatalf("dry mix = %v, want 0.5", got)
	}
	p.Mix.SetValue(0.5)
	if got := d.Process(0.5, 0); math.Abs(got-0.75) > 1e-12 {
		t.Fatalf("half mix = %v, want 0.75", got)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	p := NewDistortionParams("D")
	p.Type.SetValue(float64(DistortionHard))
	p.Drive.SetValue(4)
	c := NewChain(NewDistortion(p), NewEcho(44100, 1, 0, 0))
	if out := c.Process(0.5, 0); out != 1 {
		t.Errorf("chain output = %v, want clipped 1", out)
	}
}
