package param

import (
	"errors"
	"math"
	"sync"
	"testing"
)

type constModulator struct{ out float64 }

func (m *constModulator) ModifyValue(current float64, sampleIndex int) float64 { return m.out }

func TestSetValueClampsAndRounds(t *testing.T) {
	r := NewReal("Cut", "Cutoff", 0, 0.99, 0.5)
	r.SetValue(3)
	if got := r.Value(); got != 0.99 {
		t.Fatalf("clamped value = %v, want 0.99", got)
	}
	r.SetValue(math.NaN())
	if got := r.Value(); got != 0.99 {
		t.Fatalf("NaN should be ignored, got %v", got)
	}

	i := NewInteger("Semi", "Semitone", -24, 24, 0)
	i.SetValue(3.6)
	if got := i.Value(); got != 4 {
		t.Fatalf("integer value = %v, want 4", got)
	}
}

func TestFrequencyNormalizationIsLogarithmic(t *testing.T) {
	f := NewFrequency("Frq", "Frequency", 1, 100, 10)
	if n := f.Normalize(10); math.Abs(n-0.5) > 1e-12 {
		t.Fatalf("Normalize(10) = %v, want 0.5", n)
	}
	if v := f.Denormalize(0.5); math.Abs(v-10) > 1e-9 {
		t.Fatalf("Denormalize(0.5) = %v, want 10", v)
	}
}

func TestProcessedValueAppliesModulator(t *testing.T) {
	p := NewReal("Semi", "Semitone", -24, 24, 0)
	if got := p.ProcessedValue(0); got != 0 {
		t.Fatalf("unmodulated processed value = %v, want 0", got)
	}
	m := &constModulator{out: 1}
	if err := p.Attach(m); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := p.ProcessedValue(7); got != 24 {
		t.Fatalf("modulated processed value = %v, want 24", got)
	}
	if p.Value() != 0 {
		t.Fatal("modulation must not change the raw value")
	}
}

func TestModulatorSlotOwnership(t *testing.T) {
	p := NewReal("Vol", "Volume", 0, 1, 1)
	a, b := &constModulator{}, &constModulator{}
	if err := p.Attach(a); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if err := p.Attach(a); err != nil {
		t.Fatalf("re-attach by owner should succeed: %v", err)
	}
	if err := p.Attach(b); !errors.Is(err, ErrModulatorBound) {
		t.Fatalf("second binder err = %v, want ErrModulatorBound", err)
	}
	if p.Detach(b) {
		t.Fatal("non-owner detach should fail")
	}
	if !p.Detach(a) {
		t.Fatal("owner detach should succeed")
	}
	if err := p.Attach(b); err != nil {
		t.Fatalf("attach after release: %v", err)
	}
}

func TestEnumAndBoolStrings(t *testing.T) {
	e := NewEnum("Osc", "Oscillator", []string{"Sine", "Triangle", "Square"}, 0)
	if err := e.SetString("square"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if e.Value() != 2 || e.FormatValue() != "Square" {
		t.Fatalf("enum = %v (%s), want 2 (Square)", e.Value(), e.FormatValue())
	}
	if err := e.SetString("saw"); err == nil {
		t.Fatal("expected error for unknown option")
	}

	b := NewBool("Pwr", "Power", true)
	if b.FormatValue() != "On" {
		t.Fatalf("bool format = %s, want On", b.FormatValue())
	}
	if err := b.SetString("off"); err != nil || b.Bool(0) {
		t.Fatalf("bool after off = %v err=%v", b.Bool(0), err)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	a := NewReal("A", "a", 0, 1, 0)
	b := NewReal("B", "b", 0, 1, 0)
	if err := r.Add(a, b); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(NewReal("A", "dup", 0, 1, 0)); !errors.Is(err, ErrDuplicateParameter) {
		t.Fatalf("duplicate err = %v", err)
	}
	if r.Parameter(1) != b || r.Find("A") != a || r.Index(b) != 1 {
		t.Fatal("registry lookups disagree")
	}
	if r.Parameter(-1) != nil || r.Parameter(2) != nil || r.Find("C") != nil {
		t.Fatal("out-of-range lookups should be nil")
	}
	if r.Index(NewReal("B", "other", 0, 1, 0)) != -1 {
		t.Fatal("foreign parameter with same name must not resolve")
	}
	if _, err := r.Lookup("C"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("Lookup err = %v", err)
	}
}

func TestConcurrentWritesNeverTear(t *testing.T) {
	p := NewReal("Vol", "Volume", 0, 1, 0)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			if i%2 == 0 {
				p.SetValue(0.25)
			} else {
				p.SetValue(0.75)
			}
		}
	}()
	for i := 0; i < 10000; i++ {
		v := p.Value()
		if v != 0 && v != 0.25 && v != 0.75 {
			t.Fatalf("torn read: %v", v)
		}
	}
	wg.Wait()
}
