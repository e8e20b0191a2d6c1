package osc

import (
	"math"
	"testing"

	"github.com/cbegin/subsynth-go/internal/dsp"
)

func newTestOsc(w Waveform, note int) (*Oscillator, *Params) {
	p := NewParams("A")
	p.Type.SetValue(float64(w))
	o := New(p)
	o.SetSampleRate(44100)
	o.Reset(note, 0, 0, 1)
	return &o, p
}

func TestOutputStaysInRange(t *testing.T) {
	for _, w := range []Waveform{Sine, Triangle, Square, Saw, Noise} {
		t.Run(w.String(), func(t *testing.T) {
			for _, note := range []int{0, 21, 60, 96, 127} {
				o, _ := newTestOsc(w, note)
				for i := 0; i < 4096; i++ {
					v := o.NextSample(i % 512)
					if !dsp.Finite(v) || v < -1 || v > 1 {
						t.Fatalf("note %d sample %d = %v out of [-1,1]", note, i, v)
					}
				}
			}
		})
	}
}

func TestSineMatchesNoteFrequency(t *testing.T) {
	o, _ := newTestOsc(Sine, 69)
	// Count positive-going zero crossings over one second.
	crossings := 0
	prev := o.NextSample(0)
	for i := 1; i < 44100; i++ {
		v := o.NextSample(i % 512)
		if prev < 0 && v >= 0 {
			crossings++
		}
		prev = v
	}
	if crossings < 439 || crossings > 441 {
		t.Fatalf("crossings = %d, want ~440", crossings)
	}
}

func TestPitchEditLagsOneSample(t *testing.T) {
	o, p := newTestOsc(Sine, 60)
	o.NextSample(0)
	before := o.Increment()
	p.Semitone.SetValue(12)
	phase := o.Phase()
	if v := o.NextSample(1); v != math.Sin(phase) {
		t.Fatalf("output after edit = %v, want sin of pre-edit phase %v", v, math.Sin(phase))
	}
	if math.Abs(o.Increment()-2*before) > 1e-9 {
		t.Fatalf("increment = %v, want %v", o.Increment(), 2*before)
	}
}

func TestIncrementIsGuarded(t *testing.T) {
	p := NewParams("A")
	o := New(p)
	o.SetSampleRate(8000)
	o.Reset(127, 24, 0, 1)
	if inc := o.Increment(); inc >= math.Pi || inc <= 0 {
		t.Fatalf("increment = %v, want in (0, pi)", inc)
	}
	o.SetSampleRate(0)
	o.SetSampleRate(math.NaN())
	if inc := o.Increment(); !dsp.Finite(inc) {
		t.Fatalf("increment went non-finite: %v", inc)
	}
}

func TestSampleRateChangeKeepsPhase(t *testing.T) {
	o, _ := newTestOsc(Saw, 60)
	for i := 0; i < 100; i++ {
		o.NextSample(i)
	}
	phase, inc := o.Phase(), o.Increment()
	o.SetSampleRate(88200)
	if o.Phase() != phase {
		t.Fatalf("phase changed on sample-rate change: %v -> %v", phase, o.Phase())
	}
	if math.Abs(o.Increment()-inc/2) > 1e-12 {
		t.Fatalf("increment = %v, want %v", o.Increment(), inc/2)
	}
}

func TestResetReplaysIdenticalProgression(t *testing.T) {
	for _, w := range []Waveform{Sine, Triangle, Square, Saw, Noise} {
		o, _ := newTestOsc(w, 64)
		o.Reset(64, 0.15, 0.5, 42)
		first := make([]float64, 1000)
		for i := range first {
			first[i] = o.NextSample(i)
		}
		o.Reset(64, 0.15, 0.5, 42)
		for i := range first {
			if v := o.NextSample(i); v != first[i] {
				t.Fatalf("%s: sample %d = %v, want %v", w, i, v, first[i])
			}
		}
	}
}

func TestNoiseSeedsDiffer(t *testing.T) {
	a, _ := newTestOsc(Noise, 60)
	b, _ := newTestOsc(Noise, 60)
	a.Reset(60, 0, 0, 1)
	b.Reset(60, 0, 0, 2)
	same := 0
	for i := 0; i < 64; i++ {
		if a.NextSample(i) == b.NextSample(i) {
			same++
		}
	}
	if same == 64 {
		t.Fatal("different seeds produced identical noise")
	}
}

func BenchmarkSaw(b *testing.B) {
	o, _ := newTestOsc(Saw, 60)
	for i := 0; i < b.N; i++ {
		o.NextSample(i & 511)
	}
}
