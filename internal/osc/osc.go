// Package osc implements the PolyBLEP band-limited oscillator used by every
// voice, and the waveform set shared with the LFOs.
package osc

import (
	"math"
	"math/rand/v2"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/param"
)

type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Saw
	Noise
)

var waveformNames = []string{"Sine", "Triangle", "Square", "Saw", "Noise"}

// WaveformNames returns the option list used by waveform enum parameters.
func WaveformNames() []string {
	return append([]string(nil), waveformNames...)
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "Unknown"
	}
	return waveformNames[w]
}

// Params is the parameter group shared by all oscillators of one slot.
type Params struct {
	Volume   *param.Parameter
	Type     *param.Parameter
	Fine     *param.Parameter
	Semitone *param.Parameter
}

func NewParams(prefix string) *Params {
	return &Params{
		Volume:   param.NewReal(prefix+"Vol", "Osc Volume", 0, 1, 1),
		Type:     param.NewEnum(prefix+"Osc", "Oscillator Type", waveformNames, int(Sine)),
		Fine:     param.NewReal(prefix+"Fine", "Fine Tune", -1, 1, 0),
		Semitone: param.NewInteger(prefix+"Semi", "Semitone", -24, 24, 0),
	}
}

// All returns the group in registry order.
func (p *Params) All() []*param.Parameter {
	return []*param.Parameter{p.Volume, p.Type, p.Fine, p.Semitone}
}

// maxIncrement keeps dt below one half so the two PolyBLEP windows of the
// square never overlap.
const maxIncrement = math.Pi * 0.99

// Oscillator is a value type so voices can embed a fixed set of them
// without allocating per note.
type Oscillator struct {
	params      *Params
	note        float64
	detune      float64
	phase       float64
	increment   float64
	radPerFrame float64
	integrator  float64
	pcg         rand.PCG
}

// New returns an oscillator reading the given group at 44.1 kHz.
func New(p *Params) Oscillator {
	o := Oscillator{params: p}
	o.SetSampleRate(44100)
	return o
}

// SetSampleRate recomputes the derived increment; phase is kept.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || !dsp.Finite(sampleRate) {
		return
	}
	o.radPerFrame = dsp.TwoPi / sampleRate
	o.updateIncrement(0)
}

// Reset prepares the oscillator for a new note. phaseOffset is in radians.
func (o *Oscillator) Reset(note int, detune, phaseOffset float64, seed uint64) {
	o.note = float64(note)
	o.detune = detune
	o.phase = dsp.Fmod(phaseOffset, dsp.TwoPi)
	o.integrator = 0
	o.pcg.Seed(seed, seed^0x9e3779b97f4a7c15)
	o.updateIncrement(0)
}

func (o *Oscillator) Phase() float64     { return o.phase }
func (o *Oscillator) Increment() float64 { return o.increment }
func (o *Oscillator) Detune() float64    { return o.detune }

// NextSample returns the current sample and advances one frame. The
// frequency used for the advance is sampled after the output, so pitch edits
// reach the waveform one frame late.
func (o *Oscillator) NextSample(i int) float64 {
	wave := Waveform(o.params.Type.Int(i))
	t := o.phase / dsp.TwoPi

	var v float64
	switch wave {
	case Sine:
		v = math.Sin(o.phase)
	case Saw:
		v = 2*t - 1
		v -= o.polyBLEP(t)
	case Noise:
		v = o.noise()
	default:
		if o.phase < math.Pi {
			v = 1
		} else {
			v = -1
		}
		v += o.polyBLEP(t)
		v -= o.polyBLEP(dsp.Fmod(t+0.5, 1))
		if wave == Triangle {
			a := math.Min(o.increment, 1)
			v = a*v + (1-a)*o.integrator
			o.integrator = dsp.FlushDenormal(v)
		}
	}

	o.updateIncrement(i)
	o.phase += o.increment
	for o.phase >= dsp.TwoPi {
		o.phase -= dsp.TwoPi
	}
	return v
}

// noise draws from the oscillator's own generator so a copied or reset
// oscillator replays the same sequence.
func (o *Oscillator) noise() float64 {
	return float64(o.pcg.Uint64()>>11)/(1<<53)*2 - 1
}

// polyBLEP is the two-sided quadratic step residual around t = 0.
func (o *Oscillator) polyBLEP(t float64) float64 {
	dt := o.increment / dsp.TwoPi
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (o *Oscillator) updateIncrement(i int) {
	note := o.note + o.detune
	if o.params != nil {
		note += o.params.Semitone.ProcessedValue(i) + o.params.Fine.ProcessedValue(i)
	}
	inc := dsp.NoteFrequency(note) * o.radPerFrame
	switch {
	case !dsp.Finite(inc) || inc < 0:
		inc = 0
	case inc > maxIncrement:
		inc = maxIncrement
	}
	o.increment = inc
}
