// Package lfo provides low-frequency oscillators that modulate one
// registry parameter each, stepping their phase once per block.
package lfo

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
)

// ErrSelfTarget is returned when an LFO is asked to modulate one of its own
// controls.
var ErrSelfTarget = errors.New("lfo: cannot target own parameter")

// Unbound is the Target value meaning "modulate nothing".
const Unbound = -1

// Params is the control group of one LFO. Target holds a registry index and
// is displayed as the target parameter's name.
type Params struct {
	Type      *param.Parameter
	Frequency *param.Parameter
	KeySync   *param.Parameter
	Gain      *param.Parameter
	Target    *param.Parameter
}

func NewParams(prefix string, reg *param.Registry) *Params {
	p := &Params{
		Type:      param.NewEnum(prefix+"Osc", "LFO Type", osc.WaveformNames(), int(osc.Sine)),
		Frequency: param.NewFrequency(prefix+"Frq", "LFO Frequency", 0.01, 1000, 1),
		KeySync:   param.NewBool(prefix+"Mtch", "LFO Phase Key Link", false),
		Gain:      param.NewReal(prefix+"Gain", "LFO Gain", 0, 1, 0),
		Target:    param.NewInteger(prefix+"Num", "LFO Parameter Number", Unbound, 255, Unbound),
	}
	p.Target.WithFormat(
		func(v float64) string {
			if q := reg.Parameter(int(v)); q != nil {
				return q.Name()
			}
			return "--"
		},
		func(s string) (float64, error) {
			if s == "" || s == "--" {
				return Unbound, nil
			}
			if q := reg.Find(s); q != nil {
				return float64(reg.Index(q)), nil
			}
			if n, err := strconv.Atoi(s); err == nil {
				return float64(n), nil
			}
			return Unbound, fmt.Errorf("%w: %q", param.ErrUnknownParameter, s)
		},
	)
	return p
}

func (p *Params) All() []*param.Parameter {
	return []*param.Parameter{p.Type, p.Frequency, p.KeySync, p.Gain, p.Target}
}

// LFO is a free-running modulator. Its phase moves once per block; within a
// block ModifyValue extrapolates by the sample offset.
type LFO struct {
	params     *Params
	reg        *param.Registry
	sampleRate float64
	phase      float64 // [0, 1)

	wave osc.Waveform
	freq float64
	gain float64

	target *param.Parameter
	pcg    rand.PCG
}

func New(p *Params, reg *param.Registry, sampleRate float64, seed uint64) *LFO {
	l := &LFO{params: p, reg: reg, sampleRate: 44100}
	l.SetSampleRate(sampleRate)
	l.pcg.Seed(seed, seed^0xda942042e4dd58b5)
	l.Prepare()
	return l
}

func (l *LFO) Params() *Params { return l.params }

func (l *LFO) SetSampleRate(sampleRate float64) {
	if sampleRate > 0 && dsp.Finite(sampleRate) {
		l.sampleRate = sampleRate
	}
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}

func (l *LFO) Phase() float64 { return l.phase }

// NoteOn restarts the cycle when key sync is enabled.
func (l *LFO) NoteOn() {
	if l.params.KeySync.Bool(0) {
		l.phase = 0
	}
}

// Prepare latches waveform, rate and depth for the coming block and follows
// the Target control. A target owned by another modulator is retried on
// every call until it frees up.
func (l *LFO) Prepare() {
	l.wave = osc.Waveform(l.params.Type.Int(0))
	l.freq = l.params.Frequency.ProcessedValue(0)
	l.gain = l.params.Gain.ProcessedValue(0)

	want := int(l.params.Target.Value())
	if want != l.Target() {
		_ = l.Bind(want)
	}
}

// Advance moves the phase forward by frames samples.
func (l *LFO) Advance(frames int) {
	l.phase = dsp.Fmod(l.phase+float64(frames)/l.sampleRate*l.freq, 1)
}

// Target returns the bound registry index, or Unbound.
func (l *LFO) Target() int {
	if l.target == nil {
		return Unbound
	}
	return l.reg.Index(l.target)
}

// Bind releases the current target and claims the parameter at index. A
// negative index only unbinds.
func (l *LFO) Bind(index int) error {
	if index < 0 {
		l.Unbind()
		return nil
	}
	p := l.reg.Parameter(index)
	if p == nil {
		l.Unbind()
		return fmt.Errorf("%w: index %d", param.ErrUnknownParameter, index)
	}
	if p == l.target {
		return nil
	}
	for _, own := range l.params.All() {
		if own == p {
			l.Unbind()
			return fmt.Errorf("%w: %s", ErrSelfTarget, p.Name())
		}
	}
	l.Unbind()
	if err := p.Attach(l); err != nil {
		return err
	}
	l.target = p
	return nil
}

func (l *LFO) Unbind() {
	if l.target != nil {
		l.target.Detach(l)
		l.target = nil
	}
}

// ModifyValue implements param.Modulator.
func (l *LFO) ModifyValue(current float64, sampleIndex int) float64 {
	if dsp.IsZero(l.gain) {
		return current
	}
	t := dsp.Fmod(l.phase+float64(sampleIndex)/l.sampleRate*l.freq, 1)
	delta := l.gain * l.amplitude(t) * math.Min(current, 1-current)
	return dsp.Clamp01(current + delta)
}

// Value returns the bipolar waveform at sample offset i of the current block.
func (l *LFO) Value(sampleIndex int) float64 {
	return l.amplitude(dsp.Fmod(l.phase+float64(sampleIndex)/l.sampleRate*l.freq, 1))
}

func (l *LFO) amplitude(t float64) float64 {
	switch l.wave {
	case osc.Triangle:
		switch {
		case t < 0.25:
			return 4 * t
		case t < 0.75:
			return 2 - 4*t
		}
		return 4 * (t - 1)
	case osc.Square:
		if t < 0.5 {
			return 1
		}
		return -1
	case osc.Saw:
		return 2*t - 1
	case osc.Noise:
		return float64(l.pcg.Uint64()>>11)/(1<<53)*2 - 1
	}
	return math.Sin(dsp.TwoPi * t)
}
