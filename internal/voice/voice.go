// Package voice implements per-note signal chains and the bounded pool that
// allocates, mixes and retires them.
package voice

import (
	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
)

const (
	groupA = iota
	groupB
	groups
)

// unisonSize oscillators per group when unison is on.
const unisonSize = 3

var unisonPhases = [unisonSize]float64{0, 0.5, 0.2}

// Patch is the set of shared parameter groups every voice reads.
type Patch struct {
	OscA      *osc.Params
	OscB      *osc.Params
	Mix       *param.Parameter
	Unison    *param.Parameter
	Detune    *param.Parameter
	AmpEnv    *envelope.Params
	FilterEnv *envelope.Params
	Filter    *filter.Params
}

// Config is everything that determines how a voice starts. Replaying the
// same Config reproduces the same oscillator progression.
type Config struct {
	Note     int     `json:"note"`
	Velocity int     `json:"velocity"`
	Unison   bool    `json:"unison"`
	Detune   float64 `json:"detune"`
	Seed     uint64  `json:"seed"`
}

// Voice is one note. It lives in a Manager arena slot and is reused.
type Voice struct {
	patch  *Patch
	cfg    Config
	active bool
	osc    [groups][unisonSize]osc.Oscillator
	count  int
	amp    *envelope.Generator
	filter *filter.Filter
}

// NewVoice builds an idle voice. All per-voice memory is allocated here.
func NewVoice(p *Patch, sampleRate float64) *Voice {
	v := &Voice{}
	v.init(p, sampleRate)
	return v
}

func (v *Voice) init(p *Patch, sampleRate float64) {
	v.patch = p
	for k := range unisonSize {
		v.osc[groupA][k] = osc.New(p.OscA)
		v.osc[groupB][k] = osc.New(p.OscB)
	}
	v.amp = envelope.New(p.AmpEnv, sampleRate)
	v.amp.OnIdle(func() { v.active = false })
	v.filter = filter.New(p.Filter, p.FilterEnv, sampleRate)
	v.SetSampleRate(sampleRate)
}

// Start resets every component for cfg. Envelopes stay idle until Press.
func (v *Voice) Start(cfg Config) {
	v.cfg = cfg
	v.count = 1
	if cfg.Unison {
		v.count = unisonSize
	}
	detunes := [unisonSize]float64{0, cfg.Detune, -cfg.Detune}
	for g := range groups {
		for k := range v.count {
			seed := cfg.Seed*uint64(groups*unisonSize) + uint64(g*unisonSize+k)
			v.osc[g][k].Reset(cfg.Note, detunes[k], unisonPhases[k], seed)
		}
	}
	v.amp.Reset()
	v.filter.Reset()
	v.active = true
}

// Press starts the amplitude and filter envelopes at sample i of the block.
func (v *Voice) Press(i int) {
	v.amp.Press(i)
	v.filter.Envelope().Press(i)
}

func (v *Voice) Release(i int) {
	v.amp.Release(i)
	v.filter.Envelope().Release(i)
}

func (v *Voice) SetSampleRate(sampleRate float64) {
	for g := range groups {
		for k := range unisonSize {
			v.osc[g][k].SetSampleRate(sampleRate)
		}
	}
	v.amp.SetSampleRate(sampleRate)
	v.filter.SetSampleRate(sampleRate)
}

func (v *Voice) Active() bool   { return v.active }
func (v *Voice) Note() int      { return v.cfg.Note }
func (v *Voice) Config() Config { return v.cfg }

func (v *Voice) Releasing() bool {
	return v.amp.Stage() == envelope.Release
}

func (v *Voice) OscillatorCount() int {
	return v.count
}

// Detunes lists the static detune of each sounding oscillator in group
// (0 for A, 1 for B).
func (v *Voice) Detunes(group int) []float64 {
	out := make([]float64, v.count)
	for k := range v.count {
		out[k] = v.osc[group][k].Detune()
	}
	return out
}

// Phases lists the oscillator phases of group, for determinism checks.
func (v *Voice) Phases(group int) []float64 {
	out := make([]float64, v.count)
	for k := range v.count {
		out[k] = v.osc[group][k].Phase()
	}
	return out
}

// NextSample renders sample i of the current block.
func (v *Voice) NextSample(i int) float64 {
	if !v.active {
		return 0
	}
	var a, b float64
	for k := range v.count {
		a += v.osc[groupA][k].NextSample(i)
		b += v.osc[groupB][k].NextSample(i)
	}
	if v.count > 1 {
		a *= 0.5
		b *= 0.5
	}
	a *= v.patch.OscA.Volume.ProcessedValue(i)
	b *= v.patch.OscB.Volume.ProcessedValue(i)

	mix := v.patch.Mix.ProcessedValue(i)
	sum := (1-mix)*a + mix*b

	env := v.amp.NextMultiplier(i)
	if !v.active {
		// release finished on this sample
		env = 0
	}
	return v.filter.Process(sum*env, i)
}
