// Package filter implements the per-voice resonant one-pole cascade with its
// own cutoff envelope.
package filter

import (
	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/param"
)

type Mode int

const (
	None Mode = iota
	LowPass
	HiPass
	BandPass
)

var modeNames = []string{"None", "LowPass", "HiPass", "BandPass"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "Unknown"
	}
	return modeNames[m]
}

const (
	minCutoff = 0.01
	maxCutoff = 0.99
)

type Params struct {
	Mode      *param.Parameter
	Cutoff    *param.Parameter
	Resonance *param.Parameter
	EnvAmount *param.Parameter
}

func NewParams(prefix string) *Params {
	return &Params{
		Mode:      param.NewEnum(prefix+"Pass", "Filter Type", modeNames, int(None)),
		Cutoff:    param.NewReal(prefix+"Cutoff", "Filter Cutoff", 0, maxCutoff, 0.5),
		Resonance: param.NewReal(prefix+"Res", "Filter Resonance", 0, 1, 0),
		EnvAmount: param.NewReal(prefix+"Amnt", "Envelope Amount", 0.01, 0.99, 0.01),
	}
}

func (p *Params) All() []*param.Parameter {
	return []*param.Parameter{p.Mode, p.Cutoff, p.Resonance, p.EnvAmount}
}

// Filter is a four-stage ladder of one-pole lowpasses with feedback from the
// first stage. The cutoff is normalized to (0, 1).
type Filter struct {
	params *Params
	env    *envelope.Generator
	buf    [4]float64
}

// New returns a filter whose cutoff envelope reads envParams.
func New(p *Params, envParams *envelope.Params, sampleRate float64) *Filter {
	return &Filter{
		params: p,
		env:    envelope.New(envParams, sampleRate),
	}
}

func (f *Filter) Envelope() *envelope.Generator { return f.env }

// State returns the four stage outputs, first stage first.
func (f *Filter) State() [4]float64 { return f.buf }

// Reset clears the ladder and silences the envelope.
func (f *Filter) Reset() {
	f.buf = [4]float64{}
	f.env.Reset()
}

func (f *Filter) SetSampleRate(sampleRate float64) {
	f.env.SetSampleRate(sampleRate)
}

// Process filters one sample. Bypass and silent input leave all state,
// including the envelope, untouched.
func (f *Filter) Process(x float64, i int) float64 {
	mode := Mode(f.params.Mode.Int(i))
	if mode == None || x == 0 {
		return x
	}

	cutoff := dsp.Clamp(f.params.Cutoff.ProcessedValue(i), minCutoff, maxCutoff)
	cutoff += f.env.NextMultiplier(i) * f.params.EnvAmount.ProcessedValue(i)
	cutoff = dsp.Clamp(cutoff, minCutoff, maxCutoff)

	res := f.params.Resonance.ProcessedValue(i)
	fb := res + res/(1-cutoff)

	b := &f.buf
	b[0] += cutoff * (x - b[0] + fb*(b[0]-b[1]))
	b[1] += cutoff * (b[0] - b[1])
	b[2] += cutoff * (b[1] - b[2])
	b[3] += cutoff * (b[2] - b[3])
	for k := range b {
		b[k] = dsp.FlushDenormal(b[k])
	}

	switch mode {
	case LowPass:
		return b[3]
	case HiPass:
		return x - b[3]
	case BandPass:
		return b[0] - b[3]
	}
	return x
}
