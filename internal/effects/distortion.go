package effects

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/param"
)

type DistortionType int

const (
	DistortionOff DistortionType = iota
	DistortionSoft
	DistortionHard
	DistortionFold
)

var distortionNames = []string{"Off", "Soft", "Hard", "Fold"}

func (t DistortionType) String() string {
	if t < 0 || int(t) >= len(distortionNames) {
		return "Unknown"
	}
	return distortionNames[t]
}

type DistortionParams struct {
	Type  *param.Parameter
	Drive *param.Parameter
	Mix   *param.Parameter
}

func NewDistortionParams(prefix string) *DistortionParams {
	return &DistortionParams{
		Type:  param.NewEnum(prefix+"Type", "Distortion Type", distortionNames, int(DistortionOff)),
		Drive: param.NewReal(prefix+"Gain", "Distortion Drive", 1, 20, 1),
		Mix:   param.NewReal(prefix+"Mix", "Distortion Mix", 0, 1, 1),
	}
}

func (p *DistortionParams) All() []*param.Parameter {
	return []*param.Parameter{p.Type, p.Drive, p.Mix}
}

// Distortion is a stateless waveshaper with drive and dry/wet blend.
type Distortion struct {
	params *DistortionParams
}

func NewDistortion(p *DistortionParams) *Distortion {
	return &Distortion{params: p}
}

func (d *Distortion) Process(x float64, i int) float64 {
	kind := DistortionType(d.params.Type.Int(i))
	if kind == DistortionOff {
		return x
	}
	driven := x * d.params.Drive.ProcessedValue(i)
	var wet float64
	switch kind {
	case DistortionSoft:
		wet = math.Tanh(driven)
	case DistortionHard:
		wet = math.Max(-1, math.Min(1, driven))
	case DistortionFold:
		wet = math.Sin(driven * math.Pi / 2)
	default:
		return x
	}
	mix := d.params.Mix.ProcessedValue(i)
	return x*(1-mix) + wet*mix
}

func (d *Distortion) Reset() {}
