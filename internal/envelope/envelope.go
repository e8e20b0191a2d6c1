// Package envelope implements the sample-clocked ADSR generator used for a
// voice's amplitude and for its filter cutoff.
package envelope

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/param"
)

// MinimumLevel stands in for zero wherever a level enters a logarithm.
const MinimumLevel = 1e-4

type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Attack:
		return "Attack"
	case Decay:
		return "Decay"
	case Sustain:
		return "Sustain"
	case Release:
		return "Release"
	}
	return "Unknown"
}

// Shape selects how a stage moves between its start and end level.
type Shape int

const (
	// Exponential applies a fixed per-sample multiplier, a straight line in dB.
	Exponential Shape = iota
	// Logarithmic interpolates amplitude against the elapsed fraction of the stage.
	Logarithmic
)

var shapeNames = []string{"Exp", "Log"}

type Params struct {
	Attack  *param.Parameter
	Decay   *param.Parameter
	Sustain *param.Parameter
	Release *param.Parameter
	Shape   *param.Parameter
}

func NewParams(prefix string) *Params {
	return &Params{
		Attack:  param.NewReal(prefix+"Atk", "Envelope Attack", 0.01, 4, 0.01),
		Decay:   param.NewReal(prefix+"Dec", "Envelope Decay", 0.01, 2, 0.5),
		Sustain: param.NewReal(prefix+"Stn", "Envelope Sustain", 0, 1, 0.1),
		Release: param.NewReal(prefix+"Rel", "Envelope Release", 0.01, 1, 1),
		Shape:   param.NewEnum(prefix+"Shp", "Envelope Shape", shapeNames, int(Exponential)),
	}
}

func (p *Params) All() []*param.Parameter {
	return []*param.Parameter{p.Attack, p.Decay, p.Sustain, p.Release, p.Shape}
}

// Generator produces one amplitude multiplier per sample. Stage lengths and
// the sustain level are re-read from Params every sample, so a knob moved
// mid-stage bends the remaining curve instead of restarting it.
type Generator struct {
	params     *Params
	sampleRate float64

	stage      Stage
	level      float64
	multiplier float64

	pos        int // samples elapsed in the stage
	total      int // stage length in samples
	startPos   int // pos at which startLevel was taken
	startLevel float64
	endLevel   float64
	duration   float64 // seconds the current total was derived from
	sustain    float64
	shape      Shape // curve the current segment was built for

	onIdle func()
}

func New(p *Params, sampleRate float64) *Generator {
	g := &Generator{params: p}
	g.SetSampleRate(sampleRate)
	return g
}

// OnIdle registers fn to run each time a release completes.
func (g *Generator) OnIdle(fn func()) {
	g.onIdle = fn
}

func (g *Generator) Stage() Stage    { return g.stage }
func (g *Generator) Level() float64  { return g.level }
func (g *Generator) Params() *Params { return g.params }

// Reset returns to Idle without notifying.
func (g *Generator) Reset() {
	g.stage = Idle
	g.level = 0
	g.multiplier = 1
	g.pos, g.total, g.startPos = 0, 0, 0
}

// Press enters Attack, reading the stage parameters at sample i of the
// current block. A retrigger starts from the current level.
func (g *Generator) Press(i int) {
	if g.stage == Attack {
		return
	}
	g.enter(Attack, i)
}

// Release enters Release from any sounding stage.
func (g *Generator) Release(i int) {
	if g.stage == Idle || g.stage == Release {
		return
	}
	g.enter(Release, i)
}

// SetSampleRate rescales the remaining length of the active stage.
func (g *Generator) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return
	}
	old := g.sampleRate
	g.sampleRate = sampleRate
	if old == 0 || !g.timed() {
		return
	}
	remaining := float64(g.total-g.pos) * sampleRate / old
	g.rebase(remaining)
}

// NextMultiplier returns the level for sample i and advances one sample.
func (g *Generator) NextMultiplier(i int) float64 {
	switch g.stage {
	case Idle:
		return 0
	case Sustain:
		g.level = g.sustainLevel(i)
		return g.level
	}

	g.poll(i)
	if g.pos >= g.total {
		switch g.stage {
		case Attack:
			g.level = 1
			g.enter(Decay, i)
		case Decay:
			g.sustain = g.sustainLevel(i)
			g.stage = Sustain
			g.level = g.sustain
			return g.level
		case Release:
			g.Reset()
			if g.onIdle != nil {
				g.onIdle()
			}
			return 0
		}
	}

	g.pos++
	if g.shape == Logarithmic {
		g.level = g.interpolate()
	} else {
		g.level *= g.multiplier
	}
	return g.level
}

func (g *Generator) enter(s Stage, i int) {
	if g.level < MinimumLevel {
		g.level = MinimumLevel
	}
	g.stage = s
	g.pos = 0
	g.startPos = 0
	g.startLevel = g.level
	g.sustain = g.sustainLevel(i)
	g.endLevel = g.target()
	g.duration = g.stageDuration(i)
	g.total = g.samples(g.duration)
	g.shape = g.shapeAt(i)
	g.multiplier = multiplier(g.startLevel, g.endLevel, g.total)
}

// poll picks up edits to the active stage's duration, the curve shape and
// the sustain level while decaying towards it.
func (g *Generator) poll(i int) {
	if s := g.shapeAt(i); s != g.shape {
		g.shape = s
		g.rebase(float64(g.total - g.pos))
	}
	if d := g.stageDuration(i); d != g.duration {
		remaining := (1 - g.progress()) * d * g.sampleRate
		g.duration = d
		g.rebase(remaining)
	}
	if g.stage == Decay {
		if s := g.sustainLevel(i); s != g.sustain {
			g.sustain = s
			g.rebase(float64(g.total - g.pos))
		}
	}
}

// rebase restarts the curve from the current level so that the stage ends
// after remaining more samples.
func (g *Generator) rebase(remaining float64) {
	n := int(remaining)
	if n < 1 {
		n = 1
	}
	g.total = g.pos + n
	g.startPos = g.pos
	g.startLevel = math.Max(g.level, MinimumLevel)
	g.endLevel = g.target()
	g.multiplier = multiplier(g.startLevel, g.endLevel, n)
}

func (g *Generator) progress() float64 {
	if g.total <= 0 {
		return 1
	}
	return float64(g.pos) / float64(g.total)
}

func (g *Generator) interpolate() float64 {
	span := g.total - g.startPos
	t := 1.0
	if span > 0 {
		t = float64(g.pos-g.startPos) / float64(span)
	}
	if t > 1 {
		t = 1
	}
	a, b := g.startLevel, g.endLevel
	if g.stage == Attack {
		return a + math.Log(1+t*(math.E-1))*math.Abs(b-a)
	}
	return b + (math.Exp(1-t)-1)/(math.E-1)*(a-b)
}

func (g *Generator) timed() bool {
	return g.stage == Attack || g.stage == Decay || g.stage == Release
}

func (g *Generator) target() float64 {
	switch g.stage {
	case Attack:
		return 1
	case Decay:
		return math.Max(g.sustain, MinimumLevel)
	}
	return MinimumLevel
}

func (g *Generator) stageDuration(i int) float64 {
	switch g.stage {
	case Attack:
		return g.params.Attack.ProcessedValue(i)
	case Decay:
		return g.params.Decay.ProcessedValue(i)
	case Release:
		return g.params.Release.ProcessedValue(i)
	}
	return 0
}

func (g *Generator) sustainLevel(i int) float64 {
	return g.params.Sustain.ProcessedValue(i)
}

func (g *Generator) shapeAt(i int) Shape {
	return Shape(g.params.Shape.Int(i))
}

func (g *Generator) samples(seconds float64) int {
	n := int(seconds * g.sampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

func multiplier(start, end float64, samples int) float64 {
	if samples < 1 {
		samples = 1
	}
	m := 1 + (math.Log(end)-math.Log(start))/float64(samples)
	if m < 0 {
		// a very short remainder towards a much lower target
		m = 0
	}
	return m
}
