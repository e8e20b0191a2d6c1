// Package engine is the block-level entry point of the synthesizer. It owns
// the parameter registry, the voice pool, the master effects and the LFOs,
// and renders stereo blocks on the audio thread while accepting note events
// from any other goroutine.
package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cbegin/subsynth-go/internal/dsp"
	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/lfo"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
	"github.com/cbegin/subsynth-go/internal/voice"
)

var ErrQueueFull = errors.New("engine: event queue full")

const (
	DefaultSampleRate = 44100
	DefaultQueueSize  = 256
	DefaultBlockSize  = 512
)

type Option func(*Processor)

func WithMaxVoices(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxVoices = n
		}
	}
}

func WithStealPolicy(policy voice.StealPolicy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithQueueSize bounds the number of events accepted between two blocks.
func WithQueueSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithInsert appends an effect after the distortion stage.
func WithInsert(e effects.Effector) Option {
	return func(p *Processor) {
		p.inserts = append(p.inserts, e)
	}
}

// WithBlockSize sets the largest block Render hands to Process. LFOs step
// once per block.
func WithBlockSize(frames int) Option {
	return func(p *Processor) {
		if frames > 0 {
			p.blockSize = frames
		}
	}
}

// WithSeed seeds every noise source, making renders reproducible.
func WithSeed(seed uint64) Option {
	return func(p *Processor) {
		p.seed = seed
	}
}

// Processor renders blocks. Process and Render belong to one audio
// goroutine; NoteOn, NoteOff, Enqueue and parameter writes may come from
// anywhere.
type Processor struct {
	Power  *param.Parameter
	Mix    *param.Parameter
	Volume *param.Parameter
	Unison *param.Parameter
	Detune *param.Parameter

	OscA       *osc.Params
	OscB       *osc.Params
	AmpEnv     *envelope.Params
	FilterEnv  *envelope.Params
	Filter     *filter.Params
	Distortion *effects.DistortionParams
	LFOA       *lfo.LFO
	LFOB       *lfo.LFO

	registry   *param.Registry
	voices     *voice.Manager
	distortion *effects.Distortion
	chain      *effects.Chain
	inserts    []effects.Effector

	sampleRate float64
	maxVoices  int
	policy     voice.StealPolicy
	queueSize  int
	blockSize  int
	seed       uint64

	events  chan Event
	pending []Event
	mono    []float64
	gain    []float64
	left    []float32
	right   []float32

	activeVoices atomic.Int32
	rendered     atomic.Uint64
}

// New builds a processor at sampleRate with the full parameter set:
// CPwr CMix MVol UPwr UDet, then groups A B EM EF F D LA LB.
func New(sampleRate float64, opts ...Option) (*Processor, error) {
	if sampleRate <= 0 || !dsp.Finite(sampleRate) {
		return nil, fmt.Errorf("engine: invalid sample rate %v", sampleRate)
	}
	p := &Processor{
		sampleRate: sampleRate,
		maxVoices:  voice.DefaultMaxVoices,
		queueSize:  DefaultQueueSize,
		blockSize:  DefaultBlockSize,
		seed:       1,
	}
	for _, opt := range opts {
		opt(p)
	}

	reg := param.NewRegistry()
	p.registry = reg
	p.Power = param.NewBool("CPwr", "Power", true)
	p.Mix = param.NewReal("CMix", "Oscillators Mix", 0, 1, 0.5)
	p.Volume = param.NewReal("MVol", "Master Volume", 0, 1, 1)
	p.Unison = param.NewBool("UPwr", "Unison", false)
	p.Detune = param.NewReal("UDet", "Unison Detune", 0, 1, 0.15)
	p.OscA = osc.NewParams("A")
	p.OscB = osc.NewParams("B")
	p.AmpEnv = envelope.NewParams("EM")
	p.FilterEnv = envelope.NewParams("EF")
	p.Filter = filter.NewParams("F")
	p.Distortion = effects.NewDistortionParams("D")
	lfoA := lfo.NewParams("LA", reg)
	lfoB := lfo.NewParams("LB", reg)

	groups := [][]*param.Parameter{
		{p.Power, p.Mix, p.Volume, p.Unison, p.Detune},
		p.OscA.All(),
		p.OscB.All(),
		p.AmpEnv.All(),
		p.FilterEnv.All(),
		p.Filter.All(),
		p.Distortion.All(),
		lfoA.All(),
		lfoB.All(),
	}
	for _, g := range groups {
		if err := reg.Add(g...); err != nil {
			return nil, err
		}
	}

	p.voices = voice.NewManager(&voice.Patch{
		OscA:      p.OscA,
		OscB:      p.OscB,
		Mix:       p.Mix,
		Unison:    p.Unison,
		Detune:    p.Detune,
		AmpEnv:    p.AmpEnv,
		FilterEnv: p.FilterEnv,
		Filter:    p.Filter,
	}, p.maxVoices, p.policy, sampleRate, p.seed)
	p.distortion = effects.NewDistortion(p.Distortion)
	p.chain = effects.NewChain(p.inserts...)
	p.LFOA = lfo.New(lfoA, reg, sampleRate, p.seed^0xa5a5)
	p.LFOB = lfo.New(lfoB, reg, sampleRate, p.seed^0x5a5a)

	p.events = make(chan Event, p.queueSize)
	p.pending = make([]Event, 0, p.queueSize)
	p.grow(p.blockSize)
	return p, nil
}

func (p *Processor) Registry() *param.Registry { return p.registry }

// SampleRate is the rate the audio thread is currently rendering at.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

func (p *Processor) MaxVoices() int { return p.voices.Cap() }

func (p *Processor) BlockSize() int { return p.blockSize }

// ActiveVoices is the pool size published after the last block.
func (p *Processor) ActiveVoices() int { return int(p.activeVoices.Load()) }

// FramesRendered counts frames produced since construction.
func (p *Processor) FramesRendered() uint64 { return p.rendered.Load() }

// Voices exposes the pool for inspection from the audio goroutine.
func (p *Processor) Voices() *voice.Manager { return p.voices }

// Parameter looks a control up by name.
func (p *Processor) Parameter(name string) (*param.Parameter, error) {
	return p.registry.Lookup(name)
}

// SetParameter sets a control by name.
func (p *Processor) SetParameter(name string, v float64) error {
	prm, err := p.registry.Lookup(name)
	if err != nil {
		return err
	}
	prm.SetValue(v)
	return nil
}

// SetParameterString parses s with the control's own formatter, so enum
// options and LFO target names are accepted.
func (p *Processor) SetParameterString(name, s string) error {
	prm, err := p.registry.Lookup(name)
	if err != nil {
		return err
	}
	return prm.SetString(s)
}

// Process renders len(left) frames. right must be at least as long.
func (p *Processor) Process(left, right []float32) {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	p.drain()
	p.LFOA.Prepare()
	p.LFOB.Prepare()

	if !p.Power.Bool(0) {
		clear(left)
		clear(right)
		// Events still take effect while powered down.
		for _, ev := range p.pending {
			p.apply(ev, 0)
		}
		p.pending = p.pending[:0]
		p.publish(n)
		return
	}

	p.grow(n)
	mono, gain := p.mono[:n], p.gain[:n]
	next := 0
	for i := range n {
		for next < len(p.pending) && p.pending[next].Offset <= i {
			p.apply(p.pending[next], i)
			next++
		}
		x := p.voices.NextSample(i)
		x = p.distortion.Process(x, i)
		x = p.chain.Process(x, i)
		mono[i] = x
		gain[i] = p.Volume.ProcessedValue(i)
	}
	for ; next < len(p.pending); next++ {
		p.apply(p.pending[next], max(n-1, 0))
	}
	p.pending = p.pending[:0]

	vecmath.MulBlockInPlace(mono, gain)
	for i, x := range mono {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			x = 0
		}
		left[i] = float32(x)
		right[i] = float32(x)
	}

	p.LFOA.Advance(n)
	p.LFOB.Advance(n)
	p.publish(n)
}

// Render fills dst with interleaved stereo frames, processing in blocks of
// at most BlockSize.
func (p *Processor) Render(dst []float32) {
	frames := len(dst) / 2
	for off := 0; off < frames; {
		n := min(p.blockSize, frames-off)
		p.grow(n)
		l, r := p.left[:n], p.right[:n]
		p.Process(l, r)
		for i := range n {
			dst[2*(off+i)] = l[i]
			dst[2*(off+i)+1] = r[i]
		}
		off += n
	}
}

// Reset silences all voices and clears effect state. Audio goroutine only.
func (p *Processor) Reset() {
	p.voices.Reset()
	p.chain.Reset()
	p.LFOA.Reset()
	p.LFOB.Reset()
}

func (p *Processor) publish(n int) {
	p.activeVoices.Store(int32(p.voices.Len()))
	p.rendered.Add(uint64(n))
}

// drain moves queued events into pending, ordered by offset. Events with
// equal offsets keep arrival order.
func (p *Processor) drain() {
	for {
		select {
		case ev := <-p.events:
			p.pending = append(p.pending, ev)
		default:
			slices.SortStableFunc(p.pending, func(a, b Event) int {
				return a.Offset - b.Offset
			})
			return
		}
	}
}

// apply handles ev at sample i of the current block.
func (p *Processor) apply(ev Event, i int) {
	switch ev.Kind {
	case EventNoteOn:
		if p.voices.NoteOn(ev.Note, ev.Velocity, i) {
			p.LFOA.NoteOn()
			p.LFOB.NoteOn()
		}
	case EventNoteOff:
		p.voices.NoteOff(ev.Note, i)
	case EventAllNotesOff:
		p.voices.ReleaseAll(i)
	case EventSampleRate:
		p.setSampleRate(ev.SampleRate)
	}
}

func (p *Processor) setSampleRate(sr float64) {
	if sr <= 0 || !dsp.Finite(sr) || sr == p.sampleRate {
		return
	}
	p.sampleRate = sr
	p.voices.SetSampleRate(sr)
	p.LFOA.SetSampleRate(sr)
	p.LFOB.SetSampleRate(sr)
}

func (p *Processor) grow(n int) {
	if cap(p.mono) >= n {
		return
	}
	p.mono = make([]float64, n)
	p.gain = make([]float64, n)
	p.left = make([]float32, n)
	p.right = make([]float32, n)
}
