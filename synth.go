// Package subsynth is a polyphonic subtractive synthesizer: two PolyBLEP
// oscillators per voice, amp and filter envelopes, a four-pole filter,
// distortion and two assignable LFOs.
package subsynth

import (
	"errors"
	"sync"

	intaudio "github.com/cbegin/subsynth-go/internal/audio"
	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/engine"
	"github.com/cbegin/subsynth-go/internal/param"
	"github.com/cbegin/subsynth-go/internal/voice"
)

type Backend = intaudio.Backend

const (
	BackendEbiten    = intaudio.BackendEbiten
	BackendOto       = intaudio.BackendOto
	BackendPortAudio = intaudio.BackendPortAudio
)

type SynthOption func(*synthConfig)

type synthConfig struct {
	backend   Backend
	sampleTap func([]float32)
	engine    []engine.Option
}

func defaultSynthConfig() synthConfig {
	return synthConfig{backend: BackendEbiten}
}

func WithBackend(b Backend) SynthOption {
	return func(cfg *synthConfig) {
		cfg.backend = b
	}
}

func WithMaxVoices(n int) SynthOption {
	return func(cfg *synthConfig) {
		cfg.engine = append(cfg.engine, engine.WithMaxVoices(n))
	}
}

func WithStealPolicy(policy voice.StealPolicy) SynthOption {
	return func(cfg *synthConfig) {
		cfg.engine = append(cfg.engine, engine.WithStealPolicy(policy))
	}
}

func WithSeed(seed uint64) SynthOption {
	return func(cfg *synthConfig) {
		cfg.engine = append(cfg.engine, engine.WithSeed(seed))
	}
}

// WithEcho adds a feedback echo after the distortion stage.
func WithEcho(sampleRate int, delayMs, feedback, wet float64) SynthOption {
	return func(cfg *synthConfig) {
		cfg.engine = append(cfg.engine, engine.WithInsert(effects.NewEcho(float64(sampleRate), delayMs, feedback, wet)))
	}
}

// WithBlockSize sets how many frames are rendered per processor call.
// LFOs advance once per block.
func WithBlockSize(frames int) SynthOption {
	return func(cfg *synthConfig) {
		cfg.engine = append(cfg.engine, engine.WithBlockSize(frames))
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) SynthOption {
	return func(cfg *synthConfig) {
		cfg.sampleTap = tap
	}
}

// ParameterInfo describes one automatable control.
type ParameterInfo struct {
	Index   int
	Name    string
	Label   string
	Min     float64
	Max     float64
	Default float64
	Value   float64
	Text    string
	Options []string
}

type Synth struct {
	mu         sync.Mutex
	proc       *engine.Processor
	source     *processorSource
	sampleRate int
	backend    Backend
	audio      intaudio.Sink
}

// processorSource adapts the processor to the audio sink's pull model.
type processorSource struct {
	proc      *engine.Processor
	sampleTap func([]float32)
}

func (s *processorSource) Process(dst []float32) {
	s.proc.Render(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

func NewSynth(sampleRate int, opts ...SynthOption) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	proc, err := engine.New(float64(sampleRate), cfg.engine...)
	if err != nil {
		return nil, err
	}
	return &Synth{
		proc:       proc,
		source:     &processorSource{proc: proc, sampleTap: cfg.sampleTap},
		sampleRate: sampleRate,
		backend:    cfg.backend,
	}, nil
}

func (s *Synth) SampleRate() int { return s.sampleRate }

// Processor exposes the underlying engine for offline use.
func (s *Synth) Processor() *engine.Processor { return s.proc }

func (s *Synth) NoteOn(note, velocity int) error {
	return s.proc.NoteOn(note, velocity)
}

func (s *Synth) NoteOff(note int) error {
	return s.proc.NoteOff(note, 0)
}

func (s *Synth) AllNotesOff() error {
	return s.proc.AllNotesOff()
}

func (s *Synth) ActiveVoices() int {
	return s.proc.ActiveVoices()
}

func (s *Synth) SetParameter(name string, v float64) error {
	return s.proc.SetParameter(name, v)
}

func (s *Synth) SetParameterString(name, v string) error {
	return s.proc.SetParameterString(name, v)
}

// Parameter returns the current value of a control and its display text.
func (s *Synth) Parameter(name string) (float64, string, error) {
	p, err := s.proc.Parameter(name)
	if err != nil {
		return 0, "", err
	}
	return p.Value(), p.FormatValue(), nil
}

// Parameters lists every control in registry order.
func (s *Synth) Parameters() []ParameterInfo {
	all := s.proc.Registry().All()
	out := make([]ParameterInfo, 0, len(all))
	for _, p := range all {
		out = append(out, info(p))
	}
	return out
}

func info(p *param.Parameter) ParameterInfo {
	return ParameterInfo{
		Index:   p.Index(),
		Name:    p.Name(),
		Label:   p.Label(),
		Min:     p.Min(),
		Max:     p.Max(),
		Default: p.Default(),
		Value:   p.Value(),
		Text:    p.FormatValue(),
		Options: p.Options(),
	}
}

// SetMasterVolume sets MVol, clamped to [0, 1].
func (s *Synth) SetMasterVolume(volume float64) {
	s.proc.Volume.SetValue(volume)
}

func (s *Synth) MasterVolume() float64 {
	return s.proc.Volume.Value()
}

// Render produces frames of interleaved stereo without an audio device.
// It must not be used while the synth is playing.
func (s *Synth) Render(frames int) []float32 {
	out := make([]float32, 2*frames)
	s.source.Process(out)
	return out
}

// Play opens the configured backend on first use and starts output.
func (s *Synth) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		sink, err := intaudio.NewSink(s.backend, s.sampleRate, s.source)
		if err != nil {
			return err
		}
		s.audio = sink
	}
	s.audio.Play()
	return nil
}

func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Pause()
	}
}

func (s *Synth) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Play()
	}
}

func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return nil
	}
	err := s.audio.Stop()
	s.audio = nil
	return err
}
