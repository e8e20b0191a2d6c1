// Package param implements the control surface the synthesis core reads:
// named parameters with an atomically stored value, an optional modulator
// slot, and a registry that resolves parameters by index or name.
package param

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	ErrModulatorBound     = errors.New("param: modulator slot already bound")
	ErrUnknownParameter   = errors.New("param: unknown parameter")
	ErrDuplicateParameter = errors.New("param: duplicate parameter name")
	ErrInvalidValue       = errors.New("param: invalid value")
)

// Kind selects value quantization, normalization and formatting.
type Kind int

const (
	KindReal Kind = iota
	KindInteger
	KindEnum
	KindBool
	KindFrequency
)

// Modulator perturbs a parameter's normalized value for one sample of the
// current block. Both the argument and the result are in [0, 1].
type Modulator interface {
	ModifyValue(current float64, sampleIndex int) float64
}

// Parameter is a single named control. The raw value may be written from any
// goroutine; the modulator slot belongs to the audio thread.
type Parameter struct {
	name    string
	label   string
	kind    Kind
	min     float64
	max     float64
	def     float64
	options []string
	bits    atomic.Uint64
	mod     Modulator
	index   int

	format func(v float64) string
	parse  func(s string) (float64, error)
}

func newParameter(name, label string, kind Kind, min, max, def float64) *Parameter {
	if min > max {
		min, max = max, min
	}
	p := &Parameter{name: name, label: label, kind: kind, min: min, max: max, index: -1}
	p.def = p.quantize(def)
	p.bits.Store(math.Float64bits(p.def))
	return p
}

// NewReal creates a continuous parameter over [min, max].
func NewReal(name, label string, min, max, def float64) *Parameter {
	return newParameter(name, label, KindReal, min, max, def)
}

// NewFrequency creates a continuous parameter normalized on a log scale.
// min must be positive.
func NewFrequency(name, label string, min, max, def float64) *Parameter {
	if min <= 0 {
		min = 0.001
	}
	return newParameter(name, label, KindFrequency, min, max, def)
}

func NewInteger(name, label string, min, max, def int) *Parameter {
	return newParameter(name, label, KindInteger, float64(min), float64(max), float64(def))
}

// NewEnum creates a parameter whose value is an index into options.
func NewEnum(name, label string, options []string, def int) *Parameter {
	p := newParameter(name, label, KindEnum, 0, float64(len(options)-1), float64(def))
	p.options = append([]string(nil), options...)
	return p
}

func NewBool(name, label string, def bool) *Parameter {
	d := 0.0
	if def {
		d = 1
	}
	return newParameter(name, label, KindBool, 0, 1, d)
}

// WithFormat installs a custom formatter and parser pair, used by parameters
// whose value refers to something outside the parameter itself.
func (p *Parameter) WithFormat(format func(float64) string, parse func(string) (float64, error)) *Parameter {
	p.format = format
	p.parse = parse
	return p
}

func (p *Parameter) Name() string      { return p.name }
func (p *Parameter) Label() string     { return p.label }
func (p *Parameter) Kind() Kind        { return p.kind }
func (p *Parameter) Min() float64      { return p.min }
func (p *Parameter) Max() float64      { return p.max }
func (p *Parameter) Default() float64  { return p.def }
func (p *Parameter) Index() int        { return p.index }
func (p *Parameter) Options() []string { return p.options }

// Value returns the raw (unmodulated) value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// SetValue stores v clamped into range. Discrete kinds are rounded.
// NaN is ignored.
func (p *Parameter) SetValue(v float64) {
	if math.IsNaN(v) {
		return
	}
	p.bits.Store(math.Float64bits(p.quantize(v)))
}

func (p *Parameter) Reset() {
	p.bits.Store(math.Float64bits(p.def))
}

// Normalize maps a value in range onto [0, 1].
func (p *Parameter) Normalize(v float64) float64 {
	if p.max == p.min {
		return 0
	}
	var n float64
	if p.kind == KindFrequency {
		n = math.Log(v/p.min) / math.Log(p.max/p.min)
	} else {
		n = (v - p.min) / (p.max - p.min)
	}
	return clamp01(n)
}

// Denormalize maps n in [0, 1] back into the parameter range.
func (p *Parameter) Denormalize(n float64) float64 {
	n = clamp01(n)
	var v float64
	if p.kind == KindFrequency {
		v = p.min * math.Pow(p.max/p.min, n)
	} else {
		v = p.min + n*(p.max-p.min)
	}
	return p.quantize(v)
}

// ProcessedValue is the value seen by sample sampleIndex of the current block
// after the bound modulator, if any, has been applied.
func (p *Parameter) ProcessedValue(sampleIndex int) float64 {
	v := p.Value()
	if p.mod == nil {
		return v
	}
	n := p.mod.ModifyValue(p.Normalize(v), sampleIndex)
	if math.IsNaN(n) {
		return v
	}
	return p.Denormalize(n)
}

func (p *Parameter) Int(sampleIndex int) int {
	return int(math.Round(p.ProcessedValue(sampleIndex)))
}

func (p *Parameter) Bool(sampleIndex int) bool {
	return p.ProcessedValue(sampleIndex) >= 0.5
}

// Attach binds m to the modulator slot. A slot owned by a different
// modulator is not taken over.
func (p *Parameter) Attach(m Modulator) error {
	if p.mod != nil && p.mod != m {
		return fmt.Errorf("%w: %s", ErrModulatorBound, p.name)
	}
	p.mod = m
	return nil
}

// Detach clears the slot if m owns it.
func (p *Parameter) Detach(m Modulator) bool {
	if p.mod == nil || p.mod != m {
		return false
	}
	p.mod = nil
	return true
}

func (p *Parameter) Modulator() Modulator {
	return p.mod
}

// FormatValue renders the raw value for display.
func (p *Parameter) FormatValue() string {
	v := p.Value()
	if p.format != nil {
		return p.format(v)
	}
	switch p.kind {
	case KindEnum:
		i := int(v)
		if i >= 0 && i < len(p.options) {
			return p.options[i]
		}
		return strconv.Itoa(i)
	case KindBool:
		if v >= 0.5 {
			return "On"
		}
		return "Off"
	case KindInteger:
		return strconv.Itoa(int(v))
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// ParseValue converts s into a value without storing it.
func (p *Parameter) ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if p.parse != nil {
		return p.parse(s)
	}
	switch p.kind {
	case KindEnum:
		for i, opt := range p.options {
			if strings.EqualFold(opt, s) {
				return float64(i), nil
			}
		}
	case KindBool:
		switch strings.ToLower(s) {
		case "on", "true", "yes":
			return 1, nil
		case "off", "false", "no":
			return 0, nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, p.name, s)
	}
	return v, nil
}

func (p *Parameter) SetString(s string) error {
	v, err := p.ParseValue(s)
	if err != nil {
		return err
	}
	p.SetValue(v)
	return nil
}

func (p *Parameter) quantize(v float64) float64 {
	if v < p.min {
		v = p.min
	}
	if v > p.max {
		v = p.max
	}
	switch p.kind {
	case KindInteger, KindEnum, KindBool:
		v = math.Round(v)
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
