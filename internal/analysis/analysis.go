// Package analysis measures rendered audio: level statistics and a
// windowed magnitude spectrum. It backs the render tool's report and the
// pitch checks in tests.
package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var ErrTooShort = errors.New("analysis: need at least 2 samples")

// Spectrum holds single-sided magnitudes of one Hann-windowed frame.
type Spectrum struct {
	Magnitudes []float64
	SampleRate float64
	Size       int
}

// Analyze transforms the longest power-of-two prefix of samples.
func Analyze(samples []float64, sampleRate float64) (*Spectrum, error) {
	size := 1
	for size*2 <= len(samples) {
		size *= 2
	}
	if size < 2 {
		return nil, ErrTooShort
	}

	frame := make([]float64, size)
	copy(frame, samples[:size])
	vecmath.MulBlockInPlace(frame, hann(size))

	in := make([]complex128, size)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft plan: %w", err)
	}
	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("analysis: forward fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := range bins {
		re[k], im[k] = real(out[k]), imag(out[k])
	}
	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)
	return &Spectrum{Magnitudes: mag, SampleRate: sampleRate, Size: size}, nil
}

// BinHz is the width of one bin.
func (s *Spectrum) BinHz() float64 {
	return s.SampleRate / float64(s.Size)
}

// PeakFrequency returns the strongest frequency in [minHz, maxHz], refined
// by parabolic interpolation over the neighbouring bins.
func (s *Spectrum) PeakFrequency(minHz, maxHz float64) float64 {
	lo := max(1, int(math.Ceil(minHz/s.BinHz())))
	hi := min(len(s.Magnitudes)-2, int(maxHz/s.BinHz()))
	best := -1
	for k := lo; k <= hi; k++ {
		if best < 0 || s.Magnitudes[k] > s.Magnitudes[best] {
			best = k
		}
	}
	if best < 0 {
		return 0
	}
	a, b, c := s.Magnitudes[best-1], s.Magnitudes[best], s.Magnitudes[best+1]
	shift := 0.0
	if d := a - 2*b + c; d != 0 {
		shift = 0.5 * (a - c) / d
	}
	return (float64(best) + shift) * s.BinHz()
}

// EnergyAbove is the fraction of spectral energy above hz.
func (s *Spectrum) EnergyAbove(hz float64) float64 {
	var total, above float64
	cut := hz / s.BinHz()
	for k, m := range s.Magnitudes {
		e := m * m
		total += e
		if float64(k) > cut {
			above += e
		}
	}
	if total == 0 {
		return 0
	}
	return above / total
}

func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func Peak(samples []float64) float64 {
	var m float64
	for _, v := range samples {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// Mono32 widens float32 samples, taking every stride-th value starting at
// offset. Use stride 2 to pull one channel out of interleaved stereo.
func Mono32(samples []float32, offset, stride int) []float64 {
	if stride < 1 {
		stride = 1
	}
	out := make([]float64, 0, len(samples)/stride+1)
	for i := offset; i < len(samples); i += stride {
		out = append(out, float64(samples[i]))
	}
	return out
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
