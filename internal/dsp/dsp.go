// Package dsp holds the small numeric helpers shared by the synthesis
// components.
package dsp

import "math"

const TwoPi = math.Pi * 2

// NoteFrequency maps a (possibly fractional) MIDI note number to Hz,
// A4 = note 69 = 440 Hz.
func NoteFrequency(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Fmod returns x modulo y in [0, y) for positive y.
func Fmod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r < 0 {
		r += y
	}
	return r
}

func IsZero(v float64) bool {
	return math.Abs(v) < 1e-12
}

// FlushDenormal snaps values too small to matter to exact zero.
func FlushDenormal(v float64) float64 {
	if v > -1e-30 && v < 1e-30 {
		return 0
	}
	return v
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
