package subsynth

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cbegin/subsynth-go/internal/engine"
	"github.com/cbegin/subsynth-go/internal/script"
)

// Render runs p for frames and returns interleaved stereo.
func Render(p *engine.Processor, frames int) []float32 {
	out := make([]float32, 2*max(frames, 0))
	p.Render(out)
	return out
}

// RenderScript runs a Lua event script on a fresh synth.
func RenderScript(ctx context.Context, src string, sampleRate int, opts ...SynthOption) ([]float32, error) {
	s, err := NewSynth(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	return script.RunContext(ctx, src, s.proc)
}

// DemoScript plays a note through attack, decay, sustain and release.
const DemoScript = `
note_on(60, 100)
wait(30000 / sample_rate())
note_off(60)
wait(50000 / sample_rate())
`

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
