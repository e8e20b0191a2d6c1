// Package script drives a processor from a Lua program. Scripts queue note
// and parameter changes and call wait to render audio between them, which
// makes them usable both as demo material and as test fixtures.
//
//	set("AOsc", "Saw")
//	note_on(60, 100)
//	wait(0.5)
//	note_off(60)
//	wait(1)
package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cbegin/subsynth-go/internal/engine"
)

// MaxSeconds bounds the audio a single script may render.
const MaxSeconds = 600

var ErrTooLong = errors.New("script: render exceeds MaxSeconds")

// Run executes src against p and returns the interleaved stereo audio
// produced by its wait calls.
func Run(src string, p *engine.Processor) ([]float32, error) {
	return RunContext(context.Background(), src, p)
}

// RunContext is Run with cancellation.
func RunContext(ctx context.Context, src string, p *engine.Processor) ([]float32, error) {
	h := &host{p: p, limit: int(MaxSeconds * p.SampleRate())}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	h.register(L)

	if err := L.DoString(src); err != nil {
		// a limit error caught by pcall must not mask a later failure
		if h.err != nil && strings.Contains(err.Error(), h.err.Error()) {
			return h.out, h.err
		}
		return h.out, fmt.Errorf("script: %w", err)
	}
	return h.out, nil
}

type host struct {
	p      *engine.Processor
	out    []float32
	frames int
	limit  int
	err    error
}

func (h *host) register(L *lua.LState) {
	for name, fn := range map[string]lua.LGFunction{
		"note_on":       h.noteOn,
		"note_off":      h.noteOff,
		"all_notes_off": h.allNotesOff,
		"set":           h.set,
		"get":           h.get,
		"get_string":    h.getString,
		"wait":          h.wait,
		"sample_rate":   h.sampleRate,
		"active_voices": h.activeVoices,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

// enqueue retries once after flushing the queue with an empty block.
func (h *host) enqueue(L *lua.LState, ev engine.Event) {
	err := h.p.Enqueue(ev)
	if errors.Is(err, engine.ErrQueueFull) {
		h.p.Process(nil, nil)
		err = h.p.Enqueue(ev)
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func (h *host) noteOn(L *lua.LState) int {
	h.enqueue(L, engine.Event{Kind: engine.EventNoteOn, Note: L.CheckInt(1), Velocity: L.OptInt(2, 100)})
	return 0
}

func (h *host) noteOff(L *lua.LState) int {
	h.enqueue(L, engine.Event{Kind: engine.EventNoteOff, Note: L.CheckInt(1), Velocity: L.OptInt(2, 0)})
	return 0
}

func (h *host) allNotesOff(L *lua.LState) int {
	h.enqueue(L, engine.Event{Kind: engine.EventAllNotesOff})
	return 0
}

func (h *host) set(L *lua.LState) int {
	name := L.CheckString(1)
	var err error
	switch v := L.Get(2).(type) {
	case lua.LNumber:
		err = h.p.SetParameter(name, float64(v))
	case lua.LString:
		err = h.p.SetParameterString(name, string(v))
	case lua.LBool:
		x := 0.0
		if v {
			x = 1
		}
		err = h.p.SetParameter(name, x)
	default:
		L.ArgError(2, "number, string or boolean expected")
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *host) get(L *lua.LState) int {
	prm, err := h.p.Parameter(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(lua.LNumber(prm.Value()))
	return 1
}

func (h *host) getString(L *lua.LState) int {
	prm, err := h.p.Parameter(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(lua.LString(prm.FormatValue()))
	return 1
}

func (h *host) wait(L *lua.LState) int {
	secs := float64(L.CheckNumber(1))
	if secs < 0 || math.IsNaN(secs) {
		L.ArgError(1, "non-negative duration expected")
	}
	// compared as floats so huge or infinite durations cannot wrap
	frames := math.Round(secs * h.p.SampleRate())
	if math.IsInf(frames, 0) || frames > float64(h.limit-h.frames) {
		h.err = ErrTooLong
		L.RaiseError("%v", ErrTooLong)
	}
	n := int(frames)
	start := len(h.out)
	h.out = append(h.out, make([]float32, 2*n)...)
	h.p.Render(h.out[start:])
	h.frames += n
	return 0
}

func (h *host) sampleRate(L *lua.LState) int {
	L.Push(lua.LNumber(h.p.SampleRate()))
	return 1
}

func (h *host) activeVoices(L *lua.LState) int {
	L.Push(lua.LNumber(h.p.ActiveVoices()))
	return 1
}
