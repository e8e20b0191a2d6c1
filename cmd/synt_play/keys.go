package main

import (
	"sync"
	"time"
)

// keyOffsets maps the home row of a QWERTY keyboard to a C major scale,
// with the number row above providing the sharps.
var keyOffsets = map[byte]int{
	'q': 0, '2': 1, 'w': 2, '3': 3, 'e': 4, 'r': 5, '5': 6,
	't': 7, '6': 8, 'y': 9, '7': 10, 'u': 11, 'i': 12,
}

// keyNote returns the MIDI note for key at octave, where octave 4 puts
// 'q' on middle C.
func keyNote(key byte, octave int) (int, bool) {
	off, ok := keyOffsets[key]
	if !ok {
		return 0, false
	}
	n := 12*(octave+1) + off
	if n < 0 || n > 127 {
		return 0, false
	}
	return n, true
}

type noteSink interface {
	NoteOn(note, velocity int) error
	NoteOff(note int) error
}

// gate turns key presses into timed notes. Terminals report no key-up,
// so a note is released gate after its last press; auto-repeat keeps it
// held.
type gate struct {
	mu     sync.Mutex
	synth  noteSink
	length time.Duration
	timers map[int]*time.Timer
}

func newGate(s noteSink, length time.Duration) *gate {
	return &gate{synth: s, length: length, timers: make(map[int]*time.Timer)}
}

func (g *gate) SetLength(d time.Duration) {
	g.mu.Lock()
	g.length = d
	g.mu.Unlock()
}

// Press starts note, or extends it when it is already sounding.
func (g *gate) Press(note int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.timers[note]; ok && t.Stop() {
		t.Reset(g.length)
		return nil
	}
	if err := g.synth.NoteOn(note, 100); err != nil {
		return err
	}
	var t *time.Timer
	t = time.AfterFunc(g.length, func() { g.release(note, &t) })
	g.timers[note] = t
	return nil
}

// release ignores timers that were superseded by a later press.
func (g *gate) release(note int, t **time.Timer) {
	g.mu.Lock()
	if g.timers[note] != *t {
		g.mu.Unlock()
		return
	}
	delete(g.timers, note)
	g.mu.Unlock()
	_ = g.synth.NoteOff(note)
}

// Stop releases every held note.
func (g *gate) Stop() {
	g.mu.Lock()
	notes := make([]int, 0, len(g.timers))
	for n, t := range g.timers {
		t.Stop()
		notes = append(notes, n)
	}
	clear(g.timers)
	g.mu.Unlock()
	for _, n := range notes {
		_ = g.synth.NoteOff(n)
	}
}
