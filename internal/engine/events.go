package engine

type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAllNotesOff
	EventSampleRate
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventAllNotesOff:
		return "all-notes-off"
	case EventSampleRate:
		return "sample-rate"
	}
	return "unknown"
}

// Event is a control message applied by the audio goroutine at the start
// of the next block. Offset places it at that sample within the block;
// offsets past the block end apply after the block's last sample.
type Event struct {
	Kind       EventKind
	Note       int
	Velocity   int
	Offset     int
	SampleRate float64
}

// Enqueue hands ev to the audio goroutine without blocking.
func (p *Processor) Enqueue(ev Event) error {
	if ev.Offset < 0 {
		ev.Offset = 0
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// NoteOn queues a note start. Notes outside 0..127 are dropped when applied.
func (p *Processor) NoteOn(note, velocity int) error {
	return p.Enqueue(Event{Kind: EventNoteOn, Note: note, Velocity: velocity})
}

// NoteOff queues the release of every voice playing note. velocity is
// accepted for symmetry and ignored.
func (p *Processor) NoteOff(note, velocity int) error {
	return p.Enqueue(Event{Kind: EventNoteOff, Note: note, Velocity: velocity})
}

func (p *Processor) AllNotesOff() error {
	return p.Enqueue(Event{Kind: EventAllNotesOff})
}

// SetSampleRate queues a rate change. Derived increments are recomputed;
// running voices keep their phase and stage progress.
func (p *Processor) SetSampleRate(sampleRate float64) error {
	return p.Enqueue(Event{Kind: EventSampleRate, SampleRate: sampleRate})
}
