package voice

// DefaultMaxVoices caps polyphony when no explicit limit is given.
const DefaultMaxVoices = 32

// StealPolicy picks the voice to reuse when every slot is busy.
type StealPolicy int

const (
	// StealOldestReleasing takes the oldest voice in its release stage,
	// falling back to the oldest voice.
	StealOldestReleasing StealPolicy = iota
	StealOldest
	// StealNone drops the new note.
	StealNone
)

func (p StealPolicy) String() string {
	switch p {
	case StealOldestReleasing:
		return "oldest-releasing"
	case StealOldest:
		return "oldest"
	case StealNone:
		return "none"
	}
	return "unknown"
}

// Manager owns a fixed arena of voices. Slots move between a free list and
// an active list ordered oldest first; nothing is allocated after
// construction.
type Manager struct {
	patch  *Patch
	voices []Voice
	free   []int
	active []int
	policy StealPolicy
	seed   uint64
	starts uint64
}

func NewManager(p *Patch, maxVoices int, policy StealPolicy, sampleRate float64, seed uint64) *Manager {
	if maxVoices < 1 {
		maxVoices = DefaultMaxVoices
	}
	m := &Manager{
		patch:  p,
		voices: make([]Voice, maxVoices),
		free:   make([]int, 0, maxVoices),
		active: make([]int, 0, maxVoices),
		policy: policy,
		seed:   seed,
	}
	for k := range m.voices {
		m.voices[k].init(p, sampleRate)
	}
	for k := maxVoices - 1; k >= 0; k-- {
		m.free = append(m.free, k)
	}
	return m
}

// Len reports voices in the pool, including ones that finished since the
// last mixing pass.
func (m *Manager) Len() int { return len(m.active) }

func (m *Manager) Cap() int { return len(m.voices) }

// NoteOn starts a voice for note at sample i of the current block and
// reports whether one was started. Notes outside 0..127 are ignored.
func (m *Manager) NoteOn(note, velocity, i int) bool {
	if note < 0 || note > 127 {
		return false
	}
	slot, ok := m.acquire()
	if !ok {
		return false
	}
	v := &m.voices[slot]
	v.Start(Config{
		Note:     note,
		Velocity: velocity,
		Unison:   m.patch.Unison.Bool(i),
		Detune:   m.patch.Detune.Value(),
		Seed:     m.seed + m.starts,
	})
	m.starts++
	v.Press(i)
	m.active = append(m.active, slot)
	return true
}

// NoteOff releases every voice playing note and returns how many it hit.
func (m *Manager) NoteOff(note, i int) int {
	n := 0
	for _, slot := range m.active {
		v := &m.voices[slot]
		if v.active && v.cfg.Note == note {
			v.Release(i)
			n++
		}
	}
	return n
}

func (m *Manager) ReleaseAll(i int) {
	for _, slot := range m.active {
		m.voices[slot].Release(i)
	}
}

// Reset silences every voice immediately.
func (m *Manager) Reset() {
	for _, slot := range m.active {
		m.voices[slot].active = false
		m.free = append(m.free, slot)
	}
	m.active = m.active[:0]
}

func (m *Manager) SetSampleRate(sampleRate float64) {
	for k := range m.voices {
		m.voices[k].SetSampleRate(sampleRate)
	}
}

// NextSample drops finished voices, mixes the rest and applies a fixed
// half-gain headroom.
func (m *Manager) NextSample(i int) float64 {
	var out float64
	w := 0
	for _, slot := range m.active {
		v := &m.voices[slot]
		if !v.active {
			m.free = append(m.free, slot)
			continue
		}
		out += v.NextSample(i)
		m.active[w] = slot
		w++
	}
	m.active = m.active[:w]
	return out * 0.5
}

// Voices returns the pooled voices oldest first. It allocates and is meant
// for inspection, not for the audio path.
func (m *Manager) Voices() []*Voice {
	out := make([]*Voice, len(m.active))
	for k, slot := range m.active {
		out[k] = &m.voices[slot]
	}
	return out
}

func (m *Manager) acquire() (int, bool) {
	if n := len(m.free); n > 0 {
		slot := m.free[n-1]
		m.free = m.free[:n-1]
		return slot, true
	}
	victim := m.victim()
	if victim < 0 {
		return 0, false
	}
	slot := m.active[victim]
	copy(m.active[victim:], m.active[victim+1:])
	m.active = m.active[:len(m.active)-1]
	return slot, true
}

// victim returns the position in the active list to steal, or -1.
func (m *Manager) victim() int {
	if len(m.active) == 0 {
		return -1
	}
	for k, slot := range m.active {
		if !m.voices[slot].active {
			return k
		}
	}
	switch m.policy {
	case StealNone:
		return -1
	case StealOldestReleasing:
		for k, slot := range m.active {
			if m.voices[slot].Releasing() {
				return k
			}
		}
	}
	return 0
}
