package voice

import (
	"math"
	"testing"

	"github.com/cbegin/subsynth-go/internal/envelope"
)

func shortRelease(p *Patch) {
	p.AmpEnv.Release.SetValue(0.01)
	p.FilterEnv.Release.SetValue(0.01)
}

func TestNoteOnOffRetiresVoice(t *testing.T) {
	p := newPatch()
	shortRelease(p)
	m := NewManager(p, 4, StealOldestReleasing, sr, 1)

	if !m.NoteOn(60, 100, 0) {
		t.Fatal("NoteOn rejected")
	}
	v := m.Voices()[0]
	if m.NoteOff(60, 0) != 1 {
		t.Fatal("NoteOff missed the voice")
	}

	i := 0
	for ; v.Active() && i < sr; i++ {
		m.NextSample(i % 512)
	}
	if v.Active() {
		t.Fatal("voice never finished its release")
	}
	// The finished voice stays pooled until the next mixing pass.
	if m.Len() != 1 {
		t.Fatalf("pool = %d before compaction, want 1", m.Len())
	}
	if s := m.NextSample(0); s != 0 {
		t.Fatalf("mix after retirement = %v", s)
	}
	if m.Len() != 0 {
		t.Fatalf("pool = %d after compaction, want 0", m.Len())
	}
	for k := 0; k < 4; k++ {
		if !m.NoteOn(40+k, 100, 0) {
			t.Fatalf("slot %d not returned to the free list", k)
		}
	}
}

func TestNoteOffReleasesAllMatchingVoices(t *testing.T) {
	p := newPatch()
	m := NewManager(p, 8, StealOldestReleasing, sr, 1)
	m.NoteOn(60, 100, 0)
	m.NoteOn(60, 100, 0)
	m.NoteOn(64, 100, 0)
	if n := m.NoteOff(60, 0); n != 2 {
		t.Fatalf("NoteOff(60) released %d voices, want 2", n)
	}
	for _, v := range m.Voices() {
		want := envelope.Attack
		if v.Note() == 60 {
			want = envelope.Release
		}
		if v.amp.Stage() != want {
			t.Fatalf("note %d stage = %s, want %s", v.Note(), v.amp.Stage(), want)
		}
	}
}

func TestOutOfRangeNotesIgnored(t *testing.T) {
	m := NewManager(newPatch(), 4, StealOldest, sr, 1)
	if m.NoteOn(-1, 100, 0) || m.NoteOn(128, 100, 0) {
		t.Fatal("out-of-range note accepted")
	}
	if m.Len() != 0 {
		t.Fatalf("pool = %d", m.Len())
	}
}

func TestStealPolicies(t *testing.T) {
	tests := []struct {
		policy StealPolicy
		ok     bool
		gone   int
	}{
		{StealOldestReleasing, true, 62}, // 62 is the oldest releasing voice
		{StealOldest, true, 60},
		{StealNone, false, -1},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			m := NewManager(newPatch(), 3, tt.policy, sr, 1)
			m.NoteOn(60, 100, 0)
			m.NoteOn(62, 100, 0)
			m.NoteOn(64, 100, 0)
			m.NoteOff(62, 0)
			m.NoteOff(64, 0)
			if got := m.NoteOn(67, 100, 0); got != tt.ok {
				t.Fatalf("NoteOn = %v, want %v", got, tt.ok)
			}
			if m.Len() != 3 {
				t.Fatalf("pool = %d, want 3", m.Len())
			}
			for _, v := range m.Voices() {
				if v.Note() == tt.gone {
					t.Fatalf("note %d should have been stolen", tt.gone)
				}
			}
		})
	}
}

func TestMixHeadroomAndBounds(t *testing.T) {
	p := newPatch()
	p.AmpEnv.Sustain.SetValue(1)
	m := NewManager(p, 4, StealOldestReleasing, sr, 1)
	m.NoteOn(69, 100, 0)
	single := NewVoice(p, sr)
	single.Start(m.Voices()[0].Config())
	single.Press(0)
	for i := 0; i < 2000; i++ {
		got := m.NextSample(i % 512)
		want := single.NextSample(i%512) * 0.5
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d mix = %v, want %v", i, got, want)
		}
	}
}

func TestChurnStaysBounded(t *testing.T) {
	p := newPatch()
	shortRelease(p)
	m := NewManager(p, 8, StealOldestReleasing, sr, 1)
	for i := 0; i < 5*sr; i++ {
		if i%97 == 0 {
			m.NoteOn(36+(i/97)%48, 100, 0)
		}
		if i%131 == 0 {
			m.NoteOff(36+(i/131)%48, 0)
		}
		s := m.NextSample(i % 512)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("sample %d non-finite", i)
		}
		if m.Len() > m.Cap() {
			t.Fatalf("pool overflowed: %d > %d", m.Len(), m.Cap())
		}
	}
}

func BenchmarkManager16Voices(b *testing.B) {
	p := newPatch()
	p.Unison.SetValue(1)
	m := NewManager(p, 16, StealOldestReleasing, sr, 1)
	for k := 0; k < 16; k++ {
		m.NoteOn(40+k, 100, 0)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.NextSample(i & 511)
	}
}
