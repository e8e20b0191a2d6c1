package script

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cbegin/subsynth-go/internal/engine"
	"github.com/cbegin/subsynth-go/internal/param"
)

func newProcessor(t *testing.T) *engine.Processor {
	t.Helper()
	p, err := engine.New(44100)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func peak(s []float32) float64 {
	var m float64
	for _, v := range s {
		m = math.Max(m, math.Abs(float64(v)))
	}
	return m
}

func TestRunRendersWaits(t *testing.T) {
	p := newProcessor(t)
	out, err := Run(`
		set("AOsc", "Saw")
		set("EMStn", 1)
		set("EMRel", 0.5)
		note_on(57)
		wait(0.25)
		note_off(57)
		wait(0.75 + 0.25)
	`, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2*(11025+44100) {
		t.Fatalf("len = %d", len(out))
	}
	if peak(out[:2*11025]) < 0.1 {
		t.Fatal("note did not sound")
	}
	if p.ActiveVoices() != 0 {
		t.Fatalf("voices = %d after release", p.ActiveVoices())
	}
}

func TestGetAndSampleRate(t *testing.T) {
	p := newProcessor(t)
	_, err := Run(`
		set("CMix", 0.25)
		set("UPwr", true)
		assert(get("CMix") == 0.25)
		assert(get("UPwr") == 1)
		assert(get_string("AOsc") == "Sine")
		assert(sample_rate() == 44100)
	`, p)
	if err != nil {
		t.Fatal(err)
	}
}

func TestUnknownParameterFails(t *testing.T) {
	p := newProcessor(t)
	_, err := Run(`set("Nope", 1)`, p)
	if err == nil || !strings.Contains(err.Error(), param.ErrUnknownParameter.Error()) {
		t.Fatalf("err = %v", err)
	}
}

func TestManyNotesBetweenWaits(t *testing.T) {
	p := newProcessor(t)
	_, err := Run(`
		for i = 1, 600 do note_on(i % 128) end
		wait(0.01)
	`, p)
	if err != nil {
		t.Fatal(err)
	}
	if p.ActiveVoices() != p.MaxVoices() {
		t.Fatalf("voices = %d, want the full pool", p.ActiveVoices())
	}
}

func TestTooLong(t *testing.T) {
	for _, src := range []string{
		`wait(601)`,
		`wait(math.huge)`,
		`wait(1e300)`,
		`wait(0.5) wait(600)`,
	} {
		t.Run(src, func(t *testing.T) {
			p := newProcessor(t)
			out, err := Run(src, p)
			if !errors.Is(err, ErrTooLong) {
				t.Fatalf("err = %v", err)
			}
			if len(out) > 2*MaxSeconds*44100 {
				t.Fatalf("rendered %d frames past the limit", len(out)/2)
			}
		})
	}
}

func TestHugeWaitDoesNotDisableLimit(t *testing.T) {
	p := newProcessor(t)
	_, err := Run(`
		pcall(wait, math.huge)
		wait(601)
	`, p)
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("err = %v", err)
	}
}

func TestNegativeWaitFails(t *testing.T) {
	p := newProcessor(t)
	if _, err := Run(`wait(-1)`, p); err == nil {
		t.Fatal("expected an error for a negative duration")
	}
}

func TestCancelled(t *testing.T) {
	p := newProcessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunContext(ctx, `while true do end`, p); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestEventsAreQueued(t *testing.T) {
	p := newProcessor(t)
	if _, err := Run(`note_on(60)`, p); err != nil {
		t.Fatal(err)
	}
	l := make([]float32, 64)
	p.Process(l, l)
	if p.ActiveVoices() != 1 {
		t.Fatal("note_on not delivered to the processor")
	}
}
