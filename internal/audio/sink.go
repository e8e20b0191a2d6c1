package audio

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBackendUnavailable = errors.New("audio: backend not compiled in")

type Backend int

const (
	BackendEbiten Backend = iota
	BackendOto
	BackendPortAudio
)

func (b Backend) String() string {
	switch b {
	case BackendEbiten:
		return "ebiten"
	case BackendOto:
		return "oto"
	case BackendPortAudio:
		return "portaudio"
	}
	return "unknown"
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ebiten":
		return BackendEbiten, nil
	case "oto":
		return BackendOto, nil
	case "portaudio", "pa":
		return BackendPortAudio, nil
	}
	return 0, fmt.Errorf("audio: unknown backend %q", s)
}

// Sink is a realtime output pulling stereo frames from a SampleSource.
type Sink interface {
	Play()
	Pause()
	Stop() error
}

// NewSink opens backend at sampleRate. Each backend keeps one process-wide
// device context, so every sink in a process must share the sample rate.
func NewSink(backend Backend, sampleRate int, source SampleSource) (Sink, error) {
	var (
		s   Sink
		err error
	)
	switch backend {
	case BackendEbiten:
		s, err = newEbitenSink(sampleRate, source)
	case BackendOto:
		s, err = newOtoSink(sampleRate, source)
	case BackendPortAudio:
		s, err = newPortAudioSink(sampleRate, source)
	default:
		return nil, fmt.Errorf("audio: unknown backend %d", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", backend, err)
	}
	return s, nil
}
