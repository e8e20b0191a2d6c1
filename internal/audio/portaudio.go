//go:build portaudio

package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

type portAudioSink struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	source  SampleSource
	playing bool
}

func newPortAudioSink(sampleRate int, source SampleSource) (*portAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &portAudioSink{source: source}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), portaudio.FramesPerBufferUnspecified, s.callback)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

// callback receives interleaved stereo frames.
func (s *portAudioSink) callback(out []float32) {
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()
	if !playing {
		clear(out)
		return
	}
	s.source.Process(out)
}

func (s *portAudioSink) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

func (s *portAudioSink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *portAudioSink) Stop() error {
	s.Pause()
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
