//go:build !portaudio

package audio

func newPortAudioSink(sampleRate int, source SampleSource) (Sink, error) {
	return nil, ErrBackendUnavailable
}
