//go:build !portaudio

package audio

import (
	"errors"
	"testing"
)

func TestPortAudioNeedsBuildTag(t *testing.T) {
	_, err := NewSink(BackendPortAudio, 44100, SourceFunc(func([]float32) {}))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
