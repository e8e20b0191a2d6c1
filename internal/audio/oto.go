package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

type otoSink struct {
	player *oto.Player
	reader *StreamReader
}

var (
	otoOnce       sync.Once
	otoContext    *oto.Context
	otoContextErr error
	otoRate       int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoRate, sampleRate)
	}
	return otoContext, nil
}

func newOtoSink(sampleRate int, source SampleSource) (*otoSink, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	return &otoSink{player: ctx.NewPlayer(reader), reader: reader}, nil
}

func (s *otoSink) Play()  { s.player.Play() }
func (s *otoSink) Pause() { s.player.Pause() }

func (s *otoSink) Stop() error {
	s.player.Pause()
	return s.reader.Close()
}
