package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/cbegin/subsynth-go"
	"github.com/cbegin/subsynth-go/internal/audio"
	"github.com/cbegin/subsynth-go/internal/config"
)

func main() {
	var (
		configPath  = flag.String("config", "synth.json", "path to the JSON settings file (created when missing)")
		backendName = flag.String("backend", "", "audio backend: ebiten|oto|portaudio (overrides the config)")
	)
	flag.Parse()

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	backend, err := audio.ParseBackend(cfg.Backend)
	if err != nil {
		log.Fatal(err)
	}

	opts := []subsynth.SynthOption{
		subsynth.WithBackend(backend),
		subsynth.WithMaxVoices(cfg.MaxVoices),
		subsynth.WithBlockSize(cfg.BlockSize),
	}
	if cfg.Echo.DelayMs > 0 {
		opts = append(opts, subsynth.WithEcho(cfg.SampleRate, cfg.Echo.DelayMs, cfg.Echo.Feedback, cfg.Echo.Wet))
	}
	synth, err := subsynth.NewSynth(cfg.SampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Apply(synth); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
	}
	if err := synth.Play(); err != nil {
		log.Fatal(err)
	}
	defer synth.Stop()

	var octave atomic.Int32
	octave.Store(int32(cfg.Octave))
	keys := newGate(synth, seconds(cfg.GateSeconds))
	defer keys.Stop()

	done := make(chan struct{})
	defer close(done)
	if cfg.WatchConfig {
		configs := make(chan *config.Config)
		errs := make(chan error)
		if err := config.Watch(*configPath, configs, errs, done); err != nil {
			fmt.Fprintf(os.Stderr, "config watch: %v\n", err)
		}
		go func() {
			for {
				select {
				case c := <-configs:
					if err := c.Apply(synth); err != nil {
						fmt.Fprintf(os.Stderr, "config: %v\r\n", err)
					}
					octave.Store(int32(c.Octave))
					keys.SetLength(seconds(c.GateSeconds))
					fmt.Print("config reloaded\r\n")
				case err := <-errs:
					fmt.Fprintf(os.Stderr, "config: %v\r\n", err)
				case <-done:
					return
				}
			}
		}()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("failed to set raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("q-i play C major, 2 3 5 6 7 sharps, +/- octave, Esc quits\r\n")
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return
		}
		switch b := buf[0]; b {
		case 27, 3: // Esc, Ctrl-C
			return
		case '+', '=':
			fmt.Printf("octave %d\r\n", shift(&octave, 1))
		case '-', '_':
			fmt.Printf("octave %d\r\n", shift(&octave, -1))
		default:
			note, ok := keyNote(b, int(octave.Load()))
			if !ok {
				continue
			}
			if err := keys.Press(note); err != nil {
				fmt.Fprintf(os.Stderr, "note %d: %v\r\n", note, err)
			}
		}
	}
}

func shift(octave *atomic.Int32, d int32) int32 {
	v := min(max(octave.Load()+d, 0), 9)
	octave.Store(v)
	return v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
