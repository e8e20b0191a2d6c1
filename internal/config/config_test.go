package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type recorder struct {
	set map[string]string
}

func (r *recorder) SetParameterString(name, value string) error {
	if strings.HasPrefix(name, "X") {
		return errors.New("unknown")
	}
	r.set[name] = value
	return nil
}

func TestDefaultConfig(t *testing.T) {
	c := Default()
	if c.MaxVoices != 32 || c.SampleRate != 44100 {
		t.Fatalf("unexpected defaults: %+v", c.StaticConfig)
	}
	if c.Params["AOsc"] != "Saw" {
		t.Fatalf("expected AOsc param, got %v", c.Params)
	}
}

func TestReadConfigWritesDefault(t *testing.T) {
	p := filepath.Join(t.TempDir(), "synth.json")
	c, err := ReadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if c.Backend != "ebiten" {
		t.Fatalf("backend = %q", c.Backend)
	}
}

func TestParseNormalizes(t *testing.T) {
	c, err := Parse([]byte(`{"octave": 42, "gateSeconds": -1}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Octave != 9 || c.GateSeconds != 0.35 || c.BlockSize != 512 {
		t.Fatalf("not normalized: %+v", c)
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestApplyJoinsErrors(t *testing.T) {
	c := &Config{DynamicConfig: DynamicConfig{Params: map[string]string{
		"AOsc": "Saw",
		"XOne": "1",
		"XTwo": "2",
	}}}
	r := &recorder{set: map[string]string{}}
	err := c.Apply(r)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "XOne") || !strings.Contains(err.Error(), "XTwo") {
		t.Fatalf("error does not name both failures: %v", err)
	}
	if r.set["AOsc"] != "Saw" {
		t.Fatal("valid parameter was not applied")
	}
}

func TestWatchReloads(t *testing.T) {
	p := filepath.Join(t.TempDir(), "synth.json")
	if _, err := ReadConfig(p); err != nil {
		t.Fatal(err)
	}
	configs := make(chan *Config, 4)
	errs := make(chan error, 4)
	done := make(chan struct{})
	defer close(done)
	if err := Watch(p, configs, errs, done); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(`{"octave": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-configs:
			if c.Octave == 2 {
				return
			}
		case err := <-errs:
			// a write can be observed before it is complete
			t.Log(err)
		case <-timeout:
			t.Fatal("no reload observed")
		}
	}
}
