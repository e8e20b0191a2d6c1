// Package config reads the interactive player's JSON settings and watches
// the file for edits.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

const defaultConfig = `{
	"sampleRate": 44100,
	"blockSize": 512,
	"maxVoices": 32,
	"backend": "ebiten",
	"watchConfig": true,
	"octave": 4,
	"gateSeconds": 0.35,
	"params": {
		"AOsc": "Saw",
		"BOsc": "Square",
		"BSemi": "-12",
		"CMix": "0.4",
		"EMAtk": "0.01",
		"EMDec": "0.3",
		"EMStn": "0.6",
		"EMRel": "0.4",
		"FPass": "LowPass",
		"FCutoff": "0.6",
		"FRes": "0.3"
	},
	"echo": {
		"delayMs": 0,
		"feedback": 0.35,
		"wet": 0.25
	}
}
`

// StaticConfig holds settings that need a restart to take effect.
type StaticConfig struct {
	SampleRate  int    `json:"sampleRate"`
	BlockSize   int    `json:"blockSize"`
	MaxVoices   int    `json:"maxVoices"`
	Backend     string `json:"backend"`
	WatchConfig bool   `json:"watchConfig"`
}

// EchoConfig configures the optional echo insert. DelayMs 0 disables it.
type EchoConfig struct {
	DelayMs  float64 `json:"delayMs"`
	Feedback float64 `json:"feedback"`
	Wet      float64 `json:"wet"`
}

// DynamicConfig is reapplied whenever the file changes.
type DynamicConfig struct {
	Octave      int               `json:"octave"`
	GateSeconds float64           `json:"gateSeconds"`
	Params      map[string]string `json:"params"`
}

type Config struct {
	StaticConfig
	DynamicConfig
	Echo EchoConfig `json:"echo"`
}

// ParamSetter is satisfied by the synth and the engine processor.
type ParamSetter interface {
	SetParameterString(name, value string) error
}

// Default returns the built-in configuration.
func Default() *Config {
	c, err := Parse([]byte(defaultConfig))
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}
	c.normalize()
	return &c, nil
}

// ReadConfig loads p, writing the default configuration there first when
// the file does not exist.
func ReadConfig(p string) (*Config, error) {
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(p, []byte(defaultConfig), 0o644); err != nil {
			return nil, fmt.Errorf("can't write defaultConfig: %w", err)
		}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	return Parse(data)
}

// Apply sets every configured parameter, in name order, and reports all
// failures together.
func (c *Config) Apply(s ParamSetter) error {
	names := make([]string, 0, len(c.Params))
	for name := range c.Params {
		names = append(names, name)
	}
	slices.Sort(names)
	var errs []error
	for _, name := range names {
		if err := s.SetParameterString(name, c.Params[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) normalize() {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.BlockSize <= 0 {
		c.BlockSize = 512
	}
	if c.MaxVoices <= 0 {
		c.MaxVoices = 32
	}
	c.Octave = min(max(c.Octave, 0), 9)
	if c.GateSeconds <= 0 {
		c.GateSeconds = 0.35
	}
}
