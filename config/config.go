// Package config loads runtime settings for loops and the demo service from YAML
// or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/comalice/loopx/logging"
	"github.com/comalice/loopx/realtime"
	"github.com/comalice/loopx/runners"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Runner kinds accepted by the *_runner keys.
const (
	RunnerSerial    = "serial"
	RunnerImmediate = "immediate"
	RunnerTick      = "tick"
)

type Config struct {
	Name         string `yaml:"name" toml:"name"`
	EventRunner  string `yaml:"event_runner" toml:"event_runner"`
	EffectRunner string `yaml:"effect_runner" toml:"effect_runner"`
	ViewRunner   string `yaml:"view_runner" toml:"view_runner"`
	// TickRate in ticks per second, used by "tick" runners.
	TickRate int `yaml:"tick_rate" toml:"tick_rate"`

	Log      LogConfig      `yaml:"log" toml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// SnapshotConfig enables resting-model persistence when Dir is set.
type SnapshotConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Format string `yaml:"format" toml:"format"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
	// AllowOrigins enables CORS for the listed origins.
	AllowOrigins []string `yaml:"allow_origins" toml:"allow_origins"`
}

func Default() Config {
	return Config{
		Name:         "loopx",
		EventRunner:  RunnerSerial,
		EffectRunner: RunnerSerial,
		ViewRunner:   RunnerSerial,
		TickRate:     60,
		Log:          LogConfig{Level: "info"},
		Metrics:      MetricsConfig{Enabled: true, Namespace: "loopx"},
		Snapshot:     SnapshotConfig{Format: "json"},
		HTTP:         HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("load config %s: unsupported extension %q", path, ext)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.EventRunner = strings.ToLower(strings.TrimSpace(c.EventRunner))
	c.EffectRunner = strings.ToLower(strings.TrimSpace(c.EffectRunner))
	c.ViewRunner = strings.ToLower(strings.TrimSpace(c.ViewRunner))
	c.Snapshot.Format = strings.ToLower(strings.TrimSpace(c.Snapshot.Format))
	c.Log.Level = strings.TrimSpace(c.Log.Level)
}

func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	for key, kind := range map[string]string{
		"event_runner":  c.EventRunner,
		"effect_runner": c.EffectRunner,
		"view_runner":   c.ViewRunner,
	} {
		switch kind {
		case RunnerSerial, RunnerImmediate, RunnerTick:
		default:
			return fmt.Errorf("%w: %s %q (expected serial, immediate or tick)", ErrInvalidConfig, key, kind)
		}
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive, got %d", ErrInvalidConfig, c.TickRate)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Snapshot.Format != "json" && c.Snapshot.Format != "yaml" {
		return fmt.Errorf("%w: snapshot.format %q (expected json or yaml)", ErrInvalidConfig, c.Snapshot.Format)
	}
	return nil
}

// RunnerProducer maps a runner kind to a producer. Tick runners use TickRate.
func (c Config) RunnerProducer(kind string) (runners.Producer, error) {
	switch kind {
	case RunnerSerial:
		return runners.SerialProducer(c.Name), nil
	case RunnerImmediate:
		return runners.ImmediateProducer(), nil
	case RunnerTick:
		rate := time.Second / time.Duration(c.TickRate)
		return func() runners.WorkRunner {
			return realtime.NewTickRunner(realtime.Config{TickRate: rate})
		}, nil
	default:
		return nil, fmt.Errorf("%w: runner kind %q", ErrInvalidConfig, kind)
	}
}
