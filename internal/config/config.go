package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTickInterval     = 16 * time.Millisecond
	DefaultSpawnLoadTimeout = 10 * time.Second
	DefaultManifest         = "configs/scene.toml"
	DefaultSession          = "local"
)

type Config struct {
	Session   string          `yaml:"session"`
	Tick      TickConfig      `yaml:"tick"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Scene     SceneConfig     `yaml:"scene"`
	Logging   LoggingConfig   `yaml:"logging"`
	Debug     DebugConfig     `yaml:"debug"`
	Actuators ActuatorsConfig `yaml:"actuators"`
}

type TickConfig struct {
	Interval Duration `yaml:"interval"`
}

type SpawnConfig struct {
	LoadTimeout Duration `yaml:"load_timeout"`
}

type SceneConfig struct {
	Manifest string `yaml:"manifest"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type DebugConfig struct {
	Console bool `yaml:"console"`
}

type ActuatorsConfig struct {
	LeftHand  PathConfig `yaml:"left_hand"`
	RightHand PathConfig `yaml:"right_hand"`
	Cursor    PathConfig `yaml:"cursor"`
}

// PathConfig overrides the grab/drop action paths of one input source.
// Empty fields keep the built-in path.
type PathConfig struct {
	Grab string `yaml:"grab"`
	Drop string `yaml:"drop"`
}

// Duration accepts Go duration strings ("16ms", "5s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults for unset fields and rejects values the tick loop
// cannot run with.
func (c *Config) Validate() error {
	if c.Tick.Interval < 0 {
		return fmt.Errorf("tick.interval must not be negative, got %s", c.Tick.Interval.Std())
	}
	if c.Spawn.LoadTimeout < 0 {
		return fmt.Errorf("spawn.load_timeout must not be negative, got %s", c.Spawn.LoadTimeout.Std())
	}
	if c.Tick.Interval == 0 {
		c.Tick.Interval = Duration(DefaultTickInterval)
	}
	if c.Spawn.LoadTimeout == 0 {
		c.Spawn.LoadTimeout = Duration(DefaultSpawnLoadTimeout)
	}
	if c.Scene.Manifest == "" {
		c.Scene.Manifest = DefaultManifest
	}
	if c.Session == "" {
		c.Session = DefaultSession
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	return nil
}
