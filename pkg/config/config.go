// Package config handles avmcore.toml runtime configuration.
package config

import (
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config represents an avmcore.toml file.
type Config struct {
	Player  Player  `toml:"player"`
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`
	Storage Storage `toml:"storage"`

	// Path is the file the config was read from (set at load time).
	Path string `toml:"-"`
}

// Player describes the content being emulated.
type Player struct {
	// SwfVersion below 7 selects case-insensitive property lookup.
	SwfVersion    uint8 `toml:"swf_version"`
	PlayerVersion int   `toml:"player_version"`
}

// Runtime bounds the object model's recursion.
type Runtime struct {
	MaxPrototypeDepth int `toml:"max_prototype_depth"`
	MaxCallDepth      int `toml:"max_call_depth"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// Storage configures the snapshot store.
type Storage struct {
	Path    string        `toml:"path"`
	Timeout time.Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Player:  Player{SwfVersion: 8, PlayerVersion: 32},
		Runtime: Runtime{MaxPrototypeDepth: 255, MaxCallDepth: 256},
		Log:     Log{Level: "info", Format: "text"},
		Storage: Storage{Path: "avmcore.db", Timeout: 5 * time.Second},
	}
}

// Load reads path and fills every unset field from Default. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", path).Debug("config file not found, using defaults")
		return &cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return nil, errors.WithMessagef(err, "parse error in %s", path)
	}
	parsed.Path = path
	return parsed, nil
}

// Parse decodes a TOML document over the defaults and validates it.
func Parse(doc string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(doc, &cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the runtime cannot honour.
func (c *Config) Validate() error {
	if c.Player.SwfVersion == 0 {
		return errors.New("player.swf_version must be between 1 and 255")
	}
	if c.Runtime.MaxPrototypeDepth <= 0 {
		return errors.Errorf("runtime.max_prototype_depth must be positive, got %d", c.Runtime.MaxPrototypeDepth)
	}
	if c.Runtime.MaxCallDepth <= 0 {
		return errors.Errorf("runtime.max_call_depth must be positive, got %d", c.Runtime.MaxCallDepth)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// NewLogger builds a logger from the log section.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger, nil
}
