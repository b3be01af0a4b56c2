// Package config loads the skirmish YAML configuration and its SKIRMISH_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/samdwyer/skirmish/internal/combat"
)

// DefaultPath is read when no -config flag is given and the file exists.
const DefaultPath = "skirmish.yaml"

// RandomEnemy picks the enemy by spawn weight.
const RandomEnemy = "random"

// Mode selects who chooses the player's actions.
type Mode string

const (
	ModeInteractive Mode = "interactive" // terminal input
	ModeAuto        Mode = "auto"        // both sides played by the AI, no screen
)

// Config is the full run configuration.
type Config struct {
	Seed       int64           `yaml:"seed"` // 0 seeds from the clock
	Mode       Mode            `yaml:"mode"`
	Player     string          `yaml:"player"`
	Enemy      string          `yaml:"enemy"`
	CostPolicy string          `yaml:"cost_policy"`
	Level      int             `yaml:"level"`    // player level override, 0 keeps the data value
	Unlock     []string        `yaml:"unlock"`   // extra player abilities to unlock
	Upgrades   map[string]int  `yaml:"upgrades"` // ability ID to number of upgrades
	Log        LogConfig       `yaml:"log"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dataset string `yaml:"dataset"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:       ModeInteractive,
		Player:     "knight",
		Enemy:      RandomEnemy,
		CostPolicy: combat.CostReject.String(),
		Log: LogConfig{
			Level: "info",
			File:  "skirmish.log",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SKIRMISH_* variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("SKIRMISH_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SKIRMISH_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v, ok := lookup("SKIRMISH_MODE"); ok && v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	str("SKIRMISH_PLAYER", &c.Player)
	str("SKIRMISH_ENEMY", &c.Enemy)
	str("SKIRMISH_COST_POLICY", &c.CostPolicy)
	str("SKIRMISH_LOG_LEVEL", &c.Log.Level)
	str("SKIRMISH_LOG_FILE", &c.Log.File)
	str("SKIRMISH_TELEMETRY_DATASET", &c.Telemetry.Dataset)
	if v, ok := lookup("SKIRMISH_TELEMETRY"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SKIRMISH_TELEMETRY: %w", err)
		}
		c.Telemetry.Enabled = enabled
	}
	return nil
}

// Validate checks values that do not need the game data. Combatant and ability
// IDs are checked against the registries by the caller.
func (c Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeInteractive, ModeAuto:
	default:
		errs = append(errs, fmt.Errorf("mode %q: want %q or %q", c.Mode, ModeInteractive, ModeAuto))
	}
	if c.Player == "" {
		errs = append(errs, errors.New("player is required"))
	}
	if c.Enemy == "" {
		errs = append(errs, errors.New("enemy is required"))
	}
	if _, err := combat.ParseCostPolicy(c.CostPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Level < 0 {
		errs = append(errs, fmt.Errorf("level %d is negative", c.Level))
	}
	for id, n := range c.Upgrades {
		if n < 0 {
			errs = append(errs, fmt.Errorf("upgrades[%s] = %d is negative", id, n))
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	return errors.Join(errs...)
}

// Policy returns the parsed cost policy. Call Validate first.
func (c Config) Policy() combat.CostPolicy {
	p, _ := combat.ParseCostPolicy(c.CostPolicy)
	return p
}
