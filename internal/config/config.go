// Package config loads the desktop app settings: built-in defaults, an
// optional YAML file, an optional .env file and ROULETTE_* variables, in
// that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/roulette-desktop/internal/chart"
	"github.com/MJE43/roulette-desktop/internal/roulette"
)

const EnvPrefix = "ROULETTE_"

const (
	RNGCrypto = "crypto"
	RNGSeeded = "seeded"
)

type Config struct {
	Game    GameConfig    `yaml:"game"`
	Chart   chart.Options `yaml:"chart"`
	RNG     RNGConfig     `yaml:"rng"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	SpinLog SpinLogConfig `yaml:"spinlog"`
}

// GameConfig holds the table settings. An empty DefaultSelector means the
// kind's default selector (red, 0 or even).
type GameConfig struct {
	StartingBalance  int64         `yaml:"starting_balance"`
	DefaultStake     int64         `yaml:"default_stake"`
	DefaultKind      string        `yaml:"default_kind"`
	DefaultSelector  string        `yaml:"default_selector"`
	RevealDelay      time.Duration `yaml:"reveal_delay"`
	SimulationRounds int           `yaml:"simulation_rounds"`
}

// RNGConfig selects the outcome source. Seeded mode replays the HMAC stream
// for the given seeds starting at nonce 1.
type RNGConfig struct {
	Mode       string `yaml:"mode"`
	ServerSeed string `yaml:"server_seed"`
	ClientSeed string `yaml:"client_seed"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Token   string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	File  bool   `yaml:"file"`
}

type SpinLogConfig struct {
	FlushSize int `yaml:"flush_size"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Game: GameConfig{
			StartingBalance:  1000,
			DefaultStake:     10,
			DefaultKind:      string(roulette.KindColor),
			RevealDelay:      3 * time.Second,
			SimulationRounds: 100,
		},
		Chart: chart.Options{
			Width:  chart.DefaultWidth,
			Height: chart.DefaultHeight,
		},
		RNG:     RNGConfig{Mode: RNGCrypto},
		HTTP:    HTTPConfig{Enabled: true, Port: 17888},
		Log:     LogConfig{Level: "info", Dir: "logs"},
		SpinLog: SpinLogConfig{FlushSize: 50},
	}
}

// Load builds the configuration. yamlPath and envPath are optional; a
// missing file is not an error.
func Load(yamlPath, envPath string) (Config, error) {
	cfg := Default()
	if yamlPath != "" {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return Config{}, err
		}
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	i64 := func(key string, dst *int64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	integer := func(key string, dst *int) {
		n := int64(*dst)
		i64(key, &n)
		*dst = int(n)
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	i64("STARTING_BALANCE", &c.Game.StartingBalance)
	i64("STAKE", &c.Game.DefaultStake)
	str("BET_KIND", &c.Game.DefaultKind)
	str("SELECTOR", &c.Game.DefaultSelector)
	if v, ok := os.LookupEnv(EnvPrefix + "REVEAL_DELAY"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREVEAL_DELAY: %w", EnvPrefix, err))
		} else {
			c.Game.RevealDelay = d
		}
	}
	integer("SIM_ROUNDS", &c.Game.SimulationRounds)
	str("RNG_MODE", &c.RNG.Mode)
	str("SERVER_SEED", &c.RNG.ServerSeed)
	str("CLIENT_SEED", &c.RNG.ClientSeed)
	boolean("HTTP_ENABLED", &c.HTTP.Enabled)
	integer("HTTP_PORT", &c.HTTP.Port)
	str("HTTP_TOKEN", &c.HTTP.Token)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_DIR", &c.Log.Dir)
	boolean("LOG_FILE", &c.Log.File)
	integer("SPINLOG_FLUSH_SIZE", &c.SpinLog.FlushSize)

	return errors.Join(errs...)
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Game.StartingBalance <= 0 {
		errs = append(errs, fmt.Errorf("game.starting_balance must be > 0, got %d", c.Game.StartingBalance))
	}
	if c.Game.RevealDelay < 0 {
		errs = append(errs, fmt.Errorf("game.reveal_delay must be >= 0, got %s", c.Game.RevealDelay))
	}
	if c.Game.SimulationRounds < 0 {
		errs = append(errs, fmt.Errorf("game.simulation_rounds must be >= 0, got %d", c.Game.SimulationRounds))
	}
	if _, err := c.DefaultBet(); err != nil {
		errs = append(errs, err)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 || c.Chart.Margin < 0 {
		errs = append(errs, fmt.Errorf("chart dimensions must be >= 0"))
	}
	switch c.RNG.Mode {
	case RNGCrypto:
	case RNGSeeded:
		if c.RNG.ServerSeed == "" {
			errs = append(errs, fmt.Errorf("rng.server_seed is required in seeded mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("rng.mode must be %q or %q, got %q", RNGCrypto, RNGSeeded, c.RNG.Mode))
	}
	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", c.HTTP.Port))
	}
	if c.SpinLog.FlushSize < 0 {
		errs = append(errs, fmt.Errorf("spinlog.flush_size must be >= 0, got %d", c.SpinLog.FlushSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DefaultBet returns the bet the panel starts with.
func (c Config) DefaultBet() (roulette.Bet, error) {
	kind, err := roulette.ParseKind(c.Game.DefaultKind)
	if err != nil {
		return roulette.Bet{}, fmt.Errorf("game.default_kind: %w", err)
	}
	sel := c.Game.DefaultSelector
	if sel == "" {
		sel = roulette.DefaultSelector(kind)
	}
	sel, err = roulette.NormalizeSelector(kind, sel)
	if err != nil {
		return roulette.Bet{}, fmt.Errorf("game.default_selector: %w", err)
	}
	return roulette.Bet{Kind: kind, Selector: sel, Amount: c.Game.DefaultStake}, nil
}

// HTTPAddr is the loopback address of the local API.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.HTTP.Port)
}
