// Package config loads settings from defaults, a TOML file, a .env file and
// TRANSITMAP_ environment variables, each overriding the one before.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TRANSITMAP_"

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "transitmap.toml"

// Config holds all settings.
type Config struct {
	Render RenderConfig `toml:"render"`
	Export ExportConfig `toml:"export"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

type RenderConfig struct {
	RightHandTraffic bool    `toml:"right_hand_traffic"`
	Stubs            bool    `toml:"stubs"`
	Curviness        float64 `toml:"curviness"`
	// ComponentsDir holds component files that override the built-ins.
	ComponentsDir string `toml:"components_dir"`
}

type ExportConfig struct {
	// ChromePath is the browser used for png and jpeg. Empty finds one on
	// the PATH.
	ChromePath string   `toml:"chrome_path"`
	Scale      float64  `toml:"scale"`
	Timeout    Duration `toml:"timeout"`
}

type StoreConfig struct {
	// DSN is a sqlite:// or postgres:// URL, or a plain SQLite file path.
	DSN string `toml:"dsn"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as "30s" in files and variables.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Render: RenderConfig{RightHandTraffic: true, Stubs: true, Curviness: 0.3},
		Export: ExportConfig{Scale: 2, Timeout: Duration{30 * time.Second}},
		Store:  StoreConfig{DSN: "transitmap.db"},
		Server: ServerConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path names a TOML file; when empty,
// DefaultFile is used if present. dotenv names a .env file that may be
// missing.
func Load(path, dotenv string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", file, err)
		}
	case path == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	if dotenv != "" {
		vars, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", dotenv, err)
		}
		if err := cfg.apply(func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		}); err != nil {
			return nil, fmt.Errorf("config %s: %w", dotenv, err)
		}
	}

	if err := cfg.apply(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// apply overrides settings from a variable lookup.
func (c *Config) apply(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	number := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	boolean("RENDER_RIGHT_HAND_TRAFFIC", &c.Render.RightHandTraffic)
	boolean("RENDER_STUBS", &c.Render.Stubs)
	number("RENDER_CURVINESS", &c.Render.Curviness)
	str("RENDER_COMPONENTS_DIR", &c.Render.ComponentsDir)
	str("EXPORT_CHROME_PATH", &c.Export.ChromePath)
	number("EXPORT_SCALE", &c.Export.Scale)
	if v, ok := lookup(EnvPrefix + "EXPORT_TIMEOUT"); ok {
		if err := c.Export.Timeout.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%sEXPORT_TIMEOUT: %w", EnvPrefix, err))
		}
	}
	str("STORE_DSN", &c.Store.DSN)
	str("SERVER_ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "SERVER_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	str("LOG_LEVEL", &c.Log.Level)
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Curviness <= 0 {
		errs = append(errs, fmt.Errorf("render.curviness must be positive, got %v", c.Render.Curviness))
	}
	if c.Export.Scale <= 0 {
		errs = append(errs, fmt.Errorf("export.scale must be positive, got %v", c.Export.Scale))
	}
	if c.Export.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("export.timeout must be positive, got %v", c.Export.Timeout))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
