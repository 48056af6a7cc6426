// Package config loads the rpcexport server configuration.
//
// Values come from, in increasing precedence: Default(), a TOML file, and
// RPCEXPORT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvAddr         = "RPCEXPORT_ADDR"
	EnvPath         = "RPCEXPORT_PATH"
	EnvMaxBodyBytes = "RPCEXPORT_MAX_BODY_BYTES"
	EnvMethodNaming = "RPCEXPORT_METHOD_NAMING"
	EnvNamespace    = "RPCEXPORT_NAMESPACE"
	EnvLogLevel     = "RPCEXPORT_LOG_LEVEL"
	EnvLogFormat    = "RPCEXPORT_LOG_FORMAT"
	EnvReadTimeout  = "RPCEXPORT_READ_TIMEOUT"
)

const (
	NamingExact      = "exact"
	NamingLowerCamel = "lower_camel"

	FormatConsole = "console"
	FormatJSON    = "json"
)

var ErrInvalid = errors.New("invalid config")

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Addr         string
	Path         string
	MaxBodyBytes int64
	// MethodNaming selects how Go method names map to wire names.
	MethodNaming string
	Namespace    string
	ReadTimeout  time.Duration
	Log          Log
}

func Default() Config {
	return Config{
		Addr:         ":8080",
		Path:         "/rpc",
		MaxBodyBytes: 1 << 20,
		MethodNaming: NamingLowerCamel,
		ReadTimeout:  10 * time.Second,
		Log:          Log{Level: "info", Format: FormatConsole},
	}
}

type fileConfig struct {
	Addr         string `toml:"addr"`
	Path         string `toml:"path"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	MethodNaming string `toml:"method_naming"`
	Namespace    string `toml:"namespace"`
	ReadTimeout  string `toml:"read_timeout"`
	Log          struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load reads the TOML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q: %w", path, undecoded[0].String(), ErrInvalid)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("path") {
		cfg.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("max_body_bytes") {
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}
	if meta.IsDefined("method_naming") {
		cfg.MethodNaming = strings.TrimSpace(raw.MethodNaming)
	}
	if meta.IsDefined("namespace") {
		cfg.Namespace = strings.TrimSpace(raw.Namespace)
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvPath)); v != "" {
		cfg.Path = v
	}
	if v := strings.TrimSpace(getenv(EnvMaxBodyBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxBodyBytes, err)
		}
		cfg.MaxBodyBytes = n
	}
	if v := strings.TrimSpace(getenv(EnvMethodNaming)); v != "" {
		cfg.MethodNaming = v
	}
	if v := strings.TrimSpace(getenv(EnvNamespace)); v != "" {
		cfg.Namespace = v
	}
	if v := strings.TrimSpace(getenv(EnvReadTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvReadTimeout, err)
		}
		cfg.ReadTimeout = d
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFormat)); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func Validate(cfg Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("addr is required: %w", ErrInvalid)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("path %q must start with /: %w", cfg.Path, ErrInvalid)
	}
	if cfg.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must be non-negative: %w", ErrInvalid)
	}
	switch cfg.MethodNaming {
	case NamingExact, NamingLowerCamel:
	default:
		return fmt.Errorf("method_naming %q: %w", cfg.MethodNaming, ErrInvalid)
	}
	switch cfg.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log.format %q: %w", cfg.Log.Format, ErrInvalid)
	}
	if cfg.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be non-negative: %w", ErrInvalid)
	}
	return nil
}
