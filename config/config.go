// Package config loads the SDK configuration from defaults, an optional
// config file, a .env file and AVATAX_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "AVATAX"
	// DefaultCompanyCode is the company addressed when none is configured.
	DefaultCompanyCode = "DEFAULT"
)

// Config holds the settings needed to reach the tax service.
type Config struct {
	BaseURL               string `mapstructure:"base_url" validate:"required,url"`
	AccountID             string `mapstructure:"account_id" validate:"required"`
	CompanyCode           string `mapstructure:"company_code" validate:"required"`
	LicenseKey            string `mapstructure:"license_key" validate:"required"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" validate:"gte=0"`
	UserAgent             string `mapstructure:"user_agent"`
	LogLevel              string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat             string `mapstructure:"log_format" validate:"oneof=text json"`
	ThrottleRPS           int    `mapstructure:"throttle_rps" validate:"gte=0"`
	ThrottleBurst         int    `mapstructure:"throttle_burst" validate:"gte=0"`

	Timeout        time.Duration `mapstructure:"-"`
	ConnectTimeout time.Duration `mapstructure:"-"`
}

var defaults = map[string]any{
	"base_url":                "https://sandbox-rest.avatax.com",
	"account_id":              "",
	"company_code":            DefaultCompanyCode,
	"license_key":             "",
	"timeout_seconds":         30,
	"connect_timeout_seconds": 10,
	"user_agent":              "",
	"log_level":               "info",
	"log_format":              "text",
	"throttle_rps":            0,
	"throttle_burst":          0,
}

// Option configures Load.
type Option func(*options)

type options struct {
	configFile string
	envFile    string
}

// WithConfigFile reads settings from path. The format follows the file
// extension (yaml, json, toml, ...).
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithEnvFile reads AVATAX_* settings from the dotenv file at path instead
// of ./.env. A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// Load reads and validates the configuration.
func Load(optFns ...Option) (*Config, error) {
	opts := options{envFile: ".env"}
	for _, opt := range optFns {
		opt(&opts)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	dotenv, err := readEnvFile(opts.envFile)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(dotenv); err != nil {
		return nil, fmt.Errorf("merge env file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second

	return &cfg, nil
}

// readEnvFile returns the AVATAX_* entries of a dotenv file keyed by
// config key. The process environment is left untouched.
func readEnvFile(path string) (map[string]any, error) {
	env, err := godotenv.Read(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read env file: %w", err)
	}

	out := make(map[string]any, len(env))
	for k, val := range env {
		if key, ok := strings.CutPrefix(k, EnvPrefix+"_"); ok {
			out[strings.ToLower(key)] = val
		}
	}

	return out, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		verrors, ok := errors.AsType[validator.ValidationErrors](err)
		if !ok {
			return err
		}

		msgs := make([]string, len(verrors))
		for i, verr := range verrors {
			msgs[i] = fmt.Sprintf("%s: failed %q", verr.Field(), verr.Tag())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// Logger builds a logger writing to w at the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}

	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
