package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxBodyBytes     = 2 << 20
	defaultLanguage         = "zh-CN"
	defaultFallbackLanguage = "en-US"
	defaultLogLevel         = "info"
)

var defaultLanguages = []string{"zh-CN", "ja-JP", "en-US"}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server ServerConfig
	I18n   I18nConfig
	Log    LogConfig
	Dev    bool
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// I18nConfig selects the message catalogs.
type I18nConfig struct {
	DefaultLanguage  string
	FallbackLanguage string
	Languages        []string
	// LocalesDir overrides the embedded catalogs when set.
	LocalesDir string
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run injects PORT
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "PAGEMAKER_PORT", port)

	languages := csvWithDefault(lookup, "PAGEMAKER_LANGUAGES")
	if len(languages) == 0 {
		languages = append([]string(nil), defaultLanguages...)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     durationWithDefault(lookup, "PAGEMAKER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "PAGEMAKER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "PAGEMAKER_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout:  durationWithDefault(lookup, "PAGEMAKER_REQUEST_TIMEOUT", defaultRequestTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "PAGEMAKER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			MaxBodyBytes:    int64WithDefault(lookup, "PAGEMAKER_MAX_BODY_BYTES", defaultMaxBodyBytes),
		},
		I18n: I18nConfig{
			DefaultLanguage:  stringWithDefault(lookup, "PAGEMAKER_DEFAULT_LANGUAGE", defaultLanguage),
			FallbackLanguage: stringWithDefault(lookup, "PAGEMAKER_FALLBACK_LANGUAGE", defaultFallbackLanguage),
			Languages:        languages,
			LocalesDir:       stringWithDefault(lookup, "PAGEMAKER_LOCALES_DIR", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Dev: boolWithDefault(lookup, "PAGEMAKER_DEV", false),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var fields []string
	if n, err := strconv.Atoi(cfg.Server.Port); err != nil || n <= 0 || n > 65535 {
		fields = append(fields, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		fields = append(fields, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		fields = append(fields, "Server.WriteTimeout")
	}
	if cfg.Server.IdleTimeout <= 0 {
		fields = append(fields, "Server.IdleTimeout")
	}
	if cfg.Server.RequestTimeout <= 0 {
		fields = append(fields, "Server.RequestTimeout")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		fields = append(fields, "Server.MaxBodyBytes")
	}
	if !containsFold(cfg.I18n.Languages, cfg.I18n.DefaultLanguage) {
		fields = append(fields, "I18n.DefaultLanguage")
	}
	if !containsFold(cfg.I18n.Languages, cfg.I18n.FallbackLanguage) {
		fields = append(fields, "I18n.FallbackLanguage")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
