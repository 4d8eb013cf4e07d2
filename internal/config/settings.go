package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wagiedev/procsup-go/internal/session"
	"github.com/wagiedev/procsup-go/internal/socket"
)

// EnvPrefix prefixes environment overrides, e.g. PROCSUP_EXCHANGE_TIMEOUT
// for exchange.timeout.
const EnvPrefix = "PROCSUP"

// Settings is the file and environment configuration of the procsup CLI.
type Settings struct {
	Exchange ExchangeSettings `mapstructure:"exchange"`
	Process  ProcessSettings  `mapstructure:"process"`
	Socket   SocketSettings   `mapstructure:"socket"`
	Logging  LoggingSettings  `mapstructure:"logging"`
}

// ExchangeSettings controls pipe exchanges.
type ExchangeSettings struct {
	// Timeout bounds each exchange (0 = no deadline).
	Timeout time.Duration `mapstructure:"timeout"`
	// GracePeriod is the wait between terminate and kill.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// Boundary is "exit" or "line".
	Boundary        string `mapstructure:"boundary"`
	CloseStdin      bool   `mapstructure:"close_stdin"`
	PreservePartial bool   `mapstructure:"preserve_partial"`
}

// ProcessSettings controls how children are spawned.
type ProcessSettings struct {
	Cwd         string   `mapstructure:"cwd"`
	SearchPaths []string `mapstructure:"search_paths"`

	// Env holds NAME=value overrides. A list rather than a map because
	// viper folds map keys to lower case.
	Env []string `mapstructure:"env"`
}

// EnvMap returns Env as a map of overrides. Entries without '=' are skipped.
func (p ProcessSettings) EnvMap() map[string]string {
	if len(p.Env) == 0 {
		return nil
	}

	env := make(map[string]string, len(p.Env))

	for _, kv := range p.Env {
		if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
			env[name] = value
		}
	}

	return env
}

// SocketSettings addresses a child's line server.
type SocketSettings struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// LoggingSettings controls CLI log output.
type LoggingSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// Default returns Settings with sensible default values.
func Default() *Settings {
	return &Settings{
		Exchange: ExchangeSettings{
			Timeout:         0,
			GracePeriod:     session.DefaultGracePeriod,
			Boundary:        session.BoundaryExit.String(),
			CloseStdin:      true,
			PreservePartial: true,
		},
		Process: ProcessSettings{
			SearchPaths: []string{},
			Env:         []string{},
		},
		Socket: SocketSettings{
			Host:           "localhost",
			Port:           12345,
			ConnectTimeout: socket.DefaultConnectTimeout,
			ReadTimeout:    0,
		},
		Logging: LoggingSettings{
			Level: "warn",
		},
	}
}

// SetDefaults registers every default with v so they apply even without
// a config file.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("exchange.timeout", defaults.Exchange.Timeout)
	v.SetDefault("exchange.grace_period", defaults.Exchange.GracePeriod)
	v.SetDefault("exchange.boundary", defaults.Exchange.Boundary)
	v.SetDefault("exchange.close_stdin", defaults.Exchange.CloseStdin)
	v.SetDefault("exchange.preserve_partial", defaults.Exchange.PreservePartial)

	v.SetDefault("process.cwd", defaults.Process.Cwd)
	v.SetDefault("process.search_paths", defaults.Process.SearchPaths)
	v.SetDefault("process.env", defaults.Process.Env)

	v.SetDefault("socket.host", defaults.Socket.Host)
	v.SetDefault("socket.port", defaults.Socket.Port)
	v.SetDefault("socket.connect_timeout", defaults.Socket.ConnectTimeout)
	v.SetDefault("socket.read_timeout", defaults.Socket.ReadTimeout)

	v.SetDefault("logging.level", defaults.Logging.Level)
}

// NewViper returns a viper instance with defaults, the PROCSUP_ environment
// prefix, and the config file search path set up. configFile, when not
// empty, replaces the search.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	// exchange.timeout is read from PROCSUP_EXCHANGE_TIMEOUT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (if any) into v, unmarshals the result and
// validates it. A missing config file in the search path is not an error;
// an explicitly named one is.
func Load(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if errs := s.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &s, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "procsup")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".procsup"
	}

	return filepath.Join(home, ".config", "procsup")
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// LogLevel returns the slog level named by Logging.Level.
func (s *Settings) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Logging.Level)); err != nil {
		return slog.LevelWarn
	}

	return level
}

// Options converts the settings into runtime Options. Validate first:
// an unknown boundary falls back to exit.
func (s *Settings) Options(log *slog.Logger) *Options {
	boundary, _ := ParseBoundary(s.Exchange.Boundary)

	o := DefaultOptions()
	o.Logger = log
	o.Cwd = s.Process.Cwd
	o.Env = s.Process.EnvMap()
	o.SearchPaths = s.Process.SearchPaths
	o.Timeout = s.Exchange.Timeout
	o.GracePeriod = s.Exchange.GracePeriod
	o.Boundary = boundary
	o.CloseStdin = s.Exchange.CloseStdin
	o.PreservePartial = s.Exchange.PreservePartial
	o.SocketHost = s.Socket.Host
	o.SocketPort = s.Socket.Port
	o.ConnectTimeout = s.Socket.ConnectTimeout
	o.ReadTimeout = s.Socket.ReadTimeout

	return o
}

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "exchange.timeout")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))

	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}

	return sb.String()
}

// Validate checks the Settings for invalid values and returns every
// failure found.
func (s *Settings) Validate() []ValidationError {
	var errs []ValidationError

	if s.Exchange.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field: "exchange.timeout", Value: s.Exchange.Timeout, Message: "must be zero or positive",
		})
	}

	if s.Exchange.GracePeriod < 0 {
		errs = append(errs, ValidationError{
			Field: "exchange.grace_period", Value: s.Exchange.GracePeriod, Message: "must be zero or positive",
		})
	}

	if _, err := ParseBoundary(s.Exchange.Boundary); err != nil {
		errs = append(errs, ValidationError{
			Field:   "exchange.boundary",
			Value:   s.Exchange.Boundary,
			Message: "must be one of " + strings.Join(ValidBoundaries(), ", "),
		})
	}

	if s.Process.Cwd != "" {
		if info, err := os.Stat(s.Process.Cwd); err != nil || !info.IsDir() {
			errs = append(errs, ValidationError{
				Field: "process.cwd", Value: s.Process.Cwd, Message: "must be an existing directory",
			})
		}
	}

	for _, kv := range s.Process.Env {
		if name, _, ok := strings.Cut(kv, "="); !ok || name == "" {
			errs = append(errs, ValidationError{
				Field: "process.env", Value: kv, Message: "must have the form NAME=value",
			})
		}
	}

	if s.Socket.Port < 0 || s.Socket.Port > 65535 {
		errs = append(errs, ValidationError{
			Field: "socket.port", Value: s.Socket.Port, Message: "must be between 0 and 65535",
		})
	}

	if s.Socket.ConnectTimeout < 0 {
		errs = append(errs, ValidationError{
			Field: "socket.connect_timeout", Value: s.Socket.ConnectTimeout, Message: "must be zero or positive",
		})
	}

	if s.Socket.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Field: "socket.read_timeout", Value: s.Socket.ReadTimeout, Message: "must be zero or positive",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(s.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   s.Logging.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}

	return errs
}
