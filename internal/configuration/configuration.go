package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quizrec/internal/catalog"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. QUIZREC_SERVER_ADDRESS.
const EnvPrefix = "QUIZREC"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Server   ServerConfig   `mapstructure:"server"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Events   EventsConfig   `mapstructure:"events"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level is one of debug, info, warn, warning, error (case-insensitive).
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address to listen on, e.g. ":8080".
	Address string `mapstructure:"address"`
	// Static is an optional directory served under /static/.
	Static string `mapstructure:"static"`
	// SessionCookie names the cookie that carries the quiz session id.
	SessionCookie string `mapstructure:"session_cookie"`
	// ReadTimeout and WriteTimeout default to 5s.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// QuizConfig selects the rules and the catalog to recommend from.
type QuizConfig struct {
	// Preset is the name of a built-in preset. Ignored when Rules is set.
	Preset string `mapstructure:"preset"`
	// Rules is a path to a preset file.
	Rules string `mapstructure:"rules"`
	// Catalog is a path to a JSON or YAML product list.
	Catalog string `mapstructure:"catalog"`
	// CatalogFormat is "products" (default) or "paddles".
	CatalogFormat catalog.Format `mapstructure:"catalog_format"`
	// DefaultLimit caps results when a request does not ask for a limit.
	DefaultLimit int `mapstructure:"default_limit"`
	// Workers bounds parallel scoring; 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// SessionsConfig tunes the in-memory quiz session store.
type SessionsConfig struct {
	// Length is the number of submissions kept per session (default 10).
	Length int `mapstructure:"length"`
	// TTL after which idle sessions are dropped (default 30m).
	TTL time.Duration `mapstructure:"ttl"`
	// CleanInterval between expiry passes (default 1m).
	CleanInterval time.Duration `mapstructure:"clean_interval"`
}

// EventsConfig defines the recommendation dataset.
type EventsConfig struct {
	// File is the dataset path. Recording is off when empty.
	File string `mapstructure:"file"`
	// Size is the maximal file size in megabytes (default 100).
	Size int `mapstructure:"size"`
	// Amount of rotated files kept (default 20).
	Amount int `mapstructure:"amount"`
}

// Validate checks every section and fills in defaults. It returns the first error.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Quiz.Validate(); err != nil {
		return err
	}

	if err := c.Sessions.Validate(); err != nil {
		return err
	}

	return c.Events.Validate()
}

func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New("server.address: must be specified")
	}
	if s.SessionCookie == "" {
		s.SessionCookie = "quiz_session"
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 5 * time.Second
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 5 * time.Second
	}

	return nil
}

func (q *QuizConfig) Validate() error {
	if q.Preset == "" && q.Rules == "" {
		return errors.New("quiz: preset or rules must be specified")
	}
	if q.Catalog == "" {
		return errors.New("quiz.catalog: must be specified")
	}

	switch q.CatalogFormat {
	case "":
		q.CatalogFormat = catalog.FormatProducts
	case catalog.FormatProducts, catalog.FormatPaddles:
	default:
		return fmt.Errorf("quiz.catalog_format: unsupported format '%s'", q.CatalogFormat)
	}

	if q.DefaultLimit < 0 {
		return errors.New("quiz.default_limit: must not be negative")
	}
	if q.Workers < 0 {
		return errors.New("quiz.workers: must not be negative")
	}

	return nil
}

func (s *SessionsConfig) Validate() error {
	if s.Length < 0 {
		return errors.New("sessions.length: must not be negative")
	}
	if s.Length == 0 {
		s.Length = 10
	}
	if s.TTL <= 0 {
		s.TTL = 30 * time.Minute
	}
	if s.CleanInterval <= 0 {
		s.CleanInterval = time.Minute
	}

	return nil
}

func (e *EventsConfig) Validate() error {
	if e.Amount == 0 {
		e.Amount = 20
	}

	if e.Size == 0 {
		e.Size = 100
	}

	return nil
}

// LoadConfig reads a YAML configuration file. Environment variables prefixed
// with EnvPrefix override file values, with dots replaced by underscores.
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
