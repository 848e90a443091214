// Package config loads application settings from defaults, an optional
// config.yaml and environment variables (SCHEDULER_WINDOW, SMTP_HOST, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	appErrors "todoreminder/internal/pkg/errors"
)

// Transport names accepted by notifier.transport.
const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
	TransportLine = "line"
)

// Config is the full application configuration.
type Config struct {
	Port           int       `mapstructure:"port" validate:"min=1,max=65535"`
	FirstSuperuser string    `mapstructure:"first_superuser" validate:"omitempty,email"`
	Log            Log       `mapstructure:"log"`
	Database       Database  `mapstructure:"database"`
	Scheduler      Scheduler `mapstructure:"scheduler"`
	Notifier       Notifier  `mapstructure:"notifier"`
	SMTP           SMTP      `mapstructure:"smtp"`
	Line           Line      `mapstructure:"line"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type Database struct {
	URL      string `mapstructure:"url" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=silent error warn info"`
}

// Scheduler configures the reminder scheduler. It is immutable once a
// scheduler instance has been built from it.
type Scheduler struct {
	// Window is how far ahead todos are eligible for a timer.
	Window time.Duration `mapstructure:"window" validate:"min=1s"`
	// HydrateInterval is the cadence of the background re-scan.
	HydrateInterval time.Duration `mapstructure:"hydrate_interval" validate:"min=1s"`
	// FireTimeout bounds the store reads and the send of one firing.
	FireTimeout time.Duration `mapstructure:"fire_timeout" validate:"min=1s"`
	// CommandBuffer is the capacity of the scheduler's command channel.
	CommandBuffer int `mapstructure:"command_buffer" validate:"min=0"`
}

type Notifier struct {
	Transport  string  `mapstructure:"transport" validate:"oneof=log smtp line"`
	RatePerSec float64 `mapstructure:"rate_per_sec" validate:"gt=0"`
	Burst      int     `mapstructure:"burst" validate:"min=1"`
}

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TLS      bool   `mapstructure:"tls"`
}

type Line struct {
	ChannelSecret string `mapstructure:"channel_secret"`
	ChannelToken  string `mapstructure:"channel_access_token"`
}

var defaults = map[string]any{
	"port":            8080,
	"first_superuser": "",

	"log.level":  "info",
	"log.format": "console",

	"database.url":       "todo.db",
	"database.log_level": "warn",

	"scheduler.window":           5 * time.Minute,
	"scheduler.hydrate_interval": 60 * time.Second,
	"scheduler.fire_timeout":     30 * time.Second,
	"scheduler.command_buffer":   64,

	"notifier.transport":    TransportLog,
	"notifier.rate_per_sec": 5.0,
	"notifier.burst":        5,

	"smtp.host":     "",
	"smtp.port":     587,
	"smtp.user":     "",
	"smtp.password": "",
	"smtp.from":     "",
	"smtp.tls":      true,

	"line.channel_secret":       "",
	"line.channel_access_token": "",
}

// Load builds the configuration from defaults, ./config.yaml (optional) and
// environment variables, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", appErrors.ErrValidation, err)
		}
	}
	return LoadFrom(v)
}

// LoadFrom applies defaults and environment bindings to v and decodes it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// CHANNEL_SECRET / CHANNEL_ACCESS_TOKEN are the names LINE's own tooling uses.
	_ = v.BindEnv("line.channel_secret", "LINE_CHANNEL_SECRET", "CHANNEL_SECRET")
	_ = v.BindEnv("line.channel_access_token", "LINE_CHANNEL_ACCESS_TOKEN", "CHANNEL_ACCESS_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", appErrors.ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and transport-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrValidation, err)
	}
	switch c.Notifier.Transport {
	case TransportSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return fmt.Errorf("%w: smtp transport requires smtp.host and smtp.from", appErrors.ErrValidation)
		}
	case TransportLine:
		if c.Line.ChannelSecret == "" || c.Line.ChannelToken == "" {
			return fmt.Errorf("%w: line transport requires CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN", appErrors.ErrValidation)
		}
	}
	return nil
}
