package config

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/mutker/atmena/internal/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "ATMENA"
	defaultConfigFile = "/etc/atmena.toml"
)

type Config struct {
	Listen       string       `mapstructure:"listen"`
	Database     string       `mapstructure:"database"`
	DefaultLimit uint64       `mapstructure:"default_limit"`
	LogLevel     string       `mapstructure:"log_level"`
	CORSOrigins  []string     `mapstructure:"cors_origins"`
	PIDFile      string       `mapstructure:"pid_file"`
	MQTT         MQTTConfig   `mapstructure:"mqtt"`
	Stream       StreamConfig `mapstructure:"stream"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	QoS         byte   `mapstructure:"qos"`

	// EmbeddedListen starts a broker inside the server when set.
	EmbeddedListen string `mapstructure:"embedded_listen"`
}

type StreamConfig struct {
	Queue int `mapstructure:"queue"`
}

var defaults = map[string]any{
	"listen":               ":3000",
	"database":             "/var/lib/atmena/atmena.db",
	"default_limit":        3000,
	"log_level":            string(LogLevelInfo),
	"cors_origins":         []string{"*"},
	"pid_file":             "/run/atmena.pid",
	"mqtt.enabled":         false,
	"mqtt.broker":          "localhost:1883",
	"mqtt.topic_prefix":    "atmena",
	"mqtt.client_id":       "",
	"mqtt.qos":             0,
	"mqtt.embedded_listen": "",
	"stream.queue":         16,
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the configuration file")
	fs.String("listen", "", "Address the HTTP server listens on")
	fs.String("database", "", "Path to the SQLite database")
	fs.Uint64("default-limit", 0, "Rows returned when a query sets no limit")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("pid-file", "", "Path to the PID file")
	fs.Bool("mqtt", false, "Publish readings to an MQTT broker")
	fs.String("mqtt-broker", "", "MQTT broker address (host:port)")
	fs.String("mqtt-embedded", "", "Run an MQTT broker on this address (host:port)")
}

var flagKeys = map[string]string{
	"listen":        "listen",
	"database":      "database",
	"default-limit": "default_limit",
	"log-level":     "log_level",
	"pid-file":      "pid_file",
	"mqtt":          "mqtt.enabled",
	"mqtt-broker":   "mqtt.broker",
	"mqtt-embedded": "mqtt.embedded_listen",
}

// Load reads configuration from defaults, an optional .env file, the TOML
// config file, ATMENA_* environment variables and changed flags, in
// increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	errFactory := errors.New()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errFactory.Wrap(errors.ErrBindFlags, err)
				}
			}
		}
	}

	if err := readConfigFile(v, configPath(fs)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "atmena-" + uuid.NewString()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configPath resolves the config file: --config, then ATMENA_CONFIG, then
// the system default. An explicit path must exist.
func configPath(fs *pflag.FlagSet) string {
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			return p
		}
	}
	if p := os.Getenv(envPrefix + "_CONFIG"); p != "" {
		return p
	}
	return ""
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return nil
		}
		path = defaultConfigFile
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, fmt.Errorf("%s: %w", path, err))
	}

	return nil
}

// Validate checks value ranges after loading.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch {
	case c.Listen == "":
		return invalidField(errFactory, "listen", c.Listen, "must not be empty")
	case c.Database == "":
		return invalidField(errFactory, "database", c.Database, "must not be empty")
	case c.MQTT.QoS > 1:
		return invalidField(errFactory, "mqtt.qos", c.MQTT.QoS, "must be 0 or 1")
	case c.MQTT.Enabled && c.MQTT.Broker == "":
		return invalidField(errFactory, "mqtt.broker", c.MQTT.Broker, "required when mqtt is enabled")
	case c.Stream.Queue < 1:
		return invalidField(errFactory, "stream.queue", c.Stream.Queue, "must be positive")
	}

	return nil
}

func invalidField(errFactory errors.Factory, field string, value any, reason string) error {
	return errFactory.WithData(errors.ErrInvalidConfig, &validationError{
		field:  field,
		value:  value,
		reason: reason,
	})
}

type validationError struct {
	field  string
	value  any
	reason string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.field, e.value, e.reason)
}

func (e *validationError) String() string { return e.Error() }
func (e *validationError) Field() string  { return e.field }
func (e *validationError) Value() any     { return e.value }
func (e *validationError) Reason() string { return e.reason }
