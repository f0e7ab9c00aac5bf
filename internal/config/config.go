package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/sizewatch/internal/errors"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"sizewatch.yaml", "sizewatch.yml", "sizewatch.json"}

const (
	// DefaultAddress is the default listen address.
	DefaultAddress = ":7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "sizewatch"
)

// Config represents a sizewatch configuration file.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" yaml:"server"`

	// Session contains per-connection configuration.
	Session SessionConfig `json:"session" yaml:"session"`

	// Detector contains listener registration defaults.
	Detector DetectorConfig `json:"detector" yaml:"detector"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address           string   `json:"address,omitempty" yaml:"address,omitempty"`
	ReadHeaderTimeout Duration `json:"readHeaderTimeout,omitempty" yaml:"readHeaderTimeout,omitempty"`
	ShutdownTimeout   Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// AllowedOrigins restricts websocket upgrades. Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`

	// MaxSessions caps concurrent sessions. Zero means no limit.
	MaxSessions int `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
}

// SessionConfig contains websocket session settings.
type SessionConfig struct {
	HandshakeTimeout  Duration `json:"handshakeTimeout,omitempty" yaml:"handshakeTimeout,omitempty"`
	ReadTimeout       Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout      Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	HeartbeatInterval Duration `json:"heartbeatInterval,omitempty" yaml:"heartbeatInterval,omitempty"`

	// IdleTimeout closes sessions that sent nothing, heartbeats included,
	// for this long. Negative disables it.
	IdleTimeout Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`

	SendQueue int `json:"sendQueue,omitempty" yaml:"sendQueue,omitempty"`
	MaxNodes  int `json:"maxNodes,omitempty" yaml:"maxNodes,omitempty"`
}

// DetectorConfig contains listener registration defaults.
type DetectorConfig struct {
	// CallOnAdd invokes a listener once right after it is registered.
	CallOnAdd bool `json:"callOnAdd" yaml:"callOnAdd"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           DefaultAddress,
			ReadHeaderTimeout: Duration(10 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
		},
		Session: SessionConfig{
			HandshakeTimeout:  Duration(5 * time.Second),
			ReadTimeout:       Duration(60 * time.Second),
			WriteTimeout:      Duration(10 * time.Second),
			HeartbeatInterval: Duration(30 * time.Second),
			IdleTimeout:       Duration(5 * time.Minute),
			SendQueue:         256,
			MaxNodes:          10000,
		},
		Detector: DetectorConfig{
			CallOnAdd: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads configuration from the first of ConfigFileNames found in dir.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("E160").
			WithDetail("No sizewatch.yaml or sizewatch.json found in " + dir).
			WithSuggestion("Create sizewatch.yaml or pass --config")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E160").WithDetail(path + " does not exist")
		}
		return nil, errors.New("E161").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E161").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E161").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E161").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = d.Server.ReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Session.HandshakeTimeout == 0 {
		c.Session.HandshakeTimeout = d.Session.HandshakeTimeout
	}
	if c.Session.ReadTimeout == 0 {
		c.Session.ReadTimeout = d.Session.ReadTimeout
	}
	if c.Session.WriteTimeout == 0 {
		c.Session.WriteTimeout = d.Session.WriteTimeout
	}
	if c.Session.HeartbeatInterval == 0 {
		c.Session.HeartbeatInterval = d.Session.HeartbeatInterval
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = d.Session.IdleTimeout
	}
	if c.Session.SendQueue == 0 {
		c.Session.SendQueue = d.Session.SendQueue
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.Session.HeartbeatInterval >= c.Session.ReadTimeout:
		return errors.New("E162").
			WithDetail("session.heartbeatInterval must be shorter than session.readTimeout")
	case c.Session.IdleTimeout > 0 && c.Session.IdleTimeout <= c.Session.HeartbeatInterval:
		return errors.New("E162").
			WithDetail("session.idleTimeout must be longer than session.heartbeatInterval")
	case c.Session.SendQueue < 0:
		return errors.New("E162").WithDetail("session.sendQueue must not be negative")
	case c.Session.MaxNodes < 0 || c.Server.MaxSessions < 0:
		return errors.New("E162").WithDetail("limits must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E162").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("E162").
			WithDetailf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

func find(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
