// Package config builds the immutable process configuration from defaults, an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sihayifrontend/domain"
	"sihayifrontend/service"

	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envHTTPPort          = "SERVICE_PORT_HTTP"
	envMetricsPort       = "METRICS_PORT"
	envMaxInFlight       = "MAX_IN_FLIGHT"
	envShutdownTimeoutMs = "SHUTDOWN_TIMEOUT_MS"
	envLogLevel          = "LOG_LEVEL"
	envShowQR            = "SHOW_QR"
	envConfigPath        = "CONFIG_PATH"
	envInstanceName      = "MDNS_INSTANCE_NAME"
	envHostAlias         = "MDNS_HOST_ALIAS"
	envProbeTimeoutMs    = "MDNS_PROBE_TIMEOUT_MS"
)

// Ports used by the two entry points.
const (
	StaticPort = 5253
	LANPort    = 80
)

// MDNSConfig holds the advertisement settings of the LAN variant.
type MDNSConfig struct {
	InstanceName string
	HostAlias    string
	ProbeTimeout time.Duration
}

// Config is built once at process entry and passed to every component.
// RootDirectory is always the directory of the running executable.
type Config struct {
	HTTPPort        int
	MetricsPort     int // 0 disables the metrics listener
	MaxInFlight     int // 0 means unlimited
	ShutdownTimeout time.Duration
	LogLevel        string
	ShowQR          bool
	MDNS            MDNSConfig
	RootDirectory   string
}

// Listener returns the listener description for this configuration.
func (c Config) Listener() domain.ListenerState {
	return domain.NewListenerState(c.HTTPPort, c.RootDirectory)
}

// StaticDefaults are the defaults of the plain static server.
func StaticDefaults() Config {
	return Config{
		HTTPPort:        StaticPort,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		MDNS: MDNSConfig{
			InstanceName: domain.DefaultInstanceName,
			HostAlias:    domain.DefaultHostAlias,
			ProbeTimeout: 1500 * time.Millisecond,
		},
	}
}

// LANDefaults are the defaults of the announcing server.
func LANDefaults() Config {
	c := StaticDefaults()
	c.HTTPPort = LANPort
	c.ShowQR = true
	return c
}

// yamlConfig mirrors the env variables; absent keys keep the defaults.
type yamlConfig struct {
	HTTPPort          *int    `yaml:"http_port"`
	MetricsPort       *int    `yaml:"metrics_port"`
	MaxInFlight       *int    `yaml:"max_in_flight"`
	ShutdownTimeoutMs *int    `yaml:"shutdown_timeout_ms"`
	LogLevel          *string `yaml:"log_level"`
	ShowQR            *bool   `yaml:"show_qr"`
	MDNS              struct {
		InstanceName   *string `yaml:"instance_name"`
		HostAlias      *string `yaml:"host_alias"`
		ProbeTimeoutMs *int    `yaml:"probe_timeout_ms"`
	} `yaml:"mdns"`
}

// executable is replaced in tests.
var executable = os.Executable

// ExecutableDir returns the absolute directory holding the running binary, symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir, err := filepath.Abs(filepath.Dir(exe))
	if err != nil {
		return "", fmt.Errorf("resolve executable dir: %w", err)
	}
	return dir, nil
}

// LoadConfig starts from defaults, applies the YAML file at CONFIG_PATH (optional) and then env overrides.
// The served directory cannot be overridden.
func LoadConfig(defaults Config) (*Config, error) {
	cfg := defaults

	if path := strings.TrimSpace(os.Getenv(envConfigPath)); path != "" {
		raw, err := loadYAMLConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		applyYAML(&cfg, raw)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	root, err := ExecutableDir()
	if err != nil {
		return nil, err
	}
	cfg.RootDirectory = root

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func applyYAML(cfg *Config, raw *yamlConfig) {
	cfg.HTTPPort = service.ValueOr(raw.HTTPPort, cfg.HTTPPort)
	cfg.MetricsPort = service.ValueOr(raw.MetricsPort, cfg.MetricsPort)
	cfg.MaxInFlight = service.ValueOr(raw.MaxInFlight, cfg.MaxInFlight)
	cfg.LogLevel = service.ValueOr(raw.LogLevel, cfg.LogLevel)
	cfg.ShowQR = service.ValueOr(raw.ShowQR, cfg.ShowQR)
	cfg.MDNS.InstanceName = service.ValueOr(raw.MDNS.InstanceName, cfg.MDNS.InstanceName)
	cfg.MDNS.HostAlias = service.ValueOr(raw.MDNS.HostAlias, cfg.MDNS.HostAlias)
	if raw.ShutdownTimeoutMs != nil {
		cfg.ShutdownTimeout = time.Duration(*raw.ShutdownTimeoutMs) * time.Millisecond
	}
	if raw.MDNS.ProbeTimeoutMs != nil {
		cfg.MDNS.ProbeTimeout = time.Duration(*raw.MDNS.ProbeTimeoutMs) * time.Millisecond
	}
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.HTTPPort, err = envInt(envHTTPPort, cfg.HTTPPort); err != nil {
		return err
	}
	if cfg.MetricsPort, err = envInt(envMetricsPort, cfg.MetricsPort); err != nil {
		return err
	}
	if cfg.MaxInFlight, err = envInt(envMaxInFlight, cfg.MaxInFlight); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = envMillis(envShutdownTimeoutMs, cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.MDNS.ProbeTimeout, err = envMillis(envProbeTimeoutMs, cfg.MDNS.ProbeTimeout); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv(envShowQR)); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fmt.Errorf("invalid %s: %w", envShowQR, perr)
		}
		cfg.ShowQR = b
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(envInstanceName)); v != "" {
		cfg.MDNS.InstanceName = v
	}
	if v := strings.TrimSpace(os.Getenv(envHostAlias)); v != "" {
		cfg.MDNS.HostAlias = v
	}
	return nil
}

func envInt(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func envMillis(name string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", envHTTPPort, c.HTTPPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("%s must be 0-65535, got %d", envMetricsPort, c.MetricsPort)
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.HTTPPort {
		return fmt.Errorf("%s must differ from %s", envMetricsPort, envHTTPPort)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("%s must not be negative, got %d", envMaxInFlight, c.MaxInFlight)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be positive", envShutdownTimeoutMs)
	}
	if c.MDNS.ProbeTimeout <= 0 {
		return fmt.Errorf("%s must be positive", envProbeTimeoutMs)
	}
	if strings.TrimSpace(c.MDNS.InstanceName) == "" {
		return fmt.Errorf("%s must not be empty", envInstanceName)
	}
	if strings.TrimSpace(c.MDNS.HostAlias) == "" {
		return fmt.Errorf("%s must not be empty", envHostAlias)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s must be debug|info|warn|error, got %q", envLogLevel, c.LogLevel)
	}
	if c.RootDirectory == "" || !filepath.IsAbs(c.RootDirectory) {
		return fmt.Errorf("root directory must be absolute, got %q", c.RootDirectory)
	}
	return nil
}
