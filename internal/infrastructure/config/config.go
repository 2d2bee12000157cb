package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Glowdeck.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Audio       AudioConfig       `yaml:"audio"`
	Persistence PersistenceConfig `yaml:"persistence"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
}

// ServerTimeoutConfig contains HTTP timeout settings, in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// HardwareConfig contains LED PWM output settings.
type HardwareConfig struct {
	// Pin is the GPIO pin driving the LED, by periph name (BCM numbering).
	// Example: "GPIO18" (hardware PWM capable on Raspberry Pi).
	Pin string `yaml:"pin"`

	// PWMFrequency is the hardware PWM frequency in Hz.
	PWMFrequency int `yaml:"pwm_frequency"`

	// SoftPWMPeriodMs is the software PWM period in milliseconds,
	// used by the fallback driver when hardware PWM is unavailable.
	SoftPWMPeriodMs int `yaml:"soft_pwm_period_ms"`

	// DryRun forces the no-op driver, skipping all hardware probes.
	// Useful for development on machines without GPIO.
	DryRun bool `yaml:"dry_run"`
}

// AudioConfig contains audio playback settings.
type AudioConfig struct {
	// Enabled controls whether the audio device is initialised at startup.
	// When false, track and volume requests are validated and recorded
	// but produce no sound.
	Enabled bool `yaml:"enabled"`

	// TrackDir is the directory containing playable track files.
	TrackDir string `yaml:"track_dir"`

	// SampleRate is the output sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`
}

// PersistenceConfig contains message persistence settings.
type PersistenceConfig struct {
	// Backend selects the persistence implementation: "memory", "file" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the file or database path for durable backends.
	Path string `yaml:"path"`

	// WALMode enables Write-Ahead Logging for the sqlite backend.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the state announcer.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// HeartbeatInterval is how often a liveness message is published, in seconds.
	HeartbeatInterval int `yaml:"heartbeat_interval"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings for control telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GLOWDECK_SECTION_KEY
// For example: GLOWDECK_SERVER_HOST, GLOWDECK_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// The defaults describe a dry-run capable setup that works on any machine.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Hardware: HardwareConfig{
			Pin:             "GPIO18",
			PWMFrequency:    800,
			SoftPWMPeriodMs: 10,
		},
		Audio: AudioConfig{
			Enabled:    false,
			TrackDir:   "./tracks",
			SampleRate: 44100,
		},
		Persistence: PersistenceConfig{
			Backend:     "file",
			Path:        "./data/messages.json",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "glowdeck",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			HeartbeatInterval: 30,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GLOWDECK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("GLOWDECK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	// Persistence
	if v := os.Getenv("GLOWDECK_PERSISTENCE_PATH"); v != "" {
		cfg.Persistence.Path = v
	}

	// Audio
	if v := os.Getenv("GLOWDECK_AUDIO_TRACK_DIR"); v != "" {
		cfg.Audio.TrackDir = v
	}

	// MQTT
	if v := os.Getenv("GLOWDECK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GLOWDECK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GLOWDECK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GLOWDECK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// validBackends lists the recognised persistence backends.
var validBackends = map[string]bool{
	"memory": true,
	"file":   true,
	"sqlite": true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	// Hardware validation
	if c.Hardware.Pin == "" {
		errs = append(errs, "hardware.pin is required")
	}
	if c.Hardware.PWMFrequency <= 0 {
		errs = append(errs, "hardware.pwm_frequency must be positive")
	}
	if c.Hardware.SoftPWMPeriodMs <= 0 {
		errs = append(errs, "hardware.soft_pwm_period_ms must be positive")
	}

	// Audio validation
	if c.Audio.Enabled && c.Audio.TrackDir == "" {
		errs = append(errs, "audio.track_dir is required when audio is enabled")
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, "audio.sample_rate must be positive")
	}

	// Persistence validation
	if !validBackends[c.Persistence.Backend] {
		errs = append(errs, fmt.Sprintf("persistence.backend must be memory, file or sqlite, got %q", c.Persistence.Backend))
	}
	if c.Persistence.Backend != "memory" && c.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required for durable backends")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Sprintf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
