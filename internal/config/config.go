package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EuclidParams holds the parameters of the EUCLID classifier.
type EuclidParams struct {
	Sensitivity           float64 `yaml:"sensitivity" toml:"sensitivity"`
	Smoothing             float64 `yaml:"smoothing" toml:"smoothing"`
	ObservationWindowSize uint64  `yaml:"observation_window_size" toml:"observation_window_size"`
	DefenseThreshold      float64 `yaml:"defense_threshold" toml:"defense_threshold"`
	CountSketchDepth      uint32  `yaml:"count_sketch_depth" toml:"count_sketch_depth"`
	CountSketchWidth      uint32  `yaml:"count_sketch_width" toml:"count_sketch_width"`
	// Seed is optional; when nil the factory draws one at construction time.
	Seed *uint64 `yaml:"seed,omitempty" toml:"seed,omitempty"`
}

// ClassifierDef selects a registered classifier and its parameters.
type ClassifierDef struct {
	Name       string       `yaml:"name" toml:"name"`
	Parameters EuclidParams `yaml:"parameters" toml:"parameters"`
}

// ExperimentDef defines a single experiment from the config file.
type ExperimentDef struct {
	Name       string        `yaml:"name" toml:"name"`
	Input      string        `yaml:"input" toml:"input"`
	Output     string        `yaml:"output" toml:"output"`
	Classifier ClassifierDef `yaml:"classifier" toml:"classifier"`
}

// TextConfig holds the settings of the file based result writer.
type TextConfig struct {
	RootPath string `yaml:"root_path" toml:"root_path"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Database string `yaml:"database" toml:"database"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// WriterDef defines a result writer.
type WriterDef struct {
	Type       string           `yaml:"type" toml:"type"`
	Enabled    bool             `yaml:"enabled" toml:"enabled"`
	Text       TextConfig       `yaml:"text" toml:"text"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
}

// ProbeConfig holds the NATS transport settings shared by probe and stream.
type ProbeConfig struct {
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
	Subject string `yaml:"subject" toml:"subject"`
	// BatchSize is the number of records packed into one NATS message.
	BatchSize   int               `yaml:"batch_size" toml:"batch_size"`
	Persistence PersistenceConfig `yaml:"persistence" toml:"persistence"`
}

// PersistenceConfig controls local recording of captured traffic by the probe.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
	// Encoding is one of "pkt", "pcap" or "text".
	Encoding          string `yaml:"encoding" toml:"encoding"`
	ChannelBufferSize int    `yaml:"channel_buffer_size" toml:"channel_buffer_size"`
}

// StreamConfig holds the settings of the long-running detector.
type StreamConfig struct {
	Classifier     ClassifierDef `yaml:"classifier" toml:"classifier"`
	VerdictSubject string        `yaml:"verdict_subject" toml:"verdict_subject"`
	ListenAddr     string        `yaml:"listen_addr" toml:"listen_addr"`
	GRPCAddr       string        `yaml:"grpc_addr" toml:"grpc_addr"`
	ChannelSize    int           `yaml:"channel_size" toml:"channel_size"`
	// FlushInterval controls how often buffered window reports reach the writers.
	FlushInterval string `yaml:"flush_interval" toml:"flush_interval"`
}

// AlerterConfig enables notifications on defense transitions.
type AlerterConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// NotifyRecovery also reports the return to SAFE after a defense.
	NotifyRecovery bool `yaml:"notify_recovery" toml:"notify_recovery"`
	QueueSize      int  `yaml:"queue_size" toml:"queue_size"`
}

// SMTPConfig holds the e-mail notifier settings.
type SMTPConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	From     string `yaml:"from" toml:"from"`
	To       string `yaml:"to" toml:"to"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Experiments []ExperimentDef `yaml:"experiments" toml:"experiments"`
	Writers     []WriterDef     `yaml:"writers" toml:"writers"`
	Probe       ProbeConfig     `yaml:"probe" toml:"probe"`
	Stream      StreamConfig    `yaml:"stream" toml:"stream"`
	Alerter     AlerterConfig   `yaml:"alerter" toml:"alerter"`
	SMTP        SMTPConfig      `yaml:"smtp" toml:"smtp"`
}

// LoadConfig reads the configuration from a YAML or TOML file and returns a Config struct.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
		}
	}

	return &cfg, nil
}
