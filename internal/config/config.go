package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
	Output string `yaml:"output"` // e.g., "stderr", "stdout", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// LimitsConfig mirrors mobi.Limits. Zero values keep the library defaults.
type LimitsConfig struct {
	MaxHeaderExtension uint32 `yaml:"max_header_extension"`
	MaxEXTHLen         uint32 `yaml:"max_exth_len"`
	MaxFullNameLen     uint32 `yaml:"max_full_name_len"`
	MaxRecordLen       uint32 `yaml:"max_record_len"`
	MaxTextRecords     int    `yaml:"max_text_records"`
	MaxTextLen         uint64 `yaml:"max_text_len"`
}

// DecodeConfig holds the options passed to mobi.Decode.
type DecodeConfig struct {
	Workers              int          `yaml:"workers"` // 0 means GOMAXPROCS
	TruncateToTextLength bool         `yaml:"truncate_to_text_length"`
	Limits               LimitsConfig `yaml:"limits"`
}

// ExportConfig holds the defaults of the text command.
type ExportConfig struct {
	Codec string `yaml:"codec"` // none, zip, zstd, lz4, brotli, snappy
	Plain bool   `yaml:"plain"`
}

// Config is the top-level mobitool configuration.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// Load reads configuration from an io.Reader. Keys missing from the YAML keep
// their defaults; a nil or empty reader yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := &Config{
		Decode: DecodeConfig{
			Workers:              0,
			TruncateToTextLength: false,
		},
		Export: ExportConfig{
			Codec: "none",
			Plain: false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}

	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
