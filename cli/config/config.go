package config

import (
	"fmt"
	"time"
)

// Config represents a notemirror.yaml configuration file.
// All values are optional and act as defaults for sync flags.
// CLI flags always override config values.
type Config struct {
	// Output is the mirror root for the filesystem backend.
	Output string `yaml:"output"`
	// PageSize is the per-page item count requested from the server.
	PageSize int `yaml:"page_size"`
	// Delay is the pause between page requests.
	Delay Duration `yaml:"delay"`
	// Limit caps items per run. Zero means the built-in default cap;
	// use the --all flag to lift it entirely.
	Limit int `yaml:"limit"`
	// SaveJSON keeps the raw API payload next to each rendered note.
	SaveJSON bool `yaml:"save_json"`
	// Workers is the attachment download concurrency.
	Workers int `yaml:"workers"`
	// TokenFile overrides the cached credential location.
	TokenFile string `yaml:"token_file"`

	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	// Backend selects "fs" (default) or "s3".
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds run-notification adapter defaults from the config file.
type AdapterConfig struct {
	// Type selects "webhook" or "redis"; empty disables notifications.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
