package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp display formats, selected by the FullTimestamp setting.
const (
	DateTimeFormat           = "2006-01-02 15:04:05"
	DateTimeWithMillisFormat = "2006-01-02 15:04:05.000"
)

// Settings represents the application-level settings file. It holds the
// page-size default, timestamp formatting and the knobs of the fetch engine;
// per-topic cache policy lives in the store instead.
type Settings struct {
	// CacheDir is the directory holding the local message cache database.
	CacheDir string `yaml:"cache_dir"`

	// DatabaseName is the cache database file name, without extension.
	DatabaseName string `yaml:"database_name"`

	DefaultPageSize int  `yaml:"default_page_size"`
	FullTimestamp   bool `yaml:"full_timestamp"`

	// ConsumerThreads caps the number of parallel consumer workers during
	// cache population.
	ConsumerThreads int `yaml:"consumer_threads"`

	// WorkerSeed feeds the partition-to-worker distribution hashing.
	WorkerSeed int `yaml:"worker_seed"`

	// ConnectionTimeout is the default broker call timeout when a
	// connection does not define its own.
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`

	// MetadataTimeout bounds full metadata fetches.
	MetadataTimeout time.Duration `yaml:"metadata_timeout"`

	// WatermarkTimeout bounds each per-partition watermark query.
	WatermarkTimeout time.Duration `yaml:"watermark_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	cacheDir := "."
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "kafka-browser")
	}
	return &Settings{
		CacheDir:          cacheDir,
		DatabaseName:      "application",
		DefaultPageSize:   50,
		FullTimestamp:     false,
		ConsumerThreads:   4,
		WorkerSeed:        0,
		ConnectionTimeout: 5 * time.Second,
		MetadataTimeout:   240 * time.Second,
		WatermarkTimeout:  1 * time.Second,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// settingsFile mirrors Settings for YAML decoding; durations are written as
// strings like "5s" or "250ms".
type settingsFile struct {
	CacheDir          *string `yaml:"cache_dir"`
	DatabaseName      *string `yaml:"database_name"`
	DefaultPageSize   *int    `yaml:"default_page_size"`
	FullTimestamp     *bool   `yaml:"full_timestamp"`
	ConsumerThreads   *int    `yaml:"consumer_threads"`
	WorkerSeed        *int    `yaml:"worker_seed"`
	ConnectionTimeout *string `yaml:"connection_timeout"`
	MetadataTimeout   *string `yaml:"metadata_timeout"`
	WatermarkTimeout  *string `yaml:"watermark_timeout"`
	LogLevel          *string `yaml:"log_level"`
	LogFormat         *string `yaml:"log_format"`
}

// Load reads settings from a YAML file, falling back to defaults for any
// missing keys.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	settings := DefaultSettings()
	if file.CacheDir != nil {
		settings.CacheDir = *file.CacheDir
	}
	if file.DatabaseName != nil {
		settings.DatabaseName = *file.DatabaseName
	}
	if file.DefaultPageSize != nil {
		settings.DefaultPageSize = *file.DefaultPageSize
	}
	if file.FullTimestamp != nil {
		settings.FullTimestamp = *file.FullTimestamp
	}
	if file.ConsumerThreads != nil {
		settings.ConsumerThreads = *file.ConsumerThreads
	}
	if file.WorkerSeed != nil {
		settings.WorkerSeed = *file.WorkerSeed
	}
	if file.LogLevel != nil {
		settings.LogLevel = *file.LogLevel
	}
	if file.LogFormat != nil {
		settings.LogFormat = *file.LogFormat
	}
	for _, d := range []struct {
		raw  *string
		dst  *time.Duration
		name string
	}{
		{file.ConnectionTimeout, &settings.ConnectionTimeout, "connection_timeout"},
		{file.MetadataTimeout, &settings.MetadataTimeout, "metadata_timeout"},
		{file.WatermarkTimeout, &settings.WatermarkTimeout, "watermark_timeout"},
	} {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return settings, nil
}

// Validate checks if the settings are usable
func (s *Settings) Validate() error {
	if s.CacheDir == "" {
		return fmt.Errorf("cache dir must be specified")
	}

	if s.DatabaseName == "" {
		return fmt.Errorf("database name must be specified")
	}

	if s.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be at least 1")
	}

	if s.ConsumerThreads < 1 {
		return fmt.Errorf("consumer threads must be at least 1")
	}

	if s.ConnectionTimeout <= 0 {
		return fmt.Errorf("connection timeout must be positive")
	}

	if s.WatermarkTimeout <= 0 {
		return fmt.Errorf("watermark timeout must be positive")
	}

	return nil
}

// TimestampFormat returns the display format selected by FullTimestamp.
func (s *Settings) TimestampFormat() string {
	if s.FullTimestamp {
		return DateTimeWithMillisFormat
	}
	return DateTimeFormat
}

// DatabasePath is the full path of the cache database file.
func (s *Settings) DatabasePath() string {
	return filepath.Join(s.CacheDir, s.DatabaseName+".db")
}
