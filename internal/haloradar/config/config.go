// Package config loads the driver's one piece of persistent configuration:
// an optional list of local interface IPs to probe during discovery.
// Grounded on internal/config/tuning.go's LoadTuningConfig (path validation,
// then JSON unmarshal into a struct with omitempty fields).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxFileSize bounds how large a config file this loader will read.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the driver's startup configuration. Absent or empty
// Interfaces means "probe every non-loopback IPv4 interface" (§6).
type Config struct {
	Interfaces []string `json:"interfaces,omitempty"`
}

// Empty returns a Config with no interfaces pinned.
func Empty() *Config {
	return &Config{}
}

// Load reads path as JSON into a Config. The path must end in .json and
// the file must be under maxFileSize, matching LoadTuningConfig's
// validation so a malformed or oversized file fails fast with a clear
// error instead of partway through discovery.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}
