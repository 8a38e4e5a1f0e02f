// Package config loads run configuration from JSON files.
//
// All fields are optional pointers so a partial config file is safe: fields
// omitted from the JSON keep their defaults, and explicit command-line flags
// override the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wristworn/actimetry/internal/metrics"
	"github.com/wristworn/actimetry/internal/units"
)

// RunConfig is the JSON schema for a pipeline run.
type RunConfig struct {
	WindowSize              *int     `json:"window_size,omitempty"`
	BatchSize               *int     `json:"batch_size,omitempty"`
	Metrics                 []string `json:"metrics,omitempty"`
	HighPassFrequencyAngles *float64 `json:"high_pass_frequency_angles,omitempty"`
	Units                   *string  `json:"units,omitempty"`
	Night                   *string  `json:"night,omitempty"`
}

// Load reads and validates a RunConfig from a JSON file.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.WindowSize != nil && *c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", *c.WindowSize)
	}
	if c.BatchSize != nil && *c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", *c.BatchSize)
	}
	if c.HighPassFrequencyAngles != nil && *c.HighPassFrequencyAngles <= 0 {
		return fmt.Errorf("high_pass_frequency_angles must be positive, got %f", *c.HighPassFrequencyAngles)
	}
	if c.Metrics != nil {
		if err := metrics.ValidateSet(c.Metrics); err != nil {
			return err
		}
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units %q (valid: %s)", *c.Units, units.GetValidUnitsString())
	}
	return nil
}

// GetWindowSize returns the window_size value or the default.
func (c *RunConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 5
	}
	return *c.WindowSize
}

// GetBatchSize returns the batch_size value or the default.
func (c *RunConfig) GetBatchSize() int {
	if c.BatchSize == nil {
		return 1000
	}
	return *c.BatchSize
}

// GetMetrics returns the metrics value or the default.
func (c *RunConfig) GetMetrics() []string {
	if c.Metrics == nil {
		return []string{metrics.Angles, metrics.ENMO}
	}
	return c.Metrics
}

// GetHighPassFrequencyAngles returns the high_pass_frequency_angles value or
// the default.
func (c *RunConfig) GetHighPassFrequencyAngles() float64 {
	if c.HighPassFrequencyAngles == nil {
		return 0.2
	}
	return *c.HighPassFrequencyAngles
}

// GetUnits returns the units value or the default.
func (c *RunConfig) GetUnits() string {
	if c.Units == nil {
		return units.G
	}
	return *c.Units
}

// GetNight returns the night value or the default.
func (c *RunConfig) GetNight() string {
	if c.Night == nil {
		return "03:00"
	}
	return *c.Night
}
