package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for solver tuning.
// Omitted fields fall back to the defaults returned by the Get* methods.
type TuningConfig struct {
	// Subject params
	MarkerPrefix *string `json:"marker_prefix,omitempty"`

	// Preprocessing params
	MaxHipDisplacement *float64 `json:"max_hip_displacement,omitempty"`

	// Body estimator params
	MaxHeightCM            *float64 `json:"max_height_cm,omitempty"`
	BMI                    *float64 `json:"bmi,omitempty"`
	DefaultHeightCM        *float64 `json:"default_height_cm,omitempty"`
	DefaultMassKG          *float64 `json:"default_mass_kg,omitempty"`
	DefaultShoulderWidthMM *float64 `json:"default_shoulder_width_mm,omitempty"`

	// Solver params
	ChestSmoothing *float64 `json:"chest_smoothing,omitempty"`

	// Output params
	MQTTTopic      *string  `json:"mqtt_topic,omitempty"`
	PublishTimeout *string  `json:"publish_timeout,omitempty"` // duration string like "2s"
	FrameRateHz    *float64 `json:"frame_rate_hz,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default. It mirrors config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MarkerPrefix:           ptrString(""),
		MaxHipDisplacement:     ptrFloat64(0.02),
		MaxHeightCM:            ptrFloat64(250),
		BMI:                    ptrFloat64(24),
		DefaultHeightCM:        ptrFloat64(175),
		DefaultMassKG:          ptrFloat64(75),
		DefaultShoulderWidthMM: ptrFloat64(400),
		ChestSmoothing:         ptrFloat64(0.8),
		MQTTTopic:              ptrString("markerpose/skeleton"),
		PublishTimeout:         ptrString("2s"),
		FrameRateHz:            ptrFloat64(100),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/mocap/solver/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaxHipDisplacement != nil && *c.MaxHipDisplacement <= 0 {
		return fmt.Errorf("max_hip_displacement must be positive, got %f", *c.MaxHipDisplacement)
	}

	positive := []struct {
		name string
		v    *float64
	}{
		{"max_height_cm", c.MaxHeightCM},
		{"bmi", c.BMI},
		{"default_height_cm", c.DefaultHeightCM},
		{"default_mass_kg", c.DefaultMassKG},
		{"default_shoulder_width_mm", c.DefaultShoulderWidthMM},
		{"frame_rate_hz", c.FrameRateHz},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	if c.ChestSmoothing != nil {
		if *c.ChestSmoothing < 0 || *c.ChestSmoothing > 1 {
			return fmt.Errorf("chest_smoothing must be between 0 and 1, got %f", *c.ChestSmoothing)
		}
	}

	if c.DefaultHeightCM != nil && *c.DefaultHeightCM >= c.GetMaxHeightCM() {
		return fmt.Errorf("default_height_cm %f must be below max_height_cm %f", *c.DefaultHeightCM, c.GetMaxHeightCM())
	}

	if c.PublishTimeout != nil && *c.PublishTimeout != "" {
		if _, err := time.ParseDuration(*c.PublishTimeout); err != nil {
			return fmt.Errorf("invalid publish_timeout '%s': %w", *c.PublishTimeout, err)
		}
	}

	return nil
}

// GetMarkerPrefix returns the marker_prefix value or the default.
func (c *TuningConfig) GetMarkerPrefix() string {
	if c.MarkerPrefix == nil {
		return ""
	}
	return *c.MarkerPrefix
}

// GetMaxHipDisplacement returns the max_hip_displacement value or the default.
func (c *TuningConfig) GetMaxHipDisplacement() float64 {
	if c.MaxHipDisplacement == nil {
		return 0.02 // default
	}
	return *c.MaxHipDisplacement
}

// GetMaxHeightCM returns the max_height_cm value or the default.
func (c *TuningConfig) GetMaxHeightCM() float64 {
	if c.MaxHeightCM == nil {
		return 250 // default
	}
	return *c.MaxHeightCM
}

// GetBMI returns the bmi value or the default.
func (c *TuningConfig) GetBMI() float64 {
	if c.BMI == nil {
		return 24 // default
	}
	return *c.BMI
}

// GetDefaultHeightCM returns the default_height_cm value or the default.
func (c *TuningConfig) GetDefaultHeightCM() float64 {
	if c.DefaultHeightCM == nil {
		return 175 // default
	}
	return *c.DefaultHeightCM
}

// GetDefaultMassKG returns the default_mass_kg value or the default.
func (c *TuningConfig) GetDefaultMassKG() float64 {
	if c.DefaultMassKG == nil {
		return 75 // default
	}
	return *c.DefaultMassKG
}

// GetDefaultShoulderWidthMM returns the default_shoulder_width_mm value or the default.
func (c *TuningConfig) GetDefaultShoulderWidthMM() float64 {
	if c.DefaultShoulderWidthMM == nil {
		return 400 // default
	}
	return *c.DefaultShoulderWidthMM
}

// GetChestSmoothing returns the chest_smoothing value or the default.
func (c *TuningConfig) GetChestSmoothing() float64 {
	if c.ChestSmoothing == nil {
		return 0.8 // default
	}
	return *c.ChestSmoothing
}

// GetMQTTTopic returns the mqtt_topic value or the default.
func (c *TuningConfig) GetMQTTTopic() string {
	if c.MQTTTopic == nil || *c.MQTTTopic == "" {
		return "markerpose/skeleton" // default
	}
	return *c.MQTTTopic
}

// GetPublishTimeout parses and returns the PublishTimeout as a time.Duration.
func (c *TuningConfig) GetPublishTimeout() time.Duration {
	if c.PublishTimeout == nil || *c.PublishTimeout == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.PublishTimeout)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetFrameRateHz returns the frame_rate_hz value or the default.
func (c *TuningConfig) GetFrameRateHz() float64 {
	if c.FrameRateHz == nil {
		return 100 // default
	}
	return *c.FrameRateHz
}

// GetFrameInterval is the time between frames at the configured rate.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.GetFrameRateHz())
}
