package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.MaxHipDisplacement == nil || *cfg.MaxHipDisplacement != 0.02 {
		t.Errorf("Expected MaxHipDisplacement 0.02, got %v", cfg.MaxHipDisplacement)
	}
	if cfg.ChestSmoothing == nil || *cfg.ChestSmoothing != 0.8 {
		t.Errorf("Expected ChestSmoothing 0.8, got %v", cfg.ChestSmoothing)
	}
	if cfg.PublishTimeout == nil || *cfg.PublishTimeout != "2s" {
		t.Errorf("Expected PublishTimeout '2s', got %v", cfg.PublishTimeout)
	}

	if cfg.GetMaxHeightCM() != 250 {
		t.Errorf("GetMaxHeightCM() = %f, want 250", cfg.GetMaxHeightCM())
	}
	if cfg.GetBMI() != 24 {
		t.Errorf("GetBMI() = %f, want 24", cfg.GetBMI())
	}
	if cfg.GetMQTTTopic() != "markerpose/skeleton" {
		t.Errorf("GetMQTTTopic() = %q, want markerpose/skeleton", cfg.GetMQTTTopic())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultTuningConfig() does not validate: %v", err)
	}
}

func TestDefaultsFileMatchesDefaultTuningConfig(t *testing.T) {
	file := MustLoadDefaultConfig()
	def := DefaultTuningConfig()

	if file.GetMarkerPrefix() != def.GetMarkerPrefix() {
		t.Errorf("marker_prefix: file %q, code %q", file.GetMarkerPrefix(), def.GetMarkerPrefix())
	}
	floats := []struct {
		name       string
		file, code float64
	}{
		{"max_hip_displacement", file.GetMaxHipDisplacement(), def.GetMaxHipDisplacement()},
		{"max_height_cm", file.GetMaxHeightCM(), def.GetMaxHeightCM()},
		{"bmi", file.GetBMI(), def.GetBMI()},
		{"default_height_cm", file.GetDefaultHeightCM(), def.GetDefaultHeightCM()},
		{"default_mass_kg", file.GetDefaultMassKG(), def.GetDefaultMassKG()},
		{"default_shoulder_width_mm", file.GetDefaultShoulderWidthMM(), def.GetDefaultShoulderWidthMM()},
		{"chest_smoothing", file.GetChestSmoothing(), def.GetChestSmoothing()},
		{"frame_rate_hz", file.GetFrameRateHz(), def.GetFrameRateHz()},
	}
	for _, f := range floats {
		if f.file != f.code {
			t.Errorf("%s: file %v, code %v", f.name, f.file, f.code)
		}
	}
	if file.GetMQTTTopic() != def.GetMQTTTopic() {
		t.Errorf("mqtt_topic: file %q, code %q", file.GetMQTTTopic(), def.GetMQTTTopic())
	}
	if file.GetPublishTimeout() != def.GetPublishTimeout() {
		t.Errorf("publish_timeout: file %v, code %v", file.GetPublishTimeout(), def.GetPublishTimeout())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "marker_prefix": "Actor1:",
  "max_hip_displacement": 0.05,
  "chest_smoothing": 0.5,
  "publish_timeout": "250ms",
  "frame_rate_hz": 200
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetMarkerPrefix(); got != "Actor1:" {
		t.Errorf("GetMarkerPrefix() = %q, want Actor1:", got)
	}
	if got := cfg.GetMaxHipDisplacement(); got != 0.05 {
		t.Errorf("GetMaxHipDisplacement() = %f, want 0.05", got)
	}
	if got := cfg.GetChestSmoothing(); got != 0.5 {
		t.Errorf("GetChestSmoothing() = %f, want 0.5", got)
	}
	if got := cfg.GetPublishTimeout(); got != 250*time.Millisecond {
		t.Errorf("GetPublishTimeout() = %v, want 250ms", got)
	}
	if got := cfg.GetFrameInterval(); got != 5*time.Millisecond {
		t.Errorf("GetFrameInterval() = %v, want 5ms", got)
	}

	// Omitted fields keep their defaults.
	if got := cfg.GetBMI(); got != 24 {
		t.Errorf("GetBMI() = %f, want 24", got)
	}
	if got := cfg.GetDefaultHeightCM(); got != 175 {
		t.Errorf("GetDefaultHeightCM() = %f, want 175", got)
	}
}

func TestLoadTuningConfig_FileNotFound(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/config.json")
	if err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}
}

func TestLoadTuningConfig_WrongExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte(`{invalid json}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}

func TestLoadTuningConfig_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.json")

	if err := os.WriteFile(configPath, []byte(`{"chest_smoothing": 1.5}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected validation error for chest_smoothing 1.5, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     EmptyTuningConfig(),
			wantErr: false,
		},
		{
			name:    "zero hip displacement",
			cfg:     &TuningConfig{MaxHipDisplacement: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative bmi",
			cfg:     &TuningConfig{BMI: ptrFloat64(-1)},
			wantErr: true,
		},
		{
			name:    "chest smoothing at bound",
			cfg:     &TuningConfig{ChestSmoothing: ptrFloat64(1)},
			wantErr: false,
		},
		{
			name:    "chest smoothing negative",
			cfg:     &TuningConfig{ChestSmoothing: ptrFloat64(-0.1)},
			wantErr: true,
		},
		{
			name:    "default height above max",
			cfg:     &TuningConfig{DefaultHeightCM: ptrFloat64(260)},
			wantErr: true,
		},
		{
			name:    "default height below raised max",
			cfg:     &TuningConfig{DefaultHeightCM: ptrFloat64(260), MaxHeightCM: ptrFloat64(300)},
			wantErr: false,
		},
		{
			name:    "invalid publish timeout",
			cfg:     &TuningConfig{PublishTimeout: ptrString("soon")},
			wantErr: true,
		},
		{
			name:    "zero frame rate",
			cfg:     &TuningConfig{FrameRateHz: ptrFloat64(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetPublishTimeout_FallsBackOnEmpty(t *testing.T) {
	cfg := &TuningConfig{PublishTimeout: ptrString("")}
	if got := cfg.GetPublishTimeout(); got != 2*time.Second {
		t.Errorf("GetPublishTimeout() = %v, want 2s", got)
	}
}
