package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Chart.TooltipColumnWidth != 124 || cfg.Chart.TooltipRows != 3 {
		t.Errorf("Expected 3 rows and 124px columns, got %d and %d", cfg.Chart.TooltipRows, cfg.Chart.TooltipColumnWidth)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Pipeline.Confidence = 0.8
	cfg.Render.Format = "webp"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Pipeline.Confidence != 0.8 || loaded.Render.Format != "webp" {
		t.Errorf("Loaded config differs: %+v", loaded)
	}
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"pipeline":{"confidence":0.25}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Pipeline.Confidence != 0.25 {
		t.Errorf("Expected confidence 0.25, got %v", cfg.Pipeline.Confidence)
	}
	if cfg.Chart.Height != 350 {
		t.Errorf("Expected default height to survive, got %d", cfg.Chart.Height)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed file")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIDENCE", "0.7")
	t.Setenv(EnvPrefix+"RENDER_FORMAT", "jpg")
	t.Setenv(EnvPrefix+"CHART_HEIGHT", "120")

	cfg := Default()
	if err := cfg.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if cfg.Pipeline.Confidence != 0.7 {
		t.Errorf("Expected confidence 0.7, got %v", cfg.Pipeline.Confidence)
	}
	if cfg.Render.Format != "jpg" || cfg.Chart.Height != 120 {
		t.Errorf("Expected env overrides to apply, got %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(EnvPrefix+"DETECTION_MODEL=llava\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvPrefix + "DETECTION_MODEL") })

	cfg := Default()
	if err := cfg.LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if cfg.Detection.Model != "llava" {
		t.Errorf("Expected model llava, got %q", cfg.Detection.Model)
	}

	if err := cfg.LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for explicit missing env file")
	}
}

func TestLoadEnvInvalidNumber(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIDENCE", "high")

	if err := Default().LoadEnv(); err == nil {
		t.Error("Expected error for non-numeric confidence")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence above 1", func(c *Config) { c.Pipeline.Confidence = 1.5 }},
		{"negative confidence", func(c *Config) { c.Pipeline.Confidence = -0.1 }},
		{"zero height", func(c *Config) { c.Chart.Height = 0 }},
		{"zero rows", func(c *Config) { c.Chart.TooltipRows = 0 }},
		{"zero column width", func(c *Config) { c.Chart.TooltipColumnWidth = 0 }},
		{"unknown format", func(c *Config) { c.Render.Format = "gif" }},
		{"quality", func(c *Config) { c.Render.Quality = 0 }},
		{"fps", func(c *Config) { c.Detection.FPS = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
