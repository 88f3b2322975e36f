package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ANNOTATION_GRAPH_"

// Config holds the application configuration
type Config struct {
	Pipeline  PipelineConfig  `json:"pipeline"`
	Chart     ChartConfig     `json:"chart"`
	Render    RenderConfig    `json:"render"`
	Detection DetectionConfig `json:"detection"`
}

// PipelineConfig holds configuration for aggregation
type PipelineConfig struct {
	Confidence float64 `json:"confidence"`
}

// ChartConfig holds configuration for the chart options
type ChartConfig struct {
	Height             int    `json:"height"`
	Theme              string `json:"theme"`
	TooltipRows        int    `json:"tooltip_rows"`
	TooltipColumnWidth int    `json:"tooltip_column_width"`
}

// RenderConfig holds configuration for image output
type RenderConfig struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Lossless  bool   `json:"lossless"`
	OutputDir string `json:"output_dir"`
}

// DetectionConfig holds configuration for the vision model backend
type DetectionConfig struct {
	URL      string  `json:"url"`
	Model    string  `json:"model"`
	SendSize int     `json:"send_size"`
	SendQ    int     `json:"send_quality"`
	FPS      float64 `json:"fps"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Confidence: 0.5,
		},
		Chart: ChartConfig{
			Height:             350,
			Theme:              "dark",
			TooltipRows:        3,
			TooltipColumnWidth: 124,
		},
		Render: RenderConfig{
			Width:     1200,
			Height:    350,
			Format:    "png",
			Quality:   90,
			Lossless:  false,
			OutputDir: "./out",
		},
		Detection: DetectionConfig{
			URL:      "http://localhost:11434/api/chat",
			Model:    "openbmb/minicpm-v4.5",
			SendSize: 1024,
			SendQ:    85,
			FPS:      1,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads a .env file if present and applies ANNOTATION_GRAPH_*
// overrides from the environment. A missing .env file is not an error.
func (c *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	var err error
	setFloat := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && err == nil {
			f, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				err = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, perr)
				return
			}
			*dst = f
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, perr)
				return
			}
			*dst = n
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	setFloat("CONFIDENCE", &c.Pipeline.Confidence)
	setInt("CHART_HEIGHT", &c.Chart.Height)
	setString("CHART_THEME", &c.Chart.Theme)
	setInt("RENDER_WIDTH", &c.Render.Width)
	setInt("RENDER_HEIGHT", &c.Render.Height)
	setString("RENDER_FORMAT", &c.Render.Format)
	setString("OUTPUT_DIR", &c.Render.OutputDir)
	setString("DETECTION_URL", &c.Detection.URL)
	setString("DETECTION_MODEL", &c.Detection.Model)
	setFloat("DETECTION_FPS", &c.Detection.FPS)

	return err
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Pipeline.Confidence < 0 || c.Pipeline.Confidence > 1 {
		return fmt.Errorf("pipeline.confidence must be between 0 and 1")
	}

	if c.Chart.Height < 1 {
		return fmt.Errorf("chart.height must be positive")
	}

	if c.Chart.TooltipRows < 1 {
		return fmt.Errorf("chart.tooltip_rows must be positive")
	}

	if c.Chart.TooltipColumnWidth < 1 {
		return fmt.Errorf("chart.tooltip_column_width must be positive")
	}

	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("render.width and render.height must be positive")
	}

	switch c.Render.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("render.format must be one of png, jpg, webp")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	if c.Detection.FPS <= 0 {
		return fmt.Errorf("detection.fps must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "annotation-graph", "config.json")
}
