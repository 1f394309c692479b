package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Config holds the application configuration
type Config struct {
	Merge    MergeConfig    `json:"merge"`
	Render   RenderConfig   `json:"render"`
	Prelabel PrelabelConfig `json:"prelabel"`
	Dataset  DatasetConfig  `json:"dataset"`
}

// MergeConfig holds configuration for batch label rewriting
type MergeConfig struct {
	Workers int `json:"workers"`
}

// RenderConfig holds configuration for annotation overlays
type RenderConfig struct {
	Format    string  `json:"format"`
	Quality   int     `json:"quality"`
	Lossless  bool    `json:"lossless"`
	Thickness float64 `json:"thickness"`
	FontSize  float64 `json:"font_size"`
	FillAlpha float64 `json:"fill_alpha"`
	// Color is the box color as #rrggbb
	Color string `json:"color"`
}

// PrelabelConfig holds configuration for vision model pre-labelling
type PrelabelConfig struct {
	// Backend is "ollama" or "llamacpp"
	Backend       string   `json:"backend"`
	URL           string   `json:"url"`
	Model         string   `json:"model"`
	Classes       []string `json:"classes"`
	NamesFile     string   `json:"names_file"`
	MinConfidence float64  `json:"min_confidence"`
	SendSize      int      `json:"send_size"`
	SendQuality   int      `json:"send_quality"`
}

// DatasetConfig holds the YOLOv8 dataset layout
type DatasetConfig struct {
	Splits []string `json:"splits"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			Workers: 4,
		},
		Render: RenderConfig{
			Format:    "png",
			Quality:   90,
			Lossless:  false,
			Thickness: 2,
			FontSize:  14,
			FillAlpha: 0.5,
			Color:     "#00ff00",
		},
		Prelabel: PrelabelConfig{
			Backend:       "ollama",
			URL:           "http://localhost:11434",
			Model:         "llava",
			MinConfidence: 0.3,
			SendSize:      1024,
			SendQuality:   85,
		},
		Dataset: DatasetConfig{
			Splits: []string{"train", "valid", "test"},
		},
	}
}

// LoadFromFile loads configuration from a JSON file. The file may use JSON5
// syntax (comments, trailing commas). Missing fields keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json5.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Merge.Workers < 1 {
		return fmt.Errorf("merge.workers must be positive")
	}

	switch strings.ToLower(c.Render.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("render.format must be png, jpg or webp")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	if c.Render.Thickness <= 0 {
		return fmt.Errorf("render.thickness must be positive")
	}

	if c.Render.FontSize <= 0 {
		return fmt.Errorf("render.font_size must be positive")
	}

	if c.Render.FillAlpha < 0 || c.Render.FillAlpha > 1 {
		return fmt.Errorf("render.fill_alpha must be between 0 and 1")
	}

	if _, err := ParseColor(c.Render.Color); err != nil {
		return fmt.Errorf("render.color: %w", err)
	}

	switch c.Prelabel.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("prelabel.backend must be ollama or llamacpp")
	}

	if c.Prelabel.MinConfidence < 0 || c.Prelabel.MinConfidence > 1 {
		return fmt.Errorf("prelabel.min_confidence must be between 0 and 1")
	}

	if c.Prelabel.SendSize < 0 {
		return fmt.Errorf("prelabel.send_size cannot be negative")
	}

	if c.Prelabel.SendQuality < 1 || c.Prelabel.SendQuality > 100 {
		return fmt.Errorf("prelabel.send_quality must be between 1 and 100")
	}

	if len(c.Dataset.Splits) == 0 {
		return fmt.Errorf("dataset.splits cannot be empty")
	}

	return nil
}

// ParseColor parses a #rrggbb or #rrggbbaa color
func ParseColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 255}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("invalid color %q", s)
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "label-tools", "config.json")
}
