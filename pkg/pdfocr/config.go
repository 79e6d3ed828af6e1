package pdfocr

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gardar/hocrpdf/pkg/fonts"
	"github.com/gardar/hocrpdf/pkg/render"
)

// Config holds user options for building text layers.
type Config struct {
	BoundingBoxes   bool          `yaml:"bounding_boxes"`   // Draw debug boxes
	InterwordSpaces bool          `yaml:"interword_spaces"` // Append a space to every word
	Visible         bool          `yaml:"visible"`          // Render text visibly instead of mode 3
	DPI             float64       `yaml:"resolution"`       // Overrides the page resolution when > 0
	Font            fonts.Backend `yaml:"font"`             // glyphless or courier
	Force           bool          `yaml:"force"`            // Add a layer even if one already exists
	Validate        bool          `yaml:"validate"`         // Validate the result with pdfcpu
	Workers         int           `yaml:"workers"`          // Concurrent page renders, 0 = unlimited

	Hooks  []Hook       `yaml:"-"`
	Logger *slog.Logger `yaml:"-"` // nil = slog.Default()
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Font:  fonts.Glyphless,
		Hooks: []Hook{PageGeometryHook{}},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) renderOptions(font fonts.Font) render.Options {
	return render.Options{
		ShowBoundingBoxes: c.BoundingBoxes,
		InvisibleText:     !c.Visible,
		InterwordSpaces:   c.InterwordSpaces,
		Font:              font,
		DPI:               c.DPI,
		Logger:            c.logger(),
	}
}
