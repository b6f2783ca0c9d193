// seehuhn.de/go/pageedit - a page review and redaction editor
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pageedit

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"seehuhn.de/go/pageedit/composite"
	"seehuhn.de/go/pageedit/mode"
	"seehuhn.de/go/pageedit/overlay"
)

// Config holds the editor settings.
type Config struct {
	Brush     BrushConfig     `yaml:"brush"`
	Text      TextConfig      `yaml:"text"`
	Composite CompositeConfig `yaml:"composite"`
	Store     StoreConfig     `yaml:"store"`

	// Logger receives load, save and reset events. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// BrushConfig sets the initial brush and the size keys.
type BrushConfig struct {
	Size           float64       `yaml:"size"`            // diameter in image pixels
	Opacity        int           `yaml:"opacity"`         // percent
	Step           float64       `yaml:"step"`            // size change per [ or ] press
	RepeatInterval time.Duration `yaml:"repeat_interval"` // while [ or ] is held
}

// TextConfig sets the style of new text elements.
type TextConfig struct {
	FontSize float64 `yaml:"font_size"` // at the reference width
	Color    string  `yaml:"color"`     // #rrggbb
}

// CompositeConfig controls the saved image.
type CompositeConfig struct {
	Quality        int          `yaml:"quality"`
	ReferenceWidth float64      `yaml:"reference_width"`
	Shadow         ShadowConfig `yaml:"shadow"`
}

// ShadowConfig describes the drop shadow behind text, in pixels at the
// reference width.
type ShadowConfig struct {
	Dx      float64 `yaml:"dx"`
	Dy      float64 `yaml:"dy"`
	Radius  float64 `yaml:"radius"`
	Opacity float64 `yaml:"opacity"`
}

// StoreConfig locates the file service.
type StoreConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	sh := composite.DefaultShadow()
	return &Config{
		Brush: BrushConfig{
			Size:           200,
			Opacity:        100,
			Step:           5,
			RepeatInterval: 80 * time.Millisecond,
		},
		Text: TextConfig{
			FontSize: 24,
			Color:    "#ff0000",
		},
		Composite: CompositeConfig{
			Quality:        composite.DefaultQuality,
			ReferenceWidth: composite.DefaultReferenceWidth,
			Shadow: ShadowConfig{
				Dx:      sh.Dx,
				Dy:      sh.Dy,
				Radius:  sh.Radius,
				Opacity: sh.Opacity,
			},
		},
		Store: StoreConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	if c.Brush.Size < mode.MinBrushSize || c.Brush.Size > mode.MaxBrushSize {
		return fmt.Errorf("brush.size must be in [%d, %d]", mode.MinBrushSize, mode.MaxBrushSize)
	}
	if c.Brush.Opacity < mode.MinOpacity || c.Brush.Opacity > mode.MaxOpacity {
		return fmt.Errorf("brush.opacity must be in [%d, %d]", mode.MinOpacity, mode.MaxOpacity)
	}
	if c.Brush.Step <= 0 {
		return fmt.Errorf("brush.step must be > 0")
	}
	if c.Brush.RepeatInterval <= 0 {
		return fmt.Errorf("brush.repeat_interval must be > 0")
	}
	if c.Text.FontSize <= 0 {
		return fmt.Errorf("text.font_size must be > 0")
	}
	if _, err := overlay.ParseColor(c.Text.Color); err != nil {
		return fmt.Errorf("text.color: %w", err)
	}
	if c.Composite.Quality < 1 || c.Composite.Quality > 100 {
		return fmt.Errorf("composite.quality must be in [1, 100]")
	}
	if c.Composite.ReferenceWidth <= 0 {
		return fmt.Errorf("composite.reference_width must be > 0")
	}
	if o := c.Composite.Shadow.Opacity; o < 0 || o > 1 {
		return fmt.Errorf("composite.shadow.opacity must be in [0, 1]")
	}
	if c.Composite.Shadow.Radius < 0 {
		return fmt.Errorf("composite.shadow.radius must be >= 0")
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) compositorOptions() []composite.Option {
	sh := c.Composite.Shadow
	return []composite.Option{
		composite.WithQuality(c.Composite.Quality),
		composite.WithReferenceWidth(c.Composite.ReferenceWidth),
		composite.WithShadow(composite.Shadow{
			Dx:      sh.Dx,
			Dy:      sh.Dy,
			Radius:  sh.Radius,
			Opacity: sh.Opacity,
			Color:   composite.DefaultShadow().Color,
		}),
	}
}
