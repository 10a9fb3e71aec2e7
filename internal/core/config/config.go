// Package config handles configuration loading and validation for chirp.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/chirp/internal/core/notify"
	"github.com/colonyops/chirp/internal/toast"
)

// Config holds the application configuration.
type Config struct {
	Toasts ToastsConfig `yaml:"toasts"`
	Render RenderConfig `yaml:"render"`
}

// ToastsConfig holds notification scheduling options.
type ToastsConfig struct {
	DefaultDuration time.Duration `yaml:"default_duration"` // auto-dismiss delay when a notification sets none
	NeverExpire     bool          `yaml:"never_expire"`     // notifications stay until dismissed unless they set a duration
	ExitDelay       time.Duration `yaml:"exit_delay"`       // time spent dismissing before removal
	MaxVisible      int           `yaml:"max_visible"`      // 0 = unlimited
}

// RenderConfig holds terminal rendering options.
type RenderConfig struct {
	Width          int           `yaml:"width"`
	RedrawDebounce time.Duration `yaml:"redraw_debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Toasts: ToastsConfig{
			DefaultDuration: toast.DefaultDuration,
			ExitDelay:       toast.DefaultExitDelay,
		},
		Render: RenderConfig{
			Width:          50,
			RedrawDebounce: 50 * time.Millisecond,
		},
	}
}

// Load reads configuration from the given path.
// If configPath is empty or doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Toasts.DefaultDuration == 0 {
		c.Toasts.DefaultDuration = defaults.Toasts.DefaultDuration
	}
	if c.Render.Width == 0 {
		c.Render.Width = defaults.Render.Width
	}
	if c.Render.RedrawDebounce == 0 {
		c.Render.RedrawDebounce = defaults.Render.RedrawDebounce
	}
}

// ToastSettings converts the toast section into dispatcher settings.
func (c *Config) ToastSettings() toast.Settings {
	s := toast.Settings{
		DefaultDuration: c.Toasts.DefaultDuration,
		ExitDelay:       c.Toasts.ExitDelay,
		MaxVisible:      c.Toasts.MaxVisible,
	}
	if c.Toasts.NeverExpire {
		s.DefaultDuration = notify.Forever
	}
	return s
}
