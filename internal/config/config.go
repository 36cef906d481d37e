// Package config loads cvh-icons' daemon configuration from built-in
// defaults, an optional YAML file, and CVH_ICONS_* environment variables via
// viper; environment variables override the file. Command-line flags are not
// read here; cmd/cvhicons applies them on top of the loaded Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the desktop-icon daemon. Field names mirror
// the original Rust config.rs naming so operators migrating a config file
// don't have to relearn the keys.
type Config struct {
	DesktopDir   string        `mapstructure:"desktop_dir"`
	ScriptDirs   []string      `mapstructure:"script_dirs"`
	Namespace    string        `mapstructure:"namespace"`
	IconSize     int           `mapstructure:"icon_size"`
	FontSize     int           `mapstructure:"font_size"`
	GridSpacing  int           `mapstructure:"grid_spacing"`
	LabelHeight  int           `mapstructure:"label_height"`
	InsetX       int           `mapstructure:"inset_x"`
	InsetY       int           `mapstructure:"inset_y"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Debug        bool          `mapstructure:"debug"`
}

// Defaults returns the built-in configuration, matching the values the
// original daemon ships when no config file is present.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DesktopDir:   filepath.Join(home, "Desktop"),
		ScriptDirs:   []string{filepath.Join(home, ".config", "cvh-icons", "scripts")},
		Namespace:    "cvh-icons",
		IconSize:     64,
		FontSize:     12,
		GridSpacing:  16,
		LabelHeight:  24,
		InsetX:       16,
		InsetY:       16,
		TickInterval: 16 * time.Millisecond,
		Debug:        false,
	}
}

// Load reads configuration from an optional file path and the environment,
// layering both on top of Defaults(). An empty path skips file loading
// (e.g. "no config file found" is not an error).
func Load(path string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("CVH_ICONS")
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("desktop_dir", cfg.DesktopDir)
	v.SetDefault("script_dirs", cfg.ScriptDirs)
	v.SetDefault("namespace", cfg.Namespace)
	v.SetDefault("icon_size", cfg.IconSize)
	v.SetDefault("font_size", cfg.FontSize)
	v.SetDefault("grid_spacing", cfg.GridSpacing)
	v.SetDefault("label_height", cfg.LabelHeight)
	v.SetDefault("inset_x", cfg.InsetX)
	v.SetDefault("inset_y", cfg.InsetY)
	v.SetDefault("tick_interval", cfg.TickInterval)
	v.SetDefault("debug", cfg.Debug)
}

// CellSize returns the grid-cell dimensions derived from IconSize,
// LabelHeight and GridSpacing.
func (c Config) CellSize() (w, h int) {
	return c.IconSize + c.GridSpacing, c.IconSize + c.LabelHeight + c.GridSpacing
}
