// Package config loads runtime settings from defaults, an optional JSON file
// and JUTSU_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/jutsu/internal/audio"
	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/effect"
	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/gesture"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "config.json"

// Config holds every runtime setting.
type Config struct {
	CameraID int    `json:"camera_id"`
	FPS      int    `json:"fps"`
	HTTPAddr string `json:"http_addr"`
	DataDir  string `json:"data_dir"`

	SealsDir   string `json:"seals_dir"`
	EffectsDir string `json:"effects_dir"`

	RequiredHold          int `json:"required_hold"`
	CooldownFrames        int `json:"cooldown_frames"`
	DefaultDurationFrames int `json:"default_duration_frames"`

	AudioCommand []string `json:"audio_command"`
	LogLevel     string   `json:"log_level"`

	// Tray runs a system tray menu; Window shows the composited output.
	Tray   bool `json:"tray"`
	Window bool `json:"window"`

	Rules    gesture.Rules             `json:"rules"`
	Detector detector.Config           `json:"detector"`
	Effects  []effect.Spec             `json:"effects"`
	Combos   []gesture.ComboDefinition `json:"combos"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		CameraID:              0,
		FPS:                   30,
		HTTPAddr:              ":8080",
		DataDir:               defaultDataDir(),
		SealsDir:              "seals-image",
		EffectsDir:            "jutsu",
		RequiredHold:          1,
		CooldownFrames:        30,
		DefaultDurationFrames: gesture.DefaultDurationFrames,
		AudioCommand:          append([]string(nil), audio.DefaultCommand...),
		LogLevel:              "info",
		Tray:                  false,
		Window:                true,
		Rules:                 gesture.DefaultRules(),
		Detector:              detector.DefaultConfig(),
		Effects:               effect.DefaultCatalog(),
		Combos:                DefaultCombos(),
	}
}

// DefaultCombos returns the stock combo library, keyed 1 to 4 for the keyboard.
func DefaultCombos() []gesture.ComboDefinition {
	return []gesture.ComboDefinition{
		{ID: "1", Name: "Rasengan", Sequence: []gesture.Gesture{gesture.Ram, gesture.Horse}},
		{ID: "2", Name: "Chidori", Sequence: []gesture.Gesture{gesture.Dog, gesture.Ram}},
		{ID: "3", Name: "Fire Ball", Sequence: []gesture.Gesture{gesture.Dog, gesture.Horse}},
		{ID: "4", Name: "Sharingan", Sequence: []gesture.Gesture{gesture.Ram}},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jutsu"
	}
	return filepath.Join(home, ".jutsu")
}

// Load builds a Config from defaults, the JSON file at path (DefaultFile when
// empty; a missing file is fine) and environment overrides, then validates it.
func Load(path string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultFile
	}

	cfg := Defaults()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		logger.Info("loaded config file", zap.String("path", path))
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	o := overrider{logger: logger}
	o.setInt(&cfg.CameraID, "JUTSU_CAMERA_ID")
	o.setInt(&cfg.FPS, "JUTSU_FPS")
	o.setString(&cfg.HTTPAddr, "JUTSU_HTTP_ADDR")
	o.setString(&cfg.DataDir, "JUTSU_DATA_DIR")
	o.setString(&cfg.SealsDir, "JUTSU_SEALS_DIR")
	o.setString(&cfg.EffectsDir, "JUTSU_EFFECTS_DIR")
	o.setInt(&cfg.RequiredHold, "JUTSU_REQUIRED_HOLD")
	o.setInt(&cfg.CooldownFrames, "JUTSU_COOLDOWN_FRAMES")
	o.setInt(&cfg.DefaultDurationFrames, "JUTSU_DEFAULT_DURATION")
	o.setString(&cfg.LogLevel, "JUTSU_LOG_LEVEL")
	o.setBool(&cfg.Tray, "JUTSU_TRAY")
	o.setBool(&cfg.Window, "JUTSU_WINDOW")
	if v := os.Getenv("JUTSU_AUDIO_COMMAND"); v != "" {
		cfg.AudioCommand = strings.Fields(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.DefaultDurationFrames <= 0 {
		return fmt.Errorf("default duration must be positive, got %d", c.DefaultDurationFrames)
	}
	if c.RequiredHold < 0 {
		return fmt.Errorf("required hold must not be negative, got %d", c.RequiredHold)
	}
	if c.CooldownFrames < 0 {
		return fmt.Errorf("cooldown must not be negative, got %d", c.CooldownFrames)
	}
	if len(c.AudioCommand) == 0 {
		return errors.New("audio command is empty")
	}
	for _, e := range c.Effects {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	if _, err := gesture.NewLibrary(c.Combos...); err != nil {
		return err
	}
	return nil
}

// Library builds the combo library.
func (c *Config) Library() (*gesture.Library, error) {
	return gesture.NewLibrary(c.Combos...)
}

// Engine returns the seal pipeline settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		RequiredHold:   c.RequiredHold,
		CooldownFrames: c.CooldownFrames,
		Rules:          c.Rules,
	}
}

// DBPath returns the sqlite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "jutsu.db")
}

type overrider struct {
	logger *zap.Logger
}

func (o overrider) setInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			o.logger.Warn("invalid env value", zap.String("key", envKey), zap.String("value", val))
		}
	}
}

func (o overrider) setString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func (o overrider) setBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*field = b
		} else {
			o.logger.Warn("invalid env value", zap.String("key", envKey), zap.String("value", val))
		}
	}
}
