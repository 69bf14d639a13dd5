// Package config loads the navigator's JSON configuration, the plaintext
// sync-key settings file shared with the out-of-scope AP captive-portal
// writer, and the plaintext connectivity status file read by operator
// tooling.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/oleche/elcano-nav-go/internal/logging"
)

// MBTilesSettings bounds the MBTilesManager's open-archive cache.
type MBTilesSettings struct {
	MaxOpenFiles  int `json:"max_open_files"`
	CacheTimeout  int `json:"cache_timeout"`
}

// ButtonPins maps the four logical buttons to GPIO pin numbers. Interpreting
// these is the out-of-scope collaborator's job; the navigator only passes
// them through.
type ButtonPins struct {
	Up     int `json:"up"`
	Down   int `json:"down"`
	Select int `json:"select"`
	Back   int `json:"back"`
}

// FallbackCoordinates is where MBTilesManager centers itself before any fix
// has ever been seen.
type FallbackCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Config is the navigator's full runtime configuration. Every field has a
// default so a missing or unreadable file never prevents startup, per the
// "Configuration errors ... never fatal" rule in §7.
type Config struct {
	AssetsFolder          string              `json:"assets_folder"`
	DefaultZoom           int                 `json:"default_zoom"`
	MinZoom               int                 `json:"min_zoom"`
	MaxZoom               int                 `json:"max_zoom"`
	DisplayUpdateInterval int                 `json:"display_update_interval"`
	SyncInterval          int                 `json:"sync_interval"`
	LogbookInterval       int                 `json:"logbook_interval"`
	FallbackCoordinates   FallbackCoordinates `json:"fallback_coordinates"`
	MBTilesSettings       MBTilesSettings     `json:"mbtiles_settings"`
	ButtonPins            ButtonPins          `json:"button_pins"`

	// DatabasePath and SettingsPath are not part of the JSON config per
	// §6 (they're fixed collaborator paths) but are exposed here so the
	// rest of the process has one place to read them from.
	DatabasePath string `json:"-"`
	SettingsPath string `json:"-"`
	StatusPath   string `json:"-"`
	BaseURL      string `json:"base_url"`
	PanelWidth   int    `json:"panel_width"`
	PanelHeight  int    `json:"panel_height"`
}

// Default returns the configuration used when no file is present, per §6's
// defaults (800x480 panel, /opt/elcano/navigation.db).
func Default() *Config {
	return &Config{
		AssetsFolder:          "/opt/elcano/maps",
		DefaultZoom:           12,
		MinZoom:               2,
		MaxZoom:               18,
		DisplayUpdateInterval: 5,
		SyncInterval:          300,
		LogbookInterval:       60,
		FallbackCoordinates:   FallbackCoordinates{Latitude: 0, Longitude: 0},
		MBTilesSettings:       MBTilesSettings{MaxOpenFiles: 3, CacheTimeout: 300},
		ButtonPins:            ButtonPins{Up: 5, Down: 6, Select: 13, Back: 19},
		DatabasePath:          "/opt/elcano/navigation.db",
		SettingsPath:          "/opt/elcano/settings.txt",
		StatusPath:            "/opt/elcano/status.txt",
		PanelWidth:            800,
		PanelHeight:           480,
	}
}

// Load reads a JSON config file at path, overlaying any present keys onto
// Default(). A missing or unreadable file is not an error: it logs a
// warning and returns the defaults, per §6/§7.
func Load(path string) *Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warning("config: %s unreadable (%v), using defaults", path, err)
		return cfg
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		logging.Warning("config: %s malformed (%v), using defaults", path, err)
		return Default()
	}

	logging.Info("config: loaded from %s", path)
	return cfg
}

// DisplayUpdateDuration returns the configured refresh interval as a
// time.Duration for use with a time.Ticker.
func (c *Config) DisplayUpdateDuration() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Second
}

// SyncIntervalDuration returns the configured sync cadence as a duration.
func (c *Config) SyncIntervalDuration() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}

// LogbookIntervalDuration returns the configured periodic logbook cadence.
func (c *Config) LogbookIntervalDuration() time.Duration {
	return time.Duration(c.LogbookInterval) * time.Second
}
