package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Integer thresholds are pointers so an explicit zero can be told apart from
// an omitted key.
type FileConfig struct {
	StoreDir        string  `toml:"store_dir"`
	MaxCodes        int     `toml:"max_codes"`
	MinPulses       int     `toml:"min_pulses"`
	MaxSamples      int     `toml:"max_samples"`
	StartMin        *int    `toml:"start_min"`
	StartMax        *int    `toml:"start_max"`
	StopThreshold   *int    `toml:"stop_threshold"`
	StopAfter       *int    `toml:"stop_after"`
	DecodeMode      string  `toml:"decode_mode"`
	TriggerDuration string  `toml:"trigger_duration"`
	SettleDuration  string  `toml:"settle_duration"`
	CaptureTimeout  string  `toml:"capture_timeout"`
	PollInterval    string  `toml:"poll_interval"`
	CarrierHz       int     `toml:"carrier_hz"`
	DutyCycle       float64 `toml:"duty_cycle"`
	RepeatMode      string  `toml:"repeat_mode"`
	RepeatInterval  string  `toml:"repeat_interval"`
	FlashCount      int     `toml:"flash_count"`
	FlashInterval   string  `toml:"flash_interval"`
	Brightness      float64 `toml:"brightness"`
	LogLevel        string  `toml:"log_level"`
	Debug           *bool   `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.irclone/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".irclone", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("store-dir", fc.StoreDir, &cfg.StoreDir)
	s.setString("decode-mode", fc.DecodeMode, &cfg.DecodeMode)
	s.setString("repeat-mode", fc.RepeatMode, &cfg.RepeatMode)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("max-codes", fc.MaxCodes, &cfg.MaxCodes)
	s.setInt("min-pulses", fc.MinPulses, &cfg.MinPulses)
	s.setInt("max-samples", fc.MaxSamples, &cfg.MaxSamples)
	s.setInt("carrier-hz", fc.CarrierHz, &cfg.CarrierHz)
	s.setInt("flash-count", fc.FlashCount, &cfg.FlashCount)
	s.setIntPtr("start-min", fc.StartMin, &cfg.StartMin)
	s.setIntPtr("start-max", fc.StartMax, &cfg.StartMax)
	s.setIntPtr("stop-threshold", fc.StopThreshold, &cfg.StopThreshold)
	s.setIntPtr("stop-after", fc.StopAfter, &cfg.StopAfter)

	s.setFloat("duty-cycle", fc.DutyCycle, &cfg.DutyCycle)
	s.setFloat("brightness", fc.Brightness, &cfg.Brightness)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"trigger", fc.TriggerDuration, &cfg.TriggerDuration},
		{"settle", fc.SettleDuration, &cfg.SettleDuration},
		{"capture-timeout", fc.CaptureTimeout, &cfg.CaptureTimeout},
		{"poll", fc.PollInterval, &cfg.PollInterval},
		{"repeat-interval", fc.RepeatInterval, &cfg.RepeatInterval},
		{"flash-interval", fc.FlashInterval, &cfg.FlashInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setBool("debug", fc.Debug, &cfg.Debug)
	return nil
}

// setIntPtr sets an int from an optional file value, zero included.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
