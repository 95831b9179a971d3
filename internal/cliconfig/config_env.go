package cliconfig

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable irclone reads.
const EnvPrefix = "IRCLONE_"

// EnvFilePath returns the .env file to load: IRCLONE_ENV_FILE, or ".env".
func EnvFilePath() string {
	if p := os.Getenv(EnvPrefix + "ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}

// LoadDotEnv loads path into the process environment. Variables already set
// in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (IRCLONE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("store-dir", env("STORE_DIR"), &cfg.StoreDir)
	s.setString("decode-mode", env("DECODE_MODE"), &cfg.DecodeMode)
	s.setString("repeat-mode", env("REPEAT_MODE"), &cfg.RepeatMode)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	ints := []struct {
		flag, key string
		dst       *int
	}{
		{"max-codes", "MAX_CODES", &cfg.MaxCodes},
		{"min-pulses", "MIN_PULSES", &cfg.MinPulses},
		{"max-samples", "MAX_SAMPLES", &cfg.MaxSamples},
		{"start-min", "START_MIN", &cfg.StartMin},
		{"start-max", "START_MAX", &cfg.StartMax},
		{"stop-threshold", "STOP_THRESHOLD", &cfg.StopThreshold},
		{"stop-after", "STOP_AFTER", &cfg.StopAfter},
		{"carrier-hz", "CARRIER_HZ", &cfg.CarrierHz},
		{"flash-count", "FLASH_COUNT", &cfg.FlashCount},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, env(i.key), i.dst); err != nil {
			return err
		}
	}

	if err := s.setFloatFromString("duty-cycle", env("DUTY_CYCLE"), &cfg.DutyCycle); err != nil {
		return err
	}
	if err := s.setFloatFromString("brightness", env("BRIGHTNESS"), &cfg.Brightness); err != nil {
		return err
	}

	durations := []struct {
		flag, key string
		dst       *time.Duration
	}{
		{"trigger", "TRIGGER_DURATION", &cfg.TriggerDuration},
		{"settle", "SETTLE_DURATION", &cfg.SettleDuration},
		{"capture-timeout", "CAPTURE_TIMEOUT", &cfg.CaptureTimeout},
		{"poll", "POLL_INTERVAL", &cfg.PollInterval},
		{"repeat-interval", "REPEAT_INTERVAL", &cfg.RepeatInterval},
		{"flash-interval", "FLASH_INTERVAL", &cfg.FlashInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, env(d.key), d.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("debug", env("DEBUG"), &cfg.Debug)
	return nil
}
