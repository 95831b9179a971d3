package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bft-labs/irclone/internal/validation"
)

// Config holds CLI configuration for irclone. The key tags name each field
// the way it appears in the config file and in validation messages.
type Config struct {
	StoreDir string `key:"store_dir" validate:"required"`
	MaxCodes int    `key:"max_codes" validate:"min=1,max=9"`

	MinPulses     int    `key:"min_pulses" validate:"min=1"`
	MaxSamples    int    `key:"max_samples" validate:"min=1"`
	StartMin      int    `key:"start_min" validate:"min=1,max=65535,ltefield=StartMax"`
	StartMax      int    `key:"start_max" validate:"min=1,max=65535"`
	StopThreshold int    `key:"stop_threshold" validate:"min=1,max=65535"`
	StopAfter     int    `key:"stop_after" validate:"min=1"`
	DecodeMode    string `key:"decode_mode" validate:"oneof=strict simple"`

	TriggerDuration time.Duration `key:"trigger_duration" validate:"gt=0"`
	SettleDuration  time.Duration `key:"settle_duration" validate:"gt=0"`
	CaptureTimeout  time.Duration `key:"capture_timeout" validate:"gte=0"`
	PollInterval    time.Duration `key:"poll_interval" validate:"gt=0"`

	CarrierHz      int           `key:"carrier_hz" validate:"gt=0"`
	DutyCycle      float64       `key:"duty_cycle" validate:"gt=0,lte=1"`
	RepeatMode     string        `key:"repeat_mode" validate:"oneof=code full"`
	RepeatInterval time.Duration `key:"repeat_interval" validate:"gte=0"`

	FlashCount    int           `key:"flash_count" validate:"min=1"`
	FlashInterval time.Duration `key:"flash_interval" validate:"gt=0"`
	Brightness    float64       `key:"brightness" validate:"gt=0,lte=1"`

	LogLevel string `key:"log_level" validate:"oneof=trace debug info warn error disabled"`
	Debug    bool   `key:"debug"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StoreDir:        DefaultStoreDir(),
		MaxCodes:        5,
		MinPulses:       50,
		MaxSamples:      100,
		StartMin:        8500,
		StartMax:        9500,
		StopThreshold:   2000,
		StopAfter:       2,
		DecodeMode:      "strict",
		TriggerDuration: 80 * time.Microsecond,
		SettleDuration:  time.Second,
		CaptureTimeout:  30 * time.Second,
		PollInterval:    10 * time.Millisecond,
		CarrierHz:       38000,
		DutyCycle:       0.5,
		RepeatMode:      "code",
		RepeatInterval:  100 * time.Millisecond,
		FlashCount:      3,
		FlashInterval:   200 * time.Millisecond,
		Brightness:      0.1,
		LogLevel:        "info",
	}
}

// DefaultStoreDir returns ~/.irclone/slots, or ./slots without a home
// directory.
func DefaultStoreDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".irclone", "slots")
	}
	return "slots"
}

// Validate checks every field against its constraints and reports all
// violations at once, wrapped in domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Unlike setInt, zero is accepted since it is a meaningful threshold.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
