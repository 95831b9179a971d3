package irclone

import (
	"time"

	"github.com/bft-labs/irclone/internal/adapters/console"
	"github.com/bft-labs/irclone/internal/app"
	"github.com/bft-labs/irclone/internal/capture"
	"github.com/bft-labs/irclone/internal/decode"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/internal/transmit"
	"github.com/bft-labs/irclone/internal/validation"
)

// Decode and repeat modes.
const (
	DecodeStrict = string(decode.ModeStrict)
	DecodeSimple = string(decode.ModeSimple)
	RepeatCode   = string(transmit.RepeatCode)
	RepeatFull   = string(transmit.RepeatFull)
)

// MaxSlots is the most slots the indicator strip can show next to the
// storage warning pixel.
const MaxSlots = domain.StatusPixel

// Config holds the settings of an Irclone instance. Zero fields take the
// defaults applied by SetDefaults, so thresholds cannot be set to zero.
// The key tags name fields in validation messages.
type Config struct {
	// StoreDir holds one <slot>.txt record per programmed slot.
	StoreDir string `key:"store_dir" validate:"required"`
	MaxCodes int    `key:"max_codes" validate:"min=1,max=9"`

	// Decoding. Durations are in microsecond ticks.
	MinPulses     int    `key:"min_pulses" validate:"min=1"`
	MaxSamples    int    `key:"max_samples" validate:"min=1"`
	StartMin      uint16 `key:"start_min" validate:"min=1,ltefield=StartMax"`
	StartMax      uint16 `key:"start_max" validate:"min=1"`
	StopThreshold uint16 `key:"stop_threshold" validate:"min=1"`
	StopAfter     int    `key:"stop_after" validate:"min=1"`
	DecodeMode    string `key:"decode_mode" validate:"oneof=strict simple"`

	TriggerDuration time.Duration `key:"trigger_duration" validate:"gt=0"`
	SettleDuration  time.Duration `key:"settle_duration" validate:"gt=0"`
	// CaptureTimeout bounds the wait for a signal; zero waits forever.
	CaptureTimeout time.Duration `key:"capture_timeout" validate:"gte=0"`
	PollInterval   time.Duration `key:"poll_interval" validate:"gt=0"`

	CarrierHz      int           `key:"carrier_hz" validate:"gt=0"`
	DutyCycle      float64       `key:"duty_cycle" validate:"gt=0,lte=1"`
	RepeatMode     string        `key:"repeat_mode" validate:"oneof=code full"`
	RepeatInterval time.Duration `key:"repeat_interval" validate:"gte=0"`

	FlashCount    int           `key:"flash_count" validate:"min=1"`
	FlashInterval time.Duration `key:"flash_interval" validate:"gt=0"`
	Brightness    float64       `key:"brightness" validate:"gt=0,lte=1"`

	// Debug logs every raw and decoded capture.
	Debug bool `key:"debug"`
}

// Thresholds are the decoder settings of a running instance.
type Thresholds struct {
	DecodeMode    string
	MinPulses     int
	StartMin      uint16
	StartMax      uint16
	StopThreshold uint16
	StopAfter     int
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	dec := decode.DefaultConfig()
	capt := capture.DefaultConfig()
	tx := transmit.DefaultConfig()

	setInt(&c.MaxCodes, domain.DefaultMaxCodes)
	setInt(&c.MinPulses, dec.MinPulses)
	setInt(&c.MaxSamples, capt.MaxSamples)
	if c.StartMin == 0 {
		c.StartMin = uint16(dec.StartMin)
	}
	if c.StartMax == 0 {
		c.StartMax = uint16(dec.StartMax)
	}
	if c.StopThreshold == 0 {
		c.StopThreshold = uint16(dec.StopThreshold)
	}
	setInt(&c.StopAfter, dec.StopAfter)
	if c.DecodeMode == "" {
		c.DecodeMode = string(dec.Mode)
	}

	setDuration(&c.TriggerDuration, capt.TriggerDuration)
	setDuration(&c.SettleDuration, capt.SettleDuration)
	setDuration(&c.PollInterval, app.DefaultPollInterval)

	setInt(&c.CarrierHz, ports.DefaultCarrier.FrequencyHz)
	if c.DutyCycle == 0 {
		c.DutyCycle = ports.DefaultCarrier.DutyCycle
	}
	if c.RepeatMode == "" {
		c.RepeatMode = string(tx.RepeatMode)
	}
	setDuration(&c.RepeatInterval, tx.RepeatInterval)

	setInt(&c.FlashCount, console.DefaultFlashCount)
	setDuration(&c.FlashInterval, console.DefaultFlashInterval)
	if c.Brightness == 0 {
		c.Brightness = console.DefaultBrightness
	}
}

// Validate reports every invalid setting in one error wrapped in
// ErrInvalidConfig. Call SetDefaults first; New does both.
func (c Config) Validate() error {
	return validation.Struct(c)
}

func (c Config) decodeConfig() decode.Config {
	return decode.Config{
		Mode:          decode.Mode(c.DecodeMode),
		MinPulses:     c.MinPulses,
		StartMin:      domain.PulseSample(c.StartMin),
		StartMax:      domain.PulseSample(c.StartMax),
		StopThreshold: domain.PulseSample(c.StopThreshold),
		StopAfter:     c.StopAfter,
	}
}

func (c Config) captureConfig() capture.Config {
	return capture.Config{
		MaxSamples:      c.MaxSamples,
		TriggerDuration: c.TriggerDuration,
		SettleDuration:  c.SettleDuration,
		PollInterval:    c.PollInterval,
		Timeout:         c.CaptureTimeout,
	}
}

func (c Config) transmitConfig() transmit.Config {
	return transmit.Config{
		RepeatMode:     transmit.RepeatMode(c.RepeatMode),
		RepeatInterval: c.RepeatInterval,
	}
}

func (c Config) carrier() ports.Carrier {
	return ports.Carrier{FrequencyHz: c.CarrierHz, DutyCycle: c.DutyCycle}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
