// Package decode turns raw receiver samples into validated pulse trains.
//
// The decoder only delimits a signal. It looks for the leading burst of the
// target protocol and for the first long space after it; it never interprets
// logical bits.
package decode

import (
	"fmt"

	"github.com/bft-labs/irclone/internal/domain"
)

// Mode selects the decoding strategy.
type Mode string

const (
	// ModeStrict trims leading noise before the start burst and cuts the
	// train at the first long space.
	ModeStrict Mode = "strict"

	// ModeSimple keeps every raw sample and only applies the length check.
	ModeSimple Mode = "simple"
)

// Default thresholds, in microsecond ticks.
const (
	DefaultMinPulses     = 50
	DefaultStartMin      = 8500
	DefaultStartMax      = 9500
	DefaultStopThreshold = 2000
	DefaultStopAfter     = 2
)

// Config holds decoder thresholds.
type Config struct {
	Mode Mode

	// MinPulses is the minimum number of raw samples for a capture to count.
	MinPulses int

	// StartMin and StartMax bound the leading burst of the signal.
	StartMin domain.PulseSample
	StartMax domain.PulseSample

	// StopThreshold is the duration at or above which a sample ends the
	// signal, once StopAfter samples have been accepted.
	StopThreshold domain.PulseSample
	StopAfter     int
}

// DefaultConfig returns the thresholds for NEC-style remotes.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeStrict,
		MinPulses:     DefaultMinPulses,
		StartMin:      DefaultStartMin,
		StartMax:      DefaultStartMax,
		StopThreshold: DefaultStopThreshold,
		StopAfter:     DefaultStopAfter,
	}
}

// Decoder validates raw captures.
type Decoder struct {
	cfg Config
}

// New creates a decoder. Zero-valued thresholds fall back to defaults.
func New(cfg Config) *Decoder {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.MinPulses <= 0 {
		cfg.MinPulses = def.MinPulses
	}
	if cfg.StartMin == 0 && cfg.StartMax == 0 {
		cfg.StartMin, cfg.StartMax = def.StartMin, def.StartMax
	}
	if cfg.StopThreshold == 0 {
		cfg.StopThreshold = def.StopThreshold
	}
	if cfg.StopAfter <= 0 {
		cfg.StopAfter = def.StopAfter
	}
	return &Decoder{cfg: cfg}
}

// Config returns the effective thresholds.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Decode returns the pulse train contained in raw, or an error wrapping
// domain.ErrCaptureTooShort.
//
// The length check is made against the raw sample count, not the trimmed
// train, so a trimmed train may be shorter than MinPulses.
func (d *Decoder) Decode(raw []domain.PulseSample) (domain.PulseTrain, error) {
	var train domain.PulseTrain
	switch d.cfg.Mode {
	case ModeSimple:
		train = domain.PulseTrain(raw).Clone()
	default:
		train = d.window(raw)
	}

	if len(raw) < d.cfg.MinPulses {
		return nil, fmt.Errorf("%w: %d raw samples, need %d", domain.ErrCaptureTooShort, len(raw), d.cfg.MinPulses)
	}
	// Deliberately stricter than the raw count: an empty window replays nothing.
	if train.Empty() {
		return nil, fmt.Errorf("%w: no start burst in %d samples", domain.ErrCaptureTooShort, len(raw))
	}
	return train, nil
}

// window applies the start/stop thresholds.
func (d *Decoder) window(raw []domain.PulseSample) domain.PulseTrain {
	var out domain.PulseTrain
	started := false
	for _, s := range raw {
		if !started && s >= d.cfg.StartMin && s <= d.cfg.StartMax {
			started = true
		} else if s >= d.cfg.StopThreshold && len(out) >= d.cfg.StopAfter {
			break
		}
		if started {
			out = append(out, s)
		}
	}
	return out
}
