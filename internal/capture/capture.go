// Package capture acquires raw pulse samples from an infrared receiver.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
)

// Default capture timings.
const (
	DefaultMaxSamples      = 100
	DefaultTriggerDuration = 80 * time.Microsecond
	DefaultSettleDuration  = time.Second
	DefaultPollInterval    = 10 * time.Millisecond
)

// Config holds capture window settings.
type Config struct {
	// MaxSamples caps the number of samples returned.
	MaxSamples int

	// TriggerDuration is passed to Receiver.Resume.
	TriggerDuration time.Duration

	// SettleDuration is how long sampling stays active after the first
	// sample arrives, so the rest of the signal can be recorded.
	SettleDuration time.Duration

	// PollInterval is how often the receiver is checked while waiting for
	// the first sample.
	PollInterval time.Duration

	// Timeout bounds the wait for the first sample. Zero waits until the
	// context ends.
	Timeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxSamples:      DefaultMaxSamples,
		TriggerDuration: DefaultTriggerDuration,
		SettleDuration:  DefaultSettleDuration,
		PollInterval:    DefaultPollInterval,
	}
}

// Capturer owns a receiver and produces unfiltered raw captures.
type Capturer struct {
	cfg      Config
	receiver ports.Receiver
	logger   ports.Logger

	mu sync.Mutex
}

// New creates a Capturer. Non-positive settings fall back to defaults,
// except Timeout where zero means unbounded.
func New(cfg Config, receiver ports.Receiver, logger ports.Logger) *Capturer {
	def := DefaultConfig()
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = def.MaxSamples
	}
	if cfg.SettleDuration <= 0 {
		cfg.SettleDuration = def.SettleDuration
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.TriggerDuration < 0 {
		cfg.TriggerDuration = 0
	}
	return &Capturer{cfg: cfg, receiver: receiver, logger: logger}
}

// Capture records one signal. It clears and resumes the receiver, calls
// armed (if non-nil) so the caller can signal that it is listening, waits
// for the first sample, lets the signal settle, then pauses the receiver and
// returns the samples without validating them.
//
// Returns domain.ErrChannelBusy if another capture is in progress,
// domain.ErrCaptureTimeout if nothing arrived within Timeout, or the context
// error if ctx ended first.
func (c *Capturer) Capture(ctx context.Context, armed func()) ([]domain.PulseSample, error) {
	if !c.mu.TryLock() {
		return nil, domain.ErrChannelBusy
	}
	defer c.mu.Unlock()

	c.receiver.Clear()
	c.receiver.Resume(c.cfg.TriggerDuration)
	if armed != nil {
		armed()
	}
	c.logger.Debug("waiting for signal")

	err := c.listen(ctx)
	c.receiver.Pause()
	if err != nil {
		return nil, err
	}

	raw := c.receiver.Samples()
	if len(raw) > c.cfg.MaxSamples {
		raw = raw[:c.cfg.MaxSamples]
	}
	c.logger.Debug("capture window closed", ports.Int("samples", len(raw)))
	return raw, nil
}

// listen waits for the first sample, then for the settle period.
func (c *Capturer) listen(ctx context.Context) error {
	if err := c.waitFirst(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.SettleDuration):
		return nil
	}
}

// waitFirst blocks until the receiver holds at least one sample.
func (c *Capturer) waitFirst(ctx context.Context) error {
	if c.receiver.Len() > 0 {
		return nil
	}

	var deadline <-chan time.Time
	if c.cfg.Timeout > 0 {
		timer := time.NewTimer(c.cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w after %s", domain.ErrCaptureTimeout, c.cfg.Timeout)
		case <-ticker.C:
			if c.receiver.Len() > 0 {
				return nil
			}
		}
	}
}
