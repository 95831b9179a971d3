// Package transmit replays pulse trains on an infrared emitter.
package transmit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
)

// RepeatMode selects what is re-sent while the button stays held.
type RepeatMode string

const (
	// RepeatCode sends the short protocol repeat frame back to back.
	RepeatCode RepeatMode = "code"

	// RepeatFull resends the whole train, pausing RepeatInterval between sends.
	RepeatFull RepeatMode = "full"
)

// DefaultRepeatInterval is the pause between full-train repeats.
const DefaultRepeatInterval = 100 * time.Millisecond

// Config holds transmit settings.
type Config struct {
	RepeatMode     RepeatMode
	RepeatInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RepeatMode:     RepeatCode,
		RepeatInterval: DefaultRepeatInterval,
	}
}

// Transmitter is the single owner of an emitter.
type Transmitter struct {
	cfg     Config
	emitter ports.Emitter
	logger  ports.Logger

	mu sync.Mutex
}

// New creates a Transmitter.
func New(cfg Config, emitter ports.Emitter, logger ports.Logger) *Transmitter {
	if cfg.RepeatMode == "" {
		cfg.RepeatMode = RepeatCode
	}
	if cfg.RepeatInterval <= 0 {
		cfg.RepeatInterval = DefaultRepeatInterval
	}
	return &Transmitter{cfg: cfg, emitter: emitter, logger: logger}
}

// TransmitOnce sends train a single time.
// Returns domain.ErrEmptySlot without touching the emitter if train is empty.
func (t *Transmitter) TransmitOnce(ctx context.Context, train domain.PulseTrain) error {
	if train.Empty() {
		return domain.ErrEmptySlot
	}
	if !t.mu.TryLock() {
		return domain.ErrChannelBusy
	}
	defer t.mu.Unlock()

	if err := t.send(ctx, train); err != nil {
		return err
	}
	t.logger.Debug("transmitted", t.carrierFields(ports.Int("frames", 1))...)
	return nil
}

// TransmitWithHold sends train once, then keeps repeating for as long as
// held reports true. held is checked once per repeat. It returns the number
// of frames sent, including the first.
func (t *Transmitter) TransmitWithHold(ctx context.Context, train domain.PulseTrain, held func() bool) (int, error) {
	if train.Empty() {
		return 0, domain.ErrEmptySlot
	}
	if !t.mu.TryLock() {
		return 0, domain.ErrChannelBusy
	}
	defer t.mu.Unlock()

	if err := t.send(ctx, train); err != nil {
		return 0, err
	}
	frames := 1

	repeat := train
	if t.cfg.RepeatMode == RepeatCode {
		repeat = domain.RepeatCode()
	}

	for held != nil && held() {
		if t.cfg.RepeatMode == RepeatFull {
			select {
			case <-ctx.Done():
				return frames, ctx.Err()
			case <-time.After(t.cfg.RepeatInterval):
			}
		}
		if err := t.send(ctx, repeat); err != nil {
			return frames, err
		}
		frames++
	}

	t.logger.Debug("transmit released", t.carrierFields(
		ports.Int("frames", frames),
		ports.String("repeat_mode", string(t.cfg.RepeatMode)),
	)...)
	return frames, nil
}

func (t *Transmitter) carrierFields(fields ...ports.Field) []ports.Field {
	c := t.emitter.Carrier()
	return append(fields, ports.Int("carrier_hz", c.FrequencyHz), ports.Any("duty_cycle", c.DutyCycle))
}

func (t *Transmitter) send(ctx context.Context, pulses domain.PulseTrain) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.emitter.Send(ctx, pulses); err != nil {
		return fmt.Errorf("emit %d pulses: %w", pulses.Len(), err)
	}
	return nil
}
