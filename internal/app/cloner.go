package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/irclone/internal/capture"
	"github.com/bft-labs/irclone/internal/decode"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/internal/registry"
	"github.com/bft-labs/irclone/internal/transmit"
)

// DefaultPollInterval is how often the control loop reads input.
const DefaultPollInterval = 10 * time.Millisecond

// ClonerConfig contains configuration for the control loop.
type ClonerConfig struct {
	PollInterval time.Duration
	// Debug logs raw and decoded samples for every capture.
	Debug bool
}

// CaptureResult describes one capture attempt.
type CaptureResult struct {
	SessionID  string
	Slot       domain.Slot
	RawSamples int
	Pulses     int
	Saved      bool
	Duration   time.Duration
	Err        error
}

// TransmitResult describes one transmission.
type TransmitResult struct {
	Slot     domain.Slot
	Frames   int
	Pulses   int
	Duration time.Duration
	Err      error
}

// OperationEmitter is told about every capture and transmission.
type OperationEmitter interface {
	OnCapture(CaptureResult)
	OnTransmit(TransmitResult)
}

// Cloner ties capture, decoding, storage and playback to the current slot.
// Capture and transmit are mutually exclusive; a call that finds the other
// in progress fails with ErrChannelBusy.
type Cloner struct {
	config      ClonerConfig
	capturer    *capture.Capturer
	decoder     *decode.Decoder
	transmitter *transmit.Transmitter
	registry    *registry.Registry
	store       ports.SlotRepository
	feedback    ports.Feedback
	logger      ports.Logger
	emitter     OperationEmitter

	op         sync.Mutex
	warnedRO   atomic.Bool
	lastResult atomic.Pointer[CaptureResult]
}

// NewCloner creates a cloner with the given dependencies. emitter may be nil.
func NewCloner(
	config ClonerConfig,
	capturer *capture.Capturer,
	decoder *decode.Decoder,
	transmitter *transmit.Transmitter,
	reg *registry.Registry,
	store ports.SlotRepository,
	feedback ports.Feedback,
	logger ports.Logger,
	emitter OperationEmitter,
) *Cloner {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	return &Cloner{
		config:      config,
		capturer:    capturer,
		decoder:     decoder,
		transmitter: transmitter,
		registry:    reg,
		store:       store,
		feedback:    feedback,
		logger:      logger,
		emitter:     emitter,
	}
}

// DecoderConfig returns the decoder's effective thresholds.
func (c *Cloner) DecoderConfig() decode.Config {
	return c.decoder.Config()
}

// Registry returns the in-memory slot table.
func (c *Cloner) Registry() *registry.Registry {
	return c.registry
}

// Init loads every stored record into the registry and flashes the slots
// that hold a code. Malformed records are logged and left empty; the
// returned error reports them but the cloner is usable regardless.
func (c *Cloner) Init(ctx context.Context) (int, error) {
	c.warnUnwritable()

	trains, err := c.store.LoadAll(ctx, c.registry.MaxCodes())
	if err != nil {
		c.logger.Warn("some slot records could not be loaded", ports.Err(err))
	}
	for slot, train := range trains {
		if setErr := c.registry.Set(slot, train); setErr != nil {
			c.logger.Warn("ignoring stored record", ports.SlotField(slot), ports.Err(setErr))
		}
	}

	populated := c.registry.PopulatedSlots()
	c.logger.Info("slots loaded", ports.Int("populated", len(populated)))
	if len(populated) > 0 {
		c.feedback.Flash(ctx, domain.ColorInfo, positions(populated)...)
	}
	return len(populated), err
}

// Capture records a signal into the current slot, replacing what it held.
func (c *Cloner) Capture(ctx context.Context) (CaptureResult, error) {
	if !c.op.TryLock() {
		return CaptureResult{Err: domain.ErrChannelBusy}, domain.ErrChannelBusy
	}
	defer c.op.Unlock()

	start := time.Now()
	res := CaptureResult{SessionID: uuid.NewString(), Slot: c.registry.Current()}
	logger := sessionLogger{c.logger, res.SessionID}

	raw, err := c.capturer.Capture(ctx, func() {
		c.feedback.Flash(ctx, domain.ColorProgram, int(res.Slot))
	})
	res.RawSamples = len(raw)
	if err == nil {
		if c.config.Debug {
			logger.Debug("raw samples", ports.SlotField(res.Slot), ports.Samples("samples", domain.PulseTrain(raw).Uint16s()))
		}
		var train domain.PulseTrain
		train, err = c.decoder.Decode(raw)
		if err == nil {
			res.Pulses = train.Len()
			if c.config.Debug {
				logger.Debug("decoded samples", ports.SlotField(res.Slot), ports.Samples("samples", train.Uint16s()))
			}
			err = c.registry.Set(res.Slot, train)
		}
		if err == nil {
			res.Saved = c.save(ctx, logger, res.Slot, train)
		}
	}
	res.Duration = time.Since(start)
	res.Err = err

	if err != nil {
		logger.Warn("capture rejected", ports.SlotField(res.Slot), ports.Int("raw", res.RawSamples), ports.Err(err))
		if ctx.Err() == nil {
			c.feedback.Flash(ctx, domain.ColorError, int(res.Slot))
		}
	} else {
		logger.Info("code captured",
			ports.SlotField(res.Slot),
			ports.Int("raw", res.RawSamples),
			ports.Int("pulses", res.Pulses),
			ports.Bool("saved", res.Saved),
		)
		c.feedback.Flash(ctx, domain.ColorSuccess, int(res.Slot))
	}

	c.lastResult.Store(&res)
	if c.emitter != nil {
		c.emitter.OnCapture(res)
	}
	return res, err
}

// LastCapture returns the most recent capture result, if any.
func (c *Cloner) LastCapture() (CaptureResult, bool) {
	p := c.lastResult.Load()
	if p == nil {
		return CaptureResult{}, false
	}
	return *p, true
}

func (c *Cloner) save(ctx context.Context, logger sessionLogger, slot domain.Slot, train domain.PulseTrain) bool {
	err := c.store.Save(ctx, slot, train)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrStorageUnwritable):
		logger.Debug("storage read-only, record kept in memory only", ports.SlotField(slot))
	default:
		logger.Error("failed to save record", ports.SlotField(slot), ports.Err(err))
	}
	return false
}

// Transmit plays the current slot once, then repeats while held reports
// true. A nil held sends exactly once.
func (c *Cloner) Transmit(ctx context.Context, held func() bool) (TransmitResult, error) {
	if !c.op.TryLock() {
		return TransmitResult{Err: domain.ErrChannelBusy}, domain.ErrChannelBusy
	}
	defer c.op.Unlock()

	start := time.Now()
	res := TransmitResult{Slot: c.registry.Current()}
	train, _ := c.registry.Get(res.Slot)
	res.Pulses = train.Len()

	frames, err := c.transmitter.TransmitWithHold(ctx, train, held)
	res.Frames = frames
	res.Duration = time.Since(start)
	res.Err = err

	if err != nil {
		c.logger.Warn("transmit failed", ports.SlotField(res.Slot), ports.Err(err))
		if ctx.Err() == nil {
			c.feedback.Flash(ctx, domain.ColorError, int(res.Slot))
		}
	} else {
		c.logger.Info("code transmitted",
			ports.SlotField(res.Slot),
			ports.Int("frames", frames),
			ports.Int("pulses", res.Pulses),
		)
		c.feedback.Flash(ctx, domain.ColorTransmit, int(res.Slot))
	}

	if c.emitter != nil {
		c.emitter.OnTransmit(res)
	}
	return res, err
}

// Advance moves to the next slot, wrapping after the last.
func (c *Cloner) Advance() domain.Slot {
	c.feedback.Clear()
	slot := c.registry.Advance()
	c.logger.Debug("slot selected", ports.SlotField(slot))
	return slot
}

// Select makes slot current.
func (c *Cloner) Select(slot domain.Slot) error {
	if err := c.registry.Select(slot); err != nil {
		return err
	}
	c.feedback.Clear()
	c.logger.Debug("slot selected", ports.SlotField(slot))
	return nil
}

// ShowStatus flashes every populated slot and returns them.
func (c *Cloner) ShowStatus(ctx context.Context) []domain.Slot {
	populated := c.registry.PopulatedSlots()
	c.logger.Info("slot status", ports.Any("populated", populated))
	if len(populated) > 0 {
		c.feedback.Flash(ctx, domain.ColorInfo, positions(populated)...)
	}
	return populated
}

// Run drives the cloner from input until ctx ends or the input is
// exhausted. Operation failures are reported through feedback and never end
// the loop; input errors are retried with backoff.
func (c *Cloner) Run(ctx context.Context, input ports.Input) error {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()
	retry := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)

	for {
		c.render(input.Mode())

		ev, err := input.Poll()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.logger.Info("input closed")
				return nil
			}
			c.logger.Warn("input poll failed", ports.Err(err), ports.Duration("retry_in", retry.Current()))
			if !retry.Wait(ctx) {
				return ctx.Err()
			}
			continue
		}
		retry.Reset()

		c.handle(ctx, input, ev)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Cloner) handle(ctx context.Context, input ports.Input, ev ports.Event) {
	switch ev {
	case ports.EventPrimary:
		if input.Mode() == ports.ModeProgram {
			_, _ = c.Capture(ctx)
		} else {
			_, _ = c.Transmit(ctx, func() bool { return input.Held(ports.ButtonPrimary) })
		}
	case ports.EventAdvance:
		c.Advance()
		c.waitRelease(ctx, input, ports.ButtonAdvance)
	case ports.EventStatus:
		c.ShowStatus(ctx)
	}
}

// render shows the mode color on the current slot and keeps the read-only
// warning lit.
func (c *Cloner) render(mode ports.Mode) {
	color := domain.ColorTransmit
	if mode == ports.ModeProgram {
		color = domain.ColorProgram
	}
	c.feedback.Show(color, int(c.registry.Current()))
	if !c.store.Writable() {
		c.feedback.Show(domain.ColorError, domain.StatusPixel)
	}
}

func (c *Cloner) waitRelease(ctx context.Context, input ports.Input, b ports.Button) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()
	for input.Held(b) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Cloner) warnUnwritable() {
	if c.store.Writable() || !c.warnedRO.CompareAndSwap(false, true) {
		return
	}
	c.logger.Warn("slot storage is read-only; captured codes will not survive a restart")
	c.feedback.Show(domain.ColorError, domain.StatusPixel)
}

func positions(slots []domain.Slot) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = int(s)
	}
	return out
}

// sessionLogger tags every message with the capture session.
type sessionLogger struct {
	ports.Logger
	session string
}

func (l sessionLogger) Debug(msg string, fields ...ports.Field) {
	l.Logger.Debug(msg, append(fields, ports.String("session", l.session))...)
}

func (l sessionLogger) Info(msg string, fields ...ports.Field) {
	l.Logger.Info(msg, append(fields, ports.String("session", l.session))...)
}

func (l sessionLogger) Warn(msg string, fields ...ports.Field) {
	l.Logger.Warn(msg, append(fields, ports.String("session", l.session))...)
}

func (l sessionLogger) Error(msg string, fields ...ports.Field) {
	l.Logger.Error(msg, append(fields, ports.String("session", l.session))...)
}
