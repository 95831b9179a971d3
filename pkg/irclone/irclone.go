package irclone

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/irclone/internal/adapters/console"
	"github.com/bft-labs/irclone/internal/adapters/fs"
	"github.com/bft-labs/irclone/internal/adapters/replay"
	"github.com/bft-labs/irclone/internal/app"
	"github.com/bft-labs/irclone/internal/capture"
	"github.com/bft-labs/irclone/internal/decode"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/internal/registry"
	"github.com/bft-labs/irclone/internal/transmit"
	"github.com/bft-labs/irclone/pkg/log"
)

// Irclone captures infrared remote codes into numbered slots and plays
// them back. Use New() to create an instance, then Start() to load the
// stored codes and, if an Input was given, run the button loop.
type Irclone struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	cloner    *app.Cloner
	store     *fs.SlotFileRepository
	logger    ports.Logger
	plugins   []Plugin

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Irclone instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
func New(cfg Config, opts ...Option) (*Irclone, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	if o.receiver == nil {
		o.receiver = replay.NewReceiver(cfg.MaxSamples, 0)
	}
	if o.emitter == nil {
		o.emitter = replay.NewEmitter(replay.EmitterConfig{Carrier: cfg.carrier()})
	}
	if o.feedback == nil {
		o.feedback = console.NewFeedback(console.FeedbackConfig{
			FlashCount:    cfg.FlashCount,
			FlashInterval: cfg.FlashInterval,
			Brightness:    cfg.Brightness,
		}, logger)
	}

	store := fs.NewSlotFileRepository(cfg.StoreDir)
	cloner := app.NewCloner(
		app.ClonerConfig{PollInterval: cfg.PollInterval, Debug: cfg.Debug},
		capture.New(cfg.captureConfig(), o.receiver, logger),
		decode.New(cfg.decodeConfig()),
		transmit.New(cfg.transmitConfig(), o.emitter, logger),
		registry.New(cfg.MaxCodes),
		store,
		o.feedback,
		logger,
		emitter,
	)

	return &Irclone{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		cloner:    cloner,
		store:     store,
		logger:    logger,
		plugins:   o.plugins,
	}, nil
}

// Start probes the store, loads every record into memory and initializes
// plugins. With an Input configured it then runs the control loop in the
// background until Stop or until the input is exhausted (see Done).
func (w *Irclone) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.lifecycle.SetCancel(cancel)

	if !w.store.Probe() {
		w.logger.Warn("store directory is not writable", ports.String("dir", w.store.Dir()))
	}
	if n, err := w.store.Sweep(); err != nil {
		w.logger.Warn("failed to sweep store", ports.Err(err))
	} else if n > 0 {
		w.logger.Info("removed stale temporary files", ports.Int("count", n))
	}
	if _, err := w.cloner.Init(runCtx); err != nil {
		w.logger.Warn("starting with some slots empty", ports.Err(err))
	}

	pluginCfg := PluginConfig{
		StoreDir: w.config.StoreDir,
		MaxCodes: w.config.MaxCodes,
		Writable: w.store.Writable(),
		Logger:   w.logger,
		Lookup:   w.lookup,
	}
	for _, p := range w.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			w.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = w.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		w.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	if err := w.lifecycle.TransitionTo(app.StateRunning, "slots loaded"); err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	w.done = done
	input := w.opts.input
	w.lifecycle.Go(func() {
		defer close(done)
		if input == nil {
			<-runCtx.Done()
			return
		}
		err := w.cloner.Run(runCtx, input)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("control loop error", ports.Err(err))
			_ = w.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop ends the control loop and shuts plugins down. It waits up to
// app.ShutdownTimeout for an in-flight capture or transmission.
func (w *Irclone) Stop() error {
	w.mu.Lock()
	if !w.lifecycle.CanStop() {
		w.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	err := w.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	shutdownCtx := context.Background()
	for i := len(w.plugins) - 1; i >= 0; i-- {
		p := w.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			w.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		}
	}

	if err != nil {
		_ = w.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = w.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (w *Irclone) Status() State {
	return State(w.lifecycle.State())
}

// Done is closed when the control loop exits, either because the input was
// exhausted or the instance was stopped. It is nil before the first Start.
func (w *Irclone) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.done
}

// Capture records a signal into the current slot.
func (w *Irclone) Capture(ctx context.Context) (CaptureEvent, error) {
	if err := w.requireRunning(); err != nil {
		return CaptureEvent{}, err
	}
	r, err := w.cloner.Capture(ctx)
	return CaptureEvent{
		SessionID:  r.SessionID,
		Slot:       int(r.Slot),
		RawSamples: r.RawSamples,
		Pulses:     r.Pulses,
		Saved:      r.Saved,
		Duration:   r.Duration,
		Err:        r.Err,
	}, err
}

// Transmit sends the current slot's code once.
func (w *Irclone) Transmit(ctx context.Context) error {
	_, err := w.TransmitHold(ctx, nil)
	return err
}

// TransmitHold sends the current slot's code, then repeats while held
// returns true.
func (w *Irclone) TransmitHold(ctx context.Context, held func() bool) (TransmitEvent, error) {
	if err := w.requireRunning(); err != nil {
		return TransmitEvent{}, err
	}
	r, err := w.cloner.Transmit(ctx, held)
	return TransmitEvent{
		Slot:     int(r.Slot),
		Frames:   r.Frames,
		Pulses:   r.Pulses,
		Duration: r.Duration,
		Err:      r.Err,
	}, err
}

// Advance selects the next slot, wrapping after the last, and returns it.
func (w *Irclone) Advance() int {
	return int(w.cloner.Advance())
}

// Select makes slot current.
func (w *Irclone) Select(slot int) error {
	return w.cloner.Select(domain.Slot(slot))
}

// Current returns the selected slot.
func (w *Irclone) Current() int {
	return int(w.cloner.Registry().Current())
}

// Slots returns a copy of every programmed slot's code.
func (w *Irclone) Slots() map[int][]uint16 {
	reg := w.cloner.Registry()
	out := make(map[int][]uint16)
	for _, s := range reg.PopulatedSlots() {
		if train, ok := reg.Get(s); ok {
			out[int(s)] = train.Uint16s()
		}
	}
	return out
}

// PopulatedSlots returns the programmed slot indices in ascending order.
func (w *Irclone) PopulatedSlots() []int {
	slots := w.cloner.Registry().PopulatedSlots()
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = int(s)
	}
	return out
}

// Config returns the effective configuration, defaults applied.
func (w *Irclone) Config() Config {
	return w.config
}

// Thresholds returns the decoder settings actually in effect.
func (w *Irclone) Thresholds() Thresholds {
	d := w.cloner.DecoderConfig()
	return Thresholds{
		DecodeMode:    string(d.Mode),
		MinPulses:     d.MinPulses,
		StartMin:      uint16(d.StartMin),
		StartMax:      uint16(d.StartMax),
		StopThreshold: uint16(d.StopThreshold),
		StopAfter:     d.StopAfter,
	}
}

// Writable reports whether captured codes are being persisted.
func (w *Irclone) Writable() bool {
	return w.store.Writable()
}

func (w *Irclone) lookup(slot int) ([]uint16, bool) {
	train, ok := w.cloner.Registry().Get(domain.Slot(slot))
	if !ok {
		return nil, false
	}
	return train.Uint16s(), true
}

func (w *Irclone) requireRunning() error {
	if w.lifecycle.State() != app.StateRunning {
		return domain.ErrNotRunning
	}
	return nil
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"irclone": {Version, MinCompatibleVersion},
		"log":     {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
