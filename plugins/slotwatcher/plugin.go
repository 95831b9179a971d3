// Package slotwatcher reports when slot records on disk stop matching the
// codes held in memory, for example after a record was edited or copied in
// by hand. It only reports: the running instance keeps the codes it loaded
// until it is restarted.
package slotwatcher

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bft-labs/irclone/internal/adapters/fs"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/pkg/irclone"
	"github.com/bft-labs/irclone/pkg/log"
)

// DriftKind says how a record differs from memory.
type DriftKind string

const (
	DriftChanged    DriftKind = "changed"
	DriftRemoved    DriftKind = "removed"
	DriftUnreadable DriftKind = "unreadable"
)

// Drift describes one slot whose record no longer matches memory.
type Drift struct {
	Slot int
	Kind DriftKind
	Err  error
}

// Config holds configuration options for the slot watcher plugin.
type Config struct {
	// DebounceDelay is how long to wait after the last write to a record.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// OnDrift, if set, is called for every detected drift.
	OnDrift func(Drift)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: fs.DefaultDebounceDelay}
}

// Plugin watches the store directory.
type Plugin struct {
	cfg Config

	mu      sync.Mutex
	logger  irclone.Logger
	repo    *fs.SlotFileRepository
	lookup  func(int) ([]uint16, bool)
	drifted map[int]Drift
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new slot watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = fs.DefaultDebounceDelay
	}
	return &Plugin{cfg: cfg, drifted: make(map[int]Drift)}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "slotwatcher"
}

// Initialize starts watching cfg.StoreDir.
func (p *Plugin) Initialize(ctx context.Context, cfg irclone.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.repo = fs.NewSlotFileRepository(cfg.StoreDir)
	p.lookup = cfg.Lookup
	p.mu.Unlock()

	if cfg.StoreDir == "" || cfg.Lookup == nil {
		p.logger.Warn("slot watcher disabled: no store directory")
		return nil
	}

	watcher := fs.NewWatcher(cfg.StoreDir, cfg.MaxCodes, p.cfg.DebounceDelay, p.logger, func(slot domain.Slot) {
		p.check(ctx, int(slot))
	})

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := watcher.Run(watchCtx); err != nil {
			p.logger.Error("slot watcher: failed to watch store", log.Err(err))
		}
	}()

	p.logger.Info("slot watcher plugin initialized", log.String("dir", cfg.StoreDir))
	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Drifted returns the slots currently out of step with memory.
func (p *Plugin) Drifted() []Drift {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Drift, 0, len(p.drifted))
	for _, d := range p.drifted {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Drift) int { return a.Slot - b.Slot })
	return out
}

func (p *Plugin) check(ctx context.Context, slot int) {
	mem, inMem := p.lookup(slot)
	train, onDisk, err := p.repo.Load(ctx, domain.Slot(slot))

	var d *Drift
	switch {
	case err != nil:
		d = &Drift{Slot: slot, Kind: DriftUnreadable, Err: err}
	case !onDisk || train.Empty():
		if inMem {
			d = &Drift{Slot: slot, Kind: DriftRemoved}
		}
	case !inMem || !slices.Equal(mem, train.Uint16s()):
		d = &Drift{Slot: slot, Kind: DriftChanged}
	}

	p.mu.Lock()
	if d == nil {
		delete(p.drifted, slot)
	} else {
		p.drifted[slot] = *d
	}
	p.mu.Unlock()

	if d == nil {
		p.logger.Debug("slot record matches memory", log.Slot(slot))
		return
	}
	fields := []log.Field{log.Slot(slot), log.String("kind", string(d.Kind))}
	if d.Err != nil {
		fields = append(fields, log.Err(d.Err))
	}
	p.logger.Warn("slot record differs from memory; restart to load it", fields...)
	if p.cfg.OnDrift != nil {
		p.cfg.OnDrift(*d)
	}
}

// Ensure Plugin implements irclone.Plugin.
var _ irclone.Plugin = (*Plugin)(nil)
