package fs

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
)

// DefaultDebounceDelay is how long the watcher waits after the last change
// to a record before reporting it.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher reports changes to slot records made by other processes.
type Watcher struct {
	dir      string
	maxCodes int
	delay    time.Duration
	logger   ports.Logger
	onChange func(slot domain.Slot)

	mu       sync.Mutex
	debounce map[domain.Slot]*time.Timer
}

// NewWatcher creates a watcher for dir. onChange is called once per burst of
// writes, creates, renames or removals affecting a record in [0, maxCodes).
func NewWatcher(dir string, maxCodes int, delay time.Duration, logger ports.Logger, onChange func(slot domain.Slot)) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Watcher{
		dir:      dir,
		maxCodes: maxCodes,
		delay:    delay,
		logger:   logger,
		onChange: onChange,
		debounce: make(map[domain.Slot]*time.Timer),
	}
}

// Run watches until ctx ends. It returns an error only if the watch could
// not be established.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			slot, isRecord := SlotFromPath(event.Name)
			if !isRecord || !slot.Valid(w.maxCodes) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(slot)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("slot watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) schedule(slot domain.Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.debounce[slot]; ok {
		t.Stop()
	}
	w.debounce[slot] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.debounce, slot)
		w.mu.Unlock()
		w.onChange(slot)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for slot, t := range w.debounce {
		t.Stop()
		delete(w.debounce, slot)
	}
}
