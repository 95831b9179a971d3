package irclone

import (
	"time"

	"github.com/bft-labs/irclone/internal/app"
)

// State is the lifecycle state of an Irclone instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// CaptureEvent describes one capture attempt. Err is nil on success.
type CaptureEvent struct {
	SessionID  string
	Slot       int
	RawSamples int
	Pulses     int
	// Saved is false when storage is read-only or the write failed; the slot
	// is still programmed in memory.
	Saved    bool
	Duration time.Duration
	Err      error
}

// TransmitEvent describes one transmission, including held repeats.
type TransmitEvent struct {
	Slot     int
	Frames   int
	Pulses   int
	Duration time.Duration
	Err      error
}

// EventHandler receives notifications. Calls are synchronous from the
// goroutine doing the work and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnCapture(CaptureEvent)
	OnTransmit(TransmitEvent)
}

// BaseEventHandler implements EventHandler with no-ops, for embedding.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnCapture(CaptureEvent)         {}
func (BaseEventHandler) OnTransmit(TransmitEvent)       {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnCapture(r app.CaptureResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnCapture(CaptureEvent{
		SessionID:  r.SessionID,
		Slot:       int(r.Slot),
		RawSamples: r.RawSamples,
		Pulses:     r.Pulses,
		Saved:      r.Saved,
		Duration:   r.Duration,
		Err:        r.Err,
	})
}

func (e *eventEmitterWrapper) OnTransmit(r app.TransmitResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnTransmit(TransmitEvent{
		Slot:     int(r.Slot),
		Frames:   r.Frames,
		Pulses:   r.Pulses,
		Duration: r.Duration,
		Err:      r.Err,
	})
}
