package domain

import "errors"

// Domain errors represent error conditions in the irclone domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrCaptureTooShort is returned when a capture has fewer raw samples than
	// the configured minimum, or when no start burst was found in it.
	ErrCaptureTooShort = errors.New("irclone: capture too short")

	// ErrEmptySlot is returned when transmitting a slot that was never programmed.
	ErrEmptySlot = errors.New("irclone: slot is empty")

	// ErrStorageUnwritable is returned by Save when the startup probe found the
	// storage medium read-only. Callers treat it as a skipped save.
	ErrStorageUnwritable = errors.New("irclone: storage is not writable")

	// ErrMalformedRecord is returned when a stored slot record cannot be parsed.
	ErrMalformedRecord = errors.New("irclone: malformed slot record")

	// ErrCaptureTimeout is returned when no signal arrived within the capture timeout.
	ErrCaptureTimeout = errors.New("irclone: no signal received")

	// ErrChannelBusy is returned when the receiver or emitter is already in use.
	ErrChannelBusy = errors.New("irclone: channel busy")

	// ErrInvalidSlot is returned for slot indexes outside [0, max_codes).
	ErrInvalidSlot = errors.New("irclone: invalid slot")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("irclone: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("irclone: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("irclone: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("irclone: invalid configuration")
)
