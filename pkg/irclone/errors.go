package irclone

import "github.com/bft-labs/irclone/internal/domain"

// Errors returned by Irclone. Check with errors.Is.
var (
	ErrCaptureTooShort   = domain.ErrCaptureTooShort
	ErrCaptureTimeout    = domain.ErrCaptureTimeout
	ErrEmptySlot         = domain.ErrEmptySlot
	ErrStorageUnwritable = domain.ErrStorageUnwritable
	ErrMalformedRecord   = domain.ErrMalformedRecord
	ErrChannelBusy       = domain.ErrChannelBusy
	ErrInvalidSlot       = domain.ErrInvalidSlot
	ErrAlreadyRunning    = domain.ErrAlreadyRunning
	ErrNotRunning        = domain.ErrNotRunning
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
	ErrInvalidConfig     = domain.ErrInvalidConfig
)
