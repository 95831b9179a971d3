package ports

import (
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/pkg/log"
)

// Logger is the structured logger used by internal packages.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported so internal packages import ports only.
var (
	String   = log.String
	Int      = log.Int
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Samples  = log.Samples
	Any      = log.Any
)

// SlotField creates a "slot" field.
func SlotField(slot domain.Slot) Field {
	return log.Slot(int(slot))
}
