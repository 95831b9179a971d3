package ports

import (
	"context"

	"github.com/bft-labs/irclone/internal/domain"
)

// SlotRepository persists one pulse train per slot.
type SlotRepository interface {
	// Save overwrites the record for slot with train.
	// Returns domain.ErrStorageUnwritable without touching storage when the
	// medium was found read-only at startup.
	Save(ctx context.Context, slot domain.Slot, train domain.PulseTrain) error

	// LoadAll reads every slot in [0, maxCodes). Missing records leave the slot
	// out of the result. Malformed records are skipped and reported in the
	// returned error (wrapping domain.ErrMalformedRecord) while the remaining
	// slots still load.
	LoadAll(ctx context.Context, maxCodes int) (map[domain.Slot]domain.PulseTrain, error)

	// Writable reports the result of the startup writability probe.
	Writable() bool
}
