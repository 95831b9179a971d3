package ports

import (
	"context"

	"github.com/bft-labs/irclone/internal/domain"
)

// Feedback renders the indicator lights.
type Feedback interface {
	// Show sets the given positions to color. No positions means all.
	Show(color domain.Color, positions ...int)

	// Flash blinks the positions on and off a fixed number of times and
	// blocks until done or ctx ends. No positions means all.
	Flash(ctx context.Context, color domain.Color, positions ...int)

	// Clear turns every position off.
	Clear()
}
