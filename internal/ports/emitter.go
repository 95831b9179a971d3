package ports

import (
	"context"

	"github.com/bft-labs/irclone/internal/domain"
)

// Carrier describes the modulation used while a mark is being sent.
type Carrier struct {
	// FrequencyHz is the carrier frequency, 38000 for most consumer remotes.
	FrequencyHz int

	// DutyCycle is the on fraction of each carrier period (0.0-1.0).
	DutyCycle float64
}

// DefaultCarrier is 38 kHz at 50% duty.
var DefaultCarrier = Carrier{FrequencyHz: 38000, DutyCycle: 0.5}

// Emitter drives an infrared LED with alternating mark/space intervals.
type Emitter interface {
	// Send blocks until all pulses have been emitted. Even indexes are
	// marks (carrier on), odd indexes are spaces.
	Send(ctx context.Context, pulses domain.PulseTrain) error

	// Carrier returns the modulation the emitter was configured with.
	Carrier() Carrier
}
