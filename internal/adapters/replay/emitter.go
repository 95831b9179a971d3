package replay

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
)

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	// Out receives one line per sent train. Nil discards output.
	Out io.Writer

	// Carrier is reported by Carrier(); the replay emitter does not modulate.
	Carrier ports.Carrier

	// Realtime makes Send take as long as the train would on air.
	Realtime bool
}

// Emitter implements ports.Emitter by recording sent trains.
type Emitter struct {
	cfg EmitterConfig

	mu   sync.Mutex
	sent []domain.PulseTrain
}

// NewEmitter creates a recording emitter.
func NewEmitter(cfg EmitterConfig) *Emitter {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Carrier.FrequencyHz == 0 {
		cfg.Carrier = ports.DefaultCarrier
	}
	return &Emitter{cfg: cfg}
}

// Send records pulses and writes them to the output as one line, prefixed
// with the carrier they would be modulated on.
func (e *Emitter) Send(ctx context.Context, pulses domain.PulseTrain) error {
	if e.cfg.Realtime {
		if err := pace(ctx, pulses); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.sent = append(e.sent, pulses.Clone())
	e.mu.Unlock()

	_, err := fmt.Fprintf(e.cfg.Out, "%s: %s\n", formatCarrier(e.cfg.Carrier), formatTrain(pulses))
	return err
}

// Carrier returns the configured carrier.
func (e *Emitter) Carrier() ports.Carrier {
	return e.cfg.Carrier
}

// Sent returns copies of every train sent so far.
func (e *Emitter) Sent() []domain.PulseTrain {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.PulseTrain, len(e.sent))
	for i, t := range e.sent {
		out[i] = t.Clone()
	}
	return out
}

// pace waits out each mark and space in turn.
func pace(ctx context.Context, pulses domain.PulseTrain) error {
	for _, p := range pulses {
		t := time.NewTimer(time.Duration(p) * time.Microsecond)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func formatCarrier(c ports.Carrier) string {
	return fmt.Sprintf("%dHz %.0f%%", c.FrequencyHz, c.DutyCycle*100)
}

func formatTrain(pulses domain.PulseTrain) string {
	var b strings.Builder
	for i, p := range pulses {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", p)
	}
	return b.String()
}
