package ports

import (
	"time"

	"github.com/bft-labs/irclone/internal/domain"
)

// Receiver is an infrared receiver channel that records the durations of
// alternating high/low intervals into a bounded buffer while resumed.
// Implementations start with an idle-high line assumption.
type Receiver interface {
	// Clear discards all buffered samples.
	Clear()

	// Resume starts recording. The trigger duration is the length of the
	// initial pulse used to wake the receiver; zero means none.
	Resume(trigger time.Duration)

	// Pause stops recording. Buffered samples are kept.
	Pause()

	// Len returns the number of buffered samples.
	Len() int

	// Samples returns a copy of the buffered samples in arrival order.
	Samples() []domain.PulseSample
}
