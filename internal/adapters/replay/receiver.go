// Package replay provides receiver and emitter adapters that work without
// infrared hardware. The receiver plays back recorded captures; the emitter
// records (and optionally paces) what would have been sent.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/irclone/internal/domain"
)

// Receiver implements ports.Receiver from a queue of recorded captures.
// Each Resume delivers the next queued capture, after Delay, into a buffer
// bounded by MaxLen, mirroring a hardware pulse reader.
type Receiver struct {
	mu     sync.Mutex
	maxLen int
	delay  time.Duration
	active bool
	buf    []domain.PulseSample
	queue  [][]domain.PulseSample
	timer  *time.Timer
}

// NewReceiver creates a receiver buffering at most maxLen samples.
func NewReceiver(maxLen int, delay time.Duration) *Receiver {
	if maxLen <= 0 {
		maxLen = 100
	}
	return &Receiver{maxLen: maxLen, delay: delay}
}

// Enqueue adds captures to be delivered on subsequent Resume calls.
func (r *Receiver) Enqueue(captures ...[]domain.PulseSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range captures {
		r.queue = append(r.queue, append([]domain.PulseSample(nil), c...))
	}
}

// Pending returns the number of captures not yet delivered.
func (r *Receiver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Feed records samples as if they had just arrived. Samples are dropped
// while paused or once the buffer is full.
func (r *Receiver) Feed(samples ...domain.PulseSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedLocked(samples)
}

func (r *Receiver) feedLocked(samples []domain.PulseSample) {
	if !r.active {
		return
	}
	room := r.maxLen - len(r.buf)
	if room <= 0 {
		return
	}
	if len(samples) > room {
		samples = samples[:room]
	}
	r.buf = append(r.buf, samples...)
}

// Clear discards buffered samples.
func (r *Receiver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = r.buf[:0]
}

// Resume starts recording and schedules delivery of the next queued capture.
func (r *Receiver) Resume(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = true
	if len(r.queue) == 0 {
		return
	}
	next := r.queue[0]
	r.queue = r.queue[1:]

	if r.delay <= 0 {
		r.feedLocked(next)
		return
	}
	r.timer = time.AfterFunc(r.delay, func() {
		r.Feed(next...)
	})
}

// Pause stops recording. A delivery still pending is cancelled.
func (r *Receiver) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Len returns the number of buffered samples.
func (r *Receiver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Samples returns a copy of the buffered samples.
func (r *Receiver) Samples() []domain.PulseSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PulseSample(nil), r.buf...)
}

// ReadCaptures parses recorded captures from rd. Captures are separated by
// blank lines; within a capture, samples are whitespace-separated integers.
// Lines starting with '#' are comments.
func ReadCaptures(rd io.Reader) ([][]domain.PulseSample, error) {
	var (
		out     [][]domain.PulseSample
		current []domain.PulseSample
		lineNo  int
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}

	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseUint(field, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = append(current, domain.PulseSample(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}
