package console

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

// Flash defaults.
const (
	DefaultFlashCount    = 3
	DefaultFlashInterval = 200 * time.Millisecond
	DefaultBrightness    = 0.1
)

// FeedbackConfig configures the console indicator strip.
type FeedbackConfig struct {
	// Out receives one rendered line per change. Nil renders to the logger only.
	Out           io.Writer
	FlashCount    int
	FlashInterval time.Duration
	// Brightness scales every color, in (0, 1].
	Brightness float64
}

// Feedback renders the indicator strip as text.
type Feedback struct {
	cfg    FeedbackConfig
	logger ports.Logger

	mu     sync.Mutex
	pixels [domain.PixelCount]domain.Color
}

// NewFeedback creates an all-off strip.
func NewFeedback(cfg FeedbackConfig, logger ports.Logger) *Feedback {
	if cfg.FlashCount <= 0 {
		cfg.FlashCount = DefaultFlashCount
	}
	if cfg.FlashInterval <= 0 {
		cfg.FlashInterval = DefaultFlashInterval
	}
	if cfg.Brightness <= 0 || cfg.Brightness > 1 {
		cfg.Brightness = DefaultBrightness
	}
	return &Feedback{cfg: cfg, logger: logger}
}

// Show sets positions to c. No positions means the whole strip. Nothing is
// rendered when the strip already looks that way.
func (f *Feedback) Show(c domain.Color, positions ...int) {
	f.mu.Lock()
	if !f.set(c, positions) {
		f.mu.Unlock()
		return
	}
	line := f.renderLocked()
	f.mu.Unlock()
	f.emit(line)
}

// Flash blinks positions FlashCount times and leaves them off.
func (f *Feedback) Flash(ctx context.Context, c domain.Color, positions ...int) {
	for i := 0; i < f.cfg.FlashCount; i++ {
		f.Show(c, positions...)
		if !sleep(ctx, f.cfg.FlashInterval) {
			f.Show(domain.ColorOff, positions...)
			return
		}
		f.Show(domain.ColorOff, positions...)
		if !sleep(ctx, f.cfg.FlashInterval) {
			return
		}
	}
}

// Clear turns the whole strip off.
func (f *Feedback) Clear() {
	f.Show(domain.ColorOff)
}

// Pixels returns the unscaled colors currently shown.
func (f *Feedback) Pixels() []domain.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Color, len(f.pixels))
	copy(out, f.pixels[:])
	return out
}

// Scaled returns c as it is driven on the strip after brightness.
func (f *Feedback) Scaled(c domain.Color) domain.Color {
	scale := func(v uint8) uint8 { return uint8(float64(v)*f.cfg.Brightness + 0.5) }
	return domain.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

func (f *Feedback) set(c domain.Color, positions []int) (changed bool) {
	if len(positions) == 0 {
		for i := range f.pixels {
			changed = changed || f.pixels[i] != c
			f.pixels[i] = c
		}
		return changed
	}
	for _, p := range positions {
		if p >= 0 && p < len(f.pixels) {
			changed = changed || f.pixels[p] != c
			f.pixels[p] = c
		}
	}
	return changed
}

// renderLocked draws one glyph per pixel, then the driven color of each lit
// glyph after brightness, e.g. "[P........E] P=#1a001a E=#1a0000".
func (f *Feedback) renderLocked() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, c := range f.pixels {
		b.WriteByte(glyph(c))
	}
	b.WriteByte(']')

	seen := make(map[domain.Color]bool)
	for _, c := range f.pixels {
		if c == domain.ColorOff || seen[c] {
			continue
		}
		seen[c] = true
		fmt.Fprintf(&b, " %c=%s", glyph(c), f.Scaled(c))
	}
	return b.String()
}

func (f *Feedback) emit(line string) {
	f.logger.Debug("feedback", ports.String("pixels", line))
	if f.cfg.Out != nil {
		fmt.Fprintln(f.cfg.Out, line)
	}
}

func glyph(c domain.Color) byte {
	switch c {
	case domain.ColorOff:
		return '.'
	case domain.ColorError:
		return 'E'
	case domain.ColorProgram:
		return 'P'
	case domain.ColorTransmit:
		return 'T'
	case domain.ColorInfo:
		return 'I'
	case domain.ColorSuccess:
		return 'S'
	default:
		return '*'
	}
}

// sleep waits d or until ctx ends, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ ports.Feedback = (*Feedback)(nil)
