package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/pkg/log"
)

// drain polls until the input reports an error, collecting events and the
// mode observed after each one.
func drain(t *testing.T, in *Input) ([]ports.Event, []ports.Mode, error) {
	t.Helper()
	var events []ports.Event
	var modes []ports.Mode
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev, err := in.Poll()
		if err != nil {
			return events, modes, err
		}
		if ev == ports.EventNone {
			time.Sleep(time.Millisecond)
			continue
		}
		events = append(events, ev)
		modes = append(modes, in.Mode())
	}
	t.Fatal("input never reached end of stream")
	return nil, nil, nil
}

func TestInput_CommandsInOrder(t *testing.T) {
	script := strings.Join([]string{
		"# program two slots",
		"program",
		"a",
		"",
		"next",
		"capture",
		"mode transmit",
		"send",
		"switch",
		"t",
		"bogus",
	}, "\n")
	in := NewInput(strings.NewReader(script), ports.ModeTransmit, log.NewNoopLogger())

	events, modes, err := drain(t, in)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []ports.Event{
		ports.EventPrimary, ports.EventAdvance, ports.EventPrimary, ports.EventPrimary, ports.EventStatus,
	}, events)
	assert.Equal(t, []ports.Mode{
		ports.ModeProgram, ports.ModeProgram, ports.ModeProgram, ports.ModeTransmit, ports.ModeProgram,
	}, modes)
}

func TestInput_HoldAndRelease(t *testing.T) {
	pr, pw := io.Pipe()
	in := NewInput(pr, ports.ModeTransmit, log.NewNoopLogger())

	_, err := io.WriteString(pw, "hold\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return in.Held(ports.ButtonPrimary) }, time.Second, time.Millisecond)
	assert.False(t, in.Held(ports.ButtonAdvance))

	require.Eventually(t, func() bool {
		ev, err := in.Poll()
		return err == nil && ev == ports.EventPrimary
	}, time.Second, time.Millisecond)

	_, err = io.WriteString(pw, "release\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !in.Held(ports.ButtonPrimary) }, time.Second, time.Millisecond)

	_, err = io.WriteString(pw, "hold b\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return in.Held(ports.ButtonAdvance) }, time.Second, time.Millisecond)

	require.NoError(t, pw.Close())
	events, _, err := drain(t, in)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []ports.Event{ports.EventAdvance}, events)
}

func TestInput_ReadError(t *testing.T) {
	boom := errors.New("tty gone")
	pr, pw := io.Pipe()
	in := NewInput(pr, ports.ModeProgram, log.NewNoopLogger())
	pw.CloseWithError(boom)

	_, _, err := drain(t, in)
	assert.ErrorIs(t, err, boom)
}

func TestFeedback_ShowAndClear(t *testing.T) {
	var out bytes.Buffer
	f := NewFeedback(FeedbackConfig{Out: &out}, log.NewNoopLogger())

	f.Show(domain.ColorProgram, 0)
	f.Show(domain.ColorError, domain.StatusPixel)
	f.Show(domain.ColorInfo, 42, -1)

	pixels := f.Pixels()
	assert.Equal(t, domain.ColorProgram, pixels[0])
	assert.Equal(t, domain.ColorError, pixels[domain.StatusPixel])
	assert.Equal(t, domain.ColorOff, pixels[1])

	f.Clear()
	for _, c := range f.Pixels() {
		assert.Equal(t, domain.ColorOff, c)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, "out-of-range positions change nothing")
	assert.Equal(t, "[P.........] P=#1a001a", lines[0])
	assert.Equal(t, "[P........E] P=#1a001a E=#1a0000", lines[1])
	assert.Equal(t, "[..........]", lines[2])

	out.Reset()
	f.Clear()
	assert.Empty(t, out.String(), "an unchanged strip is not re-rendered")
}

func TestFeedback_Flash(t *testing.T) {
	var out bytes.Buffer
	f := NewFeedback(FeedbackConfig{Out: &out, FlashCount: 2, FlashInterval: time.Millisecond}, log.NewNoopLogger())

	f.Flash(context.Background(), domain.ColorSuccess, 2, 4)

	assert.Equal(t, "[..S.S.....] S=#001a00\n[..........]\n[..S.S.....] S=#001a00\n[..........]\n", out.String())
	assert.Equal(t, domain.ColorOff, f.Pixels()[2])
}

func TestFeedback_FlashCanceled(t *testing.T) {
	f := NewFeedback(FeedbackConfig{FlashCount: 100, FlashInterval: time.Hour}, log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		f.Flash(ctx, domain.ColorTransmit)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flash ignored cancellation")
	}
	assert.Equal(t, domain.ColorOff, f.Pixels()[0])
}

func TestFeedback_Brightness(t *testing.T) {
	f := NewFeedback(FeedbackConfig{Brightness: 0.5}, log.NewNoopLogger())
	assert.Equal(t, domain.Color{R: 128, G: 0, B: 128}, f.Scaled(domain.ColorProgram))

	def := NewFeedback(FeedbackConfig{Brightness: 3}, log.NewNoopLogger())
	assert.Equal(t, domain.Color{R: 26, G: 0, B: 0}, def.Scaled(domain.ColorError))
}

func TestFeedback_BrightnessChangesOutput(t *testing.T) {
	render := func(brightness float64) string {
		var out bytes.Buffer
		f := NewFeedback(FeedbackConfig{Out: &out, Brightness: brightness}, log.NewNoopLogger())
		f.Show(domain.ColorTransmit, 1)
		return strings.TrimSpace(out.String())
	}

	assert.Equal(t, "[.T........] T=#00001a", render(0.1))
	assert.Equal(t, "[.T........] T=#0000ff", render(1))
}
