// Package console provides line-driven stand-ins for the buttons, switch and
// indicator strip, so the cloner can be driven from a terminal or a script.
package console

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/bft-labs/irclone/internal/ports"
)

// item is a queued input. Mode switches are queued alongside events so a
// script like "program / a / transmit" is observed in order.
type item struct {
	event   ports.Event
	mode    ports.Mode
	setMode bool
}

// Input reads commands, one per line:
//
//	a | capture | send     primary press
//	hold [a|b]             press and keep the button down
//	release [a|b]          let go of a held button
//	b | next               advance press
//	t | status             status press
//	program | transmit     set the mode switch
//	mode <program|transmit>
//	switch                 toggle the mode switch
//
// Blank lines and lines starting with '#' are ignored.
type Input struct {
	logger ports.Logger
	queue  chan item

	mu      sync.Mutex
	mode    ports.Mode
	pending ports.Mode
	held    map[ports.Button]bool
	err     error
}

// NewInput starts reading r in the background.
func NewInput(r io.Reader, mode ports.Mode, logger ports.Logger) *Input {
	in := &Input{
		logger:  logger,
		queue:   make(chan item, 64),
		mode:    mode,
		pending: mode,
		held:    make(map[ports.Button]bool),
	}
	go in.read(r)
	return in
}

// Poll returns the next queued event. Once the reader is exhausted and the
// queue drained it returns the read error, io.EOF for a clean end.
func (in *Input) Poll() (ports.Event, error) {
	for {
		select {
		case it, ok := <-in.queue:
			if !ok {
				in.mu.Lock()
				err := in.err
				in.mu.Unlock()
				return ports.EventNone, err
			}
			if it.setMode {
				in.mu.Lock()
				in.mode = it.mode
				in.mu.Unlock()
				continue
			}
			return it.event, nil
		default:
			return ports.EventNone, nil
		}
	}
}

// Mode returns the switch position as of the last Poll.
func (in *Input) Mode() ports.Mode {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mode
}

// Held reports whether b is down. Holds take effect as soon as the line is
// read, so a release can end a transmission that is already running.
func (in *Input) Held(b ports.Button) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.held[b]
}

func (in *Input) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		in.handle(scanner.Text())
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	in.mu.Lock()
	in.err = err
	in.mu.Unlock()
	close(in.queue)
}

func (in *Input) handle(line string) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return
	}

	switch fields[0] {
	case "a", "capture", "send":
		in.queue <- item{event: ports.EventPrimary}
	case "b", "next":
		in.queue <- item{event: ports.EventAdvance}
	case "t", "status":
		in.queue <- item{event: ports.EventStatus}
	case "hold":
		b := buttonArg(fields)
		in.setHeld(b, true)
		if b == ports.ButtonAdvance {
			in.queue <- item{event: ports.EventAdvance}
		} else {
			in.queue <- item{event: ports.EventPrimary}
		}
	case "release":
		in.setHeld(buttonArg(fields), false)
	case "program":
		in.queueMode(ports.ModeProgram)
	case "transmit":
		in.queueMode(ports.ModeTransmit)
	case "mode":
		if len(fields) < 2 {
			in.logger.Warn("mode needs program or transmit", ports.String("line", line))
			return
		}
		switch fields[1] {
		case "program":
			in.queueMode(ports.ModeProgram)
		case "transmit":
			in.queueMode(ports.ModeTransmit)
		default:
			in.logger.Warn("unknown mode", ports.String("mode", fields[1]))
		}
	case "switch":
		in.mu.Lock()
		next := ports.ModeProgram
		if in.pending == ports.ModeProgram {
			next = ports.ModeTransmit
		}
		in.mu.Unlock()
		in.queueMode(next)
	default:
		in.logger.Warn("unknown command", ports.String("line", line))
	}
}

func (in *Input) queueMode(m ports.Mode) {
	in.mu.Lock()
	in.pending = m
	in.mu.Unlock()
	in.queue <- item{mode: m, setMode: true}
}

func (in *Input) setHeld(b ports.Button, down bool) {
	in.mu.Lock()
	in.held[b] = down
	in.mu.Unlock()
}

func buttonArg(fields []string) ports.Button {
	if len(fields) > 1 && (fields[1] == "b" || fields[1] == "next") {
		return ports.ButtonAdvance
	}
	return ports.ButtonPrimary
}

var _ ports.Input = (*Input)(nil)
