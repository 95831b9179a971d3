package ports

// Event is a momentary input observed by the control loop.
type Event int

const (
	EventNone Event = iota
	// EventPrimary captures in program mode and transmits in transmit mode.
	EventPrimary
	// EventAdvance moves to the next slot.
	EventAdvance
	// EventStatus shows which slots hold a code.
	EventStatus
)

// String returns a human-readable representation of the event.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventPrimary:
		return "primary"
	case EventAdvance:
		return "advance"
	case EventStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Mode is the position of the program/transmit switch.
type Mode int

const (
	ModeTransmit Mode = iota
	ModeProgram
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	if m == ModeProgram {
		return "program"
	}
	return "transmit"
}

// Button identifies a physical button for hold queries.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonAdvance
)

// Input is the user input surface.
type Input interface {
	// Poll returns the next pending momentary event, or EventNone.
	// It never blocks.
	Poll() (Event, error)

	// Mode returns the current switch position.
	Mode() Mode

	// Held reports whether the button is currently pressed.
	Held(b Button) bool
}
