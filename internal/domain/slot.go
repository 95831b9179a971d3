package domain

import (
	"fmt"
	"strconv"
)

// DefaultMaxCodes is the default number of storage slots.
const DefaultMaxCodes = 5

// Slot identifies one of the fixed storage registers.
type Slot int

// String returns the decimal slot index.
func (s Slot) String() string {
	return strconv.Itoa(int(s))
}

// Valid reports whether s lies in [0, maxCodes).
func (s Slot) Valid(maxCodes int) bool {
	return s >= 0 && int(s) < maxCodes
}

// CheckSlot returns ErrInvalidSlot wrapped with context when s is out of range.
func CheckSlot(s Slot, maxCodes int) error {
	if !s.Valid(maxCodes) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidSlot, s, maxCodes)
	}
	return nil
}
