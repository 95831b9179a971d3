package domain

import "time"

// PulseSample is the duration of one mark or space interval in microsecond ticks.
type PulseSample uint16

// PulseTrain is the ordered sequence of samples making up one signal.
// Even indexes are marks (carrier on), odd indexes are spaces. Order is
// significant and must never be changed.
type PulseTrain []PulseSample

// Len returns the number of samples in the train.
func (t PulseTrain) Len() int {
	return len(t)
}

// Empty returns true if the train holds no samples.
func (t PulseTrain) Empty() bool {
	return len(t) == 0
}

// Clone returns a copy that shares no storage with t.
// A nil train clones to nil.
func (t PulseTrain) Clone() PulseTrain {
	if t == nil {
		return nil
	}
	out := make(PulseTrain, len(t))
	copy(out, t)
	return out
}

// Equal reports whether both trains hold the same samples in the same order.
func (t PulseTrain) Equal(other PulseTrain) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Duration returns the total on-air time of the train.
func (t PulseTrain) Duration() time.Duration {
	var total time.Duration
	for _, s := range t {
		total += time.Duration(s) * time.Microsecond
	}
	return total
}

// Uint16s returns the samples as plain unsigned integers.
func (t PulseTrain) Uint16s() []uint16 {
	out := make([]uint16, len(t))
	for i, s := range t {
		out[i] = uint16(s)
	}
	return out
}

// TrainFromUint16s builds a PulseTrain from plain unsigned integers.
func TrainFromUint16s(values []uint16) PulseTrain {
	out := make(PulseTrain, len(values))
	for i, v := range values {
		out[i] = PulseSample(v)
	}
	return out
}

// repeatCode is the NEC repeat frame: 9ms burst, 2.25ms space, 563us mark.
var repeatCode = PulseTrain{9000, 2250, 563}

// RepeatCode returns the short frame re-sent while a transmit button is held.
// Each call returns a fresh copy.
func RepeatCode() PulseTrain {
	return repeatCode.Clone()
}
