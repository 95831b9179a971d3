// Package registry holds the in-memory slot state: which slot is current and
// which pulse train each slot holds.
package registry

import (
	"sync"

	"github.com/bft-labs/irclone/internal/domain"
)

// Registry maps slots to pulse trains. A nil entry means the slot was never
// programmed. Trains are copied on the way in and out.
type Registry struct {
	mu      sync.RWMutex
	current domain.Slot
	trains  []domain.PulseTrain
}

// New creates a registry with maxCodes empty slots and slot 0 current.
func New(maxCodes int) *Registry {
	if maxCodes <= 0 {
		maxCodes = domain.DefaultMaxCodes
	}
	return &Registry{trains: make([]domain.PulseTrain, maxCodes)}
}

// MaxCodes returns the number of slots.
func (r *Registry) MaxCodes() int {
	return len(r.trains)
}

// Current returns the selected slot.
func (r *Registry) Current() domain.Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Advance selects the next slot, wrapping to 0 after the last one, and
// returns it.
func (r *Registry) Advance() domain.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	if int(r.current) >= len(r.trains) {
		r.current = 0
	}
	return r.current
}

// Select makes slot current.
func (r *Registry) Select(slot domain.Slot) error {
	if err := domain.CheckSlot(slot, len(r.trains)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = slot
	return nil
}

// Set stores train in slot, replacing any previous train.
func (r *Registry) Set(slot domain.Slot, train domain.PulseTrain) error {
	if err := domain.CheckSlot(slot, len(r.trains)); err != nil {
		return err
	}
	if train == nil {
		train = domain.PulseTrain{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trains[slot] = train.Clone()
	return nil
}

// Get returns the train stored in slot. ok is false for empty or invalid slots.
func (r *Registry) Get(slot domain.Slot) (train domain.PulseTrain, ok bool) {
	if !slot.Valid(len(r.trains)) {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.trains[slot] == nil {
		return nil, false
	}
	return r.trains[slot].Clone(), true
}

// PopulatedSlots returns the slots holding a train, in ascending order.
func (r *Registry) PopulatedSlots() []domain.Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Slot
	for i, t := range r.trains {
		if t != nil {
			out = append(out, domain.Slot(i))
		}
	}
	return out
}
