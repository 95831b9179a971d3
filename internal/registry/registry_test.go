package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bft-labs/irclone/internal/domain"
)

func TestNew(t *testing.T) {
	r := New(5)
	if r.MaxCodes() != 5 {
		t.Errorf("MaxCodes() = %d, want 5", r.MaxCodes())
	}
	if r.Current() != 0 {
		t.Errorf("Current() = %d, want 0", r.Current())
	}
	if got := r.PopulatedSlots(); len(got) != 0 {
		t.Errorf("PopulatedSlots() = %v, want none", got)
	}

	if New(0).MaxCodes() != domain.DefaultMaxCodes {
		t.Errorf("New(0) should fall back to %d slots", domain.DefaultMaxCodes)
	}
}

func TestAdvance_Wraparound(t *testing.T) {
	for _, maxCodes := range []int{1, 2, 5, 10} {
		r := New(maxCodes)
		for start := 0; start < maxCodes; start++ {
			if err := r.Select(domain.Slot(start)); err != nil {
				t.Fatalf("Select(%d) error = %v", start, err)
			}
			for i := 0; i < maxCodes; i++ {
				r.Advance()
			}
			if got := r.Current(); got != domain.Slot(start) {
				t.Errorf("max=%d start=%d: after %d advances Current() = %d", maxCodes, start, maxCodes, got)
			}
		}
	}
}

func TestAdvance_Sequence(t *testing.T) {
	r := New(3)
	var got []domain.Slot
	for i := 0; i < 4; i++ {
		got = append(got, r.Advance())
	}
	want := []domain.Slot{1, 2, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Advance sequence = %v, want %v", got, want)
	}
}

func TestSetGet(t *testing.T) {
	r := New(5)
	train := domain.PulseTrain{9000, 4500, 560}

	if _, ok := r.Get(3); ok {
		t.Fatal("Get on empty slot returned ok")
	}
	if err := r.Set(3, train); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := r.Get(3)
	if !ok || !got.Equal(train) {
		t.Fatalf("Get(3) = %v, %v; want %v, true", got, ok, train)
	}

	// Neither the caller's slice nor the returned copy alias the stored train.
	train[0] = 1
	got[1] = 1
	again, _ := r.Get(3)
	if !again.Equal(domain.PulseTrain{9000, 4500, 560}) {
		t.Errorf("stored train was mutated: %v", again)
	}

	if err := r.Set(3, domain.PulseTrain{560}); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, _ = r.Get(3)
	if !got.Equal(domain.PulseTrain{560}) {
		t.Errorf("overwrite not applied: %v", got)
	}
}

func TestInvalidSlots(t *testing.T) {
	r := New(5)

	for _, s := range []domain.Slot{-1, 5, 99} {
		if err := r.Set(s, domain.PulseTrain{1}); !errors.Is(err, domain.ErrInvalidSlot) {
			t.Errorf("Set(%d) error = %v, want ErrInvalidSlot", s, err)
		}
		if err := r.Select(s); !errors.Is(err, domain.ErrInvalidSlot) {
			t.Errorf("Select(%d) error = %v, want ErrInvalidSlot", s, err)
		}
		if _, ok := r.Get(s); ok {
			t.Errorf("Get(%d) returned ok", s)
		}
	}
}

func TestPopulatedSlots(t *testing.T) {
	r := New(5)
	_ = r.Set(4, domain.PulseTrain{1})
	_ = r.Set(1, domain.PulseTrain{2})
	_ = r.Set(1, domain.PulseTrain{3})

	want := []domain.Slot{1, 4}
	if got := r.PopulatedSlots(); !reflect.DeepEqual(got, want) {
		t.Errorf("PopulatedSlots() = %v, want %v", got, want)
	}
	if r.Current() != 0 {
		t.Errorf("PopulatedSlots changed Current() to %d", r.Current())
	}
}
