package transmit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter records every send and can block until released.
type mockEmitter struct {
	mu    sync.Mutex
	sent  []domain.PulseTrain
	times []time.Time
	block   chan struct{}
	entered chan struct{}
	err     error
}

func (m *mockEmitter) Send(ctx context.Context, pulses domain.PulseTrain) error {
	if m.entered != nil {
		close(m.entered)
		m.entered = nil
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, pulses.Clone())
	m.times = append(m.times, time.Now())
	return nil
}

func (m *mockEmitter) Carrier() ports.Carrier { return ports.DefaultCarrier }

func (m *mockEmitter) Sent() []domain.PulseTrain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PulseTrain(nil), m.sent...)
}

// heldFor reports true for the first n checks.
func heldFor(n int) func() bool {
	calls := 0
	return func() bool {
		calls++
		return calls <= n
	}
}

var train = domain.PulseTrain{9000, 4500, 560, 560, 560, 1690, 560}

func TestTransmitOnce(t *testing.T) {
	em := &mockEmitter{}
	tx := New(DefaultConfig(), em, mockLogger{})

	if err := tx.TransmitOnce(context.Background(), train); err != nil {
		t.Fatalf("TransmitOnce() error = %v", err)
	}
	sent := em.Sent()
	if len(sent) != 1 || !sent[0].Equal(train) {
		t.Fatalf("sent = %v, want exactly %v", sent, train)
	}
}

func TestTransmit_EmptySlot(t *testing.T) {
	em := &mockEmitter{}
	tx := New(DefaultConfig(), em, mockLogger{})

	if err := tx.TransmitOnce(context.Background(), nil); !errors.Is(err, domain.ErrEmptySlot) {
		t.Errorf("TransmitOnce(nil) error = %v, want ErrEmptySlot", err)
	}
	frames, err := tx.TransmitWithHold(context.Background(), domain.PulseTrain{}, heldFor(3))
	if !errors.Is(err, domain.ErrEmptySlot) {
		t.Errorf("TransmitWithHold(empty) error = %v, want ErrEmptySlot", err)
	}
	if frames != 0 {
		t.Errorf("frames = %d, want 0", frames)
	}
	if len(em.Sent()) != 0 {
		t.Errorf("emitter used for empty slot: %v", em.Sent())
	}
}

func TestTransmitWithHold_ReleasedImmediately(t *testing.T) {
	em := &mockEmitter{}
	tx := New(DefaultConfig(), em, mockLogger{})

	frames, err := tx.TransmitWithHold(context.Background(), train, func() bool { return false })
	if err != nil {
		t.Fatalf("TransmitWithHold() error = %v", err)
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	sent := em.Sent()
	if len(sent) != 1 || !sent[0].Equal(train) {
		t.Fatalf("sent = %v, want train exactly once", sent)
	}
}

func TestTransmitWithHold_RepeatCode(t *testing.T) {
	em := &mockEmitter{}
	tx := New(DefaultConfig(), em, mockLogger{})

	frames, err := tx.TransmitWithHold(context.Background(), train, heldFor(3))
	if err != nil {
		t.Fatalf("TransmitWithHold() error = %v", err)
	}
	if frames != 4 {
		t.Fatalf("frames = %d, want 4", frames)
	}

	sent := em.Sent()
	if !sent[0].Equal(train) {
		t.Errorf("first frame = %v, want full train", sent[0])
	}
	for i, s := range sent[1:] {
		if !s.Equal(domain.RepeatCode()) {
			t.Errorf("repeat %d = %v, want repeat code", i, s)
		}
	}
}

func TestTransmitWithHold_RepeatFull(t *testing.T) {
	em := &mockEmitter{}
	tx := New(Config{RepeatMode: RepeatFull, RepeatInterval: 10 * time.Millisecond}, em, mockLogger{})

	frames, err := tx.TransmitWithHold(context.Background(), train, heldFor(2))
	if err != nil {
		t.Fatalf("TransmitWithHold() error = %v", err)
	}
	if frames != 3 {
		t.Fatalf("frames = %d, want 3", frames)
	}
	for i, s := range em.Sent() {
		if !s.Equal(train) {
			t.Errorf("frame %d = %v, want full train", i, s)
		}
	}
	if gap := em.times[1].Sub(em.times[0]); gap < 10*time.Millisecond {
		t.Errorf("gap between full repeats = %v, want >= 10ms", gap)
	}
}

func TestTransmitWithHold_ContextCancelled(t *testing.T) {
	em := &mockEmitter{}
	tx := New(Config{RepeatMode: RepeatFull, RepeatInterval: time.Hour}, em, mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	frames, err := tx.TransmitWithHold(ctx, train, func() bool { return true })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
}

func TestTransmit_EmitterError(t *testing.T) {
	boom := errors.New("led driver fault")
	tx := New(DefaultConfig(), &mockEmitter{err: boom}, mockLogger{})

	if err := tx.TransmitOnce(context.Background(), train); !errors.Is(err, boom) {
		t.Fatalf("TransmitOnce() error = %v, want wrapped %v", err, boom)
	}
}

func TestTransmit_ExclusiveEmitter(t *testing.T) {
	entered := make(chan struct{})
	em := &mockEmitter{block: make(chan struct{}), entered: entered}
	tx := New(DefaultConfig(), em, mockLogger{})

	done := make(chan error, 1)
	go func() { done <- tx.TransmitOnce(context.Background(), train) }()
	<-entered

	if err := tx.TransmitOnce(context.Background(), train); !errors.Is(err, domain.ErrChannelBusy) {
		t.Errorf("concurrent TransmitOnce() error = %v, want ErrChannelBusy", err)
	}

	close(em.block)
	if err := <-done; err != nil {
		t.Errorf("first TransmitOnce() error = %v", err)
	}
}
