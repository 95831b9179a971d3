package irclone

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/irclone/internal/adapters/console"
	"github.com/bft-labs/irclone/internal/adapters/replay"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/pkg/log"
)

type quietFeedback struct{}

func (quietFeedback) Show(domain.Color, ...int)                    {}
func (quietFeedback) Flash(context.Context, domain.Color, ...int) {}
func (quietFeedback) Clear()                                      {}

type recordingHandler struct {
	BaseEventHandler
	mu        sync.Mutex
	states    []StateChangeEvent
	captures  []CaptureEvent
	transmits []TransmitEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e)
}

func (h *recordingHandler) OnCapture(e CaptureEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures = append(h.captures, e)
}

func (h *recordingHandler) OnTransmit(e TransmitEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transmits = append(h.transmits, e)
}

func testConfig(dir string) Config {
	return Config{
		StoreDir:       dir,
		SettleDuration: time.Millisecond,
		PollInterval:   time.Millisecond,
		CaptureTimeout: time.Second,
	}
}

func signal() []domain.PulseSample {
	raw := make([]domain.PulseSample, 70)
	for i := range raw {
		raw[i] = 560
	}
	raw[0], raw[1], raw[68] = 9000, 4500, 40000
	return raw
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no store dir", Config{}},
		{"too many slots", Config{StoreDir: "x", MaxCodes: 12}},
		{"inverted band", Config{StoreDir: "x", StartMin: 9600, StartMax: 9500}},
		{"bad decode mode", Config{StoreDir: "x", DecodeMode: "loose"}},
		{"bad repeat mode", Config{StoreDir: "x", RepeatMode: "forever"}},
		{"duty cycle", Config{StoreDir: "x", DutyCycle: 2}},
		{"negative poll interval", Config{StoreDir: "x", PollInterval: -time.Millisecond}},
		{"negative flash count", Config{StoreDir: "x", FlashCount: -1}},
		{"negative min pulses", Config{StoreDir: "x", MinPulses: -5}},
	}
	for _, tt := range tests {
		if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: New() error = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{StoreDir: "x"}
	cfg.SetDefaults()

	if cfg.MaxCodes != 5 || cfg.MinPulses != 50 || cfg.MaxSamples != 100 {
		t.Errorf("sizes = %d/%d/%d", cfg.MaxCodes, cfg.MinPulses, cfg.MaxSamples)
	}
	if cfg.StartMin != 8500 || cfg.StartMax != 9500 || cfg.StopThreshold != 2000 || cfg.StopAfter != 2 {
		t.Errorf("thresholds = %+v", cfg)
	}
	if cfg.DecodeMode != DecodeStrict || cfg.RepeatMode != RepeatCode {
		t.Errorf("modes = %s/%s", cfg.DecodeMode, cfg.RepeatMode)
	}
	if cfg.CaptureTimeout != 0 {
		t.Errorf("CaptureTimeout = %v, want unbounded", cfg.CaptureTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := Config{MaxCodes: 12, DutyCycle: 2, RepeatMode: "forever"}
	cfg.SetDefaults()

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
	}
	for _, key := range []string{"store_dir", "max_codes", "duty_cycle", "repeat_mode"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestNew_ThresholdsReachDecoder(t *testing.T) {
	cfg := Config{
		StoreDir:      t.TempDir(),
		DecodeMode:    DecodeSimple,
		MinPulses:     3,
		StartMin:      1,
		StartMax:      5000,
		StopThreshold: 1,
		StopAfter:     1,
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	want := Thresholds{DecodeMode: DecodeSimple, MinPulses: 3, StartMin: 1, StartMax: 5000, StopThreshold: 1, StopAfter: 1}
	if got := c.Thresholds(); got != want {
		t.Errorf("Thresholds() = %+v, want %+v", got, want)
	}
	if c.Config().StartMax != 5000 {
		t.Errorf("Config().StartMax = %d", c.Config().StartMax)
	}
}

func TestLifecycle(t *testing.T) {
	handler := &recordingHandler{}
	c, err := New(testConfig(t.TempDir()), WithEventHandler(handler), WithFeedback(quietFeedback{}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Capture(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Capture() before Start = %v, want ErrNotRunning", err)
	}
	if err := c.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() before Start = %v, want ErrNotRunning", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	if c.Status() != StateRunning {
		t.Errorf("Status() = %v", c.Status())
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed after Stop")
	}

	want := []State{StateStarting, StateRunning, StateStopping, StateStopped}
	if len(handler.states) != len(want) {
		t.Fatalf("state events = %+v", handler.states)
	}
	for i, s := range want {
		if handler.states[i].Current != s {
			t.Errorf("event %d = %v, want %v", i, handler.states[i].Current, s)
		}
	}
}

func TestCaptureTransmitAndReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	receiver := replay.NewReceiver(100, 0)
	emitter := replay.NewEmitter(replay.EmitterConfig{})
	handler := &recordingHandler{}

	c, err := New(testConfig(dir),
		WithReceiver(receiver),
		WithEmitter(emitter),
		WithFeedback(quietFeedback{}),
		WithEventHandler(handler),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if err := c.Select(2); err != nil {
		t.Fatal(err)
	}
	receiver.Enqueue(signal())
	ev, err := c.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture() = %v", err)
	}
	if ev.Slot != 2 || ev.Pulses != 68 || !ev.Saved || ev.SessionID == "" {
		t.Errorf("capture event = %+v", ev)
	}

	if err := c.Transmit(ctx); err != nil {
		t.Fatalf("Transmit() = %v", err)
	}
	if sent := emitter.Sent(); len(sent) != 1 || sent[0].Len() != 68 {
		t.Errorf("sent = %v", sent)
	}
	if got := c.PopulatedSlots(); len(got) != 1 || got[0] != 2 {
		t.Errorf("PopulatedSlots() = %v", got)
	}

	if c.Advance() != 3 || c.Current() != 3 {
		t.Error("Advance() did not move to slot 3")
	}
	if err := c.Transmit(ctx); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("Transmit() on empty slot = %v", err)
	}
	if len(emitter.Sent()) != 1 {
		t.Error("empty slot reached the emitter")
	}
	if len(handler.captures) != 1 || len(handler.transmits) != 2 {
		t.Errorf("events: %d captures, %d transmits", len(handler.captures), len(handler.transmits))
	}

	reloaded, err := New(testConfig(dir), WithFeedback(quietFeedback{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer reloaded.Stop()
	if got := reloaded.Slots()[2]; len(got) != 68 || got[0] != 9000 {
		t.Errorf("reloaded slot 2 = %v", got)
	}
}

func TestControlLoopFromConsole(t *testing.T) {
	receiver := replay.NewReceiver(100, 0)
	receiver.Enqueue(signal())
	emitter := replay.NewEmitter(replay.EmitterConfig{})
	handler := &recordingHandler{}
	script := strings.NewReader("program\na\ntransmit\nsend\nnext\nsend\n")

	c, err := New(testConfig(t.TempDir()),
		WithReceiver(receiver),
		WithEmitter(emitter),
		WithFeedback(quietFeedback{}),
		WithEventHandler(handler),
		WithInput(console.NewInput(script, ports.ModeTransmit, log.NewNoopLogger())),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("control loop did not finish the script")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.captures) != 1 || handler.captures[0].Err != nil {
		t.Fatalf("captures = %+v", handler.captures)
	}
	if len(handler.transmits) != 2 {
		t.Fatalf("transmits = %+v", handler.transmits)
	}
	if handler.transmits[0].Err != nil || !errors.Is(handler.transmits[1].Err, ErrEmptySlot) {
		t.Errorf("transmits = %+v", handler.transmits)
	}
	if len(emitter.Sent()) != 1 {
		t.Errorf("emitter sent %d trains", len(emitter.Sent()))
	}
}

type orderPlugin struct {
	name    string
	log     *[]string
	failure error
	cfg     PluginConfig
}

func (p *orderPlugin) Name() string { return p.name }

func (p *orderPlugin) Initialize(_ context.Context, cfg PluginConfig) error {
	p.cfg = cfg
	*p.log = append(*p.log, "init "+p.name)
	return p.failure
}

func (p *orderPlugin) Shutdown(context.Context) error {
	*p.log = append(*p.log, "shutdown "+p.name)
	return nil
}

func TestPlugins(t *testing.T) {
	var calls []string
	a := &orderPlugin{name: "a", log: &calls}
	b := &orderPlugin{name: "b", log: &calls}

	dir := t.TempDir()
	c, err := New(testConfig(dir), WithPlugin(a), WithPlugin(b), WithFeedback(quietFeedback{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.cfg.StoreDir != dir || a.cfg.MaxCodes != 5 || !a.cfg.Writable || a.cfg.Lookup == nil {
		t.Errorf("plugin config = %+v", a.cfg)
	}
	if _, ok := a.cfg.Lookup(0); ok {
		t.Error("Lookup(0) found a code in an empty store")
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	want := []string{"init a", "init b", "shutdown b", "shutdown a"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestPluginInitFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	c, err := New(testConfig(t.TempDir()),
		WithPlugin(&orderPlugin{name: "bad", log: &calls, failure: boom}),
		WithFeedback(quietFeedback{}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() = %v, want boom", err)
	}
	if c.Status() != StateCrashed {
		t.Errorf("Status() = %v, want Crashed", c.Status())
	}
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.2.0", "1.1.9", true},
		{"2.0.0", "1.9.9", true},
		{"1.0.0", "1.0.1", false},
		{"0.9.0", "1.0.0", false},
	}
	for _, tt := range tests {
		if got := isVersionCompatible(tt.version, tt.min); got != tt.want {
			t.Errorf("isVersionCompatible(%s, %s) = %v", tt.version, tt.min, got)
		}
	}
}
