package irclone

import (
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Hardware-facing interfaces. Implement these to drive a real infrared
// receiver, LED, buttons and indicator strip.
type (
	Receiver = ports.Receiver
	Emitter  = ports.Emitter
	Input    = ports.Input
	Feedback = ports.Feedback
	Carrier  = ports.Carrier
)

// Option configures optional behavior of Irclone.
type Option func(*options)

// options holds the optional configuration for an Irclone instance.
type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	receiver     ports.Receiver
	emitter      ports.Emitter
	input        ports.Input
	feedback     ports.Feedback
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for capture, transmit and lifecycle events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Irclone starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithReceiver sets the infrared receiver. Defaults to a replay receiver
// with nothing queued, so captures time out.
func WithReceiver(r Receiver) Option {
	return func(o *options) {
		o.receiver = r
	}
}

// WithEmitter sets the infrared emitter. Defaults to a recording emitter
// that discards output.
func WithEmitter(e Emitter) Option {
	return func(o *options) {
		o.emitter = e
	}
}

// WithInput attaches buttons and the mode switch. Without an input no
// control loop runs and the instance is driven through its methods only.
func WithInput(in Input) Option {
	return func(o *options) {
		o.input = in
	}
}

// WithFeedback sets the indicator strip. Defaults to a strip that renders
// to the logger at debug level.
func WithFeedback(f Feedback) Option {
	return func(o *options) {
		o.feedback = f
	}
}
