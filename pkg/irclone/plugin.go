package irclone

import "context"

// Plugin extends an Irclone instance. Plugins are initialized in
// registration order when Start is called and shut down in reverse order
// by Stop.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize starts the plugin. ctx ends when the instance stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin gets to see of the running instance.
type PluginConfig struct {
	StoreDir string
	MaxCodes int
	// Writable reports whether records can be saved.
	Writable bool
	Logger   Logger

	// Lookup returns the in-memory code for slot. The returned slice is a
	// copy.
	Lookup func(slot int) ([]uint16, bool)
}
