package slotwatcher

import "github.com/bft-labs/irclone/pkg/irclone"

// WithSlotWatcher returns an irclone Option that enables store watching.
//
// Usage:
//
//	c, err := irclone.New(cfg,
//	    slotwatcher.WithSlotWatcher(slotwatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithSlotWatcher(cfg Config) irclone.Option {
	return irclone.WithPlugin(New(cfg))
}

// WithDefaultSlotWatcher enables store watching with default settings.
func WithDefaultSlotWatcher() irclone.Option {
	return WithSlotWatcher(DefaultConfig())
}
