// Package irclone is a convenience entry point to the infrared remote
// cloner. See github.com/bft-labs/irclone/pkg/irclone for the full API.
//
// Example usage:
//
//	c, err := irclone.New(irclone.Config{StoreDir: "/media/irclone"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
package irclone

import (
	"github.com/rs/zerolog"

	"github.com/bft-labs/irclone/internal/cliconfig"
	"github.com/bft-labs/irclone/pkg/irclone"
	"github.com/bft-labs/irclone/pkg/log"
)

// Config holds the settings of a cloner. Zero fields take defaults.
type Config = irclone.Config

// Irclone is a running cloner instance.
type Irclone = irclone.Irclone

// Option configures optional behavior.
type Option = irclone.Option

// New creates a cloner. See irclone.New.
func New(cfg Config, opts ...Option) (*Irclone, error) {
	return irclone.New(cfg, opts...)
}

// Logger returns a console zerolog logger on stderr at level.
func Logger(level string) zerolog.Logger {
	return cliconfig.Logger(level)
}

// WithZerolog routes the cloner's logs through l.
func WithZerolog(l zerolog.Logger) Option {
	return irclone.WithLogger(log.NewZerologAdapterWithLogger(l))
}
