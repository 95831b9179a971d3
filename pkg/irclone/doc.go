// Package irclone provides an embeddable infrared remote cloner.
//
// An Irclone instance captures a remote's signal into one of a few numbered
// slots, stores it as a plain text record, and plays it back on demand.
// Hardware is reached through small interfaces ([Receiver], [Emitter],
// [Input], [Feedback]) so the same core runs on a board, in a terminal, or
// in tests.
//
// # Basic Usage
//
//	cfg := irclone.Config{StoreDir: "/media/irclone"}
//
//	c, err := irclone.New(cfg,
//	    irclone.WithReceiver(myReceiver),
//	    irclone.WithEmitter(myEmitter),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//
//	if _, err := c.Capture(ctx); err != nil {
//	    log.Printf("capture: %v", err)
//	}
//	_ = c.Transmit(ctx)
//
// # Control Loop
//
// Passing [WithInput] makes Start run a loop that reads buttons and the
// program/transmit switch: in program mode the primary button captures, in
// transmit mode it sends for as long as it is held. [Irclone.Done] is closed
// when the loop ends.
//
// # Storage
//
// Each slot is stored as <StoreDir>/<slot>.txt, one decimal duration per
// line. If the directory cannot be written at startup, codes are kept in
// memory only and the last indicator pixel shows an error for the lifetime
// of the instance.
//
// # Events and Plugins
//
// Implement [EventHandler] (embedding [BaseEventHandler] for defaults) to
// observe captures, transmissions and lifecycle changes. [Plugin]s are
// started after the stored codes are loaded and stopped in reverse order.
package irclone
