package irclone

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew_WithZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger("debug").Output(&buf)

	c, err := New(Config{StoreDir: t.TempDir()}, WithZerolog(logger))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if !strings.Contains(buf.String(), "state transition") {
		t.Errorf("expected lifecycle logs, got %q", buf.String())
	}
}
