package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ichar/orderlogd/internal/adapter"
	"github.com/ichar/orderlogd/internal/correlate"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/orders"
	"github.com/ichar/orderlogd/internal/tailer"
	"github.com/ichar/orderlogd/internal/textdecode"
)

func newTestConsumer(t *testing.T) (*Consumer, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Log_20260731.log")
	if err := os.WriteFile(path, []byte("2026-07-31 10:00\t0\torder #9 placed\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	src := &fakeSource{orders: []*orders.Order{{ID: 9, FName: "order9.log"}}}
	cache := orders.New(src, []int{62, 64})
	if _, err := cache.Refresh(context.Background(), time.Now(), -7, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	o, _ := cache.Get(9)
	if err := cache.DeriveKeys(context.Background(), o, false, nil); err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}

	log := logging.New(logging.Flags{DisableOutput: true})
	eng := correlate.NewEngine(adapter.NewBankperso(), cache, fakeRegistrar{}, log, correlate.DefaultUnresolved)
	c := NewConsumer(NewQueue(), tailer.New(), textdecode.Named("utf-8"), eng, log, 0, 0)
	return c, path
}

func TestConsumerProcessesWriteEvent(t *testing.T) {
	c, path := newTestConsumer(t)
	c.OnFileCreated(path)

	c.process(context.Background(), Event{Type: Write, Path: path})

	if c.Engine.Overstock.Len() != 0 {
		t.Fatalf("expected the line to match, overstock len = %d", c.Engine.Overstock.Len())
	}
}

func TestConsumerOnFileHooksAdjustTailerState(t *testing.T) {
	c, path := newTestConsumer(t)
	c.OnFileCreated(path)
	if _, ok := c.Tailer.Offset(path); !ok {
		t.Fatalf("expected path to be tracked after OnFileCreated")
	}

	renamed := path + ".1"
	c.OnFileMoved(path, renamed)
	if _, ok := c.Tailer.Offset(path); ok {
		t.Fatalf("old path should no longer be tracked after rename")
	}
	if _, ok := c.Tailer.Offset(renamed); !ok {
		t.Fatalf("renamed path should be tracked")
	}

	c.OnFileDeleted(renamed)
	if _, ok := c.Tailer.Offset(renamed); ok {
		t.Fatalf("deleted path should no longer be tracked")
	}
}

func TestConsumerRunStopsOnContextCancel(t *testing.T) {
	c, _ := newTestConsumer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after context cancellation")
	}
}
