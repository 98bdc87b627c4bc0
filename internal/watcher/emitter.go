package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ichar/orderlogd/internal/adapter"
	"github.com/ichar/orderlogd/internal/correlate"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/logline"
	"github.com/ichar/orderlogd/internal/tailer"
	"github.com/ichar/orderlogd/internal/textdecode"
)

// Emitter implements the bootstrap sweep: component I. It enumerates
// every file under root matching the adapter's filename pattern from
// today onward, resets its tail offset to zero, and runs the same match
// loop as the consumer until limit orders are processed or ctx is
// cancelled.
type Emitter struct {
	Root    string
	Adapter adapter.Adapter
	Tailer  *tailer.Tailer
	Decoder textdecode.Decoder
	Engine  *correlate.Engine
	Log     *logging.Logger
	Limit   int
}

// NewEmitter constructs an Emitter.
func NewEmitter(root string, a adapter.Adapter, t *tailer.Tailer, dec textdecode.Decoder, engine *correlate.Engine, log *logging.Logger, limit int) *Emitter {
	return &Emitter{Root: root, Adapter: a, Tailer: t, Decoder: dec, Engine: engine, Log: log, Limit: limit}
}

// Run performs the sweep, returning the number of lines matched to an
// order.
func (e *Emitter) Run(ctx context.Context, suppressed, aliases []string) (int, error) {
	now := time.Now()
	matched := 0
	orderIDs := map[int]bool{}

	err := filepath.WalkDir(e.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if e.Limit > 0 && len(orderIDs) >= e.Limit {
			return filepath.SkipAll
		}

		base := filepath.Base(path)
		if !e.Adapter.MatchesFilename(base, now, suppressed, aliases) {
			return nil
		}

		e.Tailer.RegisterFile(path, 0)
		lines, err := e.Tailer.ReadNewLines(path, e.Decoder)
		if err != nil {
			e.Log.Error("emitter: read %s: %v", path, err)
			return nil
		}
		for _, dl := range lines {
			if dl.Err != nil {
				e.Log.Error("emitter: decode line in %s: %v", path, dl.Err)
				continue
			}
			result, err := e.Engine.Match(ctx, logline.New(path, dl.Text))
			if err != nil {
				e.Log.Error("emitter: match line in %s: %v", path, err)
				continue
			}
			if result.Matched {
				matched++
				orderIDs[result.Order.ID] = true
				if e.Limit > 0 && len(orderIDs) >= e.Limit {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil {
		return matched, err
	}
	return matched, nil
}
