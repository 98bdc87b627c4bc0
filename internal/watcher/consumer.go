package watcher

import (
	"context"
	"time"

	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/clock"
	"github.com/ichar/orderlogd/internal/correlate"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/logline"
	"github.com/ichar/orderlogd/internal/orders"
	"github.com/ichar/orderlogd/internal/tailer"
	"github.com/ichar/orderlogd/internal/textdecode"
)

// pollInterval is how often the consumer checks the queue when idle.
const pollInterval = 200 * time.Millisecond

// Consumer is the single-worker FIFO drain loop. It also owns
// the producer's registration hooks (Create/Delete/Rename events are
// applied directly to the tail reader's offset table, inline).
type Consumer struct {
	Queue   *Queue
	Tailer  *tailer.Tailer
	Decoder textdecode.Decoder
	Engine  *correlate.Engine
	Log     *logging.Logger

	RestartTimeout         time.Duration
	ReclaimEveryNIdleTicks int
	RestartRequested       chan struct{}

	// Cache and NearDelta drive the periodic active-order refresh: once
	// per calendar day the consumer re-queries the operational DB for the
	// normal (non-finalized) window, the long-running-loop counterpart to
	// the one-shot refresh cmd/orderlogd makes at startup.
	Cache     *orders.Cache
	NearDelta int

	// FinalizedDelta is the Δfar window passed to the engine's overstock
	// reclaim pass.
	FinalizedDelta int

	// OnResult, if set, is called after every attempted match (hit or
	// miss) with the audit outcome kind, so a caller like
	// service.Supervisor can keep running New/Processed counters without
	// the consumer needing to know about summary reporting.
	OnResult func(matched bool, kind audit.Kind)

	idleTicks       int
	lastRefreshDate string
}

// NewConsumer constructs a Consumer.
func NewConsumer(queue *Queue, t *tailer.Tailer, dec textdecode.Decoder, engine *correlate.Engine, log *logging.Logger, restartTimeout time.Duration, reclaimEveryNIdleTicks int) *Consumer {
	return &Consumer{
		Queue:                  queue,
		Tailer:                 t,
		Decoder:                dec,
		Engine:                 engine,
		Log:                    log,
		RestartTimeout:         restartTimeout,
		ReclaimEveryNIdleTicks: reclaimEveryNIdleTicks,
		RestartRequested:       make(chan struct{}, 1),
	}
}

// OnFileCreated starts tracking a newly created file from offset 0.
func (c *Consumer) OnFileCreated(path string) { c.Tailer.RegisterFile(path, 0) }

// OnFileDeleted stops tracking a removed file.
func (c *Consumer) OnFileDeleted(path string) { c.Tailer.ForgetFile(path) }

// OnFileMoved carries a tracked file's offset across a rename.
func (c *Consumer) OnFileMoved(oldPath, newPath string) {
	if newPath == "" {
		c.Tailer.ForgetFile(oldPath)
		return
	}
	c.Tailer.RenameFile(oldPath, newPath)
}

// Run drains the queue until ctx is cancelled, signalling RestartRequested
// (non-blocking) if no event arrives within RestartTimeout.
func (c *Consumer) Run(ctx context.Context) error {
	idleSince := time.Now()
	c.lastRefreshDate = clock.FormatDate(time.Now(), clock.DateStamp)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.refreshCacheOnDateChange(ctx)

		event, ok := c.Queue.Pop()
		if !ok {
			c.idleTicks++
			if c.RestartTimeout > 0 && time.Since(idleSince) >= c.RestartTimeout {
				select {
				case c.RestartRequested <- struct{}{}:
				default:
				}
				idleSince = time.Now()
			}
			if c.ReclaimEveryNIdleTicks > 0 && c.idleTicks%c.ReclaimEveryNIdleTicks == 0 {
				c.runReclaim(ctx)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollInterval):
			}
			continue
		}

		idleSince = time.Now()
		c.idleTicks = 0
		c.process(ctx, event)
	}
}

func (c *Consumer) process(ctx context.Context, event Event) {
	if event.Type != Write {
		return
	}

	lines, err := c.Tailer.ReadNewLines(event.Path, c.Decoder)
	if err != nil {
		c.Log.Error("tail %s: %v", event.Path, err)
		return
	}

	for _, dl := range lines {
		if dl.Err != nil {
			c.Log.Error("decode line in %s: %v", event.Path, dl.Err)
			continue
		}
		line := logline.New(event.Path, dl.Text)
		result, err := c.Engine.Match(ctx, line)
		if err != nil {
			c.Log.Error("match line in %s: %v", event.Path, err)
			continue
		}
		if c.OnResult != nil {
			c.OnResult(result.Matched, result.Outcome.Kind)
		}
	}
}

func (c *Consumer) runReclaim(ctx context.Context) {
	if !c.Engine.Overstock.ShouldReclaim() {
		return
	}
	matched, dropped := c.Engine.ReclaimFinalized(ctx, time.Now(), c.FinalizedDelta)
	if matched > 0 || dropped > 0 {
		c.Log.Debug("overstock reclaim: matched=%d dropped=%d", matched, dropped)
	}
}

// refreshCacheOnDateChange re-queries the active-order window once per
// calendar day, mirroring _evolute_date's "date rolled over" check in the
// original long-running observe loop.
func (c *Consumer) refreshCacheOnDateChange(ctx context.Context) {
	if c.Cache == nil {
		return
	}
	today := clock.FormatDate(time.Now(), clock.DateStamp)
	if today == c.lastRefreshDate {
		return
	}
	c.lastRefreshDate = today
	if _, err := c.Cache.Refresh(ctx, time.Now(), c.NearDelta, false); err != nil {
		c.Log.Error("periodic order refresh: %v", err)
	}
}
