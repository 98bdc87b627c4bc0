// Package service implements the supervisor: the orchestration layer
// owning the producer and consumer goroutines (the emitter sweep is run
// separately by cmd/orderlogd under --emit), their shared
// context cancellation, and the "tear down and restart after 15s" recovery
// path (the non-Windows-service equivalent of
// service.py's start_observer/SvcStop).
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ichar/orderlogd/internal/adapter"
	"github.com/ichar/orderlogd/internal/alarm"
	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/correlate"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/orders"
	"github.com/ichar/orderlogd/internal/tailer"
	"github.com/ichar/orderlogd/internal/textdecode"
	"github.com/ichar/orderlogd/internal/watcher"
)

// restartCooldown is the fixed pause between tearing down and rebuilding
// the watcher pair after a restart signal.
const restartCooldown = 15 * time.Second

// Summary is the exit report printed on shutdown, matching service.py's
// "New messages found: N / Total processed: M / Unresolved: K" line.
type Summary struct {
	New       int
	Processed int
	Unresolved int
}

func (s Summary) String() string {
	return fmt.Sprintf("New messages found: %d / Total processed: %d / Unresolved: %d", s.New, s.Processed, s.Unresolved)
}

// Supervisor owns the engine, order cache, audit client, alarm notifier,
// and the producer/consumer pair, rebuilding the latter whenever a
// restart is requested.
type Supervisor struct {
	Root            string
	Adapter         adapter.Adapter
	Cache           *orders.Cache
	Audit           *audit.Client
	Engine          *correlate.Engine
	Notifier        *alarm.Notifier
	Log             *logging.Logger
	Decoder         textdecode.Decoder
	RestartTimeout  time.Duration
	WatchEverything bool

	// NearDelta and FarDelta are the Δnear/Δfar day windows: NearDelta
	// drives the consumer's once-per-day active-order refresh, FarDelta
	// drives the engine's overstock reclaim pass against the
	// finalized-orders view.
	NearDelta int
	FarDelta  int

	tailer *tailer.Tailer

	mu      sync.Mutex
	summary Summary
}

// New constructs a Supervisor from its already-wired components.
func New(root string, a adapter.Adapter, cache *orders.Cache, auditClient *audit.Client, engine *correlate.Engine, notifier *alarm.Notifier, log *logging.Logger, decoder textdecode.Decoder, restartTimeout time.Duration, watchEverything bool) *Supervisor {
	return &Supervisor{
		Root:            root,
		Adapter:         a,
		Cache:           cache,
		Audit:           auditClient,
		Engine:          engine,
		Notifier:        notifier,
		Log:             log,
		Decoder:         decoder,
		RestartTimeout:  restartTimeout,
		WatchEverything: watchEverything,
		NearDelta:       -7,
		FarDelta:        -30,
		tailer:          tailer.New(),
	}
}

// Run drives the producer/consumer pair until ctx is cancelled, restarting
// them after restartCooldown whenever the consumer signals a restart
// (watcher exception or idle timeout). It returns the exit Summary.
func (s *Supervisor) Run(ctx context.Context) (Summary, error) {
	filenameRe := s.Adapter.FilenameRegex()

	for {
		if err := ctx.Err(); err != nil {
			return s.finalSummary(), nil
		}

		queue := watcher.NewQueue()
		consumer := watcher.NewConsumer(queue, s.tailer, s.Decoder, s.Engine, s.Log, s.RestartTimeout, 20)
		consumer.Cache = s.Cache
		consumer.NearDelta = s.NearDelta
		consumer.FinalizedDelta = s.FarDelta
		consumer.OnResult = func(matched bool, kind audit.Kind) {
			if matched {
				s.RecordOutcome(kind)
			}
		}

		producer, err := watcher.NewProducer(s.Root, filenameRe, queue, consumer, s.WatchEverything, s.Log)
		if err != nil {
			return s.finalSummary(), fmt.Errorf("start producer: %w", err)
		}

		runCtx, cancelRun := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			if err := producer.Run(); err != nil {
				s.Log.Error("producer: %v", err)
				select {
				case consumer.RestartRequested <- struct{}{}:
				default:
				}
			}
		}()
		go func() {
			defer wg.Done()
			if err := consumer.Run(runCtx); err != nil {
				s.Log.Error("consumer: %v", err)
			}
		}()

		select {
		case <-ctx.Done():
			cancelRun()
			producer.Close()
			wg.Wait()
			return s.finalSummary(), nil
		case <-consumer.RestartRequested:
			s.Log.Out("restart requested, tearing down watcher pair")
			cancelRun()
			producer.Close()
			wg.Wait()

			select {
			case <-ctx.Done():
				return s.finalSummary(), nil
			case <-time.After(restartCooldown):
			}
		}
	}
}

func (s *Supervisor) finalSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Unresolved = s.Engine.Overstock.Len()
	return s.summary
}

// RecordOutcome updates the running summary counters from one audit-store
// outcome. The consumer calls this, through its OnResult hook, after each
// matched line; the emitter sweep does not report here.
func (s *Supervisor) RecordOutcome(kind audit.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Processed++
	if kind == audit.New {
		s.summary.New++
	}
}
