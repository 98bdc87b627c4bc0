package watcher

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/fsnotify/fsnotify"

	"github.com/ichar/orderlogd/internal/logging"
)

// Hooks are the consumer-side registration callbacks the producer invokes
// inline (not via the queue) for create/delete/rename events.
type Hooks interface {
	OnFileCreated(path string)
	OnFileDeleted(path string)
	OnFileMoved(oldPath, newPath string)
}

// Producer wraps an fsnotify.Watcher, filtering events to the paths the
// current adapter's filename regex accepts and pushing Write events onto
// queue for the consumer to drain.
type Producer struct {
	watcher         *fsnotify.Watcher
	queue           *Queue
	filenameRe      *regexp.Regexp
	watchEverything bool
	hooks           Hooks
	log             *logging.Logger
}

// NewProducer constructs a Producer watching root (non-recursively; the
// adapter's root directory pattern is expected to name the leaf
// directory directly, matching the original's single-directory watch).
func NewProducer(root string, filenameRe *regexp.Regexp, queue *Queue, hooks Hooks, watchEverything bool, log *logging.Logger) (*Producer, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return &Producer{
		watcher:         w,
		queue:           queue,
		filenameRe:      filenameRe,
		watchEverything: watchEverything,
		hooks:           hooks,
		log:             log,
	}, nil
}

// Close stops the underlying fsnotify watcher.
func (p *Producer) Close() error {
	return p.watcher.Close()
}

// Run drains the fsnotify event and error channels until they close
// (typically via Close from another goroutine), translating accepted
// events into Queue pushes or inline hook calls.
func (p *Producer) Run() error {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return nil
			}
			p.handle(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return fmt.Errorf("watcher error: %w", err)
			}
		}
	}
}

func (p *Producer) handle(ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	if !p.filenameRe.MatchString(base) {
		return
	}
	p.log.ObserverTrace("fsnotify event %s on %s", ev.Op, ev.Name)

	switch {
	case ev.Op&fsnotify.Create != 0:
		p.hooks.OnFileCreated(ev.Name)
	case ev.Op&fsnotify.Remove != 0:
		p.hooks.OnFileDeleted(ev.Name)
	case ev.Op&fsnotify.Rename != 0:
		p.hooks.OnFileMoved(ev.Name, "")
	case ev.Op&fsnotify.Write != 0:
		p.queue.Push(Event{Type: Write, Path: ev.Name}, !p.watchEverything)
	}
}
