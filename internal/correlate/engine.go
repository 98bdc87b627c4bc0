package correlate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ichar/orderlogd/internal/adapter"
	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/clock"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/logline"
	"github.com/ichar/orderlogd/internal/orders"
)

// MatchResult is the outcome of trying one line against the active order
// set: either it matched an order and was registered, or it didn't.
type MatchResult struct {
	Matched bool
	Order   *orders.Order
	Item    *logline.Item
	Outcome audit.Outcome
}

// Registrar is the slice of *audit.Client the engine needs — narrowed to
// an interface so tests can exercise Match without a real audit database.
type Registrar interface {
	RegisterMessage(ctx context.Context, p audit.RegisterMessageParams) (audit.Outcome, error)
}

// Engine ties one adapter, its order cache, and the audit-store client
// together to implement the match procedure.
type Engine struct {
	Adapter   adapter.Adapter
	Cache     *orders.Cache
	Audit     Registrar
	Log       *logging.Logger
	Overstock *Overstock

	CaseInsensitiveFilenameKey bool
	Aliases                    []string

	// OnNew, if set, is called after a line registers as audit.New — the
	// alarm notifier's hook point, kept outside this package so correlate
	// has no dependency on internal/alarm.
	OnNew func(item *logline.Item, outcome audit.Outcome)

	// sourceID/moduleID/logID are resolved once via the audit client's
	// Check* call sites and reused across RegisterMessage calls.
	sourceID, moduleID, logID int

	matchers map[int]*cachedMatcher
}

type cachedMatcher struct {
	keys    []string
	matcher *KeyMatcher
}

// NewEngine constructs an Engine. bounds configures the Overstock queue.
func NewEngine(a adapter.Adapter, cache *orders.Cache, auditClient Registrar, log *logging.Logger, bounds Unresolved) *Engine {
	return &Engine{
		Adapter:   a,
		Cache:     cache,
		Audit:     auditClient,
		Log:       log,
		Overstock: NewOverstock(bounds),
		matchers:  make(map[int]*cachedMatcher),
	}
}

// BindIdentifiers records the resolved source/module/log ids that
// RegisterMessage needs, once the caller has run the Check* call chain.
func (e *Engine) BindIdentifiers(sourceID, moduleID, logID int) {
	e.sourceID, e.moduleID, e.logID = sourceID, moduleID, logID
}

// Match implements the four-step match procedure for one line against
// the currently active orders. A non-matching line is pushed to Overstock
// and returned with Matched=false and a nil error.
func (e *Engine) Match(ctx context.Context, line *logline.Line) (*MatchResult, error) {
	result, err := e.TryMatch(ctx, line)
	if err != nil || result.Matched {
		return result, err
	}
	e.Overstock.Push(Item{Filename: line.Filename, Text: line.Text})
	return result, nil
}

// TryMatch runs the same match procedure as Match but never pushes a miss
// to Overstock — used both by Match and by Overstock.Reclaim's retry pass,
// which already owns the item and would otherwise double-queue it.
func (e *Engine) TryMatch(ctx context.Context, line *logline.Line) (*MatchResult, error) {
	fields := splitLine(line.Text, e.Adapter.SplitChar(line.Filename))
	if !e.Adapter.LineValid(fields) {
		return &MatchResult{Matched: false}, nil
	}

	parsed := e.parseColumns(line.Filename, fields)
	if !parsed.Valid {
		return &MatchResult{Matched: false}, nil
	}

	for _, order := range e.Cache.ActiveKeys() {
		if e.Adapter.RequiresFilenameKeyMatch() {
			if !containsAnyKey(line.Filename, order.Keys(), e.CaseInsensitiveFilenameKey) {
				continue
			}
		}
		if order.KeysState() != orders.KeysReady {
			if err := e.Cache.DeriveKeys(ctx, order, e.Adapter.UsesAliases(), e.Aliases); err != nil {
				e.Log.Error("derive keys for order %d: %v", order.ID, err)
				continue
			}
		}

		matcher := e.matcherFor(order)
		if !matcher.Any(parsed.Raw) {
			continue
		}
		if e.Adapter.UsesAliases() && !anyAliasSubstring(parsed.Raw, e.Aliases) {
			continue
		}

		parsed.Key = fmt.Sprintf("%d", order.ID)
		return e.register(ctx, order, parsed)
	}

	return &MatchResult{Matched: false}, nil
}

// ReclaimFinalized runs one overstock reclaim pass: it swaps the order
// cache to the finalized-orders view (the Δfar window, completed
// statuses), re-attempts every queued line against that set, then
// restores the active view — the consumer's periodic "every N idle ticks"
// call site.
func (e *Engine) ReclaimFinalized(ctx context.Context, dateFrom time.Time, delta int) (matched, dropped int) {
	err := e.Cache.WithFinalizedView(ctx, dateFrom, delta, func() error {
		matched, dropped = e.Overstock.Reclaim(func(it Item) bool {
			line := logline.New(it.Filename, it.Text)
			result, mErr := e.TryMatch(ctx, line)
			if mErr != nil {
				e.Log.Error("reclaim match %s: %v", it.Filename, mErr)
				return false
			}
			return result.Matched
		})
		return nil
	})
	if err != nil {
		e.Log.Error("reclaim finalized view: %v", err)
	}
	return matched, dropped
}

// matcherFor returns a precompiled KeyMatcher for order, rebuilding it only
// when the order's key set has changed since it was last built.
func (e *Engine) matcherFor(order *orders.Order) *KeyMatcher {
	keys := order.Keys()
	cached, ok := e.matchers[order.ID]
	if ok && slices.Equal(cached.keys, keys) {
		return cached.matcher
	}
	m := NewKeyMatcher(keys)
	e.matchers[order.ID] = &cachedMatcher{keys: slices.Clone(keys), matcher: m}
	return m
}

func (e *Engine) register(ctx context.Context, order *orders.Order, item *logline.Item) (*MatchResult, error) {
	item.Module = e.Adapter.Name()

	out, err := e.Audit.RegisterMessage(ctx, audit.RegisterMessageParams{
		SourceID:  e.sourceID,
		ModuleID:  e.moduleID,
		LogID:     e.logID,
		OrderID:   order.ID,
		Client:    order.Client,
		FileName:  item.Filename,
		Code:      item.StatusText,
		Count:     item.Count,
		Message:   item.Raw,
		EventDate: item.DateFrom,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("register message for order %d: %w", order.ID, err)
	}

	switch out.Kind {
	case audit.Fatal:
		e.Log.Error("fatal status registering message for order %d: %s", order.ID, out.StatusText)
	case audit.Null:
		e.Log.Debug("audit store returned no row for order %d, connection will reopen", order.ID)
	}

	if out.Kind == audit.New && e.OnNew != nil {
		e.OnNew(item, out)
	}

	return &MatchResult{Matched: true, Order: order, Item: item, Outcome: out}, nil
}

func (e *Engine) parseColumns(filename string, fields []string) *logline.Item {
	cols := e.Adapter.Columns()
	item := &logline.Item{Filename: filename, Raw: strings.Join(fields, " "), Valid: true}

	idx := map[string]int{}
	for i, name := range cols {
		idx[name] = i
	}

	if i, ok := idx["date"]; ok && i < len(fields) {
		layout := clock.UTCEasyTimestamp
		if t, ok := clock.ParseDate(fields[i], layout); ok {
			item.DateFrom = t
		}
	}
	if i, ok := idx["module"]; ok && i < len(fields) {
		name, count := e.Adapter.ModuleCount(fields[i])
		item.Module = name
		item.Count = count
	}
	if i, ok := idx["code"]; ok && i < len(fields) {
		item.StatusText = fields[i]
		item.Severity = fields[i]
	}
	if i, ok := idx["message"]; ok && i < len(fields) {
		item.Raw = fields[i]
	}
	return item
}

func splitLine(text string, sep byte) []string {
	return strings.Split(text, string(sep))
}

func containsAnyKey(haystack string, keys []string, caseInsensitive bool) bool {
	h := haystack
	if caseInsensitive {
		h = strings.ToLower(h)
	}
	for _, k := range keys {
		needle := k
		if caseInsensitive {
			needle = strings.ToLower(needle)
		}
		if needle != "" && strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func anyAliasSubstring(haystack string, aliases []string) bool {
	if len(aliases) == 0 {
		return true
	}
	lower := strings.ToLower(haystack)
	for _, a := range aliases {
		if a != "" && strings.Contains(lower, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
