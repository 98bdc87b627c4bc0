// Package orders implements the in-memory active-order cache: component D.
// It holds the operational database's view of "orders currently worth
// matching log lines against", refreshed on a window and lazily enriched
// with per-order correlation keys.
package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ichar/orderlogd/internal/clock"
	"github.com/ichar/orderlogd/internal/pathutil"
)

// KeysState is an explicit three-state enum: an order's keys are
// either not yet derived, fully derived, or in the middle of a one-time
// derivation sweep (so a concurrent reader doesn't see a half-built slice).
type KeysState int

const (
	PendingKeys KeysState = iota
	Sweeping
	KeysReady
)

// Order is one business order tracked for correlation.
type Order struct {
	ID         int
	FName      string
	Client     string
	StatusCode int
	StatusDate time.Time
	Inactive   bool

	keysState KeysState
	keys      []string
}

// Keys returns the order's correlation keys. DeriveKeys assigns the full
// slice in one step when it reaches KeysReady; before that (or after a
// status change resets the order to PendingKeys) Keys returns nil.
func (o *Order) Keys() []string { return o.keys }

// KeysState reports the order's key-derivation state.
func (o *Order) KeysState() KeysState { return o.keysState }

// Source is the operational-database read surface the cache refreshes
// against and derives keys from. internal/opsdb provides the concrete
// implementation; the interface lives here so orders has no dependency on
// the SQL driver.
type Source interface {
	QueryOrders(ctx context.Context, floor, now time.Time, completeStatuses []int, finalized bool) ([]*Order, error)
	QueryBatchKeys(ctx context.Context, orderID int) ([]string, error)
}

// Cache holds the active-order set.
type Cache struct {
	mu      sync.RWMutex
	orders  map[int]*Order
	source  Source
	complete []int
}

// New constructs an empty Cache backed by source, using completeStatuses
// as the "finalized" status-code set (the `complete` config key).
func New(source Source, completeStatuses []int) *Cache {
	return &Cache{orders: make(map[int]*Order), source: source, complete: completeStatuses}
}

// Refresh queries source for orders whose status-date falls in the window
// derived from (dateFrom+delta, now), merges them into the cache, and
// marks every previously-cached order absent from the result as inactive.
// finalized selects the "overstock reclaim" window/status semantics
// instead of the normal active-order query.
func (c *Cache) Refresh(ctx context.Context, dateFrom time.Time, delta int, finalized bool) (int, error) {
	floor := clock.Floor(dateFrom, delta)
	fetched, err := c.source.QueryOrders(ctx, floor, dateFrom, c.complete, finalized)
	if err != nil {
		return 0, fmt.Errorf("refresh orders: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int]bool, len(fetched))
	for _, o := range fetched {
		seen[o.ID] = true
		if existing, ok := c.orders[o.ID]; ok {
			if existing.StatusCode != o.StatusCode {
				existing.keysState = PendingKeys
				existing.keys = nil
			}
			existing.StatusCode = o.StatusCode
			existing.StatusDate = o.StatusDate
			existing.FName = o.FName
			existing.Client = o.Client
			existing.Inactive = false
			continue
		}
		c.orders[o.ID] = o
	}
	for id, existing := range c.orders {
		if !seen[id] {
			existing.Inactive = true
		}
	}

	active := 0
	for _, o := range c.orders {
		if !o.Inactive {
			active++
		}
	}
	return active, nil
}

// WithFinalizedView queries source for the "finalized-orders" view (the
// larger Δfar window, completed statuses) and swaps it in as the cache's
// live order map for the duration of fn, then restores the saved active
// map. The swap is a pointer exchange, not a deep copy: the active map
// is parked in a local variable and handed back once fn returns.
func (c *Cache) WithFinalizedView(ctx context.Context, dateFrom time.Time, delta int, fn func() error) error {
	floor := clock.Floor(dateFrom, delta)
	fetched, err := c.source.QueryOrders(ctx, floor, dateFrom, c.complete, true)
	if err != nil {
		return fmt.Errorf("refresh finalized orders: %w", err)
	}

	finalized := make(map[int]*Order, len(fetched))
	for _, o := range fetched {
		finalized[o.ID] = o
	}

	c.mu.Lock()
	saved := c.orders
	c.orders = finalized
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.orders = saved
		c.mu.Unlock()
	}()

	return fn()
}

// ActiveKeys returns the non-inactive orders in descending file-name
// lexicographic order, giving callers a deterministic iteration order.
func (c *Cache) ActiveKeys() []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Order, 0, len(c.orders))
	for _, o := range c.orders {
		if !o.Inactive {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FName > out[j].FName
	})
	return out
}

// DeriveKeys populates order's correlation keys exactly once: the id as a
// string, the file name, the file name without extension, each batch's TID
// and work-order number (fetched from the operational DB), and — when
// useAliases is true — the order's client aliases. A concurrent caller
// sees Sweeping until the derivation completes.
func (c *Cache) DeriveKeys(ctx context.Context, order *Order, useAliases bool, aliases []string) error {
	c.mu.Lock()
	if order.keysState != PendingKeys {
		c.mu.Unlock()
		return nil
	}
	order.keysState = Sweeping
	c.mu.Unlock()

	keys := []string{strconv.Itoa(order.ID), order.FName, pathutil.WithoutExt(order.FName)}

	batchKeys, err := c.source.QueryBatchKeys(ctx, order.ID)
	if err != nil {
		c.mu.Lock()
		order.keysState = PendingKeys
		c.mu.Unlock()
		return fmt.Errorf("derive keys for order %d: %w", order.ID, err)
	}
	keys = append(keys, batchKeys...)

	if useAliases {
		keys = append(keys, aliases...)
	}

	c.mu.Lock()
	order.keys = keys
	order.keysState = KeysReady
	c.mu.Unlock()
	return nil
}

// Get returns the cached order by id, if present.
func (c *Cache) Get(id int) (*Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	return o, ok
}

// Len returns the number of orders tracked, active or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
