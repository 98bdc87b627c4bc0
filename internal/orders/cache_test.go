package orders

import (
	"context"
	"testing"
	"time"
)

type fakeSource struct {
	orders     []*Order
	batchKeys  map[int][]string
	queryCalls int
}

func (f *fakeSource) QueryOrders(ctx context.Context, floor, now time.Time, complete []int, finalized bool) ([]*Order, error) {
	f.queryCalls++
	return f.orders, nil
}

func (f *fakeSource) QueryBatchKeys(ctx context.Context, orderID int) ([]string, error) {
	return f.batchKeys[orderID], nil
}

func TestRefreshAddsAndMarksInactive(t *testing.T) {
	src := &fakeSource{orders: []*Order{
		{ID: 1, FName: "b.log", StatusCode: 1, StatusDate: time.Now()},
		{ID: 2, FName: "a.log", StatusCode: 1, StatusDate: time.Now()},
	}}
	c := New(src, DefaultCompleteForTest())

	active, err := c.Refresh(context.Background(), time.Now(), -7, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if active != 2 {
		t.Fatalf("active = %d, want 2", active)
	}

	src.orders = []*Order{{ID: 1, FName: "b.log", StatusCode: 1, StatusDate: time.Now()}}
	active, err = c.Refresh(context.Background(), time.Now(), -7, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if active != 1 {
		t.Fatalf("active after drop = %d, want 1", active)
	}
	o, ok := c.Get(2)
	if !ok || !o.Inactive {
		t.Fatalf("order 2 should remain cached but inactive")
	}
}

func TestActiveKeysDescendingFName(t *testing.T) {
	src := &fakeSource{orders: []*Order{
		{ID: 1, FName: "alpha.log"},
		{ID: 2, FName: "gamma.log"},
		{ID: 3, FName: "beta.log"},
	}}
	c := New(src, DefaultCompleteForTest())
	if _, err := c.Refresh(context.Background(), time.Now(), -7, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	keys := c.ActiveKeys()
	if len(keys) != 3 {
		t.Fatalf("len(keys) = %d, want 3", len(keys))
	}
	if keys[0].FName != "gamma.log" || keys[1].FName != "beta.log" || keys[2].FName != "alpha.log" {
		t.Fatalf("unexpected order: %s, %s, %s", keys[0].FName, keys[1].FName, keys[2].FName)
	}
}

func TestStatusChangeResetsKeys(t *testing.T) {
	src := &fakeSource{
		orders:    []*Order{{ID: 1, FName: "a.log", StatusCode: 1}},
		batchKeys: map[int][]string{1: {"TID-1"}},
	}
	c := New(src, DefaultCompleteForTest())
	if _, err := c.Refresh(context.Background(), time.Now(), -7, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	o, _ := c.Get(1)
	if err := c.DeriveKeys(context.Background(), o, false, nil); err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	if o.KeysState() != KeysReady {
		t.Fatalf("expected KeysReady after derive")
	}

	src.orders = []*Order{{ID: 1, FName: "a.log", StatusCode: 2}}
	if _, err := c.Refresh(context.Background(), time.Now(), -7, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if o.KeysState() != PendingKeys {
		t.Fatalf("status change should reset keys state to PendingKeys, got %v", o.KeysState())
	}
}

func TestDeriveKeysIsIdempotent(t *testing.T) {
	src := &fakeSource{
		orders:    []*Order{{ID: 1, FName: "a.log"}},
		batchKeys: map[int][]string{1: {"TID-1"}},
	}
	c := New(src, DefaultCompleteForTest())
	if _, err := c.Refresh(context.Background(), time.Now(), -7, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	o, _ := c.Get(1)
	if err := c.DeriveKeys(context.Background(), o, false, nil); err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	first := len(o.Keys())
	if err := c.DeriveKeys(context.Background(), o, false, nil); err != nil {
		t.Fatalf("DeriveKeys (second call): %v", err)
	}
	if len(o.Keys()) != first {
		t.Fatalf("second DeriveKeys call should be a no-op, got %d keys want %d", len(o.Keys()), first)
	}
}

// DefaultCompleteForTest avoids importing internal/config from a test in
// internal/orders (which would be a reverse dependency edge).
func DefaultCompleteForTest() []int {
	return []int{62, 64, 98, 197, 198, 201, 202, 203, 255}
}
