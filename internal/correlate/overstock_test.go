package correlate

import "testing"

func TestShouldReclaimRespectsLowAndStep(t *testing.T) {
	o := NewOverstock(Unresolved{Low: 3, High: 10, Step: 2})
	for i := 0; i < 2; i++ {
		o.Push(Item{Filename: "f", Text: "x"})
	}
	if o.ShouldReclaim() {
		t.Fatalf("should not reclaim below Low")
	}
	o.Push(Item{Filename: "f", Text: "x"})
	if o.ShouldReclaim() {
		t.Fatalf("should not reclaim at exactly Low")
	}
	o.Push(Item{Filename: "f", Text: "x"})
	if !o.ShouldReclaim() {
		t.Fatalf("should reclaim once past Low with enough growth")
	}
}

func TestReclaimRemovesMatchedOldestFirst(t *testing.T) {
	o := NewOverstock(Unresolved{Low: 1, High: 10, Step: 1})
	o.Push(Item{Filename: "f", Text: "one"})
	o.Push(Item{Filename: "f", Text: "two"})
	o.Push(Item{Filename: "f", Text: "three"})

	var seen []string
	matched, dropped := o.Reclaim(func(it Item) bool {
		seen = append(seen, it.Text)
		return it.Text == "two"
	})
	if matched != 1 {
		t.Fatalf("matched = %d, want 1", matched)
	}
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if seen[0] != "one" || seen[1] != "two" || seen[2] != "three" {
		t.Fatalf("Reclaim should visit items oldest-first, got %v", seen)
	}
	if o.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 remaining", o.Len())
	}
}

func TestReclaimForceEmptiesOverHighWaterMark(t *testing.T) {
	o := NewOverstock(Unresolved{Low: 1, High: 2, Step: 1})
	for i := 0; i < 5; i++ {
		o.Push(Item{Filename: "f", Text: "x"})
	}
	matched, dropped := o.Reclaim(func(Item) bool { return false })
	if matched != 0 {
		t.Fatalf("matched = %d, want 0", matched)
	}
	if dropped != 5 {
		t.Fatalf("dropped = %d, want 5", dropped)
	}
	if o.Len() != 0 {
		t.Fatalf("queue should be emptied, Len() = %d", o.Len())
	}
}

func TestReclaimForceEmptiesAfterNoProgressRounds(t *testing.T) {
	o := NewOverstock(Unresolved{Low: 1, High: 1000, Step: 1})
	o.Push(Item{Filename: "f", Text: "x"})

	var dropped int
	for i := 0; i < maxNoProgressRounds; i++ {
		_, dropped = o.Reclaim(func(Item) bool { return false })
	}
	if dropped != 1 {
		t.Fatalf("expected force-empty after %d no-progress rounds, dropped = %d", maxNoProgressRounds, dropped)
	}
}
