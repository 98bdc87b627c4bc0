package correlate

import "testing"

func TestKeyMatcherAnyCaseInsensitive(t *testing.T) {
	m := NewKeyMatcher([]string{"ORD-42", "  ", "client-x"})
	if !m.Any("payment for ord-42 processed") {
		t.Fatalf("expected case-insensitive substring match")
	}
	if !m.Any("CLIENT-X batch") {
		t.Fatalf("expected second needle to match")
	}
	if m.Any("unrelated message") {
		t.Fatalf("expected no match")
	}
}

func TestKeyMatcherEmptyNeedles(t *testing.T) {
	m := NewKeyMatcher(nil)
	if m.Any("anything") {
		t.Fatalf("empty matcher should never match")
	}
}
