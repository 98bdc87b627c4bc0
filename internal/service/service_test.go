package service

import (
	"testing"

	"github.com/ichar/orderlogd/internal/audit"
)

func TestRecordOutcomeCountsNewAndProcessed(t *testing.T) {
	s := &Supervisor{}
	s.RecordOutcome(audit.New)
	s.RecordOutcome(audit.Exists)
	s.RecordOutcome(audit.New)

	sum := s.finalSummaryForTest()
	if sum.Processed != 3 {
		t.Fatalf("Processed = %d, want 3", sum.Processed)
	}
	if sum.New != 2 {
		t.Fatalf("New = %d, want 2", sum.New)
	}
}

func TestSummaryStringFormat(t *testing.T) {
	sum := Summary{New: 1, Processed: 2, Unresolved: 3}
	want := "New messages found: 1 / Total processed: 2 / Unresolved: 3"
	if got := sum.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

// finalSummaryForTest avoids requiring a live Engine just to read back the
// counters finalSummary also touches (Engine.Overstock.Len()).
func (s *Supervisor) finalSummaryForTest() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
