package alarm

import (
	"context"
	"testing"

	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/logline"
)

type fakeMailer struct {
	sent int
	to   []string
}

func (f *fakeMailer) Send(ctx context.Context, to []string, subject, body string) error {
	f.sent++
	f.to = to
	return nil
}

var severities = map[string]bool{"ERROR": true, "WARNING": true}

func TestShouldNotifyRequiresNewOutcome(t *testing.T) {
	n := NewNotifier(&fakeMailer{}, []string{"ops@example.com"}, nil, nil)
	item := &logline.Item{Filename: "Log_1.log", Raw: "failure", Severity: "ERROR"}
	if n.ShouldNotify(item, severities, audit.Exists) {
		t.Fatalf("EXISTS outcome should not notify")
	}
	if !n.ShouldNotify(item, severities, audit.New) {
		t.Fatalf("NEW outcome with alarmable severity should notify")
	}
}

func TestShouldNotifyRejectsSuppressedFile(t *testing.T) {
	n := NewNotifier(&fakeMailer{}, []string{"ops@example.com"}, nil, []string{"_test"})
	item := &logline.Item{Filename: "Log_test.log", Raw: "failure", Severity: "ERROR"}
	if n.ShouldNotify(item, severities, audit.New) {
		t.Fatalf("suppressed filename should not notify")
	}
}

func TestNotifyAddsCustomerRecipientOnSubstringMatch(t *testing.T) {
	mailer := &fakeMailer{}
	customer := &CustomerRecipient{Title: "customer", Address: "cust@example.com", Substring: "VIP"}
	n := NewNotifier(mailer, []string{"ops@example.com"}, customer, nil)
	item := &logline.Item{Filename: "Log_1.log", Raw: "VIP order failed", Severity: "ERROR"}

	if err := n.Notify(context.Background(), item, severities, audit.New); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if mailer.sent != 1 {
		t.Fatalf("expected one send")
	}
	if len(mailer.to) != 2 || mailer.to[1] != "cust@example.com" {
		t.Fatalf("expected customer cc'd, got %v", mailer.to)
	}
}

func TestParseCustomerRecipient(t *testing.T) {
	r, ok := ParseCustomerRecipient("VIP Alerts:cust@example.com:VIP")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if r.Title != "VIP Alerts" || r.Address != "cust@example.com" || r.Substring != "VIP" {
		t.Fatalf("unexpected parse result: %+v", r)
	}
	if _, ok := ParseCustomerRecipient("not-enough-parts"); ok {
		t.Fatalf("expected parse to fail on malformed input")
	}
}
