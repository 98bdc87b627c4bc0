// Package alarm implements the alarm notifier: component J. It decides
// whether a correlated line warrants an email, and hands the actual send
// to a Mailer so the decision logic is testable without a real SMTP
// transport.
package alarm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/logline"
)

// Mailer sends one email. The default implementation (Sender) is a thin,
// single-path net/smtp.SendMail call — connection pooling, retry, and TLS
// negotiation matrices are explicitly out of scope per the Non-goals.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// CustomerRecipient is the second "alarm-to-customer" recipient, parsed
// from a `title:address:substring` config value: Address receives the
// alarm only when Substring appears in the triggering line.
type CustomerRecipient struct {
	Title     string
	Address   string
	Substring string
}

// ParseCustomerRecipient parses a `title:address:substring` config value.
func ParseCustomerRecipient(raw string) (CustomerRecipient, bool) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return CustomerRecipient{}, false
	}
	return CustomerRecipient{Title: parts[0], Address: parts[1], Substring: parts[2]}, true
}

// Notifier fires the alarm notification once four conditions hold:
// the item's status is one of the adapter's alarm severities, the outcome
// is New, the item carries a non-empty message, and the file is not in
// the suppressed list.
type Notifier struct {
	Mailer     Mailer
	Recipients []string
	Customer   *CustomerRecipient
	Suppressed []string
}

// NewNotifier constructs a Notifier.
func NewNotifier(mailer Mailer, recipients []string, customer *CustomerRecipient, suppressed []string) *Notifier {
	return &Notifier{Mailer: mailer, Recipients: recipients, Customer: customer, Suppressed: suppressed}
}

// ShouldNotify evaluates the four firing conditions.
func (n *Notifier) ShouldNotify(item *logline.Item, severities map[string]bool, outcome audit.Kind) bool {
	if outcome != audit.New {
		return false
	}
	if strings.TrimSpace(item.Raw) == "" {
		return false
	}
	if !severities[strings.ToUpper(item.Severity)] {
		return false
	}
	for _, s := range n.Suppressed {
		if s != "" && strings.Contains(item.Filename, s) {
			return false
		}
	}
	return true
}

// Notify sends the alarm for item if ShouldNotify allows it, additionally
// cc'ing the customer recipient when its Substring appears in the line.
func (n *Notifier) Notify(ctx context.Context, item *logline.Item, severities map[string]bool, outcome audit.Kind) error {
	if !n.ShouldNotify(item, severities, outcome) {
		return nil
	}

	to := append([]string{}, n.Recipients...)
	if n.Customer != nil && strings.Contains(item.Raw, n.Customer.Substring) {
		to = append(to, n.Customer.Address)
	}
	if len(to) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[%s] order log alarm: %s", item.Module, item.Filename)
	body := fmt.Sprintf("file: %s\nmodule: %s\nstatus: %s\nmessage: %s\n",
		item.Filename, item.Module, item.StatusText, item.Raw)

	if err := n.Mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send alarm for %s: %w", item.Filename, err)
	}
	return nil
}
