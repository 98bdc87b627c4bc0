package alarm

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig describes the single relay the Sender speaks to.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// Sender is the default Mailer: one net/smtp.SendMail call, no pooling or
// retry, matching the Non-goals' "thin, single-path" scope for outbound
// mail transport.
type Sender struct {
	cfg SMTPConfig
}

// NewSender constructs a Sender for cfg.
func NewSender(cfg SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send implements Mailer.
func (s *Sender) Send(ctx context.Context, to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From, strings.Join(to, ", "), subject, body)
	return smtp.SendMail(addr, nil, s.cfg.From, to, []byte(msg))
}
