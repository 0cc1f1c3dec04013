package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Receipt reports who handled a delivery. Handlers surface it to callers so
// the response says which provider accepted the message.
type Receipt struct {
	Provider string
	From     string
	Accepted []string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// SMTPSender delivers mail through a relay that accepts unauthenticated
// submissions, which is how the internal relay is set up.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, nil, s.from, msg.To, []byte(b.String())); err != nil {
		return nil, fmt.Errorf("send mail: %w", err)
	}
	return &Receipt{Provider: "smtp", From: s.from, Accepted: msg.To}, nil
}

// NopSender drops all mail. Used when no SMTP relay is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	return &Receipt{Provider: "nop", Accepted: msg.To}, nil
}
