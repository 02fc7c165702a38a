package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type emailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

// NewEmailNotifier mails audit events to the operator addresses.
func NewEmailNotifier(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, to []string) Notifier {
	return &emailNotifier{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		to:     to,
	}
}

func (s *emailNotifier) Notify(_ context.Context, ev Event) error {
	if len(s.to) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", fmt.Sprintf("[habbo-verify] %s", ev.Kind))
	m.SetBody("text/html", eventHTML(ev))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email: %w", ev.Kind, err)
	}
	return nil
}

// eventHTML renders an event with the HTML subset both Telegram and mail clients accept.
func eventHTML(ev Event) string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(string(ev.Kind)) + "</b>\n")
	if ev.UserID != "" {
		b.WriteString("user: <code>" + html.EscapeString(ev.UserID) + "</code>\n")
	}
	if ev.Habbo != "" {
		b.WriteString("habbo: <code>" + html.EscapeString(ev.Habbo) + "</code>\n")
	}
	if len(ev.Evicted) > 0 {
		b.WriteString("evicted: <code>" + html.EscapeString(strings.Join(ev.Evicted, ", ")) + "</code>\n")
	}
	if ev.Detail != "" {
		b.WriteString(html.EscapeString(ev.Detail) + "\n")
	}
	if !ev.At.IsZero() {
		b.WriteString("at: " + ev.At.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}
