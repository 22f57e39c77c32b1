package audit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

const smtpTimeout = 10 * time.Second

// SendFunc delivers one message.
type SendFunc func(ctx context.Context, settings document.EmailSettings, msg []byte) error

// Notifier mails audit notifications using the current e-mail settings of the document.
type Notifier struct {
	settings func() document.EmailSettings
	send     SendFunc
	now      func() time.Time
}

// NewNotifier creates a notifier. settings is called for every message so edits apply at once.
func NewNotifier(settings func() document.EmailSettings, send SendFunc) *Notifier {
	if send == nil {
		send = SendSMTP
	}

	return &Notifier{settings: settings, send: send, now: time.Now}
}

// Send mails subject and body to all receivers. Disabled or incomplete settings
// make it a no-op.
func (n *Notifier) Send(ctx context.Context, subject, body string) error {
	s := n.settings()
	if !s.Enabled || s.SMTPServer == "" || s.SenderEmail == "" || len(s.ReceiverEmails) == 0 {
		return nil
	}

	return n.send(ctx, s, buildMessage(s, subject, body, n.now()))
}

func buildMessage(s document.EmailSettings, subject, body string, now time.Time) []byte {
	var b strings.Builder

	b.WriteString("From: " + s.SenderEmail + "\r\n")
	b.WriteString("To: " + strings.Join(s.ReceiverEmails, ", ") + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// SendSMTP delivers msg through the configured server, upgrading to TLS with STARTTLS
// when offered and authenticating when a sender password is set.
func SendSMTP(ctx context.Context, s document.EmailSettings, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, smtpTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.SMTPServer, strconv.Itoa(s.SMTPPort))

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.SMTPServer)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}

	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err = c.StartTLS(&tls.Config{ServerName: s.SMTPServer, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}

	if s.SenderPassword != "" {
		if err = c.Auth(smtp.PlainAuth("", s.SenderEmail, s.SenderPassword, s.SMTPServer)); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err = c.Mail(s.SenderEmail); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}

	for _, rcpt := range s.ReceiverEmails {
		if err = c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s failed: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return c.Quit()
}
