package notify

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"strings"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// Mail is one rendered email.
type Mail struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Transport hands a Mail to a delivery service.
type Transport interface {
	Deliver(ctx context.Context, m Mail) error
}

// Email sends a single multi-recipient HTML message per notification. It is
// never retried.
type Email struct {
	From      string
	To        []string
	Transport Transport
}

// NewEmail returns nil when the sender, the recipients or the transport is missing.
func NewEmail(from string, to []string, tr Transport) *Email {
	if from == "" || len(to) == 0 || tr == nil {
		return nil
	}
	return &Email{From: from, To: to, Transport: tr}
}

func (e *Email) Send(ctx context.Context, subject, body string) error {
	if e == nil {
		return ErrDisabled
	}
	return e.Transport.Deliver(ctx, Mail{
		From:    e.From,
		To:      e.To,
		Subject: subject,
		HTML:    htmlDocument(body),
		Text:    stripTags(body),
	})
}

func htmlDocument(body string) string {
	return "<html><body>" + strings.ReplaceAll(body, "\n", "<br>\n") + "</body></html>"
}

// stripTags drops markup from the chat HTML subset used in messages.
func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>' && in:
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return unescaper.Replace(b.String())
}

var unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", `"`, "&#39;", "'")

// SMTPTransport delivers through a plain SMTP relay with optional PLAIN auth.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	if port == 0 {
		port = 587
	}
	return &SMTPTransport{Host: host, Port: port, Username: username, Password: password, send: smtp.SendMail}
}

func (s *SMTPTransport) Deliver(ctx context.Context, m Mail) error {
	if s.Host == "" {
		return errors.New("smtp host not configured")
	}
	var auth smtp.Auth
	if s.Username != "" && s.Password != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	if err := s.send(addr, auth, m.From, m.To, BuildMIME(m)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// BuildMIME renders m as a single-part HTML message. Header values are
// stripped of line breaks and the subject is RFC 2047 encoded.
func BuildMIME(m Mail) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(m.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(m.To, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(m.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.HTML)
	return []byte(b.String())
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(v string) string { return headerBreaks.Replace(v) }

// BrevoTransport delivers through the Brevo transactional email API.
type BrevoTransport struct {
	SenderName string
	client     *brevo.APIClient
}

func NewBrevoTransport(apiKey, senderName string) *BrevoTransport {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	if senderName == "" {
		senderName = "Uptime Monitor"
	}
	return &BrevoTransport{SenderName: senderName, client: brevo.NewAPIClient(cfg)}
}

func (b *BrevoTransport) Deliver(ctx context.Context, m Mail) error {
	to := make([]brevo.SendSmtpEmailTo, 0, len(m.To))
	for _, addr := range m.To {
		to = append(to, brevo.SendSmtpEmailTo{Email: addr})
	}
	email := brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Name: b.SenderName, Email: m.From},
		To:          to,
		Subject:     m.Subject,
		HtmlContent: m.HTML,
		TextContent: m.Text,
	}
	if _, _, err := b.client.TransactionalEmailsApi.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	return nil
}
