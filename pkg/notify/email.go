package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"corvid-labs/vigil/pkg/engine"
)

// emailMaxRules caps the failed rules listed in an email body.
const emailMaxRules = 10

// EmailProvider identifies supported email delivery mechanisms.
type EmailProvider string

const (
	ProviderSMTP     EmailProvider = "smtp"
	ProviderSendGrid EmailProvider = "sendgrid"
)

// SMTPSettings configure direct SMTP delivery.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	StartTLS bool
}

// EmailConfig configures the email notifier.
type EmailConfig struct {
	Provider       EmailProvider
	From           string
	To             []string
	SendGridAPIKey string
	SMTP           SMTPSettings
}

// EmailNotifier sends a run summary as a multipart HTML + plaintext
// email, via SendGrid or plain SMTP.
type EmailNotifier struct {
	config   EmailConfig
	sendgrid *sendgrid.Client
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address cannot be empty")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("email recipient list cannot be empty")
	}

	n := &EmailNotifier{config: cfg}
	switch cfg.Provider {
	case ProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an API key")
		}
		n.sendgrid = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	case ProviderSMTP, "":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
	return n, nil
}

// Name implements Notifier.
func (n *EmailNotifier) Name() string { return "email" }

// Notify renders and sends the alert email.
func (n *EmailNotifier) Notify(ctx context.Context, run *engine.RunResult) error {
	subject := fmt.Sprintf("[vigil] %d violations, %d rules failed",
		run.Summary.Violations, run.Summary.FailedRules+run.Summary.ErroredRules)

	htmlBody, textBody, err := renderEmailBodies(run)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	if n.sendgrid != nil {
		return n.sendWithSendGrid(subject, htmlBody, textBody)
	}
	return n.sendWithSMTP(subject, htmlBody, textBody)
}

// sendWithSendGrid delivers through the SendGrid API.
func (n *EmailNotifier) sendWithSendGrid(subject, htmlBody, textBody string) error {
	from := mail.NewEmail("Vigil", n.config.From)
	for _, rcpt := range n.config.To {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", rcpt), textBody, htmlBody)
		resp, err := n.sendgrid.Send(message)
		if err != nil {
			return fmt.Errorf("send via sendgrid: %w", err)
		}
		if resp.StatusCode != 202 {
			return fmt.Errorf("unexpected sendgrid status code %d: %s", resp.StatusCode, resp.Body)
		}
	}
	return nil
}

// sendWithSMTP delivers through a plain SMTP server. smtp.SendMail
// negotiates STARTTLS itself when the server advertises it.
func (n *EmailNotifier) sendWithSMTP(subject, htmlBody, textBody string) error {
	msg := buildMIMEMessage(n.config.From, n.config.To, subject, htmlBody, textBody)

	var auth smtp.Auth
	if n.config.SMTP.Username != "" {
		auth = smtp.PlainAuth("", n.config.SMTP.Username, n.config.SMTP.Password, n.config.SMTP.Host)
	}
	addr := fmt.Sprintf("%s:%d", n.config.SMTP.Host, n.config.SMTP.Port)

	if err := smtp.SendMail(addr, auth, n.config.From, n.config.To, msg); err != nil {
		return fmt.Errorf("send via smtp: %w", err)
	}
	return nil
}

// buildMIMEMessage assembles a multipart/alternative message with
// base64-encoded plaintext and HTML parts.
func buildMIMEMessage(from string, to []string, subject, htmlBody, textBody string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: Vigil <%s>\r\n", from))
	for _, rcpt := range to {
		buf.WriteString(fmt.Sprintf("To: %s\r\n", rcpt))
	}
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := fmt.Sprintf("_VIGIL_ALTERNATIVE_%d", time.Now().UnixNano())
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary))

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	buf.WriteString(base64.StdEncoding.EncodeToString([]byte(textBody)))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("\r\n--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	buf.WriteString(base64.StdEncoding.EncodeToString([]byte(htmlBody)))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("\r\n--%s--", boundary))
	return buf.Bytes()
}
