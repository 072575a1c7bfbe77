package notify

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"p9e.in/sitelog/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails alerts to the ALERT_EMAILS list over SMTP.
type EmailNotifier struct {
	cfg          config.SMTPConfig
	dashboardURL string
	send         sendMailFunc
}

func NewEmailNotifier(cfg config.SMTPConfig, dashboardURL string) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, dashboardURL: dashboardURL, send: smtp.SendMail}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := e.cfg.Host + ":" + e.cfg.Port

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Pass, e.cfg.Host)
	}
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, e.compose(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (e *EmailNotifier) compose(msg Message) []byte {
	subject := fmt.Sprintf("ALERT [%s] - Project: %s", strings.ToUpper(string(msg.Type)), msg.Project)
	body := fmt.Sprintf(
		`<h2>Site reporting alert</h2>`+
			`<p><strong>Project:</strong> %s</p>`+
			`<p><strong>Type:</strong> %s</p>`+
			`<p><strong>Message:</strong> %s</p>`+
			`<p><strong>Date:</strong> %s</p>`+
			`<p>Open the dashboard: <a href="%s">%s</a></p>`,
		html.EscapeString(msg.Project), msg.Type, html.EscapeString(msg.Text),
		msg.CreatedAt.Format("02/01/2006 15:04"), e.dashboardURL, e.dashboardURL,
	)

	return []byte("From: " + e.cfg.From + "\r\n" +
		"To: " + strings.Join(e.cfg.To, ", ") + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body)
}
