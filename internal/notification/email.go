package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"kasu/pkg/logger"
)

// SMTPConfig carries the mail relay settings for the email dispatcher.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool

	// OpsAddress receives review-relevant events (approvals, suspensions,
	// completed payouts). Vendor-addressed delivery is handled by the
	// commerce frontend, not this service.
	OpsAddress string
}

// EmailDispatcher forwards events to an inner dispatcher and additionally
// emails review-relevant ones to the ops inbox. Sending is best-effort; a
// failed delivery is logged and swallowed.
type EmailDispatcher struct {
	inner  Dispatcher
	cfg    SMTPConfig
	logger logger.Logger
}

func NewEmailDispatcher(inner Dispatcher, cfg SMTPConfig, log logger.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		inner:  inner,
		cfg:    cfg,
		logger: log,
	}
}

var opsNotified = map[EventKind]bool{
	EventVendorApproved:  true,
	EventVendorRejected:  true,
	EventVendorSuspended: true,
	EventPayoutCompleted: true,
	EventRefundProcessed: true,
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, event Event) {
	d.inner.Dispatch(ctx, event)

	if !opsNotified[event.Kind] || d.cfg.OpsAddress == "" {
		return
	}
	if err := d.send(d.cfg.OpsAddress, event.Title, d.renderBody(event)); err != nil {
		d.logger.Warn("Failed to send notification email", logger.Fields{
			"event": string(event.Kind),
			"to":    d.cfg.OpsAddress,
			"error": err.Error(),
		})
	}
}

func (d *EmailDispatcher) renderBody(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>", event.Message)
	fmt.Fprintf(&b, "<p>Vendor: %s</p>", event.VendorID)
	for k, v := range event.Data {
		fmt.Fprintf(&b, "<p>%s: %v</p>", k, v)
	}
	return b.String()
}

func (d *EmailDispatcher) send(to, subject, body string) error {
	from := d.cfg.From
	if strings.TrimSpace(from) == "" {
		from = d.cfg.Username
	}
	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)

	msg := buildMessage(from, to, subject, body)
	auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)

	if d.cfg.UseTLS {
		return d.sendTLS(addr, from, to, msg, auth)
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}

func (d *EmailDispatcher) sendTLS(addr, from, to, msg string, auth smtp.Auth) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: d.cfg.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, d.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	return w.Close()
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
