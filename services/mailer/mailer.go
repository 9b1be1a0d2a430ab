// Package mailer delivers transactional email over an SMTP relay. Failures
// are reported with a fixed prefix so callers can log and degrade; mail
// delivery never blocks an account flow.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"fluencytrail/config"
)

var ErrNotConfigured = errors.New("mailer: smtp relay not configured")

// Mailer sends templated account emails through a single SMTP relay.
type Mailer struct {
	cfg     config.SMTPSettings
	appName string
	baseURL string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a mailer from the SMTP section of the settings file.
func New(cfg config.SMTPSettings, appName, baseURL string) *Mailer {
	return &Mailer{
		cfg:     cfg,
		appName: appName,
		baseURL: strings.TrimRight(baseURL, "/"),
		send:    smtp.SendMail,
	}
}

// Configured reports whether a relay host is set. Unconfigured deployments
// (local development) skip delivery instead of failing signups.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != ""
}

// SendConfirmation emails the signup confirmation link.
func (m *Mailer) SendConfirmation(to, name, token string) error {
	link := fmt.Sprintf("%s/confirm?token=%s", m.baseURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome to %s! Confirm your email address by opening the link below:\r\n\r\n%s\r\n\r\nIf you did not sign up, you can ignore this message.\r\n",
		name, m.appName, link)
	return m.deliver(to, fmt.Sprintf("Confirm your %s account", m.appName), body)
}

// SendPasswordReset emails the password reset link.
func (m *Mailer) SendPasswordReset(to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nSomeone requested a password reset for your %s account. Open the link below to choose a new password:\r\n\r\n%s\r\n\r\nIf that was not you, no action is needed.\r\n",
		name, m.appName, link)
	return m.deliver(to, fmt.Sprintf("Reset your %s password", m.appName), body)
}

func (m *Mailer) deliver(to, subject, body string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	msg := strings.Builder{}
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.appName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
