package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"fluencytrail/config"
)

func TestSendConfirmationBuildsMessage(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)

	m := New(config.SMTPSettings{
		Host: "smtp.example.com",
		Port: 587,
		From: "no-reply@example.com",
	}, "FluencyTrail", "https://app.example.com/")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	if err := m.SendConfirmation("user@example.com", "Mika", "tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "no-reply@example.com" {
		t.Errorf("unexpected from %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Errorf("unexpected to %v", gotTo)
	}
	if !strings.Contains(gotMsg, "https://app.example.com/confirm?token=tok123") {
		t.Errorf("confirmation link missing from message:\n%s", gotMsg)
	}
	if !strings.Contains(gotMsg, "Subject: Confirm your FluencyTrail account") {
		t.Errorf("subject missing from message:\n%s", gotMsg)
	}
}

func TestDeliverUnconfigured(t *testing.T) {
	m := New(config.SMTPSettings{}, "FluencyTrail", "http://localhost")
	err := m.SendPasswordReset("user@example.com", "Mika", "tok")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
