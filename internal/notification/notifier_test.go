package notification

import (
	"Go2NetEuclid/internal/config"
	"net/smtp"
	"strings"
	"testing"
)

func TestEmailNotifier_Send(t *testing.T) {
	n, err := NewEmailNotifier(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "euclid@example.com",
		To:   "ops@example.com, , noc@example.com",
	})
	if err != nil {
		t.Fatalf("NewEmailNotifier failed: %v", err)
	}

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if err := n.Send("Defense activated", "<p>window 3</p>"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("Unexpected server address %q", gotAddr)
	}
	if len(gotTo) != 2 || gotTo[1] != "noc@example.com" {
		t.Errorf("Unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Defense activated\r\n") || !strings.HasSuffix(gotMsg, "\r\n\r\n<p>window 3</p>") {
		t.Errorf("Unexpected message:\n%s", gotMsg)
	}
}

func TestNewEmailNotifier_RequiresRecipients(t *testing.T) {
	if _, err := NewEmailNotifier(config.SMTPConfig{Host: "smtp.example.com", From: "a@example.com"}); err == nil {
		t.Fatal("Expected an error without recipients")
	}
}
