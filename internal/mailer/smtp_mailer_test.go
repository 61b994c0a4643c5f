package mailer

import "testing"

func TestSMTPMailerTLSConfigVerifiesCertificates(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 465, "noreply@example.com", "user", "pass", true)

	cfg := m.tlsConfig()
	if cfg.ServerName != "smtp.example.com" {
		t.Fatalf("expected ServerName smtp.example.com, got %q", cfg.ServerName)
	}
	if cfg.InsecureSkipVerify {
		t.Fatal("certificate verification must not be disabled")
	}
}

func TestNewSMTPMailerTrimsFields(t *testing.T) {
	m := NewSMTPMailer(" host ", 1025, " from@example.com ", " user ", " pass ", false)
	if m.Host != "host" || m.From != "from@example.com" || m.User != "user" || m.Pass != "pass" {
		t.Fatalf("fields not trimmed: %+v", m)
	}
}
