package chat

import (
	"testing"

	"github.com/infodancer/tchatd/internal/mailbox"
)

func TestNewSessionStartsOpen(t *testing.T) {
	sess := NewSession()
	if sess.State() != Open {
		t.Errorf("State() = %v, want Open", sess.State())
	}
	if sess.Name() != "" {
		t.Errorf("Name() = %q, want empty", sess.Name())
	}
	if sess.Mailbox() != nil {
		t.Error("Mailbox() != nil before Authenticate")
	}
}

func TestAuthenticateTransitionsToAuth(t *testing.T) {
	sess := NewSession()
	box := mailbox.New("dessera", mailbox.Auth)
	sess.Authenticate("dessera", box)

	if sess.State() != Auth {
		t.Errorf("State() = %v, want Auth", sess.State())
	}
	if sess.Name() != "dessera" {
		t.Errorf("Name() = %q, want dessera", sess.Name())
	}
	if sess.Mailbox() != box {
		t.Error("Mailbox() does not match the bound mailbox")
	}
}

func TestRenameUpdatesName(t *testing.T) {
	sess := NewSession()
	sess.Authenticate("dessera", mailbox.New("dessera", mailbox.Auth))
	sess.Rename("scarlet")
	if sess.Name() != "scarlet" {
		t.Errorf("Name() = %q, want scarlet", sess.Name())
	}
}
