package security

import (
	"testing"

	"github.com/loomweb/loom/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveCredentialAndAutofill(t *testing.T) {
	m := NewManager(openTestStore(t), "example.com", []string{"https://example.com"})

	if err := m.SaveCredential("c1", "https://example.com", "bob", "hunter2"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	if err := m.SaveCredential("c2", "https://other.example", "alice", "letmein"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}

	got, err := m.Autofill("https://example.com")
	if err != nil {
		t.Fatalf("Autofill: %v", err)
	}
	if len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("Autofill = %+v, want one entry for bob", got)
	}
}

func TestFinishRegistrationWithoutBeginFails(t *testing.T) {
	m := NewManager(openTestStore(t), "example.com", []string{"https://example.com"})

	_, err := m.FinishRegistration("user-1", "https://example.com", []byte(`{}`))
	if err == nil {
		t.Fatal("expected error completing a registration ceremony that was never begun")
	}
}

func TestFinishLoginWithoutBeginFails(t *testing.T) {
	m := NewManager(openTestStore(t), "example.com", []string{"https://example.com"})

	if err := m.FinishLogin("user-1", []byte(`{}`)); err == nil {
		t.Fatal("expected error completing a login ceremony that was never begun")
	}
}

func TestBeginLoginWithNoCredentialsFails(t *testing.T) {
	m := NewManager(openTestStore(t), "example.com", []string{"https://example.com"})

	if _, err := m.BeginLogin("user-with-no-passkeys"); err == nil {
		t.Fatal("expected error beginning login for a user with no registered passkeys")
	}
}

func TestBeginRegistrationReturnsOptions(t *testing.T) {
	m := NewManager(openTestStore(t), "example.com", []string{"https://example.com"})

	options, err := m.BeginRegistration("user-1", "bob")
	if err != nil {
		t.Fatalf("BeginRegistration: %v", err)
	}
	if options.Response.RelyingParty.ID != "example.com" {
		t.Errorf("RP ID = %q, want example.com", options.Response.RelyingParty.ID)
	}
	if len(options.Response.Challenge) == 0 {
		t.Error("expected a non-empty challenge")
	}
}
