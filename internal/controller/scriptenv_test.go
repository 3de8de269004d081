package controller

import (
	"testing"

	"github.com/loomweb/loom/internal/security"
	"github.com/loomweb/loom/internal/store"
	"github.com/loomweb/loom/internal/urlx"
)

func TestCredentialsGetStoreRoundTripThroughSecurityManager(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	c, _ := setupController(t)
	c.SetSecurity(security.NewManager(st, "example.test", []string{"https://example.test"}))

	tab := c.ActiveTab()
	tab.URL = urlx.Parse("https://example.test/login")
	env := newTabEnv(c, tab)

	if _, _, ok := env.CredentialsGet(); ok {
		t.Fatal("expected no saved credential before CredentialsStore")
	}

	env.CredentialsStore("alice", "hunter2")

	username, secret, ok := env.CredentialsGet()
	if !ok {
		t.Fatal("expected a saved credential after CredentialsStore")
	}
	if username != "alice" || secret != "hunter2" {
		t.Fatalf("CredentialsGet = (%q, %q), want (alice, hunter2)", username, secret)
	}
}

func TestCredentialsGetWithoutSecurityManagerIsDisabled(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	tab.URL = urlx.Parse("https://example.test/login")
	env := newTabEnv(c, tab)

	if _, _, ok := env.CredentialsGet(); ok {
		t.Fatal("expected CredentialsGet to report ok=false with no security.Manager wired in")
	}
	env.CredentialsStore("alice", "hunter2") // must not panic
}
