// Package security implements the origin-scoped saved-credential store
// and WebAuthn/passkey bridge exposed to a page's <input type=password>
// autofill and to the JS host's navigator.credentials binding
// (SPEC_FULL.md §3.3).
//
// Grounded directly on the teacher's internal/relay/passkey.go: the same
// webauthn.New(Config{RPDisplayName, RPID, RPOrigins}) setup, the same
// webauthnUser adapter implementing the library's four-method User
// interface, and the same begin/finish session-data handshake (an
// in-memory map keyed by user ID holding the *webauthn.SessionData
// between the begin and finish calls of one ceremony) — narrowed here
// from a relay's account-registration flow to a per-origin passkey
// scoped to one page's login form.
package security

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/loomweb/loom/internal/store"
)

// newBodyReader wraps a raw ceremony-response body (as the JS host's
// navigator.credentials bridge would deliver it from the page) for the
// webauthn library's io.Reader-based parse functions.
func newBodyReader(body []byte) io.Reader {
	return bytes.NewReader(body)
}

// webauthnUser adapts a userID/username pair plus its already-registered
// credentials to the webauthn.User interface the library requires.
type webauthnUser struct {
	id          string
	name        string
	credentials []webauthn.Credential
}

func (u *webauthnUser) WebAuthnID() []byte                         { return []byte(u.id) }
func (u *webauthnUser) WebAuthnName() string                       { return u.name }
func (u *webauthnUser) WebAuthnDisplayName() string                { return u.name }
func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// Manager backs the saved-credential autofill prompt and the
// navigator.credentials WebAuthn ceremony, persisting both kinds of
// secret through internal/store.
type Manager struct {
	Store   *store.Store
	RPID    string
	Origins []string

	mu       sync.Mutex
	sessions map[string]*webauthn.SessionData // userID → in-flight ceremony
}

// NewManager returns a Manager scoped to the given relying-party ID and
// accepted origins (e.g. RPID "example.com", Origins
// ["https://example.com"]).
func NewManager(st *store.Store, rpID string, origins []string) *Manager {
	return &Manager{
		Store:    st,
		RPID:     rpID,
		Origins:  origins,
		sessions: map[string]*webauthn.SessionData{},
	}
}

func (m *Manager) webauthn() (*webauthn.WebAuthn, error) {
	return webauthn.New(&webauthn.Config{
		RPDisplayName: "loom",
		RPID:          m.RPID,
		RPOrigins:     m.Origins,
	})
}

func (m *Manager) loadUser(userID, username string) (*webauthnUser, error) {
	rows, err := m.Store.WebAuthnCredentialsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load webauthn credentials: %w", err)
	}
	u := &webauthnUser{id: userID, name: username}
	for _, c := range rows {
		u.credentials = append(u.credentials, webauthn.Credential{
			ID:        []byte(c.CredentialID),
			PublicKey: c.PublicKey,
			Authenticator: webauthn.Authenticator{
				SignCount: c.SignCount,
			},
		})
	}
	return u, nil
}

// BeginRegistration starts a passkey-registration ceremony for userID,
// returning the options the JS host's navigator.credentials.create bridge
// hands to the page.
func (m *Manager) BeginRegistration(userID, username string) (*protocol.CredentialCreation, error) {
	wa, err := m.webauthn()
	if err != nil {
		return nil, fmt.Errorf("init webauthn: %w", err)
	}
	user, err := m.loadUser(userID, username)
	if err != nil {
		return nil, err
	}

	options, session, err := wa.BeginRegistration(user,
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementDiscouraged),
	)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	m.mu.Lock()
	m.sessions[userID] = session
	m.mu.Unlock()
	return options, nil
}

// FinishRegistration completes a ceremony BeginRegistration started,
// given the raw attestation response body from the page, persisting the
// resulting credential so future BeginLogin calls can offer it.
func (m *Manager) FinishRegistration(userID, origin string, responseBody []byte) (*store.WebAuthnCredential, error) {
	wa, err := m.webauthn()
	if err != nil {
		return nil, fmt.Errorf("init webauthn: %w", err)
	}

	m.mu.Lock()
	session, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no registration session in progress for user %s", userID)
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(newBodyReader(responseBody))
	if err != nil {
		return nil, fmt.Errorf("parse attestation response: %w", err)
	}

	user := &webauthnUser{id: userID}
	cred, err := wa.CreateCredential(user, *session, parsed)
	if err != nil {
		return nil, fmt.Errorf("finish registration: %w", err)
	}

	rec := store.WebAuthnCredential{
		CredentialID: string(cred.ID),
		UserID:       userID,
		Origin:       origin,
		PublicKey:    cred.PublicKey,
		SignCount:    uint32(cred.Authenticator.SignCount),
	}
	if err := m.Store.SaveWebAuthnCredential(rec); err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}
	return &rec, nil
}

// BeginLogin starts a passkey-assertion ceremony for userID, offering
// every credential previously registered for that user.
func (m *Manager) BeginLogin(userID string) (*protocol.CredentialAssertion, error) {
	wa, err := m.webauthn()
	if err != nil {
		return nil, fmt.Errorf("init webauthn: %w", err)
	}
	user, err := m.loadUser(userID, userID)
	if err != nil {
		return nil, err
	}
	if len(user.credentials) == 0 {
		return nil, fmt.Errorf("no registered passkeys for user %s", userID)
	}

	options, session, err := wa.BeginLogin(user)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}

	m.mu.Lock()
	m.sessions[userID] = session
	m.mu.Unlock()
	return options, nil
}

// FinishLogin completes a ceremony BeginLogin started and bumps the
// credential's signature counter, the library's built-in clone-detection
// mechanism.
func (m *Manager) FinishLogin(userID string, responseBody []byte) error {
	wa, err := m.webauthn()
	if err != nil {
		return fmt.Errorf("init webauthn: %w", err)
	}

	m.mu.Lock()
	session, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no login session in progress for user %s", userID)
	}

	user, err := m.loadUser(userID, userID)
	if err != nil {
		return err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(newBodyReader(responseBody))
	if err != nil {
		return fmt.Errorf("parse assertion response: %w", err)
	}

	cred, err := wa.ValidateLogin(user, *session, parsed)
	if err != nil {
		return fmt.Errorf("validate login: %w", err)
	}
	return m.Store.UpdateSignCount(string(cred.ID), uint32(cred.Authenticator.SignCount))
}

// Autofill returns every saved password-field credential scoped to
// origin, for the autofill prompt a page's password <input> triggers.
func (m *Manager) Autofill(origin string) ([]store.SavedCredential, error) {
	return m.Store.CredentialsForOrigin(origin)
}

// SaveCredential persists a new or updated password-field credential.
func (m *Manager) SaveCredential(id, origin, username, secret string) error {
	return m.Store.SaveCredential(store.SavedCredential{
		ID: id, Origin: origin, Username: username, Secret: secret,
	})
}
