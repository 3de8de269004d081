package store

// SavedCredential is one origin-scoped autofill entry for a password field
// (SPEC_FULL.md §3.3 "saved credentials / passkey store").
type SavedCredential struct {
	ID       string
	Origin   string
	Username string
	Secret   string
}

// SaveCredential upserts a saved-credential row keyed by id.
func (s *Store) SaveCredential(c SavedCredential) error {
	_, err := s.db.Exec(`INSERT INTO saved_credentials (id, origin, username, secret)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET origin = excluded.origin, username = excluded.username, secret = excluded.secret`,
		c.ID, c.Origin, c.Username, c.Secret)
	return err
}

// CredentialsForOrigin returns every saved credential scoped to origin, for
// the autofill prompt a password <input> triggers.
func (s *Store) CredentialsForOrigin(origin string) ([]SavedCredential, error) {
	rows, err := s.db.Query(`SELECT id, origin, username, secret FROM saved_credentials WHERE origin = ?`, origin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedCredential
	for rows.Next() {
		var c SavedCredential
		if err := rows.Scan(&c.ID, &c.Origin, &c.Username, &c.Secret); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// WebAuthnCredential is one registered passkey, persisted so the
// navigator.credentials bridge (spec §6, SPEC_FULL.md §3.3) can complete a
// WebAuthn ceremony across process restarts.
type WebAuthnCredential struct {
	CredentialID string
	UserID       string
	Origin       string
	PublicKey    []byte
	SignCount    uint32
}

// SaveWebAuthnCredential upserts a registered passkey.
func (s *Store) SaveWebAuthnCredential(c WebAuthnCredential) error {
	_, err := s.db.Exec(`INSERT INTO webauthn_credentials (credential_id, user_id, origin, public_key, sign_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(credential_id) DO UPDATE SET sign_count = excluded.sign_count`,
		c.CredentialID, c.UserID, c.Origin, c.PublicKey, c.SignCount)
	return err
}

// WebAuthnCredentialsForUser returns every passkey registered for userID.
func (s *Store) WebAuthnCredentialsForUser(userID string) ([]WebAuthnCredential, error) {
	rows, err := s.db.Query(`SELECT credential_id, user_id, origin, public_key, sign_count FROM webauthn_credentials WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WebAuthnCredential
	for rows.Next() {
		var c WebAuthnCredential
		if err := rows.Scan(&c.CredentialID, &c.UserID, &c.Origin, &c.PublicKey, &c.SignCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateSignCount bumps a credential's signature counter after a
// successful assertion, the WebAuthn replay-detection mechanism.
func (s *Store) UpdateSignCount(credentialID string, count uint32) error {
	_, err := s.db.Exec(`UPDATE webauthn_credentials SET sign_count = ? WHERE credential_id = ?`, count, credentialID)
	return err
}
