package tlsclient

import (
	"crypto/hmac"
	"crypto/sha256"

	"golang.org/x/crypto/hkdf"
)

// hkdfExtract implements HKDF-Extract(salt, ikm) (RFC 5869 §2.2).
func hkdfExtract(salt, ikm []byte) []byte {
	return hkdf.Extract(sha256.New, ikm, salt)
}

// hkdfExpandLabel implements TLS 1.3's HKDF-Expand-Label (RFC 8446 §7.1):
// HKDF-Expand(secret, HkdfLabel{length, "tls13 "+label, context}, length).
func hkdfExpandLabel(secret []byte, label string, context []byte, length int) []byte {
	var hkdfLabel []byte
	hkdfLabel = append(hkdfLabel, byte(length>>8), byte(length))

	fullLabel := "tls13 " + label
	hkdfLabel = append(hkdfLabel, byte(len(fullLabel)))
	hkdfLabel = append(hkdfLabel, fullLabel...)

	hkdfLabel = append(hkdfLabel, byte(len(context)))
	hkdfLabel = append(hkdfLabel, context...)

	out := make([]byte, length)
	r := hkdf.Expand(sha256.New, secret, hkdfLabel)
	if _, err := r.Read(out); err != nil {
		panic("tlsclient: hkdf expand: " + err.Error())
	}
	return out
}

func zeros(n int) []byte { return make([]byte, n) }

var emptyHash = sha256.Sum256(nil)

// deriveHandshakeSecret computes early_secret and handshake_secret from the
// ECDH shared secret, per spec §4.1 step 2.
func deriveHandshakeSecret(sharedSecret []byte) (earlySecret, handshakeSecret []byte) {
	earlySecret = hkdfExtract(zeros(32), zeros(32))
	derived := hkdfExpandLabel(earlySecret, "derived", emptyHash[:], 32)
	handshakeSecret = hkdfExtract(derived, sharedSecret)
	return
}

// deriveMasterSecret computes master_secret from handshake_secret, per spec
// §4.1 step 5.
func deriveMasterSecret(handshakeSecret []byte) []byte {
	derived := hkdfExpandLabel(handshakeSecret, "derived", emptyHash[:], 32)
	return hkdfExtract(derived, zeros(32))
}

// trafficKeys holds the key/iv pair derived for one direction and phase.
type trafficKeys struct {
	secret []byte
	key    []byte
	iv     []byte
}

func deriveTrafficKeys(secret []byte) trafficKeys {
	return trafficKeys{
		secret: secret,
		key:    hkdfExpandLabel(secret, "key", nil, 16),
		iv:     hkdfExpandLabel(secret, "iv", nil, 12),
	}
}

// finishedVerifyData computes a Finished message's verify-data:
// HMAC-SHA256(HKDF-Expand-Label(secret, "finished", "", 32), transcriptHash).
func finishedVerifyData(baseSecret []byte, transcriptHash []byte) []byte {
	finishedKey := hkdfExpandLabel(baseSecret, "finished", nil, 32)
	mac := hmac.New(sha256.New, finishedKey)
	mac.Write(transcriptHash)
	return mac.Sum(nil)
}

// transcript accumulates handshake message bodies (header + body, not
// record wrappers) for hashing (spec §3.2).
type transcript struct {
	buf []byte
}

func (t *transcript) add(msg []byte) { t.buf = append(t.buf, msg...) }

func (t *transcript) hash() []byte {
	sum := sha256.Sum256(t.buf)
	return sum[:]
}
