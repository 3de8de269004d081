package tlsclient

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/loomweb/loom/internal/codec"
)

// CipherSuite is the negotiated AEAD suite (spec §3.2); the core supports
// exactly the two TLS 1.3 mandatory suites.
type CipherSuite uint16

const (
	SuiteAES128GCMSHA256      CipherSuite = 0x1301
	SuiteChaCha20Poly1305SHA256 CipherSuite = 0x1303
)

func (s CipherSuite) newAEAD(key []byte) (cipher.AEAD, error) {
	switch s {
	case SuiteAES128GCMSHA256:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("tlsclient: aes key: %w", err)
		}
		return cipher.NewGCM(block)
	case SuiteChaCha20Poly1305SHA256:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("tlsclient: unsupported cipher suite %#04x", uint16(s))
	}
}

// recordCrypto is one direction's live AEAD state: cipher, static IV, and
// sequence number. The nonce construction (IV XOR sequence) is identical
// across both supported suites (spec §4.1, "Cipher-suite dispatch").
type recordCrypto struct {
	aead   cipher.AEAD
	iv     []byte
	seq    uint64
	secret []byte
}

func newRecordCrypto(suite CipherSuite, keys trafficKeys) (*recordCrypto, error) {
	aead, err := suite.newAEAD(keys.key)
	if err != nil {
		return nil, err
	}
	return &recordCrypto{aead: aead, iv: keys.iv, secret: keys.secret}, nil
}

func (rc *recordCrypto) nonce() []byte {
	return codec.SequenceNonce(rc.iv, rc.seq)
}

// sealRecord wraps innerPlaintext (the handshake/application bytes plus
// their trailing inner content-type byte) as an encrypted TLSCiphertext
// payload, additionally authenticated by the record header per RFC 8446
// §5.2.
func (rc *recordCrypto) sealRecord(innerPlaintext []byte) []byte {
	length := len(innerPlaintext) + rc.aead.Overhead()
	aad := []byte{byte(ContentApplicationData), 0x03, 0x03, byte(length >> 8), byte(length)}
	sealed := rc.aead.Seal(nil, rc.nonce(), innerPlaintext, aad)
	rc.seq++
	return sealed
}

// openRecord decrypts a TLSCiphertext payload and strips the trailing
// zero-padding to recover (innerContentType, plaintext), per spec §4.1 step
// 3: "A record's plaintext is handshake_bytes || 0x16 || 0x00*padding; strip
// trailing zeros and take the last nonzero byte as the inner content type."
func (rc *recordCrypto) openRecord(ciphertext []byte) (ContentType, []byte, error) {
	length := len(ciphertext)
	aad := []byte{byte(ContentApplicationData), 0x03, 0x03, byte(length >> 8), byte(length)}
	plain, err := rc.aead.Open(nil, rc.nonce(), ciphertext, aad)
	if err != nil {
		return 0, nil, fmt.Errorf("tlsclient: AEAD open: %w", err)
	}
	rc.seq++

	i := len(plain) - 1
	for i >= 0 && plain[i] == 0 {
		i--
	}
	if i < 0 {
		return 0, nil, fmt.Errorf("tlsclient: decrypted record has no inner content type")
	}
	return ContentType(plain[i]), plain[:i], nil
}
