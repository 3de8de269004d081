package tlsclient

import (
	"crypto/ecdh"
	"fmt"

	"github.com/loomweb/loom/internal/codec"
)

// HandshakeType is the one-byte handshake message type (RFC 8446 §4).
type HandshakeType byte

const (
	HandshakeClientHello        HandshakeType = 1
	HandshakeServerHello        HandshakeType = 2
	HandshakeNewSessionTicket   HandshakeType = 4
	HandshakeEncryptedExtensions HandshakeType = 8
	HandshakeCertificate        HandshakeType = 11
	HandshakeCertificateVerify  HandshakeType = 15
	HandshakeFinished           HandshakeType = 20
)

// handshakeHeader wraps body with the (type, length24) framing shared by
// every handshake message, and returns the full message (header included)
// since the transcript hashes header-plus-body (spec §3.2).
func handshakeHeader(t HandshakeType, body []byte) []byte {
	w := codec.NewWriter()
	w.U8(byte(t))
	w.U24(uint32(len(body)))
	w.Raw(body)
	return w.Bytes()
}

// extension is a single TLS extension: a 16-bit type followed by a
// 16-bit-length-prefixed body.
type extension struct {
	typ  uint16
	body []byte
}

const (
	extServerName        uint16 = 0
	extSupportedGroups    uint16 = 10
	extSignatureAlgorithms uint16 = 13
	extALPN               uint16 = 16
	extKeyShare           uint16 = 51
	extSupportedVersions  uint16 = 43
)

// buildClientHello assembles a ClientHello message body (not yet wrapped in
// the handshake header) advertising the extensions spec §4.1 names:
// server_name, supported_versions=0x0304, supported_groups=x25519,
// key_share=x25519, signature_algorithms, and ALPN advertising h2 then
// http/1.1.
func buildClientHello(host string, clientRandom [32]byte, clientPublic *ecdh.PublicKey) []byte {
	w := codec.NewWriter()
	w.U16(0x0303) // legacy_version
	w.Raw(clientRandom[:])
	w.U8LengthPrefixed(nil) // legacy_session_id

	cipherSuites := codec.NewWriter()
	cipherSuites.U16(uint16(SuiteAES128GCMSHA256))
	cipherSuites.U16(uint16(SuiteChaCha20Poly1305SHA256))
	w.U16LengthPrefixed(cipherSuites.Bytes())

	w.U8LengthPrefixed([]byte{0x01, 0x00}) // legacy_compression_methods: null only

	exts := []extension{
		serverNameExtension(host),
		supportedGroupsExtension(),
		keyShareExtension(clientPublic),
		signatureAlgorithmsExtension(),
		supportedVersionsExtension(),
		alpnExtension(),
	}
	w.U16LengthPrefixed(encodeExtensions(exts))

	return w.Bytes()
}

func encodeExtensions(exts []extension) []byte {
	w := codec.NewWriter()
	for _, e := range exts {
		w.U16(e.typ)
		w.U16LengthPrefixed(e.body)
	}
	return w.Bytes()
}

func serverNameExtension(host string) extension {
	entry := codec.NewWriter()
	entry.U8(0) // name_type: host_name
	entry.U16LengthPrefixed([]byte(host))
	w := codec.NewWriter()
	w.U16LengthPrefixed(entry.Bytes())
	return extension{typ: extServerName, body: w.Bytes()}
}

func supportedGroupsExtension() extension {
	w := codec.NewWriter()
	list := codec.NewWriter()
	list.U16(0x001d) // x25519
	w.U16LengthPrefixed(list.Bytes())
	return extension{typ: extSupportedGroups, body: w.Bytes()}
}

func keyShareExtension(pub *ecdh.PublicKey) extension {
	entry := codec.NewWriter()
	entry.U16(0x001d) // x25519
	entry.U16LengthPrefixed(pub.Bytes())
	w := codec.NewWriter()
	w.U16LengthPrefixed(entry.Bytes())
	return extension{typ: extKeyShare, body: w.Bytes()}
}

func signatureAlgorithmsExtension() extension {
	w := codec.NewWriter()
	list := codec.NewWriter()
	list.U16(0x0403) // ecdsa_secp256r1_sha256
	list.U16(0x0804) // rsa_pss_rsae_sha256
	list.U16(0x0401) // rsa_pkcs1_sha256
	w.U16LengthPrefixed(list.Bytes())
	return extension{typ: extSignatureAlgorithms, body: w.Bytes()}
}

func supportedVersionsExtension() extension {
	w := codec.NewWriter()
	w.U8LengthPrefixed([]byte{0x03, 0x04})
	return extension{typ: extSupportedVersions, body: w.Bytes()}
}

func alpnExtension() extension {
	w := codec.NewWriter()
	list := codec.NewWriter()
	list.U8LengthPrefixed([]byte("h2"))
	list.U8LengthPrefixed([]byte("http/1.1"))
	w.U16LengthPrefixed(list.Bytes())
	return extension{typ: extALPN, body: w.Bytes()}
}

// serverHello is the subset of ServerHello fields the core reads (spec
// §4.1 step 1).
type serverHello struct {
	cipherSuite  CipherSuite
	serverPublic []byte // raw x25519 public key bytes from key_share
}

func parseServerHello(body []byte) (*serverHello, error) {
	r := codec.NewReader(body)
	if _, err := r.U16(); err != nil { // legacy_version
		return nil, err
	}
	if _, err := r.Bytes(32); err != nil { // random
		return nil, err
	}
	if _, err := r.U8LengthPrefixed(); err != nil { // legacy_session_id_echo
		return nil, err
	}
	suite, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("tlsclient: parse ServerHello cipher suite: %w", err)
	}
	if _, err := r.U8(); err != nil { // legacy_compression_method
		return nil, err
	}
	extBytes, err := r.U16LengthPrefixed()
	if err != nil {
		return nil, fmt.Errorf("tlsclient: parse ServerHello extensions: %w", err)
	}

	sh := &serverHello{cipherSuite: CipherSuite(suite)}
	er := codec.NewReader(extBytes)
	for er.Len() > 0 {
		typ, err := er.U16()
		if err != nil {
			return nil, err
		}
		body, err := er.U16LengthPrefixed()
		if err != nil {
			return nil, err
		}
		if typ == extKeyShare {
			kr := codec.NewReader(body)
			if _, err := kr.U16(); err != nil { // group
				return nil, err
			}
			pub, err := kr.U16LengthPrefixed()
			if err != nil {
				return nil, err
			}
			sh.serverPublic = pub
		}
	}
	if sh.serverPublic == nil {
		return nil, fmt.Errorf("tlsclient: ServerHello missing key_share")
	}
	return sh, nil
}

// newSessionTicket is the parsed NewSessionTicket body (spec §4.1,
// "Session resumption").
type newSessionTicket struct {
	lifetime uint32
	ageAdd   uint32
	nonce    []byte
	ticket   []byte
}

func parseNewSessionTicket(body []byte) (*newSessionTicket, error) {
	r := codec.NewReader(body)
	lifetime, err := r.U32()
	if err != nil {
		return nil, err
	}
	ageAdd, err := r.U32()
	if err != nil {
		return nil, err
	}
	nonce, err := r.U8LengthPrefixed()
	if err != nil {
		return nil, err
	}
	ticket, err := r.U16LengthPrefixed()
	if err != nil {
		return nil, err
	}
	if _, err := r.U16LengthPrefixed(); err != nil { // extensions, unused
		return nil, err
	}
	return &newSessionTicket{lifetime: lifetime, ageAdd: ageAdd, nonce: nonce, ticket: ticket}, nil
}
