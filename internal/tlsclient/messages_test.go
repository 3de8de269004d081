package tlsclient

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/loomweb/loom/internal/codec"
)

func TestBuildClientHelloContainsKeyShare(t *testing.T) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var random [32]byte
	body := buildClientHello("example.com", random, priv.PublicKey())

	if len(body) < 40 {
		t.Fatalf("ClientHello body implausibly short: %d bytes", len(body))
	}
	r := codec.NewReader(body)
	if v, _ := r.U16(); v != 0x0303 {
		t.Fatalf("legacy_version = %x", v)
	}
}

func TestServerHelloRoundTrip(t *testing.T) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pub := priv.PublicKey().Bytes()

	w := codec.NewWriter()
	w.U16(0x0303)
	w.Raw(make([]byte, 32))
	w.U8LengthPrefixed(nil)
	w.U16(uint16(SuiteAES128GCMSHA256))
	w.U8(0)

	keyShareEntry := codec.NewWriter()
	keyShareEntry.U16(0x001d)
	keyShareEntry.U16LengthPrefixed(pub)
	ext := codec.NewWriter()
	ext.U16(extKeyShare)
	ext.U16LengthPrefixed(keyShareEntry.Bytes())
	w.U16LengthPrefixed(ext.Bytes())

	sh, err := parseServerHello(w.Bytes())
	if err != nil {
		t.Fatalf("parseServerHello: %v", err)
	}
	if sh.cipherSuite != SuiteAES128GCMSHA256 {
		t.Fatalf("cipherSuite = %x", sh.cipherSuite)
	}
	if string(sh.serverPublic) != string(pub) {
		t.Fatal("serverPublic mismatch")
	}
}

func TestParseServerHelloMissingKeyShareErrors(t *testing.T) {
	w := codec.NewWriter()
	w.U16(0x0303)
	w.Raw(make([]byte, 32))
	w.U8LengthPrefixed(nil)
	w.U16(uint16(SuiteAES128GCMSHA256))
	w.U8(0)
	w.U16LengthPrefixed(nil) // no extensions

	if _, err := parseServerHello(w.Bytes()); err == nil {
		t.Fatal("expected error when key_share extension is absent")
	}
}

func TestHandshakeReframerSplitsConcatenatedMessages(t *testing.T) {
	msg1 := handshakeHeader(HandshakeEncryptedExtensions, []byte{0x00, 0x00})
	msg2 := handshakeHeader(HandshakeFinished, []byte("verifydata-32-bytes-placeholder"))

	hr := &handshakeReframer{}
	hr.feed(append(append([]byte{}, msg1...), msg2...))

	typ1, body1, full1, ok := hr.next()
	if !ok || typ1 != HandshakeEncryptedExtensions || len(body1) != 2 || len(full1) != len(msg1) {
		t.Fatalf("first message = %v %v %v %v", typ1, body1, full1, ok)
	}
	typ2, body2, _, ok := hr.next()
	if !ok || typ2 != HandshakeFinished || string(body2) != "verifydata-32-bytes-placeholder" {
		t.Fatalf("second message = %v %q %v", typ2, body2, ok)
	}
	if _, _, _, ok := hr.next(); ok {
		t.Fatal("expected no third message")
	}
}

func TestNewSessionTicketRoundTrip(t *testing.T) {
	w := codec.NewWriter()
	w.U32(7200)
	w.U32(0xaabbccdd)
	w.U8LengthPrefixed([]byte{0x01, 0x02, 0x03})
	w.U16LengthPrefixed([]byte("ticket-bytes"))
	w.U16LengthPrefixed(nil)

	nst, err := parseNewSessionTicket(w.Bytes())
	if err != nil {
		t.Fatalf("parseNewSessionTicket: %v", err)
	}
	if nst.lifetime != 7200 || nst.ageAdd != 0xaabbccdd || string(nst.ticket) != "ticket-bytes" {
		t.Fatalf("unexpected ticket: %+v", nst)
	}
}
