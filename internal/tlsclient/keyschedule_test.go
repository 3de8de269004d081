package tlsclient

import (
	"bytes"
	"testing"
)

func TestHkdfExpandLabelDeterministicAndSized(t *testing.T) {
	secret := bytes.Repeat([]byte{0x11}, 32)
	context := bytes.Repeat([]byte{0x22}, 32)

	a := hkdfExpandLabel(secret, "c hs traffic", context, 32)
	b := hkdfExpandLabel(secret, "c hs traffic", context, 32)
	if !bytes.Equal(a, b) {
		t.Fatal("hkdfExpandLabel must be deterministic for identical inputs")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte output, got %d", len(a))
	}

	// Different labels must diverge.
	c := hkdfExpandLabel(secret, "s hs traffic", context, 32)
	if bytes.Equal(a, c) {
		t.Fatal("distinct labels must derive distinct secrets")
	}

	// Output length is respected.
	d := hkdfExpandLabel(secret, "key", nil, 16)
	if len(d) != 16 {
		t.Fatalf("expected 16-byte output, got %d", len(d))
	}
}

func TestDeriveHandshakeSecretDeterministic(t *testing.T) {
	shared := bytes.Repeat([]byte{0x42}, 32)
	_, hs1 := deriveHandshakeSecret(shared)
	_, hs2 := deriveHandshakeSecret(shared)
	if !bytes.Equal(hs1, hs2) {
		t.Fatal("deriveHandshakeSecret must be deterministic for the same input")
	}
	if len(hs1) != 32 {
		t.Fatalf("handshake secret length = %d, want 32", len(hs1))
	}
}

func TestDeriveMasterSecret(t *testing.T) {
	hs := bytes.Repeat([]byte{0x01}, 32)
	ms := deriveMasterSecret(hs)
	if len(ms) != 32 {
		t.Fatalf("master secret length = %d, want 32", len(ms))
	}
}

func TestFinishedVerifyDataDeterministic(t *testing.T) {
	secret := bytes.Repeat([]byte{0x07}, 32)
	hash := bytes.Repeat([]byte{0x08}, 32)
	a := finishedVerifyData(secret, hash)
	b := finishedVerifyData(secret, hash)
	if !bytes.Equal(a, b) {
		t.Fatal("finishedVerifyData must be deterministic")
	}
	if len(a) != 32 {
		t.Fatalf("verify_data length = %d, want 32", len(a))
	}
}

func TestTranscriptHash(t *testing.T) {
	var tr transcript
	tr.add([]byte("hello "))
	tr.add([]byte("world"))
	h1 := tr.hash()

	var tr2 transcript
	tr2.add([]byte("hello world"))
	h2 := tr2.hash()

	if !bytes.Equal(h1, h2) {
		t.Fatal("transcript hash must only depend on concatenated bytes, not add() call boundaries")
	}
}
