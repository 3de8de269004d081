package tlsclient

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport double, grounded on the
// teacher's internal/mocks fake-over-interface pattern.
type fakeTransport struct {
	sent  [][]byte
	toRecv [][]byte
	recvIdx int
}

func (f *fakeTransport) Send(b []byte) error {
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

func (f *fakeTransport) Recv(time.Duration) ([]byte, error) {
	if f.recvIdx >= len(f.toRecv) {
		return nil, nil
	}
	chunk := f.toRecv[f.recvIdx]
	f.recvIdx++
	return chunk, nil
}

func (f *fakeTransport) Close() error { return nil }

func TestRecordLayerRoundTrip(t *testing.T) {
	ft := &fakeTransport{}
	rl := newRecordLayer(ft)

	if err := rl.writeRecord(ContentHandshake, []byte("hello")); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(ft.sent))
	}

	ft.toRecv = [][]byte{ft.sent[0]}
	ct, payload, err := rl.readRecord(time.Second)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if ct != ContentHandshake || string(payload) != "hello" {
		t.Fatalf("readRecord = %v, %q", ct, payload)
	}
}

func TestRecordLayerSplitAcrossChunks(t *testing.T) {
	ft := &fakeTransport{}
	rl := newRecordLayer(ft)
	full := []byte{byte(ContentApplicationData), 0x03, 0x03, 0x00, 0x04, 'a', 'b', 'c', 'd'}
	ft.toRecv = [][]byte{full[:3], full[3:6], full[6:]}

	ct, payload, err := rl.readRecord(time.Second)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if ct != ContentApplicationData || string(payload) != "abcd" {
		t.Fatalf("readRecord = %v, %q", ct, payload)
	}
}

func TestRecordLayerTimeout(t *testing.T) {
	ft := &fakeTransport{}
	rl := newRecordLayer(ft)
	if _, _, err := rl.readRecord(time.Millisecond); err == nil {
		t.Fatal("expected timeout error on empty transport")
	}
}

func TestRecordLayerTransportError(t *testing.T) {
	boom := errors.New("boom")
	ft := &erroringTransport{err: boom}
	rl := newRecordLayer(ft)
	if _, _, err := rl.readRecord(time.Second); err == nil {
		t.Fatal("expected propagated transport error")
	}
}

type erroringTransport struct{ err error }

func (e *erroringTransport) Send([]byte) error                  { return e.err }
func (e *erroringTransport) Recv(time.Duration) ([]byte, error) { return nil, e.err }
func (e *erroringTransport) Close() error                       { return nil }

func TestAEADSealOpenRoundTrip(t *testing.T) {
	for _, suite := range []CipherSuite{SuiteAES128GCMSHA256, SuiteChaCha20Poly1305SHA256} {
		keys := trafficKeys{
			key: bytes.Repeat([]byte{0x01}, 16),
			iv:  bytes.Repeat([]byte{0x02}, 12),
		}
		writer, err := newRecordCrypto(suite, keys)
		if err != nil {
			t.Fatalf("suite %x: newRecordCrypto: %v", suite, err)
		}
		reader, err := newRecordCrypto(suite, keys)
		if err != nil {
			t.Fatalf("suite %x: newRecordCrypto: %v", suite, err)
		}

		inner := append([]byte("application bytes"), byte(ContentApplicationData))
		sealed := writer.sealRecord(inner)

		ct, plain, err := reader.openRecord(sealed)
		if err != nil {
			t.Fatalf("suite %x: openRecord: %v", suite, err)
		}
		if ct != ContentApplicationData || string(plain) != "application bytes" {
			t.Fatalf("suite %x: got %v %q", suite, ct, plain)
		}
	}
}

func TestAEADOpenRejectsTampering(t *testing.T) {
	keys := trafficKeys{key: bytes.Repeat([]byte{0x03}, 16), iv: bytes.Repeat([]byte{0x04}, 12)}
	writer, _ := newRecordCrypto(SuiteAES128GCMSHA256, keys)
	reader, _ := newRecordCrypto(SuiteAES128GCMSHA256, keys)

	sealed := writer.sealRecord(append([]byte("hi"), byte(ContentApplicationData)))
	sealed[0] ^= 0xff
	if _, _, err := reader.openRecord(sealed); err == nil {
		t.Fatal("expected AEAD authentication failure on tampered ciphertext")
	}
}

func TestTicketCacheExpiry(t *testing.T) {
	cache := NewTicketCache()
	cache.Store("example.com", TicketEntry{
		Ticket:   []byte("t"),
		Lifetime: time.Hour,
		StoredAt: time.Now().Add(-2 * time.Hour),
	})
	if _, ok := cache.Lookup("example.com"); ok {
		t.Fatal("expected expired ticket to be rejected")
	}

	cache.Store("fresh.example.com", TicketEntry{
		Ticket:   []byte("t2"),
		Lifetime: time.Hour,
		StoredAt: time.Now(),
	})
	entry, ok := cache.Lookup("fresh.example.com")
	if !ok || string(entry.Ticket) != "t2" {
		t.Fatalf("expected fresh ticket, got %+v, %v", entry, ok)
	}

	cache.Evict("fresh.example.com")
	if _, ok := cache.Lookup("fresh.example.com"); ok {
		t.Fatal("expected evicted ticket to be gone")
	}
}
