package tlsclient

import (
	"fmt"
	"time"
)

// ContentType is the TLS record content-type byte (RFC 8446 §5.1).
type ContentType byte

const (
	ContentChangeCipherSpec ContentType = 20
	ContentAlert            ContentType = 21
	ContentHandshake        ContentType = 22
	ContentApplicationData  ContentType = 23
)

// recordLayer buffers raw bytes off a Transport and reframes them into
// complete TLSPlaintext/TLSCiphertext records: a 5-byte header
// (type, legacy-version, length16) followed by exactly that many bytes.
type recordLayer struct {
	transport Transport
	inbuf     []byte
}

func newRecordLayer(t Transport) *recordLayer {
	return &recordLayer{transport: t}
}

// readRecord returns the next record's content type and payload, reading
// from the transport as needed until a full record is buffered.
func (rl *recordLayer) readRecord(timeout time.Duration) (ContentType, []byte, error) {
	for {
		if ct, payload, ok := rl.tryParse(); ok {
			return ct, payload, nil
		}
		chunk, err := rl.transport.Recv(timeout)
		if err != nil {
			return 0, nil, fmt.Errorf("tlsclient: transport recv: %w", err)
		}
		if len(chunk) == 0 {
			return 0, nil, fmt.Errorf("tlsclient: timed out waiting for record")
		}
		rl.inbuf = append(rl.inbuf, chunk...)
	}
}

func (rl *recordLayer) tryParse() (ContentType, []byte, bool) {
	if len(rl.inbuf) < 5 {
		return 0, nil, false
	}
	length := int(rl.inbuf[3])<<8 | int(rl.inbuf[4])
	if len(rl.inbuf) < 5+length {
		return 0, nil, false
	}
	ct := ContentType(rl.inbuf[0])
	payload := make([]byte, length)
	copy(payload, rl.inbuf[5:5+length])
	rl.inbuf = rl.inbuf[5+length:]
	return ct, payload, true
}

// writeRecord frames payload as one record of the given content type and
// legacy version 0x0303, and sends it.
func (rl *recordLayer) writeRecord(ct ContentType, payload []byte) error {
	header := []byte{
		byte(ct),
		0x03, 0x03,
		byte(len(payload) >> 8), byte(len(payload)),
	}
	return rl.transport.Send(append(header, payload...))
}
