package tlsclient

import (
	"fmt"
	"time"
)

// AlertError surfaces a TLS alert record (spec §4.1 read()): "surface
// alerts as TlsError::Alert(level, description)".
type AlertError struct {
	Level       byte
	Description byte
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("tlsclient: alert level=%d description=%d", e.Level, e.Description)
}

const (
	alertLevelWarning = 1
	alertLevelFatal   = 2
	alertCloseNotify  = 0
)

// maxPlaintextRecordSize bounds a single write()'s application_data record
// payload (RFC 8446 §5.1: 2^14 bytes).
const maxPlaintextRecordSize = 16384

// Client is a single TLS 1.3 connection (spec §4.1): the handshake state
// machine plus live read/write AEAD state above one Transport.
type Client struct {
	transport Transport
	records   *recordLayer

	state           state
	cipherSuite     CipherSuite
	transcript      transcript
	handshakeSecret []byte
	clientHSSecret  []byte

	writeCrypto *recordCrypto
	readCrypto  *recordCrypto

	ticketCache *TicketCache
	host        string
}

// NewClient wraps transport; ticketCache may be nil if resumption tracking
// is not needed by the caller.
func NewClient(transport Transport, ticketCache *TicketCache) *Client {
	if ticketCache == nil {
		ticketCache = NewTicketCache()
	}
	return &Client{
		transport:   transport,
		records:     newRecordLayer(transport),
		ticketCache: ticketCache,
	}
}

// Handshake drives the connection from Start to Connected (spec §4.1).
func (c *Client) Handshake(host string, readTimeout time.Duration) error {
	c.host = host
	if err := c.handshake(host, readTimeout); err != nil {
		c.state = stateClosed
		return err
	}
	return nil
}

// Read returns the plaintext payload of the next application_data record,
// transparently skipping change_cipher_spec records and surfacing alerts.
func (c *Client) Read(timeout time.Duration) ([]byte, error) {
	if c.state != stateConnected {
		return nil, &ProtocolError{Reason: "Read called outside Connected state"}
	}
	for {
		ct, payload, err := c.records.readRecord(timeout)
		if err != nil {
			return nil, err
		}
		switch ct {
		case ContentChangeCipherSpec:
			continue
		case ContentApplicationData:
			innerType, plain, err := c.readCrypto.openRecord(payload)
			if err != nil {
				return nil, &ProtocolError{Reason: err.Error()}
			}
			switch innerType {
			case ContentApplicationData:
				return plain, nil
			case ContentAlert:
				if len(plain) < 2 {
					return nil, &ProtocolError{Reason: "truncated alert"}
				}
				if plain[0] == alertLevelFatal || plain[1] != alertCloseNotify {
					return nil, &AlertError{Level: plain[0], Description: plain[1]}
				}
				c.state = stateClosed
				return nil, &AlertError{Level: plain[0], Description: plain[1]}
			case ContentHandshake:
				// A post-handshake NewSessionTicket arriving interleaved
				// with application data; consume it via the same path the
				// initial harvest uses and keep reading.
				typ, body, _, ok := (&handshakeReframer{buf: plain}).next()
				if ok && typ == HandshakeNewSessionTicket {
					if nst, err := parseNewSessionTicket(body); err == nil {
						c.ticketCache.Store(c.host, TicketEntry{
							Ticket:           nst.ticket,
							ResumptionSecret: hkdfExpandLabel(c.readCrypto.secret, "resumption", nst.nonce, 32),
							Lifetime:         time.Duration(nst.lifetime) * time.Second,
							AgeAdd:           nst.ageAdd,
							StoredAt:         time.Now(),
							CipherSuite:      c.cipherSuite,
						})
					}
				}
				continue
			default:
				return nil, &ProtocolError{Reason: "unexpected inner content type in application record"}
			}
		default:
			return nil, &ProtocolError{Reason: "unexpected record content type"}
		}
	}
}

// Write seals bytes into one or more application_data records, each AEAD
// sealed with the current client application key and sequence number,
// chunked to maxPlaintextRecordSize.
func (c *Client) Write(bytes []byte) error {
	if c.state != stateConnected {
		return &ProtocolError{Reason: "Write called outside Connected state"}
	}
	for len(bytes) > 0 {
		n := len(bytes)
		if n > maxPlaintextRecordSize {
			n = maxPlaintextRecordSize
		}
		chunk := bytes[:n]
		bytes = bytes[n:]

		inner := append(append([]byte{}, chunk...), byte(ContentApplicationData))
		sealed := c.writeCrypto.sealRecord(inner)
		if err := c.records.writeRecord(ContentApplicationData, sealed); err != nil {
			return fmt.Errorf("tlsclient: write: %w", err)
		}
	}
	return nil
}

// Close forgets keys and closes the transport (spec §4.1 close()).
func (c *Client) Close() error {
	c.writeCrypto = nil
	c.readCrypto = nil
	c.state = stateClosed
	return c.transport.Close()
}
