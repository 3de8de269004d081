package tlsclient

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/loomweb/loom/internal/logger"
)

// state is the handshake state machine (spec §4.1): Start →
// WaitServerHello → WaitEncryptedExtensions → WaitCertificate|WaitFinished
// → WaitFinished → Connected → Closed.
type state int

const (
	stateStart state = iota
	stateWaitServerHello
	stateWaitEncryptedExtensions
	stateWaitCertificateOrFinished
	stateWaitFinished
	stateConnected
	stateClosed
)

// ProtocolError reports a fatal handshake or record-layer violation (spec
// §4.1, "Failure semantics"): any parse failure, AEAD authentication
// failure, unexpected message, or wrong content type in a handshake slot.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "tlsclient: protocol violation: " + e.Reason }

// handshakeReframer buffers decrypted handshake-record plaintext and
// reframes it into individual (type, length24, body) messages, since "a
// single record may contain multiple handshake messages concatenated"
// (spec §4.1 step 4).
type handshakeReframer struct {
	buf []byte
}

func (hr *handshakeReframer) feed(b []byte) { hr.buf = append(hr.buf, b...) }

func (hr *handshakeReframer) next() (HandshakeType, []byte, []byte, bool) {
	if len(hr.buf) < 4 {
		return 0, nil, nil, false
	}
	length := int(hr.buf[1])<<16 | int(hr.buf[2])<<8 | int(hr.buf[3])
	if len(hr.buf) < 4+length {
		return 0, nil, nil, false
	}
	full := hr.buf[:4+length]
	body := hr.buf[4 : 4+length]
	typ := HandshakeType(hr.buf[0])
	hr.buf = hr.buf[4+length:]
	return typ, body, full, true
}

// handshake drives c's state machine from Start to Connected, per spec
// §4.1's six numbered transitions.
func (c *Client) handshake(host string, readTimeout time.Duration) error {
	c.state = stateStart

	clientPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("tlsclient: generate x25519 key: %w", err)
	}
	var clientRandom [32]byte
	if _, err := rand.Read(clientRandom[:]); err != nil {
		return fmt.Errorf("tlsclient: generate client random: %w", err)
	}

	chBody := buildClientHello(host, clientRandom, clientPriv.PublicKey())
	chMsg := handshakeHeader(HandshakeClientHello, chBody)
	c.transcript.add(chMsg)
	if err := c.records.writeRecord(ContentHandshake, chMsg); err != nil {
		return fmt.Errorf("tlsclient: send ClientHello: %w", err)
	}
	c.state = stateWaitServerHello

	// Step 1: ServerHello arrives as a single, unencrypted handshake record.
	ct, payload, err := c.records.readRecord(readTimeout)
	if err != nil {
		return err
	}
	if ct != ContentHandshake {
		return &ProtocolError{Reason: "expected handshake record for ServerHello"}
	}
	typ, body, full, ok := (&handshakeReframer{buf: payload}).next()
	if !ok || typ != HandshakeServerHello {
		return &ProtocolError{Reason: "expected exactly one ServerHello message"}
	}
	sh, err := parseServerHello(body)
	if err != nil {
		return &ProtocolError{Reason: err.Error()}
	}
	c.transcript.add(full)
	c.cipherSuite = sh.cipherSuite

	// Step 2: derive handshake secrets and traffic keys.
	serverPub, err := ecdh.X25519().NewPublicKey(sh.serverPublic)
	if err != nil {
		return &ProtocolError{Reason: "bad server key_share: " + err.Error()}
	}
	shared, err := clientPriv.ECDH(serverPub)
	if err != nil {
		return &ProtocolError{Reason: "ecdh: " + err.Error()}
	}
	_, handshakeSecret := deriveHandshakeSecret(shared)
	c.handshakeSecret = handshakeSecret

	transcriptThroughSH := c.transcript.hash()
	clientHSTrafficSecret := hkdfExpandLabel(handshakeSecret, "c hs traffic", transcriptThroughSH, 32)
	serverHSTrafficSecret := hkdfExpandLabel(handshakeSecret, "s hs traffic", transcriptThroughSH, 32)
	c.clientHSSecret = clientHSTrafficSecret

	clientWrite, err := newRecordCrypto(c.cipherSuite, deriveTrafficKeys(clientHSTrafficSecret))
	if err != nil {
		return err
	}
	serverRead, err := newRecordCrypto(c.cipherSuite, deriveTrafficKeys(serverHSTrafficSecret))
	if err != nil {
		return err
	}
	c.writeCrypto = clientWrite
	c.readCrypto = serverRead
	c.state = stateWaitEncryptedExtensions

	// Steps 3-4: consume handshake messages until ServerFinished.
	reframer := &handshakeReframer{}
	gotEncryptedExtensions := false
	gotFinished := false
	for !gotFinished {
		ct, payload, err := c.records.readRecord(readTimeout)
		if err != nil {
			return err
		}
		if ct == ContentChangeCipherSpec {
			continue // compatibility record, spec §4.1 allows skipping it implicitly
		}
		if ct != ContentApplicationData {
			return &ProtocolError{Reason: "expected encrypted handshake record"}
		}
		innerType, plain, err := c.readCrypto.openRecord(payload)
		if err != nil {
			return &ProtocolError{Reason: err.Error()}
		}
		if innerType != ContentHandshake {
			return &ProtocolError{Reason: "expected handshake inner content type"}
		}
		reframer.feed(plain)

		for {
			typ, body, full, ok := reframer.next()
			if !ok {
				break
			}
			switch typ {
			case HandshakeEncryptedExtensions:
				if gotEncryptedExtensions {
					return &ProtocolError{Reason: "duplicate EncryptedExtensions"}
				}
				gotEncryptedExtensions = true
				c.transcript.add(full)
				c.state = stateWaitCertificateOrFinished
			case HandshakeCertificate, HandshakeCertificateVerify:
				if !gotEncryptedExtensions {
					return &ProtocolError{Reason: "Certificate before EncryptedExtensions"}
				}
				// Not validated: certificate path-building is an explicit
				// external collaborator (spec §1 non-goals).
				c.transcript.add(full)
				c.state = stateWaitFinished
			case HandshakeFinished:
				if !gotEncryptedExtensions {
					return &ProtocolError{Reason: "Finished before EncryptedExtensions"}
				}
				verifyData := finishedVerifyData(serverHSTrafficSecret, c.transcript.hash())
				if !hmacEqual(verifyData, body) {
					return &ProtocolError{Reason: "ServerFinished verify_data mismatch"}
				}
				c.transcript.add(full)
				gotFinished = true
			default:
				return &ProtocolError{Reason: fmt.Sprintf("unexpected handshake message type %d", typ)}
			}
			if gotFinished {
				break
			}
		}
	}

	// Step 5: derive application traffic secrets, installed before sending
	// ClientFinished.
	masterSecret := deriveMasterSecret(handshakeSecret)
	transcriptThroughSF := c.transcript.hash()
	clientAppSecret := hkdfExpandLabel(masterSecret, "c ap traffic", transcriptThroughSF, 32)
	serverAppSecret := hkdfExpandLabel(masterSecret, "s ap traffic", transcriptThroughSF, 32)

	// Step 6: ClientFinished, sealed with the still-live handshake key.
	verifyData := finishedVerifyData(clientHSTrafficSecret, transcriptThroughSF)
	cfMsg := handshakeHeader(HandshakeFinished, verifyData)
	c.transcript.add(cfMsg)
	sealed := c.writeCrypto.sealRecord(append(append([]byte{}, cfMsg...), byte(ContentHandshake)))
	if err := c.records.writeRecord(ContentApplicationData, sealed); err != nil {
		return fmt.Errorf("tlsclient: send ClientFinished: %w", err)
	}

	appClientWrite, err := newRecordCrypto(c.cipherSuite, deriveTrafficKeys(clientAppSecret))
	if err != nil {
		return err
	}
	appServerRead, err := newRecordCrypto(c.cipherSuite, deriveTrafficKeys(serverAppSecret))
	if err != nil {
		return err
	}
	c.writeCrypto = appClientWrite
	c.readCrypto = appServerRead
	c.state = stateConnected

	c.harvestSessionTicket(host, readTimeout)
	return nil
}

// harvestSessionTicket implements Open Question (i): one bounded,
// non-blocking read attempt immediately after Connected, not a blocking
// wait (see DESIGN.md).
func (c *Client) harvestSessionTicket(host string, _ time.Duration) {
	const ticketProbeTimeout = 50 * time.Millisecond
	ct, payload, err := c.records.readRecord(ticketProbeTimeout)
	if err != nil {
		return
	}
	if ct != ContentApplicationData {
		return
	}
	innerType, plain, err := c.readCrypto.openRecord(payload)
	if err != nil || innerType != ContentHandshake {
		return
	}
	typ, body, _, ok := (&handshakeReframer{buf: plain}).next()
	if !ok || typ != HandshakeNewSessionTicket {
		return
	}
	nst, err := parseNewSessionTicket(body)
	if err != nil {
		logger.Debug("tlsclient: malformed NewSessionTicket, discarding", "host", host, "err", err)
		return
	}
	c.ticketCache.Store(host, TicketEntry{
		Ticket:            nst.ticket,
		ResumptionSecret:  hkdfExpandLabel(c.readCrypto.secret, "resumption", nst.nonce, 32),
		Lifetime:          time.Duration(nst.lifetime) * time.Second,
		AgeAdd:            nst.ageAdd,
		StoredAt:          time.Now(),
		CipherSuite:       c.cipherSuite,
	})
}

func hmacEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
