// Package codec implements the leaf-level byte/bit codec (spec §2): the
// big-endian integer and length-prefix framing primitives the TLS record
// layer and handshake parser build on, plus percent-encoding for URLs and
// form submission. Stdlib-only: encoding/binary and encoding/base64 already
// cover this exactly, and no example repo in the corpus reaches for a
// third-party binary-framing library for anything this small (see
// DESIGN.md).
package codec

import (
	"encoding/binary"
	"fmt"
)

// Reader walks a byte slice left to right, the way the TLS record layer and
// the handshake message reframer both need to: read a length, then read
// exactly that many bytes, erroring out (never panicking) on truncation.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential big-endian reads.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Remaining returns a slice of the unread tail without consuming it.
func (r *Reader) Remaining() []byte { return r.buf[r.pos:] }

func (r *Reader) need(n int) error {
	if r.Len() < n {
		return fmt.Errorf("codec: short read: need %d bytes, have %d", n, r.Len())
	}
	return nil
}

// U8 reads one byte.
func (r *Reader) U8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U16 reads a 16-bit big-endian unsigned integer.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// U24 reads a 24-bit big-endian unsigned integer (the TLS handshake message
// length field's width).
func (r *Reader) U24() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos])<<16 | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])
	r.pos += 3
	return v, nil
}

// U32 reads a 32-bit big-endian unsigned integer.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a 64-bit big-endian unsigned integer (sequence numbers).
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// U16LengthPrefixed reads a two-byte length followed by that many bytes —
// the framing used throughout TLS for extensions, key shares, and the
// session ticket/resumption-secret fields.
func (r *Reader) U16LengthPrefixed() ([]byte, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// U8LengthPrefixed reads a one-byte length followed by that many bytes.
func (r *Reader) U8LengthPrefixed() ([]byte, error) {
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// U24LengthPrefixed reads a three-byte length followed by that many bytes —
// the handshake message body framing.
func (r *Reader) U24LengthPrefixed() ([]byte, error) {
	n, err := r.U24()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// Writer accumulates bytes for a TLS message or record body.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) U8(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// U16LengthPrefixed appends a two-byte length followed by b.
func (w *Writer) U16LengthPrefixed(b []byte) {
	w.U16(uint16(len(b)))
	w.Raw(b)
}

// U8LengthPrefixed appends a one-byte length followed by b.
func (w *Writer) U8LengthPrefixed(b []byte) {
	w.U8(byte(len(b)))
	w.Raw(b)
}

// U24LengthPrefixed appends a three-byte length followed by b.
func (w *Writer) U24LengthPrefixed(b []byte) {
	w.U24(uint32(len(b)))
	w.Raw(b)
}

// SequenceNonce XORs an 8-byte big-endian sequence number into the
// right-aligned tail of a static IV, per RFC 8446 §5.3 — the nonce
// construction shared by both TLS 1.3 AEAD cipher suites (spec §4.1).
func SequenceNonce(staticIV []byte, seq uint64) []byte {
	nonce := make([]byte, len(staticIV))
	copy(nonce, staticIV)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	off := len(nonce) - 8
	for i := 0; i < 8; i++ {
		nonce[off+i] ^= seqBytes[i]
	}
	return nonce
}
