package codec

import (
	"bytes"
	"testing"
)

func TestReaderWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(0x12)
	w.U16(0x3456)
	w.U24(0x789abc)
	w.U32(0xdeadbeef)
	w.U64(0x0102030405060708)
	w.U16LengthPrefixed([]byte("hi"))

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0x12 {
		t.Fatalf("U8 = %x, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x3456 {
		t.Fatalf("U16 = %x, %v", v, err)
	}
	if v, err := r.U24(); err != nil || v != 0x789abc {
		t.Fatalf("U24 = %x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xdeadbeef {
		t.Fatalf("U32 = %x, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("U64 = %x, %v", v, err)
	}
	body, err := r.U16LengthPrefixed()
	if err != nil || string(body) != "hi" {
		t.Fatalf("U16LengthPrefixed = %q, %v", body, err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected fully consumed reader, %d bytes left", r.Len())
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.U16(); err == nil {
		t.Fatal("expected short-read error")
	}
}

func TestSequenceNonce(t *testing.T) {
	iv := make([]byte, 12)
	nonce := SequenceNonce(iv, 1)
	want := append(make([]byte, 11), 0x01)
	if !bytes.Equal(nonce, want) {
		t.Fatalf("nonce = %x, want %x", nonce, want)
	}

	nonce256 := SequenceNonce(iv, 256)
	want256 := append(append(make([]byte, 10), 0x01), 0x00)
	if !bytes.Equal(nonce256, want256) {
		t.Fatalf("nonce(256) = %x, want %x", nonce256, want256)
	}
}

func TestFormEncodeDecode(t *testing.T) {
	cases := map[string]string{
		"a b":     "a+b",
		"hello!":  "hello%21",
		"a_b-c.d": "a_b-c.d",
		"":        "",
	}
	for in, want := range cases {
		got := FormEncode(in)
		if got != want {
			t.Errorf("FormEncode(%q) = %q, want %q", in, got, want)
		}
		back := FormDecode(got)
		if back != in {
			t.Errorf("FormDecode(FormEncode(%q)) = %q", in, back)
		}
	}
}

func TestPercentEncodeDecode(t *testing.T) {
	in := "a b/c?d=e"
	enc := PercentEncode(in)
	if enc != "a%20b/c?d=e" {
		t.Fatalf("PercentEncode = %q", enc)
	}
	if PercentDecode(enc) != in {
		t.Fatalf("PercentDecode(PercentEncode) != original")
	}
}
