package transport

import (
	"bytes"
	"testing"
)

func TestTPKTRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	var buf bytes.Buffer
	if err := WriteTPKT(&buf, payload); err != nil {
		t.Fatalf("WriteTPKT error = %v", err)
	}
	if buf.Len() != tpktHeaderLen+len(payload) {
		t.Fatalf("framed length = %d, want %d", buf.Len(), tpktHeaderLen+len(payload))
	}
	got, err := ReadTPKT(&buf)
	if err != nil {
		t.Fatalf("ReadTPKT error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}

func TestTPKTRejectsWrongVersion(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x02, 0x00, 0x00, 0x04})
	if _, err := ReadTPKT(buf); err == nil {
		t.Fatal("expected error for wrong TPKT version, got nil")
	}
}

func TestTPKTRejectsTruncatedHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x03, 0x00})
	if _, err := ReadTPKT(buf); err == nil {
		t.Fatal("expected error for truncated header, got nil")
	}
}

func TestTPKTMultiplePackets(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{{0xAA}, {0xBB, 0xCC}, {0xDD, 0xEE, 0xFF}}
	for _, p := range payloads {
		if err := WriteTPKT(&buf, p); err != nil {
			t.Fatalf("WriteTPKT error = %v", err)
		}
	}
	for _, want := range payloads {
		got, err := ReadTPKT(&buf)
		if err != nil {
			t.Fatalf("ReadTPKT error = %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("payload = %x, want %x", got, want)
		}
	}
}
