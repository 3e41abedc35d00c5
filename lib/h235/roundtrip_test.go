package h235

import (
	"bytes"
	"testing"

	"github.com/h323go/stack/lib/per"
)

func TestClearTokenRoundTrip(t *testing.T) {
	ts := int64(1700000000)
	tok := &ClearToken{
		GeneralID: "endpoint@example.test",
		Timestamp: &ts,
		Password:  []byte{0x01, 0x02, 0x03, 0x04},
	}
	enc := NewEncoder(true)
	if err := enc.EncodeClearToken(tok); err != nil {
		t.Fatalf("EncodeClearToken error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeClearToken()
	if err != nil {
		t.Fatalf("DecodeClearToken error = %v", err)
	}
	if got.GeneralID != tok.GeneralID {
		t.Errorf("GeneralID = %q, want %q", got.GeneralID, tok.GeneralID)
	}
	if got.Timestamp == nil || *got.Timestamp != ts {
		t.Errorf("Timestamp = %v, want %d", got.Timestamp, ts)
	}
	if !bytes.Equal(got.Password, tok.Password) {
		t.Errorf("Password = %x, want %x", got.Password, tok.Password)
	}
	if len(got.DHKey) != 0 {
		t.Errorf("DHKey = %x, want empty", got.DHKey)
	}
}

func TestClearTokenMinimal(t *testing.T) {
	tok := &ClearToken{GeneralID: "minimal"}
	enc := NewEncoder(true)
	if err := enc.EncodeClearToken(tok); err != nil {
		t.Fatalf("EncodeClearToken error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeClearToken()
	if err != nil {
		t.Fatalf("DecodeClearToken error = %v", err)
	}
	if got.Timestamp != nil {
		t.Errorf("Timestamp = %v, want nil", got.Timestamp)
	}
}

func TestCryptoTokenClearRoundTrip(t *testing.T) {
	ct := &CryptoToken{
		Kind:  CryptoTokenClear,
		Clear: &ClearToken{GeneralID: "gk.example.test"},
	}
	data, err := EncodeCryptoTokenMessage(ct, per.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeCryptoTokenMessage error = %v", err)
	}
	got, err := DecodeCryptoTokenMessage(data, per.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeCryptoTokenMessage error = %v", err)
	}
	if got.Kind != CryptoTokenClear {
		t.Fatalf("Kind = %v, want CryptoTokenClear", got.Kind)
	}
	if got.Clear == nil || got.Clear.GeneralID != "gk.example.test" {
		t.Errorf("Clear = %+v, want GeneralID=gk.example.test", got.Clear)
	}
}

func TestCryptoTokenSignedOpaque(t *testing.T) {
	ct := &CryptoToken{Kind: CryptoTokenSigned, Opaque: []byte{0x01, 0x02}}
	data, err := EncodeCryptoTokenMessage(ct, per.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeCryptoTokenMessage error = %v", err)
	}
	got, err := DecodeCryptoTokenMessage(data, per.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeCryptoTokenMessage error = %v", err)
	}
	if got.Kind != CryptoTokenSigned {
		t.Fatalf("Kind = %v, want CryptoTokenSigned", got.Kind)
	}
	if !bytes.Equal(got.Opaque, ct.Opaque) {
		t.Errorf("Opaque = %x, want %x", got.Opaque, ct.Opaque)
	}
}

func TestCryptoTokenExtensionEncrypted(t *testing.T) {
	enc := NewEncoder(true)
	if err := enc.enc.EncodeChoiceIndex(0, cryptoTokenRootCount, true, true); err != nil {
		t.Fatalf("EncodeChoiceIndex error = %v", err)
	}
	payload := []byte{0x99}
	if err := enc.enc.EncodeOpenType(payload); err != nil {
		t.Fatalf("EncodeOpenType error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeCryptoToken()
	if err != nil {
		t.Fatalf("DecodeCryptoToken error = %v", err)
	}
	if got.Kind != CryptoTokenEncrypted {
		t.Fatalf("Kind = %v, want CryptoTokenEncrypted", got.Kind)
	}
	if !bytes.Equal(got.Opaque, payload) {
		t.Errorf("Opaque = %x, want %x", got.Opaque, payload)
	}
}
