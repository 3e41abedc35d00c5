package h225

import (
	"bytes"
	"testing"

	"github.com/h323go/stack/lib/per"
)

// Property: a decoder built against this schema version must accept a
// message carrying an extension alternative or extension addition it does
// not otherwise inspect, preserving the unrecognized bytes rather than
// failing the whole PDU (forward compatibility, H.225.0 clause 10).

func TestChoiceExtensionAlternativeRoundtrips(t *testing.T) {
	msg := &RasMessage{
		Kind:               AdmissionConfirmSequence,
		FromExtension:      true,
		RequestSeqNum:      7,
		ProtocolIdentifier: ProtocolIdentifier{0, 0, 8, 2250, 0, 4},
	}
	data, err := EncodeRASMessage(msg, per.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeRASMessage error = %v", err)
	}
	got, err := DecodeRASMessage(data, per.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeRASMessage error = %v", err)
	}
	if got.Kind != AdmissionConfirmSequence || !got.FromExtension {
		t.Errorf("Kind/FromExtension = %v/%v, want AdmissionConfirmSequence/true", got.Kind, got.FromExtension)
	}
	if got.RequestSeqNum != 7 {
		t.Errorf("RequestSeqNum = %d, want 7", got.RequestSeqNum)
	}
}

func TestUnknownChoiceAlternativePreservesBytes(t *testing.T) {
	// An index beyond every alternative this schema version knows (root +
	// 3 known extensions) must still decode, landing on UnknownRasMessage
	// with its body preserved verbatim.
	enc := NewEncoder(true)
	if err := enc.enc.EncodeChoiceIndex(5, rasMessageRootCount, true, true); err != nil {
		t.Fatalf("EncodeChoiceIndex error = %v", err)
	}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := enc.enc.EncodeOpenType(payload); err != nil {
		t.Fatalf("EncodeOpenType error = %v", err)
	}

	got, err := DecodeRASMessage(enc.Bytes(), per.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeRASMessage error = %v", err)
	}
	if got.Kind != UnknownRasMessage {
		t.Fatalf("Kind = %v, want UnknownRasMessage", got.Kind)
	}
	if !bytes.Equal(got.Reserved, payload) {
		t.Errorf("Reserved = %x, want %x", got.Reserved, payload)
	}
}

func TestExtensionAdditionUnknownBitPreserved(t *testing.T) {
	// A Setup_UUIE whose extension-addition presence bitmap carries a bit
	// beyond every addition this schema version knows (fastStart and
	// connectionParameters) must still decode: the decoder has to walk
	// every set bit, consuming each one's open-type container, not just
	// the ones it recognizes. A decoder that stops early leaves the last
	// container's bytes unconsumed and desyncs everything that follows.
	setup := &Setup_UUIE{
		ProtocolIdentifier: ProtocolIdentifier{0, 0, 8, 2250, 0, 6},
		SourceInfo:         &EndpointType{},
		CallIdentifier:     &CallIdentifier{},
	}
	present := []bool{
		len(setup.SourceAddress) > 0,
		len(setup.DestinationAddress) > 0,
		setup.DestCallSignalAddress != nil,
	}
	enc := NewEncoder(true)
	if err := enc.enc.EncodeSequencePreamble(true, true, present); err != nil {
		t.Fatalf("EncodeSequencePreamble error = %v", err)
	}
	if err := enc.EncodeProtocolIdentifier(setup.ProtocolIdentifier); err != nil {
		t.Fatalf("EncodeProtocolIdentifier error = %v", err)
	}
	if err := enc.EncodeEndpointType(setup.SourceInfo); err != nil {
		t.Fatalf("EncodeEndpointType error = %v", err)
	}
	if err := enc.enc.EncodeBoolean(setup.ActiveMC); err != nil {
		t.Fatalf("EncodeBoolean error = %v", err)
	}
	if err := enc.EncodeCallIdentifier(setup.CallIdentifier); err != nil {
		t.Fatalf("EncodeCallIdentifier error = %v", err)
	}
	// Two extension-addition bits set: index 0 (fastStart, known) and
	// index 2 (an addition this schema version has never heard of);
	// index 1 (connectionParameters, known) is absent.
	if err := enc.enc.EncodeExtensionBitmap([]bool{true, false, true}); err != nil {
		t.Fatalf("EncodeExtensionBitmap error = %v", err)
	}
	fastStartBody, err := enc.encodeFastStartAsOpenType([][]byte{{0x01, 0x02}})
	if err != nil {
		t.Fatalf("encodeFastStartAsOpenType error = %v", err)
	}
	if err := enc.enc.EncodeOpenType(fastStartBody); err != nil {
		t.Fatalf("EncodeOpenType(fastStart) error = %v", err)
	}
	if err := enc.enc.EncodeOpenType([]byte{0xAA, 0xBB, 0xCC}); err != nil {
		t.Fatalf("EncodeOpenType(unknown addition) error = %v", err)
	}

	// A sentinel trails the PDU (EncodeOpenType always leaves the cursor
	// byte-aligned) so a decoder that stopped short on the unknown
	// addition's container would read garbage here instead.
	const sentinel = 0x2A
	data := append(enc.Bytes(), sentinel)

	dec := NewDecoder(data, true)
	got, err := dec.DecodeSetupUUIE()
	if err != nil {
		t.Fatalf("DecodeSetupUUIE error = %v", err)
	}
	if len(got.FastStart) != 1 || !bytes.Equal(got.FastStart[0], []byte{0x01, 0x02}) {
		t.Errorf("FastStart = %v, want [[1 2]]", got.FastStart)
	}
	if dec.dec.BitsConsumed() != uint64(len(data)-1)*8 {
		t.Errorf("BitsConsumed = %d, want %d (cursor desynced by the unknown extension addition)",
			dec.dec.BitsConsumed(), uint64(len(data)-1)*8)
	}

	// Under the default options the unknown addition's bytes are retained,
	// and re-encoding emits them again after the known additions, making
	// the round-trip byte-identical.
	if len(got.UnknownExtensions) != 1 || !bytes.Equal(got.UnknownExtensions[0], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("UnknownExtensions = %v, want [[aa bb cc]]", got.UnknownExtensions)
	}
	reenc := NewEncoder(true)
	if err := reenc.EncodeSetupUUIE(got); err != nil {
		t.Fatalf("EncodeSetupUUIE error = %v", err)
	}
	if !bytes.Equal(reenc.Bytes(), data[:len(data)-1]) {
		t.Errorf("re-encoded = % x, want % x", reenc.Bytes(), data[:len(data)-1])
	}

	// With preservation disabled the container is still consumed (the
	// cursor must advance past it) but its bytes are dropped.
	opts := per.DefaultOptions()
	opts.PreserveUnknownExtensions = false
	discarding := NewDecoderWithOptions(data, true, opts)
	got2, err := discarding.DecodeSetupUUIE()
	if err != nil {
		t.Fatalf("DecodeSetupUUIE (discarding) error = %v", err)
	}
	if len(got2.UnknownExtensions) != 0 {
		t.Errorf("UnknownExtensions = %v, want empty with PreserveUnknownExtensions=false", got2.UnknownExtensions)
	}
	if discarding.dec.BitsConsumed() != uint64(len(data)-1)*8 {
		t.Errorf("BitsConsumed (discarding) = %d, want %d", discarding.dec.BitsConsumed(), uint64(len(data)-1)*8)
	}
}
