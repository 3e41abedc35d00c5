package h245

import (
	"bytes"
	"testing"

	"github.com/h323go/stack/lib/per"
)

func TestOpenLogicalChannelRoundTrip(t *testing.T) {
	olc := &OpenLogicalChannel{
		LogicalChannelNumber: 42,
		ForwardDescription:   []byte{0x01, 0x02, 0x03},
	}
	enc := NewEncoder(true)
	if err := enc.EncodeOpenLogicalChannel(olc); err != nil {
		t.Fatalf("EncodeOpenLogicalChannel error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeOpenLogicalChannel()
	if err != nil {
		t.Fatalf("DecodeOpenLogicalChannel error = %v", err)
	}
	if got.LogicalChannelNumber != 42 {
		t.Errorf("LogicalChannelNumber = %d, want 42", got.LogicalChannelNumber)
	}
	if !bytes.Equal(got.ForwardDescription, olc.ForwardDescription) {
		t.Errorf("ForwardDescription = %x, want %x", got.ForwardDescription, olc.ForwardDescription)
	}
	if len(got.ReverseDescription) != 0 {
		t.Errorf("ReverseDescription = %x, want empty", got.ReverseDescription)
	}
}

func TestOpenLogicalChannelWithReverseDescription(t *testing.T) {
	olc := &OpenLogicalChannel{
		LogicalChannelNumber: 7,
		ForwardDescription:   []byte{0xAA},
		ReverseDescription:   []byte{0xBB, 0xCC},
	}
	enc := NewEncoder(true)
	if err := enc.EncodeOpenLogicalChannel(olc); err != nil {
		t.Fatalf("EncodeOpenLogicalChannel error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeOpenLogicalChannel()
	if err != nil {
		t.Fatalf("DecodeOpenLogicalChannel error = %v", err)
	}
	if !bytes.Equal(got.ReverseDescription, olc.ReverseDescription) {
		t.Errorf("ReverseDescription = %x, want %x", got.ReverseDescription, olc.ReverseDescription)
	}
}

func TestMultimediaSystemControlMessageRequestRoundTrip(t *testing.T) {
	msg := &MultimediaSystemControlMessage{
		Kind:        MscmRequest,
		RequestKind: ReqOpenLogicalChannel,
		OLC: &OpenLogicalChannel{
			LogicalChannelNumber: 1,
			ForwardDescription:   []byte{0x10, 0x20},
		},
	}
	data, err := EncodeMultimediaSystemControlMessage(msg, per.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeMultimediaSystemControlMessage error = %v", err)
	}
	got, err := DecodeMultimediaSystemControlMessage(data, per.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeMultimediaSystemControlMessage error = %v", err)
	}
	if got.Kind != MscmRequest || got.RequestKind != ReqOpenLogicalChannel {
		t.Fatalf("Kind/RequestKind = %v/%v, want MscmRequest/ReqOpenLogicalChannel", got.Kind, got.RequestKind)
	}
	if got.OLC == nil || got.OLC.LogicalChannelNumber != 1 {
		t.Fatalf("OLC = %+v, want LogicalChannelNumber=1", got.OLC)
	}
}

func TestMultimediaSystemControlMessageOpaqueAlternatives(t *testing.T) {
	for _, kind := range []MultimediaSystemControlMessageKind{MscmResponse, MscmCommand} {
		msg := &MultimediaSystemControlMessage{
			Kind:   kind,
			Opaque: []byte{0x01, 0x02, 0x03, 0x04},
		}
		data, err := EncodeMultimediaSystemControlMessage(msg, per.DefaultOptions())
		if err != nil {
			t.Fatalf("Encode kind=%v error = %v", kind, err)
		}
		got, err := DecodeMultimediaSystemControlMessage(data, per.DefaultOptions())
		if err != nil {
			t.Fatalf("Decode kind=%v error = %v", kind, err)
		}
		if got.Kind != kind {
			t.Errorf("Kind = %v, want %v", got.Kind, kind)
		}
		if !bytes.Equal(got.Opaque, msg.Opaque) {
			t.Errorf("Opaque = %x, want %x", got.Opaque, msg.Opaque)
		}
	}
}

func TestMultimediaSystemControlMessageExtensionIndication(t *testing.T) {
	enc := NewEncoder(true)
	if err := enc.enc.EncodeChoiceIndex(0, mscmRootCount, true, true); err != nil {
		t.Fatalf("EncodeChoiceIndex error = %v", err)
	}
	payload := []byte{0xDE, 0xAD}
	if err := enc.enc.EncodeOpenType(payload); err != nil {
		t.Fatalf("EncodeOpenType error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeMultimediaSystemControlMessage()
	if err != nil {
		t.Fatalf("DecodeMultimediaSystemControlMessage error = %v", err)
	}
	if got.Kind != MscmIndication {
		t.Fatalf("Kind = %v, want MscmIndication", got.Kind)
	}
	if !bytes.Equal(got.Reserved, payload) {
		t.Errorf("Reserved = %x, want %x", got.Reserved, payload)
	}
}
