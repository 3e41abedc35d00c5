package h225

import (
	"encoding/asn1"
	"testing"

	"github.com/h323go/stack/lib/per"
)

// elementSink records StartElement/EndElement nesting, ignoring value
// callbacks; used to assert the decoder's trace is a balanced depth-first
// traversal of the message.
type elementSink struct {
	events   []string
	depth    int
	maxDepth int
}

func (s *elementSink) StartElement(name string, _ int) {
	s.events = append(s.events, "+"+name)
	s.depth++
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}
}

func (s *elementSink) EndElement(name string, _ int) {
	s.events = append(s.events, "-"+name)
	s.depth--
}

func (s *elementSink) Uint(string, uint64)               {}
func (s *elementSink) Bool(string, bool)                 {}
func (s *elementSink) Int(string, int64)                 {}
func (s *elementSink) OID(string, asn1.ObjectIdentifier) {}
func (s *elementSink) Octets(string, []byte)             {}
func (s *elementSink) CharString(string, string)         {}
func (s *elementSink) BMPString(string, string)          {}
func (s *elementSink) BitString(string, []byte, int)     {}
func (s *elementSink) Null(string)                       {}
func (s *elementSink) OpenType(string, []byte)           {}

func TestEventSinkElementNesting(t *testing.T) {
	msg := &RasMessage{
		Kind:               GatekeeperRequest,
		RequestSeqNum:      9,
		ProtocolIdentifier: ProtocolIdentifier{0, 0, 8, 2250, 0, 4},
		RasAddress: &TransportAddress{
			Kind: TransportAddressIP,
			IP:   &IPAddress{IP: [4]byte{10, 0, 0, 1}, Port: 1719},
		},
	}
	data, err := EncodeRASMessage(msg, per.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeRASMessage error = %v", err)
	}

	sink := &elementSink{}
	dec := NewDecoder(data, true)
	dec.AttachEventSink(sink)
	if _, err := dec.DecodeRasMessage(); err != nil {
		t.Fatalf("DecodeRasMessage error = %v", err)
	}

	if sink.depth != 0 {
		t.Errorf("unbalanced Start/EndElement: final depth %d", sink.depth)
	}
	if sink.maxDepth < 2 {
		t.Errorf("maxDepth = %d, want >= 2 (TransportAddress nested inside RasMessage)", sink.maxDepth)
	}
	if len(sink.events) == 0 || sink.events[0] != "+RasMessage" || sink.events[len(sink.events)-1] != "-RasMessage" {
		t.Errorf("events = %v, want RasMessage bracketing the trace", sink.events)
	}
}
