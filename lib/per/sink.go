package per

import "encoding/asn1"

// EventSink observes decoding progress for trace output. It has no effect on
// bytes produced or consumed: every callback is a pure notification, issued
// in strict depth-first order matching the bytes consumed from the stream.
// Implementations must not retain the slices passed to Octets/BitString beyond
// the call, as the backing array may be reused by the caller.
type EventSink interface {
	StartElement(name string, index int)
	EndElement(name string, index int)
	Uint(name string, value uint64)
	Bool(name string, value bool)
	Int(name string, value int64)
	OID(name string, value asn1.ObjectIdentifier)
	Octets(name string, value []byte)
	CharString(name string, value string)
	BMPString(name string, value string)
	BitString(name string, value []byte, bitLength int)
	Null(name string)
	OpenType(name string, value []byte)
}

// NoopSink implements EventSink with empty bodies. It is the default sink
// for every Encoder/Decoder; holding one costs nothing beyond the interface
// value itself. Attaching a nil sink installs NoopSink.
type NoopSink struct{}

func (NoopSink) StartElement(string, int)          {}
func (NoopSink) EndElement(string, int)            {}
func (NoopSink) Uint(string, uint64)               {}
func (NoopSink) Bool(string, bool)                 {}
func (NoopSink) Int(string, int64)                 {}
func (NoopSink) OID(string, asn1.ObjectIdentifier) {}
func (NoopSink) Octets(string, []byte)             {}
func (NoopSink) CharString(string, string)         {}
func (NoopSink) BMPString(string, string)          {}
func (NoopSink) BitString(string, []byte, int)     {}
func (NoopSink) Null(string)                       {}
func (NoopSink) OpenType(string, []byte)           {}

var defaultSink EventSink = NoopSink{}
