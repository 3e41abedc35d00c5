// Package h245 implements the Go shapes and PER encoders/decoders for the
// subset of ITU-T H.245 (media/channel control) this stack exercises:
// MultimediaSystemControlMessage, the top-level CHOICE every H.245 PDU
// arrives as, and OpenLogicalChannel's outer SEQUENCE shape. Deep
// capability-exchange semantics are out of scope (this is the wire codec,
// not the call-signaling/channel-control logic); this package gives the
// PER machinery a second ASN.1 module family to run over, the way lib/h225
// gives it the first.
package h245

import "github.com/h323go/stack/lib/per"

// Encoder wraps a per.Encoder with the H.245 schema's generated Encode*
// methods.
type Encoder struct {
	enc *per.Encoder
}

// NewEncoder creates an H.245 encoder. aligned selects APER vs UPER,
// matching the per package's convention.
func NewEncoder(aligned bool) *Encoder {
	return &Encoder{enc: per.NewEncoder(aligned)}
}

// NewEncoderWithOptions creates an H.245 encoder honoring opts.
func NewEncoderWithOptions(aligned bool, opts per.Options) *Encoder {
	return &Encoder{enc: per.NewEncoderWithOptions(aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Encoder.
func (e *Encoder) AttachEventSink(sink per.EventSink) { e.enc.AttachEventSink(sink) }

// Bytes returns the encoded PDU.
func (e *Encoder) Bytes() []byte { return e.enc.Bytes() }

// Decoder wraps a per.Decoder with the H.245 schema's generated Decode*
// methods.
type Decoder struct {
	dec *per.Decoder
}

// NewDecoder creates an H.245 decoder over data.
func NewDecoder(data []byte, aligned bool) *Decoder {
	return &Decoder{dec: per.NewDecoder(data, aligned)}
}

// NewDecoderWithOptions creates an H.245 decoder honoring opts.
func NewDecoderWithOptions(data []byte, aligned bool, opts per.Options) *Decoder {
	return &Decoder{dec: per.NewDecoderWithOptions(data, aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Decoder.
func (d *Decoder) AttachEventSink(sink per.EventSink) { d.dec.AttachEventSink(sink) }

// DecodeMultimediaSystemControlMessage decodes a complete H.245 PDU from data.
func DecodeMultimediaSystemControlMessage(data []byte, opts per.Options) (*MultimediaSystemControlMessage, error) {
	d := NewDecoderWithOptions(data, true, opts)
	return d.DecodeMultimediaSystemControlMessage()
}

// EncodeMultimediaSystemControlMessage encodes msg into an aligned-PER H.245 PDU.
func EncodeMultimediaSystemControlMessage(msg *MultimediaSystemControlMessage, opts per.Options) ([]byte, error) {
	e := NewEncoderWithOptions(true, opts)
	if err := e.EncodeMultimediaSystemControlMessage(msg); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
