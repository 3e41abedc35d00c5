package h225

import "github.com/h323go/stack/lib/per"

// Encoder wraps a per.Encoder with the H.225.0 schema's generated
// Encode* methods. Every method here corresponds to one ASN.1 production;
// none carry schema-specific state of their own beyond the underlying
// per.Encoder.
type Encoder struct {
	enc *per.Encoder
}

// NewEncoder creates an H.225.0 encoder. aligned selects APER vs UPER,
// matching the per package's convention.
func NewEncoder(aligned bool) *Encoder {
	return &Encoder{enc: per.NewEncoder(aligned)}
}

// NewEncoderWithOptions creates an H.225.0 encoder honoring opts.
func NewEncoderWithOptions(aligned bool, opts per.Options) *Encoder {
	return &Encoder{enc: per.NewEncoderWithOptions(aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Encoder.
func (e *Encoder) AttachEventSink(sink per.EventSink) { e.enc.AttachEventSink(sink) }

// Bytes returns the encoded PDU.
func (e *Encoder) Bytes() []byte { return e.enc.Bytes() }

// Decoder wraps a per.Decoder with the H.225.0 schema's generated Decode*
// methods.
type Decoder struct {
	dec *per.Decoder
}

// NewDecoder creates an H.225.0 decoder over data.
func NewDecoder(data []byte, aligned bool) *Decoder {
	return &Decoder{dec: per.NewDecoder(data, aligned)}
}

// NewDecoderWithOptions creates an H.225.0 decoder honoring opts.
func NewDecoderWithOptions(data []byte, aligned bool, opts per.Options) *Decoder {
	return &Decoder{dec: per.NewDecoderWithOptions(data, aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Decoder.
func (d *Decoder) AttachEventSink(sink per.EventSink) { d.dec.AttachEventSink(sink) }

// cloneEncoderOptions/cloneDecoderOptions start a fresh per.Encoder/
// per.Decoder using aligned PER and the parent's Options, used when a
// generic extension's payload is encoded/decoded as a self-contained
// fragment inside an open type field.
func cloneEncoderOptions(parent *per.Encoder) *per.Encoder {
	return per.NewEncoderWithOptions(true, parent.Options())
}

func cloneDecoderOptions(parent *per.Decoder, data []byte) *per.Decoder {
	return per.NewDecoderWithOptions(data, true, parent.Options())
}

// DecodeRASMessage decodes a complete RAS PDU from data.
func DecodeRASMessage(data []byte, opts per.Options) (*RasMessage, error) {
	d := NewDecoderWithOptions(data, true, opts)
	return d.DecodeRasMessage()
}

// EncodeRASMessage encodes msg into an aligned-PER RAS PDU.
func EncodeRASMessage(msg *RasMessage, opts per.Options) ([]byte, error) {
	e := NewEncoderWithOptions(true, opts)
	if err := e.EncodeRasMessage(msg); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodeH323UserInformation decodes a complete H.225.0 call-signaling
// user-information PDU (H323_UU_PDU plus its containing wrapper).
func DecodeH323UserInformation(data []byte, opts per.Options) (*H323UserInformation, error) {
	d := NewDecoderWithOptions(data, true, opts)
	return d.DecodeH323UserInformation()
}

// EncodeH323UserInformation encodes msg into an aligned-PER call-signaling PDU.
func EncodeH323UserInformation(msg *H323UserInformation, opts per.Options) ([]byte, error) {
	e := NewEncoderWithOptions(true, opts)
	if err := e.EncodeH323UserInformation(msg); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
