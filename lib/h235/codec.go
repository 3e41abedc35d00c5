// Package h235 implements the Go shapes and PER encoders/decoders for the
// H.235 security-message CHOICEs this stack's H.225 layer wraps:
// CryptoToken and ClearToken. H.235's cryptographic primitives themselves
// (hash/cipher suites, key derivation) are out of scope; only the wire
// framing around their opaque material is implemented, the same way
// lib/h225's CryptoH323Token carries password-hash/certificate bytes
// without interpreting them.
package h235

import "github.com/h323go/stack/lib/per"

// Encoder wraps a per.Encoder with the H.235 schema's generated Encode*
// methods.
type Encoder struct {
	enc *per.Encoder
}

// NewEncoder creates an H.235 encoder. aligned selects APER vs UPER.
func NewEncoder(aligned bool) *Encoder {
	return &Encoder{enc: per.NewEncoder(aligned)}
}

// NewEncoderWithOptions creates an H.235 encoder honoring opts.
func NewEncoderWithOptions(aligned bool, opts per.Options) *Encoder {
	return &Encoder{enc: per.NewEncoderWithOptions(aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Encoder.
func (e *Encoder) AttachEventSink(sink per.EventSink) { e.enc.AttachEventSink(sink) }

// Bytes returns the encoded PDU.
func (e *Encoder) Bytes() []byte { return e.enc.Bytes() }

// Decoder wraps a per.Decoder with the H.235 schema's generated Decode*
// methods.
type Decoder struct {
	dec *per.Decoder
}

// NewDecoder creates an H.235 decoder over data.
func NewDecoder(data []byte, aligned bool) *Decoder {
	return &Decoder{dec: per.NewDecoder(data, aligned)}
}

// NewDecoderWithOptions creates an H.235 decoder honoring opts.
func NewDecoderWithOptions(data []byte, aligned bool, opts per.Options) *Decoder {
	return &Decoder{dec: per.NewDecoderWithOptions(data, aligned, opts)}
}

// AttachEventSink forwards to the underlying per.Decoder.
func (d *Decoder) AttachEventSink(sink per.EventSink) { d.dec.AttachEventSink(sink) }

// DecodeCryptoTokenMessage decodes a standalone CryptoToken PDU from data.
func DecodeCryptoTokenMessage(data []byte, opts per.Options) (*CryptoToken, error) {
	d := NewDecoderWithOptions(data, true, opts)
	return d.DecodeCryptoToken()
}

// EncodeCryptoTokenMessage encodes msg into an aligned-PER CryptoToken PDU.
func EncodeCryptoTokenMessage(msg *CryptoToken, opts per.Options) ([]byte, error) {
	e := NewEncoderWithOptions(true, opts)
	if err := e.EncodeCryptoToken(msg); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
