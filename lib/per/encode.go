package per

import (
	"encoding/asn1"
	"errors"
	"math/bits"

	"github.com/h323go/stack/lib/bitbuffer"
)

// Encoder represents a PER encoder.
type Encoder struct {
	codec   *bitbuffer.Codec
	aligned bool
	sink    EventSink
	opts    Options
	depth   int
}

// NewEncoder creates a new PER encoder.
// aligned: true for APER, false for UPER.
func NewEncoder(aligned bool) *Encoder {
	return NewEncoderWithOptions(aligned, DefaultOptions())
}

// NewEncoderWithOptions creates a new PER encoder honoring the given configuration.
func NewEncoderWithOptions(aligned bool, opts Options) *Encoder {
	return &Encoder{
		codec:   bitbuffer.CreateWriter(),
		aligned: aligned,
		sink:    defaultSink,
		opts:    opts.normalized(),
	}
}

// Options returns the encoder's active configuration.
func (e *Encoder) Options() Options {
	return e.opts
}

// AttachEventSink installs an observer called during encode. A nil sink
// detaches observation entirely (equivalent to DetachEventSink).
func (e *Encoder) AttachEventSink(sink EventSink) {
	if sink == nil {
		e.DetachEventSink()
		return
	}
	e.sink = sink
}

// DetachEventSink restores the zero-cost no-op sink.
func (e *Encoder) DetachEventSink() {
	e.sink = defaultSink
}

// BitsProduced returns the number of bits written so far.
func (e *Encoder) BitsProduced() uint64 {
	return e.codec.NumWritten()
}

func (e *Encoder) fail(kind ErrorKind, err error) error {
	return newError(kind, e.codec.NumWritten(), err)
}

// EnterRecursion is the encode-side counterpart of Decoder.EnterRecursion,
// used by self-referential types (GenericData, Content) to bound recursion
// symmetrically on both paths.
func (e *Encoder) EnterRecursion() (func(), error) {
	e.depth++
	if e.depth > e.opts.MaxRecursionDepth {
		e.depth--
		return func() {}, e.fail(ConstraintViolation, errors.New("max recursion depth exceeded"))
	}
	return func() { e.depth-- }, nil
}

// Bytes returns the encoded bytes. Callers must not keep writing afterwards;
// the final partial octet (if any) has been padded by the last Align.
func (e *Encoder) Bytes() []byte {
	return e.codec.Bytes()
}

// 11.3 Non-negative-binary-integer field widths.

// BitsNonNegativeBinaryInteger returns the number of bits of the minimal
// bit-field encoding of value (11.3.5); zero still occupies one bit.
func BitsNonNegativeBinaryInteger(value uint64) int {
	if value == 0 {
		return 1
	}
	return bits.Len64(value)
}

// OctetsNonNegativeBinaryIntegerLength returns the number of octets of the
// minimum-octet encoding of value (11.3.6).
func OctetsNonNegativeBinaryIntegerLength(value uint64) int {
	return (BitsNonNegativeBinaryInteger(value) + 7) >> 3
}

// 11.4 2's-complement-binary-integer field widths.

// BitsTwosComplementBinaryInteger returns the number of bits needed for a
// sign-correct 2's-complement encoding of value (11.4.6: the leading nine
// bits of the minimum-octet field are neither all zero nor all one).
func BitsTwosComplementBinaryInteger(value int64) int {
	switch {
	case value == 0:
		return 1
	case value > 0:
		return bits.Len64(uint64(value)) + 1
	default:
		return bits.Len64(uint64(^value)) + 1
	}
}

// OctetsTwosComplementBinaryInteger returns the octet count of the
// minimum-octet 2's-complement encoding of value.
func OctetsTwosComplementBinaryInteger(value int64) int {
	return (BitsTwosComplementBinaryInteger(value) + 7) >> 3
}

// 11.5 Encoding a constrained whole number. The field width is a function
// of the static range: nothing for a singleton range, a minimal bit-field
// up to range 255, one aligned octet at exactly 256, two aligned octets up
// to 64K, and a length-prefixed minimum-octet field beyond that.
func (e *Encoder) EncodeConstrainedWholeNumber(lb, ub, n int64) error {
	vr := ub - lb + 1
	if vr <= 0 {
		return e.fail(ConstraintViolation, errors.New("invalid range: upper < lower"))
	}
	if vr == 1 {
		return nil
	}

	value := uint64(n - lb)

	if !e.aligned {
		width := BitsNonNegativeBinaryInteger(uint64(vr - 1))
		return e.codec.Write(uint8(width), value)
	}

	switch {
	case vr <= 0xFF:
		// 11.5.7.1: bit-field case, no alignment.
		width := BitsNonNegativeBinaryInteger(uint64(vr - 1))
		return e.codec.Write(uint8(width), value)
	case vr == 0x100:
		// 11.5.7.2: one aligned octet.
		if err := e.codec.Align(); err != nil {
			return err
		}
		return e.codec.Write(8, value)
	case vr <= 0x10000:
		// 11.5.7.3: two aligned octets.
		if err := e.codec.Align(); err != nil {
			return err
		}
		return e.codec.Write(16, value)
	}

	// 11.5.7.4: indefinite-length case, preceded by a constrained length
	// determinant whose bounds are 1..octets-needed-for-range (13.2.6 a).
	octets := OctetsNonNegativeBinaryIntegerLength(value)
	lbRange := uint64(1)
	ubRange := uint64(OctetsNonNegativeBinaryIntegerLength(uint64(ub - lb)))
	if _, err := e.EncodeLengthDeterminant(uint64(octets), &lbRange, &ubRange); err != nil {
		return err
	}
	if err := e.codec.Align(); err != nil {
		return err
	}
	return e.codec.Write(uint8(octets*8), value)
}

// 11.6 Encoding a normally small non-negative whole number: a one-bit
// selector, then either a 6-bit field (n <= 63) or the general
// length-prefixed form.
func (e *Encoder) EncodeNormallySmallNonNegativeWholeNumber(n uint64) error {
	if n <= 63 {
		if err := e.codec.Write(1, 0); err != nil {
			return err
		}
		return e.codec.Write(6, n)
	}
	if err := e.codec.Write(1, 1); err != nil {
		return err
	}
	return e.EncodeSemiConstrainedWholeNumber(0, int64(n))
}

// 11.7 Encoding a semi-constrained whole number: the offset from lb in the
// minimum number of octets, preceded by a length determinant.
func (e *Encoder) EncodeSemiConstrainedWholeNumber(lb, n int64) error {
	octets := OctetsNonNegativeBinaryIntegerLength(uint64(n - lb))
	if _, err := e.EncodeLengthDeterminant(uint64(octets), nil, nil); err != nil {
		return err
	}
	return e.codec.Write(uint8(octets*8), uint64(n-lb))
}

// 11.8 Encoding an unconstrained whole number: minimum-octet
// 2's-complement, preceded by a length determinant.
func (e *Encoder) EncodeUnconstrainedWholeNumber(n int64) error {
	octets := OctetsTwosComplementBinaryInteger(n)
	if _, err := e.EncodeLengthDeterminant(uint64(octets), nil, nil); err != nil {
		return err
	}
	return e.codec.Write(uint8(octets*8), uint64(n))
}

// 11.9 General rules for encoding a length determinant. The returned count
// is the number of items NOT covered by this segment: zero when the length
// fit a non-fragment form, the remainder when a fragment marker was
// written and the caller must emit that many items then re-invoke.
func (e *Encoder) EncodeLengthDeterminant(n uint64, lb *uint64, ub *uint64) (uint64, error) {
	// 11.9.3.3 / 11.9.4.1: constrained form when ub is below 64K.
	if ub != nil && lb != nil && *ub < MAX_CONSTRAINED_LENGTH {
		if err := e.EncodeConstrainedWholeNumber(int64(*lb), int64(*ub), int64(n)); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return e.EncodeUnconstrainedLength(n)
}

// EncodeUnconstrainedLength writes the 11.9.3.6-11.9.3.8 unconstrained
// forms: one octet up to 127, two octets up to 16383, and the fragment
// marker (0b11 plus a 16K-multiple count) beyond that.
func (e *Encoder) EncodeUnconstrainedLength(n uint64) (uint64, error) {
	if e.aligned {
		if err := e.codec.Align(); err != nil {
			return 0, err
		}
	}

	if n <= 127 {
		if err := e.codec.Write(8, n); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if n < FRAGMENT_SIZE {
		if err := e.codec.Write(16, (1<<15)|n); err != nil {
			return 0, err
		}
		return 0, nil
	}

	m := CalculateFragmentSize(n)
	if err := e.codec.Write(8, (3<<6)|(m/FRAGMENT_SIZE)); err != nil {
		return 0, err
	}
	return n - m, nil
}

// EncodeNormallySmallLength writes the 11.9.3.4 form used for the
// extension-addition bitmap length: n-1 in six bits when n <= 64, the
// unconstrained form otherwise.
func (e *Encoder) EncodeNormallySmallLength(n uint64) (uint64, error) {
	if n <= 64 {
		if err := e.codec.Write(1, 0); err != nil {
			return 0, err
		}
		if err := e.codec.Write(6, n-1); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err := e.codec.Write(1, 1); err != nil {
		return 0, err
	}
	return e.EncodeUnconstrainedLength(n)
}

// CalculateFragmentSize returns the item count the next fragment covers:
// the largest multiple of 16K (up to 64K) not exceeding n, and never less
// than one fragment (11.9.3.8.1).
func CalculateFragmentSize(n uint64) uint64 {
	k := n / FRAGMENT_SIZE
	if k < 1 {
		k = 1
	}
	if k > 4 {
		k = 4
	}
	return k * FRAGMENT_SIZE
}

// 12 Encoding the boolean type: one bit, no length determinant.
func (e *Encoder) EncodeBoolean(value bool) error {
	if err := e.codec.Write(1, boolBit(value)); err != nil {
		return err
	}
	e.sink.Bool("BOOLEAN", value)
	return nil
}

// 13 Encoding the integer type. lb/ub are nil when the corresponding bound
// is absent; extensible adds the leading extension bit and falls back to
// the unconstrained form for out-of-root values.
func (e *Encoder) EncodeInteger(value int64, lb *int64, ub *int64, extensible bool) error {
	if extensible {
		extended := (lb != nil && value < *lb) || (ub != nil && value > *ub)
		if err := e.codec.Write(1, boolBit(extended)); err != nil {
			return err
		}
		if extended {
			if err := e.EncodeUnconstrainedWholeNumber(value); err != nil {
				return err
			}
			e.sink.Int("INTEGER", value)
			return nil
		}
	}

	var err error
	switch {
	case lb != nil && ub != nil && *lb == *ub:
		// 13.2.1: singleton range, no bits.
	case lb != nil && ub != nil:
		err = e.EncodeConstrainedWholeNumber(*lb, *ub, value)
	case lb != nil:
		err = e.EncodeSemiConstrainedWholeNumber(*lb, value)
	default:
		err = e.EncodeUnconstrainedWholeNumber(value)
	}
	if err != nil {
		return err
	}
	e.sink.Int("INTEGER", value)
	return nil
}

// 14 Encoding the enumerated type: the enumeration index as a constrained
// whole number over the root, or a normally small non-negative whole
// number when the value sits in the extension additions.
func (e *Encoder) EncodeEnumerated(value uint64, count uint64, extensible bool) error {
	if extensible {
		if value >= count {
			if err := e.codec.Write(1, 1); err != nil {
				return err
			}
			return e.EncodeNormallySmallNonNegativeWholeNumber(value - count)
		}
		if err := e.codec.Write(1, 0); err != nil {
			return err
		}
	}

	if err := e.EncodeConstrainedWholeNumber(0, int64(count-1), int64(value)); err != nil {
		return err
	}
	e.sink.Uint("ENUMERATED", value)
	return nil
}

// WriteBits appends the leading count bits of data, MSB-first.
func (e *Encoder) WriteBits(data []byte, count uint) error {
	if count == 0 {
		return nil
	}
	whole := count / 8
	if whole > 0 {
		if err := e.codec.WriteBytes(data[:whole]); err != nil {
			return err
		}
	}
	if rest := count % 8; rest > 0 {
		return e.codec.Write(uint8(rest), uint64(data[whole]>>(8-rest)))
	}
	return nil
}

// 16 Encoding the bitstring type — inverse of Decoder.DecodeBitString.
func (e *Encoder) EncodeBitString(value *asn1.BitString, lb *uint64,
	ub *uint64, extensible bool) error {
	if err := e.encodeBitString(value, lb, ub, extensible); err != nil {
		return err
	}
	e.sink.BitString("BIT STRING", value.Bytes, value.BitLength)
	return nil
}

func (e *Encoder) encodeBitString(value *asn1.BitString, lb *uint64,
	ub *uint64, extensible bool) error {
	n := uint64(value.BitLength)

	if extensible {
		extended := (lb != nil && n < *lb) || (ub != nil && n > *ub)
		if err := e.codec.Write(1, boolBit(extended)); err != nil {
			return err
		}
		if extended {
			// 16.6: out-of-root length, semi-constrained with fragmentation.
			zero := uint64(0)
			return e.EncodeBitStringFragments(value.Bytes, n, &zero, nil)
		}
	}

	// 16.8: constrained to zero length, nothing emitted.
	if ub != nil && *ub == 0 {
		return nil
	}

	// 16.9: fixed size up to 16 bits, a plain bit-field with no alignment.
	if lb != nil && ub != nil && *lb == *ub && *ub <= 16 {
		return e.WriteBits(value.Bytes, uint(*ub))
	}

	// 16.10: fixed size above 16 bits, aligned, still no length determinant.
	if lb != nil && ub != nil && *lb == *ub && *ub < 65536 {
		if e.aligned {
			if err := e.codec.Align(); err != nil {
				return err
			}
		}
		return e.WriteBits(value.Bytes, uint(*ub))
	}

	// 16.11: general case, length determinant plus the bits.
	if e.aligned {
		if err := e.codec.Align(); err != nil {
			return err
		}
	}
	return e.EncodeBitStringFragments(value.Bytes, n, lb, ub)
}

// EncodeBitStringFragments writes count bits of value preceded by a length
// determinant, looping through the fragment forms for counts of 16K and up.
func (e *Encoder) EncodeBitStringFragments(value []byte, count uint64,
	lb *uint64, ub *uint64) error {
	if e.aligned {
		if err := e.codec.Align(); err != nil {
			return err
		}
	}

	if count == 0 {
		_, err := e.EncodeLengthDeterminant(0, lb, ub)
		return err
	}

	offset := uint64(0)
	for offset < count {
		remaining := count - offset
		pending, err := e.EncodeLengthDeterminant(remaining, lb, ub)
		if err != nil {
			return err
		}
		segment := remaining - pending
		if err := e.WriteBits(value[offset/8:], uint(segment)); err != nil {
			return err
		}
		offset += segment
		if pending == 0 {
			break
		}
	}
	return nil
}

// 17 Encoding the octetstring type — inverse of Decoder.DecodeOctetString.
func (e *Encoder) EncodeOctetString(value []byte, lb *uint64, ub *uint64, extensible bool) error {
	if err := e.encodeOctetString(value, lb, ub, extensible); err != nil {
		return err
	}
	e.sink.Octets("OCTET STRING", value)
	return nil
}

func (e *Encoder) encodeOctetString(value []byte, lb *uint64, ub *uint64, extensible bool) error {
	n := uint64(len(value))

	if extensible {
		extended := (lb != nil && n < *lb) || (ub != nil && n > *ub)
		if err := e.codec.Write(1, boolBit(extended)); err != nil {
			return err
		}
		if extended {
			// 17.3: out-of-root length, semi-constrained with fragmentation.
			zero := uint64(0)
			return e.EncodeOctetStringFragments(value, &zero, nil)
		}
	}

	// 17.5: constrained to zero length, nothing emitted.
	if ub != nil && *ub == 0 {
		return nil
	}

	// 17.6: fixed size up to two octets, a plain bit-field with no alignment.
	if lb != nil && ub != nil && *lb == *ub && *ub <= 2 {
		return e.codec.WriteBytes(value)
	}

	// 17.7: fixed size above two octets, aligned, no length determinant.
	if lb != nil && ub != nil && *lb == *ub && *ub < 65536 {
		if e.aligned {
			if err := e.codec.Align(); err != nil {
				return err
			}
		}
		return e.codec.WriteBytes(value)
	}

	// 17.8: general case, length determinant plus the octets.
	return e.EncodeOctetStringFragments(value, lb, ub)
}

// EncodeOctetStringFragments writes value preceded by a length determinant,
// looping through the fragment forms for lengths of 16K octets and up.
func (e *Encoder) EncodeOctetStringFragments(value []byte, lb *uint64, ub *uint64) error {
	if e.aligned {
		if err := e.codec.Align(); err != nil {
			return err
		}
	}

	n := uint64(len(value))
	if n == 0 {
		_, err := e.EncodeLengthDeterminant(0, lb, ub)
		return err
	}

	offset := uint64(0)
	for offset < n {
		remaining := n - offset
		pending, err := e.EncodeLengthDeterminant(remaining, lb, ub)
		if err != nil {
			return err
		}
		segment := remaining - pending
		if err := e.codec.WriteBytes(value[offset : offset+segment]); err != nil {
			return err
		}
		offset += segment
		if pending == 0 {
			break
		}
	}
	return nil
}

// 18 Encoding the null type: no addition to the stream.
func (e *Encoder) EncodeNull() error {
	e.sink.Null("NULL")
	return nil
}

// 24 Encoding the object identifier type: the BER content octets (base-128
// subidentifiers, the first two arcs merged as first*40+second) wrapped as
// an unconstrained octet string. Mirrors Decoder.DecodeObjectIdentifier.
func (e *Encoder) EncodeObjectIdentifier(oid asn1.ObjectIdentifier) error {
	if len(oid) < 2 {
		return e.fail(ConstraintViolation, errors.New("object identifier needs at least two arcs"))
	}
	content := appendBase128(nil, uint64(oid[0]*40+oid[1]))
	for _, arc := range oid[2:] {
		content = appendBase128(content, uint64(arc))
	}
	if err := e.EncodeOctetString(content, nil, nil, false); err != nil {
		return err
	}
	e.sink.OID("OBJECT IDENTIFIER", oid)
	return nil
}

// appendBase128 appends v as a BER base-128 subidentifier: seven value bits
// per octet, continuation bit set on all but the last.
func appendBase128(dst []byte, v uint64) []byte {
	n := (bits.Len64(v|1) + 6) / 7
	for i := n - 1; i > 0; i-- {
		dst = append(dst, byte(v>>(uint(i)*7))|0x80)
	}
	return append(dst, byte(v&0x7F))
}

// 30 Encoding restricted character strings whose characters occupy a full
// octet with an unconstrained alphabet (IA5String, PrintableString,
// VisibleString): PER treats the value as an opaque octet string.
func (e *Encoder) EncodeString(value string, lb *uint64, ub *uint64, extensible bool) error {
	if err := e.EncodeOctetString([]byte(value), lb, ub, extensible); err != nil {
		return err
	}
	e.sink.CharString("IA5String", value)
	return nil
}

// EncodeBMPString encodes a BMPString (section 30.4), treating the full
// UCS-2 alphabet as the permitted alphabet, so each character always takes
// the full 16 bits (already the next power of two, so ALIGNED and UNALIGNED
// variants agree on the per-character width).
func (e *Encoder) EncodeBMPString(value string, lb *uint64, ub *uint64, extensible bool) error {
	runes := []rune(value)
	n := uint64(len(runes))

	if extensible {
		extended := (lb != nil && n < *lb) || (ub != nil && n > *ub)
		if err := e.codec.Write(1, boolBit(extended)); err != nil {
			return err
		}
		if extended {
			lb, ub = nil, nil
		}
	}

	fixed := lb != nil && ub != nil && *lb == *ub && *ub < 65536
	if !fixed {
		if _, err := e.EncodeLengthDeterminant(n, lb, ub); err != nil {
			return err
		}
	}
	if n*16 > 16 && e.aligned {
		if err := e.codec.Align(); err != nil {
			return err
		}
	}
	for _, r := range runes {
		if err := e.codec.Write(16, uint64(uint16(r))); err != nil {
			return err
		}
	}
	e.sink.BMPString("BMPString", value)
	return nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
