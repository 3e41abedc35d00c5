package per

import (
	"encoding/asn1"
	"errors"

	"github.com/h323go/stack/lib/bitbuffer"
)

// Decoder represents a PER decoder.
type Decoder struct {
	codec   *bitbuffer.Codec
	aligned bool
	sink    EventSink
	opts    Options
	depth   int
}

// NewDecoder creates a new PER decoder from encoded data.
// aligned: true for APER, false for UPER.
func NewDecoder(data []byte, aligned bool) *Decoder {
	return NewDecoderWithOptions(data, aligned, DefaultOptions())
}

// NewDecoderWithOptions creates a new PER decoder honoring the given
// configuration (strict_enum / max_recursion_depth / preserve_unknown_extensions).
func NewDecoderWithOptions(data []byte, aligned bool, opts Options) *Decoder {
	return &Decoder{
		codec:   bitbuffer.CreateReader(data),
		aligned: aligned,
		sink:    defaultSink,
		opts:    opts.normalized(),
	}
}

// Options returns the decoder's active configuration.
func (d *Decoder) Options() Options {
	return d.opts
}

// AttachEventSink installs an observer called during decode. A nil sink
// detaches observation entirely (equivalent to DetachEventSink).
func (d *Decoder) AttachEventSink(sink EventSink) {
	if sink == nil {
		d.DetachEventSink()
		return
	}
	d.sink = sink
}

// DetachEventSink restores the zero-cost no-op sink.
func (d *Decoder) DetachEventSink() {
	d.sink = defaultSink
}

// Sink returns the active event sink. Generated schema code brackets each
// structural element with StartElement/EndElement through it, keeping the
// callback order a strict depth-first traversal of the message.
func (d *Decoder) Sink() EventSink {
	return d.sink
}

// BitsConsumed returns the number of bits read so far, for error offsets
// and monotonicity assertions.
func (d *Decoder) BitsConsumed() uint64 {
	return d.codec.NumRead()
}

// Mark/Rewind expose the underlying cursor's snapshot mechanism so a caller
// can look ahead and rewind. The structural codec itself does not use them.
func (d *Decoder) Mark() bitbuffer.Mark {
	return d.codec.Snapshot()
}

func (d *Decoder) Rewind(m bitbuffer.Mark) {
	d.codec.Restore(m)
}

func (d *Decoder) fail(kind ErrorKind, err error) error {
	return newError(kind, d.codec.NumRead(), err)
}

// EnterRecursion must be called before decoding a self-referential type
// (GenericData, Content). It fails ConstraintViolation once MaxRecursionDepth
// is exceeded rather than exhausting the goroutine stack. Callers must call
// the returned func to leave the recursion, typically via defer.
func (d *Decoder) EnterRecursion() (func(), error) {
	d.depth++
	if d.depth > d.opts.MaxRecursionDepth {
		d.depth--
		return func() {}, d.fail(ConstraintViolation, errors.New("max recursion depth exceeded"))
	}
	return func() { d.depth-- }, nil
}

// 12 Decoding the boolean type — inverse of Encoder.EncodeBoolean.
func (d *Decoder) DecodeBoolean() (bool, error) {
	v, err := d.codec.Read(1)
	if err != nil {
		return false, d.fail(EndOfBuffer, err)
	}
	value := v != 0
	d.sink.Bool("BOOLEAN", value)
	return value, nil
}

// 11.5 Decoding a constrained whole number — inverse of
// Encoder.EncodeConstrainedWholeNumber.
func (d *Decoder) DecodeConstrainedWholeNumber(lb, ub int64) (int64, error) {
	vr := ub - lb + 1
	if vr <= 0 {
		return 0, d.fail(ConstraintViolation, errors.New("invalid range: upper < lower"))
	}
	if vr == 1 {
		return lb, nil
	}

	if !d.aligned {
		width := BitsNonNegativeBinaryInteger(uint64(vr - 1))
		raw, err := d.codec.Read(uint8(width))
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		return lb + int64(raw), nil
	}

	if vr <= 0xFF {
		var width int
		switch {
		case vr == 0x02:
			width = 1
		case vr >= 0x03 && vr <= 0x04:
			width = 2
		case vr >= 0x05 && vr <= 0x08:
			width = 3
		case vr >= 0x09 && vr <= 0x10:
			width = 4
		case vr >= 0x11 && vr <= 0x20:
			width = 5
		case vr >= 0x21 && vr <= 0x40:
			width = 6
		case vr >= 0x41 && vr <= 0x80:
			width = 7
		case vr >= 0x81 && vr <= 0xFF:
			width = 8
		}
		raw, err := d.codec.Read(uint8(width))
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		return lb + int64(raw), nil
	}

	if vr == 0x100 {
		if err := d.codec.Advance(); err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		raw, err := d.codec.Read(8)
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		return lb + int64(raw), nil
	}

	if vr >= 0x101 && vr <= 0x10000 {
		if err := d.codec.Advance(); err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		raw, err := d.codec.Read(16)
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		return lb + int64(raw), nil
	}

	// 11.5.7.4: indefinite-length case, preceded by a constrained length
	// determinant whose bounds are 1..octets-needed-for-range.
	octetsRange := OctetsNonNegativeBinaryIntegerLength(uint64(ub - lb))
	lbRange := uint64(1)
	ubRange := uint64(octetsRange)
	octets, _, err := d.DecodeLengthDeterminant(&lbRange, &ubRange)
	if err != nil {
		return 0, err
	}
	if err := d.codec.Advance(); err != nil {
		return 0, d.fail(EndOfBuffer, err)
	}
	raw, err := d.readOctetsAsUint(int(octets))
	if err != nil {
		return 0, err
	}
	return lb + int64(raw), nil
}

// 11.6 Decoding a normally small non-negative whole number — inverse of
// Encoder.EncodeNormallySmallNonNegativeWholeNumber.
func (d *Decoder) DecodeNormallySmallNonNegativeWholeNumber() (uint64, error) {
	bit, err := d.codec.Read(1)
	if err != nil {
		return 0, d.fail(EndOfBuffer, err)
	}
	if bit == 0 {
		v, err := d.codec.Read(6)
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		return v, nil
	}
	v, err := d.DecodeSemiConstrainedWholeNumber(0)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// 11.7 Decoding a semi-constrained whole number — inverse of
// Encoder.EncodeSemiConstrainedWholeNumber.
func (d *Decoder) DecodeSemiConstrainedWholeNumber(lb int64) (int64, error) {
	octets, _, err := d.DecodeLengthDeterminant(nil, nil)
	if err != nil {
		return 0, err
	}
	if octets == 0 {
		return lb, nil
	}
	raw, err := d.readOctetsAsUint(int(octets))
	if err != nil {
		return 0, err
	}
	return lb + int64(raw), nil
}

// 11.8 Decoding an unconstrained whole number — inverse of
// Encoder.EncodeUnconstrainedWholeNumber.
func (d *Decoder) DecodeUnconstrainedWholeNumber() (int64, error) {
	octets, _, err := d.DecodeLengthDeterminant(nil, nil)
	if err != nil {
		return 0, err
	}
	if octets == 0 {
		return 0, nil
	}
	raw, err := d.readOctetsAsUint(int(octets))
	if err != nil {
		return 0, err
	}
	// sign-extend from the top bit of the minimum-octet 2's complement field
	shift := uint(64 - octets*8)
	return int64(raw<<shift) >> shift, nil
}

func (d *Decoder) readOctetsAsUint(octets int) (uint64, error) {
	if octets < 0 || octets > 8 {
		return 0, d.fail(LengthOverflow, errors.New("octet count out of range"))
	}
	if octets == 0 {
		return 0, nil
	}
	raw, err := d.codec.Read(uint8(octets * 8))
	if err != nil {
		return 0, d.fail(EndOfBuffer, err)
	}
	return raw, nil
}

// 11.9 Decoding a length determinant — inverse of Encoder.EncodeLengthDeterminant.
// Returns (n, more, err): n is the count for this segment; more is true if a
// fragment marker was read and another length determinant follows.
func (d *Decoder) DecodeLengthDeterminant(lb, ub *uint64) (uint64, bool, error) {
	if ub != nil && lb != nil && *ub < MAX_CONSTRAINED_LENGTH {
		n, err := d.DecodeConstrainedWholeNumber(int64(*lb), int64(*ub))
		if err != nil {
			return 0, false, err
		}
		return uint64(n), false, nil
	}
	return d.DecodeUnconstrainedLength()
}

// DecodeUnconstrainedLength is the inverse of Encoder.EncodeUnconstrainedLength.
func (d *Decoder) DecodeUnconstrainedLength() (uint64, bool, error) {
	if d.aligned {
		if err := d.codec.Advance(); err != nil {
			return 0, false, d.fail(EndOfBuffer, err)
		}
	}

	first, err := d.codec.Read(8)
	if err != nil {
		return 0, false, d.fail(EndOfBuffer, err)
	}

	if first&0x80 == 0 {
		return first & 0x7F, false, nil
	}

	if first&0xC0 == 0x80 {
		second, err := d.codec.Read(8)
		if err != nil {
			return 0, false, d.fail(EndOfBuffer, err)
		}
		n := (uint64(first&0x3F) << 8) | second
		return n, false, nil
	}

	k := first & 0x3F
	if k < 1 || k > 4 {
		return 0, false, d.fail(LengthOverflow, errors.New("invalid fragment count"))
	}
	return uint64(k) * FRAGMENT_SIZE, true, nil
}

// DecodeNormallySmallLength is the inverse of Encoder.EncodeNormallySmallLength.
func (d *Decoder) DecodeNormallySmallLength() (uint64, bool, error) {
	bit, err := d.codec.Read(1)
	if err != nil {
		return 0, false, d.fail(EndOfBuffer, err)
	}
	if bit == 0 {
		v, err := d.codec.Read(6)
		if err != nil {
			return 0, false, d.fail(EndOfBuffer, err)
		}
		return v + 1, false, nil
	}
	return d.DecodeUnconstrainedLength()
}

// 13 Decoding the integer type — inverse of Encoder.EncodeInteger.
func (d *Decoder) DecodeInteger(lb, ub *int64, extensible bool) (int64, error) {
	if extensible {
		bit, err := d.codec.Read(1)
		if err != nil {
			return 0, d.fail(EndOfBuffer, err)
		}
		if bit == 1 {
			v, err := d.DecodeUnconstrainedWholeNumber()
			if err != nil {
				return 0, err
			}
			d.sink.Int("INTEGER", v)
			return v, nil
		}
	}

	var (
		value int64
		err   error
	)
	switch {
	case lb != nil && ub != nil && *lb == *ub:
		value = *lb
	case lb != nil && ub != nil:
		value, err = d.DecodeConstrainedWholeNumber(*lb, *ub)
	case lb != nil && ub == nil:
		value, err = d.DecodeSemiConstrainedWholeNumber(*lb)
	default:
		value, err = d.DecodeUnconstrainedWholeNumber()
	}
	if err != nil {
		return 0, err
	}
	d.sink.Int("INTEGER", value)
	return value, nil
}

// 14 Decoding the enumerated type — inverse of Encoder.EncodeEnumerated.
// Returns the enumeration index and whether it was read from the extension
// addition group. count is the number of values in the extension root; a
// value arriving through the extension group is by definition not one the
// root names, so under Options.StrictEnum it fails InvalidEnumerationValue.
// With StrictEnum off the value is surfaced as-is (count + extension index)
// and the caller decides what an unnamed value means.
func (d *Decoder) DecodeEnumerated(count uint64, extensible bool) (value uint64, fromExtension bool, err error) {
	if extensible {
		bit, err := d.codec.Read(1)
		if err != nil {
			return 0, false, d.fail(EndOfBuffer, err)
		}
		if bit == 1 {
			v, err := d.DecodeNormallySmallNonNegativeWholeNumber()
			if err != nil {
				return 0, false, err
			}
			if d.opts.StrictEnum {
				return 0, true, d.fail(InvalidEnumerationValue, errors.New("enumeration value outside the extension root"))
			}
			d.sink.Uint("ENUMERATED", v+count)
			return v + count, true, nil
		}
	}
	v, err := d.DecodeConstrainedWholeNumber(0, int64(count-1))
	if err != nil {
		return 0, false, err
	}
	d.sink.Uint("ENUMERATED", uint64(v))
	return uint64(v), false, nil
}

// 16 Decoding the bitstring type — inverse of Encoder.EncodeBitString.
func (d *Decoder) DecodeBitString(lb, ub *uint64, extensible bool) (*asn1.BitString, error) {
	result, err := d.decodeBitString(lb, ub, extensible)
	if err != nil {
		return nil, err
	}
	d.sink.BitString("BIT STRING", result.Bytes, result.BitLength)
	return result, nil
}

func (d *Decoder) decodeBitString(lb, ub *uint64, extensible bool) (*asn1.BitString, error) {
	if extensible {
		bit, err := d.codec.Read(1)
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		if bit == 1 {
			zero := uint64(0)
			return d.decodeBitStringFragments(&zero, nil)
		}
	}

	if ub != nil && *ub == 0 {
		return &asn1.BitString{}, nil
	}

	if lb != nil && ub != nil && *lb == *ub && *ub <= 16 {
		data, err := d.readBits(uint(*ub))
		if err != nil {
			return nil, err
		}
		return &asn1.BitString{Bytes: data, BitLength: int(*ub)}, nil
	}

	if lb != nil && ub != nil && *lb == *ub && *ub < 65536 {
		if d.aligned {
			if err := d.codec.Advance(); err != nil {
				return nil, d.fail(EndOfBuffer, err)
			}
		}
		data, err := d.readBits(uint(*ub))
		if err != nil {
			return nil, err
		}
		return &asn1.BitString{Bytes: data, BitLength: int(*ub)}, nil
	}

	return d.decodeBitStringFragments(lb, ub)
}

func (d *Decoder) decodeBitStringFragments(lb, ub *uint64) (*asn1.BitString, error) {
	if d.aligned {
		if err := d.codec.Advance(); err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
	}

	var (
		bitLen uint64
		data   []byte
	)
	for {
		n, more, err := d.DecodeLengthDeterminant(lb, ub)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			chunk, err := d.readBits(uint(n))
			if err != nil {
				return nil, err
			}
			data = appendBits(data, bitLen, chunk, n)
			bitLen += n
		}
		if !more {
			break
		}
	}
	return &asn1.BitString{Bytes: data, BitLength: int(bitLen)}, nil
}

// appendBits appends the first n bits of chunk (MSB-first, packed from bit 0
// of chunk) onto dst, which already holds bitLen bits.
func appendBits(dst []byte, bitLen uint64, chunk []byte, n uint64) []byte {
	if bitLen%8 == 0 {
		return append(dst, chunk...)
	}
	// Fragments are always a multiple of 16K items and the encoder only ever
	// emits them octet-aligned, so this path is unreached in practice; kept
	// for defensive symmetry with decodeBitStringFragments.
	w := bitbuffer.CreateWriter()
	for i := 0; i < len(dst); i++ {
		w.Write(8, uint64(dst[i]))
	}
	for i := uint64(0); i < n; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		bit := (chunk[byteIdx] >> (7 - bitIdx)) & 1
		w.Write(1, uint64(bit))
	}
	return w.Bytes()
}

func (d *Decoder) readBits(count uint) ([]byte, error) {
	if count == 0 {
		return nil, nil
	}
	num := count / 8
	remaining := count % 8
	out := make([]byte, 0, (count+7)/8)
	if num > 0 {
		b, err := d.codec.ReadBytes(int(num))
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		out = append(out, b...)
	}
	if remaining > 0 {
		v, err := d.codec.Read(uint8(remaining))
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		out = append(out, byte(v<<(8-remaining)))
	}
	return out, nil
}

// 17 Decoding the octetstring type — inverse of Encoder.EncodeOctetString.
func (d *Decoder) DecodeOctetString(lb, ub *uint64, extensible bool) ([]byte, error) {
	result, err := d.decodeOctetString(lb, ub, extensible)
	if err != nil {
		return nil, err
	}
	d.sink.Octets("OCTET STRING", result)
	return result, nil
}

func (d *Decoder) decodeOctetString(lb, ub *uint64, extensible bool) ([]byte, error) {
	if extensible {
		bit, err := d.codec.Read(1)
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		if bit == 1 {
			zero := uint64(0)
			return d.decodeOctetStringFragments(&zero, nil)
		}
	}

	if ub != nil && *ub == 0 {
		return nil, nil
	}

	if lb != nil && ub != nil && *lb == *ub && *ub <= 2 {
		b, err := d.codec.ReadBytes(int(*ub))
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		return b, nil
	}

	if lb != nil && ub != nil && *lb == *ub && *ub < 65536 {
		if d.aligned {
			if err := d.codec.Advance(); err != nil {
				return nil, d.fail(EndOfBuffer, err)
			}
		}
		b, err := d.codec.ReadBytes(int(*ub))
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		return b, nil
	}

	return d.decodeOctetStringFragments(lb, ub)
}

func (d *Decoder) decodeOctetStringFragments(lb, ub *uint64) ([]byte, error) {
	if d.aligned {
		if err := d.codec.Advance(); err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
	}

	var data []byte
	for {
		n, more, err := d.DecodeLengthDeterminant(lb, ub)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			b, err := d.codec.ReadBytes(int(n))
			if err != nil {
				return nil, d.fail(EndOfBuffer, err)
			}
			data = append(data, b...)
		}
		if !more {
			break
		}
	}
	return data, nil
}

// 18 Decoding the null type — always succeeds and consumes no bits.
func (d *Decoder) DecodeNull() error {
	d.sink.Null("NULL")
	return nil
}

// 24 Decoding the object identifier type — inverse of
// Encoder.EncodeObjectIdentifier. The content octets follow BER's base-128
// subidentifier encoding with the first two arcs merged as (first*40+second).
func (d *Decoder) DecodeObjectIdentifier() (asn1.ObjectIdentifier, error) {
	content, err := d.decodeOctetString(nil, nil, false)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, d.fail(ConstraintViolation, errors.New("empty object identifier content"))
	}

	var arcs []int
	var current uint64
	for _, b := range content {
		current = (current << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			arcs = append(arcs, int(current))
			current = 0
		}
	}
	if len(arcs) == 0 {
		return nil, d.fail(ConstraintViolation, errors.New("malformed object identifier"))
	}

	first := arcs[0] / 40
	second := arcs[0] % 40
	if first > 2 {
		// X.690 8.19.4: values >= 80 collapse into the "2" arc.
		first = 2
		second = arcs[0] - 80
	}
	oid := make(asn1.ObjectIdentifier, 0, len(arcs)+1)
	oid = append(oid, first, second)
	oid = append(oid, arcs[1:]...)
	d.sink.OID("OBJECT IDENTIFIER", oid)
	return oid, nil
}

// 30 Decoding restricted character strings treated as opaque octet strings
// (IA5String, PrintableString, VisibleString) — inverse of Encoder.EncodeString.
func (d *Decoder) DecodeString(lb, ub *uint64, extensible bool) (string, error) {
	b, err := d.decodeOctetString(lb, ub, extensible)
	if err != nil {
		return "", err
	}
	d.sink.CharString("IA5String", string(b))
	return string(b), nil
}

// DecodeBMPString decodes a BMPString: each character is a 16-bit UCS-2 code
// unit. Mirrors Encoder.EncodeBMPString's assumption of the full alphabet.
func (d *Decoder) DecodeBMPString(lb, ub *uint64, extensible bool) (string, error) {
	if extensible {
		bit, err := d.codec.Read(1)
		if err != nil {
			return "", d.fail(EndOfBuffer, err)
		}
		if bit == 1 {
			return d.decodeBMPStringBody(nil, nil)
		}
	}
	return d.decodeBMPStringBody(lb, ub)
}

func (d *Decoder) decodeBMPStringBody(lb, ub *uint64) (string, error) {
	var n uint64
	fixed := lb != nil && ub != nil && *lb == *ub && *ub < 65536
	if fixed {
		n = *ub
	} else {
		count, _, err := d.DecodeLengthDeterminant(lb, ub)
		if err != nil {
			return "", err
		}
		n = count
	}
	if n == 0 {
		return "", nil
	}
	if n*16 > 16 && d.aligned {
		if err := d.codec.Advance(); err != nil {
			return "", d.fail(EndOfBuffer, err)
		}
	}
	runes := make([]rune, n)
	for i := uint64(0); i < n; i++ {
		v, err := d.codec.Read(16)
		if err != nil {
			return "", d.fail(EndOfBuffer, err)
		}
		runes[i] = rune(v)
	}
	s := string(runes)
	d.sink.BMPString("BMPString", s)
	return s, nil
}
