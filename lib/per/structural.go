package per

import "errors"

// This file holds the L3 structural layer: the SEQUENCE preamble and
// extension-addition mechanics (clause 18), CHOICE index selection
// (clause 23), the SEQUENCE OF length/element loop (clause 20), and the
// open type wrapper (clause 12.3) that every L4 schema type is generated
// against. None of it is type-specific; lib/h225, lib/h245 and lib/h235
// call straight into these helpers from generated Encode/Decode methods.

// 18 Encoding the sequence type

// EncodeExtensionMarker writes the single bit that precedes an extensible
// SEQUENCE's (or SET's) preamble, indicating whether any extension addition
// is present beyond the root component list.
func (e *Encoder) EncodeExtensionMarker(present bool) error {
	if err := e.codec.Write(1, boolBit(present)); err != nil {
		return e.fail(EndOfBuffer, err)
	}
	return nil
}

// DecodeExtensionMarker is the inverse of EncodeExtensionMarker.
func (d *Decoder) DecodeExtensionMarker() (bool, error) {
	v, err := d.codec.Read(1)
	if err != nil {
		return false, d.fail(EndOfBuffer, err)
	}
	return v != 0, nil
}

// EncodeOptionalBitmap writes the SEQUENCE preamble: one bit per optional or
// DEFAULT component of the root component list, in textual order, 1 meaning
// present. present must have exactly one entry per such component; a
// SEQUENCE with no optional/default components writes nothing (clause
// 18.2, NOTE).
func (e *Encoder) EncodeOptionalBitmap(present []bool) error {
	for _, p := range present {
		if err := e.codec.Write(1, boolBit(p)); err != nil {
			return e.fail(EndOfBuffer, err)
		}
	}
	return nil
}

// DecodeOptionalBitmap is the inverse of EncodeOptionalBitmap; count must be
// the number of optional/DEFAULT components in the root component list.
func (d *Decoder) DecodeOptionalBitmap(count int) ([]bool, error) {
	if count == 0 {
		return nil, nil
	}
	present := make([]bool, count)
	for i := range present {
		v, err := d.codec.Read(1)
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		present[i] = v != 0
	}
	return present, nil
}

// 18.8 Extension addition presence bitmap. Written only when the extension
// marker is 1: a normally-small-length count, then (ALIGNED variant) a
// byte boundary, then the bitmap itself, one bit per extension addition
// known at the current schema version, walked in declaration order.

// EncodeExtensionBitmap writes the extension-addition count and, after a
// byte boundary in the ALIGNED variant, the presence bitmap. present has
// one entry per extension addition group the local schema version knows
// about.
func (e *Encoder) EncodeExtensionBitmap(present []bool) error {
	n := uint64(len(present))
	if n == 0 {
		return e.fail(ConstraintViolation, errors.New("extension bitmap requires at least one addition"))
	}
	if _, err := e.EncodeNormallySmallLength(n); err != nil {
		return e.fail(EndOfBuffer, err)
	}
	if e.aligned {
		if err := e.codec.Align(); err != nil {
			return e.fail(EndOfBuffer, err)
		}
	}
	for _, p := range present {
		if err := e.codec.Write(1, boolBit(p)); err != nil {
			return e.fail(EndOfBuffer, err)
		}
	}
	return nil
}

// DecodeExtensionBitmap is the inverse of EncodeExtensionBitmap. The
// returned slice may be longer than the local schema knows about: callers
// must only interpret the indices they recognize and, when
// Options.PreserveUnknownExtensions is set, retain the unrecognized open
// type values decoded alongside each unknown bit rather than discard them.
func (d *Decoder) DecodeExtensionBitmap() ([]bool, error) {
	n, _, err := d.DecodeNormallySmallLength()
	if err != nil {
		return nil, err
	}
	if d.aligned {
		if err := d.codec.Advance(); err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
	}
	present := make([]bool, n)
	for i := range present {
		v, err := d.codec.Read(1)
		if err != nil {
			return nil, d.fail(EndOfBuffer, err)
		}
		present[i] = v != 0
	}
	return present, nil
}

// EncodeSequencePreamble writes a SEQUENCE's full preamble: the extension
// marker (only when extensible) followed by the root optional/DEFAULT
// bitmap. It is the composition generated code actually calls; the two
// pieces stay separately exported above because CHOICE and SET OF callers
// sometimes need the marker alone.
func (e *Encoder) EncodeSequencePreamble(extensible bool, hasExtension bool, present []bool) error {
	if extensible {
		if err := e.EncodeExtensionMarker(hasExtension); err != nil {
			return err
		}
	}
	return e.EncodeOptionalBitmap(present)
}

// DecodeSequencePreamble is the inverse of EncodeSequencePreamble.
func (d *Decoder) DecodeSequencePreamble(extensible bool, optionalCount int) (hasExtension bool, present []bool, err error) {
	if extensible {
		hasExtension, err = d.DecodeExtensionMarker()
		if err != nil {
			return false, nil, err
		}
	}
	present, err = d.DecodeOptionalBitmap(optionalCount)
	if err != nil {
		return false, nil, err
	}
	return hasExtension, present, nil
}

// 23 Encoding the choice type

// EncodeChoiceIndex encodes the selected alternative of a CHOICE. index is
// the 0-based position within the root alternative list if fromExtension is
// false, or within the extension addition list if true. count is the
// number of root alternatives.
func (e *Encoder) EncodeChoiceIndex(index int, count int, extensible bool, fromExtension bool) error {
	if extensible {
		if err := e.codec.Write(1, boolBit(fromExtension)); err != nil {
			return e.fail(EndOfBuffer, err)
		}
		if fromExtension {
			return e.EncodeNormallySmallNonNegativeWholeNumber(uint64(index))
		}
	}
	if index < 0 || index >= count {
		return e.fail(InvalidChoiceIndex, errors.New("choice index out of range"))
	}
	return e.EncodeConstrainedWholeNumber(0, int64(count-1), int64(index))
}

// DecodeChoiceIndex is the inverse of EncodeChoiceIndex. When fromExtension
// is true, the returned index is relative to the extension addition list
// and the caller is responsible for treating an index beyond what it
// recognizes as an unknown alternative (decoded via the accompanying open
// type rather than failing outright).
func (d *Decoder) DecodeChoiceIndex(count int, extensible bool) (index int, fromExtension bool, err error) {
	if extensible {
		ext, err := d.codec.Read(1)
		if err != nil {
			return 0, false, d.fail(EndOfBuffer, err)
		}
		if ext == 1 {
			v, err := d.DecodeNormallySmallNonNegativeWholeNumber()
			if err != nil {
				return 0, true, err
			}
			return int(v), true, nil
		}
	}
	v, err := d.DecodeConstrainedWholeNumber(0, int64(count-1))
	if err != nil {
		return 0, false, err
	}
	return int(v), false, nil
}

// EncodeExtensionAdditions writes the full extension-addition trailer of a
// SEQUENCE: the normally-small-length count, the presence bitmap, then one
// open type per present addition. bodies has one entry per addition the
// schema knows about, in declaration order — nil meaning absent, a
// (possibly empty) byte slice meaning present with that pre-encoded
// content. unknown carries additions retained from a previous decode of a
// newer schema version; they are re-emitted after the known ones so the
// value round-trips byte-for-byte.
func (e *Encoder) EncodeExtensionAdditions(bodies [][]byte, unknown [][]byte) error {
	present := make([]bool, 0, len(bodies)+len(unknown))
	for _, b := range bodies {
		present = append(present, b != nil)
	}
	for range unknown {
		present = append(present, true)
	}
	if err := e.EncodeExtensionBitmap(present); err != nil {
		return err
	}
	for _, b := range bodies {
		if b == nil {
			continue
		}
		if err := e.EncodeOpenType(b); err != nil {
			return err
		}
	}
	for _, b := range unknown {
		if err := e.EncodeOpenType(b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeExtensionAdditions walks a SEQUENCE's extension-addition trailer:
// count, bitmap, then one open-type container per set bit. For bit i with
// i < len(known), known[i] is invoked with the container's content — but
// only when the container is non-empty; an empty container for a set bit
// means "no value", not a decode error. Bits beyond len(known) belong to a
// newer schema version: their containers are consumed either way (the
// stream position must advance past them) and their bytes are returned
// when Options.PreserveUnknownExtensions is set, discarded otherwise.
func (d *Decoder) DecodeExtensionAdditions(known []func(body []byte) error) ([][]byte, error) {
	bitmap, err := d.DecodeExtensionBitmap()
	if err != nil {
		return nil, err
	}
	var unknown [][]byte
	for i, set := range bitmap {
		if !set {
			continue
		}
		body, err := d.DecodeOpenType()
		if err != nil {
			return nil, err
		}
		if i < len(known) {
			if len(body) > 0 {
				if err := known[i](body); err != nil {
					return nil, err
				}
			}
			continue
		}
		if d.opts.PreserveUnknownExtensions {
			unknown = append(unknown, body)
		}
	}
	return unknown, nil
}

// 20 Encoding the sequence-of / set-of type
//
// SEQUENCE OF carries no structural state of its own beyond a length
// determinant: EncodeSequenceOfHeader/DecodeSequenceOfHeader just expose
// EncodeLengthDeterminant/DecodeLengthDeterminant under the clause-20 name,
// leaving the element loop to the generated caller since only it knows the
// element codec.

// EncodeSequenceOfHeader writes one length-determinant segment for a
// SEQUENCE OF / SET OF of n remaining elements, bounded by lb/ub (nil/nil
// for unconstrained). It returns how many of those n elements the caller
// must encode before calling it again (when more is true) with the rest.
func (e *Encoder) EncodeSequenceOfHeader(n uint64, lb, ub *uint64) (segment uint64, more bool, err error) {
	pending, err := e.EncodeLengthDeterminant(n, lb, ub)
	if err != nil {
		return 0, false, err
	}
	if pending == 0 {
		return n, false, nil
	}
	return n - pending, true, nil
}

// DecodeSequenceOfHeader is the inverse of EncodeSequenceOfHeader. Because a
// SEQUENCE OF's length determinant can fragment like any other, the caller
// must loop: keep calling DecodeSequenceOfHeader-returned count elements,
// then re-invoke while more is true.
func (d *Decoder) DecodeSequenceOfHeader(lb, ub *uint64) (count uint64, more bool, err error) {
	return d.DecodeLengthDeterminant(lb, ub)
}

// 12.3 / Annex: encoding an open type
//
// An open type value is always octet-aligned regardless of the ALIGNED/
// UNALIGNED variant in force, and is wrapped in an unconstrained-length
// octet string whose contents are a complete, self-contained PER encoding
// of the underlying value. Generated code uses this to carry extension
// additions and ANY DEFINED BY-style fields (RasMessage's GenericData, H.235
// CryptoToken's token bytes) without the outer schema needing to know the
// inner type.

// EncodeOpenType wraps a pre-encoded value's bytes as an open type field.
func (e *Encoder) EncodeOpenType(data []byte) error {
	if err := e.codec.Align(); err != nil {
		return e.fail(EndOfBuffer, err)
	}
	n := uint64(len(data))
	if n < FRAGMENT_SIZE {
		if _, err := e.EncodeUnconstrainedLength(n); err != nil {
			return err
		}
		if err := e.codec.WriteBytes(data); err != nil {
			return e.fail(EndOfBuffer, err)
		}
		e.sink.OpenType("OPEN TYPE", data)
		return nil
	}

	offset := 0
	for {
		remaining := uint64(len(data) - offset)
		pending, err := e.EncodeUnconstrainedLength(remaining)
		if err != nil {
			return err
		}
		segment := remaining - pending
		if err := e.codec.WriteBytes(data[offset : uint64(offset)+segment]); err != nil {
			return e.fail(EndOfBuffer, err)
		}
		offset += int(segment)
		if pending == 0 {
			break
		}
	}
	e.sink.OpenType("OPEN TYPE", data)
	return nil
}

// DecodeOpenType is the inverse of EncodeOpenType, returning the raw
// contained bytes for the caller to decode against the type it expects (or
// to retain verbatim, for an extension addition the local schema does not
// recognize).
func (d *Decoder) DecodeOpenType() ([]byte, error) {
	if err := d.codec.Advance(); err != nil {
		return nil, d.fail(EndOfBuffer, err)
	}
	var data []byte
	for {
		n, more, err := d.DecodeUnconstrainedLength()
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
	d.sink.OpenType("OPEN TYPE", data)
	return data, nil
}
