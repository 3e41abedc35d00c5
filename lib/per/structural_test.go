package per

import (
	"bytes"
	"testing"
)

// Fixed wire form of the extension-addition trailer, checked against
// literal bytes rather than a round-trip so an alignment bug that is
// symmetric in encoder and decoder still fails. Layout under the ALIGNED
// variant: two marker bits (standing in for a preamble), the
// normally-small-length count (1 -> bits 0 000000), zero padding to the
// next byte boundary, the one-bit presence bitmap, then the open type
// (aligned, one length octet, the contents).
func TestExtensionAdditionsWireFormat(t *testing.T) {
	want := []byte{0xC0, 0x00, 0x80, 0x02, 0xAA, 0xBB}

	enc := NewEncoder(true)
	if err := enc.codec.Write(1, 1); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if err := enc.codec.Write(1, 1); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if err := enc.EncodeExtensionAdditions([][]byte{{0xAA, 0xBB}}, nil); err != nil {
		t.Fatalf("EncodeExtensionAdditions error = %v", err)
	}
	if !bytes.Equal(enc.Bytes(), want) {
		t.Fatalf("encoded = % x, want % x (bitmap must start at a byte boundary)", enc.Bytes(), want)
	}

	dec := NewDecoder(want, true)
	for i := 0; i < 2; i++ {
		bit, err := dec.codec.Read(1)
		if err != nil || bit != 1 {
			t.Fatalf("marker bit %d = %d, %v", i, bit, err)
		}
	}
	var body []byte
	known := []func([]byte) error{
		func(b []byte) error { body = b; return nil },
	}
	unknown, err := dec.DecodeExtensionAdditions(known)
	if err != nil {
		t.Fatalf("DecodeExtensionAdditions error = %v", err)
	}
	if !bytes.Equal(body, []byte{0xAA, 0xBB}) {
		t.Errorf("known addition body = % x, want aa bb", body)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v, want empty", unknown)
	}
	if got := dec.BitsConsumed(); got != uint64(len(want))*8 {
		t.Errorf("BitsConsumed = %d, want %d", got, uint64(len(want))*8)
	}
}

// The count field itself is not aligned: a two-addition bitmap after a
// single marker bit packs the count into the same byte, pads, then emits
// the bitmap byte.
func TestExtensionBitmapCountStaysUnaligned(t *testing.T) {
	enc := NewEncoder(true)
	if err := enc.codec.Write(1, 0); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if err := enc.EncodeExtensionBitmap([]bool{true, false}); err != nil {
		t.Fatalf("EncodeExtensionBitmap error = %v", err)
	}
	if err := enc.codec.Align(); err != nil {
		t.Fatalf("Align error = %v", err)
	}
	// 0 | 0 000001 (count 2) -> byte 0x01, pad, bitmap 10 -> byte 0x80.
	want := []byte{0x01, 0x80}
	if !bytes.Equal(enc.Bytes(), want) {
		t.Fatalf("encoded = % x, want % x", enc.Bytes(), want)
	}

	dec := NewDecoder(want, true)
	if _, err := dec.codec.Read(1); err != nil {
		t.Fatalf("Read error = %v", err)
	}
	bitmap, err := dec.DecodeExtensionBitmap()
	if err != nil {
		t.Fatalf("DecodeExtensionBitmap error = %v", err)
	}
	if len(bitmap) != 2 || !bitmap[0] || bitmap[1] {
		t.Errorf("bitmap = %v, want [true false]", bitmap)
	}
}
