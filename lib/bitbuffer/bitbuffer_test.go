package bitbuffer

import (
	"bytes"
	"fmt"
	"testing"
)

// MSB-first packing is the one invariant everything above this package
// leans on, so it gets a literal-byte check rather than a round-trip.
func TestWritePacksMSBFirst(t *testing.T) {
	w := CreateWriter()
	// 1 | 01 | 00001 -> 0b10100001, then an aligned octet.
	for _, f := range []struct {
		num   uint8
		value uint64
	}{{1, 1}, {2, 1}, {5, 1}} {
		if err := w.Write(f.num, f.value); err != nil {
			t.Fatalf("Write(%d, %d) failed: %v", f.num, f.value, err)
		}
	}
	if err := w.WriteBytes([]byte{0x5A}); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}
	want := []byte{0xA1, 0x5A}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = % x, want % x", w.Bytes(), want)
	}
	if w.NumWritten() != 16 {
		t.Errorf("NumWritten() = %d, want 16", w.NumWritten())
	}
}

// Every field width from 1 to 64 bits, written and read back across byte
// boundaries, for the value patterns that stress the packing differently:
// all zeros, the width itself, and the all-ones maximum for the width.
func TestWriteReadAllWidths(t *testing.T) {
	patterns := map[string]func(num uint8) uint64{
		"zero": func(uint8) uint64 { return 0 },
		"num":  func(num uint8) uint64 { return uint64(num) },
		"ones": func(num uint8) uint64 { return (1 << num) - 1 },
	}
	for name, value := range patterns {
		t.Run(name, func(t *testing.T) {
			w := CreateWriter()
			var total uint64
			for num := uint8(1); num <= 64; num++ {
				if err := w.Write(num, value(num)); err != nil {
					t.Fatalf("Write(%d) failed: %v", num, err)
				}
				total += uint64(num)
			}
			if w.NumWritten() != total {
				t.Fatalf("NumWritten() = %d, want %d", w.NumWritten(), total)
			}

			r := CreateReader(w.Bytes())
			for num := uint8(1); num <= 64; num++ {
				got, err := r.Read(num)
				if err != nil {
					t.Fatalf("Read(%d) failed: %v", num, err)
				}
				if want := value(num); got != want {
					t.Errorf("Read(%d) = %d, want %d", num, got, want)
				}
			}
			if r.NumRead() != total {
				t.Errorf("NumRead() = %d, want %d", r.NumRead(), total)
			}
		})
	}
}

// Interleaving sub-byte fields with whole-byte payloads exercises the
// slow (mid-byte) paths of WriteBytes/ReadBytes, which the PER codec hits
// whenever a bit-field precedes an unaligned octet string.
func TestInterleavedBitsAndBytes(t *testing.T) {
	w := CreateWriter()
	for num := uint8(1); num <= 64; num++ {
		if err := w.Write(num, uint64(num)); err != nil {
			t.Fatalf("Write(%d) failed: %v", num, err)
		}
		payload := fmt.Appendf(nil, "%0*x", (num+3)/4, uint64(num))
		if err := w.WriteBytes(payload); err != nil {
			t.Fatalf("WriteBytes after Write(%d) failed: %v", num, err)
		}
	}

	r := CreateReader(w.Bytes())
	for num := uint8(1); num <= 64; num++ {
		got, err := r.Read(num)
		if err != nil {
			t.Fatalf("Read(%d) failed: %v", num, err)
		}
		if got != uint64(num) {
			t.Errorf("Read(%d) = %d, want %d", num, got, num)
		}
		want := fmt.Appendf(nil, "%0*x", (num+3)/4, uint64(num))
		content, err := r.ReadBytes(len(want))
		if err != nil {
			t.Fatalf("ReadBytes after Read(%d) failed: %v", num, err)
		}
		if !bytes.Equal(content, want) {
			t.Errorf("ReadBytes = % x, want % x", content, want)
		}
	}
	if r.NumRead() != w.NumWritten() {
		t.Errorf("NumRead() = %d, want %d", r.NumRead(), w.NumWritten())
	}
}

func TestAlignPadsWithZeros(t *testing.T) {
	w := CreateWriter()
	if err := w.Write(3, 0b101); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Align(); err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if w.NumWritten() != 8 {
		t.Fatalf("NumWritten() after Align = %d, want 8", w.NumWritten())
	}
	// Idempotent at a byte boundary.
	if err := w.Align(); err != nil {
		t.Fatalf("second Align failed: %v", err)
	}
	if w.NumWritten() != 8 {
		t.Errorf("NumWritten() after second Align = %d, want 8", w.NumWritten())
	}
	if err := w.Write(1, 1); err != nil {
		t.Fatalf("Write after Align failed: %v", err)
	}
	if err := w.Align(); err != nil {
		t.Fatalf("final Align failed: %v", err)
	}
	want := []byte{0xA0, 0x80}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes() = % x, want % x", w.Bytes(), want)
	}
}

func TestReadPastEndFails(t *testing.T) {
	r := CreateReader([]byte{0xFF})
	if _, err := r.Read(8); err != nil {
		t.Fatalf("Read(8) failed: %v", err)
	}
	if _, err := r.Read(1); err == nil {
		t.Fatal("Read past end of buffer: expected error, got nil")
	}
	if _, err := CreateReader(nil).Read(1); err == nil {
		t.Fatal("Read from empty buffer: expected error, got nil")
	}
}
