// Package bitbuffer is the L1 bit cursor the PER codec (lib/per) is built
// on: MSB-first read/write of arbitrary 1-64 bit fields over a growable
// byte slice, plus the byte-alignment and lookahead primitives aligned PER
// needs (EncodeOpenType's byte-align-then-length-prefix, Snapshot/Restore
// for read-ahead-then-rewind). Codec knows nothing
// about ASN.1; lib/per is the only caller.
package bitbuffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

const (
	enableTrace  = false
	bitsPerByte  = 8
	tmpArraySize = 8
)

// InitialBufferSize is the starting capacity a CreateWriter allocates.
var InitialBufferSize = 64

// Codec holds one bit-stream cursor, either accumulating written bits
// (CreateWriter) or consuming a fixed byte slice (CreateReader). offset
// tracks the bit position within the current byte: 0 means a fresh byte,
// 1-7 a partial byte, 8 a full byte not yet advanced past (advancement is
// deferred to the next Read/Write so Align/Advance stay O(1)).
type Codec struct {
	Buff    []byte
	offset  uint8
	written uint64
	read    uint64
}

// Trace prints cursor state when enableTrace is flipped on for local
// debugging; a no-op otherwise.
func (c *Codec) Trace(event, function, arguments string) {
	if !enableTrace {
		return
	}
	state := fmt.Sprintf("[%s %s] len=%d offset=%d written=%d read=%d",
		event, function, len(c.Buff), c.offset, c.written, c.read)
	if arguments != "" {
		state = state + " --> " + arguments
	}
	println(state)
}

// CreateWriter starts an empty Codec for encoding.
func CreateWriter() *Codec {
	return &Codec{
		Buff: make([]byte, 0, InitialBufferSize),
	}
}

// CreateReader starts a Codec for decoding data. data must begin at a byte
// boundary; PER input always does.
func CreateReader(data []byte) *Codec {
	return &Codec{
		Buff:   data,
		offset: 0,
	}
}

// Len returns the number of bytes currently backing the codec (written
// data plus, while reading, everything not yet consumed).
func (c *Codec) Len() int {
	return len(c.Buff)
}

// Cap returns the backing slice's capacity.
func (c *Codec) Cap() int {
	return cap(c.Buff)
}

// NumWritten returns the total bits written so far, partial bytes included.
func (c *Codec) NumWritten() uint64 {
	return c.written
}

// NumRead returns the total bits read so far, partial bytes included.
func (c *Codec) NumRead() uint64 {
	return c.read
}

// ByteIndex returns the whole-byte offset of the cursor: NumRead (while
// decoding) or NumWritten (while encoding) divided down to a byte count.
// lib/per's errors do not use it: they report the raw bit count
// (NumRead/NumWritten) as their offset.
func (c *Codec) ByteIndex() uint64 {
	bits := c.read
	if c.written > bits {
		bits = c.written
	}
	return bits / bitsPerByte
}

// BitIndex returns the cursor's sub-byte bit position (0-7) within the
// byte ByteIndex reports.
func (c *Codec) BitIndex() uint8 {
	bits := c.read
	if c.written > bits {
		bits = c.written
	}
	return uint8(bits % bitsPerByte)
}

// Bytes returns the encoded data, trimmed to the bytes actually written.
// Callers must Align() first if the last byte is partial.
func (c *Codec) Bytes() []byte {
	if c.written == 0 {
		return nil
	}
	return c.Buff
}

func (c *Codec) String() string {
	return fmt.Sprintf("Codec{Buff: len=%d, offset: %d, written: %d, read: %d}",
		len(c.Buff), c.offset, c.written, c.read)
}

// grow ensures room for n more bytes, doubling capacity (or taking the
// requested size if larger) so repeated appends stay amortized O(1).
func (c *Codec) grow(n int) {
	if enableTrace {
		c.Trace("ENTER", "grow", fmt.Sprintf("n=%d", n))
		defer c.Trace("EXIT", "grow", "")
	}
	if cap(c.Buff) < len(c.Buff)+n {
		capacity := max(cap(c.Buff)*2, len(c.Buff)+n)
		c.Buff = slices.Grow(c.Buff, capacity-len(c.Buff))
	}
	c.Buff = c.Buff[:len(c.Buff)+n]
}

func (c *Codec) incrementRead(bits uint64) {
	c.read += bits
}

func (c *Codec) incrementWrite(bits uint64) {
	c.written += bits
}

// Write packs the low num bits of value (1-64), MSB-first, continuing
// from the current cursor position. The byte-aligned case appends whole
// bytes directly; mid-byte writes fall back to bit-by-bit packing.
func (c *Codec) Write(num uint8, value uint64) error {
	if enableTrace {
		c.Trace("ENTER", "Write", fmt.Sprintf("bits=%d value=%d", num, value))
		defer c.Trace("EXIT", "Write", "")
	}
	if num == 0 || num > 64 {
		return errors.New("bit count must be between 1 and 64")
	}

	value = value & ((1 << num) - 1)

	if len(c.Buff) == 0 || c.offset == 8 {
		if c.offset == 8 {
			c.offset = 0
		}

		nbytes := (int(num) + 7) >> 3
		remainder := num & 7

		var tmp [tmpArraySize]byte
		binary.BigEndian.PutUint64(tmp[:], value<<(64-uint(num)))

		c.Buff = append(c.Buff, tmp[:nbytes]...)

		c.offset = uint8(remainder)
		if c.offset == 0 {
			c.offset = 8
		}
		c.incrementWrite(uint64(num))
		return nil
	}

	pending := num
	for pending > 0 {
		if c.offset == 8 || len(c.Buff) == 0 {
			c.grow(1)
			c.offset = 0
		}

		var (
			available = uint8(8 - c.offset)
			nbits     = min(pending, available)
			remaining = pending - nbits
			chunk     = uint8(value>>remaining) & ((1 << nbits) - 1)
			shift     = available - nbits
			pos       = len(c.Buff) - 1
		)

		c.Buff[pos] = c.Buff[pos] | (chunk << shift)
		c.offset = c.offset + nbits
		pending = pending - nbits
	}

	c.incrementWrite(uint64(num))
	return nil
}

// Read unpacks the next num bits (0-64), MSB-first, continuing from the
// current cursor position. num=0 returns 0 without consuming anything.
func (c *Codec) Read(num uint8) (uint64, error) {
	if enableTrace {
		c.Trace("ENTER", "Read", fmt.Sprintf("num=%d", num))
		defer c.Trace("EXIT", "Read", "")
	}
	if num == 0 {
		return 0, nil
	}
	if num > 64 {
		return 0, errors.New("bit count must be between 1 and 64")
	}

	if c.Len() == 0 {
		return 0, errors.New("no more data")
	}

	if len(c.Buff) == 0 || c.offset == 8 {
		if c.offset == 8 {
			if len(c.Buff) == 0 {
				return 0, errors.New("unexpected end of data")
			}
			c.Buff = c.Buff[1:]
			c.offset = 0
			if len(c.Buff) == 0 {
				return 0, errors.New("unexpected end of data")
			}
		}

		nbytes := (int(num) + 7) >> 3
		if nbytes > 0 {
			if len(c.Buff) < nbytes {
				return 0, errors.New("insufficient data")
			}
			var tmp [tmpArraySize]byte
			copy(tmp[0:nbytes], c.Buff[:nbytes])
			var (
				result    = binary.BigEndian.Uint64(tmp[:]) >> (64 - num)
				remainder = num % 8
			)
			// Keep one extra byte in the buffer, marked offset=8, so the
			// next call's slow path detects and advances past it instead
			// of eagerly reslicing here.
			c.Buff = c.Buff[nbytes-1:]
			if remainder == 0 {
				c.offset = 8
			} else {
				c.offset = remainder
			}

			c.incrementRead(uint64(num))
			return result, nil
		}
	}

	var (
		result  uint64
		pending = num
	)

	for pending > 0 {
		if c.offset == 8 {
			c.Buff = c.Buff[1:]
			c.offset = 0
			if len(c.Buff) == 0 {
				return 0, errors.New("unexpected end of data")
			}
		}

		var (
			remaining = uint8(8 - c.offset)
			reading   = min(pending, remaining)
			mask      = uint8((1 << reading) - 1)
			shift     = remaining - reading
			bits      = uint64((c.Buff[0] >> shift) & mask)
		)

		result = (result << reading) | bits

		c.offset = c.offset + reading
		pending = pending - reading
	}

	c.incrementRead(uint64(num))
	return result, nil
}

// WriteBytes appends full octets from the current offset. Does not align
// first — callers needing octet-aligned content (OCTET STRING, open type)
// call Align() themselves beforehand.
func (c *Codec) WriteBytes(data []byte) error {
	if enableTrace {
		c.Trace("ENTER", "WriteBytes", fmt.Sprintf("len(data)=%d", len(data)))
		defer c.Trace("EXIT", "WriteBytes", "")
	}
	if len(data) == 0 {
		return nil
	}

	if len(c.Buff) == 0 || c.offset == 8 {
		c.Buff = append(c.Buff, data...)
		c.incrementWrite(uint64(len(data) * 8))
		c.offset = 8
		return nil
	}

	for _, b := range data {
		if err := c.Write(8, uint64(b)); err != nil {
			return err
		}
	}
	return nil
}

// ReadBytes reads exactly n full octets from the current offset.
func (c *Codec) ReadBytes(n int) ([]byte, error) {
	if enableTrace {
		c.Trace("ENTER", "ReadBytes", fmt.Sprintf("n=%d", n))
		defer c.Trace("EXIT", "ReadBytes", "")
	}
	if n < 0 {
		return nil, errors.New("negative byte count")
	}
	if n == 0 {
		return []byte{}, nil
	}

	if c.offset == 0 || c.offset == 8 {
		if c.offset == 8 {
			if len(c.Buff) == 0 {
				return nil, errors.New("insufficient data")
			}
			c.Buff = c.Buff[1:]
			c.offset = 0
		}

		if len(c.Buff) < n {
			return nil, errors.New("insufficient data")
		}
		result := make([]byte, n)
		copy(result, c.Buff[:n])
		c.Buff = c.Buff[n:]
		c.incrementRead(uint64(n * 8))
		return result, nil
	}

	result := make([]byte, n)
	for i := range result {
		val, err := c.Read(8)
		if err != nil {
			return nil, err
		}
		result[i] = uint8(val)
	}
	return result, nil
}

// Align pads the current partial byte with zero bits, advancing the write
// cursor to the next byte boundary. A no-op if already aligned.
func (c *Codec) Align() error {
	if enableTrace {
		c.Trace("ENTER", "Align", "")
		defer c.Trace("EXIT", "Align", "")
	}
	if c.offset > 0 && c.offset < 8 {
		c.incrementWrite(uint64(8 - c.offset))
		c.offset = 8
	}
	return nil
}

// Advance is Align's read-side counterpart: skips the remaining bits of
// the current byte so the next Read starts at a boundary.
func (c *Codec) Advance() error {
	if enableTrace {
		c.Trace("ENTER", "Advance", "")
		defer c.Trace("EXIT", "Advance", "")
	}
	if c.offset > 0 {
		c.incrementRead(uint64(8 - c.offset))
		c.offset = 8
	}
	return nil
}

// Mark is an O(1) snapshot of a reading Codec's position: Read and its
// siblings only ever reslice Buff forward, never copy or mutate the
// backing array, so saving the slice header plus the scalar counters is
// enough to rewind later.
type Mark struct {
	buff    []byte
	offset  uint8
	written uint64
	read    uint64
}

// Snapshot captures the current position for a later Restore, so a caller
// can look ahead and rewind. lib/per exposes it as Decoder.Mark/Rewind.
func (c *Codec) Snapshot() Mark {
	return Mark{
		buff:    c.Buff,
		offset:  c.offset,
		written: c.written,
		read:    c.read,
	}
}

// Restore rewinds the Codec to a previously captured Mark.
func (c *Codec) Restore(m Mark) {
	c.Buff = m.buff
	c.offset = m.offset
	c.written = m.written
	c.read = m.read
}

// BitsRemaining returns the exact number of bits left to read, counting
// the bits of a partly consumed byte that have not been read yet.
func (c *Codec) BitsRemaining() uint64 {
	if len(c.Buff) == 0 {
		return 0
	}
	n := uint64(len(c.Buff)) * 8
	if c.offset > 0 {
		n -= uint64(c.offset)
	}
	return n
}

// Aligned reports whether the cursor sits on a byte boundary.
func (c *Codec) Aligned() bool {
	return c.offset == 0 || c.offset == 8
}
