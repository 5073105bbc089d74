package util

import (
	"errors"
	"fmt"
)

var ErrBitstreamOverrun = errors.New("bitstream overrun")

// BitReader reads MSB-first bit fields from an in-memory buffer.
// Reads past the end fail with ErrBitstreamOverrun instead of padding with zeros.
type BitReader struct {
	buf  []byte
	pos  int // bits consumed
	size int // total bits
}

func NewBitReader(buf []byte) *BitReader {
	return &BitReader{buf: buf, size: len(buf) * 8}
}

func (r *BitReader) ReadBit() (res uint, err error) {
	if r.pos >= r.size {
		return 0, ErrBitstreamOverrun
	}
	res = uint(r.buf[r.pos>>3]>>(7-r.pos&7)) & 1
	r.pos++
	return
}

// ReadBits reads n (at most 32) bits as an unsigned value.
func (r *BitReader) ReadBits(n int) (res uint32, err error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("bit width %d out of range", n)
	}
	if r.size-r.pos < n {
		return 0, fmt.Errorf("need %d bits at %d of %d: %w", n, r.pos, r.size, ErrBitstreamOverrun)
	}
	for i := 0; i < n; i++ {
		res = res<<1 | uint32(r.buf[r.pos>>3]>>(7-r.pos&7))&1
		r.pos++
	}
	return
}

func (r *BitReader) ReadFlag() (bool, error) {
	bit, err := r.ReadBit()
	return bit == 1, err
}

func (r *BitReader) Skip(n int) error {
	if n < 0 || r.size-r.pos < n {
		return fmt.Errorf("skip %d bits at %d of %d: %w", n, r.pos, r.size, ErrBitstreamOverrun)
	}
	r.pos += n
	return nil
}
