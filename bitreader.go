package hibag

import (
	"io"
)

// bitReader reads bits least significant first, the order in which PLINK
// packs genotype codes into a byte.
type bitReader struct {
	reader io.ByteReader
	byte   byte
	offset byte

	errCache error
	lastBit  bool
}

func newBitReader(r io.ByteReader) *bitReader {
	return &bitReader{reader: r}
}

func (r *bitReader) ReadBit() (bool, error) {
	if r.offset == 8 {
		r.offset = 0
	}
	if r.offset == 0 {
		if r.byte, r.errCache = r.reader.ReadByte(); r.errCache != nil {
			return false, r.errCache
		}
	}
	r.lastBit = (r.byte & (1 << r.offset)) != 0
	r.offset++
	return r.lastBit, nil
}

// ReadCode returns the next 2-bit code; the first bit read is the low bit.
func (r *bitReader) ReadCode() (uint8, error) {
	var code uint8
	for i := uint(0); i < 2; i++ {
		r.lastBit, r.errCache = r.ReadBit()
		if r.errCache != nil {
			return 0, r.errCache
		}
		if r.lastBit {
			code |= 1 << i
		}
	}
	return code, nil
}

// Align drops the unread bits of the current byte.
func (r *bitReader) Align() {
	r.offset = 0
}
