package hibag

import (
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// Genotype codes of a .bed block.
const (
	bedHomozygousA1 = 0
	bedMissing      = 1
	bedHeterozygous = 2
	bedHomozygousA2 = 3
)

// VariantReader decodes the .bed variant blocks of a PLINK fileset in file
// order. Each block holds one 2-bit code per sample, padded to a byte.
type VariantReader struct {
	VariantsSeen int
	p            *PLINK
	bits         *bitReader
	err          error

	// Cached values
	buffer []int8
}

func (p *PLINK) NewVariantReader() *VariantReader {
	vr := &VariantReader{
		p:      p,
		bits:   newBitReader(p.reader),
		buffer: make([]int8, p.NSamples),
	}

	return vr
}

func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the A1 allele counts of the next variant, with Missing for
// uncalled samples, or nil at the end of the file or on error. The returned
// slice is reused by the next call.
func (vr *VariantReader) Read() []int8 {
	if vr.err != nil || vr.VariantsSeen >= vr.p.NMarkers {
		return nil
	}

	for i := range vr.buffer {
		code, err := vr.bits.ReadCode()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			vr.err = pfx.Err(fmt.Errorf("variant %d, sample %d: %w", vr.VariantsSeen, i, err))
			return nil
		}
		vr.buffer[i] = alleleCount(code)
	}
	vr.bits.Align()

	vr.VariantsSeen++
	return vr.buffer
}

func alleleCount(code uint8) int8 {
	switch code {
	case bedHomozygousA1:
		return 2
	case bedHeterozygous:
		return 1
	case bedHomozygousA2:
		return 0
	}
	return Missing
}
