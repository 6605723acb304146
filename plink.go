package hibag

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// MagicNumber contains the value required to confirm that a file is a
// variant-major PLINK .bed file
const MagicNumber = "\x6c\x1b\x01"

// PLINK is the main object used for parsing a PLINK binary fileset
// (prefix.bed, prefix.bim, prefix.fam).
type PLINK struct {
	Prefix   string
	Markers  []Marker
	Samples  []Sample
	NMarkers int
	NSamples int

	bed    io.ReadCloser
	reader *bufio.Reader
}

// OpenPLINK reads the marker and sample tables of the fileset at prefix and
// opens its .bed file positioned at the first variant block. Any of the paths
// may live on Google Storage.
func OpenPLINK(ctx context.Context, prefix string) (*PLINK, error) {
	p := &PLINK{
		Prefix: prefix,
	}

	var err error
	if p.Markers, err = readTableFile(ctx, prefix+".bim", ReadMarkers); err != nil {
		return nil, pfx.Err(err)
	}
	if p.Samples, err = readTableFile(ctx, prefix+".fam", ReadSamples); err != nil {
		return nil, pfx.Err(err)
	}
	p.NMarkers = len(p.Markers)
	p.NSamples = len(p.Samples)

	if p.bed, err = openInput(ctx, prefix+".bed"); err != nil {
		return nil, pfx.Err(err)
	}
	p.reader = bufio.NewReader(p.bed)

	if err := p.populateHeader(); err != nil {
		p.bed.Close()
		return nil, pfx.Err(err)
	}

	return p, nil
}

func (p *PLINK) Close() error {
	return p.bed.Close()
}

func (p *PLINK) populateHeader() error {
	buffer := make([]byte, len(MagicNumber))
	if _, err := io.ReadFull(p.reader, buffer); err != nil {
		return pfx.Err(err)
	}
	if MagicNumber != string(buffer) {
		return pfx.Err(fmt.Errorf("The .bed header is expected to resolve to the Magic Number %v of a variant-major file, but instead resolved to byte slice %v", []byte(MagicNumber), buffer))
	}
	return nil
}

func readTableFile[T any](ctx context.Context, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := openInput(ctx, path)
	if err != nil {
		return zero, err
	}
	defer rc.Close()

	out, err := parse(rc)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ReadGenoMatrix reads the remaining variant blocks and returns the
// sample-major matrix of the markers listed in keep, in that order. A nil
// keep selects every marker. Indices may not repeat.
func (p *PLINK) ReadGenoMatrix(keep []int) (*GenoMatrix, error) {
	if keep == nil {
		keep = make([]int, p.NMarkers)
		for i := range keep {
			keep[i] = i
		}
	}

	column := make([]int, p.NMarkers)
	for i := range column {
		column[i] = -1
	}
	for j, k := range keep {
		if k < 0 || k >= p.NMarkers {
			return nil, pfx.Err(fmt.Errorf("%w: marker index %d out of range [0, %d)", ErrInvalidArgument, k, p.NMarkers))
		}
		if column[k] >= 0 {
			return nil, pfx.Err(fmt.Errorf("%w: marker index %d listed twice", ErrInvalidArgument, k))
		}
		column[k] = j
	}

	mat, err := NewGenoMatrix(len(keep), p.NSamples, make([]int8, len(keep)*p.NSamples))
	if err != nil {
		return nil, err
	}

	vr := p.NewVariantReader()
	for {
		v := vr.Read()
		if v == nil {
			break
		}
		j := column[vr.VariantsSeen-1]
		if j < 0 {
			continue
		}
		for i, g := range v {
			mat.Data[i*mat.NumMarker+j] = g
		}
	}
	if err := vr.Error(); err != nil {
		return nil, pfx.Err(err)
	}
	if vr.VariantsSeen != p.NMarkers {
		return nil, pfx.Err(fmt.Errorf("%s.bed holds %d variants, %s.bim lists %d", p.Prefix, vr.VariantsSeen, p.Prefix, p.NMarkers))
	}

	return mat, nil
}
