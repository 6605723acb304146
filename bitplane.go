package hibag

import (
	"fmt"
	"strings"
)

// bitPlane holds one bit per marker, marker i at bit i%64 of word i/64.
type bitPlane [planeWords]uint64

// bit returns the bit at idx without checking it against the capacity. The
// caller guarantees idx < MaxMarkers.
func (p *bitPlane) bit(idx int) uint8 {
	return uint8(p[idx>>6]>>uint(idx&63)) & 0x01
}

func (p *bitPlane) setBit(idx int, val uint8) {
	w, r := idx>>6, uint(idx&63)
	p[w] = (p[w] &^ (1 << r)) | (uint64(val&0x01) << r)
}

func checkMarkerIndex(idx int) {
	if idx < 0 || idx >= MaxMarkers {
		panic(fmt.Sprintf("hibag: marker index %d outside [0, %d)", idx, MaxMarkers))
	}
}

// Genotype is the packed genotype of one sample over the active markers:
// S1 is set when at least one allele is present, S2 when both are, and Called
// when the marker was genotyped at all.
type Genotype struct {
	S1, S2, Called bitPlane

	// Weight is the bootstrap replication count of the sample.
	Weight int
}

// Marker returns the value of the marker at idx: 0, 1, 2 or Missing.
func (g *Genotype) Marker(idx int) int8 {
	checkMarkerIndex(idx)
	if g.Called.bit(idx) == 0 {
		return Missing
	}
	return int8(g.S1.bit(idx) + g.S2.bit(idx))
}

// SetMarker stores val at idx; values outside {0,1,2} clear the called bit.
func (g *Genotype) SetMarker(idx int, val int8) {
	checkMarkerIndex(idx)
	g.setMarker(idx, val)
}

func (g *Genotype) setMarker(idx int, val int8) {
	switch val {
	case 0:
		g.S1.setBit(idx, 0)
		g.S2.setBit(idx, 0)
		g.Called.setBit(idx, 1)
	case 1:
		g.S1.setBit(idx, 1)
		g.S2.setBit(idx, 0)
		g.Called.setBit(idx, 1)
	case 2:
		g.S1.setBit(idx, 1)
		g.S2.setBit(idx, 1)
		g.Called.setBit(idx, 1)
	default:
		g.S1.setBit(idx, 0)
		g.S2.setBit(idx, 0)
		g.Called.setBit(idx, 0)
	}
}

// pack fills the first len(index) markers from row[index[i]] and clears the
// rest of the planes.
func (g *Genotype) pack(row []int8, index []int) {
	if len(index) > MaxMarkers {
		panic(fmt.Sprintf("hibag: %d markers exceed the capacity %d", len(index), MaxMarkers))
	}
	g.S1, g.S2, g.Called = bitPlane{}, bitPlane{}, bitPlane{}
	for i, k := range index {
		w, r := i>>6, uint(i&63)
		switch row[k] {
		case 0:
			g.Called[w] |= 1 << r
		case 1:
			g.S1[w] |= 1 << r
			g.Called[w] |= 1 << r
		case 2:
			g.S1[w] |= 1 << r
			g.S2[w] |= 1 << r
			g.Called[w] |= 1 << r
		}
	}
}

// String renders the first n markers as '0', '1', '2' or '?'.
func (g *Genotype) String(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		v := g.Marker(i)
		if v == Missing {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('0' + byte(v))
		}
	}
	return sb.String()
}

// ParseGenotype is the inverse of String.
func ParseGenotype(s string) (Genotype, error) {
	var g Genotype
	if len(s) > MaxMarkers {
		return g, fmt.Errorf("%w: genotype string has %d markers, capacity is %d", ErrInvalidArgument, len(s), MaxMarkers)
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '0', '1', '2':
			g.setMarker(i, int8(c-'0'))
		case '?':
			g.setMarker(i, Missing)
		default:
			return g, fmt.Errorf("%w: genotype character %q at %d", ErrInvalidArgument, c, i)
		}
	}
	return g, nil
}

// GenotypeList is the packed genotypes of all training samples over the
// markers accepted so far.
type GenotypeList struct {
	List      []Genotype
	NumMarker int
}

func newGenotypeList(weights []int) GenotypeList {
	gl := GenotypeList{List: make([]Genotype, len(weights))}
	for i, w := range weights {
		gl.List[i].Weight = w
	}
	return gl
}

// AddMarker appends column marker of mat to every genotype.
func (gl *GenotypeList) AddMarker(marker int, mat *GenoMatrix) {
	if len(gl.List) != mat.NumSample {
		panic("hibag: genotype list and matrix disagree on the number of samples")
	}
	if gl.NumMarker >= MaxMarkers {
		panic("hibag: too many markers in genotype list")
	}
	for i := range gl.List {
		gl.List[i].setMarker(gl.NumMarker, mat.At(i, marker))
	}
	gl.NumMarker++
}

// ReduceMarker drops the last marker.
func (gl *GenotypeList) ReduceMarker() {
	if gl.NumMarker <= 0 {
		panic("hibag: no marker to remove from genotype list")
	}
	gl.NumMarker--
}

// copyFrom makes gl a private copy of src, reusing gl's storage.
func (gl *GenotypeList) copyFrom(src *GenotypeList) {
	if cap(gl.List) < len(src.List) {
		gl.List = make([]Genotype, len(src.List))
	}
	gl.List = gl.List[:len(src.List)]
	copy(gl.List, src.List)
	gl.NumMarker = src.NumMarker
}
