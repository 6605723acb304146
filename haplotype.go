package hibag

import (
	"fmt"
	"strings"
)

// Haplotype is one allele assignment over the active markers of its list.
type Haplotype struct {
	Bits bitPlane

	// Freq is the current frequency, OldFreq the frequency saved at the start
	// of an EM iteration.
	Freq    float64
	OldFreq float64
}

// Allele returns the allele (0 or 1) at idx.
func (h *Haplotype) Allele(idx int) uint8 {
	checkMarkerIndex(idx)
	return h.Bits.bit(idx)
}

// SetAllele sets the allele at idx; val must be 0 or 1.
func (h *Haplotype) SetAllele(idx int, val uint8) {
	checkMarkerIndex(idx)
	if val > 1 {
		panic("hibag: haplotype allele must be 0 or 1")
	}
	h.Bits.setBit(idx, val)
}

// String renders the first n alleles as '0'/'1'.
func (h *Haplotype) String(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte('0' + h.Allele(i))
	}
	return sb.String()
}

// ParseHaplotype reads a '0'/'1' string.
func ParseHaplotype(s string, freq float64) (Haplotype, error) {
	h := Haplotype{Freq: freq}
	if len(s) > MaxMarkers {
		return h, fmt.Errorf("%w: haplotype has %d markers, capacity is %d", ErrInvalidArgument, len(s), MaxMarkers)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '0' && c != '1' {
			return h, fmt.Errorf("%w: haplotype character %q at %d", ErrInvalidArgument, c, i)
		}
		h.Bits.setBit(i, c-'0')
	}
	return h, nil
}

// HaplotypeList holds the haplotypes of every allele class. All haplotypes
// have NumMarker active bits.
type HaplotypeList struct {
	Lists     [][]Haplotype
	NumMarker int
}

// NumHaplotypes returns the total number of haplotypes over all classes.
func (l *HaplotypeList) NumHaplotypes() int {
	n := 0
	for _, c := range l.Lists {
		n += len(c)
	}
	return n
}

// TotalFrequency sums the current frequencies over all classes.
func (l *HaplotypeList) TotalFrequency() float64 {
	sum := 0.0
	for _, c := range l.Lists {
		for j := range c {
			sum += c[j].Freq
		}
	}
	return sum
}

// Clone returns a deep copy.
func (l *HaplotypeList) Clone() HaplotypeList {
	out := HaplotypeList{Lists: make([][]Haplotype, len(l.Lists)), NumMarker: l.NumMarker}
	for i, c := range l.Lists {
		out.Lists[i] = append([]Haplotype(nil), c...)
	}
	return out
}

// copyFrom makes l a copy of src, reusing l's storage where it can.
func (l *HaplotypeList) copyFrom(src *HaplotypeList) {
	if len(l.Lists) != len(src.Lists) {
		l.Lists = make([][]Haplotype, len(src.Lists))
	}
	for i, c := range src.Lists {
		l.Lists[i] = append(l.Lists[i][:0], c...)
	}
	l.NumMarker = src.NumMarker
}

// Double appends one marker: every haplotype is replaced by two children
// carrying allele 0 (index 2j) and allele 1 (index 2j+1) at the new position.
// Children inherit the parent frequency; use initDoubledFreq to split it.
func (l *HaplotypeList) Double() HaplotypeList {
	if l.NumMarker >= MaxMarkers {
		panic("hibag: too many markers to double the haplotype list")
	}
	out := HaplotypeList{Lists: make([][]Haplotype, len(l.Lists)), NumMarker: l.NumMarker + 1}
	for i, src := range l.Lists {
		dst := make([]Haplotype, 2*len(src))
		for j := range src {
			dst[2*j] = src[j]
			dst[2*j].Bits.setBit(l.NumMarker, 0)
			dst[2*j+1] = src[j]
			dst[2*j+1].Bits.setBit(l.NumMarker, 1)
		}
		out.Lists[i] = dst
	}
	return out
}

// initDoubledFreq sets the frequencies of out, the doubled form of l, by
// splitting every parent frequency by the allele frequency of the new marker.
func (l *HaplotypeList) initDoubledFreq(out *HaplotypeList, afreq float64) {
	if len(l.Lists) != len(out.Lists) {
		panic("hibag: doubled haplotype list has the wrong number of classes")
	}
	p0, p1 := 1-afreq, afreq
	for i, src := range l.Lists {
		dst := out.Lists[i]
		if len(dst) != 2*len(src) {
			panic("hibag: doubled haplotype list has the wrong number of haplotypes")
		}
		for j := range src {
			dst[2*j].Freq = src[j].Freq*p0 + emInitFrac
			dst[2*j+1].Freq = src[j].Freq*p1 + emInitFrac
		}
	}
}

// MergeDouble collapses every sibling pair in which either child is rarer
// than rare into the more frequent child carrying their summed frequency.
// The search itself uses EraseDouble, which drops rare children instead.
func (l *HaplotypeList) MergeDouble(rare float64) HaplotypeList {
	out := HaplotypeList{Lists: make([][]Haplotype, len(l.Lists)), NumMarker: l.NumMarker}
	for i, src := range l.Lists {
		dst := make([]Haplotype, 0, len(src))
		for j := 0; j+1 < len(src); j += 2 {
			p0, p1 := &src[j], &src[j+1]
			if p0.Freq < rare || p1.Freq < rare {
				keep := *p1
				if p0.Freq >= p1.Freq {
					keep = *p0
				}
				keep.Freq = p0.Freq + p1.Freq
				dst = append(dst, keep)
			} else {
				dst = append(dst, *p0, *p1)
			}
		}
		out.Lists[i] = dst
	}
	return out
}

// EraseDouble works like MergeDouble but also drops merged pairs whose summed
// frequency is below MinRareFreq, and rescales the survivors to sum to one.
func (l *HaplotypeList) EraseDouble(rare float64) HaplotypeList {
	out := HaplotypeList{Lists: make([][]Haplotype, len(l.Lists)), NumMarker: l.NumMarker}
	sum := 0.0
	for i, src := range l.Lists {
		dst := make([]Haplotype, 0, len(src))
		for j := 0; j+1 < len(src); j += 2 {
			p0, p1 := &src[j], &src[j+1]
			f := p0.Freq + p1.Freq
			if p0.Freq < rare || p1.Freq < rare {
				if f >= MinRareFreq {
					keep := *p1
					if p0.Freq >= p1.Freq {
						keep = *p0
					}
					keep.Freq = f
					dst = append(dst, keep)
					sum += f
				}
			} else {
				dst = append(dst, *p0, *p1)
				sum += f
			}
		}
		out.Lists[i] = dst
	}
	if sum > 0 {
		out.ScaleFrequency(1 / sum)
	}
	return out
}

// SaveClearFrequency moves every current frequency to OldFreq and zeroes it.
func (l *HaplotypeList) SaveClearFrequency() {
	for _, c := range l.Lists {
		for j := range c {
			c[j].OldFreq = c[j].Freq
			c[j].Freq = 0
		}
	}
}

// ScaleFrequency multiplies every current frequency by scale.
func (l *HaplotypeList) ScaleFrequency(scale float64) {
	for _, c := range l.Lists {
		for j := range c {
			c[j].Freq *= scale
		}
	}
}
