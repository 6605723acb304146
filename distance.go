package hibag

import (
	"math"
	"math/bits"
	"sync"
)

// lowMask returns the mask of active bits in word w when n markers are active.
func lowMask(n, w int) uint64 {
	rem := n - 64*w
	if rem >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(rem)) - 1
}

// Distance counts, over the first n called markers, how many alleles the
// ordered haplotype pair (h1, h2) has to change to explain g. It is symmetric
// in h1 and h2 and zero for an exact match.
func (g *Genotype) Distance(n int, h1, h2 *Haplotype) int {
	if n < 0 || n > MaxMarkers {
		panic("hibag: invalid number of markers for distance")
	}
	return g.distance(n, &h1.Bits, &h2.Bits)
}

// distance is the unchecked kernel. For a called marker with genotype bits
// (s1, s2), mask selects markers where h1+h2 differs from s1+s2 and the two
// masked popcounts count the mismatching alleles.
func (g *Genotype) distance(n int, h1, h2 *bitPlane) int {
	ans := 0
	for w := 0; w < planeWords && 64*w < n; w++ {
		H1, H2 := h1[w], h2[w]
		S1, S2 := g.S1[w], g.S2[w]
		mask := ((H1 ^ S2) | (H2 ^ S1)) & g.Called[w] & lowMask(n, w)
		ans += bits.OnesCount64((H1^S1)&mask) + bits.OnesCount64((H2^S2)&mask)
	}
	return ans
}

// distance8 computes the distance between g and (h1, h2[k]) for eight
// consecutive haplotypes at once, walking the words once for all of them.
// bits.OnesCount64 is lowered to the POPCNT instruction where the platform
// has one. The result is identical to eight calls of distance.
func (g *Genotype) distance8(n int, h1 *bitPlane, h2 []Haplotype, out *[8]int) {
	_ = h2[7]
	*out = [8]int{}
	for w := 0; w < planeWords && 64*w < n; w++ {
		H1 := h1[w]
		S1, S2 := g.S1[w], g.S2[w]
		M := g.Called[w] & lowMask(n, w)
		m1 := H1 ^ S2
		v1 := H1 ^ S1
		for k := 0; k < 8; k++ {
			H2 := h2[k].Bits[w]
			mask := (m1 | (H2 ^ S1)) & M
			out[k] += bits.OnesCount64(v1&mask) + bits.OnesCount64((H2^S2)&mask)
		}
	}
}

// distance8Scalar is the reference implementation of distance8.
func (g *Genotype) distance8Scalar(n int, h1 *bitPlane, h2 []Haplotype, out *[8]int) {
	for k := 0; k < 8; k++ {
		out[k] = g.distance(n, h1, &h2[k].Bits)
	}
}

var (
	decayOnce  sync.Once
	decayTable []float64
)

// rareDecay returns MinRareFreq^d indexed by the distance d. The table is built
// once and must not be modified.
func rareDecay() []float64 {
	decayOnce.Do(func() {
		t := make([]float64, 2*MaxMarkers+1)
		lg := math.Log(MinRareFreq)
		for i := range t {
			t[i] = math.Exp(float64(i) * lg)
			if math.IsInf(t[i], 0) || math.IsNaN(t[i]) {
				t[i] = 0
			}
		}
		t[0] = 1
		decayTable = t
	})
	return decayTable
}
