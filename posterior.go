package hibag

import (
	"gonum.org/v1/gonum/floats"
)

// pairMass is the unnormalized probability of the class pair (c1, c2) given
// g: the sum over haplotype pairs of their joint frequency, down-weighted by
// MinRareFreq per mismatching allele.
func pairMass(h *HaplotypeList, g *Genotype, c1, c2 int, decay []float64) float64 {
	n := h.NumMarker
	l1 := h.Lists[c1]
	sum := 0.0
	if c1 == c2 {
		for i := range l1 {
			for j := i; j < len(l1); j++ {
				f := l1[i].Freq * l1[j].Freq
				if i != j {
					f *= 2
				}
				sum += f * decay[g.distance(n, &l1[i].Bits, &l1[j].Bits)]
			}
		}
		return sum
	}

	l2 := h.Lists[c2]
	var d [8]int
	for i := range l1 {
		ss := 2 * l1[i].Freq
		j := 0
		for ; j+8 <= len(l2); j += 8 {
			g.distance8(n, &l1[i].Bits, l2[j:j+8], &d)
			for k := 0; k < 8; k++ {
				sum += ss * l2[j+k].Freq * decay[d[k]]
			}
		}
		for ; j < len(l2); j++ {
			sum += ss * l2[j].Freq * decay[g.distance(n, &l1[i].Bits, &l2[j].Bits)]
		}
	}
	return sum
}

// predictor holds the posterior buffers of one worker. post is the table of
// a single classifier, sum the weighted ensemble total.
type predictor struct {
	nClass int
	post   []float64
	sum    []float64
}

func newPredictor(nClass int) *predictor {
	if nClass <= 0 {
		panic("hibag: predictor needs at least one class")
	}
	n := NumClassPairs(nClass)
	return &predictor{
		nClass: nClass,
		post:   make([]float64, n),
		sum:    make([]float64, n),
	}
}

// postProb fills the posterior table of h for g, normalized to sum to one.
// An all-zero table stays zero.
func (p *predictor) postProb(h *HaplotypeList, g *Genotype) {
	decay := rareDecay()
	k := 0
	for c1 := 0; c1 < p.nClass; c1++ {
		for c2 := c1; c2 < p.nClass; c2++ {
			p.post[k] = pairMass(h, g, c1, c2, decay)
			k++
		}
	}
	if s := floats.Sum(p.post); s > 0 {
		floats.Scale(1/s, p.post)
	}
}

// bestGuess returns the class pair with the largest mass of h for g, the
// first one on ties. It returns a no-call when every mass is zero.
func (p *predictor) bestGuess(h *HaplotypeList, g *Genotype) HLAType {
	decay := rareDecay()
	best := HLAType{NoCall, NoCall}
	max := 0.0
	for c1 := 0; c1 < p.nClass; c1++ {
		for c2 := c1; c2 < p.nClass; c2++ {
			if prob := pairMass(h, g, c1, c2, decay); max < prob {
				max = prob
				best = HLAType{c1, c2}
			}
		}
	}
	return best
}

// postProbOf returns the posterior probability of the class pair t.
func (p *predictor) postProbOf(h *HaplotypeList, g *Genotype, t HLAType) float64 {
	decay := rareDecay()
	target := PairIndex(t.Allele1, t.Allele2, p.nClass)
	sum, prob := 0.0, 0.0
	k := 0
	for c1 := 0; c1 < p.nClass; c1++ {
		for c2 := c1; c2 < p.nClass; c2++ {
			m := pairMass(h, g, c1, c2, decay)
			if k == target {
				prob = m
			}
			sum += m
			k++
		}
	}
	return prob / sum
}

// tableBest returns the first maximum of a posterior table, or a no-call if
// the table has no positive entry.
func (p *predictor) tableBest(table []float64) HLAType {
	i := floats.MaxIdx(table)
	if !(table[i] > 0) {
		return HLAType{NoCall, NoCall}
	}
	k := 0
	for c1 := 0; c1 < p.nClass; c1++ {
		for c2 := c1; c2 < p.nClass; c2++ {
			if k == i {
				return HLAType{c1, c2}
			}
			k++
		}
	}
	return HLAType{NoCall, NoCall}
}

func (p *predictor) initSum() {
	for i := range p.sum {
		p.sum[i] = 0
	}
}

// addProbToSum adds the current table into the ensemble total.
func (p *predictor) addProbToSum(weight float64) {
	if weight > 0 {
		floats.AddScaled(p.sum, weight, p.post)
	}
}

// addVote adds a unit vote for t into the ensemble total.
func (p *predictor) addVote(t HLAType) {
	if !t.IsCalled() {
		return
	}
	p.sum[PairIndex(t.Allele1, t.Allele2, p.nClass)]++
}

// normalizeSum rescales the ensemble total to sum to one.
func (p *predictor) normalizeSum() {
	if s := floats.Sum(p.sum); s > 0 {
		floats.Scale(1/s, p.sum)
	}
}
