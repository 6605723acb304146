package hibag

import (
	"math"
)

// haploPair refers to one candidate haplotype from each of a sample's two
// classes by index into the doubled list of the current round. The doubled
// list is never resized while the pair is alive.
type haploPair struct {
	I1, I2 int32
}

// samplePairs is the set of haplotype pairs that can explain one in-bag
// sample over the markers accepted so far.
type samplePairs struct {
	Sample int
	Weight int
	Class1 int
	Class2 int
	Pairs  []haploPair

	// offset of the sample's first pair in the per-trial flag and frequency
	// buffers
	offset int
}

func (s *samplePairs) sameHaplotype(p haploPair) bool {
	return s.Class1 == s.Class2 && p.I1 == p.I2
}

// EM estimates haplotype frequencies under genotype ambiguity. Its pair sets
// are built once per search round by PrepareHaplotypes and are read-only
// afterwards, so several trials may share one EM value.
type EM struct {
	// MaxIterations caps the iteration index; zero means EMMaxIterations.
	MaxIterations int

	// OnIteration, if set, receives the log-likelihood computed at the start
	// of each iteration.
	OnIteration func(iter int, logLik float64)

	samples []samplePairs
	nPairs  int
	next    HaplotypeList
}

// emTrial is the private state of one candidate marker: the doubled
// haplotype list with its own frequencies and the per-pair compatibility
// flags and joint frequencies.
type emTrial struct {
	haplo HaplotypeList
	flag  []bool
	freq  []float64
}

// PrepareHaplotypes doubles cur for the next candidate marker and, for every
// sample with a positive weight, keeps the haplotype pairs of its two classes
// at the minimum distance from its genotype over the current markers. The
// returned list is the template shared by all trials of the round.
func (em *EM) PrepareHaplotypes(cur *HaplotypeList, geno *GenotypeList, hla []HLAType) *HaplotypeList {
	if len(geno.List) != len(hla) {
		panic("hibag: genotype and class lists disagree on the number of samples")
	}
	em.next = cur.Double()
	em.samples = em.samples[:0]
	em.nPairs = 0
	var dist []int
	for i := range geno.List {
		g := &geno.List[i]
		if g.Weight <= 0 {
			continue
		}
		var sp samplePairs
		sp.Sample, sp.Weight = i, g.Weight
		sp.Class1, sp.Class2 = hla[i].Allele1, hla[i].Allele2
		dist = em.collectPairs(&sp, g, cur.NumMarker, dist)
		if len(sp.Pairs) == 0 {
			continue
		}
		sp.offset = em.nPairs
		em.nPairs += len(sp.Pairs)
		em.samples = append(em.samples, sp)
	}
	return &em.next
}

// collectPairs fills sp.Pairs with the pairs at minimum distance. Exact
// matches are kept when there are any; otherwise the nearest pairs stand in
// for them.
func (em *EM) collectPairs(sp *samplePairs, g *Genotype, n int, dist []int) []int {
	l1 := em.next.Lists[sp.Class1]
	l2 := em.next.Lists[sp.Class2]
	dist = dist[:0]
	minDiff := 4 * n
	if sp.Class1 != sp.Class2 {
		var d8 [8]int
		for i := range l1 {
			j := 0
			for ; j+8 <= len(l2); j += 8 {
				g.distance8(n, &l1[i].Bits, l2[j:j+8], &d8)
				dist = append(dist, d8[:]...)
			}
			for ; j < len(l2); j++ {
				dist = append(dist, g.distance(n, &l1[i].Bits, &l2[j].Bits))
			}
		}
		for _, d := range dist {
			if d < minDiff {
				minDiff = d
			}
		}
		k := 0
		for i := range l1 {
			for j := range l2 {
				if dist[k] == minDiff {
					sp.Pairs = append(sp.Pairs, haploPair{int32(i), int32(j)})
				}
				k++
			}
		}
		return dist
	}

	for i := range l1 {
		for j := i; j < len(l1); j++ {
			d := g.distance(n, &l1[i].Bits, &l1[j].Bits)
			if d < minDiff {
				minDiff = d
			}
			dist = append(dist, d)
		}
	}
	k := 0
	for i := range l1 {
		for j := i; j < len(l1); j++ {
			if dist[k] == minDiff {
				sp.Pairs = append(sp.Pairs, haploPair{int32(i), int32(j)})
			}
			k++
		}
	}
	return dist
}

func (em *EM) newTrial() *emTrial {
	t := &emTrial{}
	t.reset(em)
	return t
}

// reset sizes the trial buffers for the current round.
func (t *emTrial) reset(em *EM) {
	t.haplo.copyFrom(&em.next)
	if cap(t.flag) < em.nPairs {
		t.flag = make([]bool, em.nPairs)
		t.freq = make([]float64, em.nPairs)
	}
	t.flag = t.flag[:em.nPairs]
	t.freq = t.freq[:em.nPairs]
}

// PrepareNewMarker initializes t for the candidate marker: it reports false
// when the marker is monomorphic among the in-bag samples. Otherwise the
// doubled frequencies are split by the marker's allele frequency and every
// pair is flagged compatible when it reproduces the sample's genotype at the
// new marker, or when that genotype is missing.
func (em *EM) PrepareNewMarker(t *emTrial, marker int, cur *HaplotypeList, mat *GenoMatrix, geno *GenotypeList) bool {
	if marker < 0 || marker >= mat.NumMarker {
		panic("hibag: candidate marker out of range")
	}
	if mat.NumSample != len(geno.List) {
		panic("hibag: genotype list and matrix disagree on the number of samples")
	}

	alleleCnt, validCnt := 0, 0
	for i := range geno.List {
		w := geno.List[i].Weight
		if w <= 0 {
			continue
		}
		if g := mat.At(i, marker); isCalled(g) {
			alleleCnt += int(g) * w
			validCnt += 2 * w
		}
	}
	if alleleCnt == 0 || alleleCnt == validCnt {
		return false
	}

	t.reset(em)
	cur.initDoubledFreq(&t.haplo, float64(alleleCnt)/float64(validCnt))

	idx := t.haplo.NumMarker - 1
	for s := range em.samples {
		sp := &em.samples[s]
		flag := t.flag[sp.offset : sp.offset+len(sp.Pairs)]
		g := mat.At(sp.Sample, marker)
		if !isCalled(g) {
			for k := range flag {
				flag[k] = true
			}
			continue
		}
		l1, l2 := t.haplo.Lists[sp.Class1], t.haplo.Lists[sp.Class2]
		for k, p := range sp.Pairs {
			flag[k] = int8(l1[p.I1].Bits.bit(idx)+l2[p.I2].Bits.bit(idx)) == g
		}
	}
	return true
}

// ExpectationMaximization iterates on t.haplo until the log-likelihood
// changes by no more than the tolerance fixed at iteration 0, or the
// iteration cap is reached. It returns the final iteration index and
// log-likelihood.
func (em *EM) ExpectationMaximization(t *emTrial) (int, float64) {
	maxIter := em.MaxIterations
	if maxIter <= 0 {
		maxIter = EMMaxIterations
	}
	if len(em.samples) == 0 {
		return 0, 0
	}
	h := &t.haplo
	convTol, logLik := 0.0, -1e+30

	for iter := 0; iter <= maxIter; iter++ {
		oldLogLik := logLik
		h.SaveClearFrequency()

		total := 0
		logLik = 0
		for s := range em.samples {
			sp := &em.samples[s]
			total += sp.Weight
			l1, l2 := h.Lists[sp.Class1], h.Lists[sp.Class2]
			flag := t.flag[sp.offset : sp.offset+len(sp.Pairs)]
			freq := t.freq[sp.offset : sp.offset+len(sp.Pairs)]

			psum := 0.0
			for k, p := range sp.Pairs {
				if !flag[k] {
					continue
				}
				f := l1[p.I1].OldFreq * l2[p.I2].OldFreq
				if !sp.sameHaplotype(p) {
					f *= 2
				}
				freq[k] = f
				psum += f
			}
			if !(psum > 0) {
				panic("hibag: EM found no compatible haplotype pair with positive frequency")
			}
			logLik += float64(sp.Weight) * math.Log(psum)

			scale := float64(sp.Weight) / psum
			for k, p := range sp.Pairs {
				if flag[k] {
					r := freq[k] * scale
					l1[p.I1].Freq += r
					l2[p.I2].Freq += r
				}
			}
		}

		h.ScaleFrequency(0.5 / float64(total))
		if em.OnIteration != nil {
			em.OnIteration(iter, logLik)
		}

		if iter > 0 {
			if math.Abs(logLik-oldLogLik) <= convTol {
				return iter, logLik
			}
		} else {
			convTol = EMRelTol * (math.Abs(logLik) + EMRelTol)
			if convTol < 0 {
				convTol = 0
			}
		}
	}
	return maxIter, logLik
}
