package hibag

// HLAType is a pair of allele class indices, either the truth of a training
// sample or a prediction. NoCall marks a missing allele.
type HLAType struct {
	Allele1 int
	Allele2 int
}

// IsCalled reports whether both alleles are set.
func (t HLAType) IsCalled() bool {
	return t.Allele1 != NoCall && t.Allele2 != NoCall
}

// Matches counts how many alleles of t (0, 1 or 2) are found in truth, each
// allele of truth used at most once.
func (t HLAType) Matches(truth HLAType) int {
	p1, p2 := t.Allele1, t.Allele2
	t1, t2 := truth.Allele1, truth.Allele2
	cnt := 0
	if p1 == t1 || p1 == t2 {
		cnt = 1
		if p1 == t1 {
			t1 = NoCall - 1
		} else {
			t2 = NoCall - 1
		}
	}
	if p2 == t1 || p2 == t2 {
		cnt++
	}
	return cnt
}
