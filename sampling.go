package hibag

// Sampling is a pool of candidate marker indices for sampling without
// replacement. The last NumSelected entries are the most recent draw; the
// rest have not been drawn.
type Sampling struct {
	idx  []int
	mtry int
}

// NewSampling returns a pool holding 0..n-1.
func NewSampling(n int) *Sampling {
	s := &Sampling{}
	s.Init(n)
	return s
}

// Init refills the pool with 0..n-1 and clears the selection.
func (s *Sampling) Init(n int) {
	s.mtry = 0
	if cap(s.idx) < n {
		s.idx = make([]int, n)
	}
	s.idx = s.idx[:n]
	for i := range s.idx {
		s.idx[i] = i
	}
}

// Total is the number of markers still in the pool.
func (s *Sampling) Total() int {
	return len(s.idx)
}

// RandomSelect draws m markers uniformly without replacement into the
// selection. Drawing at least the whole pool selects it as is.
func (s *Sampling) RandomSelect(m int, rnd Random) {
	n := len(s.idx)
	if m > n {
		m = n
	}
	if m < n {
		for i := 0; i < m; i++ {
			k := randomNum(rnd, n-i)
			s.idx[k], s.idx[n-i-1] = s.idx[n-i-1], s.idx[k]
		}
	}
	s.mtry = m
}

// NumSelected is the size of the current selection.
func (s *Sampling) NumSelected() int {
	return s.mtry
}

// At returns the i-th selected marker, negative if it has been flagged.
func (s *Sampling) At(i int) int {
	return s.idx[len(s.idx)-s.mtry+i]
}

// Flag marks the i-th selected marker for removal by RemoveFlagged.
func (s *Sampling) Flag(i int) {
	s.idx[len(s.idx)-s.mtry+i] = -1
}

// Remove drops the i-th selected marker from the pool.
func (s *Sampling) Remove(i int) {
	k := len(s.idx) - s.mtry + i
	s.idx = append(s.idx[:k], s.idx[k+1:]...)
	s.mtry--
}

// RemoveSelection drops the whole selection from the pool.
func (s *Sampling) RemoveSelection() {
	s.idx = s.idx[:len(s.idx)-s.mtry]
	s.mtry = 0
}

// RemoveFlagged drops the flagged markers of the selection, keeping the
// order of the others.
func (s *Sampling) RemoveFlagged() {
	start := len(s.idx) - s.mtry
	j := start
	for _, v := range s.idx[start:] {
		if v >= 0 {
			s.idx[j] = v
			j++
		}
	}
	s.mtry -= len(s.idx) - j
	s.idx = s.idx[:j]
}
