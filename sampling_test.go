package hibag

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

// cycleRandom replays a fixed sequence of uniform values.
type cycleRandom struct {
	values []float64
	next   int
}

func (r *cycleRandom) Float64() float64 {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

func selection(s *Sampling) []int {
	out := make([]int, s.NumSelected())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

func TestSamplingSelectAll(t *testing.T) {
	s := NewSampling(4)
	s.RandomSelect(10, nil)
	if n := s.NumSelected(); n != 4 {
		t.Errorf("Got %d selected, expected %d", n, 4)
	}
	if got := selection(s); !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Errorf("Got %v, expected %v", got, []int{0, 1, 2, 3})
	}

	s.RemoveSelection()
	if s.Total() != 0 || s.NumSelected() != 0 {
		t.Errorf("Got total %d, selected %d, expected 0, 0", s.Total(), s.NumSelected())
	}
}

func TestSamplingWithoutReplacement(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	s := NewSampling(20)

	seen := map[int]bool{}
	for s.Total() > 0 {
		s.RandomSelect(3, rnd)
		for _, v := range selection(s) {
			if seen[v] {
				t.Fatalf("Marker %d drawn twice", v)
			}
			seen[v] = true
		}
		s.RemoveSelection()
	}
	if len(seen) != 20 {
		t.Errorf("Got %d distinct markers, expected %d", len(seen), 20)
	}
}

func TestSamplingRemove(t *testing.T) {
	s := NewSampling(5)
	s.RandomSelect(2, &cycleRandom{values: []float64{0}})
	// The first draw swaps 0 to the end, the second swaps 4 to position 3.
	if got := selection(s); !reflect.DeepEqual(got, []int{4, 0}) {
		t.Fatalf("Got %v, expected %v", got, []int{4, 0})
	}

	s.Remove(1)
	if s.Total() != 4 || s.NumSelected() != 1 {
		t.Errorf("Got total %d, selected %d, expected 4, 1", s.Total(), s.NumSelected())
	}
	if got := s.At(0); got != 4 {
		t.Errorf("Got %d, expected %d", got, 4)
	}
}

func TestSamplingRemoveFlagged(t *testing.T) {
	s := NewSampling(6)
	s.RandomSelect(6, nil)
	s.Flag(1)
	s.Flag(4)
	if s.At(1) >= 0 {
		t.Errorf("Flagged marker still reads as %d", s.At(1))
	}

	s.RemoveFlagged()
	want := []int{0, 2, 3, 5}
	if got := selection(s); !reflect.DeepEqual(got, want) {
		t.Errorf("Got %v, expected %v", got, want)
	}

	s.RemoveSelection()
	s.Init(3)
	got := selection(s)
	sort.Ints(got)
	if s.Total() != 3 || len(got) != 0 {
		t.Errorf("Init left total %d and selection %v", s.Total(), got)
	}
}
