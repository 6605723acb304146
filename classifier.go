package hibag

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Classifier is one member of the ensemble: the markers it selected in order,
// the haplotype frequencies fitted over them, the bootstrap weights of the
// training samples and its out-of-bag accuracy.
type Classifier struct {
	Markers  []int
	Haplo    HaplotypeList
	Weights  []int
	Accuracy float64
}

// NumMarkers is the number of selected markers.
func (c *Classifier) NumMarkers() int {
	return len(c.Markers)
}

// NumHaplotypes is the number of fitted haplotypes over all classes.
func (c *Classifier) NumHaplotypes() int {
	return c.Haplo.NumHaplotypes()
}

// NumOutOfBag is the number of training samples not drawn by the bootstrap.
func (c *Classifier) NumOutOfBag() int {
	n := 0
	for _, w := range c.Weights {
		if w <= 0 {
			n++
		}
	}
	return n
}

// grow runs the variable-selection search against a fresh candidate pool.
func (c *Classifier) grow(data *trainingData, mtry int, prune bool, workers int, rnd Random) {
	pool := NewSampling(data.mat.NumMarker)
	vs := newVariableSelection(data, c.Weights, workers, rnd)
	c.Haplo, c.Markers, c.Accuracy = vs.search(pool, mtry, prune)
}

// validate checks that c is usable with nMarker training markers, nSample
// training samples and nClass classes.
func (c *Classifier) validate(nMarker, nSample, nClass int) error {
	if len(c.Markers) >= MaxMarkers {
		return pfx.Err(fmt.Errorf("%w: classifier has %d markers, capacity is %d", ErrInvalidArgument, len(c.Markers), MaxMarkers-1))
	}
	if c.Haplo.NumMarker != len(c.Markers) {
		return pfx.Err(fmt.Errorf("%w: classifier haplotypes cover %d markers, expected %d", ErrInvalidArgument, c.Haplo.NumMarker, len(c.Markers)))
	}
	if len(c.Haplo.Lists) != nClass {
		return pfx.Err(fmt.Errorf("%w: classifier has %d haplotype classes, expected %d", ErrInvalidArgument, len(c.Haplo.Lists), nClass))
	}
	seen := make(map[int]struct{}, len(c.Markers))
	for _, m := range c.Markers {
		if m < 0 || m >= nMarker {
			return pfx.Err(fmt.Errorf("%w: classifier marker %d out of range [0, %d)", ErrInvalidArgument, m, nMarker))
		}
		if _, ok := seen[m]; ok {
			return pfx.Err(fmt.Errorf("%w: classifier selects marker %d twice", ErrInvalidArgument, m))
		}
		seen[m] = struct{}{}
	}
	if c.Weights != nil && len(c.Weights) != nSample {
		return pfx.Err(fmt.Errorf("%w: classifier has %d bootstrap weights, expected %d", ErrInvalidArgument, len(c.Weights), nSample))
	}
	return nil
}
