package hibag

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// HaplotypeTransfer is one fitted haplotype: its class, its alleles over the
// classifier's markers as a '0'/'1' string, and its frequency.
type HaplotypeTransfer struct {
	Class int
	Bits  string
	Freq  float64
}

// ClassifierTransfer is the plain representation of a classifier used to
// move models in and out of the package.
type ClassifierTransfer struct {
	Markers    []int
	Haplotypes []HaplotypeTransfer
	Weights    []int
	Accuracy   float64
}

// Export returns the transfer shape of every classifier.
func (m *Model) Export() []ClassifierTransfer {
	out := make([]ClassifierTransfer, len(m.Classifiers))
	for i, c := range m.Classifiers {
		ct := ClassifierTransfer{
			Markers:  append([]int(nil), c.Markers...),
			Weights:  append([]int(nil), c.Weights...),
			Accuracy: c.Accuracy,
		}
		for class, list := range c.Haplo.Lists {
			for k := range list {
				ct.Haplotypes = append(ct.Haplotypes, HaplotypeTransfer{
					Class: class,
					Bits:  list[k].String(c.Haplo.NumMarker),
					Freq:  list[k].Freq,
				})
			}
		}
		out[i] = ct
	}
	return out
}

// ImportModel rebuilds a model over nMarker markers and nClass classes from
// its transfer shape. The result can predict but holds no training data.
func ImportModel(nMarker, nClass int, cls []ClassifierTransfer) (*Model, error) {
	if nMarker < 0 {
		return nil, pfx.Err(fmt.Errorf("%w: negative number of markers %d", ErrInvalidArgument, nMarker))
	}
	if nClass <= 0 {
		return nil, pfx.Err(fmt.Errorf("%w: number of classes must be positive, got %d", ErrInvalidArgument, nClass))
	}

	m := &Model{
		NumMarker: nMarker,
		NumClass:  nClass,
	}
	if len(cls) > 0 {
		m.NumSample = len(cls[0].Weights)
	}

	for i, ct := range cls {
		c, err := importClassifier(ct, nClass)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("classifier %d: %w", i, err))
		}
		if err := c.validate(nMarker, m.NumSample, nClass); err != nil {
			return nil, pfx.Err(fmt.Errorf("classifier %d: %w", i, err))
		}
		m.Classifiers = append(m.Classifiers, c)
	}

	return m, nil
}

func importClassifier(ct ClassifierTransfer, nClass int) (*Classifier, error) {
	n := len(ct.Markers)
	c := &Classifier{
		Markers:  append([]int(nil), ct.Markers...),
		Weights:  append([]int(nil), ct.Weights...),
		Accuracy: ct.Accuracy,
		Haplo: HaplotypeList{
			Lists:     make([][]Haplotype, nClass),
			NumMarker: n,
		},
	}

	for _, ht := range ct.Haplotypes {
		if ht.Class < 0 || ht.Class >= nClass {
			return nil, fmt.Errorf("%w: haplotype class %d outside [0, %d)", ErrInvalidArgument, ht.Class, nClass)
		}
		if len(ht.Bits) != n {
			return nil, fmt.Errorf("%w: haplotype %q has %d alleles, expected %d", ErrInvalidArgument, ht.Bits, len(ht.Bits), n)
		}
		if !(ht.Freq >= 0) {
			return nil, fmt.Errorf("%w: haplotype frequency %v", ErrInvalidArgument, ht.Freq)
		}
		h, err := ParseHaplotype(ht.Bits, ht.Freq)
		if err != nil {
			return nil, err
		}
		c.Haplo.Lists[ht.Class] = append(c.Haplo.Lists[ht.Class], h)
	}

	return c, nil
}
