/*
Package hibag imputes the pair of classification-locus alleles carried by a
sample (its diplotype) from unphased bi-allelic marker genotypes.

A Model is an ensemble of classifiers built by attribute bagging. Each
classifier is grown on a bootstrap sample by greedily adding markers drawn at
random from the pool of candidates; haplotype frequencies over the selected
markers are fitted per allele class with an EM algorithm, and candidates are
scored by their out-of-bag accuracy. Predictions combine the posterior tables of
all classifiers by weighted voting.

Marker values are 0, 1 or 2 copies of the reference allele; anything else is
treated as missing. Randomness is injected through the Random interface so that
builds are reproducible.
*/
package hibag

import (
	"errors"
	"math"
)

// MaxMarkers is the fixed bit capacity of a haplotype. A classifier never
// selects more than MaxMarkers-1 markers.
const MaxMarkers = 128

const planeWords = MaxMarkers / 64

const (
	// Missing is the canonical value for an uncalled genotype.
	Missing int8 = -1

	// NoCall is the class index reported when no prediction can be made.
	NoCall = -1
)

// EM parameters
const (
	// EMMaxIterations caps the iteration index of the EM loop.
	EMMaxIterations = 500

	// emInitFrac is added to every doubled haplotype frequency so that no
	// haplotype starts locked at zero.
	emInitFrac = 0.001
)

// EMRelTol is the relative convergence tolerance of the EM loop.
var EMRelTol = math.Sqrt(2.220446049250313e-16)

// Haplotype reduction and search parameters
const (
	// MinRareFreq is the smallest frequency worth keeping, and the decay base
	// applied per mismatching allele at prediction time.
	MinRareFreq = 1e-5

	fractionHaplo = 1.0 / 10

	stopRelTolAddMarker = 0.001
	pruneRelTol         = 0.1
)

// ErrInvalidArgument is wrapped by every error caused by bad caller input.
var ErrInvalidArgument = errors.New("invalid argument")

// Random is the source of uniform values in [0, 1). *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// randomNum returns an integer in [0, n) with equal probability.
func randomNum(rnd Random, n int) int {
	v := int(float64(n) * rnd.Float64())
	if v >= n {
		v = n - 1
	}
	return v
}
