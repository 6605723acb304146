package hibag

// Prediction holds the ensemble result for a set of query samples.
type Prediction struct {
	// Types is the best-guess class pair of each sample, NoCall when no
	// classifier was informative.
	Types []HLAType

	// Confidence is the ensemble posterior of the best guess, 0 for a no-call.
	Confidence []float64

	// Prob is the normalized class-pair table of each sample, laid out by
	// PairIndex. It is only filled when requested.
	Prob [][]float64
}
