package hibag

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/carbocation/pfx"
	"github.com/exascience/pargo/parallel"
	log "github.com/sirupsen/logrus"
)

// Model is an attribute-bagging ensemble. The training matrix and labels are
// only held by models built in this process; models imported from a transfer
// shape or a model store can predict but not grow.
type Model struct {
	NumMarker int
	NumSample int
	NumClass  int

	// ClassNames optionally names the class indices.
	ClassNames []string

	// Markers optionally describes the training markers, in matrix order.
	Markers []Marker

	Classifiers []*Classifier

	data *trainingData
}

// NewModel checks the training set and returns an empty ensemble over it.
// hla holds the true class pair of every sample of mat.
func NewModel(mat *GenoMatrix, hla []HLAType, nClass int) (*Model, error) {
	if mat == nil {
		return nil, pfx.Err(fmt.Errorf("%w: nil genotype matrix", ErrInvalidArgument))
	}
	if mat.NumMarker < 0 || mat.NumSample < 0 || len(mat.Data) != mat.NumMarker*mat.NumSample {
		return nil, pfx.Err(fmt.Errorf("%w: malformed genotype matrix (%d markers, %d samples, %d values)", ErrInvalidArgument, mat.NumMarker, mat.NumSample, len(mat.Data)))
	}
	if nClass <= 0 {
		return nil, pfx.Err(fmt.Errorf("%w: number of classes must be positive, got %d", ErrInvalidArgument, nClass))
	}
	if len(hla) != mat.NumSample {
		return nil, pfx.Err(fmt.Errorf("%w: %d class labels for %d samples", ErrInvalidArgument, len(hla), mat.NumSample))
	}
	for i, t := range hla {
		if t.Allele1 < 0 || t.Allele1 >= nClass || t.Allele2 < 0 || t.Allele2 >= nClass {
			return nil, pfx.Err(fmt.Errorf("%w: sample %d has class pair (%d, %d) outside [0, %d)", ErrInvalidArgument, i, t.Allele1, t.Allele2, nClass))
		}
	}

	return &Model{
		NumMarker: mat.NumMarker,
		NumSample: mat.NumSample,
		NumClass:  nClass,
		data: &trainingData{
			mat:    mat,
			hla:    hla,
			nClass: nClass,
		},
	}, nil
}

// NewClassifierBootstrap appends a classifier whose weights are a bootstrap
// draw of the training samples. The draw is repeated until at least one
// sample is out of bag, unless there is at most one sample.
func (m *Model) NewClassifierBootstrap(rnd Random) *Classifier {
	n := m.NumSample
	c := &Classifier{Weights: make([]int, n)}
	for {
		for i := range c.Weights {
			c.Weights[i] = 0
		}
		for i := 0; i < n; i++ {
			c.Weights[randomNum(rnd, n)]++
		}
		if n <= 1 || c.NumOutOfBag() > 0 {
			break
		}
	}
	m.Classifiers = append(m.Classifiers, c)
	return c
}

// NewClassifierAllSamples appends a classifier that uses every training
// sample once. Its out-of-bag accuracy is not informative.
func (m *Model) NewClassifierAllSamples() *Classifier {
	c := &Classifier{Weights: make([]int, m.NumSample)}
	for i := range c.Weights {
		c.Weights[i] = 1
	}
	m.Classifiers = append(m.Classifiers, c)
	return c
}

// BuildOptions configures the growth of an ensemble.
type BuildOptions struct {
	// NumClassifier is the number of classifiers to add.
	NumClassifier int

	// Mtry is the number of candidate markers drawn per search round. Zero
	// means the square root of the number of markers.
	Mtry int

	// Prune drops candidates that lose clearly from the pool.
	Prune bool

	// AllSamples grows every classifier on the whole training set instead of a
	// bootstrap draw.
	AllSamples bool

	// Workers is the number of goroutines evaluating the trials of a round.
	// Values below 2 evaluate sequentially.
	Workers int

	// Progress receives a report at most once per classifier.
	Progress         ProgressFunc
	ProgressInterval time.Duration
}

func (o BuildOptions) mtry(nMarker int) int {
	if o.Mtry > 0 {
		return o.Mtry
	}
	if v := int(math.Sqrt(float64(nMarker))); v > 0 {
		return v
	}
	return 1
}

// Build grows opts.NumClassifier new classifiers in turn. ctx is checked
// between classifiers.
func (m *Model) Build(ctx context.Context, opts BuildOptions, rnd Random) error {
	if m.data == nil {
		return pfx.Err(fmt.Errorf("%w: model holds no training data", ErrInvalidArgument))
	}
	if opts.NumClassifier < 0 {
		return pfx.Err(fmt.Errorf("%w: negative number of classifiers %d", ErrInvalidArgument, opts.NumClassifier))
	}
	if opts.Mtry < 0 {
		return pfx.Err(fmt.Errorf("%w: negative mtry %d", ErrInvalidArgument, opts.Mtry))
	}
	if m.NumSample <= 0 {
		return pfx.Err(fmt.Errorf("%w: no training samples", ErrInvalidArgument))
	}

	mtry := opts.mtry(m.NumMarker)
	prog := newProgression("Building:", opts.NumClassifier, opts.ProgressInterval, opts.Progress)

	for k := 0; k < opts.NumClassifier; k++ {
		if err := ctx.Err(); err != nil {
			return pfx.Err(err)
		}

		var c *Classifier
		if opts.AllSamples {
			c = m.NewClassifierAllSamples()
		} else {
			c = m.NewClassifierBootstrap(rnd)
		}
		c.grow(m.data, mtry, opts.Prune, opts.Workers, rnd)

		log.WithFields(log.Fields{
			"classifier": len(m.Classifiers),
			"oob":        c.NumOutOfBag(),
			"markers":    c.NumMarkers(),
			"haplotypes": c.NumHaplotypes(),
			"oob_acc":    c.Accuracy,
		}).Info("classifier built")

		prog.Forward(1)
	}

	return nil
}

// Train checks the training set and builds an ensemble over it.
func Train(ctx context.Context, mat *GenoMatrix, hla []HLAType, nClass int, opts BuildOptions, rnd Random) (*Model, error) {
	m, err := NewModel(mat, hla, nClass)
	if err != nil {
		return nil, err
	}
	if err := m.Build(ctx, opts, rnd); err != nil {
		return nil, err
	}
	return m, nil
}

// PredictOptions configures ensemble prediction.
type PredictOptions struct {
	// Vote selects how classifiers are combined. Zero means VotePosterior.
	Vote VoteMode

	// KeepProb fills Prediction.Prob.
	KeepProb bool

	// Workers is the number of goroutines predicting query samples.
	Workers int

	Progress         ProgressFunc
	ProgressInterval time.Duration
}

// MarkerWeights returns, for every training marker, the number of
// classifiers that selected it.
func (m *Model) MarkerWeights() []int {
	w := make([]int, m.NumMarker)
	for _, c := range m.Classifiers {
		for _, k := range c.Markers {
			w[k]++
		}
	}
	return w
}

// Predict imputes the class pair of every sample of mat, whose columns must
// be the training markers in training order. Uncalled values are missing.
func (m *Model) Predict(mat *GenoMatrix, opts PredictOptions) (*Prediction, error) {
	vote := opts.Vote
	if vote == 0 {
		vote = VotePosterior
	}
	if vote != VotePosterior && vote != VoteMajority {
		return nil, pfx.Err(fmt.Errorf("%w: invalid vote mode %d", ErrInvalidArgument, int(opts.Vote)))
	}
	if mat == nil || len(mat.Data) != mat.NumMarker*mat.NumSample {
		return nil, pfx.Err(fmt.Errorf("%w: malformed genotype matrix", ErrInvalidArgument))
	}
	if mat.NumMarker != m.NumMarker {
		return nil, pfx.Err(fmt.Errorf("%w: query has %d markers, model was trained on %d", ErrInvalidArgument, mat.NumMarker, m.NumMarker))
	}

	n := mat.NumSample
	out := &Prediction{
		Types:      make([]HLAType, n),
		Confidence: make([]float64, n),
	}
	if opts.KeepProb {
		out.Prob = make([][]float64, n)
	}

	weights := m.MarkerWeights()
	prog := newProgression("Predicting:", n, opts.ProgressInterval, opts.Progress)

	predictRange := func(low, high int) {
		p := newPredictor(m.NumClass)
		var g Genotype
		for i := low; i < high; i++ {
			m.predictSample(p, &g, mat.Row(i), weights, vote)
			t := p.tableBest(p.sum)
			out.Types[i] = t
			if t.IsCalled() {
				out.Confidence[i] = p.sum[PairIndex(t.Allele1, t.Allele2, m.NumClass)]
			}
			if opts.KeepProb {
				out.Prob[i] = append([]float64(nil), p.sum...)
			}
			prog.Forward(1)
		}
	}
	if opts.Workers > 1 && n > 1 {
		parallel.Range(0, n, opts.Workers, predictRange)
	} else {
		predictRange(0, n)
	}

	return out, nil
}

// predictSample leaves the normalized ensemble table of one query row in
// p.sum. A classifier none of whose markers is called does not vote.
func (m *Model) predictSample(p *predictor, g *Genotype, row []int8, weights []int, vote VoteMode) {
	p.initSum()
	for _, c := range m.Classifiers {
		nWeight, sumWeight := 0, 0
		for _, k := range c.Markers {
			sumWeight += weights[k]
			if isCalled(row[k]) {
				nWeight += weights[k]
			}
		}
		if nWeight <= 0 {
			continue
		}

		g.pack(row, c.Markers)
		p.postProb(&c.Haplo, g)
		switch vote {
		case VotePosterior:
			p.addProbToSum(float64(nWeight) / float64(sumWeight))
		case VoteMajority:
			p.addVote(p.tableBest(p.post))
		}
	}
	p.normalizeSum()
}
