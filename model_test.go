package hibag

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
)

// separableData returns nPerClass homozygous samples of class 0 with every
// marker at 0, followed by nPerClass of class 1 with every marker at 2.
func separableData(t *testing.T, nPerClass, nMarker int) (*GenoMatrix, []HLAType) {
	t.Helper()
	n := 2 * nPerClass
	data := make([]int8, n*nMarker)
	hla := make([]HLAType, n)
	for i := 0; i < n; i++ {
		c := i / nPerClass
		hla[i] = HLAType{c, c}
		for j := 0; j < nMarker; j++ {
			data[i*nMarker+j] = int8(2 * c)
		}
	}
	mat, err := NewGenoMatrix(nMarker, n, data)
	if err != nil {
		t.Fatal(err)
	}
	return mat, hla
}

func TestSeparableOutOfBagAccuracy(t *testing.T) {
	mat, hla := separableData(t, 2, 3)
	m, err := NewModel(mat, hla, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Bootstrap picks samples 0, 0, 2, 2; samples 1 and 3 are out of bag.
	rnd := &cycleRandom{values: []float64{0.1, 0.1, 0.6, 0.6}}
	err = m.Build(context.Background(), BuildOptions{NumClassifier: 1, Mtry: 3}, rnd)
	if err != nil {
		t.Fatal(err)
	}

	c := m.Classifiers[0]
	if want := []int{2, 0, 2, 0}; !reflect.DeepEqual(c.Weights, want) {
		t.Errorf("Got weights %v, expected %v", c.Weights, want)
	}
	if c.Accuracy != 1 {
		t.Errorf("Got accuracy %v, expected %v", c.Accuracy, 1)
	}
	if c.NumMarkers() < 1 {
		t.Errorf("Got %d markers, expected at least 1", c.NumMarkers())
	}
}

func TestPredictAllMissing(t *testing.T) {
	mat, hla := separableData(t, 10, 4)
	m, err := Train(context.Background(), mat, hla, 2, BuildOptions{NumClassifier: 3}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	query, err := NewGenoMatrix(4, 1, []int8{Missing, Missing, Missing, Missing})
	if err != nil {
		t.Fatal(err)
	}
	pred, err := m.Predict(query, PredictOptions{KeepProb: true})
	if err != nil {
		t.Fatal(err)
	}

	if got := pred.Types[0]; got.Allele1 != NoCall || got.Allele2 != NoCall {
		t.Errorf("Got %v, expected a no-call", got)
	}
	if pred.Confidence[0] != 0 {
		t.Errorf("Got confidence %v, expected %v", pred.Confidence[0], 0)
	}
	for _, v := range pred.Prob[0] {
		if v != 0 {
			t.Errorf("Got probability table %v, expected zeros", pred.Prob[0])
			break
		}
	}
}

func TestVoteModesAgree(t *testing.T) {
	mat, hla := separableData(t, 10, 5)
	m, err := Train(context.Background(), mat, hla, 2, BuildOptions{NumClassifier: 5, Prune: true}, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}

	query, err := NewGenoMatrix(5, 3, []int8{
		0, 0, 0, 0, 0,
		2, 2, 2, 2, 2,
		2, Missing, 2, 2, Missing,
	})
	if err != nil {
		t.Fatal(err)
	}

	post, err := m.Predict(query, PredictOptions{Vote: VotePosterior})
	if err != nil {
		t.Fatal(err)
	}
	major, err := m.Predict(query, PredictOptions{Vote: VoteMajority, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	expected := []HLAType{{0, 0}, {1, 1}, {1, 1}}
	for i, want := range expected {
		if post.Types[i] != want {
			t.Errorf("Sample %d posterior vote: got %v, expected %v", i, post.Types[i], want)
		}
		if major.Types[i] != want {
			t.Errorf("Sample %d majority vote: got %v, expected %v", i, major.Types[i], want)
		}
		if post.Confidence[i] <= 0.5 || post.Confidence[i] > 1 {
			t.Errorf("Sample %d: confidence %v outside (0.5, 1]", i, post.Confidence[i])
		}
	}
}

func TestBootstrapHasOutOfBag(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for n := 1; n <= 8; n++ {
		mat, err := NewGenoMatrix(0, n, nil)
		if err != nil {
			t.Fatal(err)
		}
		m, err := NewModel(mat, make([]HLAType, n), 1)
		if err != nil {
			t.Fatal(err)
		}
		for trial := 0; trial < 100; trial++ {
			c := m.NewClassifierBootstrap(rnd)
			total := 0
			for _, w := range c.Weights {
				total += w
			}
			if total != n {
				t.Errorf("Got %d draws, expected %d", total, n)
			}
			if n > 1 && c.NumOutOfBag() == 0 {
				t.Errorf("Bootstrap over %d samples has no out-of-bag sample", n)
			}
		}
	}
}

func TestSearchRespectsCapacity(t *testing.T) {
	mat, hla := randomTrainingData(t, 4, 80, 12, 4)
	m, err := Train(context.Background(), mat, hla, 4, BuildOptions{NumClassifier: 3, Mtry: 4}, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatal(err)
	}

	for i, c := range m.Classifiers {
		if c.NumMarkers() > MaxMarkers-1 {
			t.Errorf("Classifier %d selected %d markers", i, c.NumMarkers())
		}
		seen := map[int]bool{}
		for _, k := range c.Markers {
			if seen[k] {
				t.Errorf("Classifier %d selected marker %d twice", i, k)
			}
			seen[k] = true
		}
		if c.Haplo.NumMarker != c.NumMarkers() {
			t.Errorf("Classifier %d: haplotypes cover %d markers, expected %d", i, c.Haplo.NumMarker, c.NumMarkers())
		}
		if c.Accuracy < 0 || c.Accuracy > 1 {
			t.Errorf("Classifier %d: accuracy %v", i, c.Accuracy)
		}
	}
}

func TestParallelTrialsMatchSequential(t *testing.T) {
	mat, hla := randomTrainingData(t, 5, 60, 10, 3)

	build := func(workers int) []ClassifierTransfer {
		m, err := Train(context.Background(), mat, hla, 3, BuildOptions{
			NumClassifier: 2,
			Mtry:          5,
			Prune:         true,
			Workers:       workers,
		}, rand.New(rand.NewSource(6)))
		if err != nil {
			t.Fatal(err)
		}
		return m.Export()
	}

	seq, par := build(1), build(4)
	if !reflect.DeepEqual(seq, par) {
		t.Errorf("Parallel build differs from sequential build")
	}
}

func TestExportImport(t *testing.T) {
	mat, hla := randomTrainingData(t, 7, 40, 8, 3)
	m, err := Train(context.Background(), mat, hla, 3, BuildOptions{NumClassifier: 3}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}

	imported, err := ImportModel(m.NumMarker, m.NumClass, m.Export())
	if err != nil {
		t.Fatal(err)
	}
	if imported.NumSample != m.NumSample {
		t.Errorf("Got %d samples, expected %d", imported.NumSample, m.NumSample)
	}

	want, err := m.Predict(mat, PredictOptions{KeepProb: true})
	if err != nil {
		t.Fatal(err)
	}
	got, err := imported.Predict(mat, PredictOptions{KeepProb: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Imported model predicts differently")
	}

	// An imported model cannot grow.
	if err := imported.Build(context.Background(), BuildOptions{NumClassifier: 1}, rand.New(rand.NewSource(1))); err == nil {
		t.Errorf("Expected an error when growing an imported model")
	}
}

func TestImportModelInvalid(t *testing.T) {
	good := ClassifierTransfer{
		Markers:    []int{0, 2},
		Haplotypes: []HaplotypeTransfer{{Class: 0, Bits: "01", Freq: 0.5}, {Class: 1, Bits: "11", Freq: 0.5}},
		Weights:    []int{1, 0, 2},
	}
	if _, err := ImportModel(3, 2, []ClassifierTransfer{good}); err != nil {
		t.Fatal(err)
	}

	cases := map[string]func(c *ClassifierTransfer){
		"marker out of range": func(c *ClassifierTransfer) { c.Markers = []int{0, 3} },
		"duplicate marker":    func(c *ClassifierTransfer) { c.Markers = []int{2, 2} },
		"bad class":           func(c *ClassifierTransfer) { c.Haplotypes = []HaplotypeTransfer{{Class: 2, Bits: "01"}} },
		"short haplotype":     func(c *ClassifierTransfer) { c.Haplotypes = []HaplotypeTransfer{{Class: 0, Bits: "0"}} },
		"bad allele":          func(c *ClassifierTransfer) { c.Haplotypes = []HaplotypeTransfer{{Class: 0, Bits: "02"}} },
		"negative frequency":  func(c *ClassifierTransfer) { c.Haplotypes = []HaplotypeTransfer{{Class: 0, Bits: "01", Freq: -1}} },
	}
	for name, mutate := range cases {
		c := good
		mutate(&c)
		if _, err := ImportModel(3, 2, []ClassifierTransfer{c}); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	second := good
	second.Weights = []int{1}
	if _, err := ImportModel(3, 2, []ClassifierTransfer{good, second}); err == nil {
		t.Errorf("Expected an error for inconsistent bootstrap weights")
	}
}

func TestInvalidArguments(t *testing.T) {
	mat, hla := separableData(t, 2, 3)

	if _, err := NewModel(nil, hla, 2); err == nil {
		t.Errorf("Expected an error for a nil matrix")
	}
	if _, err := NewModel(mat, hla[:3], 2); err == nil {
		t.Errorf("Expected an error for mismatched labels")
	}
	if _, err := NewModel(mat, hla, 0); err == nil {
		t.Errorf("Expected an error for zero classes")
	}
	if _, err := NewModel(mat, hla, 1); err == nil {
		t.Errorf("Expected an error for a label outside the class range")
	}
	bad := append([]HLAType(nil), hla...)
	bad[0] = HLAType{-1, 0}
	if _, err := NewModel(mat, bad, 2); err == nil {
		t.Errorf("Expected an error for a negative label")
	}
	if _, err := NewGenoMatrix(-1, 2, nil); err == nil {
		t.Errorf("Expected an error for a negative marker count")
	}
	if _, err := NewGenoMatrix(2, 2, make([]int8, 3)); err == nil {
		t.Errorf("Expected an error for a short matrix")
	}

	m, err := NewModel(mat, hla, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Build(context.Background(), BuildOptions{NumClassifier: -1}, nil); err == nil {
		t.Errorf("Expected an error for a negative ensemble size")
	}

	if _, err := m.Predict(mat, PredictOptions{Vote: VoteMode(3)}); err == nil {
		t.Errorf("Expected an error for an unknown vote mode")
	}
	short, _ := NewGenoMatrix(2, 1, []int8{0, 0})
	if _, err := m.Predict(short, PredictOptions{}); err == nil {
		t.Errorf("Expected an error for a query with the wrong number of markers")
	}
}

func TestBuildCancelled(t *testing.T) {
	mat, hla := separableData(t, 3, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, mat, hla, 2, BuildOptions{NumClassifier: 2}, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Errorf("Expected an error from a cancelled build")
	}
}
