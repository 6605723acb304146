package hibag

import (
	"math"

	"github.com/exascience/pargo/parallel"
	log "github.com/sirupsen/logrus"
)

// trainingData is the read-only view of a model's training set handed to a
// classifier while it grows.
type trainingData struct {
	mat    *GenoMatrix
	hla    []HLAType
	nClass int
}

// variableSelection grows the marker set of one classifier. It owns the
// genotype list of the classifier's bootstrap sample and the EM pair sets of
// the current round.
type variableSelection struct {
	data     *trainingData
	geno     GenotypeList
	em       EM
	rareProb float64
	workers  int
	rnd      Random

	// maxMarkers bounds the number of selected markers.
	maxMarkers int

	seq *trialWorker
}

func newVariableSelection(data *trainingData, weights []int, workers int, rnd Random) *variableSelection {
	if len(weights) != data.mat.NumSample || len(data.hla) != data.mat.NumSample {
		panic("hibag: training data and bootstrap weights disagree on the number of samples")
	}
	return &variableSelection{
		data:     data,
		geno:     newGenotypeList(weights),
		rareProb: math.Max(fractionHaplo/float64(2*data.mat.NumSample), MinRareFreq),
		workers:  workers,
		rnd:      rnd,

		maxMarkers: MaxMarkers - 1,
	}
}

// trialWorker holds everything one goroutine writes while evaluating
// candidate markers.
type trialWorker struct {
	trial emTrial
	geno  GenotypeList
	pred  *predictor
}

func (vs *variableSelection) newWorker() *trialWorker {
	w := &trialWorker{pred: newPredictor(vs.data.nClass)}
	w.geno.copyFrom(&vs.geno)
	return w
}

type trialResult struct {
	ok     bool
	marker int
	acc    float64
	loss   float64
	haplo  HaplotypeList
}

// initHaplotype returns the marker-free list: one empty haplotype per class
// present in the bootstrap sample, weighted by its allele count.
func (vs *variableSelection) initHaplotype() HaplotypeList {
	cnt := make([]int, vs.data.nClass)
	sum := 0
	for i := range vs.geno.List {
		w := vs.geno.List[i].Weight
		cnt[vs.data.hla[i].Allele1] += w
		cnt[vs.data.hla[i].Allele2] += w
		sum += w
	}
	h := HaplotypeList{Lists: make([][]Haplotype, vs.data.nClass)}
	if sum == 0 {
		return h
	}
	scale := 0.5 / float64(sum)
	for i, c := range cnt {
		if c > 0 {
			h.Lists[i] = []Haplotype{{Freq: float64(c) * scale}}
		}
	}
	return h
}

// outOfBagAccuracy is the fraction of alleles of the out-of-bag samples that
// the best guess of h gets right, or 1 without out-of-bag samples.
func (vs *variableSelection) outOfBagAccuracy(h *HaplotypeList, geno *GenotypeList, pred *predictor) float64 {
	if h.NumMarker != geno.NumMarker {
		panic("hibag: haplotype and genotype lists disagree on the number of markers")
	}
	total, correct := 0, 0
	for i := range geno.List {
		g := &geno.List[i]
		if g.Weight <= 0 {
			correct += pred.bestGuess(h, g).Matches(vs.data.hla[i])
			total += 2
		}
	}
	if total == 0 {
		return 1
	}
	return float64(correct) / float64(total)
}

// inBagLoss is the deviance of h over the in-bag samples: -2 times the
// weighted log posterior of their true class pairs.
func (vs *variableSelection) inBagLoss(h *HaplotypeList, geno *GenotypeList, pred *predictor) float64 {
	if h.NumMarker != geno.NumMarker {
		panic("hibag: haplotype and genotype lists disagree on the number of markers")
	}
	logLik := 0.0
	for i := range geno.List {
		g := &geno.List[i]
		if g.Weight > 0 {
			logLik += float64(g.Weight) * math.Log(pred.postProbOf(h, g, vs.data.hla[i]))
		}
	}
	return -2 * logLik
}

// evaluate runs one trial: EM on cur extended by marker, rare-haplotype
// reduction, then out-of-bag accuracy and, when the accuracy reaches
// threshold, the in-bag loss.
func (vs *variableSelection) evaluate(w *trialWorker, marker int, cur *HaplotypeList, threshold float64) trialResult {
	res := trialResult{marker: marker}
	if !vs.em.PrepareNewMarker(&w.trial, marker, cur, vs.data.mat, &w.geno) {
		return res
	}
	vs.em.ExpectationMaximization(&w.trial)
	res.haplo = w.trial.haplo.EraseDouble(vs.rareProb)
	res.ok = true

	w.geno.AddMarker(marker, vs.data.mat)
	res.acc = vs.outOfBagAccuracy(&res.haplo, &w.geno, w.pred)
	if res.acc >= threshold {
		res.loss = vs.inBagLoss(&res.haplo, &w.geno, w.pred)
	}
	w.geno.ReduceMarker()
	return res
}

// round tracks the best trial of one search round.
type round struct {
	maxAcc  float64
	minLoss float64
	minI    int
	best    trialResult

	globalAcc  float64
	globalLoss float64
}

// reduce folds trial i into the round. A trial wins with a strictly higher
// accuracy, or an equal accuracy and a strictly lower loss. With prune set,
// losing trials that fall below the global best are flagged in pool.
func (r *round) reduce(i int, res trialResult, pool *Sampling, prune bool) {
	if !res.ok {
		return
	}
	loss := 0.0
	if res.acc >= r.maxAcc {
		loss = res.loss
	}

	if res.acc > r.maxAcc {
		r.minI, r.minLoss, r.maxAcc, r.best = i, loss, res.acc, res
	} else if res.acc == r.maxAcc && loss < r.minLoss {
		r.minI, r.minLoss, r.best = i, loss, res
	}

	if prune {
		if res.acc < r.globalAcc {
			pool.Flag(i)
		} else if res.acc == r.globalAcc && loss > r.globalLoss*(1+pruneRelTol) && r.minI != i {
			pool.Flag(i)
		}
	}
}

// accepted reports whether the round winner improves on the global best.
func (r *round) accepted() bool {
	if r.maxAcc > r.globalAcc {
		return true
	}
	if r.maxAcc == r.globalAcc && r.minI >= 0 {
		return r.minLoss >= stopRelTolAddMarker && r.minLoss < r.globalLoss*(1-stopRelTolAddMarker)
	}
	return false
}

// search grows the classifier until the pool is exhausted or the marker
// capacity is reached. It returns the fitted haplotypes, the selected markers
// in order and the out-of-bag accuracy.
func (vs *variableSelection) search(pool *Sampling, mtry int, prune bool) (HaplotypeList, []int, float64) {
	if mtry < 1 {
		mtry = 1
	}
	out := vs.initHaplotype()
	var markers []int
	globalAcc, globalLoss := 0.0, 1e+30

	for pool.Total() > 0 && len(markers) < vs.maxMarkers {
		vs.em.PrepareHaplotypes(&out, &vs.geno, vs.data.hla)
		pool.RandomSelect(mtry, vs.rnd)
		nsel := pool.NumSelected()

		r := round{
			maxAcc:     globalAcc,
			minLoss:    globalLoss,
			minI:       -1,
			globalAcc:  globalAcc,
			globalLoss: globalLoss,
		}
		if vs.workers <= 1 || nsel <= 1 {
			if vs.seq == nil {
				vs.seq = vs.newWorker()
			}
			vs.seq.geno.copyFrom(&vs.geno)
			for i := 0; i < nsel; i++ {
				r.reduce(i, vs.evaluate(vs.seq, pool.At(i), &out, r.maxAcc), pool, prune)
			}
		} else {
			results := make([]trialResult, nsel)
			parallel.Range(0, nsel, vs.workers, func(low, high int) {
				w := vs.newWorker()
				for i := low; i < high; i++ {
					results[i] = vs.evaluate(w, pool.At(i), &out, globalAcc)
				}
			})
			for i := range results {
				r.reduce(i, results[i], pool, prune)
			}
		}

		if !r.accepted() {
			pool.RemoveSelection()
			continue
		}

		globalAcc, globalLoss = r.maxAcc, r.minLoss
		out = r.best.haplo
		markers = append(markers, r.best.marker)
		vs.geno.AddMarker(r.best.marker, vs.data.mat)
		if prune {
			pool.Flag(r.minI)
			pool.RemoveFlagged()
		} else {
			pool.Remove(r.minI)
		}

		log.WithFields(log.Fields{
			"markers":    len(markers),
			"marker":     r.best.marker,
			"loss":       globalLoss,
			"oob_acc":    globalAcc,
			"haplotypes": out.NumHaplotypes(),
		}).Debug("marker added")
	}

	return out, markers, globalAcc
}
