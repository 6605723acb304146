package main

import (
	"context"
	"flag"
	"math/rand"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	hibag "github.com/janeshen91/HIBAG"
	log "github.com/sirupsen/logrus"
)

func main() {
	bfile := flag.String("bfile", "", "Prefix of the PLINK .bed/.bim/.fam training fileset (local or gs://)")
	labels := flag.String("hla", "", "CSV of true class pairs with header sample.id,allele1,allele2")
	out := flag.String("out", "", "Filename of the model database to create")
	nClassifier := flag.Int("n", 100, "Number of classifiers in the ensemble")
	mtry := flag.Int("mtry", 0, "Candidate markers drawn per search round (0: square root of the number of markers)")
	prune := flag.Bool("prune", true, "Drop clearly losing candidates from the pool")
	chrom := flag.String("chrom", "", "Only use markers on this chromosome")
	from := flag.Uint("from", 0, "First position of the marker region")
	to := flag.Uint("to", 0, "Last position of the marker region (0: no limit)")
	seed := flag.Int64("seed", 0, "Random seed (0: current time)")
	workers := flag.Int("workers", runtime.NumCPU(), "Goroutines evaluating the candidates of a round")
	verbose := flag.Bool("v", false, "Log every accepted marker")
	flag.Parse()

	if *bfile == "" || *labels == "" || *out == "" {
		flag.PrintDefaults()
		log.Fatalln("-bfile, -hla and -out are required")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	*bfile = expandHome(*bfile)
	*labels = expandHome(*labels)
	*out = expandHome(*out)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.WithField("seed", *seed).Info("Random seed")

	ctx := context.Background()

	ls, err := hibag.ReadLabelsFile(ctx, *labels)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Opening PLINK fileset:", *bfile)
	p, err := hibag.OpenPLINK(ctx, *bfile)
	if err != nil {
		log.Fatalln(err)
	}
	defer p.Close()

	var keep []int
	if *chrom != "" {
		keep = hibag.SelectRegion(p.Markers, *chrom, uint32(*from), uint32(*to))
		if keep == nil {
			keep = []int{}
		}
	}

	mat, err := p.ReadGenoMatrix(keep)
	if err != nil {
		log.Fatalln(err)
	}

	rows, hla := ls.Match(p.Samples)
	if mat, err = mat.SelectSamples(rows); err != nil {
		log.Fatalln(err)
	}
	log.WithFields(log.Fields{
		"markers": mat.NumMarker,
		"samples": mat.NumSample,
		"classes": len(ls.ClassNames),
	}).Info("Training set")

	model, err := hibag.NewModel(mat, hla, len(ls.ClassNames))
	if err != nil {
		log.Fatalln(err)
	}
	model.ClassNames = ls.ClassNames
	for _, k := range markerIndex(keep, p.NMarkers) {
		model.Markers = append(model.Markers, p.Markers[k])
	}

	err = model.Build(ctx, hibag.BuildOptions{
		NumClassifier: *nClassifier,
		Mtry:          *mtry,
		Prune:         *prune,
		Workers:       *workers,
		Progress:      hibag.LogProgress,
	}, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalln(err)
	}

	if err := hibag.SaveModelFile(*out, model, hibag.CompressionZStandard); err != nil {
		log.Fatalln(err)
	}
	log.Println("Saved model to", *out)
}

func markerIndex(keep []int, n int) []int {
	if keep != nil {
		return keep
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		path = filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}
