package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	hibag "github.com/janeshen91/HIBAG"
	log "github.com/sirupsen/logrus"
)

func main() {
	modelPath := flag.String("model", "", "Filename of the model database")
	bfile := flag.String("bfile", "", "Prefix of the PLINK .bed/.bim/.fam query fileset (local or gs://)")
	vote := flag.String("vote", "prob", "Voting scheme: prob or majority")
	table := flag.Bool("prob", false, "Also print the posterior of every class pair")
	workers := flag.Int("workers", runtime.NumCPU(), "Goroutines predicting samples")
	flag.Parse()

	if *modelPath == "" || *bfile == "" {
		flag.PrintDefaults()
		log.Fatalln("-model and -bfile are required")
	}
	*modelPath = expandHome(*modelPath)
	*bfile = expandHome(*bfile)

	mode, ok := hibag.ParseVoteMode(*vote)
	if !ok {
		log.Fatalln("Unknown voting scheme", *vote)
	}

	ctx := context.Background()

	model, err := hibag.LoadModelFile(*modelPath)
	if err != nil {
		log.Fatalln(err)
	}
	if len(model.Markers) != model.NumMarker {
		log.Fatalln("The model does not describe its markers; cannot match them to the query")
	}

	p, err := hibag.OpenPLINK(ctx, *bfile)
	if err != nil {
		log.Fatalln(err)
	}
	defer p.Close()

	index, flip := hibag.MatchMarkers(model.Markers, p.Markers)
	missing := 0
	for _, k := range index {
		if k < 0 {
			missing++
		}
	}
	log.WithFields(log.Fields{
		"model_markers": model.NumMarker,
		"missing":       missing,
		"samples":       p.NSamples,
	}).Info("Matched query markers")

	mat, err := p.ReadGenoMatrix(nil)
	if err != nil {
		log.Fatalln(err)
	}
	if mat, err = mat.SelectMarkers(index); err != nil {
		log.Fatalln(err)
	}
	mat.FlipMarkers(flip)

	pred, err := model.Predict(mat, hibag.PredictOptions{
		Vote:     mode,
		KeepProb: *table,
		Workers:  *workers,
		Progress: hibag.LogProgress,
	})
	if err != nil {
		log.Fatalln(err)
	}

	w := csv.NewWriter(os.Stdout)
	header := []string{"sample.id", "allele1", "allele2", "prob"}
	if *table {
		for c1 := 0; c1 < model.NumClass; c1++ {
			for c2 := c1; c2 < model.NumClass; c2++ {
				header = append(header, className(model, c1)+"/"+className(model, c2))
			}
		}
	}
	if err := w.Write(header); err != nil {
		log.Fatalln(pfx.Err(err))
	}

	for i, s := range p.Samples {
		t := pred.Types[i]
		rec := []string{
			s.SampleID,
			className(model, t.Allele1),
			className(model, t.Allele2),
			strconv.FormatFloat(pred.Confidence[i], 'g', 6, 64),
		}
		if *table {
			for _, v := range pred.Prob[i] {
				rec = append(rec, strconv.FormatFloat(v, 'g', 6, 64))
			}
		}
		if err := w.Write(rec); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalln(pfx.Err(err))
	}
}

func className(m *hibag.Model, c int) string {
	if c == hibag.NoCall {
		return "NA"
	}
	if c < len(m.ClassNames) {
		return m.ClassNames[c]
	}
	return strconv.Itoa(c)
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
