package main

import (
	"flag"
	"fmt"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	hibag "github.com/janeshen91/HIBAG"
	log "github.com/sirupsen/logrus"
)

func main() {
	path := flag.String("model", "", "Filename of the model database to inspect")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No model file found")
	}

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	db, err := hibag.OpenModelDB(*path)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	log.Printf("Model Metadata: %+v\n", *db.Metadata)
	log.Println("Created:", db.Metadata.CreationTime)

	model, err := db.LoadModel()
	if err != nil {
		log.Fatalln(err)
	}

	if len(model.ClassNames) > 0 {
		fmt.Println("Classes:", strings.Join(model.ClassNames, ", "))
	}

	weights := model.MarkerWeights()
	used := 0
	for _, w := range weights {
		if w > 0 {
			used++
		}
	}
	fmt.Printf("%d classifiers use %d of %d markers\n", len(model.Classifiers), used, model.NumMarker)

	accSum := 0.0
	for i, c := range model.Classifiers {
		fmt.Printf("%d) markers: %d, haplotypes: %d, out-of-bag samples: %d, accuracy: %.2f%%\n",
			i+1, c.NumMarkers(), c.NumHaplotypes(), c.NumOutOfBag(), 100*c.Accuracy)
		accSum += c.Accuracy
	}
	if n := len(model.Classifiers); n > 0 {
		fmt.Printf("Average out-of-bag accuracy: %.2f%%\n", 100*accSum/float64(n))
	}
}
