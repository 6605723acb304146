package hibag

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// Marker describes one bi-allelic marker. Genotype values count copies of
// Allele1.
type Marker struct {
	genomisc.BIMRow
}

// ID returns the variant identifier, or chromosome:position when the
// identifier is empty or ".".
func (m Marker) ID() string {
	if m.VariantID != "" && m.VariantID != "." {
		return m.VariantID
	}
	return fmt.Sprintf("%s:%d", m.Chromosome, m.Coordinate)
}

// ReadMarkers parses a PLINK .bim file.
func ReadMarkers(r io.Reader) ([]Marker, error) {
	var markers []Marker

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) <= genomisc.Allele2 {
			return nil, pfx.Err(fmt.Errorf("bim line %d has %d columns, expected %d", line, len(cols), genomisc.Allele2+1))
		}

		pos, err := strconv.ParseUint(cols[genomisc.Coordinate], 10, 32)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("bim line %d: %w", line, err))
		}

		markers = append(markers, Marker{genomisc.BIMRow{
			Chromosome: cols[genomisc.Chromosome],
			Coordinate: uint32(pos),
			VariantID:  cols[genomisc.VariantID],
			Allele1:    cols[genomisc.Allele1],
			Allele2:    cols[genomisc.Allele2],
		}})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return markers, nil
}

// MatchMarkers returns, for every reference marker, the index of the query
// marker with the same ID, or -1 when the query lacks it or its alleles do
// not match. flip is set where the query lists the two alleles swapped.
func MatchMarkers(ref, query []Marker) (index []int, flip []bool) {
	byID := make(map[string]int, len(query))
	for i, m := range query {
		byID[m.ID()] = i
	}

	index = make([]int, len(ref))
	flip = make([]bool, len(ref))
	for i, r := range ref {
		index[i] = -1
		k, ok := byID[r.ID()]
		if !ok {
			continue
		}
		q := query[k]
		switch {
		case q.Allele1 == r.Allele1 && q.Allele2 == r.Allele2:
			index[i] = k
		case q.Allele1 == r.Allele2 && q.Allele2 == r.Allele1:
			index[i] = k
			flip[i] = true
		}
	}
	return index, flip
}
