package hibag

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
)

// LabelSet holds the true class pairs read from a label table. Class indices
// refer to ClassNames, which is sorted.
type LabelSet struct {
	SampleIDs  []string
	Types      []HLAType
	ClassNames []string
}

// ReadLabels parses a comma-separated table with the header
// "sample.id,allele1,allele2". Rows with an empty allele are skipped.
func ReadLabels(r io.Reader) (*LabelSet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("label header: %w", err))
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"sample.id", "allele1", "allele2"} {
		if _, ok := cols[want]; !ok {
			return nil, pfx.Err(fmt.Errorf("%w: label table has no %q column", ErrInvalidArgument, want))
		}
	}

	var ids []string
	var pairs [][2]string
	names := map[string]struct{}{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		a1, a2 := rec[cols["allele1"]], rec[cols["allele2"]]
		if a1 == "" || a2 == "" {
			continue
		}
		ids = append(ids, rec[cols["sample.id"]])
		pairs = append(pairs, [2]string{a1, a2})
		names[a1] = struct{}{}
		names[a2] = struct{}{}
	}

	ls := &LabelSet{SampleIDs: ids, Types: make([]HLAType, len(ids))}
	for name := range names {
		ls.ClassNames = append(ls.ClassNames, name)
	}
	sort.Strings(ls.ClassNames)

	index := make(map[string]int, len(ls.ClassNames))
	for i, name := range ls.ClassNames {
		index[name] = i
	}
	for i, p := range pairs {
		ls.Types[i] = HLAType{Allele1: index[p[0]], Allele2: index[p[1]]}
	}

	return ls, nil
}

// Match returns, for each labeled sample present in samples, its row in
// samples and its class pair. Labeled samples absent from samples are
// dropped.
func (ls *LabelSet) Match(samples []Sample) ([]int, []HLAType) {
	row := make(map[string]int, len(samples))
	for i, s := range samples {
		row[s.SampleID] = i
	}

	var rows []int
	var types []HLAType
	for i, id := range ls.SampleIDs {
		if k, ok := row[id]; ok {
			rows = append(rows, k)
			types = append(types, ls.Types[i])
		}
	}
	return rows, types
}

// ReadLabelsFile reads a label table from a local or gs:// path, gzip
// compressed when it ends in .gz.
func ReadLabelsFile(ctx context.Context, path string) (*LabelSet, error) {
	return readTableFile(ctx, path, ReadLabels)
}
