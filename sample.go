package hibag

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
)

type Sample struct {
	FamilyID string
	SampleID string
}

// ReadSamples parses a PLINK .fam file. Only the family and sample IDs are
// kept.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 2 {
			return nil, pfx.Err(fmt.Errorf("fam line %d has %d columns, expected at least 2", line, len(cols)))
		}

		samples = append(samples, Sample{FamilyID: cols[0], SampleID: cols[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return samples, nil
}
