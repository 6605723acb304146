package hibag

import (
	"fmt"
	"strconv"
	"strings"
)

// Chromosome takes a raw chromosome label, either a PLINK numeric code or a
// name with or without a "chr" prefix, and returns its standard string
// translation.
func Chromosome(chr string) string {
	s := strings.TrimPrefix(strings.ToLower(chr), "chr")

	if code, err := strconv.ParseUint(s, 10, 16); err == nil {
		switch {
		case code >= 1 && code <= 22:
			return fmt.Sprintf("%02d", code)
		case code == 23:
			return "0X"
		case code == 24:
			return "0Y"
		case code == 25:
			return "XY"
		case code == 26:
			return "MT"
		}
		return "NA"
	}

	switch s {
	case "x":
		return "0X"
	case "y":
		return "0Y"
	case "xy":
		return "XY"
	case "m", "mt":
		return "MT"
	}

	return "NA"
}

// SelectRegion returns the indices of the markers on chrom whose position is
// in [from, to]. A zero to means no upper bound.
func SelectRegion(markers []Marker, chrom string, from, to uint32) []int {
	want := Chromosome(chrom)
	var out []int
	for i, m := range markers {
		if Chromosome(m.Chromosome) != want {
			continue
		}
		if m.Coordinate < from || (to > 0 && m.Coordinate > to) {
			continue
		}
		out = append(out, i)
	}
	return out
}
