package hibag

import (
	"reflect"
	"strings"
	"testing"
)

func TestReadLabels(t *testing.T) {
	in := `sample.id,allele1,allele2
S3,02:01,01:01
S1,01:01,01:01
S9,03:01,02:01
S2,,01:01
`
	ls, err := ReadLabels(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"01:01", "02:01", "03:01"}; !reflect.DeepEqual(ls.ClassNames, want) {
		t.Errorf("Got classes %v, expected %v", ls.ClassNames, want)
	}
	if want := []string{"S3", "S1", "S9"}; !reflect.DeepEqual(ls.SampleIDs, want) {
		t.Errorf("Got samples %v, expected %v", ls.SampleIDs, want)
	}
	if want := []HLAType{{1, 0}, {0, 0}, {2, 1}}; !reflect.DeepEqual(ls.Types, want) {
		t.Errorf("Got types %v, expected %v", ls.Types, want)
	}

	samples := []Sample{{SampleID: "S1"}, {SampleID: "S2"}, {SampleID: "S3"}}
	rows, types := ls.Match(samples)
	if want := []int{2, 0}; !reflect.DeepEqual(rows, want) {
		t.Errorf("Got rows %v, expected %v", rows, want)
	}
	if want := []HLAType{{1, 0}, {0, 0}}; !reflect.DeepEqual(types, want) {
		t.Errorf("Got types %v, expected %v", types, want)
	}
}

func TestReadLabelsMissingColumn(t *testing.T) {
	if _, err := ReadLabels(strings.NewReader("sample.id,allele1\nS1,01:01\n")); err == nil {
		t.Errorf("Expected an error for a missing allele2 column")
	}
	if _, err := ReadLabels(strings.NewReader("")); err == nil {
		t.Errorf("Expected an error for an empty table")
	}
}

func TestChromosome(t *testing.T) {
	cases := map[string]string{
		"1":     "01",
		"chr6":  "06",
		"22":    "22",
		"23":    "0X",
		"X":     "0X",
		"chrY":  "0Y",
		"25":    "XY",
		"MT":    "MT",
		"26":    "MT",
		"chrUn": "NA",
		"0":     "NA",
	}
	for in, want := range cases {
		if got := Chromosome(in); got != want {
			t.Errorf("Chromosome(%q): got %q, expected %q", in, got, want)
		}
	}
}

func TestSelectRegion(t *testing.T) {
	markers, err := ReadMarkers(strings.NewReader(`6	rs1	0	100	A	G
chr6	rs2	0	200	C	T
5	rs3	0	150	G	A
6	rs4	0	400	G	A
`))
	if err != nil {
		t.Fatal(err)
	}

	if got, want := SelectRegion(markers, "6", 100, 300), []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Got %v, expected %v", got, want)
	}
	if got, want := SelectRegion(markers, "chr6", 150, 0), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Got %v, expected %v", got, want)
	}
	if got := SelectRegion(markers, "7", 0, 0); got != nil {
		t.Errorf("Got %v, expected nil", got)
	}
}
