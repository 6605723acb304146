package hibag

import (
	"math"
	"testing"
)

func mustHaplotype(t *testing.T, s string, freq float64) Haplotype {
	t.Helper()
	h, err := ParseHaplotype(s, freq)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHaplotypeString(t *testing.T) {
	h := mustHaplotype(t, "0110100", 0.5)
	if s := h.String(7); s != "0110100" {
		t.Errorf("Got %q, expected %q", s, "0110100")
	}
	if _, err := ParseHaplotype("012", 0); err == nil {
		t.Errorf("Expected an error for an invalid haplotype character")
	}
}

func TestDouble(t *testing.T) {
	l := HaplotypeList{
		Lists: [][]Haplotype{
			{mustHaplotype(t, "0", 0.6), mustHaplotype(t, "1", 0.4)},
			nil,
		},
		NumMarker: 1,
	}

	d := l.Double()
	if d.NumMarker != 2 {
		t.Fatalf("Got %d markers, expected %d", d.NumMarker, 2)
	}
	expected := []string{"00", "01", "10", "11"}
	if len(d.Lists[0]) != len(expected) {
		t.Fatalf("Got %d haplotypes, expected %d", len(d.Lists[0]), len(expected))
	}
	for i, want := range expected {
		if got := d.Lists[0][i].String(2); got != want {
			t.Errorf("Haplotype %d: got %q, expected %q", i, got, want)
		}
	}
	if len(d.Lists[1]) != 0 {
		t.Errorf("Got %d haplotypes in an empty class, expected 0", len(d.Lists[1]))
	}

	l.initDoubledFreq(&d, 0.25)
	if got, want := d.Lists[0][0].Freq, 0.6*0.75+emInitFrac; math.Abs(got-want) > 1e-12 {
		t.Errorf("Got %v, expected %v", got, want)
	}
	if got, want := d.Lists[0][3].Freq, 0.4*0.25+emInitFrac; math.Abs(got-want) > 1e-12 {
		t.Errorf("Got %v, expected %v", got, want)
	}

	// The source list is untouched.
	if l.NumMarker != 1 || len(l.Lists[0]) != 2 {
		t.Errorf("Double modified its receiver")
	}
}

func TestMergeDouble(t *testing.T) {
	l := HaplotypeList{
		Lists: [][]Haplotype{{
			mustHaplotype(t, "00", 0.3), mustHaplotype(t, "01", 0.001),
			mustHaplotype(t, "10", 0.2), mustHaplotype(t, "11", 0.5),
		}},
		NumMarker: 2,
	}

	m := l.MergeDouble(0.01)
	if len(m.Lists[0]) != 3 {
		t.Fatalf("Got %d haplotypes, expected %d", len(m.Lists[0]), 3)
	}
	if s := m.Lists[0][0].String(2); s != "00" {
		t.Errorf("Got %q, expected %q", s, "00")
	}
	if f := m.Lists[0][0].Freq; math.Abs(f-0.301) > 1e-12 {
		t.Errorf("Got %v, expected %v", f, 0.301)
	}
	if math.Abs(m.TotalFrequency()-l.TotalFrequency()) > 1e-12 {
		t.Errorf("Got total %v, expected %v", m.TotalFrequency(), l.TotalFrequency())
	}
}

func TestEraseDouble(t *testing.T) {
	l := HaplotypeList{
		Lists: [][]Haplotype{
			{
				mustHaplotype(t, "00", 0.2), mustHaplotype(t, "01", 0.3),
				mustHaplotype(t, "10", 1e-7), mustHaplotype(t, "11", 1e-7),
			},
			{
				mustHaplotype(t, "00", 0.001), mustHaplotype(t, "01", 0.4),
			},
		},
		NumMarker: 2,
	}

	e := l.EraseDouble(0.01)
	if len(e.Lists[0]) != 2 {
		t.Errorf("Got %d haplotypes in class 0, expected %d", len(e.Lists[0]), 2)
	}
	if len(e.Lists[1]) != 1 {
		t.Fatalf("Got %d haplotypes in class 1, expected %d", len(e.Lists[1]), 1)
	}
	if s := e.Lists[1][0].String(2); s != "01" {
		t.Errorf("Got %q, expected %q", s, "01")
	}
	if total := e.TotalFrequency(); math.Abs(total-1) > 1e-12 {
		t.Errorf("Got total %v, expected %v", total, 1)
	}
}

func TestSaveClearFrequency(t *testing.T) {
	l := HaplotypeList{Lists: [][]Haplotype{{mustHaplotype(t, "", 0.7)}}}
	l.SaveClearFrequency()
	if h := l.Lists[0][0]; h.Freq != 0 || h.OldFreq != 0.7 {
		t.Errorf("Got (%v, %v), expected (0, 0.7)", h.Freq, h.OldFreq)
	}

	c := l.Clone()
	c.Lists[0][0].Freq = 1
	if l.Lists[0][0].Freq != 0 {
		t.Errorf("Clone shares storage with its source")
	}
}
