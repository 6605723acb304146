package hibag

import (
	"context"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/carbocation/genomisc"
)

func TestModelStoreRoundTrip(t *testing.T) {
	mat, hla := randomTrainingData(t, 8, 30, 6, 3)
	m, err := Train(context.Background(), mat, hla, 3, BuildOptions{NumClassifier: 2}, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatal(err)
	}
	m.ClassNames = []string{"01:01", "02:01", "03:01"}
	for i := 0; i < m.NumMarker; i++ {
		m.Markers = append(m.Markers, Marker{genomisc.BIMRow{
			Chromosome: "6",
			Coordinate: uint32(29910000 + 100*i),
			VariantID:  "rs" + string(rune('a'+i)),
			Allele1:    "A",
			Allele2:    "G",
		}})
	}

	for _, c := range []Compression{CompressionDisabled, CompressionZStandard} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.sqlite")
			if err := SaveModelFile(path, m, c); err != nil {
				t.Fatal(err)
			}

			db, err := OpenModelDB(path)
			if err != nil {
				t.Fatal(err)
			}
			defer db.Close()

			md := db.Metadata
			if md.Compression != c || md.NumMarker != m.NumMarker || md.NumClass != m.NumClass || md.NumSample != m.NumSample {
				t.Errorf("Got metadata %+v", *md)
			}
			if since := time.Since(time.Time(md.CreationTime)); since < 0 || since > time.Hour {
				t.Errorf("Got creation time %v", md.CreationTime)
			}

			loaded, err := db.LoadModel()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(loaded.ClassNames, m.ClassNames) {
				t.Errorf("Got classes %v, expected %v", loaded.ClassNames, m.ClassNames)
			}
			if !reflect.DeepEqual(loaded.Markers, m.Markers) {
				t.Errorf("Got markers %v, expected %v", loaded.Markers, m.Markers)
			}
			if !reflect.DeepEqual(loaded.Export(), m.Export()) {
				t.Errorf("Loaded classifiers differ from the saved ones")
			}
		})
	}
}

func TestCreateModelDBExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.sqlite")
	db, err := CreateModelDB(path)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := CreateModelDB(path); err == nil {
		t.Errorf("Expected an error when creating over an existing file")
	}
	if _, err := OpenModelDB(filepath.Join(t.TempDir(), "missing.sqlite")); err == nil {
		t.Errorf("Expected an error when opening a missing file")
	}
}

func TestWeightBlobs(t *testing.T) {
	w := []int{0, 3, 1, 0, 0, 2, 70000}
	for _, c := range []Compression{CompressionDisabled, CompressionZStandard} {
		blob, err := encodeWeights(w, c)
		if err != nil {
			t.Fatal(err)
		}
		got, err := decodeWeights(blob, c)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("%s: got %v, expected %v", c, got, w)
		}
	}

	if blob, err := encodeWeights(nil, CompressionZStandard); err != nil || len(blob) != 0 {
		t.Errorf("Got %v, %v, expected an empty blob", blob, err)
	}
	if _, err := encodeWeights([]int{-1}, CompressionDisabled); err == nil {
		t.Errorf("Expected an error for a negative weight")
	}
	if _, err := decodeWeights([]byte{1, 2, 3}, CompressionDisabled); err == nil {
		t.Errorf("Expected an error for a truncated blob")
	}
}

func TestZStandardRoundTrip(t *testing.T) {
	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(i % 7)
	}

	var comp, raw []byte
	for pass := 0; pass < 2; pass++ {
		var err error
		if comp, err = CompressZStandard(comp, src); err != nil {
			t.Fatal(err)
		}
		if len(comp) >= len(src) {
			t.Errorf("Got %d compressed bytes from %d repetitive bytes", len(comp), len(src))
		}
		if raw, err = DecompressZStandard(raw, comp); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(raw, src) {
			t.Errorf("Pass %d: decompressed data differs from the input", pass)
		}
	}
}

func TestTimeScan(t *testing.T) {
	var tm Time
	if err := tm.Scan(int64(1600000000)); err != nil {
		t.Fatal(err)
	}
	if got := time.Time(tm).Unix(); got != 1600000000 {
		t.Errorf("Got %d, expected %d", got, 1600000000)
	}

	if err := tm.Scan("2020-09-13 12:26:40"); err != nil {
		t.Fatal(err)
	}
	if got := time.Time(tm).Unix(); got != 1600000000 {
		t.Errorf("Got %d, expected %d", got, 1600000000)
	}

	if err := tm.Scan(1.5); err == nil {
		t.Errorf("Expected an error for a float")
	}
}
