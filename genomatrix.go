package hibag

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// GenoMatrix is a dense sample-major matrix of marker values. Row i holds the
// NumMarker values of sample i.
type GenoMatrix struct {
	NumMarker int
	NumSample int
	Data      []int8
}

// NewGenoMatrix wraps data, which must hold nSample rows of nMarker values.
func NewGenoMatrix(nMarker, nSample int, data []int8) (*GenoMatrix, error) {
	if nMarker < 0 || nSample < 0 {
		return nil, pfx.Err(fmt.Errorf("%w: negative matrix dimension (%d markers, %d samples)", ErrInvalidArgument, nMarker, nSample))
	}
	if len(data) != nMarker*nSample {
		return nil, pfx.Err(fmt.Errorf("%w: matrix has %d values, expected %d x %d", ErrInvalidArgument, len(data), nSample, nMarker))
	}
	return &GenoMatrix{NumMarker: nMarker, NumSample: nSample, Data: data}, nil
}

// At returns the value of marker for sample.
func (m *GenoMatrix) At(sample, marker int) int8 {
	return m.Data[sample*m.NumMarker+marker]
}

// Row returns the marker values of one sample.
func (m *GenoMatrix) Row(sample int) []int8 {
	return m.Data[sample*m.NumMarker : (sample+1)*m.NumMarker]
}

// SelectMarkers returns a new matrix holding only the listed marker columns,
// in the given order. A negative index yields a missing column.
func (m *GenoMatrix) SelectMarkers(index []int) (*GenoMatrix, error) {
	for _, k := range index {
		if k >= m.NumMarker {
			return nil, pfx.Err(fmt.Errorf("%w: marker index %d out of range [0, %d)", ErrInvalidArgument, k, m.NumMarker))
		}
	}
	out := &GenoMatrix{NumMarker: len(index), NumSample: m.NumSample, Data: make([]int8, len(index)*m.NumSample)}
	for i := 0; i < m.NumSample; i++ {
		row := m.Row(i)
		dst := out.Row(i)
		for j, k := range index {
			if k < 0 {
				dst[j] = Missing
			} else {
				dst[j] = row[k]
			}
		}
	}
	return out, nil
}

func isCalled(v int8) bool {
	return v >= 0 && v <= 2
}

// SelectSamples returns a new matrix holding only the listed sample rows, in
// the given order.
func (m *GenoMatrix) SelectSamples(index []int) (*GenoMatrix, error) {
	out := &GenoMatrix{NumMarker: m.NumMarker, NumSample: len(index), Data: make([]int8, len(index)*m.NumMarker)}
	for j, i := range index {
		if i < 0 || i >= m.NumSample {
			return nil, pfx.Err(fmt.Errorf("%w: sample index %d out of range [0, %d)", ErrInvalidArgument, i, m.NumSample))
		}
		copy(out.Row(j), m.Row(i))
	}
	return out, nil
}

// FlipMarkers replaces every called value v of the flagged marker columns by
// 2-v, switching which allele is counted.
func (m *GenoMatrix) FlipMarkers(flip []bool) {
	if len(flip) != m.NumMarker {
		panic("hibag: flip flags and matrix disagree on the number of markers")
	}
	for i := 0; i < m.NumSample; i++ {
		row := m.Row(i)
		for j, f := range flip {
			if f && isCalled(row[j]) {
				row[j] = 2 - row[j]
			}
		}
	}
}
