package hibag

import (
	"encoding/binary"
	"fmt"

	"github.com/carbocation/pfx"
)

// Compression indicates how (and whether) the stored bootstrap weights are
// compressed
type Compression uint32

const (
	CompressionDisabled Compression = iota
	CompressionZStandard
)

func (c Compression) String() string {
	switch c {
	case CompressionDisabled:
		return "CompressionDisabled"
	case CompressionZStandard:
		return "CompressionZStandard"

	default:
		return "Illegal selection"
	}
}

// encodeWeights packs w as little-endian uint32 values, compressed with c.
// An empty vector encodes to an empty blob.
func encodeWeights(w []int, c Compression) ([]byte, error) {
	if len(w) == 0 {
		return nil, nil
	}
	raw := make([]byte, 4*len(w))
	for i, v := range w {
		if v < 0 {
			return nil, pfx.Err(fmt.Errorf("%w: negative bootstrap weight %d", ErrInvalidArgument, v))
		}
		binary.LittleEndian.PutUint32(raw[4*i:], uint32(v))
	}

	switch c {
	case CompressionDisabled:
		return raw, nil
	case CompressionZStandard:
		out, err := CompressZStandard(nil, raw)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return out, nil
	}
	return nil, pfx.Err(fmt.Errorf("%w: compression choice %s", ErrInvalidArgument, c))
}

// decodeWeights is the inverse of encodeWeights.
func decodeWeights(blob []byte, c Compression) ([]int, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	raw := blob
	switch c {
	case CompressionDisabled:
	case CompressionZStandard:
		var err error
		if raw, err = DecompressZStandard(nil, blob); err != nil {
			return nil, pfx.Err(err)
		}
	default:
		return nil, pfx.Err(fmt.Errorf("%w: compression choice %s", ErrInvalidArgument, c))
	}

	if len(raw)%4 != 0 {
		return nil, pfx.Err(fmt.Errorf("weight blob has %d bytes, not a multiple of 4", len(raw)))
	}
	w := make([]int, len(raw)/4)
	for i := range w {
		w[i] = int(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return w, nil
}
