//go:build !cgo

package hibag

// If cgo is not enabled, we will use the pure Go klauspost zstd codec.

import "github.com/klauspost/compress/zstd"

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic(err)
	}
}

// DecompressZStandard decompresses Zstd compressed data, appending to
// dst[:0].
func DecompressZStandard(dst, src []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, dst[:0])
}

// CompressZStandard compresses src at the default level, appending to
// dst[:0].
func CompressZStandard(dst, src []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, dst[:0]), nil
}
