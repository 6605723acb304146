//go:build cgo

package hibag

// If cgo is enabled, we will use the DataDog cgo zstd bindings.

import "github.com/DataDog/zstd"

// DecompressZStandard decompresses Zstd compressed data. As per the original,
// "Decompress src into dst. If you have a buffer to use, you can pass it to
// prevent allocation. If it is too small, or if nil is passed, a new buffer
// will be allocated and returned."
func DecompressZStandard(dst, src []byte) ([]byte, error) {
	return zstd.Decompress(dst, src)
}

// CompressZStandard compresses src at the default level, reusing dst when it
// is large enough.
func CompressZStandard(dst, src []byte) ([]byte, error) {
	return zstd.Compress(dst, src)
}
