package mapcache

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// ZlibDecompressor is the default Decompressor, backed by stdlib
// compress/zlib. No third-party zlib implementation appears anywhere in
// this module's retrieval pack, so the pluggable interface's default
// implementation is stdlib -- an embedder may supply a different one.
type ZlibDecompressor struct{}

func (ZlibDecompressor) Decompress(raw []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mapcache: zlib open: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mapcache: zlib inflate: %w", err)
	}
	return out, nil
}
