// pkg/compress/compress.go

package compress

import (
	"strings"

	"github.com/DataDog/zstd"
	lz4 "github.com/hungys/go-lz4"
	"github.com/pkg/errors"
)

// Compressor compresses and decompresses whole byte blocks. Callers
// size dst with CompressBound before calling Compress.
type Compressor interface {
	Name() string
	CompressBound(int) int
	Compress(dst, src []byte) (int, error)
	Decompress(dst, src []byte) (int, error)
}

// NewCompressor returns the compressor for the given algorithm name,
// or nil when the algorithm is unknown.
func NewCompressor(algr string) Compressor {
	switch strings.ToLower(algr) {
	case "zstd":
		return ZStandard{zstd.DefaultCompression}
	case "lz4":
		return LZ4{}
	case "none", "":
		return NoOp{}
	}
	return nil
}

type NoOp struct{}

func (n NoOp) Name() string {
	return "none"
}

func (n NoOp) CompressBound(l int) int {
	return l
}

func (n NoOp) Compress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, errors.New("dst is not big enough")
	}
	return copy(dst, src), nil
}

func (n NoOp) Decompress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, errors.New("dst is not big enough")
	}
	return copy(dst, src), nil
}

type LZ4 struct{}

func (l LZ4) Name() string {
	return "lz4"
}

func (l LZ4) CompressBound(size int) int {
	return lz4.CompressBound(size)
}

func (l LZ4) Compress(dst, src []byte) (int, error) {
	return lz4.CompressDefault(src, dst)
}

func (l LZ4) Decompress(dst, src []byte) (int, error) {
	return lz4.DecompressSafe(src, dst)
}

type ZStandard struct {
	level int
}

func (z ZStandard) Name() string {
	return "zstd"
}

func (z ZStandard) CompressBound(size int) int {
	return zstd.CompressBound(size)
}

func (z ZStandard) Compress(dst, src []byte) (int, error) {
	d, err := zstd.CompressLevel(dst[:0], src, z.level)
	if err != nil {
		return 0, err
	}
	if len(d) > 0 && len(dst) > 0 && &d[0] != &dst[0] {
		return 0, errors.New("dst is not big enough")
	}
	return len(d), nil
}

func (z ZStandard) Decompress(dst, src []byte) (int, error) {
	d, err := zstd.Decompress(dst[:0], src)
	if err != nil {
		return 0, err
	}
	if len(d) > 0 && len(dst) > 0 && &d[0] != &dst[0] {
		return 0, errors.New("dst is not big enough")
	}
	return len(d), nil
}
