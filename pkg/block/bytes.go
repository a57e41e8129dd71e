// pkg/block/bytes.go

package block

import (
	"io"

	"github.com/pkg/errors"
)

type bytesBlock []byte

// NewBytesBlock returns an in-memory DataBlock backed by data. The
// slice is not copied and needs no open or close.
func NewBytesBlock(data []byte) DataBlock {
	return bytesBlock(data)
}

func (b bytesBlock) Size() int64 {
	return int64(len(b))
}

func (b bytesBlock) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("position must not be negative")
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
