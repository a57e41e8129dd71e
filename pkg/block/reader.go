// pkg/block/reader.go

package block

import (
	"io"

	"github.com/pkg/errors"
)

// Reader is a cursor over a DataBlock, turning positional reads into
// a plain io.Reader stream.
type Reader struct {
	b      DataBlock
	off    int64
	closer io.Closer
}

// NewReader returns a Reader over b starting at offset 0. The caller
// keeps responsibility for opening and closing b.
func NewReader(b DataBlock) *Reader {
	return &Reader{b: b}
}

// OpenReader opens the block and returns a Reader whose Close
// releases it again, so the open/close pair stays scoped to the
// reader's lifetime.
func (b *Block) OpenReader() (*Reader, error) {
	if err := b.Open(); err != nil {
		return nil, err
	}
	return &Reader{b: b, closer: b}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.b == nil {
		return 0, errors.New("reader is already closed")
	}
	n, err := r.b.ReadAt(p, r.off)
	r.off += int64(n)
	return n, err
}

// Close releases the underlying block if this Reader opened it.
// Closing twice is a no-op.
func (r *Reader) Close() error {
	if r.b == nil {
		return nil
	}
	r.b = nil
	if r.closer != nil {
		c := r.closer
		r.closer = nil
		return c.Close()
	}
	return nil
}
