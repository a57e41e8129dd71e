// pkg/block/block.go

package block

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// DataBlock is random read access to a fixed-size run of bytes.
// Reading at or past the end returns io.EOF.
type DataBlock interface {
	io.ReaderAt
	Size() int64
}

// Block is a fixed byte-range view over a shared ManagedChannel.
// Blocks sliced from the same file share one OS handle; each has its
// own Open/Close lifecycle backed by the channel's reference count.
type Block struct {
	channel *ManagedChannel
	offset  int64
	size    int64
}

// New returns a block covering the whole regular file at path. The
// block must be opened before reading and closed afterwards.
func New(path string) (*Block, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if !fi.Mode().IsRegular() {
		return nil, errors.Errorf("%s must be a regular file", path)
	}
	return &Block{channel: newManagedChannel(path), size: fi.Size()}, nil
}

// Size returns the fixed size of the block.
func (b *Block) Size() int64 {
	return b.size
}

// Open acquires the block, incrementing the shared channel's
// reference count and opening the OS handle if needed.
func (b *Block) Open() error {
	return b.channel.Open()
}

// Close releases the block. The shared OS handle is closed once every
// block using it has been closed; extra Closes are no-ops.
func (b *Block) Close() error {
	return b.channel.Close()
}

// ReadAt implements io.ReaderAt over the block's byte range. Offsets
// are relative to the block, reads never cross its end and a read at
// or past the end returns io.EOF.
func (b *Block) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("position must not be negative")
	}
	if err := b.channel.ensureOpen(ErrClosed); err != nil {
		return 0, err
	}
	remaining := b.size - off
	if remaining <= 0 {
		return 0, io.EOF
	}
	clipped := false
	if int64(len(p)) > remaining {
		p = p[:remaining]
		clipped = true
	}
	var n int
	for n < len(p) {
		nn, err := b.channel.Read(p[n:], b.offset+off+int64(n))
		n += nn
		if err != nil {
			return n, err
		}
	}
	if clipped {
		return n, io.EOF
	}
	return n, nil
}

// Slice returns a block covering size bytes starting at offset,
// relative to this block. The slice shares the OS handle but not the
// lifecycle: the caller must Open it before reading and Close it
// independently of the parent.
func (b *Block) Slice(offset, size int64) (*Block, error) {
	if offset == 0 && size == b.size {
		return b, nil
	}
	if offset < 0 {
		return nil, errors.New("offset must not be negative")
	}
	if size < 0 || offset+size > b.size {
		return nil, errors.Errorf("slice [%d, %d) is out of bounds", offset, offset+size)
	}
	logger.Debugf("slicing %s at %d with size %d", b.channel, offset, size)
	return &Block{channel: b.channel, offset: b.offset + offset, size: size}, nil
}

// SliceFrom returns the remainder of the block starting at offset.
func (b *Block) SliceFrom(offset int64) (*Block, error) {
	return b.Slice(offset, b.size-offset)
}
