// pkg/block/channel.go

package block

import (
	"io"
	"os"
	"sync"
	"syscall"

	"ArcFS/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("arcfs")

// bufferSize is the capacity of the per-channel read cache.
const bufferSize = 10 * 1024

// maxReadAttempts bounds how many times a cache refill is retried
// after the handle was closed underneath it.
const maxReadAttempts = 10

// Tracker observes every low-level open and close of an OS file
// handle. It exists so tests can verify reference counting and
// handle repair; it is not part of the normal runtime contract.
type Tracker interface {
	OpenedFile(path string, file *os.File)
	ClosedFile(path string, file *os.File)
}

var tracker Tracker

// SetTracker installs a tracker for all channels in the process.
func SetTracker(t Tracker) {
	tracker = t
}

// ManagedChannel shares a single OS file handle between any number of
// blocks. The handle is opened when the reference count rises from
// zero and closed when it returns to zero. All access is serialized
// by one mutex and reads go through a single small cache buffer, so
// concurrent readers are safe but contend on the lock.
type ManagedChannel struct {
	mu     sync.Mutex
	path   string
	refs   int
	file   *os.File
	buf    []byte
	bufPos int64
	bufLen int
}

func newManagedChannel(path string) *ManagedChannel {
	return &ManagedChannel{path: path, bufPos: -1}
}

// Open increments the reference count, opening the OS handle when the
// count rises from zero. Every Open must be paired with a Close.
func (c *ManagedChannel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		logger.Debugf("opening %s", c.path)
		f, err := os.Open(c.path)
		if err != nil {
			return errors.Wrapf(err, "open %s", c.path)
		}
		adviseRandomRead(f)
		c.file = f
		c.buf = make([]byte, bufferSize)
		if tracker != nil {
			tracker.OpenedFile(c.path, f)
		}
	}
	c.refs++
	logger.Debugf("reference count for %s incremented to %d", c.path, c.refs)
	return nil
}

// Close decrements the reference count, closing the OS handle when
// the count returns to zero. Closing an already closed channel is a
// no-op, so cleanup paths may call it unconditionally.
func (c *ManagedChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return nil
	}
	c.refs--
	logger.Debugf("reference count for %s decremented to %d", c.path, c.refs)
	if c.refs > 0 {
		return nil
	}
	logger.Debugf("closing %s", c.path)
	c.buf = nil
	c.bufPos = -1
	c.bufLen = 0
	f := c.file
	c.file = nil
	err := f.Close()
	if tracker != nil {
		tracker.ClosedFile(c.path, f)
	}
	if err != nil {
		return errors.Wrapf(err, "close %s", c.path)
	}
	return nil
}

// Read copies up to len(p) bytes starting at the given absolute
// position, refilling the cache buffer with one positional read when
// the position falls outside the cached region. It may return fewer
// bytes than len(p); the end of the file is reported as io.EOF.
func (c *ManagedChannel) Read(p []byte, position int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return 0, ErrClosed
	}
	if position < c.bufPos || position >= c.bufPos+int64(c.bufLen) {
		if err := c.fillBuffer(position); err != nil {
			return 0, err
		}
	}
	if c.bufLen <= 0 {
		return 0, io.EOF
	}
	off := int(position - c.bufPos)
	n := utils.Min(c.bufLen-off, len(p))
	copy(p, c.buf[off:off+n])
	return n, nil
}

// fillBuffer reads up to bufferSize bytes at position into the cache.
// A handle that was closed underneath us (asynchronous close or an
// interrupted syscall) is repaired and the read retried, up to
// maxReadAttempts times.
func (c *ManagedChannel) fillBuffer(position int64) error {
	var err error
	for i := 0; i < maxReadAttempts; i++ {
		var n int
		n, err = c.file.ReadAt(c.buf, position)
		if n > 0 || err == nil || err == io.EOF {
			c.bufPos = position
			c.bufLen = n
			return nil
		}
		if !isTransientClose(err) {
			return errors.Wrapf(err, "read %s at %d", c.path, position)
		}
		if rerr := c.repair(); rerr != nil {
			return rerr
		}
	}
	return errors.Wrapf(err, "read %s at %d failed after %d attempts", c.path, position, maxReadAttempts)
}

func isTransientClose(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EINTR)
}

// repair replaces a dead handle with a freshly opened one for the
// same path. The channel stays logically open; only the OS handle
// changes.
func (c *ManagedChannel) repair() error {
	_ = c.file.Close()
	if tracker != nil {
		tracker.ClosedFile(c.path, c.file)
	}
	f, err := os.Open(c.path)
	if err != nil {
		return errors.Wrapf(err, "reopen %s", c.path)
	}
	adviseRandomRead(f)
	c.file = f
	if tracker != nil {
		tracker.OpenedFile(c.path, f)
	}
	logger.Debugf("reopened handle for %s", c.path)
	return nil
}

// ensureOpen returns err unless the channel is currently open and its
// handle still alive.
func (c *ManagedChannel) ensureOpen(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 || c.file == nil {
		return err
	}
	if _, statErr := c.file.Stat(); statErr != nil {
		return err
	}
	return nil
}

func (c *ManagedChannel) String() string {
	return c.path
}
