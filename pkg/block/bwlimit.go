// pkg/block/bwlimit.go

package block

import (
	"io"

	"github.com/juju/ratelimit"
)

type limitedReader struct {
	io.Reader
	bucket *ratelimit.Bucket
}

// NewLimited wraps r so reads are throttled to roughly bps bytes per
// second. A non-positive bps returns r unchanged.
func NewLimited(r io.Reader, bps int64) io.Reader {
	if bps <= 0 {
		return r
	}
	// there are overheads coming from syscalls and scheduling
	return &limitedReader{r, ratelimit.NewBucketWithRate(float64(bps)*0.85, bps)}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.Reader.Read(p)
	if n > 0 {
		l.bucket.Wait(int64(n))
	}
	return n, err
}

// Close closes the underlying reader.
func (l *limitedReader) Close() error {
	if rc, ok := l.Reader.(io.Closer); ok {
		return rc.Close()
	}
	return nil
}
