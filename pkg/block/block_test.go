// pkg/block/block_test.go

package block

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

// writeTestFile creates a file of the given size filled with a
// deterministic byte pattern.
func writeTestFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, testPattern(size, 0), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func testPattern(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)*7 + seed
	}
	return data
}

type testTracker struct {
	mu       sync.Mutex
	opened   []*os.File
	closed   []*os.File
	onOpened func(f *os.File)
}

func (tr *testTracker) OpenedFile(path string, f *os.File) {
	tr.mu.Lock()
	tr.opened = append(tr.opened, f)
	tr.mu.Unlock()
	if tr.onOpened != nil {
		tr.onOpened(f)
	}
}

func (tr *testTracker) ClosedFile(path string, f *os.File) {
	tr.mu.Lock()
	tr.closed = append(tr.closed, f)
	tr.mu.Unlock()
}

func (tr *testTracker) counts() (int, int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.opened), len(tr.closed)
}

func installTracker(t *testing.T) *testTracker {
	t.Helper()
	tr := &testTracker{}
	SetTracker(tr)
	t.Cleanup(func() { SetTracker(nil) })
	return tr
}

func openTestBlock(t *testing.T, size int) *Block {
	t.Helper()
	b, err := New(writeTestFile(t, size))
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	if err = b.Open(); err != nil {
		t.Fatalf("open block: %v", err)
	}
	return b
}

func TestReadAndSliceScenario(t *testing.T) {
	tr := installTracker(t)
	want := testPattern(100, 0)

	b := openTestBlock(t, 100)
	buf := make([]byte, 10)
	n, err := b.ReadAt(buf, 0)
	if err != nil || n != 10 {
		t.Fatalf("read head: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, want[:10]) {
		t.Fatalf("head mismatch: got % x want % x", buf, want[:10])
	}

	s, err := b.Slice(50, 50)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if err = s.Open(); err != nil {
		t.Fatalf("open slice: %v", err)
	}
	n, err = s.ReadAt(buf, 0)
	if err != nil || n != 10 {
		t.Fatalf("read slice: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, want[50:60]) {
		t.Fatalf("slice mismatch: got % x want % x", buf, want[50:60])
	}

	if err = b.Close(); err != nil {
		t.Fatalf("close parent: %v", err)
	}
	if opened, closed := tr.counts(); opened != 1 || closed != 0 {
		t.Fatalf("handle closed while slice still open: opened=%d closed=%d", opened, closed)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("close slice: %v", err)
	}
	if b.channel.refs != 0 {
		t.Fatalf("expected reference count 0, got %d", b.channel.refs)
	}
	if opened, closed := tr.counts(); opened != 1 || closed != 1 {
		t.Fatalf("expected one open and one close, got opened=%d closed=%d", opened, closed)
	}
}

func TestNewRejectsDirectory(t *testing.T) {
	tr := installTracker(t)
	if _, err := New(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
	if opened, _ := tr.counts(); opened != 0 {
		t.Fatalf("handle opened for invalid path: %d", opened)
	}
}

func TestNewMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadRequiresOpen(t *testing.T) {
	b, err := New(writeTestFile(t, 10))
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	if _, err = b.ReadAt(make([]byte, 4), 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err = b.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err = b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err = b.ReadAt(make([]byte, 4), 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestNegativePosition(t *testing.T) {
	b := openTestBlock(t, 10)
	defer b.Close()
	if _, err := b.ReadAt(make([]byte, 4), -1); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected invalid-argument error, got %v", err)
	}
}

func TestReadAtEndOfBlock(t *testing.T) {
	b := openTestBlock(t, 100)
	defer b.Close()

	if n, err := b.ReadAt(make([]byte, 4), 100); n != 0 || err != io.EOF {
		t.Fatalf("read at size: n=%d err=%v", n, err)
	}
	if n, err := b.ReadAt(make([]byte, 4), 200); n != 0 || err != io.EOF {
		t.Fatalf("read past size: n=%d err=%v", n, err)
	}

	buf := make([]byte, 20)
	n, err := b.ReadAt(buf, 90)
	if n != 10 || err != io.EOF {
		t.Fatalf("straddling read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf[:10], testPattern(100, 0)[90:]) {
		t.Fatal("straddling read returned wrong bytes")
	}
}

func TestSliceNeverReadsPastBoundary(t *testing.T) {
	b := openTestBlock(t, 100)
	defer b.Close()

	s, err := b.Slice(0, 50)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	buf := make([]byte, 20)
	n, err := s.ReadAt(buf, 40)
	if n != 10 || err != io.EOF {
		t.Fatalf("expected clipped read of 10 bytes and EOF, got n=%d err=%v", n, err)
	}
}

func TestSliceBounds(t *testing.T) {
	b := openTestBlock(t, 100)
	defer b.Close()

	if _, err := b.Slice(-1, 10); err == nil {
		t.Fatal("expected error for negative offset")
	}
	if _, err := b.Slice(0, -1); err == nil {
		t.Fatal("expected error for negative size")
	}
	if _, err := b.Slice(60, 50); err == nil {
		t.Fatal("expected error for out of bounds slice")
	}
	if _, err := b.SliceFrom(101); err == nil {
		t.Fatal("expected error for offset past the end")
	}

	s, err := b.Slice(0, 100)
	if err != nil {
		t.Fatalf("identity slice: %v", err)
	}
	if s != b {
		t.Fatal("identity slice should return the same block")
	}
}

func TestSliceEquivalence(t *testing.T) {
	b := openTestBlock(t, 500)
	defer b.Close()

	for _, tc := range []struct{ off, size, pos int64 }{
		{0, 500, 123},
		{100, 300, 0},
		{100, 300, 299},
		{250, 250, 17},
	} {
		s, err := b.Slice(tc.off, tc.size)
		if err != nil {
			t.Fatalf("slice(%d, %d): %v", tc.off, tc.size, err)
		}
		got := make([]byte, 1)
		want := make([]byte, 1)
		if _, err = s.ReadAt(got, tc.pos); err != nil {
			t.Fatalf("slice read at %d: %v", tc.pos, err)
		}
		if _, err = b.ReadAt(want, tc.off+tc.pos); err != nil {
			t.Fatalf("parent read at %d: %v", tc.off+tc.pos, err)
		}
		if got[0] != want[0] {
			t.Fatalf("slice(%d,%d) at %d: got %x want %x", tc.off, tc.size, tc.pos, got[0], want[0])
		}
	}
}

func TestSliceOfSliceComposes(t *testing.T) {
	b := openTestBlock(t, 200)
	defer b.Close()

	s1, err := b.Slice(50, 100)
	if err != nil {
		t.Fatalf("first slice: %v", err)
	}
	s2, err := s1.Slice(25, 50)
	if err != nil {
		t.Fatalf("second slice: %v", err)
	}
	if s2.offset != 75 || s2.size != 50 {
		t.Fatalf("expected offset 75 size 50, got offset %d size %d", s2.offset, s2.size)
	}
	buf := make([]byte, 1)
	if _, err = s2.ReadAt(buf, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := testPattern(200, 0)[75]; buf[0] != want {
		t.Fatalf("got %x want %x", buf[0], want)
	}
}

func TestSiblingSlices(t *testing.T) {
	tr := installTracker(t)
	b := openTestBlock(t, 100)

	s1, err := b.Slice(0, 50)
	if err != nil {
		t.Fatalf("slice 1: %v", err)
	}
	s2, err := b.Slice(50, 50)
	if err != nil {
		t.Fatalf("slice 2: %v", err)
	}
	if err = s1.Open(); err != nil {
		t.Fatalf("open s1: %v", err)
	}
	if err = s2.Open(); err != nil {
		t.Fatalf("open s2: %v", err)
	}
	if opened, _ := tr.counts(); opened != 1 {
		t.Fatalf("siblings should share one handle, got %d opens", opened)
	}

	_ = b.Close()
	_ = s1.Close()
	buf := make([]byte, 10)
	if _, err = s2.ReadAt(buf, 0); err != nil {
		t.Fatalf("sibling read after other closed: %v", err)
	}
	if !bytes.Equal(buf, testPattern(100, 0)[50:60]) {
		t.Fatal("sibling read returned wrong bytes")
	}
	_ = s2.Close()
	if _, closed := tr.counts(); closed != 1 {
		t.Fatalf("expected one close, got %d", closed)
	}
}

func TestOpenCloseCounting(t *testing.T) {
	tr := installTracker(t)
	b, err := New(writeTestFile(t, 10))
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err = b.Open(); err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if err = b.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	if b.channel.refs != 0 {
		t.Fatalf("expected reference count 0, got %d", b.channel.refs)
	}
	// extra closes are no-ops
	if err = b.Close(); err != nil {
		t.Fatalf("extra close: %v", err)
	}
	if b.channel.refs != 0 {
		t.Fatalf("extra close changed reference count to %d", b.channel.refs)
	}
	if opened, closed := tr.counts(); opened != 1 || closed != 1 {
		t.Fatalf("expected one open and one close, got opened=%d closed=%d", opened, closed)
	}

	// the channel can be reopened after dropping to zero
	if err = b.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	buf := make([]byte, 10)
	if _, err = b.ReadAt(buf, 0); err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if !bytes.Equal(buf, testPattern(10, 0)) {
		t.Fatal("read after reopen returned wrong bytes")
	}
	_ = b.Close()
}
