// pkg/block/fadvise_linux.go

package block

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandomRead tells the kernel not to read ahead, since blocks
// are read at arbitrary offsets.
func adviseRandomRead(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
