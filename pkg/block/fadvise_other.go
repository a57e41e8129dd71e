// pkg/block/fadvise_other.go

//go:build !linux

package block

import "os"

func adviseRandomRead(f *os.File) {}
