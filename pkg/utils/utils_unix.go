// pkg/utils/utils_unix.go

//go:build !windows

package utils

import "golang.org/x/sys/unix"

// GetFileInode returns the inode number of the file at path.
func GetFileInode(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Ino), nil
}
