// cmd/info.go

package main

import (
	"ArcFS/pkg/block"
	"ArcFS/pkg/utils"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show size and identity of files",
		ArgsUsage: "PATH...",
		Action:    info,
	}
}

func info(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		logger.Infof("PATH is needed")
		return nil
	}
	for i := 0; i < ctx.Args().Len(); i++ {
		path := ctx.Args().Get(i)
		b, err := block.New(path)
		if err != nil {
			logger.Errorf("%s: %s", path, err)
			continue
		}
		if err = b.Open(); err != nil {
			logger.Errorf("open %s: %s", path, err)
			continue
		}
		inode, err := utils.GetFileInode(path)
		if err != nil {
			logger.Errorf("lookup inode for %s: %s", path, err)
		}
		var head [4]byte
		n, err := b.ReadAt(head[:], 0)
		if err != nil && err != io.EOF {
			logger.Errorf("read %s: %s", path, err)
			_ = b.Close()
			continue
		}
		fmt.Printf("%s:\n  size: %d\n  inode: %d\n  head: % x\n", path, b.Size(), inode, head[:n])
		_ = b.Close()
	}
	return nil
}
