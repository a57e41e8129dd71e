// cmd/cat.go

package main

import (
	"ArcFS/pkg/block"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func catFlags() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write a byte range of a file to stdout",
		ArgsUsage: "FILE",
		Action:    cat,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "offset",
				Aliases: []string{"o"},
				Usage:   "start of the range in bytes",
			},
			&cli.Int64Flag{
				Name:    "size",
				Aliases: []string{"s"},
				Value:   -1,
				Usage:   "length of the range in bytes (default: to the end)",
			},
			&cli.Int64Flag{
				Name:  "bwlimit",
				Usage: "limit read bandwidth in bytes per second",
			},
		},
	}
}

// sliceArgs cuts the block down to the range given by --offset/--size.
func sliceArgs(b *block.Block, ctx *cli.Context) (*block.Block, error) {
	offset := ctx.Int64("offset")
	size := ctx.Int64("size")
	if size < 0 {
		return b.SliceFrom(offset)
	}
	return b.Slice(offset, size)
}

func cat(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return fmt.Errorf("FILE is needed")
	}
	b, err := block.New(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	s, err := sliceArgs(b, ctx)
	if err != nil {
		return err
	}
	r, err := s.OpenReader()
	if err != nil {
		return err
	}
	defer r.Close()
	src := block.NewLimited(r, ctx.Int64("bwlimit"))
	_, err = io.Copy(os.Stdout, src)
	return err
}
