// cmd/dump.go

package main

import (
	"ArcFS/pkg/block"
	"ArcFS/pkg/compress"
	"ArcFS/pkg/utils"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func dumpFlags() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "copy a byte range of a file to another file",
		ArgsUsage: "FILE OUTPUT",
		Action:    dump,
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
			&cli.StringFlag{
				Name:  "compress",
				Usage: "compress the output with the given algorithm (lz4, zstd)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "hide the progress bar",
			},
		},
	}
}

func dump(ctx *cli.Context) error {
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("FILE and OUTPUT are needed")
	}
	compressor := compress.NewCompressor(ctx.String("compress"))
	if compressor == nil {
		return fmt.Errorf("unsupported compress algorithm: %s", ctx.String("compress"))
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

	progress, bar := utils.NewDynProgressBar("dumping: ", ctx.Bool("quiet"))
	bar.SetTotal(s.Size(), false)
	reader := bar.ProxyReader(r)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return errors.Wrapf(err, "read %s", ctx.Args().Get(0))
	}
	if compressor.Name() != "none" {
		dst := make([]byte, compressor.CompressBound(len(data)))
		n, err := compressor.Compress(dst, data)
		if err != nil {
			return errors.Wrapf(err, "compress with %s", compressor.Name())
		}
		logger.Infof("compressed %d bytes to %d with %s", len(data), n, compressor.Name())
		data = dst[:n]
	}
	if err = os.WriteFile(ctx.Args().Get(1), data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", ctx.Args().Get(1))
	}
	bar.SetTotal(-1, true)
	progress.Wait()
	return nil
}
