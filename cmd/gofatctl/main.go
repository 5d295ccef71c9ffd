// Command gofatctl inspects and manipulates a FAT12/16/32 image from the
// command line: ls, cat, mkdir and cp over the gofat afero.Fs, wired
// with cobra/pflag.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nilsbr/gofat"
	"github.com/nilsbr/gofat/internal/blockdev"
)

var (
	skipChecks        bool
	ignoreFatMismatch bool
	readOnly          bool
	sectorSize        uint32
)

func main() {
	root := &cobra.Command{
		Use:   "gofatctl",
		Short: "Inspect and manipulate FAT12/16/32 images",
	}
	root.PersistentFlags().BoolVar(&skipChecks, "skip-checks", false, "skip FAT-difference and FS-info consistency checks on open")
	root.PersistentFlags().BoolVar(&ignoreFatMismatch, "ignore-fat-mismatch", false, "tolerate disagreeing FAT copies on open")
	root.PersistentFlags().BoolVar(&readOnly, "ro", false, "open the image read-only")
	root.PersistentFlags().Uint32Var(&sectorSize, "sector-size", 512, "device sector size in bytes")

	root.AddCommand(lsCmd(), catCmd(), mkdirCmd(), cpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openImage(path string) (*gofat.Fs, blockdev.Device, error) {
	device, err := blockdev.OpenFileDevice(path, sectorSize, readOnly)
	if err != nil {
		return nil, nil, err
	}

	var opts []gofat.Option
	if ignoreFatMismatch || skipChecks {
		opts = append(opts, gofat.IgnoreFatDifferences())
	}
	if readOnly {
		opts = append(opts, gofat.ReadOnly())
	}

	fs, err := gofat.New(device, opts...)
	if err != nil {
		device.Close()
		return nil, nil, err
	}
	return fs, device, nil
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory's contents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, device, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer device.Close()
			defer fs.Close()

			path := "/"
			if len(args) > 1 {
				path = args[1]
			}

			f, err := fs.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := f.Readdir(-1)
			if err != nil && err != io.EOF {
				return err
			}
			for _, e := range entries {
				kind := "-"
				if e.IsDir() {
					kind = "d"
				}
				fmt.Printf("%s %10d %s %s\n", kind, e.Size(), e.ModTime().Format("2006-01-02 15:04:05"), e.Name())
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print a file's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, device, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer device.Close()
			defer fs.Close()

			f, err := fs.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(os.Stdout, f)
			return err
		},
	}
}

func mkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <image> <path>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, device, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer device.Close()
			defer fs.Close()

			return fs.MkdirAll(args[1], 0755)
		},
	}
}

func cpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <image> <host-src> <image-dst>",
		Short: "Copy a host file into the image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, device, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer device.Close()
			defer fs.Close()

			src, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := fs.Create(args[2])
			if err != nil {
				return err
			}
			defer dst.Close()

			_, err = io.Copy(dst, src)
			return err
		},
	}
}

var _ afero.Fs = (*gofat.Fs)(nil)
