package gofat

import (
	"errors"
	"io/fs"

	"github.com/nilsbr/gofat/internal/blockdev"
)

// GoDirEntry adapts an os.FileInfo to fs.DirEntry.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile adapts a FatFile to fs.File.
type GoFile struct {
	*FatFile
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.FatFile.Stat()
}

func (g GoFile) Read(p []byte) (int, error) {
	return g.FatFile.Read(p)
}

func (g GoFile) Close() error {
	return g.FatFile.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.FatFile.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs wraps the afero FAT implementation to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS opens a FAT filesystem from device as an fs.FS-compatible
// filesystem.
func NewGoFS(device blockdev.Device, opts ...Option) (*GoFs, error) {
	fsys, err := New(device, opts...)
	if err != nil {
		return nil, err
	}

	return &GoFs{*fsys}, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*FatFile)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
