package blockdev

import (
	"io"
	"os"
	"sync"
)

// FileDevice is a Device backed by a real *os.File.
type FileDevice struct {
	mu         sync.Mutex
	f          *os.File
	sectorSize uint32
	readOnly   bool
	closed     bool
}

// NewFileDevice wraps an already-open file as a Device. sectorSize should
// match the media's native sector size (512 is the near-universal default
// for FAT volumes).
func NewFileDevice(f *os.File, sectorSize uint32, readOnly bool) *FileDevice {
	return &FileDevice{f: f, sectorSize: sectorSize, readOnly: readOnly}
}

// OpenFileDevice opens path and wraps it as a Device.
func OpenFileDevice(path string, sectorSize uint32, readOnly bool) (*FileDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	return NewFileDevice(f, sectorSize, readOnly), nil
}

func (d *FileDevice) Size() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	info, err := d.f.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (d *FileDevice) ReadAt(offset int64, dst []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if offset < 0 {
		return 0, ErrOutOfRange
	}
	n, err := d.f.ReadAt(dst, offset)
	if err == io.EOF && n == len(dst) {
		err = nil
	}
	return n, err
}

func (d *FileDevice) WriteAt(offset int64, src []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if d.readOnly {
		return 0, os.ErrPermission
	}
	if offset < 0 {
		return 0, ErrOutOfRange
	}
	return d.f.WriteAt(src, offset)
}

func (d *FileDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.f.Sync()
}

func (d *FileDevice) SectorSize() uint32 {
	return d.sectorSize
}

func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.f.Close()
}

func (d *FileDevice) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *FileDevice) IsReadOnly() bool {
	return d.readOnly
}
