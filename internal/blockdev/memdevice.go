package blockdev

import (
	"sync"

	"github.com/spf13/afero"
)

// MemDevice is a Device backed by an afero in-memory filesystem. It is
// the fixture used by this package's own tests and by gofat's higher
// layers when they need a disposable volume (test fixtures write a
// hand-built image into it) without touching the real filesystem.
type MemDevice struct {
	mu         sync.Mutex
	fs         afero.Fs
	file       afero.File
	sectorSize uint32
	readOnly   bool
	closed     bool
}

// NewMemDevice creates a zero-filled in-memory device of the given size.
func NewMemDevice(size uint64, sectorSize uint32) (*MemDevice, error) {
	fs := afero.NewMemMapFs()
	f, err := fs.Create("volume.img")
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		return nil, err
	}
	return &MemDevice{fs: fs, file: f, sectorSize: sectorSize}, nil
}

func (d *MemDevice) Size() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	info, err := d.file.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (d *MemDevice) ReadAt(offset int64, dst []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if offset < 0 {
		return 0, ErrOutOfRange
	}
	return d.file.ReadAt(dst, offset)
}

func (d *MemDevice) WriteAt(offset int64, src []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if d.readOnly {
		return 0, ErrOutOfRange
	}
	if offset < 0 {
		return 0, ErrOutOfRange
	}
	return d.file.WriteAt(src, offset)
}

func (d *MemDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.file.Sync()
}

func (d *MemDevice) SectorSize() uint32 {
	return d.sectorSize
}

func (d *MemDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

func (d *MemDevice) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *MemDevice) IsReadOnly() bool {
	return d.readOnly
}

// SetReadOnly flips the device into read-only mode, used by tests that
// want to exercise ErrReadOnly paths without a second device type.
func (d *MemDevice) SetReadOnly(ro bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readOnly = ro
}
