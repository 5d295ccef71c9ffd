// Package blockdev defines the abstract block device contract gofat
// builds its filesystem layers on top of, plus two concrete
// implementations: a real-file-backed device and an in-memory device used
// by tests.
package blockdev

import "errors"

// ErrOutOfRange is returned when a read or write addresses a negative
// offset or a range past the device's reported size.
var ErrOutOfRange = errors.New("blockdev: offset or length out of range")

// ErrClosed is returned by any operation on a device that has already
// been closed.
var ErrClosed = errors.New("blockdev: device is closed")

// Device is the capability set gofat requires from a block device: sized,
// sector-addressed, byte-granular reads and writes, with explicit flush
// and close. Reads/writes are byte-granular but callers of this package
// address them aligned to SectorSize() by convention, not by contract.
type Device interface {
	// Size reports the total addressable size of the device in bytes.
	Size() (uint64, error)

	// ReadAt reads len(dst) bytes starting at offset. It returns an error
	// if offset is negative or offset+len(dst) exceeds Size().
	ReadAt(offset int64, dst []byte) (int, error)

	// WriteAt writes len(src) bytes starting at offset. It returns
	// ErrReadOnly-wrapping callers should check IsReadOnly() first, as
	// blockdev itself has no notion of a filesystem-level error type.
	WriteAt(offset int64, src []byte) (int, error)

	// Flush persists any buffered writes to the underlying medium.
	Flush() error

	// SectorSize reports the device's native sector size in bytes.
	SectorSize() uint32

	// Close releases the device. Further operations fail with ErrClosed.
	Close() error

	// IsClosed reports whether Close has already been called.
	IsClosed() bool

	// IsReadOnly reports whether the device rejects WriteAt calls.
	IsReadOnly() bool
}
