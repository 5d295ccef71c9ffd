package gofat

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers need to distinguish with
// errors.Is.
var (
	ErrNotFound          = errors.New("gofat: not found")
	ErrAlreadyExists     = errors.New("gofat: already exists")
	ErrFatFull           = errors.New("gofat: fat is full")
	ErrReadOnly          = errors.New("gofat: filesystem is read-only")
	ErrAlreadyClosed     = errors.New("gofat: filesystem already closed")
	ErrAlreadyInvalid    = errors.New("gofat: object no longer valid")
	ErrInvalidArgument   = errors.New("gofat: invalid argument")
	ErrEndOfData         = errors.New("gofat: read past end of data")
	ErrUnknownFileSystem = errors.New("gofat: unknown file system")
	ErrCorruptVolume     = errors.New("gofat: corrupt volume")
	ErrInvalidChain      = errors.New("gofat: invalid cluster chain")
)

// DirectoryFullError is returned, wrapped, whenever a directory cannot
// grow to hold a requested number of entries.
type DirectoryFullError struct {
	Current   int
	Requested int
}

func (e *DirectoryFullError) Error() string {
	return fmt.Sprintf("gofat: directory full: current capacity %d, requested %d", e.Current, e.Requested)
}

func (e *DirectoryFullError) Is(target error) bool {
	return target == errDirectoryFull
}

// errDirectoryFull is the sentinel matched by DirectoryFullError.Is so
// callers that only care about the category can use errors.Is(err,
// gofat.ErrDirectoryFull) without unwrapping the struct.
var errDirectoryFull = errors.New("gofat: directory full")

// ErrDirectoryFull is the category sentinel for DirectoryFullError.
var ErrDirectoryFull = errDirectoryFull

func newDirectoryFullError(current, requested int) error {
	return &DirectoryFullError{Current: current, Requested: requested}
}
