package gofat

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/nilsbr/gofat/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = ErrEndOfData
	ErrSeekFile = ErrInvalidArgument
	ErrReadDir  = ErrCorruptVolume
)

// FatFile is the thin layer over a ClusterChain and its directory entry
// that implements the afero.File surface: Read/ReadAt/Seek/Readdir/
// Readdirnames/Stat/Close/Write/WriteAt/Truncate/Sync, all routed
// through the entry's ClusterChain.
type FatFile struct {
	fs     *Fs
	name   string
	entry  *dirEntry        // nil for the root directory pseudo-file
	parent *fatLfnDirectory // directory this entry lives in; nil for root
	chain  *clusterChain    // nil when entry.header.IsDirectory()
	dir    *fatLfnDirectory // non-nil for directories (including root)

	offset  int64
	invalid bool
}

func (f *FatFile) checkValid() error {
	if f.fs.closed {
		return ErrAlreadyClosed
	}
	if f.invalid || (f.entry != nil && f.entry.invalid) {
		return ErrAlreadyInvalid
	}
	return nil
}

func (f *FatFile) isDirectory() bool {
	return f.dir != nil
}

func (f *FatFile) isReadOnly() bool {
	return f.fs.readOnlyFlag || (f.entry != nil && f.entry.header.Attribute&AttrReadOnly != 0)
}

// getLength reports the entry's stored file size, not the on-disk chain
// capacity.
func (f *FatFile) getLength() int64 {
	if f.entry == nil {
		return 0
	}
	return int64(f.entry.header.FileSize)
}

// setLength updates the chain via setSize, possibly changing the start
// cluster when growing from empty, and writes both the new start
// cluster and the new size into the entry. The entry is shared by
// pointer with its parent directory's index, so the change becomes
// durable on the directory's next flush.
func (f *FatFile) setLength(n int64) error {
	if err := f.checkValid(); err != nil {
		return err
	}
	if f.fs.readOnlyFlag {
		return ErrReadOnly
	}
	if err := f.chain.setSize(uint32(n)); err != nil {
		return checkpoint.From(err)
	}
	f.entry.header.SetStartCluster(f.chain.start)
	f.entry.header.FileSize = uint32(n)
	return nil
}

// read requires offset+len(dst) <= length, failing with EndOfData
// otherwise, and updates the last-accessed timestamp unless the file is
// read-only.
func (f *FatFile) read(offset int64, dst []byte) error {
	if err := f.checkValid(); err != nil {
		return err
	}
	if offset+int64(len(dst)) > f.getLength() {
		return ErrEndOfData
	}
	if err := f.chain.readData(uint32(offset), dst); err != nil {
		return checkpoint.From(err)
	}
	if !f.isReadOnly() {
		f.entry.header.LastAccessDate = EncodeDate(time.Now())
	}
	return nil
}

// write grows the file to offset+len(src) if needed, writes through the
// chain, and updates last-modified and last-accessed.
func (f *FatFile) write(offset int64, src []byte) error {
	if err := f.checkValid(); err != nil {
		return err
	}
	if f.fs.readOnlyFlag {
		return ErrReadOnly
	}
	if len(src) == 0 {
		return nil
	}

	needed := offset + int64(len(src))
	if needed > f.getLength() {
		if err := f.setLength(needed); err != nil {
			return err
		}
	}
	if err := f.chain.writeData(uint32(offset), src); err != nil {
		return checkpoint.From(err)
	}

	now := time.Now()
	setEntryWriteTime(&f.entry.header, now)
	f.entry.header.LastAccessDate = EncodeDate(now)
	return nil
}

// flush is a no-op besides the read-only/validity checks; the entry's
// dirty fields live in the shared *dirEntry and are persisted by the
// owning directory's flush.
func (f *FatFile) flush() error {
	if err := f.checkValid(); err != nil {
		return err
	}
	return nil
}

// Flush is the exported form used by fatLfnDirectory.flush.
func (f *FatFile) Flush() error { return f.flush() }

func (f *FatFile) Close() error {
	f.invalid = true
	// Drop the closed handle from the parent's cache so a later Open or a
	// directory flush gets a fresh, valid FatFile for the same entry.
	if f.parent != nil && f.parent.entryToFile[f.entry] == f {
		delete(f.parent.entryToFile, f.entry)
	}
	return nil
}

func (f *FatFile) Read(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}
	if err := f.checkValid(); err != nil {
		return 0, err
	}
	if f.getLength() <= f.offset {
		return 0, io.EOF
	}

	readLen := int64(len(p))
	if f.offset+readLen > f.getLength() {
		readLen = f.getLength() - f.offset
	}

	if err := f.read(f.offset, p[:readLen]); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}
	f.offset += readLen
	return int(readLen), nil
}

func (f *FatFile) ReadAt(p []byte, off int64) (n int, err error) {
	if p == nil {
		return 0, nil
	}
	if err := f.checkValid(); err != nil {
		return 0, err
	}
	if f.getLength() <= off {
		return 0, io.EOF
	}

	readLen := int64(len(p))
	if off+readLen > f.getLength() {
		readLen = f.getLength() - off
	}

	if err := f.read(off, p[:readLen]); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}
	return int(readLen), nil
}

// Seek jumps to a specific offset in the file. This affects all Read
// operations except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the resulting offset is
// negative. Seeking past the end is allowed: Read then reports io.EOF and
// Write extends the file.
func (f *FatFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.getLength() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *FatFile) Write(p []byte) (n int, err error) {
	if err := f.checkValid(); err != nil {
		return 0, err
	}
	if err := f.write(f.offset, p); err != nil {
		return 0, err
	}
	f.offset += int64(len(p))
	return len(p), nil
}

func (f *FatFile) WriteAt(p []byte, off int64) (n int, err error) {
	if err := f.checkValid(); err != nil {
		return 0, err
	}
	if err := f.write(off, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *FatFile) Name() string {
	return f.name
}

// Readdir reads the contents of a directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *FatFile) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory() {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	members := f.dir.members()

	end := len(members)
	var err error
	if count > 0 && int64(len(members)) < f.offset+int64(count) {
		count = len(members) - int(f.offset)
		err = io.EOF
	}
	if count >= 0 {
		end = int(f.offset) + count
	}

	if int(f.offset) > len(members) {
		return nil, io.EOF
	}
	members = members[f.offset:end]

	if count > 0 {
		f.offset += int64(count)
	} else if count < 0 {
		f.offset = int64(end)
	}

	result := make([]os.FileInfo, len(members))
	for i, e := range members {
		result[i] = entryFileInfo(e)
	}

	return result, err
}

func (f *FatFile) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *FatFile) Stat() (os.FileInfo, error) {
	if f.entry == nil {
		return rootFileInfo{name: f.name}, nil
	}
	return entryFileInfo(f.entry), nil
}

func (f *FatFile) Sync() error {
	return f.flush()
}

// Truncate changes the file's length, growing with zero bytes or
// discarding the tail as needed.
func (f *FatFile) Truncate(size int64) error {
	if f.isDirectory() {
		return checkpoint.Wrap(syscall.EISDIR, ErrInvalidArgument)
	}
	old := f.getLength()
	if err := f.setLength(size); err != nil {
		return err
	}
	if size > old {
		if err := f.chain.writeData(uint32(old), make([]byte, size-old)); err != nil {
			return checkpoint.From(err)
		}
	}
	return nil
}

func (f *FatFile) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
