package gofat

import (
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/nilsbr/gofat/checkpoint"
	"github.com/nilsbr/gofat/internal/blockdev"
	"github.com/spf13/afero"
)

// Option configures New via the functional-options pattern.
type Option func(*openConfig)

type openConfig struct {
	ignoreFatDifferences bool
	readOnly             bool
}

// IgnoreFatDifferences skips the requirement that all FAT copies be
// byte-equal on open, and for FAT32 also skips the check of the FS-info
// free-cluster count against the FAT.
func IgnoreFatDifferences() Option {
	return func(c *openConfig) { c.ignoreFatDifferences = true }
}

// ReadOnly opens the volume without permitting any mutation; Flush and
// Close never write to the device.
func ReadOnly() Option {
	return func(c *openConfig) { c.readOnly = true }
}

// Fs is the FatFileSystem façade tying the boot sector, FS-info sector,
// FAT, and root directory together behind afero.Fs.
type Fs struct {
	device blockdev.Device

	boot   *BootSector
	fsInfo *FsInfoSector // nil for FAT12/16
	fat    *FAT

	filesOffset int64
	clusterSize uint32
	flavor      FatType

	root *fatLfnDirectory

	ignoreFatDifferences bool
	readOnlyFlag         bool
	closed               bool
}

// New opens a FAT filesystem on device, reading the boot sector, all FAT
// copies, the FS-info sector (FAT32 only), and constructing the root
// directory.
func New(device blockdev.Device, opts ...Option) (*Fs, error) {
	cfg := &openConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if device.IsReadOnly() {
		cfg.readOnly = true
	}

	boot, err := readBootSector(device, device.SectorSize())
	if err != nil {
		return nil, checkpoint.From(err)
	}

	entryCount := int(boot.ClusterCount()) + firstDataClusterIndex
	fatByteLen := int(boot.SectorsPerFat()) * int(boot.BytesPerSector())

	fat, err := readFAT(device, boot.FatOffset(0), fatByteLen, boot.FSType(), entryCount)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	for n := 1; n < int(boot.NumFATs()); n++ {
		other, err := readFAT(device, boot.FatOffset(n), fatByteLen, boot.FSType(), entryCount)
		if err != nil {
			return nil, checkpoint.From(err)
		}
		if !cfg.ignoreFatDifferences && !fat.equal(other) {
			return nil, checkpoint.Wrap(ErrCorruptVolume, ErrCorruptVolume)
		}
	}

	fsys := &Fs{
		device:               device,
		boot:                 boot,
		fat:                  fat,
		filesOffset:          boot.FilesOffset(),
		clusterSize:          boot.ClusterSize(),
		flavor:               boot.FSType(),
		ignoreFatDifferences: cfg.ignoreFatDifferences,
		readOnlyFlag:         cfg.readOnly,
	}

	if boot.FSType() == FAT32 {
		fsInfoOffset := int64(boot.FSInfoSectorNumber()) * int64(boot.BytesPerSector())
		fsInfo, err := readFsInfoSector(device, fsInfoOffset, uint32(boot.BytesPerSector()))
		if err != nil {
			return nil, checkpoint.From(err)
		}
		if !cfg.ignoreFatDifferences {
			if err := fsInfo.verifyAgainstFAT(fat); err != nil {
				return nil, checkpoint.From(err)
			}
		}
		fsys.fsInfo = fsInfo

		chain := newClusterChain(device, fat, fsys.clusterSize, fsys.filesOffset, boot.RootCluster())
		storage := newClusterChainDirectoryStorage(chain, fsys.clusterSize, true)
		abstract := newAbstractDirectory(storage)
		root := newFatLfnDirectory(fsys, abstract, fat, device, fsys.clusterSize, fsys.filesOffset, true)
		root.readOnly = cfg.readOnly
		if err := root.load(); err != nil {
			return nil, checkpoint.From(err)
		}
		fsys.root = root
	} else {
		storage := newFat16RootDirectoryStorage(device, boot.RootDirOffset(), int(boot.RootEntryCount()))
		abstract := newAbstractDirectory(storage)
		root := newFatLfnDirectory(fsys, abstract, fat, device, fsys.clusterSize, fsys.filesOffset, true)
		root.readOnly = cfg.readOnly
		if err := root.load(); err != nil {
			return nil, checkpoint.From(err)
		}
		fsys.root = root
	}

	return fsys, nil
}

func (fsys *Fs) checkOpen() error {
	if fsys.closed {
		return ErrAlreadyClosed
	}
	return nil
}

// getRoot exposes the root directory façade.
func (fsys *Fs) getRoot() *fatLfnDirectory { return fsys.root }

func (fsys *Fs) fileFor(parent *fatLfnDirectory, entry *dirEntry, name string) (*FatFile, error) {
	if f, ok := parent.entryToFile[entry]; ok {
		return f, nil
	}
	chain := newClusterChain(fsys.device, fsys.fat, fsys.clusterSize, fsys.filesOffset, entry.header.StartCluster())
	f := &FatFile{fs: fsys, entry: entry, parent: parent, chain: chain, name: name}
	parent.entryToFile[entry] = f
	return f, nil
}

func (fsys *Fs) directoryFor(parent *fatLfnDirectory, entry *dirEntry) (*fatLfnDirectory, error) {
	if d, ok := parent.entryToDirectory[entry]; ok {
		return d, nil
	}
	cluster := entry.header.StartCluster()
	chain := newClusterChain(fsys.device, fsys.fat, fsys.clusterSize, fsys.filesOffset, cluster)
	storage := newClusterChainDirectoryStorage(chain, fsys.clusterSize, false)
	abstract := newAbstractDirectory(storage)
	d := newFatLfnDirectory(fsys, abstract, fsys.fat, fsys.device, fsys.clusterSize, fsys.filesOffset, false)
	d.readOnly = fsys.readOnlyFlag
	if err := d.load(); err != nil {
		return nil, err
	}
	parent.entryToDirectory[entry] = d
	return d, nil
}

func splitPath(name string) []string {
	name = strings.ReplaceAll(name, "\\", "/")
	parts := strings.Split(name, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		out = append(out, p)
	}
	return out
}

// resolve walks name's path components, returning the containing
// directory and the matched entry. entry is nil (and err is nil) when
// name refers to the root itself.
func (fsys *Fs) resolve(name string) (dir *fatLfnDirectory, entry *dirEntry, err error) {
	if err := fsys.checkOpen(); err != nil {
		return nil, nil, err
	}

	parts := splitPath(name)
	dir = fsys.root
	if len(parts) == 0 {
		return dir, nil, nil
	}

	for i, part := range parts {
		e, err := dir.getEntry(part)
		if err != nil {
			return nil, nil, err
		}
		if i == len(parts)-1 {
			return dir, e, nil
		}
		if !e.header.IsDirectory() {
			return nil, nil, ErrInvalidArgument
		}
		sub, err := fsys.directoryFor(dir, e)
		if err != nil {
			return nil, nil, err
		}
		dir = sub
	}
	return dir, nil, nil
}

// resolveParentDir walks all but the last path component, returning the
// containing directory and the base name, without requiring the base
// name to already exist.
func (fsys *Fs) resolveParentDir(name string) (*fatLfnDirectory, string, error) {
	if err := fsys.checkOpen(); err != nil {
		return nil, "", err
	}

	parts := splitPath(name)
	if len(parts) == 0 {
		return nil, "", ErrInvalidArgument
	}

	dir := fsys.root
	for _, part := range parts[:len(parts)-1] {
		e, err := dir.getEntry(part)
		if err != nil {
			return nil, "", err
		}
		if !e.header.IsDirectory() {
			return nil, "", ErrInvalidArgument
		}
		sub, err := fsys.directoryFor(dir, e)
		if err != nil {
			return nil, "", err
		}
		dir = sub
	}
	return dir, parts[len(parts)-1], nil
}

func (fsys *Fs) Create(name string) (afero.File, error) {
	if fsys.readOnlyFlag {
		return nil, ErrReadOnly
	}
	parent, base, err := fsys.resolveParentDir(name)
	if err != nil {
		return nil, err
	}

	entry, err := parent.addFile(base)
	if err == ErrAlreadyExists {
		entry, err = parent.getEntry(base)
		if err != nil {
			return nil, err
		}
		f, err := fsys.fileFor(parent, entry, name)
		if err != nil {
			return nil, err
		}
		if err := f.setLength(0); err != nil {
			return nil, err
		}
		return f, nil
	}
	if err != nil {
		return nil, err
	}

	return fsys.fileFor(parent, entry, name)
}

func (fsys *Fs) Mkdir(name string, _ os.FileMode) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	parent, base, err := fsys.resolveParentDir(name)
	if err != nil {
		return err
	}
	_, err = parent.addDirectory(base)
	return err
}

func (fsys *Fs) MkdirAll(path string, perm os.FileMode) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}

	parts := splitPath(path)
	dir := fsys.root
	cur := ""
	for _, part := range parts {
		if cur == "" {
			cur = part
		} else {
			cur = cur + "/" + part
		}

		e, err := dir.getEntry(part)
		if err == ErrNotFound {
			e, err = dir.addDirectory(part)
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if !e.header.IsDirectory() {
			return ErrInvalidArgument
		}

		sub, err := fsys.directoryFor(dir, e)
		if err != nil {
			return err
		}
		dir = sub
	}
	return nil
}

func (fsys *Fs) Open(name string) (afero.File, error) {
	return fsys.OpenFile(name, os.O_RDONLY, 0)
}

func (fsys *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	dir, entry, err := fsys.resolve(name)
	if err == ErrNotFound && flag&os.O_CREATE != 0 {
		return fsys.Create(name)
	}
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return &FatFile{fs: fsys, name: "/", dir: fsys.root}, nil
	}

	var f *FatFile
	if entry.header.IsDirectory() {
		sub, err := fsys.directoryFor(dir, entry)
		if err != nil {
			return nil, err
		}
		f = &FatFile{fs: fsys, name: name, entry: entry, parent: dir, dir: sub}
	} else {
		f, err = fsys.fileFor(dir, entry, name)
		if err != nil {
			return nil, err
		}
	}

	if flag&os.O_TRUNC != 0 && !f.isDirectory() {
		if err := f.setLength(0); err != nil {
			return nil, err
		}
	}
	if flag&os.O_APPEND != 0 && !f.isDirectory() {
		f.offset = f.getLength()
	}
	return f, nil
}

func (fsys *Fs) Remove(name string) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	dir, entry, err := fsys.resolve(name)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrInvalidArgument
	}

	if entry.header.IsDirectory() {
		sub, err := fsys.directoryFor(dir, entry)
		if err != nil {
			return err
		}
		if len(sub.members()) > 0 {
			return checkpoint.Wrap(syscall.ENOTEMPTY, ErrInvalidArgument)
		}
	}
	return dir.remove(entry.displayName())
}

func (fsys *Fs) removeRecursive(parent *fatLfnDirectory, entry *dirEntry) error {
	if entry.header.IsDirectory() {
		sub, err := fsys.directoryFor(parent, entry)
		if err != nil {
			return err
		}
		for _, child := range append([]*dirEntry{}, sub.members()...) {
			if err := fsys.removeRecursive(sub, child); err != nil {
				return err
			}
		}
	}
	return parent.remove(entry.displayName())
}

func (fsys *Fs) RemoveAll(path string) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	dir, entry, err := fsys.resolve(path)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrInvalidArgument
	}
	return fsys.removeRecursive(dir, entry)
}

func (fsys *Fs) Rename(oldname, newname string) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	oldDir, entry, err := fsys.resolve(oldname)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrInvalidArgument
	}
	newDir, newBase, err := fsys.resolveParentDir(newname)
	if err != nil {
		return err
	}
	return oldDir.moveTo(entry, newDir, newBase)
}

func (fsys *Fs) Stat(name string) (os.FileInfo, error) {
	_, entry, err := fsys.resolve(name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return rootFileInfo{name: "/"}, nil
	}
	return entryFileInfo(entry), nil
}

// FSType reports the derived FAT flavor.
func (fsys *Fs) FSType() FatType { return fsys.flavor }

func (fsys *Fs) Name() string {
	return "gofat:" + fsys.flavor.String()
}

func (fsys *Fs) Chmod(name string, mode os.FileMode) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	_, entry, err := fsys.resolve(name)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrInvalidArgument
	}
	if mode&0200 == 0 {
		entry.header.Attribute |= AttrReadOnly
	} else {
		entry.header.Attribute &^= AttrReadOnly
	}
	return nil
}

func (fsys *Fs) Chown(string, int, int) error {
	return nil
}

func (fsys *Fs) Chtimes(name string, atime, mtime time.Time) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	_, entry, err := fsys.resolve(name)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrInvalidArgument
	}
	entry.header.LastAccessDate = EncodeDate(atime)
	setEntryWriteTime(&entry.header, mtime)
	return nil
}

// Label returns the volume label.
func (fsys *Fs) Label() string {
	return fsys.boot.Label()
}

// SetLabel updates the volume label in the boot sector only. A volume
// label entry in the root directory, if present, is not changed, and
// flushing writes it back as it was.
func (fsys *Fs) SetLabel(label string) error {
	if fsys.readOnlyFlag {
		return ErrReadOnly
	}
	fsys.boot.SetLabel(label)
	return nil
}

// FileSystemTypeLabel returns the informational, non-authoritative
// filesystem-type string stored in the boot sector (e.g. "FAT16   ").
// Unlike FSType, this is never consulted to decide flavor-specific
// behavior; it is read back only for display purposes.
func (fsys *Fs) FileSystemTypeLabel() string {
	return fsys.boot.FileSystemTypeLabel()
}

// FreeSpace reports the number of free bytes, derived from the FAT's
// authoritative free-cluster scan.
func (fsys *Fs) FreeSpace() uint64 {
	return uint64(fsys.fat.getFreeClusterCount()) * uint64(fsys.clusterSize)
}

// TotalSpace reports the volume's total data-region size in bytes.
func (fsys *Fs) TotalSpace() uint64 {
	return uint64(fsys.boot.ClusterCount()) * uint64(fsys.clusterSize)
}

// Flush persists the boot sector if dirty, all FAT copies, the root
// directory recursively, and for FAT32 the FS-info sector's
// free-count/hint.
func (fsys *Fs) Flush() error {
	if err := fsys.checkOpen(); err != nil {
		return err
	}
	if fsys.readOnlyFlag {
		return nil
	}

	if fsys.boot.isDirty() {
		if err := fsys.boot.flush(); err != nil {
			return checkpoint.From(err)
		}
	}

	fatByteLen := int(fsys.boot.SectorsPerFat()) * int(fsys.boot.BytesPerSector())
	for n := 0; n < int(fsys.boot.NumFATs()); n++ {
		if err := fsys.fat.write(fsys.device, fsys.boot.FatOffset(n), fatByteLen); err != nil {
			return checkpoint.From(err)
		}
	}

	if err := fsys.root.flush(); err != nil {
		return err
	}

	if fsys.fsInfo != nil {
		fsys.fsInfo.SetFreeClusterCount(fsys.fat.getFreeClusterCount())
		fsys.fsInfo.SetNextFreeHint(fsys.fat.lastAlloc)
		if err := fsys.fsInfo.flush(); err != nil {
			return checkpoint.From(err)
		}
	}

	return fsys.device.Flush()
}

// Close flushes (if writable) and marks the filesystem closed. Afterwards
// every call that resolves a path (Open, OpenFile, Create, Mkdir, Stat,
// Remove, RemoveAll, Rename, Chmod, Chtimes), Flush and Close fail with
// ErrAlreadyClosed, as do Read, ReadAt, Write, WriteAt, Truncate and Sync
// on files it issued. MkdirAll, the label, type and space queries, and
// Seek, Readdir, Readdirnames, Stat and Name on issued files do not check
// for closure.
func (fsys *Fs) Close() error {
	if err := fsys.checkOpen(); err != nil {
		return err
	}
	if !fsys.readOnlyFlag {
		if err := fsys.Flush(); err != nil {
			return err
		}
	}
	fsys.closed = true
	return nil
}
