package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// directoryEntryRecord is one raw 32-byte directory slot: either a real
// short entry or an LFN slot, indistinguishable to this layer until the
// higher-up façade decodes it.
type directoryEntryRecord [32]byte

// directoryStorage is what AbstractDirectory needs from its concrete
// backing (fixed root region or cluster chain).
type directoryStorage interface {
	readAll() ([]byte, error)
	writeAll(buf []byte) error
	getStorageCluster() uint32
	capacity() int
	changeSize(entryCount int) error
}

// abstractDirectory is the mutable, capacity-bounded vector of 32-byte
// entries plus an optional volume-label entry. Its two concrete
// backends are directory_fat16root.go and directory_clusterchain.go.
type abstractDirectory struct {
	storage directoryStorage
	entries []directoryEntryRecord
	label   *EntryHeader
}

func newAbstractDirectory(storage directoryStorage) *abstractDirectory {
	return &abstractDirectory{storage: storage}
}

// read fills the in-memory entry vector from the backing storage,
// stopping at the first end-of-directory marker. Volume-label entries
// are extracted into the label slot rather than the entry vector.
func (d *abstractDirectory) read() error {
	buf, err := d.storage.readAll()
	if err != nil {
		return err
	}

	d.entries = nil
	d.label = nil

	for off := 0; off+32 <= len(buf); off += 32 {
		rec := buf[off : off+32]
		if rec[0] == 0x00 {
			break
		}
		if parseShortName(rec).isDeleted() {
			continue
		}

		h := decodeEntryHeader(rec)
		if !h.IsLongNameEntry() && h.IsVolumeLabel() {
			lbl := h
			d.label = &lbl
			continue
		}

		var r directoryEntryRecord
		copy(r[:], rec)
		d.entries = append(d.entries, r)
	}
	return nil
}

// flush writes the encoded entries, then the label entry (if present),
// then a single zero-padded terminating entry, then zero-fills the
// remaining capacity.
func (d *abstractDirectory) flush() error {
	buf := make([]byte, d.storage.capacity()*32)

	pos := 0
	for _, r := range d.entries {
		copy(buf[pos:pos+32], r[:])
		pos += 32
	}
	if d.label != nil {
		copy(buf[pos:pos+32], encodeEntryHeader(*d.label))
		pos += 32
	}
	// The terminator and any remaining capacity are already zero from
	// make([]byte, ...).

	return d.storage.writeAll(buf)
}

// size is the number of live (non-label, non-terminator) entries.
func (d *abstractDirectory) size() int { return len(d.entries) }

// addEntries appends records, growing the underlying storage via
// changeSize first if capacity would be exceeded.
func (d *abstractDirectory) addEntries(records []directoryEntryRecord) error {
	newSize := len(d.entries) + len(records)
	if newSize+d.reservedSlots() > d.storage.capacity() {
		if err := d.storage.changeSize(newSize + d.reservedSlots()); err != nil {
			return err
		}
	}
	d.entries = append(d.entries, records...)
	return nil
}

// setEntries wholesale-replaces the entry vector, used by the LFN
// façade's flush to rebuild the directory from its indexes in iteration
// order.
func (d *abstractDirectory) setEntries(records []directoryEntryRecord) error {
	if len(records)+d.reservedSlots() > d.storage.capacity() {
		if err := d.storage.changeSize(len(records) + d.reservedSlots()); err != nil {
			return err
		}
	}
	d.entries = records
	return nil
}

// reservedSlots accounts for the label entry and the terminating entry
// that flush() always writes in addition to d.entries.
func (d *abstractDirectory) reservedSlots() int {
	n := 1 // terminator
	if d.label != nil {
		n++
	}
	return n
}

func (d *abstractDirectory) getStorageCluster() uint32 { return d.storage.getStorageCluster() }

// createSubdirectoryStorage allocates a single-cluster chain for a new
// subdirectory, builds its "." (points to itself) and ".." (points to
// the parent's storage cluster, 0 if the parent is a root) entries with
// timestamps copied from the subdirectory's own just-created entry, and
// flushes the new directory.
func createSubdirectoryStorage(
	device blockdev.Device,
	fat *FAT,
	clusterSize uint32,
	filesOffset int64,
	parentStorageCluster uint32,
	parentIsRoot bool,
	subEntry EntryHeader,
) (uint32, error) {
	newChain, err := fat.allocNewChain(1)
	if err != nil {
		return 0, err
	}
	startCluster := newChain[0]

	dotEntry := EntryHeader{
		Attribute:       AttrDirectory,
		CreateTimeTenth: subEntry.CreateTimeTenth,
		CreateTime:      subEntry.CreateTime,
		CreateDate:      subEntry.CreateDate,
		LastAccessDate:  subEntry.LastAccessDate,
		WriteTime:       subEntry.WriteTime,
		WriteDate:       subEntry.WriteDate,
	}
	copy(dotEntry.Name[:], dotShortName[:])
	dotEntry.SetStartCluster(startCluster)

	dotDotEntry := dotEntry
	copy(dotDotEntry.Name[:], dotDotShortName[:])
	if parentIsRoot {
		dotDotEntry.SetStartCluster(0)
	} else {
		dotDotEntry.SetStartCluster(parentStorageCluster)
	}

	chain := newClusterChain(device, fat, clusterSize, filesOffset, startCluster)
	storage := newClusterChainDirectoryStorage(chain, clusterSize, false)
	dir := newAbstractDirectory(storage)

	var records []directoryEntryRecord
	var r1, r2 directoryEntryRecord
	copy(r1[:], encodeEntryHeader(dotEntry))
	copy(r2[:], encodeEntryHeader(dotDotEntry))
	records = append(records, r1, r2)

	if err := dir.setEntries(records); err != nil {
		fat.freeChain(newChain)
		return 0, err
	}
	if err := dir.flush(); err != nil {
		fat.freeChain(newChain)
		return 0, err
	}

	return startCluster, nil
}
