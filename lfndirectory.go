package gofat

import (
	"strings"
	"time"

	"github.com/nilsbr/gofat/internal/blockdev"
)

// dirEntry is the in-memory representation of one directory member: a
// real short entry plus the long name decoded from (or destined for) its
// preceding LFN slots. Its pointer identity is the cache key for the
// entry-to-open-file and entry-to-subdirectory maps.
type dirEntry struct {
	header    EntryHeader
	shortName ShortName
	longName  string // "" if this entry carries no LFN (foreign short name)

	invalid bool
}

// displayName is the name callers see: the long name if present,
// otherwise the short name's simple "NAME.EXT" form.
func (e *dirEntry) displayName() string {
	if e.longName != "" {
		return e.longName
	}
	return e.shortName.asSimpleString()
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fatLfnDirectory is the directory façade tying storage, FAT, and the
// uniqueness/lookup indexes together.
type fatLfnDirectory struct {
	fs *Fs

	storage     *abstractDirectory
	fat         *FAT
	device      blockdev.Device
	clusterSize uint32
	filesOffset int64
	entropy     entropySource
	isRoot      bool
	readOnly    bool

	// order is the canonical, insertion-ordered member list. Iteration
	// and flush both walk this slice, giving deterministic iteration
	// order without relying on Go's intentionally randomized map order.
	order []*dirEntry

	shortNameIndex map[ShortName]*dirEntry
	longNameIndex  map[string]*dirEntry

	entryToFile      map[*dirEntry]*FatFile
	entryToDirectory map[*dirEntry]*fatLfnDirectory

	invalid bool
}

func newFatLfnDirectory(fs *Fs, storage *abstractDirectory, fat *FAT, device blockdev.Device, clusterSize uint32, filesOffset int64, isRoot bool) *fatLfnDirectory {
	return &fatLfnDirectory{
		fs:               fs,
		storage:          storage,
		fat:              fat,
		device:           device,
		clusterSize:      clusterSize,
		filesOffset:      filesOffset,
		entropy:          defaultEntropySource{},
		isRoot:           isRoot,
		shortNameIndex:   map[ShortName]*dirEntry{},
		longNameIndex:    map[string]*dirEntry{},
		entryToFile:      map[*dirEntry]*FatFile{},
		entryToDirectory: map[*dirEntry]*fatLfnDirectory{},
	}
}

// load reads storage and parses it into the indexes.
func (d *fatLfnDirectory) load() error {
	if err := d.storage.read(); err != nil {
		return err
	}

	d.order = nil
	d.shortNameIndex = map[ShortName]*dirEntry{}
	d.longNameIndex = map[string]*dirEntry{}

	var pendingLFN []LongFilenameEntry
	for _, rec := range d.storage.entries {
		h := decodeEntryHeader(rec[:])

		if h.IsLongNameEntry() {
			pendingLFN = append(pendingLFN, decodeLongFilenameEntry(rec[:]))
			continue
		}

		if h.IsDeleted() {
			pendingLFN = nil
			continue
		}

		sn := parseShortName(rec[:11])

		var longName string
		if len(pendingLFN) > 0 {
			if name, err := decodeLFN(pendingLFN, sn.checkSum()); err == nil {
				longName = name
			}
			pendingLFN = nil
		}

		if sn.isDot() || sn.isDotDot() {
			continue
		}

		entry := &dirEntry{header: h, shortName: sn, longName: longName}
		d.insertIndexed(entry)
	}
	return nil
}

func (d *fatLfnDirectory) insertIndexed(entry *dirEntry) {
	d.order = append(d.order, entry)
	d.shortNameIndex[entry.shortName] = entry
	d.longNameIndex[lowerTrim(entry.displayName())] = entry
}

func (d *fatLfnDirectory) removeIndexed(entry *dirEntry) {
	delete(d.shortNameIndex, entry.shortName)
	delete(d.longNameIndex, lowerTrim(entry.displayName()))
	delete(d.entryToFile, entry)
	delete(d.entryToDirectory, entry)
	for i, e := range d.order {
		if e == entry {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *fatLfnDirectory) checkValid() error {
	if d.invalid {
		return ErrAlreadyInvalid
	}
	return nil
}

// getEntry looks up name case-insensitively (after trimming), falling
// back to the short-name index when name is itself a valid short name.
func (d *fatLfnDirectory) getEntry(name string) (*dirEntry, error) {
	if err := d.checkValid(); err != nil {
		return nil, err
	}

	key := lowerTrim(name)
	if e, ok := d.longNameIndex[key]; ok {
		return e, nil
	}

	trimmed := strings.TrimSpace(name)
	if canConvert(trimmed) {
		n, ext := splitShortNameString(trimmed)
		if sn, err := newShortName(n, ext); err == nil {
			if e, ok := d.shortNameIndex[sn]; ok {
				return e, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (d *fatLfnDirectory) generateUniqueShortName() ShortName {
	for {
		sn := generateShortName(d.entropy)
		if _, exists := d.shortNameIndex[sn]; !exists {
			return sn
		}
	}
}

// addMember implements the shared prefix of addFile/addDirectory: trim,
// check uniqueness, generate a short name.
func (d *fatLfnDirectory) addMember(name string) (trimmed string, sn ShortName, now time.Time, err error) {
	if d.readOnly {
		return "", ShortName{}, time.Time{}, ErrReadOnly
	}
	trimmed = strings.TrimSpace(name)
	if trimmed == "" {
		return "", ShortName{}, time.Time{}, ErrInvalidArgument
	}
	key := lowerTrim(trimmed)
	if _, exists := d.longNameIndex[key]; exists {
		return "", ShortName{}, time.Time{}, ErrAlreadyExists
	}
	return trimmed, d.generateUniqueShortName(), time.Now(), nil
}

// addFile creates a new regular-file entry with a unique short name and
// persists it to storage.
func (d *fatLfnDirectory) addFile(name string) (*dirEntry, error) {
	trimmed, sn, now, err := d.addMember(name)
	if err != nil {
		return nil, err
	}

	h := EntryHeader{Attribute: AttrArchive}
	copy(h.Name[:], sn[:])
	setEntryCreateTime(&h, now)
	setEntryWriteTime(&h, now)

	records, err := buildRecordsForEntry(h, sn, trimmed)
	if err != nil {
		return nil, err
	}
	if err := d.storage.addEntries(records); err != nil {
		return nil, err
	}

	entry := &dirEntry{header: h, shortName: sn, longName: trimmed}
	d.insertIndexed(entry)
	return entry, nil
}

// addDirectory creates a new subdirectory entry. The subdirectory's own
// cluster is allocated first; if writing the parent's entry then fails
// (DirectoryFull), that cluster is freed before the error is returned.
func (d *fatLfnDirectory) addDirectory(name string) (*dirEntry, error) {
	trimmed, sn, now, err := d.addMember(name)
	if err != nil {
		return nil, err
	}

	h := EntryHeader{Attribute: AttrDirectory}
	copy(h.Name[:], sn[:])
	setEntryCreateTime(&h, now)
	setEntryWriteTime(&h, now)

	startCluster, err := createSubdirectoryStorage(d.device, d.fat, d.clusterSize, d.filesOffset, d.storage.getStorageCluster(), d.isRoot, h)
	if err != nil {
		return nil, err
	}
	h.SetStartCluster(startCluster)

	records, err := buildRecordsForEntry(h, sn, trimmed)
	if err != nil {
		if ch, cherr := d.fat.getChain(startCluster); cherr == nil {
			d.fat.freeChain(ch)
		}
		return nil, err
	}
	if err := d.storage.addEntries(records); err != nil {
		if ch, cherr := d.fat.getChain(startCluster); cherr == nil {
			d.fat.freeChain(ch)
		}
		return nil, err
	}

	entry := &dirEntry{header: h, shortName: sn, longName: trimmed}
	d.insertIndexed(entry)
	return entry, nil
}

// remove silently succeeds if no entry matches; dot-entries cannot be
// removed; frees the entry's cluster chain and rewrites the directory.
func (d *fatLfnDirectory) remove(name string) error {
	if d.readOnly {
		return ErrReadOnly
	}
	entry, err := d.getEntry(name)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if entry.shortName.isDot() || entry.shortName.isDotDot() {
		return ErrInvalidArgument
	}

	if cluster := entry.header.StartCluster(); cluster != 0 {
		chain := newClusterChain(d.device, d.fat, d.clusterSize, d.filesOffset, cluster)
		if err := chain.setChainLength(0); err != nil {
			return err
		}
	}

	entry.invalid = true
	if child, ok := d.entryToDirectory[entry]; ok {
		child.invalid = true
	}
	if f, ok := d.entryToFile[entry]; ok {
		f.invalid = true
	}

	d.removeIndexed(entry)
	return d.rewrite()
}

// moveTo verifies uniqueness in the target, unlinks from source indexes,
// re-keys with a freshly generated short name in the target, and
// re-links in target indexes.
func (d *fatLfnDirectory) moveTo(entry *dirEntry, target *fatLfnDirectory, newName string) error {
	if d.readOnly || target.readOnly {
		return ErrReadOnly
	}
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return ErrInvalidArgument
	}
	key := lowerTrim(trimmed)
	if _, exists := target.longNameIndex[key]; exists {
		return ErrAlreadyExists
	}

	d.removeIndexed(entry)

	entry.shortName = target.generateUniqueShortName()
	copy(entry.header.Name[:], entry.shortName[:])
	entry.longName = trimmed

	target.insertIndexed(entry)

	if err := d.rewrite(); err != nil {
		return err
	}
	return target.rewrite()
}

// rewrite rebuilds the directory's on-disk form from d.order and writes
// it through storage, without touching cached children (callers that
// need the full flush semantics use flush()).
func (d *fatLfnDirectory) rewrite() error {
	var records []directoryEntryRecord
	for _, e := range d.order {
		recs, err := buildRecordsForEntry(e.header, e.shortName, e.longName)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}
	if err := d.storage.setEntries(records); err != nil {
		return err
	}
	return d.storage.flush()
}

// flush flushes all cached files, recursively flushes all cached
// subdirectories, rebuilds the directory's on-disk form, then flushes
// storage.
func (d *fatLfnDirectory) flush() error {
	if d.invalid {
		return ErrAlreadyInvalid
	}
	for _, f := range d.entryToFile {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	for _, sub := range d.entryToDirectory {
		if err := sub.flush(); err != nil {
			return err
		}
	}
	return d.rewrite()
}

// members returns the members in deterministic iteration order.
func (d *fatLfnDirectory) members() []*dirEntry {
	return d.order
}

func buildRecordsForEntry(h EntryHeader, sn ShortName, longName string) ([]directoryEntryRecord, error) {
	var records []directoryEntryRecord

	if longName != "" && lowerTrim(longName) != lowerTrim(sn.asSimpleString()) {
		slots, err := encodeLFN(longName, sn.checkSum())
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			var r directoryEntryRecord
			copy(r[:], encodeLongFilenameEntry(s))
			records = append(records, r)
		}
	}

	var real directoryEntryRecord
	copy(real[:], encodeEntryHeader(h))
	records = append(records, real)
	return records, nil
}
