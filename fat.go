package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// fatEntry is a single cluster-link value together with the flavor that
// gives it meaning: the same raw bit pattern means different things
// depending on entry width. It is a tagged sum of pure functions of
// (data, flavor), not virtual dispatch.
type fatEntry struct {
	value  uint32
	flavor FatType
}

// Value returns the raw, already-masked entry value.
func (e fatEntry) Value() uint32 { return e.value & e.flavor.Mask() }

// IsFree reports whether this entry denotes an unused cluster.
func (e fatEntry) IsFree() bool { return e.flavor.IsFree(e.value) }

// IsEOF reports whether this entry marks the end of a chain.
func (e fatEntry) IsEOF() bool { return e.flavor.IsEOF(e.value) }

// IsReserved reports whether this entry falls in the flavor's reserved
// range.
func (e fatEntry) IsReserved() bool { return e.flavor.IsReserved(e.value) }

// IsBad reports whether this entry marks a bad cluster (the single value
// immediately above the reserved range and below the EOF range).
func (e fatEntry) IsBad() bool {
	_, hi := e.flavor.ReservedRange()
	return e.Value() == (hi+1)&e.flavor.Mask()
}

// IsNextCluster reports whether this entry is a plain pointer to another
// cluster: neither free, reserved, bad, nor EOF.
func (e fatEntry) IsNextCluster() bool {
	return !e.IsFree() && !e.IsReserved() && !e.IsBad() && !e.IsEOF()
}

// ReadAsNextCluster returns the entry's value interpreted as a cluster
// index, valid only when IsNextCluster() is true.
func (e fatEntry) ReadAsNextCluster() uint32 { return e.Value() }

// FAT is the packed, on-disk cluster-link table, held in-memory as a flat
// slice of already-unpacked entry values.
type FAT struct {
	flavor    FatType
	entries   []uint32
	lastAlloc uint32 // hint cluster for the next allocation search
}

// firstDataClusterIndex and the implicit "N" bound: entries[2:dataClusterCount+2)
// are data clusters.
const firstDataClusterIndex = 2

func newFAT(flavor FatType, entryCount int, media byte) *FAT {
	f := &FAT{
		flavor:    flavor,
		entries:   make([]uint32, entryCount),
		lastAlloc: firstDataClusterIndex,
	}
	f.entries[0] = (uint32(media) & 0xFF) | (0xFFFFFF00 & flavor.Mask())
	f.entries[1] = flavor.Mask()
	return f
}

// readFAT loads a flat packed FAT table of entryCount entries from
// device starting at offset.
func readFAT(device blockdev.Device, offset int64, byteLen int, flavor FatType, entryCount int) (*FAT, error) {
	raw := make([]byte, byteLen)
	if _, err := device.ReadAt(offset, raw); err != nil {
		return nil, err
	}

	f := &FAT{flavor: flavor, entries: make([]uint32, entryCount), lastAlloc: firstDataClusterIndex}
	for i := 0; i < entryCount; i++ {
		f.entries[i] = f.readPacked(raw, i)
	}
	return f, nil
}

func (f *FAT) readPacked(raw []byte, idx int) uint32 {
	switch f.flavor {
	case FAT12:
		return uint32(get12(raw, idx))
	case FAT16:
		return uint32(get16(raw, idx*2))
	default:
		return get32(raw, idx*4) & f.flavor.Mask()
	}
}

func (f *FAT) writePacked(raw []byte, idx int, v uint32) {
	switch f.flavor {
	case FAT12:
		put12(raw, idx, uint16(v&0x0FFF))
	case FAT16:
		put16(raw, idx*2, uint16(v&0xFFFF))
	default:
		// The top 4 bits of a 32-bit entry are reserved and left
		// untouched by convention; callers only ever pass masked values.
		existing := get32(raw, idx*4)
		put32(raw, idx*4, (v&f.flavor.Mask())|(existing&0xF0000000))
	}
}

// bytes packs the in-memory table back into its on-disk representation.
func (f *FAT) bytes(byteLen int) []byte {
	raw := make([]byte, byteLen)
	for i, v := range f.entries {
		f.writePacked(raw, i, v)
	}
	return raw
}

// write persists the packed table to device at offset.
func (f *FAT) write(device blockdev.Device, offset int64, byteLen int) error {
	_, err := device.WriteAt(offset, f.bytes(byteLen))
	return err
}

// entry wraps entries[i] with flavor context.
func (f *FAT) entry(i uint32) fatEntry {
	return fatEntry{value: f.entries[i], flavor: f.flavor}
}

func (f *FAT) readEntry(i uint32) uint32 { return f.entries[i] & f.flavor.Mask() }

func (f *FAT) writeEntry(i, v uint32) { f.entries[i] = v & f.flavor.Mask() }

func (f *FAT) setEof(c uint32) { f.writeEntry(c, f.flavor.EOF()) }

func (f *FAT) setFree(c uint32) { f.writeEntry(c, 0) }

func (f *FAT) isFree(v uint32) bool     { return f.flavor.IsFree(v) }
func (f *FAT) isEof(v uint32) bool      { return f.flavor.IsEOF(v) }
func (f *FAT) isReserved(v uint32) bool { return f.flavor.IsReserved(v) }

// lastClusterIndex is the highest valid data-cluster index (entries[2..N)
// are data clusters).
func (f *FAT) lastClusterIndex() uint32 { return uint32(len(f.entries)) - 1 }

// getChain walks the chain starting at start with a two-pass algorithm:
// count its length, then fill it. Detects self-reference, a visit into
// the reserved range, or a next-cluster pointer outside the table as
// corruption, which is reported rather than left to panic.
func (f *FAT) getChain(start uint32) ([]uint32, error) {
	if start == 0 {
		return nil, nil
	}

	length, err := f.chainLength(start)
	if err != nil {
		return nil, err
	}

	chain := make([]uint32, 0, length)
	cluster := start
	visited := make(map[uint32]bool, length)
	for {
		if visited[cluster] {
			return nil, ErrInvalidChain
		}
		visited[cluster] = true
		chain = append(chain, cluster)

		e := f.entry(cluster)
		if e.IsEOF() {
			break
		}
		if !e.IsNextCluster() {
			return nil, ErrInvalidChain
		}
		next := e.ReadAsNextCluster()
		if next >= uint32(len(f.entries)) {
			return nil, ErrInvalidChain
		}
		cluster = next
	}
	return chain, nil
}

func (f *FAT) chainLength(start uint32) (int, error) {
	if start >= uint32(len(f.entries)) {
		return 0, ErrInvalidChain
	}

	cluster := start
	visited := make(map[uint32]bool)
	count := 0
	for {
		if visited[cluster] {
			return 0, ErrInvalidChain
		}
		visited[cluster] = true
		count++

		e := f.entry(cluster)
		if e.IsEOF() {
			return count, nil
		}
		if !e.IsNextCluster() {
			return 0, ErrInvalidChain
		}
		next := e.ReadAsNextCluster()
		if next >= uint32(len(f.entries)) {
			return 0, ErrInvalidChain
		}
		cluster = next
	}
}

// allocNew finds a single free cluster, marks it EOF, and returns its
// index. The search starts at the last-allocated hint up to
// lastClusterIndex, then wraps [2, hint). Ties (multiple qualifying free
// clusters) break toward the lowest index reachable after the hint.
func (f *FAT) allocNew() (uint32, error) {
	n := uint32(len(f.entries))
	hint := f.lastAlloc
	if hint < firstDataClusterIndex || hint >= n {
		hint = firstDataClusterIndex
	}

	for i := hint; i < n; i++ {
		if f.isFree(f.readEntry(i)) {
			return f.takeFree(i), nil
		}
	}
	for i := uint32(firstDataClusterIndex); i < hint; i++ {
		if f.isFree(f.readEntry(i)) {
			return f.takeFree(i), nil
		}
	}
	return 0, ErrFatFull
}

func (f *FAT) takeFree(i uint32) uint32 {
	f.setEof(i)
	f.lastAlloc = i + 1
	return i
}

// allocNewChain allocates one cluster, then appends (n-1) more.
func (f *FAT) allocNewChain(n int) ([]uint32, error) {
	if n <= 0 {
		return nil, ErrInvalidArgument
	}
	first, err := f.allocNew()
	if err != nil {
		return nil, err
	}
	chain := []uint32{first}
	tail := first
	for i := 1; i < n; i++ {
		next, err := f.allocAppend(tail)
		if err != nil {
			// Undo the partial allocation so the FAT is left consistent.
			for _, c := range chain {
				f.setFree(c)
			}
			return nil, err
		}
		chain = append(chain, next)
		tail = next
	}
	return chain, nil
}

// allocAppend walks to the chain's real tail starting from any cluster
// belonging to the chain, allocates a new cluster, and links tail->new.
func (f *FAT) allocAppend(anyClusterInChain uint32) (uint32, error) {
	if anyClusterInChain >= uint32(len(f.entries)) {
		return 0, ErrInvalidChain
	}

	tail := anyClusterInChain
	for {
		e := f.entry(tail)
		if e.IsEOF() {
			break
		}
		if !e.IsNextCluster() {
			return 0, ErrInvalidChain
		}
		next := e.ReadAsNextCluster()
		if next >= uint32(len(f.entries)) {
			return 0, ErrInvalidChain
		}
		tail = next
	}

	next, err := f.allocNew()
	if err != nil {
		return 0, err
	}
	f.writeEntry(tail, next)
	return next, nil
}

// freeChain marks every cluster in chain as free.
func (f *FAT) freeChain(chain []uint32) {
	for _, c := range chain {
		f.setFree(c)
	}
}

// getFreeClusterCount performs the authoritative linear scan over
// entries[2, N).
func (f *FAT) getFreeClusterCount() uint32 {
	var count uint32
	for i := firstDataClusterIndex; i < len(f.entries); i++ {
		if f.isFree(f.entries[i]) {
			count++
		}
	}
	return count
}

// equal reports whether two FAT instances have the same flavor, length,
// and entry values.
func (f *FAT) equal(other *FAT) bool {
	if other == nil || f.flavor != other.flavor || len(f.entries) != len(other.entries) {
		return false
	}
	for i := range f.entries {
		if f.entries[i]&f.flavor.Mask() != other.entries[i]&other.flavor.Mask() {
			return false
		}
	}
	return true
}
