// File model contains the on-disk structs that map directly onto a
// directory entry's 32 bytes.
//
// The boot sector is deliberately not modeled as an overlay struct
// here: bootsector.go reads it field-by-field at fixed byte offsets,
// because its tail means two different things depending on the
// derived flavor, an overlap a Go struct can't express without unsafe
// tricks the rest of this codebase doesn't use elsewhere.
package gofat

import "time"

// Attribute bits for EntryHeader.Attribute.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// entryDeletedMarker is the first-byte value marking a deleted entry.
const entryDeletedMarker = 0xE5

// EntryHeader is the 32-byte short directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// StartCluster combines the high/low cluster halves. For FAT12/16 the
// high half is always zero.
func (h EntryHeader) StartCluster() uint32 {
	return uint32(h.FirstClusterHI)<<16 | uint32(h.FirstClusterLO)
}

// SetStartCluster writes both halves of a cluster index.
func (h *EntryHeader) SetStartCluster(cluster uint32) {
	h.FirstClusterHI = uint16(cluster >> 16)
	h.FirstClusterLO = uint16(cluster)
}

// IsLongNameEntry reports whether this entry is an LFN slot rather than a
// real entry (attribute exactly 0x0F).
func (h EntryHeader) IsLongNameEntry() bool {
	return h.Attribute == AttrLongName
}

// IsDeleted reports whether the entry has been removed (first byte
// 0xE5).
func (h EntryHeader) IsDeleted() bool {
	return h.Name[0] == entryDeletedMarker
}

// IsEndMarker reports whether this entry is the end-of-directory
// terminator (first byte 0x00).
func (h EntryHeader) IsEndMarker() bool {
	return h.Name[0] == 0x00
}

// IsVolumeLabel reports whether this entry carries the volume label
// rather than a file or directory.
func (h EntryHeader) IsVolumeLabel() bool {
	return h.Attribute&AttrVolumeID != 0 && h.Attribute&AttrLongName != AttrLongName
}

// IsDirectory reports the DIRECTORY attribute bit.
func (h EntryHeader) IsDirectory() bool {
	return h.Attribute&AttrDirectory != 0
}

// setEntryCreateTime stamps both the create date and time fields; the
// same write-time bookkeeping applies equally at creation.
func setEntryCreateTime(h *EntryHeader, t time.Time) {
	h.CreateDate = EncodeDate(t)
	h.CreateTime = EncodeTime(t)
	h.LastAccessDate = h.CreateDate
}

// setEntryWriteTime stamps the last-modified date/time fields.
func setEntryWriteTime(h *EntryHeader, t time.Time) {
	h.WriteDate = EncodeDate(t)
	h.WriteTime = EncodeTime(t)
}

// LongFilenameEntry is one 32-byte LFN slot preceding a real entry.
type LongFilenameEntry struct {
	Sequence  byte
	First     [5]uint16
	Attribute byte
	EntryType byte
	Checksum  byte
	Second    [6]uint16
	Zero      [2]byte
	Third     [2]uint16
}

// IsLast reports whether this is the highest-ordinal slot (physically
// first on disk for a given name).
func (l LongFilenameEntry) IsLast() bool {
	return l.Sequence&0x40 != 0
}

// Ordinal is the slot's sequence number with the "last" bit stripped.
func (l LongFilenameEntry) Ordinal() int {
	return int(l.Sequence &^ 0x40)
}

// codeUnits returns this slot's 13 UTF-16 code units in on-disk order.
func (l LongFilenameEntry) codeUnits() [13]uint16 {
	var units [13]uint16
	copy(units[0:5], l.First[:])
	copy(units[5:11], l.Second[:])
	copy(units[11:13], l.Third[:])
	return units
}
