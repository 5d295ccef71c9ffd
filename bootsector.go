package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// Byte offsets into the boot sector, common to all flavors.
const (
	offJumpBoot        = 0
	offOEMName         = 3
	offBytesPerSector  = 11
	offSectorsPerClus  = 13
	offReservedSecCnt  = 14
	offNumFATs         = 16
	offRootEntCnt      = 17
	offTotalSectors16  = 19
	offMedia           = 21
	offFatSize16       = 22
	offSectorsPerTrack = 24
	offNumberOfHeads   = 26
	offHiddenSectors   = 28
	offTotalSectors32  = 32

	// FAT12/16-specific, starting at 36.
	off1216DriveNumber   = 36
	off1216BootSignature = 38
	off1216VolumeID      = 39
	off1216VolumeLabel   = 43
	off1216FsTypeLabel   = 54

	// FAT32-specific, starting at 36.
	off32FatSize32     = 36
	off32ExtFlags      = 40
	off32FSVersion     = 42
	off32RootCluster   = 44
	off32FSInfoSector  = 48
	off32BkBootSector  = 50
	off32DriveNumber   = 64
	off32BootSignature = 66
	off32VolumeID      = 67
	off32VolumeLabel   = 71
	off32FsTypeLabel   = 82

	offSignature = 510
)

const bootSectorSignature = 0xAA55

// BootSector models the 512-byte boot sector: the parsed BIOS parameter
// block plus the flavor-specific tail, and the derived FAT flavor and
// geometry.
type BootSector struct {
	sec *sector

	fsType FatType

	bytesPerSector      uint16
	sectorsPerCluster   uint8
	reservedSectorCount uint16
	numFATs             uint8
	rootEntryCount      uint16
	totalSectors16      uint16
	media               uint8
	fatSize16           uint16
	totalSectors32      uint32

	// FAT32-only.
	fatSize32    uint32
	rootCluster  uint32
	fsInfoSector uint16
	bkBootSector uint16
}

// readBootSector reads and parses sector 0 from device.
func readBootSector(device blockdev.Device, sectorSize uint32) (*BootSector, error) {
	sec := newSector(device, 0, int(sectorSize))
	if err := sec.read(); err != nil {
		return nil, err
	}

	bs := &BootSector{sec: sec}
	if err := bs.parse(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *BootSector) parse() error {
	if bs.sec.get16(offSignature) != bootSectorSignature {
		return ErrCorruptVolume
	}

	bs.bytesPerSector = bs.sec.get16(offBytesPerSector)
	bs.sectorsPerCluster = bs.sec.get8(offSectorsPerClus)
	bs.reservedSectorCount = bs.sec.get16(offReservedSecCnt)
	bs.numFATs = bs.sec.get8(offNumFATs)
	bs.rootEntryCount = bs.sec.get16(offRootEntCnt)
	bs.totalSectors16 = bs.sec.get16(offTotalSectors16)
	bs.media = bs.sec.get8(offMedia)
	bs.fatSize16 = bs.sec.get16(offFatSize16)
	bs.totalSectors32 = bs.sec.get32(offTotalSectors32)

	switch bs.bytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return ErrCorruptVolume
	}
	if bs.sectorsPerCluster == 0 || bs.sectorsPerCluster&(bs.sectorsPerCluster-1) != 0 {
		return ErrCorruptVolume
	}
	if bs.reservedSectorCount == 0 {
		return ErrCorruptVolume
	}

	fatSize := uint32(bs.fatSize16)
	// Tentatively read the FAT32 fields; they overlap with the FAT12/16
	// tail, so this is safe even before the flavor is known. The flavor
	// decides below which of the two interpretations is authoritative.
	tentativeFatSize32 := bs.sec.get32(off32FatSize32)
	if fatSize == 0 {
		fatSize = tentativeFatSize32
	}

	rootDirSectors := (uint32(bs.rootEntryCount)*32 + uint32(bs.bytesPerSector) - 1) / uint32(bs.bytesPerSector)

	total := uint32(bs.totalSectors16)
	if total == 0 {
		total = bs.totalSectors32
	}

	dataSectors := total - (uint32(bs.reservedSectorCount) + uint32(bs.numFATs)*fatSize + rootDirSectors)
	clusterCount := dataSectors / uint32(bs.sectorsPerCluster)

	bs.fsType = detectFatType(clusterCount)

	if bs.fsType == FAT32 {
		bs.fatSize32 = tentativeFatSize32
		bs.rootCluster = bs.sec.get32(off32RootCluster)
		bs.fsInfoSector = bs.sec.get16(off32FSInfoSector)
		bs.bkBootSector = bs.sec.get16(off32BkBootSector)
	}

	return nil
}

// FSType reports the derived FAT flavor.
func (bs *BootSector) FSType() FatType { return bs.fsType }

// BytesPerSector reports the sector size this volume uses.
func (bs *BootSector) BytesPerSector() uint16 { return bs.bytesPerSector }

// SectorsPerCluster reports the number of sectors making up one cluster.
func (bs *BootSector) SectorsPerCluster() uint8 { return bs.sectorsPerCluster }

// ClusterSize is SectorsPerCluster * BytesPerSector.
func (bs *BootSector) ClusterSize() uint32 {
	return uint32(bs.sectorsPerCluster) * uint32(bs.bytesPerSector)
}

// ReservedSectorCount reports the size of the reserved region, in sectors.
func (bs *BootSector) ReservedSectorCount() uint16 { return bs.reservedSectorCount }

// NumFATs reports how many identical FAT copies the volume carries.
func (bs *BootSector) NumFATs() uint8 { return bs.numFATs }

// RootEntryCount reports the fixed root directory capacity for FAT12/16;
// always 0 for FAT32.
func (bs *BootSector) RootEntryCount() uint16 { return bs.rootEntryCount }

// SectorsPerFat chooses the non-zero of the 16-bit/32-bit fields,
// falling back to the 32-bit field when the 16-bit one is zero.
func (bs *BootSector) SectorsPerFat() uint32 {
	if bs.fatSize16 != 0 {
		return uint32(bs.fatSize16)
	}
	return bs.fatSize32
}

// TotalSectors chooses the non-zero of the 16-bit/32-bit fields.
func (bs *BootSector) TotalSectors() uint32 {
	if bs.totalSectors16 != 0 {
		return uint32(bs.totalSectors16)
	}
	return bs.totalSectors32
}

// Media reports the media descriptor byte.
func (bs *BootSector) Media() uint8 { return bs.media }

// RootDirSectors is the fixed root-directory region size in sectors; 0
// for FAT32, where the root directory is a regular cluster chain.
func (bs *BootSector) RootDirSectors() uint32 {
	if bs.fsType == FAT32 {
		return 0
	}
	return (uint32(bs.rootEntryCount)*32 + uint32(bs.bytesPerSector) - 1) / uint32(bs.bytesPerSector)
}

// FirstDataSector is the sector number where cluster 2 begins.
func (bs *BootSector) FirstDataSector() uint32 {
	return uint32(bs.reservedSectorCount) + uint32(bs.numFATs)*bs.SectorsPerFat() + bs.RootDirSectors()
}

// DataSectorCount is the number of sectors available to clusters.
func (bs *BootSector) DataSectorCount() uint32 {
	return bs.TotalSectors() - bs.FirstDataSector()
}

// ClusterCount is the number of addressable data clusters.
func (bs *BootSector) ClusterCount() uint32 {
	return bs.DataSectorCount() / uint32(bs.sectorsPerCluster)
}

// FatOffset is the byte offset of the n-th FAT copy (0-based).
func (bs *BootSector) FatOffset(n int) int64 {
	return (int64(bs.reservedSectorCount) + int64(n)*int64(bs.SectorsPerFat())) * int64(bs.bytesPerSector)
}

// RootDirOffset is the byte offset of the fixed FAT12/16 root directory
// region. Meaningless for FAT32.
func (bs *BootSector) RootDirOffset() int64 {
	return (int64(bs.reservedSectorCount) + int64(bs.numFATs)*int64(bs.SectorsPerFat())) * int64(bs.bytesPerSector)
}

// FilesOffset is the byte offset of cluster 2, the start of the data
// region addressed by cluster chains.
func (bs *BootSector) FilesOffset() int64 {
	return int64(bs.FirstDataSector()) * int64(bs.bytesPerSector)
}

// RootCluster is the FAT32 root directory's start cluster. Meaningless
// for FAT12/16, whose root directory lives in the fixed region instead.
func (bs *BootSector) RootCluster() uint32 { return bs.rootCluster }

// FSInfoSectorNumber is the FAT32 FS-info sector number. Meaningless for
// FAT12/16.
func (bs *BootSector) FSInfoSectorNumber() uint16 { return bs.fsInfoSector }

// Label reads the inline volume label from the boot sector: offset
// 0x2B for FAT12/16, 0x47 for FAT32.
func (bs *BootSector) Label() string {
	off := off1216VolumeLabel
	if bs.fsType == FAT32 {
		off = off32VolumeLabel
	}
	return trimShortNameBytes(bs.sec.getBytes(off, 11))
}

// SetLabel writes the inline volume label into the boot sector and marks
// it dirty.
func (bs *BootSector) SetLabel(label string) {
	off := off1216VolumeLabel
	if bs.fsType == FAT32 {
		off = off32VolumeLabel
	}
	bs.sec.setBytes(off, padShortNameField(label, 11))
}

// FileSystemTypeLabel reads the informational (non-authoritative) label.
func (bs *BootSector) FileSystemTypeLabel() string {
	off := off1216FsTypeLabel
	if bs.fsType == FAT32 {
		off = off32FsTypeLabel
	}
	return trimShortNameBytes(bs.sec.getBytes(off, 8))
}

// setSectorsPerCluster validates and writes a new sectors-per-cluster
// value; only powers of two are accepted.
func (bs *BootSector) setSectorsPerCluster(v uint8) error {
	if v == 0 || v&(v-1) != 0 {
		return ErrInvalidArgument
	}
	bs.sectorsPerCluster = v
	bs.sec.set8(offSectorsPerClus, v)
	return nil
}

// setBytesPerSector validates and writes a new sector size; only
// {512,1024,2048,4096} are accepted.
func (bs *BootSector) setBytesPerSector(v uint16) error {
	switch v {
	case 512, 1024, 2048, 4096:
	default:
		return ErrInvalidArgument
	}
	bs.bytesPerSector = v
	bs.sec.set16(offBytesPerSector, v)
	return nil
}

// isDirty reports whether the boot sector has pending writes.
func (bs *BootSector) isDirty() bool { return bs.sec.dirty }

// flush writes the boot sector back to the device if dirty.
func (bs *BootSector) flush() error { return bs.sec.write() }
