package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// Byte offsets inside the FS-info sector.
const (
	offFsInfoLeadSig   = 0
	offFsInfoStrucSig  = 0x1E4
	offFsInfoFreeCount = 0x1E8
	offFsInfoNextFree  = 0x1EC
	offFsInfoTrailSig  = 0x1FE

	fsInfoLeadSignature  = 0x41615252
	fsInfoStrucSignature = 0x61417272
	fsInfoTrailSignature = 0xAA55

	// freeCountUnknown is the sentinel meaning "unknown".
	freeCountUnknown = 0xFFFFFFFF
)

// FsInfoSector caches the free-cluster count and allocation hint for a
// FAT32 volume. It does not exist for FAT12/16.
type FsInfoSector struct {
	sec *sector

	freeClusterCount uint32
	nextFree         uint32
}

func readFsInfoSector(device blockdev.Device, offset int64, sectorSize uint32) (*FsInfoSector, error) {
	sec := newSector(device, offset, int(sectorSize))
	if err := sec.read(); err != nil {
		return nil, err
	}

	fi := &FsInfoSector{sec: sec}
	if err := fi.verify(); err != nil {
		return nil, err
	}
	fi.freeClusterCount = sec.get32(offFsInfoFreeCount)
	fi.nextFree = sec.get32(offFsInfoNextFree)
	return fi, nil
}

func (fi *FsInfoSector) verify() error {
	if fi.sec.get32(offFsInfoLeadSig) != fsInfoLeadSignature {
		return ErrCorruptVolume
	}
	if fi.sec.get32(offFsInfoStrucSig) != fsInfoStrucSignature {
		return ErrCorruptVolume
	}
	if fi.sec.get16(offFsInfoTrailSig) != fsInfoTrailSignature {
		return ErrCorruptVolume
	}
	return nil
}

// FreeClusterCount returns the cached count, or (0, false) if unknown.
func (fi *FsInfoSector) FreeClusterCount() (uint32, bool) {
	if fi.freeClusterCount == freeCountUnknown {
		return 0, false
	}
	return fi.freeClusterCount, true
}

// SetFreeClusterCount updates the cached count and marks the sector
// dirty.
func (fi *FsInfoSector) SetFreeClusterCount(v uint32) {
	fi.freeClusterCount = v
	fi.sec.set32(offFsInfoFreeCount, v)
}

// NextFreeHint returns the cached allocation hint, or (0, false) if
// unknown.
func (fi *FsInfoSector) NextFreeHint() (uint32, bool) {
	if fi.nextFree == freeCountUnknown {
		return 0, false
	}
	return fi.nextFree, true
}

// SetNextFreeHint updates the cached hint and marks the sector dirty.
func (fi *FsInfoSector) SetNextFreeHint(v uint32) {
	fi.nextFree = v
	fi.sec.set32(offFsInfoNextFree, v)
}

// verifyAgainstFAT checks that, when the free count is known, it equals
// the FAT's authoritative free-entry scan.
func (fi *FsInfoSector) verifyAgainstFAT(fat *FAT) error {
	known, ok := fi.FreeClusterCount()
	if !ok {
		return nil
	}
	if known != fat.getFreeClusterCount() {
		return ErrCorruptVolume
	}
	return nil
}

func (fi *FsInfoSector) flush() error { return fi.sec.write() }
