package gofat

import (
	"testing"

	"github.com/nilsbr/gofat/internal/blockdev"
)

// Geometry for the synthetic FAT16 fixture built by newTestFAT16Device:
// chosen so the derived data-cluster count (4085) sits exactly one above
// detectFatType's FAT12 ceiling, forcing FAT16 rather than requiring a
// multi-megabyte FAT32 fixture.
const (
	fixtureBytesPerSector    = 512
	fixtureSectorsPerCluster = 1
	fixtureReservedSectors   = 1
	fixtureNumFATs           = 2
	fixtureRootEntryCount    = 16
	fixtureMedia             = 0xF8
	fixtureClusterCount      = 4085
	fixtureSectorsPerFat     = 16 // ceil((clusterCount+2)*2 / bytesPerSector)
	fixtureRootDirSectors    = 1  // ceil(rootEntryCount*32 / bytesPerSector)
)

// newTestFAT16Device builds a minimal, valid, empty FAT16 volume image in
// memory: a boot sector, two identical FATs, and a zeroed (hence empty)
// fixed root directory region. Formatting a volume from scratch is out
// of this package's scope, so this fixture is built directly at the
// byte level the way bootsector.go itself reads fields, rather than
// through any gofat API.
func newTestFAT16Device(t *testing.T) blockdev.Device {
	t.Helper()

	firstDataSector := uint32(fixtureReservedSectors) +
		uint32(fixtureNumFATs)*uint32(fixtureSectorsPerFat) +
		uint32(fixtureRootDirSectors)
	totalSectors := firstDataSector + fixtureClusterCount*uint32(fixtureSectorsPerCluster)

	device, err := blockdev.NewMemDevice(uint64(totalSectors)*fixtureBytesPerSector, fixtureBytesPerSector)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	t.Cleanup(func() { device.Close() })

	boot := make([]byte, fixtureBytesPerSector)
	put16(boot, offBytesPerSector, fixtureBytesPerSector)
	put8(boot, offSectorsPerClus, fixtureSectorsPerCluster)
	put16(boot, offReservedSecCnt, fixtureReservedSectors)
	put8(boot, offNumFATs, fixtureNumFATs)
	put16(boot, offRootEntCnt, fixtureRootEntryCount)
	put16(boot, offTotalSectors16, uint16(totalSectors))
	put8(boot, offMedia, fixtureMedia)
	put16(boot, offFatSize16, fixtureSectorsPerFat)
	copy(boot[off1216FsTypeLabel:off1216FsTypeLabel+8], "FAT16   ")
	put16(boot, offSignature, bootSectorSignature)
	if _, err := device.WriteAt(0, boot); err != nil {
		t.Fatalf("writing boot sector: %v", err)
	}

	entryCount := int(fixtureClusterCount) + firstDataClusterIndex
	fat := newFAT(FAT16, entryCount, fixtureMedia)
	fatBytes := fat.bytes(fixtureSectorsPerFat * fixtureBytesPerSector)
	for n := 0; n < fixtureNumFATs; n++ {
		offset := int64(fixtureReservedSectors+n*fixtureSectorsPerFat) * fixtureBytesPerSector
		if _, err := device.WriteAt(offset, fatBytes); err != nil {
			t.Fatalf("writing FAT copy %d: %v", n, err)
		}
	}

	// The root directory region is already zero-filled by NewMemDevice,
	// which is itself a valid empty directory (first byte 0x00 is the
	// end-of-directory marker).

	return device
}

// testingNew opens a fresh fixture filesystem, failing the test on error.
func testingNew(t *testing.T, opts ...Option) *Fs {
	t.Helper()
	fsys, err := New(newTestFAT16Device(t), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return fsys
}
