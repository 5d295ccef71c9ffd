package gofat

import (
	"testing"

	"github.com/nilsbr/gofat/internal/blockdev"
)

func newTestBootSectorDevice(t *testing.T) (blockdev.Device, uint32) {
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
	put16(boot, offSignature, bootSectorSignature)
	if _, err := device.WriteAt(0, boot); err != nil {
		t.Fatalf("writing boot sector: %v", err)
	}

	return device, totalSectors
}

func TestReadBootSectorParsesFAT16Geometry(t *testing.T) {
	device, totalSectors := newTestBootSectorDevice(t)

	bs, err := readBootSector(device, fixtureBytesPerSector)
	if err != nil {
		t.Fatalf("readBootSector() error = %v", err)
	}

	if bs.FSType() != FAT16 {
		t.Errorf("FSType() = %v, want FAT16", bs.FSType())
	}
	if bs.ClusterCount() != fixtureClusterCount {
		t.Errorf("ClusterCount() = %d, want %d", bs.ClusterCount(), fixtureClusterCount)
	}
	if bs.TotalSectors() != totalSectors {
		t.Errorf("TotalSectors() = %d, want %d", bs.TotalSectors(), totalSectors)
	}
	if bs.SectorsPerFat() != fixtureSectorsPerFat {
		t.Errorf("SectorsPerFat() = %d, want %d", bs.SectorsPerFat(), fixtureSectorsPerFat)
	}

	wantFatOffset := int64(fixtureReservedSectors) * fixtureBytesPerSector
	if bs.FatOffset(0) != wantFatOffset {
		t.Errorf("FatOffset(0) = %d, want %d", bs.FatOffset(0), wantFatOffset)
	}
	wantSecondFatOffset := wantFatOffset + int64(fixtureSectorsPerFat)*fixtureBytesPerSector
	if bs.FatOffset(1) != wantSecondFatOffset {
		t.Errorf("FatOffset(1) = %d, want %d", bs.FatOffset(1), wantSecondFatOffset)
	}

	wantRootDirOffset := wantFatOffset + int64(fixtureNumFATs)*int64(fixtureSectorsPerFat)*fixtureBytesPerSector
	if bs.RootDirOffset() != wantRootDirOffset {
		t.Errorf("RootDirOffset() = %d, want %d", bs.RootDirOffset(), wantRootDirOffset)
	}

	wantFilesOffset := wantRootDirOffset + int64(fixtureRootDirSectors)*fixtureBytesPerSector
	if bs.FilesOffset() != wantFilesOffset {
		t.Errorf("FilesOffset() = %d, want %d", bs.FilesOffset(), wantFilesOffset)
	}
}

func TestReadBootSectorRejectsBadSignature(t *testing.T) {
	device, _ := newTestBootSectorDevice(t)
	if _, err := device.WriteAt(offSignature, []byte{0, 0}); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}
	if _, err := readBootSector(device, fixtureBytesPerSector); err != ErrCorruptVolume {
		t.Errorf("readBootSector() with a bad signature error = %v, want ErrCorruptVolume", err)
	}
}

func TestReadBootSectorRejectsZeroReservedSectors(t *testing.T) {
	device, _ := newTestBootSectorDevice(t)
	if _, err := device.WriteAt(offReservedSecCnt, []byte{0, 0}); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}
	if _, err := readBootSector(device, fixtureBytesPerSector); err != ErrCorruptVolume {
		t.Errorf("readBootSector() with zero reserved sectors error = %v, want ErrCorruptVolume", err)
	}
}

func TestBootSectorSetLabelRoundTrips(t *testing.T) {
	device, _ := newTestBootSectorDevice(t)
	bs, err := readBootSector(device, fixtureBytesPerSector)
	if err != nil {
		t.Fatalf("readBootSector() error = %v", err)
	}

	bs.SetLabel("MYDISK")
	if got := bs.Label(); got != "MYDISK" {
		t.Errorf("Label() after SetLabel(%q) = %q, want %q", "MYDISK", got, "MYDISK")
	}
	if !bs.isDirty() {
		t.Errorf("isDirty() after SetLabel() = false, want true")
	}
}

func TestBootSectorSetSectorsPerClusterRejectsNonPowerOfTwo(t *testing.T) {
	device, _ := newTestBootSectorDevice(t)
	bs, err := readBootSector(device, fixtureBytesPerSector)
	if err != nil {
		t.Fatalf("readBootSector() error = %v", err)
	}
	if err := bs.setSectorsPerCluster(3); err != ErrInvalidArgument {
		t.Errorf("setSectorsPerCluster(3) error = %v, want ErrInvalidArgument", err)
	}
	if err := bs.setSectorsPerCluster(4); err != nil {
		t.Errorf("setSectorsPerCluster(4) error = %v, want nil", err)
	}
}
