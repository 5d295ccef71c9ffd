package gofat

import (
	"io"
	"testing"

	"github.com/nilsbr/gofat/internal/blockdev"
)

// Geometry for the synthetic FAT32 fixture: clusterCount sits exactly at
// detectFatType's FAT32 floor (65525), keeping the in-memory image as
// small as a valid FAT32 volume can be.
const (
	fat32BytesPerSector  = 512
	fat32SectorsPerClus  = 1
	fat32ReservedSectors = 32
	fat32NumFATs         = 2
	fat32ClusterCount    = 65525
	fat32SectorsPerFat   = 512 // ceil((clusterCount+2)*4 / bytesPerSector)
	fat32RootCluster     = 2
	fat32FSInfoSector    = 1
)

func newTestFAT32Device(t *testing.T) blockdev.Device {
	t.Helper()

	dataSectors := uint32(fat32ClusterCount) * fat32SectorsPerClus
	totalSectors := uint32(fat32ReservedSectors) + uint32(fat32NumFATs)*fat32SectorsPerFat + dataSectors

	device, err := blockdev.NewMemDevice(uint64(totalSectors)*fat32BytesPerSector, fat32BytesPerSector)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	t.Cleanup(func() { device.Close() })

	boot := make([]byte, fat32BytesPerSector)
	put16(boot, offBytesPerSector, fat32BytesPerSector)
	put8(boot, offSectorsPerClus, fat32SectorsPerClus)
	put16(boot, offReservedSecCnt, fat32ReservedSectors)
	put8(boot, offNumFATs, fat32NumFATs)
	put16(boot, offRootEntCnt, 0)
	put16(boot, offTotalSectors16, 0)
	put8(boot, offMedia, fixtureMedia)
	put16(boot, offFatSize16, 0)
	put32(boot, offTotalSectors32, totalSectors)
	put32(boot, off32FatSize32, fat32SectorsPerFat)
	put32(boot, off32RootCluster, fat32RootCluster)
	put16(boot, off32FSInfoSector, fat32FSInfoSector)
	put16(boot, offSignature, bootSectorSignature)
	if _, err := device.WriteAt(0, boot); err != nil {
		t.Fatalf("writing boot sector: %v", err)
	}

	entryCount := fat32ClusterCount + firstDataClusterIndex
	fat := newFAT(FAT32, entryCount, fixtureMedia)
	fat.setEof(fat32RootCluster) // the root directory occupies one cluster

	fatBytes := fat.bytes(fat32SectorsPerFat * fat32BytesPerSector)
	for n := 0; n < fat32NumFATs; n++ {
		offset := int64(fat32ReservedSectors+n*fat32SectorsPerFat) * fat32BytesPerSector
		if _, err := device.WriteAt(offset, fatBytes); err != nil {
			t.Fatalf("writing FAT copy %d: %v", n, err)
		}
	}

	fsInfo := make([]byte, fat32BytesPerSector)
	put32(fsInfo, offFsInfoLeadSig, fsInfoLeadSignature)
	put32(fsInfo, offFsInfoStrucSig, fsInfoStrucSignature)
	put16(fsInfo, offFsInfoTrailSig, fsInfoTrailSignature)
	put32(fsInfo, offFsInfoFreeCount, fat.getFreeClusterCount())
	put32(fsInfo, offFsInfoNextFree, freeCountUnknown)
	fsInfoOffset := int64(fat32FSInfoSector) * fat32BytesPerSector
	if _, err := device.WriteAt(fsInfoOffset, fsInfo); err != nil {
		t.Fatalf("writing FS-info sector: %v", err)
	}

	// The root directory's single cluster is already zero-filled by
	// NewMemDevice, which doubles as a valid empty directory.

	return device
}

func testingNewFAT32(t *testing.T, opts ...Option) *Fs {
	t.Helper()
	fsys, err := New(newTestFAT32Device(t), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return fsys
}

func TestNewOpensFAT32Fixture(t *testing.T) {
	fsys := testingNewFAT32(t)
	if got := fsys.FSType(); got != FAT32 {
		t.Errorf("FSType() = %v, want FAT32", got)
	}
}

func TestFAT32CreateWriteReadRoundTrip(t *testing.T) {
	fsys := testingNewFAT32(t)

	f, err := fsys.Create("big.bin")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	want := make([]byte, fat32BytesPerSector*3+17) // spans multiple clusters
	for i := range want {
		want[i] = byte(i)
	}
	if _, err := f.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := fsys.Open("big.bin")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	got, err := io.ReadAll(reopened)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read back %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFAT32MkdirUsesClusterChainDirectory(t *testing.T) {
	fsys := testingNewFAT32(t)
	if err := fsys.Mkdir("sub", 0); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if _, err := fsys.Create("sub/leaf.txt"); err != nil {
		t.Fatalf("Create() inside subdirectory error = %v", err)
	}
	stat, err := fsys.Stat("sub/leaf.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.IsDir() {
		t.Errorf("Stat(%q).IsDir() = true, want false", "sub/leaf.txt")
	}
}

func TestFAT32FreeSpaceMatchesFsInfoSeed(t *testing.T) {
	fsys := testingNewFAT32(t)
	before := fsys.FreeSpace()

	seed, ok := fsys.fsInfo.FreeClusterCount()
	if !ok || before != uint64(seed)*uint64(fsys.clusterSize) {
		t.Errorf("FreeSpace() = %d, want FS-info seed %d clusters * %d bytes", before, seed, fsys.clusterSize)
	}

	f, err := fsys.Create("a.txt")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// An empty file holds no data cluster; its first byte allocates one.
	if _, err := f.Write([]byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	after := fsys.FreeSpace()
	if after >= before {
		t.Errorf("FreeSpace() after writing a new file = %d, want < %d", after, before)
	}
}
