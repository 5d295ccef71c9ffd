package gofat

import (
	"testing"

	"github.com/nilsbr/gofat/internal/blockdev"
)

func TestFat16RootDirectoryStorageWriteReadRoundTrip(t *testing.T) {
	device, err := blockdev.NewMemDevice(4096, 512)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	defer device.Close()

	storage := newFat16RootDirectoryStorage(device, 0, 16)
	if storage.capacity() != 16 {
		t.Errorf("capacity() = %d, want 16", storage.capacity())
	}

	buf := make([]byte, 16*32)
	buf[0] = 'A'
	if err := storage.writeAll(buf); err != nil {
		t.Fatalf("writeAll() error = %v", err)
	}

	got, err := storage.readAll()
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	if got[0] != 'A' {
		t.Errorf("readAll()[0] = %v, want 'A'", got[0])
	}
}

func TestFat16RootDirectoryStorageChangeSizeRejectsGrowth(t *testing.T) {
	device, err := blockdev.NewMemDevice(4096, 512)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	defer device.Close()

	storage := newFat16RootDirectoryStorage(device, 0, 16)
	if err := storage.changeSize(17); err == nil {
		t.Errorf("changeSize(17) on a fixed 16-entry region succeeded, want DirectoryFullError")
	}
	if err := storage.changeSize(16); err != nil {
		t.Errorf("changeSize(16) within capacity error = %v, want nil", err)
	}
}

func newTestClusterChainStorage(t *testing.T, clusterCount int) *clusterChainDirectoryStorage {
	t.Helper()
	cc, _ := newTestClusterChain(t, clusterCount)
	if err := cc.setSize(testClusterSize); err != nil {
		t.Fatalf("setSize() error = %v", err)
	}
	return newClusterChainDirectoryStorage(cc, testClusterSize, false)
}

func TestClusterChainDirectoryStorageGrowsOnChangeSize(t *testing.T) {
	storage := newTestClusterChainStorage(t, 4)
	if err := storage.changeSize(40); err != nil { // 40*32 = 1280 bytes, needs 3 clusters
		t.Fatalf("changeSize(40) error = %v", err)
	}
	if got := storage.capacity(); got < 40 {
		t.Errorf("capacity() after changeSize(40) = %d, want >= 40", got)
	}
}

func TestAbstractDirectoryAddEntriesGrowsAndFlushesTerminator(t *testing.T) {
	storage := newTestClusterChainStorage(t, 4)
	dir := newAbstractDirectory(storage)
	if err := dir.read(); err != nil {
		t.Fatalf("read() error = %v", err)
	}

	var rec directoryEntryRecord
	copy(rec[:], encodeEntryHeader(EntryHeader{Name: [11]byte{'A'}}))
	if err := dir.addEntries([]directoryEntryRecord{rec}); err != nil {
		t.Fatalf("addEntries() error = %v", err)
	}
	if dir.size() != 1 {
		t.Errorf("size() = %d, want 1", dir.size())
	}

	if err := dir.flush(); err != nil {
		t.Fatalf("flush() error = %v", err)
	}

	reloaded := newAbstractDirectory(storage)
	if err := reloaded.read(); err != nil {
		t.Fatalf("read() after flush error = %v", err)
	}
	if reloaded.size() != 1 {
		t.Errorf("size() after reload = %d, want 1", reloaded.size())
	}
}

func TestAbstractDirectorySetEntriesReplacesVector(t *testing.T) {
	storage := newTestClusterChainStorage(t, 4)
	dir := newAbstractDirectory(storage)
	if err := dir.read(); err != nil {
		t.Fatalf("read() error = %v", err)
	}

	var a, b directoryEntryRecord
	copy(a[:], encodeEntryHeader(EntryHeader{Name: [11]byte{'A'}}))
	copy(b[:], encodeEntryHeader(EntryHeader{Name: [11]byte{'B'}}))
	if err := dir.setEntries([]directoryEntryRecord{a, b}); err != nil {
		t.Fatalf("setEntries() error = %v", err)
	}
	if dir.size() != 2 {
		t.Errorf("size() = %d, want 2", dir.size())
	}
}
