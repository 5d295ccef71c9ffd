package gofat

import (
	"testing"
	"time"
)

func TestDirEntryFileInfoReflectsHeader(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	h := EntryHeader{
		Attribute: AttrArchive,
		FileSize:  42,
	}
	setEntryWriteTime(&h, now)

	sn, err := newShortName("readme", "txt")
	if err != nil {
		t.Fatalf("newShortName() error = %v", err)
	}
	entry := &dirEntry{header: h, shortName: sn, longName: "readme.txt"}

	info := entryFileInfo(entry)
	if info.Name() != "readme.txt" {
		t.Errorf("Name() = %q, want %q", info.Name(), "readme.txt")
	}
	if info.Size() != 42 {
		t.Errorf("Size() = %d, want 42", info.Size())
	}
	if info.IsDir() {
		t.Errorf("IsDir() = true, want false")
	}
	if info.Mode()&0200 == 0 {
		t.Errorf("Mode() = %v, want writable (no AttrReadOnly set)", info.Mode())
	}
}

func TestDirEntryFileInfoReadOnlyAttributeMapsToMode(t *testing.T) {
	h := EntryHeader{Attribute: AttrArchive | AttrReadOnly}
	sn, _ := newShortName("ro", "txt")
	entry := &dirEntry{header: h, shortName: sn}

	info := entryFileInfo(entry)
	if info.Mode()&0200 != 0 {
		t.Errorf("Mode() = %v, want no write bits for a read-only entry", info.Mode())
	}
}

func TestDirEntryFileInfoDirectoryAttribute(t *testing.T) {
	h := EntryHeader{Attribute: AttrDirectory}
	sn, _ := newShortName("sub", "")
	entry := &dirEntry{header: h, shortName: sn, longName: "sub"}

	info := entryFileInfo(entry)
	if !info.IsDir() {
		t.Errorf("IsDir() = false, want true")
	}
	if !info.Mode().IsDir() {
		t.Errorf("Mode() = %v, want ModeDir set", info.Mode())
	}
}

func TestDirEntryFileInfoZeroDateIsZeroTime(t *testing.T) {
	h := EntryHeader{Attribute: AttrArchive} // WriteDate left at 0
	sn, _ := newShortName("x", "txt")
	entry := &dirEntry{header: h, shortName: sn}

	info := entryFileInfo(entry)
	if !info.ModTime().IsZero() {
		t.Errorf("ModTime() = %v, want zero time for an all-zero WriteDate", info.ModTime())
	}
}

func TestRootFileInfo(t *testing.T) {
	r := rootFileInfo{name: "/"}
	if r.Name() != "/" {
		t.Errorf("Name() = %q, want \"/\"", r.Name())
	}
	if !r.IsDir() {
		t.Errorf("IsDir() = false, want true")
	}
	if r.Size() != 0 {
		t.Errorf("Size() = %d, want 0", r.Size())
	}
	if !r.ModTime().IsZero() {
		t.Errorf("ModTime() = %v, want zero time", r.ModTime())
	}
}
