package gofat

import (
	"os"
	"time"
)

// entryFileInfo adapts a dirEntry to os.FileInfo. displayName already
// resolves the LFN-vs-short-name precedence.
func entryFileInfo(e *dirEntry) os.FileInfo {
	return dirEntryFileInfo{entry: e}
}

type dirEntryFileInfo struct {
	entry *dirEntry
}

func (e dirEntryFileInfo) Name() string {
	return e.entry.displayName()
}

func (e dirEntryFileInfo) Size() int64 {
	return int64(e.entry.header.FileSize)
}

func (e dirEntryFileInfo) Mode() os.FileMode {
	mode := os.FileMode(0)
	if e.IsDir() {
		mode |= os.ModeDir
	}
	if e.entry.header.Attribute&AttrReadOnly != 0 {
		mode |= 0444
	} else {
		mode |= 0644
	}
	return mode
}

func (e dirEntryFileInfo) ModTime() time.Time {
	writeDate := ParseDate(e.entry.header.WriteDate)
	writeTime := ParseTime(e.entry.header.WriteTime)

	// If the date IsZero() it contained any invalid value in which case we return time.Time{}.
	// For writeTime we cannot do that because writeTime.IsZero() is perfectly valid.
	if writeDate.IsZero() {
		return time.Time{}
	}

	return time.Date(writeDate.Year(), writeDate.Month(), writeDate.Day(), writeTime.Hour(), writeTime.Minute(), writeTime.Second(), 0, time.UTC)
}

func (e dirEntryFileInfo) IsDir() bool {
	return e.entry.header.IsDirectory()
}

func (e dirEntryFileInfo) Sys() interface{} {
	return e.entry.header
}

// rootFileInfo stands in for the root directory, which has no backing
// directory entry of its own.
type rootFileInfo struct {
	name string
}

func (r rootFileInfo) Name() string       { return r.name }
func (r rootFileInfo) Size() int64        { return 0 }
func (r rootFileInfo) Mode() os.FileMode  { return os.ModeDir | 0755 }
func (r rootFileInfo) ModTime() time.Time { return time.Time{} }
func (r rootFileInfo) IsDir() bool        { return true }
func (r rootFileInfo) Sys() interface{}   { return nil }
