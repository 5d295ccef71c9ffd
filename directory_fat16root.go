package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// fat16RootDirectoryStorage is the fixed-capacity directory stored in
// the reserved root region immediately after the FATs.
type fat16RootDirectoryStorage struct {
	device   blockdev.Device
	offset   int64
	entryCnt int
}

func newFat16RootDirectoryStorage(device blockdev.Device, offset int64, entryCount int) *fat16RootDirectoryStorage {
	return &fat16RootDirectoryStorage{device: device, offset: offset, entryCnt: entryCount}
}

func (s *fat16RootDirectoryStorage) readAll() ([]byte, error) {
	buf := make([]byte, s.entryCnt*32)
	if _, err := s.device.ReadAt(s.offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *fat16RootDirectoryStorage) writeAll(buf []byte) error {
	_, err := s.device.WriteAt(s.offset, buf)
	return err
}

func (s *fat16RootDirectoryStorage) getStorageCluster() uint32 { return 0 }

func (s *fat16RootDirectoryStorage) capacity() int { return s.entryCnt }

// changeSize fails with DirectoryFull when n exceeds the fixed capacity;
// otherwise it is a no-op, since the region is pre-allocated.
func (s *fat16RootDirectoryStorage) changeSize(n int) error {
	if n > s.entryCnt {
		return newDirectoryFullError(s.entryCnt, n)
	}
	return nil
}
