package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// sector owns a fixed-size byte buffer located at a device offset, with
// a dirty flag tracking unwritten mutations. It backs the boot sector and
// the FS-info sector; the FAT and directory layers read and write the
// device directly.
type sector struct {
	device blockdev.Device
	offset int64
	buffer []byte
	dirty  bool
}

func newSector(device blockdev.Device, offset int64, size int) *sector {
	return &sector{
		device: device,
		offset: offset,
		buffer: make([]byte, size),
	}
}

// read loads the sector's bytes from the device and clears the dirty flag.
func (s *sector) read() error {
	if _, err := s.device.ReadAt(s.offset, s.buffer); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// write persists the buffer to the device only if it is dirty, then
// clears the dirty flag.
func (s *sector) write() error {
	if !s.dirty {
		return nil
	}
	if _, err := s.device.WriteAt(s.offset, s.buffer); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *sector) get8(offset int) uint8    { return get8(s.buffer, offset) }
func (s *sector) get16(offset int) uint16  { return get16(s.buffer, offset) }
func (s *sector) get32(offset int) uint32  { return get32(s.buffer, offset) }
func (s *sector) getBytes(offset, n int) []byte {
	out := make([]byte, n)
	copy(out, s.buffer[offset:offset+n])
	return out
}

func (s *sector) set8(offset int, v uint8) {
	put8(s.buffer, offset, v)
	s.dirty = true
}

func (s *sector) set16(offset int, v uint16) {
	put16(s.buffer, offset, v)
	s.dirty = true
}

func (s *sector) set32(offset int, v uint32) {
	put32(s.buffer, offset, v)
	s.dirty = true
}

func (s *sector) setBytes(offset int, v []byte) {
	copy(s.buffer[offset:offset+len(v)], v)
	s.dirty = true
}
