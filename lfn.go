package gofat

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// maxLfnCodeUnits is the largest name supported: 255 UTF-16 code units
// across 20 slots (20*13 - terminator headroom).
const (
	lfnCodeUnitsPerSlot = 13
	maxLfnSlots         = 20
	maxLfnCodeUnits     = 255
)

func encodeEntryHeader(h EntryHeader) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, h)
	return buf.Bytes()
}

func decodeEntryHeader(raw []byte) EntryHeader {
	var h EntryHeader
	_ = binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h)
	return h
}

func encodeLongFilenameEntry(l LongFilenameEntry) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, l)
	return buf.Bytes()
}

func decodeLongFilenameEntry(raw []byte) LongFilenameEntry {
	var l LongFilenameEntry
	_ = binary.Read(bytes.NewReader(raw), binary.LittleEndian, &l)
	return l
}

// encodeLFN builds the LFN slots for name, in on-disk order (highest
// ordinal, i.e. the "last" slot, first) so a caller can write them
// directly followed by the real entry.
func encodeLFN(name string, checksum byte) ([]LongFilenameEntry, error) {
	units := utf16.Encode([]rune(norm.NFC.String(name)))
	if len(units) > maxLfnCodeUnits {
		return nil, ErrInvalidArgument
	}

	slotCount := (len(units) + lfnCodeUnitsPerSlot - 1) / lfnCodeUnitsPerSlot
	if slotCount == 0 {
		slotCount = 1
	}
	if slotCount > maxLfnSlots {
		return nil, ErrInvalidArgument
	}

	padded := make([]uint16, slotCount*lfnCodeUnitsPerSlot)
	for i := range padded {
		padded[i] = 0xFFFF
	}
	copy(padded, units)
	if len(units) < len(padded) {
		padded[len(units)] = 0x0000
	}

	slots := make([]LongFilenameEntry, slotCount)
	for i := 0; i < slotCount; i++ {
		seq := byte(i + 1)
		if i == slotCount-1 {
			seq |= 0x40
		}
		chunk := padded[i*lfnCodeUnitsPerSlot : (i+1)*lfnCodeUnitsPerSlot]
		slots[i] = LongFilenameEntry{
			Sequence:  seq,
			Attribute: AttrLongName,
			Checksum:  checksum,
		}
		copy(slots[i].First[:], chunk[0:5])
		copy(slots[i].Second[:], chunk[5:11])
		copy(slots[i].Third[:], chunk[11:13])
	}

	// Reverse so the result is in on-disk order: highest ordinal first.
	for l, r := 0, len(slots)-1; l < r; l, r = l+1, r-1 {
		slots[l], slots[r] = slots[r], slots[l]
	}
	return slots, nil
}

// decodeLFN reconstructs the long name from slots given in on-disk order
// (highest ordinal first), verifying every slot's checksum matches the
// real entry's short name checksum.
func decodeLFN(slots []LongFilenameEntry, shortNameChecksum byte) (string, error) {
	if len(slots) == 0 {
		return "", nil
	}

	units := make([]uint16, 0, len(slots)*lfnCodeUnitsPerSlot)
	// slots[0] is the highest ordinal (physically first on disk); the
	// name's code units run in ascending ordinal order, so accumulate in
	// reverse.
	for i := len(slots) - 1; i >= 0; i-- {
		s := slots[i]
		if s.Checksum != shortNameChecksum {
			return "", ErrCorruptVolume
		}
		cu := s.codeUnits()
		units = append(units, cu[:]...)
	}

	// Trim at the 0x0000 terminator, if present.
	for i, u := range units {
		if u == 0x0000 {
			units = units[:i]
			break
		}
	}
	// Drop any trailing 0xFFFF padding (present when no terminator was
	// needed because the name's length was an exact multiple of 13).
	for len(units) > 0 && units[len(units)-1] == 0xFFFF {
		units = units[:len(units)-1]
	}

	return string(utf16.Decode(units)), nil
}
