package gofat

import (
	"bytes"
	"math/rand"
	"strings"
)

// shortNameForbidden lists the bytes forbidden inside a short name,
// besides the control-character range 0x00-0x1F (except 0x05, which
// stands in for a literal 0xE5 first byte).
const shortNameForbidden = "\"*+,./:;<=>?[\\]|"

// ShortName is the fixed 11-byte 8.3 name buffer: 8 bytes of name, 3
// bytes of extension, both space-padded, uppercased.
type ShortName [11]byte

// dotShortName and dotDotShortName are the two distinguished names.
var (
	dotShortName    = ShortName{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotDotShortName = ShortName{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
)

// newShortName validates and builds a ShortName from a bare (name, ext)
// pair, both already split on ".". Both parts are uppercased; the name is
// padded on the right with spaces to 8 bytes, the extension to 3.
func newShortName(name, ext string) (ShortName, error) {
	name = strings.ToUpper(name)
	ext = strings.ToUpper(ext)

	if len(name) == 0 || len(name) > 8 || len(ext) > 3 {
		return ShortName{}, ErrInvalidArgument
	}
	if name[0] == ' ' {
		return ShortName{}, ErrInvalidArgument
	}

	var sn ShortName
	if err := writeShortNamePart(sn[0:8], name); err != nil {
		return ShortName{}, err
	}
	if err := writeShortNamePart(sn[8:11], ext); err != nil {
		return ShortName{}, err
	}
	return sn, nil
}

func writeShortNamePart(dst []byte, s string) error {
	for i := range dst {
		dst[i] = ' '
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !isValidShortNameByte(b) {
			return ErrInvalidArgument
		}
		dst[i] = b
	}
	return nil
}

func isValidShortNameByte(b byte) bool {
	if b == 0x05 {
		return true
	}
	if b <= 0x1F {
		return false
	}
	if b == ' ' {
		return false
	}
	if strings.IndexByte(shortNameForbidden, b) >= 0 {
		return false
	}
	return true
}

// parseShortName reads a ShortName out of the first 11 bytes of a raw
// 32-byte directory entry.
func parseShortName(entry []byte) ShortName {
	var sn ShortName
	copy(sn[:], entry[0:11])
	return sn
}

// canConvert reports whether s can be parsed as a valid short name
// without error.
func canConvert(s string) bool {
	name, ext := splitShortNameString(s)
	_, err := newShortName(name, ext)
	return err == nil
}

func splitShortNameString(s string) (name, ext string) {
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// asSimpleString strips trailing spaces from each part and joins them
// with "." if the extension is non-empty.
func (sn ShortName) asSimpleString() string {
	name := strings.TrimRight(string(sn[0:8]), " ")
	ext := strings.TrimRight(string(sn[8:11]), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// equal compares the 11-byte form byte-wise.
func (sn ShortName) equal(other ShortName) bool {
	return bytes.Equal(sn[:], other[:])
}

// checkSum implements the LFN checksum over the 11-byte short name form.
func (sn ShortName) checkSum() byte {
	var c byte
	for _, b := range sn {
		c = ((c & 1) << 7) + ((c & 0xFE) >> 1) + b
	}
	return c
}

func (sn ShortName) isDeleted() bool {
	return sn[0] == 0xE5
}

func (sn ShortName) isDot() bool    { return sn.equal(dotShortName) }
func (sn ShortName) isDotDot() bool { return sn.equal(dotDotShortName) }

func trimShortNameBytes(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

func padShortNameField(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

// shortNameInvalidPool is the 35-byte pool of characters a generated
// short name is intentionally built from. Every byte here except '%' and
// '^' is rejected by isValidShortNameByte; the forced '/' placed at a
// random position makes the whole name invalid in any case.
var shortNameInvalidPool = []byte{
	0x01, 0x02, 0x03, 0x04, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B,
	0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15,
	'"', '*', ':', '<', '>', '?', '[', ']', '|', ';',
	',', '=', '+', '%', '^',
}

// entropySource is the injectable randomness seam, so tests can replay
// a deterministic generator instead of depending on the process-global
// math/rand source.
type entropySource interface {
	Intn(n int) int
}

// defaultEntropySource adapts math/rand's package-level functions.
type defaultEntropySource struct{}

func (defaultEntropySource) Intn(n int) int { return rand.Intn(n) }

// generateShortName builds an 11-byte buffer that is deliberately not a
// usable 8.3 name on any standard OS, so file access must go through
// the LFN path. If the first byte comes out as 0xE5 (the "deleted"
// marker) it re-randomizes.
func generateShortName(entropy entropySource) ShortName {
	for {
		var sn ShortName
		p := entropy.Intn(8)
		for i := 0; i < 8; i++ {
			if i == p {
				sn[i] = '/'
			} else {
				sn[i] = shortNameInvalidPool[entropy.Intn(len(shortNameInvalidPool))]
			}
		}
		sn[8], sn[9], sn[10] = 'i', 'f', 'l'
		if sn.isDeleted() {
			continue
		}
		return sn
	}
}
