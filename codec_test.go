package gofat

import "testing"

func TestGetPut16RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	put16(buf, 1, 0xBEEF)
	if got := get16(buf, 1); got != 0xBEEF {
		t.Errorf("get16() = %#x, want %#x", got, 0xBEEF)
	}
}

func TestGetPut32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	put32(buf, 2, 0xDEADBEEF)
	if got := get32(buf, 2); got != 0xDEADBEEF {
		t.Errorf("get32() = %#x, want %#x", got, 0xDEADBEEF)
	}
}

func TestPut32SignedRejectsOverflow(t *testing.T) {
	buf := make([]byte, 4)
	if ok := put32Signed(buf, 0, 0x80000000); ok {
		t.Errorf("put32Signed() = true for a value outside int32 range, want false")
	}
	if ok := put32Signed(buf, 0, 0x7FFFFFFF); !ok {
		t.Errorf("put32Signed() = false for the largest valid value, want true")
	}
}

func TestGetPut12RoundTrip(t *testing.T) {
	// Three entries share bytes with their neighbors; round-trip every
	// parity to exercise both halves of the shared-byte logic.
	buf := make([]byte, 6)
	put12(buf, 0, 0x0ABC)
	put12(buf, 1, 0x0123)
	put12(buf, 2, 0x0FFF)

	if got := get12(buf, 0); got != 0x0ABC {
		t.Errorf("get12(0) = %#x, want %#x", got, 0x0ABC)
	}
	if got := get12(buf, 1); got != 0x0123 {
		t.Errorf("get12(1) = %#x, want %#x", got, 0x0123)
	}
	if got := get12(buf, 2); got != 0x0FFF {
		t.Errorf("get12(2) = %#x, want %#x", got, 0x0FFF)
	}
}

func TestPut12PreservesNeighborNibble(t *testing.T) {
	buf := make([]byte, 3)
	put12(buf, 0, 0x0AAA)
	put12(buf, 1, 0x0555)

	if got := get12(buf, 0); got != 0x0AAA {
		t.Errorf("get12(0) after writing neighbor = %#x, want %#x", got, 0x0AAA)
	}
	if got := get12(buf, 1); got != 0x0555 {
		t.Errorf("get12(1) = %#x, want %#x", got, 0x0555)
	}
}

func TestGet12MasksToTwelveBits(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF}
	if got := get12(buf, 0); got != 0x0FFF {
		t.Errorf("get12(0) = %#x, want %#x", got, 0x0FFF)
	}
	if got := get12(buf, 1); got != 0x0FFF {
		t.Errorf("get12(1) = %#x, want %#x", got, 0x0FFF)
	}
}
