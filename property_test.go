package gofat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These round-trip properties are grounded on the property-style tests
// seen across the wider pack (dargueta-disko, diskfs-go-diskfs), which
// lean on testify's assert/require for exactly this kind of table-driven
// invariant check rather than hand-rolled comparisons.

func TestDateRoundTripHoldsAcrossFullRange(t *testing.T) {
	for year := 1980; year <= 2107; year += 3 {
		for _, md := range []struct{ month, day int }{
			{1, 1}, {6, 15}, {12, 31},
		} {
			want := time.Date(year, time.Month(md.month), md.day, 0, 0, 0, 0, time.UTC)
			got := ParseDate(EncodeDate(want))
			assert.Truef(t, got.Equal(want), "ParseDate(EncodeDate(%v)) = %v", want, got)
		}
	}
}

func TestTimeRoundTripHoldsAtTwoSecondGranularity(t *testing.T) {
	for h := 0; h < 24; h += 5 {
		for m := 0; m < 60; m += 13 {
			for s := 0; s < 60; s += 2 {
				want := time.Date(1, 1, 1, h, m, s, 0, time.UTC)
				got := ParseTime(EncodeTime(want))
				require.True(t, got.Equal(want), "ParseTime(EncodeTime(%v)) = %v", want, got)
			}
		}
	}
}

func TestShortNameChecksumIsStableUnderMultipleComputations(t *testing.T) {
	sn, err := newShortName("GOFAT", "BIN")
	require.NoError(t, err)

	first := sn.checkSum()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, sn.checkSum(), "checkSum() is not stable across repeated calls")
	}
}

func TestShortNameAsSimpleStringRoundTripsThroughNewShortName(t *testing.T) {
	cases := []struct{ base, ext string }{
		{"README", "TXT"},
		{"A", ""},
		{"LONGNAME", "C"},
	}
	for _, c := range cases {
		sn, err := newShortName(c.base, c.ext)
		require.NoErrorf(t, err, "newShortName(%q, %q)", c.base, c.ext)

		again, err := newShortName(splitShortNameString(sn.asSimpleString()))
		require.NoError(t, err)
		assert.Equal(t, sn, again, "newShortName(asSimpleString()) does not reproduce the short name")
	}
}
