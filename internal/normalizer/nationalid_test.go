package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNationalID(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"123456789", "", false},
		{"0123456789", "000123456789", true},
		{"12345678901", "012345678901", true},
		{"001 234 567 890", "001234567890", true},
		{"CCCD: 079-203-001-234", "079203001234", true},
		{"123456789012345", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := NormalizeNationalID(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
			if ok {
				assert.Len(t, got, NationalIDLength)
			}
		})
	}
}

func TestDecodeNationalID(t *testing.T) {
	testCases := []struct {
		input  string
		gender string
		year   int
	}{
		{"001234567890", GenderMale, 2034},
		{"079085000123", GenderMale, 1985},
		{"079190000123", GenderFemale, 1990},
		{"001305000001", GenderFemale, 2005},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			info, err := DecodeNationalID(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.gender, info.Gender)
			assert.Equal(t, tc.year, info.BirthYear)
			assert.Equal(t, tc.input[:3], info.ProvinceCode)
		})
	}
}

func TestDecodeNationalID_Malformed(t *testing.T) {
	for _, input := range []string{"", "12345", "0012345678901", "00123456789a", "001434567890"} {
		t.Run(input, func(t *testing.T) {
			_, err := DecodeNationalID(input)
			assert.ErrorIs(t, err, ErrMalformedNationalID)
		})
	}
}
