package chunk

import (
	"testing"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTypeFromBytes(t *testing.T) {
	expected := [4]byte{82, 117, 83, 116}
	ct := ChunkTypeFromBytes(expected)
	assert.Equal(t, expected, ct.Bytes())
}

func TestParseChunkType(t *testing.T) {
	ct, err := ParseChunkType("RuSt")
	require.NoError(t, err)
	assert.Equal(t, ChunkTypeFromBytes([4]byte{82, 117, 83, 116}), ct)
	assert.Equal(t, "RuSt", ct.String())
}

func TestParseChunkType_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"digit", "Ru1t", common.ErrInvalidCharacter},
		{"space", "Ru t", common.ErrInvalidCharacter},
		{"non ascii letter", "Ruét", common.ErrInvalidCharacter},
		{"empty", "", common.ErrInvalidLength},
		{"too short", "Rus", common.ErrInvalidLength},
		{"too long", "RuStt", common.ErrInvalidLength},
		{"multibyte too long", "RuStéé", common.ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChunkType(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChunkTypeProperties(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		critical     bool
		public       bool
		reservedOK   bool
		safeToCopy   bool
		propertyText string
	}{
		{"RuSt", "RuSt", true, false, true, true, "critical,private,valid,safe-to-copy"},
		{"ruSt", "ruSt", false, false, true, true, "ancillary,private,valid,safe-to-copy"},
		{"RUSt", "RUSt", true, true, true, true, "critical,public,valid,safe-to-copy"},
		{"Rust", "Rust", true, false, false, true, "critical,private,reserved-bit-set,safe-to-copy"},
		{"RuST", "RuST", true, false, true, false, "critical,private,valid,unsafe-to-copy"},
		{"IHDR", "IHDR", true, true, true, false, "critical,public,valid,unsafe-to-copy"},
		{"tEXt", "tEXt", false, true, true, true, "ancillary,public,valid,safe-to-copy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := ParseChunkType(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.critical, ct.IsCritical())
			assert.Equal(t, tt.public, ct.IsPublic())
			assert.Equal(t, tt.reservedOK, ct.IsReservedBitValid())
			assert.Equal(t, tt.reservedOK, ct.IsValid())
			assert.Equal(t, tt.safeToCopy, ct.IsSafeToCopy())
			assert.Equal(t, tt.propertyText, ct.Properties())
		})
	}
}

func TestChunkTypeString_InvalidUTF8(t *testing.T) {
	ct := ChunkTypeFromBytes([4]byte{0xff, 0xfe, 'a', 'b'})

	var s string
	assert.NotPanics(t, func() { s = ct.String() })
	assert.Contains(t, s, "invalid utf-8")
	assert.Contains(t, s, "ff fe 61 62")
}

func TestChunkTypeEquality(t *testing.T) {
	a, err := ParseChunkType("RuSt")
	require.NoError(t, err)
	b := ChunkTypeFromBytes([4]byte{'R', 'u', 'S', 't'})
	c, err := ParseChunkType("RuST")
	require.NoError(t, err)

	assert.True(t, a == b)
	assert.False(t, a == c)
}
