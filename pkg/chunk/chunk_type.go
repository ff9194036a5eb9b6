package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beam-cloud/pngme/pkg/common"
)

// propertyBit is bit 5 of each type byte, the difference between an
// uppercase and a lowercase ascii letter.
const propertyBit byte = 0x20

// ChunkType is the 4-byte code tagging a chunk. Each byte carries one
// property flag in its 5th bit:
//
//	byte 0 => ancillary bit   (0 = critical)
//	byte 1 => private bit     (0 = public)
//	byte 2 => reserved bit    (0 = valid)
//	byte 3 => safe-to-copy bit (1 = safe to copy)
type ChunkType [common.ChunkTypeSize]byte

// ChunkTypeFromBytes stores b verbatim without validating it.
func ChunkTypeFromBytes(b [common.ChunkTypeSize]byte) ChunkType {
	return ChunkType(b)
}

// ParseChunkType builds a ChunkType from exactly four ascii letters.
func ParseChunkType(s string) (ChunkType, error) {
	var ct ChunkType

	if n := utf8.RuneCountInString(s); n != common.ChunkTypeSize {
		return ct, fmt.Errorf("%w: %q has %d", common.ErrInvalidLength, s, n)
	}

	for _, r := range s {
		if !isASCIILetter(r) {
			return ct, fmt.Errorf("%w: %q in %q", common.ErrInvalidCharacter, r, s)
		}
	}

	copy(ct[:], s)
	return ct, nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func (ct ChunkType) Bytes() [common.ChunkTypeSize]byte {
	return ct
}

// String renders the type code as text. Types built from raw bytes may not
// be valid UTF-8, in which case the decode failure is described instead.
func (ct ChunkType) String() string {
	if !utf8.Valid(ct[:]) {
		return fmt.Sprintf("invalid utf-8 sequence in chunk type % x", ct[:])
	}
	return string(ct[:])
}

func (ct ChunkType) IsCritical() bool {
	return ct[0]&propertyBit == 0
}

func (ct ChunkType) IsPublic() bool {
	return ct[1]&propertyBit == 0
}

func (ct ChunkType) IsReservedBitValid() bool {
	return ct[2]&propertyBit == 0
}

func (ct ChunkType) IsSafeToCopy() bool {
	return ct[3]&propertyBit != 0
}

// IsValid reports whether the reserved bit is unset. The other three flags
// do not affect validity.
func (ct ChunkType) IsValid() bool {
	return ct.IsReservedBitValid()
}

// Properties returns a short comma separated description of the four flags.
func (ct ChunkType) Properties() string {
	props := make([]string, 0, 4)

	if ct.IsCritical() {
		props = append(props, "critical")
	} else {
		props = append(props, "ancillary")
	}
	if ct.IsPublic() {
		props = append(props, "public")
	} else {
		props = append(props, "private")
	}
	if ct.IsReservedBitValid() {
		props = append(props, "valid")
	} else {
		props = append(props, "reserved-bit-set")
	}
	if ct.IsSafeToCopy() {
		props = append(props, "safe-to-copy")
	} else {
		props = append(props, "unsafe-to-copy")
	}

	return strings.Join(props, ",")
}
