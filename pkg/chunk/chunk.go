package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf8"

	"github.com/beam-cloud/pngme/pkg/common"
)

// Chunk is a single length-prefixed, type-tagged and checksummed record.
// A Chunk is immutable once built.
type Chunk struct {
	length    uint32
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// ChecksumError is returned from ParseChunk if the declared crc doesn't match
// the one computed over the type and data.
type ChecksumError struct {
	Type     ChunkType
	Declared uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s (%s): declared %d, computed %d", common.ErrChecksumMismatch, e.Type, e.Declared, e.Actual)
}

func (e *ChecksumError) Is(target error) bool {
	return target == common.ErrChecksumMismatch
}

// Checksum computes the crc32 (IEEE) over the type bytes followed by data.
// The length and crc fields are never part of the checksum.
func Checksum(chunkType ChunkType, data []byte) uint32 {
	hash := crc32.NewIEEE()
	hash.Write(chunkType[:])
	hash.Write(data)
	return hash.Sum32()
}

// NewChunk builds a chunk from a type and payload, computing its crc.
func NewChunk(chunkType ChunkType, data []byte) Chunk {
	buf := make([]byte, len(data))
	copy(buf, data)

	return Chunk{
		length:    uint32(len(buf)),
		chunkType: chunkType,
		data:      buf,
		crc:       Checksum(chunkType, buf),
	}
}

// ParseChunk decodes exactly one chunk frame. data must hold the whole frame
// and nothing else.
func ParseChunk(data []byte) (Chunk, error) {
	if len(data) < common.ChunkOverhead {
		return Chunk{}, fmt.Errorf("%w: got %d bytes, need at least %d", common.ErrTooShort, len(data), common.ChunkOverhead)
	}

	length := binary.BigEndian.Uint32(data[:common.ChunkLengthSize])
	frameSize := uint64(length) + common.ChunkOverhead
	if frameSize != uint64(len(data)) {
		return Chunk{}, fmt.Errorf("%w: declared %d bytes of data (frame %d), got %d byte frame", common.ErrLengthMismatch, length, frameSize, len(data))
	}

	typeStart := common.ChunkLengthSize
	dataStart := typeStart + common.ChunkTypeSize
	crcStart := dataStart + int(length)

	typeBytes := data[typeStart:dataStart]
	if !utf8.Valid(typeBytes) {
		return Chunk{}, fmt.Errorf("%w: % x is not valid utf-8", common.ErrInvalidType, typeBytes)
	}
	chunkType, err := ParseChunkType(string(typeBytes))
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %w", common.ErrInvalidType, err)
	}

	payload := make([]byte, length)
	copy(payload, data[dataStart:crcStart])

	declared := binary.BigEndian.Uint32(data[crcStart:])
	if actual := Checksum(chunkType, payload); actual != declared {
		return Chunk{}, &ChecksumError{Type: chunkType, Declared: declared, Actual: actual}
	}

	return Chunk{
		length:    length,
		chunkType: chunkType,
		data:      payload,
		crc:       declared,
	}, nil
}

func (c Chunk) Length() uint32 {
	return c.length
}

func (c Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns a copy of the payload.
func (c Chunk) Data() []byte {
	buf := make([]byte, len(c.data))
	copy(buf, c.data)
	return buf
}

func (c Chunk) CRC() uint32 {
	return c.crc
}

// Size is the number of bytes the chunk occupies on the wire.
func (c Chunk) Size() int {
	return int(c.length) + common.ChunkOverhead
}

// DataAsString returns the payload as text, failing if it isn't valid UTF-8.
func (c Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", fmt.Errorf("%w: %s chunk", common.ErrNotUTF8, c.chunkType)
	}
	return string(c.data), nil
}

// Bytes serializes the chunk: length, type, data and crc.
func (c Chunk) Bytes() []byte {
	buf := make([]byte, 0, c.Size())
	buf = binary.BigEndian.AppendUint32(buf, c.length)
	buf = append(buf, c.chunkType[:]...)
	buf = append(buf, c.data...)
	buf = binary.BigEndian.AppendUint32(buf, c.crc)
	return buf
}

// Equal reports whether both chunks serialize to the same bytes.
func (c Chunk) Equal(other Chunk) bool {
	return c.length == other.length &&
		c.chunkType == other.chunkType &&
		c.crc == other.crc &&
		string(c.data) == string(other.data)
}

func (c Chunk) String() string {
	return fmt.Sprintf("length: %d, type: %s, message: %s, crc: %d", c.length, c.chunkType, LossyString(c.data), c.crc)
}

// LossyString decodes b as UTF-8, replacing invalid sequences with U+FFFD.
// Unlike DataAsString it never fails.
func LossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// IsChecksumError reports whether err carries crc details.
func IsChecksumError(err error) (*ChecksumError, bool) {
	var csErr *ChecksumError
	ok := errors.As(err, &csErr)
	return csErr, ok
}
