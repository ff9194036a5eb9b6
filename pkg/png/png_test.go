package png

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/beam-cloud/pngme/pkg/chunk"
	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkFromStrings(t *testing.T, chunkType, data string) chunk.Chunk {
	t.Helper()
	ct, err := chunk.ParseChunkType(chunkType)
	require.NoError(t, err)
	return chunk.NewChunk(ct, []byte(data))
}

func testingChunks(t *testing.T) []chunk.Chunk {
	return []chunk.Chunk{
		chunkFromStrings(t, "FrSt", "I am the first chunk"),
		chunkFromStrings(t, "miDl", "I am another chunk"),
		chunkFromStrings(t, "LASt", "I am the last chunk"),
	}
}

func testingBytes(t *testing.T) []byte {
	buf := append([]byte{}, common.PngSignature[:]...)
	for _, c := range testingChunks(t) {
		buf = append(buf, c.Bytes()...)
	}
	return buf
}

func TestNew(t *testing.T) {
	p := New(testingChunks(t)...)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, common.PngSignature, p.Header())

	empty := New()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, common.PngSignature[:], empty.Bytes())
}

func TestParse(t *testing.T) {
	p, err := Parse(testingBytes(t))
	require.NoError(t, err)

	chunks := p.Chunks()
	require.Len(t, chunks, 3)
	assert.Equal(t, "FrSt", chunks[0].Type().String())
	assert.Equal(t, "miDl", chunks[1].Type().String())
	assert.Equal(t, "LASt", chunks[2].Type().String())
}

func TestParse_SignatureOnly(t *testing.T) {
	p, err := Parse(common.PngSignature[:])
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Chunks())
}

func TestParse_BadSignature(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"short", common.PngSignature[:4]},
		{"clip magic", []byte{0x89, 0x43, 0x4C, 0x49, 0x50, 0x0D, 0x0A, 0x1A, 0x0A}},
		{"one bit off", append([]byte{0x88}, testingBytes(t)[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, common.ErrBadSignature)
		})
	}
}

func TestParse_MalformedChunks(t *testing.T) {
	valid := testingBytes(t)
	firstSize := testingChunks(t)[0].Size()
	secondCRC := common.SignatureLength + firstSize + testingChunks(t)[1].Size() - 1

	tests := []struct {
		name       string
		input      []byte
		wantErr    error
		wantIndex  int
		wantOffset int
	}{
		{
			name:       "truncated final chunk",
			input:      valid[:len(valid)-1],
			wantErr:    common.ErrLengthMismatch,
			wantIndex:  2,
			wantOffset: len(valid) - testingChunks(t)[2].Size(),
		},
		{
			name:       "trailing bytes shorter than a frame",
			input:      append(append([]byte{}, valid...), 0, 0, 0),
			wantErr:    common.ErrTooShort,
			wantIndex:  3,
			wantOffset: len(valid),
		},
		{
			name: "corrupted checksum in middle chunk",
			input: func() []byte {
				b := append([]byte{}, valid...)
				b[secondCRC] ^= 0x01
				return b
			}(),
			wantErr:    common.ErrChecksumMismatch,
			wantIndex:  1,
			wantOffset: common.SignatureLength + firstSize,
		},
		{
			name: "invalid type in first chunk",
			input: func() []byte {
				b := append([]byte{}, valid...)
				b[common.SignatureLength+4] = '1'
				return b
			}(),
			wantErr:    common.ErrInvalidType,
			wantIndex:  0,
			wantOffset: common.SignatureLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.wantErr)

			var chunkErr *ChunkError
			require.ErrorAs(t, err, &chunkErr)
			assert.Equal(t, tt.wantIndex, chunkErr.Index)
			assert.Equal(t, tt.wantOffset, chunkErr.Offset)
		})
	}
}

func TestParse_TamperedLength(t *testing.T) {
	valid := testingBytes(t)
	b := append([]byte{}, valid...)
	// Claim one more byte of data for the first chunk than it has.
	length := binary.BigEndian.Uint32(b[common.SignatureLength:])
	binary.BigEndian.PutUint32(b[common.SignatureLength:], length+1)

	_, err := Parse(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrChecksumMismatch)
}

func TestRoundTrip(t *testing.T) {
	original := New(testingChunks(t)...)

	parsed, err := Parse(original.Bytes())
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
	assert.Equal(t, original.Bytes(), parsed.Bytes())
	assert.Equal(t, testingBytes(t), parsed.Bytes())
	assert.Equal(t, len(parsed.Bytes()), parsed.Size())
}

func TestAppendChunk(t *testing.T) {
	p := New(testingChunks(t)...)
	p.AppendChunk(chunkFromStrings(t, "TeSt", "Message"))
	p.AppendChunk(chunkFromStrings(t, "FrSt", "duplicate type"))

	chunks := p.Chunks()
	require.Len(t, chunks, 5)
	assert.Equal(t, "TeSt", chunks[3].Type().String())
	assert.Equal(t, "FrSt", chunks[4].Type().String())

	c, ok := p.ChunkByType("TeSt")
	require.True(t, ok)
	s, err := c.DataAsString()
	require.NoError(t, err)
	assert.Equal(t, "Message", s)
}

func TestChunkByType(t *testing.T) {
	p := New(testingChunks(t)...)
	p.AppendChunk(chunkFromStrings(t, "FrSt", "second first"))

	c, ok := p.ChunkByType("FrSt")
	require.True(t, ok)
	s, err := c.DataAsString()
	require.NoError(t, err)
	assert.Equal(t, "I am the first chunk", s)

	_, ok = p.ChunkByType("NoPe")
	assert.False(t, ok)
	assert.Equal(t, 4, p.Len())
}

func TestRemoveChunk(t *testing.T) {
	p := New(testingChunks(t)...)
	p.AppendChunk(chunkFromStrings(t, "TeSt", "Message"))

	removed, err := p.RemoveChunk("TeSt")
	require.NoError(t, err)
	assert.Equal(t, "TeSt", removed.Type().String())

	_, ok := p.ChunkByType("TeSt")
	assert.False(t, ok)

	_, err = p.RemoveChunk("TeSt")
	assert.ErrorIs(t, err, common.ErrChunkNotFound)
}

func TestRemoveChunk_OnlyFirstMatch(t *testing.T) {
	p := New(
		chunkFromStrings(t, "RuSt", "one"),
		chunkFromStrings(t, "miDl", "keep"),
		chunkFromStrings(t, "RuSt", "two"),
	)

	removed, err := p.RemoveChunk("RuSt")
	require.NoError(t, err)
	s, _ := removed.DataAsString()
	assert.Equal(t, "one", s)

	chunks := p.Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, "miDl", chunks[0].Type().String())
	assert.Equal(t, "RuSt", chunks[1].Type().String())

	_, err = p.RemoveChunk("RuSt")
	require.NoError(t, err)
	_, err = p.RemoveChunk("RuSt")
	assert.ErrorIs(t, err, common.ErrChunkNotFound)
	assert.Equal(t, 1, p.Len())
}

func TestRemoveChunk_Empty(t *testing.T) {
	_, err := New().RemoveChunk("RuSt")
	assert.ErrorIs(t, err, common.ErrChunkNotFound)
}

func TestChunksReturnsCopy(t *testing.T) {
	p := New(testingChunks(t)...)
	chunks := p.Chunks()
	chunks[0] = chunkFromStrings(t, "XxXx", "overwritten")

	first, ok := p.ChunkByType("FrSt")
	require.True(t, ok)
	assert.Equal(t, "FrSt", first.Type().String())
	assert.Equal(t, "FrSt", p.Chunks()[0].Type().String())
}

func TestEndToEnd(t *testing.T) {
	p, err := Parse(common.PngSignature[:])
	require.NoError(t, err)

	p.AppendChunk(chunkFromStrings(t, "RuSt", "hello"))

	parsed, err := Parse(p.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, parsed.Len())

	c := parsed.Chunks()[0]
	assert.Equal(t, uint32(5), c.Length())
	assert.Equal(t, "RuSt", c.Type().String())
	assert.Equal(t, []byte("hello"), c.Data())
	assert.Equal(t, crc32.ChecksumIEEE([]byte("RuSthello")), c.CRC())
}

func TestString(t *testing.T) {
	p := New(chunkFromStrings(t, "RuSt", "hello"))
	s := p.String()
	assert.Contains(t, s, "png: 1 chunks, 25 bytes")
	assert.Contains(t, s, "type: RuSt, message: hello")
}
