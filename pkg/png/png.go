package png

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/beam-cloud/pngme/pkg/chunk"
	"github.com/beam-cloud/pngme/pkg/common"
)

// Png is an ordered list of chunks preceded by the standard signature. Chunk
// order is preserved exactly across parsing, mutation and serialization.
type Png struct {
	header [common.SignatureLength]byte
	chunks []chunk.Chunk
}

// ChunkError is returned from Parse when one chunk in the stream is
// malformed. It unwraps to the underlying chunk error.
type ChunkError struct {
	Index  int
	Offset int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// New returns a container holding the given chunks in order.
func New(chunks ...chunk.Chunk) *Png {
	p := &Png{header: common.PngSignature}
	p.chunks = append(p.chunks, chunks...)
	return p
}

// Parse decodes a full container. Any malformed chunk fails the whole parse.
func Parse(data []byte) (*Png, error) {
	if len(data) < common.SignatureLength || !bytes.Equal(data[:common.SignatureLength], common.PngSignature[:]) {
		n := min(len(data), common.SignatureLength)
		return nil, fmt.Errorf("%w: % x", common.ErrBadSignature, data[:n])
	}

	p := New()
	offset := common.SignatureLength
	for index := 0; offset < len(data); index++ {
		remaining := data[offset:]

		frame := remaining
		if len(remaining) >= common.ChunkLengthSize {
			frameSize := uint64(binary.BigEndian.Uint32(remaining)) + common.ChunkOverhead
			if frameSize <= uint64(len(remaining)) {
				frame = remaining[:frameSize]
			}
		}

		c, err := chunk.ParseChunk(frame)
		if err != nil {
			return nil, &ChunkError{Index: index, Offset: offset, Err: err}
		}

		p.chunks = append(p.chunks, c)
		offset += c.Size()
	}

	return p, nil
}

// Header returns the signature the container is written with.
func (p *Png) Header() [common.SignatureLength]byte {
	return p.header
}

// Chunks returns the chunks in order. The returned slice is a copy.
func (p *Png) Chunks() []chunk.Chunk {
	out := make([]chunk.Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

func (p *Png) Len() int {
	return len(p.chunks)
}

// Size is the number of bytes Bytes will produce.
func (p *Png) Size() int {
	size := common.SignatureLength
	for _, c := range p.chunks {
		size += c.Size()
	}
	return size
}

// AppendChunk adds c after every existing chunk. Duplicate types are allowed.
func (p *Png) AppendChunk(c chunk.Chunk) {
	p.chunks = append(p.chunks, c)
}

// ChunkByType returns the first chunk whose type renders as chunkType.
func (p *Png) ChunkByType(chunkType string) (chunk.Chunk, bool) {
	if i := p.indexOf(chunkType); i >= 0 {
		return p.chunks[i], true
	}
	return chunk.Chunk{}, false
}

// RemoveChunk removes only the first chunk whose type renders as chunkType
// and returns it. Callers wanting every match removed call it again until
// it returns ErrChunkNotFound.
func (p *Png) RemoveChunk(chunkType string) (chunk.Chunk, error) {
	i := p.indexOf(chunkType)
	if i < 0 {
		return chunk.Chunk{}, fmt.Errorf("%w: %s", common.ErrChunkNotFound, chunkType)
	}

	removed := p.chunks[i]
	p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
	return removed, nil
}

func (p *Png) indexOf(chunkType string) int {
	for i, c := range p.chunks {
		if c.Type().String() == chunkType {
			return i
		}
	}
	return -1
}

// Bytes serializes the signature followed by every chunk in order.
func (p *Png) Bytes() []byte {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, p.header[:]...)
	for _, c := range p.chunks {
		buf = append(buf, c.Bytes()...)
	}
	return buf
}

// Equal reports whether both containers serialize to the same bytes.
func (p *Png) Equal(other *Png) bool {
	if p.header != other.header || len(p.chunks) != len(other.chunks) {
		return false
	}
	for i := range p.chunks {
		if !p.chunks[i].Equal(other.chunks[i]) {
			return false
		}
	}
	return true
}

func (p *Png) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "png: %d chunks, %d bytes\n", len(p.chunks), p.Size())
	for _, c := range p.chunks {
		fmt.Fprintln(&b, c)
	}
	return b.String()
}
