package common

// PngSignature is the magic prefix every container starts with.
//
//	0x50, 0x4E, 0x47 => PNG
var PngSignature = [SignatureLength]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	SignatureLength = 8

	// ChunkLengthSize, ChunkTypeSize and ChunkCRCSize are the fixed fields
	// framing every chunk payload.
	ChunkLengthSize = 4
	ChunkTypeSize   = 4
	ChunkCRCSize    = 4

	// ChunkOverhead is the on-wire size of a chunk with an empty payload.
	ChunkOverhead = ChunkLengthSize + ChunkTypeSize + ChunkCRCSize
)

/*

Chunks are stored inside a container in this format:

	Length    uint32 (big endian, payload bytes only)
	Type      [4]byte
	Data      []byte
	Checksum  uint32 (big endian, crc32 IEEE over Type ++ Data)

*/
