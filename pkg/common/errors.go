package common

import "errors"

var (
	ErrBadSignature     = errors.New("unexpected png signature")
	ErrTooShort         = errors.New("chunk shorter than minimum frame")
	ErrLengthMismatch   = errors.New("chunk length does not match frame size")
	ErrInvalidType      = errors.New("invalid chunk type")
	ErrInvalidLength    = errors.New("chunk type must be exactly 4 characters")
	ErrInvalidCharacter = errors.New("chunk type must be ascii letters")
	ErrChecksumMismatch = errors.New("crc32 mismatch")
	ErrNotUTF8          = errors.New("chunk data is not valid utf-8")
	ErrChunkNotFound    = errors.New("chunk not found")

	ErrReadOnlyStorage     = errors.New("storage is read-only")
	ErrUnsupportedLocation = errors.New("unsupported location")
)
