package dexios

import "fmt"

// Input validation helpers for defensive programming at the package's
// public boundaries.

// ValidateBuffer checks that buf is non-nil and at least minSize bytes.
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &FormatError{Field: name, Message: "buffer cannot be nil"}
	}
	if minSize > 0 && len(buf) < minSize {
		return &FormatError{
			Field:   name,
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateKey checks that key is exactly expectedSize bytes.
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &FormatError{Field: "key", Message: "key cannot be nil"}
	}
	if len(key) != expectedSize {
		return &FormatError{
			Field:   "key",
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
		}
	}
	return nil
}

// ValidateNonce checks that nonce has the correct length for algorithm's
// full AEAD nonce (not the truncated per-chunk base nonce).
func ValidateNonce(nonce []byte, algorithm Algorithm) error {
	if nonce == nil {
		return &FormatError{Field: "nonce", Message: "nonce cannot be nil"}
	}
	if !algorithm.Valid() {
		return &FormatError{Field: "algorithm", Message: fmt.Sprintf("unsupported algorithm tag 0x%04X", uint16(algorithm))}
	}
	expected := algorithm.NonceSize()
	if len(nonce) != expected {
		return &FormatError{
			Field:   "nonce",
			Message: fmt.Sprintf("invalid nonce size: got %d bytes, expected %d bytes for %s", len(nonce), expected, algorithm),
		}
	}
	return nil
}

// ValidateOffset checks that offset is non-negative.
func ValidateOffset(offset int64, name string) error {
	if offset < 0 {
		return &FormatError{Field: name, Message: "offset cannot be negative"}
	}
	return nil
}

// ValidateFilePath checks that path is non-empty.
func ValidateFilePath(path string) error {
	if path == "" {
		return &FormatError{Field: "path", Message: "file path cannot be empty"}
	}
	return nil
}

// ValidateChunkCounter checks that a chunk index can still be encoded into
// the 4-byte little-endian per-chunk counter without wrapping.
func ValidateChunkCounter(index uint64) error {
	if index > 0xFFFFFFFF {
		return &FormatError{
			Field:   "chunk_index",
			Message: fmt.Sprintf("chunk index %d exceeds the 32-bit counter used by the streaming engine", index),
		}
	}
	return nil
}
