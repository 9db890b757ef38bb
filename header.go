package dexios

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Header is the parsed form of a Dexios file header: the fixed 64-byte
// leading block (magic, version, algorithm, mode, base nonce) plus, for
// V4/V5, a trailing keyslot table. V3 carries its salt inside the fixed
// block instead of a keyslot table.
//
// The raw bytes of the fixed block — and only the fixed block — are the
// Associated Data bound into every AEAD chunk. Keyslot content is
// authenticated independently inside each keyslot's own AEAD seal, which
// is what lets AddKeyslot/ChangeKeyslot/DeleteKeyslot mutate the keyslot
// table without invalidating the already-encrypted body.
type Header struct {
	Version   Version
	Algorithm Algorithm
	Mode      Mode

	// Nonce is the stream base nonce: algorithm.NonceSize()-4 bytes. The
	// streaming engine appends a 4-byte little-endian chunk counter to
	// form each chunk's full nonce.
	Nonce []byte

	// V3Salt is the in-header KDF salt used by V3's single implicit key.
	// Populated only when Version == VersionV3.
	V3Salt []byte

	// Keyslots holds the physical keyslot table for V4/V5, including any
	// empty (all-zero) slots. Populated slots are always front-packed:
	// correct writers never leave a non-contiguous gap (see keyslot.go).
	Keyslots []Keyslot
}

// NewHeaderV5 builds a fresh V5 header around a freshly generated base
// nonce for algorithm, with no keyslots populated yet; the caller adds
// the first keyslot via AddKeyslot immediately after.
func NewHeaderV5(algorithm Algorithm, mode Mode, baseNonce []byte) (*Header, error) {
	if !algorithm.Valid() {
		return nil, &FormatError{Field: "algorithm", Message: fmtTag("algorithm", uint16(algorithm))}
	}
	if !mode.Valid() {
		return nil, &FormatError{Field: "mode", Message: fmtTag("mode", uint16(mode))}
	}
	wantLen := algorithm.NonceSize() - 4
	if len(baseNonce) != wantLen {
		return nil, &FormatError{Field: "nonce", Message: fmt.Sprintf("base nonce must be %d bytes, got %d", wantLen, len(baseNonce))}
	}
	return &Header{
		Version:   VersionV5,
		Algorithm: algorithm,
		Mode:      mode,
		Nonce:     append([]byte(nil), baseNonce...),
	}, nil
}

// fixedBlock serializes the 64-byte leading block. This is the exact byte
// sequence used as AEAD Associated Data.
func (h *Header) fixedBlock() ([]byte, error) {
	if !h.Version.Valid() {
		return nil, &FormatError{Field: "version", Message: fmtTag("version", uint16(h.Version))}
	}
	if !h.Algorithm.Valid() {
		return nil, &FormatError{Field: "algorithm", Message: fmtTag("algorithm", uint16(h.Algorithm))}
	}
	if !h.Mode.Valid() {
		return nil, &FormatError{Field: "mode", Message: fmtTag("mode", uint16(h.Mode))}
	}

	nonceLen := h.Algorithm.NonceSize() - 4
	if len(h.Nonce) != nonceLen {
		return nil, &FormatError{Field: "nonce", Message: fmt.Sprintf("base nonce must be %d bytes, got %d", nonceLen, len(h.Nonce))}
	}

	buf := make([]byte, fixedBlockSize)
	copy(buf[0:2], magic[:])
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Version))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.Algorithm))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Mode))
	copy(buf[8:8+nonceLen], h.Nonce)

	if h.Version == VersionV3 {
		if len(h.V3Salt) != v3SaltSize {
			return nil, &FormatError{Field: "salt", Message: fmt.Sprintf("v3 salt must be %d bytes, got %d", v3SaltSize, len(h.V3Salt))}
		}
		copy(buf[fixedBlockSize-v3SaltSize:fixedBlockSize], h.V3Salt)
	}

	return buf, nil
}

// Serialize renders the complete on-disk header: the fixed 64-byte block
// followed, for V4/V5, by the keyslot table. The returned fixedAAD is
// also the Associated Data the streaming engine binds into every chunk.
func (h *Header) Serialize() (full, fixedAAD []byte, err error) {
	fixed, err := h.fixedBlock()
	if err != nil {
		return nil, nil, err
	}

	if !h.Version.HasKeyslots() {
		return fixed, fixed, nil
	}

	if len(h.Keyslots) > maxKeyslots {
		return nil, nil, &FormatError{Field: "keyslots", Message: fmt.Sprintf("too many keyslots: %d (max %d)", len(h.Keyslots), maxKeyslots)}
	}

	out := make([]byte, 0, fixedBlockSize+len(h.Keyslots)*keyslotSize)
	out = append(out, fixed...)
	for i := range h.Keyslots {
		out = append(out, h.Keyslots[i].serialize()...)
	}
	return out, fixed, nil
}

// HeaderLen returns the total on-disk length of h: 64 bytes for V3, or
// 64 + len(Keyslots)*156 for V4/V5.
func (h *Header) HeaderLen() int64 {
	if !h.Version.HasKeyslots() {
		return fixedBlockSize
	}
	return fixedBlockSize + int64(len(h.Keyslots))*keyslotSize
}

// parseFixedBlock validates and decodes the 64-byte fixed block: magic
// bytes, then the version/algorithm/mode tags. buf must be exactly
// fixedBlockSize bytes.
func parseFixedBlock(buf []byte) (version Version, algorithm Algorithm, mode Mode, err error) {
	if !bytes.Equal(buf[0:2], magic[:]) {
		return 0, 0, 0, &FormatError{Field: "magic", Message: "missing \"DX\" magic bytes"}
	}

	version = Version(binary.LittleEndian.Uint16(buf[2:4]))
	if !version.Valid() {
		return 0, 0, 0, &FormatError{Field: "version", Message: fmtTag("version", uint16(version))}
	}

	algorithm = Algorithm(binary.LittleEndian.Uint16(buf[4:6]))
	if !algorithm.Valid() {
		return 0, 0, 0, &FormatError{Field: "algorithm", Message: fmtTag("algorithm", uint16(algorithm))}
	}

	mode = Mode(binary.LittleEndian.Uint16(buf[6:8]))
	if !mode.Valid() {
		return 0, 0, 0, &FormatError{Field: "mode", Message: fmtTag("mode", uint16(mode))}
	}

	return version, algorithm, mode, nil
}

// DeserializeHeader reads a header from r: the fixed 64-byte block, then
// (for V4/V5) all 4 physical keyslot regions. Correct writers always keep
// populated slots front-packed (see keyslot.go), but readers don't rely on
// that: every region is read and collected regardless of whether an
// earlier region was empty, so a hand-corrupted or foreign file with a
// non-contiguous gap still surfaces every populated slot physically
// present past that gap.
func DeserializeHeader(r io.Reader) (h *Header, fixedAAD []byte, err error) {
	fixed := make([]byte, fixedBlockSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, nil, NewIOError("read", "header", err)
	}

	version, algorithm, mode, err := parseFixedBlock(fixed)
	if err != nil {
		return nil, nil, err
	}

	nonceLen := algorithm.NonceSize() - 4
	header := &Header{
		Version:   version,
		Algorithm: algorithm,
		Mode:      mode,
		Nonce:     append([]byte(nil), fixed[8:8+nonceLen]...),
	}

	if version == VersionV3 {
		header.V3Salt = append([]byte(nil), fixed[fixedBlockSize-v3SaltSize:fixedBlockSize]...)
		return header, fixed, nil
	}

	for i := 0; i < maxKeyslots; i++ {
		raw := make([]byte, keyslotSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			// Fewer than 4 physical slot regions on disk; the body
			// ciphertext starts here instead.
			break
		}
		header.Keyslots = append(header.Keyslots, parseKeyslot(raw))
	}

	return header, fixed, nil
}
