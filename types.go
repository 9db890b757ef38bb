package dexios

import "fmt"

// Algorithm identifies the AEAD cipher used for a header's streaming body.
type Algorithm uint16

const (
	// AlgorithmAES256GCM uses AES-256 with Galois/Counter Mode.
	AlgorithmAES256GCM Algorithm = 0x0E01
	// AlgorithmXChaCha20Poly1305 uses the extended-nonce ChaCha20-Poly1305 construction.
	AlgorithmXChaCha20Poly1305 Algorithm = 0x0E02
	// AlgorithmDeoxysII256 uses Deoxys-II-256, a tweakable-block-cipher-based AEAD.
	AlgorithmDeoxysII256 Algorithm = 0x0E03
)

// String returns the algorithm's display name.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmAES256GCM:
		return "aes-256-gcm"
	case AlgorithmXChaCha20Poly1305:
		return "xchacha20-poly1305"
	case AlgorithmDeoxysII256:
		return "deoxys-ii-256"
	default:
		return "unknown"
	}
}

// NonceSize returns the full AEAD nonce length for the algorithm, in bytes.
func (a Algorithm) NonceSize() int {
	switch a {
	case AlgorithmAES256GCM:
		return 12
	case AlgorithmXChaCha20Poly1305:
		return 24
	case AlgorithmDeoxysII256:
		return 15
	default:
		return 0
	}
}

// Overhead returns the AEAD authentication tag length for the algorithm, in
// bytes. Every algorithm in the registry uses a 16-byte tag.
func (a Algorithm) Overhead() int {
	return 16
}

// Valid reports whether a is a recognized algorithm tag.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmAES256GCM, AlgorithmXChaCha20Poly1305, AlgorithmDeoxysII256:
		return true
	default:
		return false
	}
}

// Mode identifies whether a file's body is processed as a chunked stream or
// as a single in-memory AEAD operation.
type Mode uint16

const (
	// ModeStream processes the body as a sequence of fixed-size chunks.
	ModeStream Mode = 0x0C01
	// ModeMemory processes the entire body as a single AEAD chunk.
	ModeMemory Mode = 0x0C02
)

// String returns the mode's display name.
func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Valid reports whether m is a recognized mode tag.
func (m Mode) Valid() bool {
	return m == ModeStream || m == ModeMemory
}

// HashAlgorithm identifies the password-hashing KDF recorded in a keyslot.
type HashAlgorithm uint16

const (
	// HashAlgorithmArgon2id derives keys with Argon2id.
	HashAlgorithmArgon2id HashAlgorithm = 0xDF01
	// HashAlgorithmBLAKE3Balloon derives keys with balloon hashing over BLAKE3.
	HashAlgorithmBLAKE3Balloon HashAlgorithm = 0xDF02
)

// String returns the KDF's display name.
func (h HashAlgorithm) String() string {
	switch h {
	case HashAlgorithmArgon2id:
		return "argon2id"
	case HashAlgorithmBLAKE3Balloon:
		return "blake3-balloon"
	default:
		return "unknown"
	}
}

// Valid reports whether h is a recognized hash algorithm tag.
func (h HashAlgorithm) Valid() bool {
	return h == HashAlgorithmArgon2id || h == HashAlgorithmBLAKE3Balloon
}

// Version identifies the on-disk header format revision.
type Version uint16

const (
	// VersionV3 is the legacy single-implicit-key format (read-only here).
	VersionV3 Version = 0x0A01
	// VersionV4 introduced the multi-keyslot table.
	VersionV4 Version = 0x0B01
	// VersionV5 is the current format; new files are always written as V5.
	VersionV5 Version = 0x0C01
)

// String returns the version's display name.
func (v Version) String() string {
	switch v {
	case VersionV3:
		return "v3"
	case VersionV4:
		return "v4"
	case VersionV5:
		return "v5"
	default:
		return "unknown"
	}
}

// Valid reports whether v is a recognized format version.
func (v Version) Valid() bool {
	switch v {
	case VersionV3, VersionV4, VersionV5:
		return true
	default:
		return false
	}
}

// HasKeyslots reports whether the version stores a keyslot table, as
// opposed to V3's single in-header salt.
func (v Version) HasKeyslots() bool {
	return v == VersionV4 || v == VersionV5
}

// magic identifies the first two bytes of every header: ASCII "DX".
var magic = [2]byte{'D', 'X'}

const (
	// fixedBlockSize is the size of the leading header block shared by
	// every format version, before any trailing keyslot region.
	fixedBlockSize = 64

	// keyslotSize is the fixed size of a single keyslot record.
	keyslotSize = 156

	// maxKeyslots is the maximum number of keyslots a V4/V5 header may carry.
	maxKeyslots = 4

	// v3SaltSize is the size of the in-header salt used by V3 headers.
	v3SaltSize = 16

	// masterKeySize is the size, in bytes, of the Master Key.
	masterKeySize = 32

	// kekSize is the size, in bytes, of a Key-Encryption-Key.
	kekSize = 32

	// streamChunkSize is the plaintext size of a single streaming chunk (1 MiB).
	streamChunkSize = 1 << 20

	// keyslotWrapAlgorithm is the fixed AEAD used to wrap/unwrap the Master
	// Key inside a keyslot, independent of the body's algorithm (§4.4).
	keyslotWrapAlgorithm = AlgorithmXChaCha20Poly1305
)

// fmtTag renders a tag value alongside its symbolic name for error messages.
func fmtTag(name string, value uint16) string {
	return fmt.Sprintf("%s(0x%04X)", name, value)
}
