// Package dexios implements the Dexios file-encryption format: a
// header/keyslot/streaming-AEAD pipeline that lets a single encrypted
// file be unlocked by any of several independent passwords.
//
// # Overview
//
// A Dexios container is a 64-byte fixed header — magic, format version,
// body cipher, processing mode, and a base nonce — optionally followed by
// a table of up to four 156-byte keyslots, followed by the encrypted
// body. Each keyslot wraps the same 32-byte Master Key under a
// Key-Encryption-Key derived from one secret, so AddKeyslot,
// ChangeKeyslot, and DeleteKeyslot can add, change, or revoke a password
// without touching the already-encrypted body: the body's AEAD
// Associated Data is scoped to the fixed 64-byte block only, never the
// keyslot table.
//
// # Body ciphers
//
//   - AES-256-GCM
//   - XChaCha20-Poly1305
//   - Deoxys-II-256 (a structural stand-in built on crypto/aes + BLAKE3;
//     see primitives.go's doc comment — not a certified implementation)
//
// # Password hashing
//
//   - Argon2id (golang.org/x/crypto/argon2), m=2^15 KiB, t=8, p=4
//   - BLAKE3-Balloon, a from-scratch balloon-hashing construction over
//     github.com/zeebo/blake3, space=2^15 KiB, time=5
//
// # Basic usage
//
//	secret := dexios.NewSecret(dexios.SourceInteractive, passphraseBytes)
//	defer secret.Destroy()
//
//	err := dexios.EncryptFile("plain.txt", "plain.txt.dx", secret,
//	    dexios.AlgorithmXChaCha20Poly1305, dexios.ModeStream,
//	    dexios.HashAlgorithmArgon2id, nil)
//
//	err = dexios.DecryptFile("plain.txt.dx", "plain.txt", secret, nil)
//
// # File format
//
// Fixed 64-byte leading block, little-endian throughout:
//   - magic (2 bytes): "DX"
//   - version (2 bytes): V3 0x0A01, V4 0x0B01, V5 0x0C01
//   - algorithm (2 bytes): AES256-GCM 0x0E01, XChaCha20-Poly1305 0x0E02, Deoxys-II-256 0x0E03
//   - mode (2 bytes): Stream 0x0C01, Memory 0x0C02
//   - base nonce (algorithm.NonceSize()-4 bytes)
//   - padding, or (V3 only) a 16-byte KDF salt in the trailing 16 bytes
//
// V4/V5 append up to four 156-byte keyslots (encrypted Master Key, wrap
// nonce, KDF salt, hash algorithm tag, reserved padding), front-packed:
// populated slots always precede any empty (all-zero) slot.
//
// The body is a sequence of 1 MiB plaintext chunks (ModeStream) or a
// single whole-body chunk (ModeMemory), each sealed under the base nonce
// with a 4-byte little-endian counter appended; the final chunk's nonce
// has its first byte XORed with 0x80 as an end-of-stream marker. Chunk
// boundaries are never recorded on disk.
//
// # Security considerations
//
// Protected against: unauthorized access to the body without any
// populated keyslot's secret, tampering/corruption (AEAD), and
// transparent multi-password revocation via DeleteKeyslot.
//
// Not protected against: anyone who can read process memory while a
// Secret is unlocked (mitigated, not eliminated, by memguard's locked
// buffers), metadata leakage (file size, access times), or flash-storage
// wear-leveling defeating internal/erase's overwrite-before-delete
// contract.
package dexios
