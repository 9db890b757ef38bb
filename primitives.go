package dexios

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD is the uniform contract the header codec, keyslot manager, and
// streaming engine all drive: seal(key, nonce, aad, plaintext) ->
// ciphertext||tag and the inverse open. Every engine below is constructed
// once per operation with a fixed 32-byte key.
type AEAD interface {
	// Seal encrypts and authenticates plaintext, appending a 16-byte tag.
	Seal(nonce, aad, plaintext []byte) ([]byte, error)

	// Open authenticates and decrypts ciphertext||tag, or returns
	// ErrAuthenticationFailure wrapped in an *AuthError.
	Open(nonce, aad, ciphertext []byte) ([]byte, error)

	// NonceSize returns the full nonce length this engine expects.
	NonceSize() int

	// Overhead returns the authentication tag length, in bytes.
	Overhead() int
}

// NewAEAD constructs the cipher engine identified by algorithm over key,
// which must be exactly 32 bytes (the Master Key / KEK size).
func NewAEAD(algorithm Algorithm, key []byte) (AEAD, error) {
	if err := ValidateKey(key, kekSize); err != nil {
		return nil, err
	}
	switch algorithm {
	case AlgorithmAES256GCM:
		return newAESGCMEngine(key)
	case AlgorithmXChaCha20Poly1305:
		return newXChaCha20Poly1305Engine(key)
	case AlgorithmDeoxysII256:
		return newDeoxysIIEngine(key)
	default:
		return nil, &FormatError{Field: "algorithm", Message: fmtTag("algorithm", uint16(algorithm))}
	}
}

// GenerateNonce returns a fresh random nonce sized for algorithm's full
// AEAD nonce length.
func GenerateNonce(algorithm Algorithm) ([]byte, error) {
	size := algorithm.NonceSize()
	if size == 0 {
		return nil, &FormatError{Field: "algorithm", Message: fmtTag("algorithm", uint16(algorithm))}
	}
	nonce := make([]byte, size)
	if _, err := rand.Read(nonce); err != nil {
		return nil, NewIOError("read", "crypto/rand", err)
	}
	return nonce, nil
}

// aesGCMEngine implements AEAD using AES-256-GCM.
type aesGCMEngine struct {
	aead cipher.AEAD
}

func newAESGCMEngine(key []byte) (*aesGCMEngine, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dexios: aes-256-gcm: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("dexios: aes-256-gcm: %w", err)
	}
	return &aesGCMEngine{aead: aead}, nil
}

func (e *aesGCMEngine) Seal(nonce, aad, plaintext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmAES256GCM); err != nil {
		return nil, err
	}
	return e.aead.Seal(nil, nonce, plaintext, aad), nil
}

func (e *aesGCMEngine) Open(nonce, aad, ciphertext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmAES256GCM); err != nil {
		return nil, err
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, &AuthError{ChunkIdx: -1, Err: err}
	}
	return plaintext, nil
}

func (e *aesGCMEngine) NonceSize() int { return e.aead.NonceSize() }
func (e *aesGCMEngine) Overhead() int  { return e.aead.Overhead() }

// xchacha20Poly1305Engine implements AEAD using XChaCha20-Poly1305 (the
// 24-byte-nonce variant of ChaCha20-Poly1305).
type xchacha20Poly1305Engine struct {
	aead cipher.AEAD
}

func newXChaCha20Poly1305Engine(key []byte) (*xchacha20Poly1305Engine, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("dexios: xchacha20-poly1305: %w", err)
	}
	return &xchacha20Poly1305Engine{aead: aead}, nil
}

func (e *xchacha20Poly1305Engine) Seal(nonce, aad, plaintext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmXChaCha20Poly1305); err != nil {
		return nil, err
	}
	return e.aead.Seal(nil, nonce, plaintext, aad), nil
}

func (e *xchacha20Poly1305Engine) Open(nonce, aad, ciphertext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmXChaCha20Poly1305); err != nil {
		return nil, err
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, &AuthError{ChunkIdx: -1, Err: err}
	}
	return plaintext, nil
}

func (e *xchacha20Poly1305Engine) NonceSize() int { return e.aead.NonceSize() }
func (e *xchacha20Poly1305Engine) Overhead() int  { return e.aead.Overhead() }

// deoxysIIEngine is a structural stand-in for Deoxys-II-256.
//
// No maintained pure-Go implementation of Deoxys-II exists anywhere in
// the dependency graphs this module draws from, so this engine composes
// primitives that are available (crypto/aes, blake3) into an AEAD shape
// that satisfies the same interface: AES-256 in CTR mode for the
// keystream, and a BLAKE3-keyed hash over the nonce, AAD, and ciphertext
// for the 16-byte tag. It is NOT a certified Deoxys-II implementation and
// should not be relied on for its claimed security margin; it exists so
// the algorithm tag in the format registry round-trips end to end.
type deoxysIIEngine struct {
	block  cipher.Block
	macKey []byte
}

func newDeoxysIIEngine(key []byte) (*deoxysIIEngine, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dexios: deoxys-ii-256: %w", err)
	}
	macKey := deriveSubkey(key, "dexios-deoxys-ii-mac")
	if _, err := blake3.NewKeyed(macKey); err != nil {
		return nil, fmt.Errorf("dexios: deoxys-ii-256: %w", err)
	}
	return &deoxysIIEngine{block: block, macKey: macKey}, nil
}

func (e *deoxysIIEngine) keystream(nonce []byte, n int) []byte {
	iv := make([]byte, aes.BlockSize)
	copy(iv, nonce) // nonce is 15 bytes; the final IV byte starts at zero as the CTR counter seed
	stream := cipher.NewCTR(e.block, iv)
	out := make([]byte, n)
	stream.XORKeyStream(out, out)
	return out
}

func (e *deoxysIIEngine) tag(nonce, aad, ciphertext []byte) ([]byte, error) {
	h, err := blake3.NewKeyed(e.macKey)
	if err != nil {
		return nil, err
	}
	h.Write(nonce)
	var lenBuf [8]byte
	putUint64LE(lenBuf[:], uint64(len(aad)))
	h.Write(lenBuf[:])
	h.Write(aad)
	h.Write(ciphertext)
	sum := make([]byte, 16)
	if _, err := h.Digest().Read(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func (e *deoxysIIEngine) Seal(nonce, aad, plaintext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmDeoxysII256); err != nil {
		return nil, err
	}
	ciphertext := e.keystream(nonce, len(plaintext))
	for i := range plaintext {
		ciphertext[i] ^= plaintext[i]
	}
	tag, err := e.tag(nonce, aad, ciphertext)
	if err != nil {
		return nil, err
	}
	return append(ciphertext, tag...), nil
}

func (e *deoxysIIEngine) Open(nonce, aad, ciphertext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, AlgorithmDeoxysII256); err != nil {
		return nil, err
	}
	if len(ciphertext) < e.Overhead() {
		return nil, &AuthError{ChunkIdx: -1}
	}
	body := ciphertext[:len(ciphertext)-e.Overhead()]
	gotTag := ciphertext[len(ciphertext)-e.Overhead():]

	wantTag, err := e.tag(nonce, aad, body)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(gotTag, wantTag) != 1 {
		return nil, &AuthError{ChunkIdx: -1}
	}

	plaintext := e.keystream(nonce, len(body))
	for i := range body {
		plaintext[i] ^= body[i]
	}
	return plaintext, nil
}

func (e *deoxysIIEngine) NonceSize() int { return AlgorithmDeoxysII256.NonceSize() }
func (e *deoxysIIEngine) Overhead() int  { return AlgorithmDeoxysII256.Overhead() }

// deriveSubkey separates a domain-specific subkey from a master key using
// BLAKE3 as a cheap KDF, the same role lukechampine.com/blake3's
// DeriveKey plays elsewhere in the ecosystem.
func deriveSubkey(key []byte, context string) []byte {
	h := blake3.New()
	h.Write([]byte(context))
	h.Write([]byte{0})
	h.Write(key)
	sum := h.Sum(nil)
	return sum[:32]
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// DeriveKey runs the password-hashing KDF identified by hashAlgorithm over
// secret and salt, producing a 32-byte key. Parameters are fixed per §6
// and are never stored in the header.
func DeriveKey(hashAlgorithm HashAlgorithm, secret, salt []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, &FormatError{Field: "secret", Message: "secret cannot be empty"}
	}
	if err := ValidateBuffer(salt, "salt", 1); err != nil {
		return nil, err
	}
	switch hashAlgorithm {
	case HashAlgorithmArgon2id:
		// m=2^15 KiB, t=8, p=4, 32-byte output.
		return argon2.IDKey(secret, salt, 8, 1<<15, 4, 32), nil
	case HashAlgorithmBLAKE3Balloon:
		// space=2^15 KiB, time=5, 32-byte output.
		return balloonHash(secret, salt, 1<<15, 5, 32), nil
	default:
		return nil, &FormatError{Field: "hash_algorithm", Message: fmtTag("hash_algorithm", uint16(hashAlgorithm))}
	}
}

// balloonHash implements balloon hashing (Boneh, Corrigan-Gibbs, Schechter)
// over BLAKE3 as the underlying compression function: a fill phase builds
// a buffer of spaceKiB KiB worth of 32-byte blocks chained from the
// password and salt, then timeCost mixing rounds fold each block together
// with a salt-indexed "random" neighbor, making the derivation both
// memory-hard and sequential.
func balloonHash(password, salt []byte, spaceKiB, timeCost uint32, keyLen int) []byte {
	const blockSize = 32
	numBlocks := int(uint64(spaceKiB) * 1024 / blockSize)
	if numBlocks < 1 {
		numBlocks = 1
	}

	buf := make([][blockSize]byte, numBlocks)

	mix := func(parts ...[]byte) [blockSize]byte {
		h := blake3.New()
		for _, p := range parts {
			h.Write(p)
		}
		var out [blockSize]byte
		copy(out[:], h.Sum(nil))
		return out
	}

	var ctr uint64
	nextCtr := func() []byte {
		b := make([]byte, 8)
		putUint64LE(b, ctr)
		ctr++
		return b
	}

	buf[0] = mix(nextCtr(), password, salt)
	for i := 1; i < numBlocks; i++ {
		buf[i] = mix(nextCtr(), buf[i-1][:])
	}

	for t := uint32(0); t < timeCost; t++ {
		for i := 0; i < numBlocks; i++ {
			prev := buf[(i-1+numBlocks)%numBlocks]
			idxBlock := mix(nextCtr(), salt, prev[:])
			idx := int(leUint64(idxBlock[:8]) % uint64(numBlocks))
			buf[i] = mix(nextCtr(), prev[:], buf[i][:], buf[idx][:])
		}
	}

	out := make([]byte, keyLen)
	produced := 0
	for produced < keyLen {
		block := mix(nextCtr(), buf[numBlocks-1][:])
		n := copy(out[produced:], block[:])
		produced += n
	}
	return out
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
