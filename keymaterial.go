package dexios

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
)

// SecretSource identifies where a Secret's bytes originated, purely for
// logging and CLI prompts — it has no bearing on the crypto pipeline.
type SecretSource int

const (
	SourceInteractive SecretSource = iota
	SourceEnvironment
	SourceKeyfile
	SourceAutogenerated
)

func (s SecretSource) String() string {
	switch s {
	case SourceInteractive:
		return "interactive"
	case SourceEnvironment:
		return "environment"
	case SourceKeyfile:
		return "keyfile"
	case SourceAutogenerated:
		return "autogenerated"
	default:
		return "unknown"
	}
}

// autogeneratedKeyfileSize is the length, in bytes, of a freshly generated
// keyfile: large enough that the key itself — not any password-hashing
// KDF — is the sole source of entropy protecting the Master Key.
const autogeneratedKeyfileSize = 128

// envKeyVar is the environment variable consulted for a non-interactive
// secret, e.g. in scripted/batch invocations.
const envKeyVar = "DEXIOS_KEY"

// Secret holds key material (a passphrase or raw keyfile bytes) in a
// memguard-locked buffer so it is mlock'd, zeroed on Destroy, and never
// touched by the Go garbage collector's copying or swap-visible paging.
type Secret struct {
	Source SecretSource
	buf    *memguard.LockedBuffer
}

// NewSecret copies raw into a locked buffer and wipes the caller's copy.
// Callers should not retain raw after this call.
func NewSecret(source SecretSource, raw []byte) *Secret {
	buf := memguard.NewBufferFromBytes(raw)
	return &Secret{Source: source, buf: buf}
}

// Bytes returns the secret's plaintext bytes. The returned slice aliases
// memguard-locked memory and must not be retained past Destroy.
func (s *Secret) Bytes() []byte { return s.buf.Bytes() }

// Destroy zeroes and unlocks the underlying buffer. Safe to call more
// than once.
func (s *Secret) Destroy() { s.buf.Destroy() }

// PassphraseReader abstracts interactive passphrase entry so the CLI's
// terminal-reading path can be swapped out in tests.
type PassphraseReader interface {
	// ReadPassphrase prompts with prompt and returns the entered bytes
	// without echoing them.
	ReadPassphrase(prompt string) ([]byte, error)
}

// ResolveSecret resolves a Secret for a single dexios invocation, trying
// sources in a fixed precedence: an explicit keyfile path, then the
// DEXIOS_KEY environment variable, then an interactive prompt via
// reader. It never generates a key; GenerateKeyfile does that.
func ResolveSecret(keyfilePath string, reader PassphraseReader, prompt string) (*Secret, error) {
	if keyfilePath != "" {
		raw, err := os.ReadFile(keyfilePath)
		if err != nil {
			return nil, NewIOError("read", keyfilePath, err)
		}
		secret := NewSecret(SourceKeyfile, raw)
		zero(raw)
		return secret, nil
	}

	if env, ok := os.LookupEnv(envKeyVar); ok {
		secret := NewSecret(SourceEnvironment, []byte(env))
		return secret, nil
	}

	if reader == nil {
		return nil, &FormatError{Field: "secret", Message: "no key source available: no keyfile, no " + envKeyVar + ", and no interactive reader"}
	}
	raw, err := reader.ReadPassphrase(prompt)
	if err != nil {
		return nil, NewIOError("read", "passphrase", err)
	}
	secret := NewSecret(SourceInteractive, raw)
	zero(raw)
	return secret, nil
}

// GenerateKeyfile writes a fresh autogeneratedKeyfileSize-byte random
// keyfile to path and returns it as a Secret, for callers that want an
// autogenerated key instead of a password.
func GenerateKeyfile(path string) (*Secret, error) {
	raw := make([]byte, autogeneratedKeyfileSize)
	if _, err := rand.Read(raw); err != nil {
		return nil, NewIOError("read", "crypto/rand", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		zero(raw)
		return nil, NewIOError("write", path, err)
	}
	secret := NewSecret(SourceAutogenerated, raw)
	zero(raw)
	return secret, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateMasterKey returns a fresh random 32-byte Master Key.
func GenerateMasterKey() ([]byte, error) {
	mk := make([]byte, masterKeySize)
	if _, err := rand.Read(mk); err != nil {
		return nil, NewIOError("read", "crypto/rand", err)
	}
	return mk, nil
}

// describeSecret renders a Secret's source for log lines, never its bytes.
func describeSecret(s *Secret) string {
	return fmt.Sprintf("secret(source=%s)", s.Source)
}
