package dexios

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSecret_Keyfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	want := []byte("keyfile-contents")
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	secret, err := ResolveSecret(path, nil, "")
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	defer secret.Destroy()

	if secret.Source != SourceKeyfile {
		t.Fatalf("Source = %v, want SourceKeyfile", secret.Source)
	}
	if !bytes.Equal(secret.Bytes(), want) {
		t.Fatalf("Bytes() = %q, want %q", secret.Bytes(), want)
	}
}

func TestResolveSecret_Environment(t *testing.T) {
	t.Setenv(envKeyVar, "env-secret-value")

	secret, err := ResolveSecret("", nil, "")
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	defer secret.Destroy()

	if secret.Source != SourceEnvironment {
		t.Fatalf("Source = %v, want SourceEnvironment", secret.Source)
	}
	if string(secret.Bytes()) != "env-secret-value" {
		t.Fatalf("Bytes() = %q, want %q", secret.Bytes(), "env-secret-value")
	}
}

type fakeReader struct{ pw []byte }

func (f fakeReader) ReadPassphrase(prompt string) ([]byte, error) {
	return append([]byte(nil), f.pw...), nil
}

func TestResolveSecret_Interactive(t *testing.T) {
	secret, err := ResolveSecret("", fakeReader{pw: []byte("typed-passphrase")}, "Enter passphrase")
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	defer secret.Destroy()

	if secret.Source != SourceInteractive {
		t.Fatalf("Source = %v, want SourceInteractive", secret.Source)
	}
	if string(secret.Bytes()) != "typed-passphrase" {
		t.Fatalf("Bytes() = %q, want %q", secret.Bytes(), "typed-passphrase")
	}
}

func TestResolveSecret_NoSourceAvailable(t *testing.T) {
	if _, err := ResolveSecret("", nil, ""); !IsFormatError(err) {
		t.Fatalf("error = %v, want *FormatError", err)
	}
}

func TestGenerateKeyfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "generated.key")

	secret, err := GenerateKeyfile(path)
	if err != nil {
		t.Fatalf("GenerateKeyfile: %v", err)
	}
	defer secret.Destroy()

	if secret.Source != SourceAutogenerated {
		t.Fatalf("Source = %v, want SourceAutogenerated", secret.Source)
	}
	if len(secret.Bytes()) != autogeneratedKeyfileSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(secret.Bytes()), autogeneratedKeyfileSize)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(onDisk, secret.Bytes()) {
		t.Fatal("keyfile on disk doesn't match the returned Secret")
	}
}
