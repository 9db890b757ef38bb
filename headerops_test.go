package dexios

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTestContainer(t *testing.T, path string) {
	t.Helper()
	nonce := bytes.Repeat([]byte{0x07}, AlgorithmAES256GCM.NonceSize()-4)
	h, err := NewHeaderV5(AlgorithmAES256GCM, ModeStream, nonce)
	if err != nil {
		t.Fatalf("NewHeaderV5: %v", err)
	}
	mk, _ := GenerateMasterKey()
	if _, err := AddKeyslot(h, []byte("password"), mk, HashAlgorithmArgon2id); err != nil {
		t.Fatalf("AddKeyslot: %v", err)
	}
	full, _, err := h.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	full = append(full, []byte("pretend-ciphertext-body")...)
	if err := os.WriteFile(path, full, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDumpRestoreHeader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "container.dx")
	writeTestContainer(t, container)

	original, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	dumpPath := filepath.Join(dir, "header.dump")
	if err := DumpHeader(container, dumpPath); err != nil {
		t.Fatalf("DumpHeader: %v", err)
	}

	dumped, err := os.ReadFile(dumpPath)
	if err != nil {
		t.Fatalf("ReadFile(dump): %v", err)
	}
	if len(dumped) != fixedBlockSize {
		t.Fatalf("len(dumped) = %d, want %d", len(dumped), fixedBlockSize)
	}
	if !bytes.Equal(dumped, original[:fixedBlockSize]) {
		t.Fatal("dumped bytes don't match the container's fixed header block")
	}

	if err := StripHeader(container, nil); err != nil {
		t.Fatalf("StripHeader: %v", err)
	}
	stripped, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile after strip: %v", err)
	}
	if !bytes.Equal(stripped[:fixedBlockSize], make([]byte, fixedBlockSize)) {
		t.Fatal("StripHeader did not zero the fixed header block")
	}
	if !bytes.Equal(stripped[fixedBlockSize:], original[fixedBlockSize:]) {
		t.Fatal("StripHeader touched bytes past the fixed header block")
	}

	if err := RestoreHeader(container, dumpPath, nil); err != nil {
		t.Fatalf("RestoreHeader: %v", err)
	}
	restored, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile after restore: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Fatal("RestoreHeader did not reproduce the original file")
	}
}

func TestDumpHeader_RejectsInvalidMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-container")
	if err := os.WriteFile(path, make([]byte, fixedBlockSize+32), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := DumpHeader(path, filepath.Join(dir, "out.header")); !IsFormatError(err) {
		t.Fatalf("DumpHeader() error = %v, want *FormatError", err)
	}
}

func TestRestoreHeader_RejectsInvalidDump(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "container.dx")
	writeTestContainer(t, container)

	badDump := filepath.Join(dir, "bad.header")
	if err := os.WriteFile(badDump, make([]byte, fixedBlockSize), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	before, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if err := RestoreHeader(container, badDump, nil); !IsFormatError(err) {
		t.Fatalf("RestoreHeader() error = %v, want *FormatError", err)
	}

	after, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("RestoreHeader wrote an invalid header before returning an error")
	}
}

func TestStripHeader_RejectsAlreadyInvalidHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-container")
	if err := os.WriteFile(path, make([]byte, fixedBlockSize+32), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := StripHeader(path, nil); !IsFormatError(err) {
		t.Fatalf("StripHeader() error = %v, want *FormatError", err)
	}
}

func TestRestoreHeader_AbortsOnDeclinedConfirm(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "container.dx")
	writeTestContainer(t, container)

	dumpPath := filepath.Join(dir, "header.dump")
	if err := DumpHeader(container, dumpPath); err != nil {
		t.Fatalf("DumpHeader: %v", err)
	}

	before, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	declineAll := func(string) bool { return false }
	err = RestoreHeader(container, dumpPath, declineAll)
	if !IsAbortError(err) {
		t.Fatalf("error = %v, want *AbortError", err)
	}

	after, err := os.ReadFile(container)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("file was modified despite the declined confirmation")
	}
}
