package dexios

import (
	"io"
	"os"
)

// Confirm is called before a destructive header operation (Restore,
// Strip) proceeds. Returning false aborts the operation with an
// *AbortError instead of touching the file; operation names the action
// being confirmed, e.g. "restore" or "strip".
type Confirm func(operation string) bool

// DumpHeader copies the fixed 64-byte leading block of path to outPath,
// regardless of format version — V3's in-header salt and V4/V5's base
// nonce both live inside this block, so a dump is always exactly 64
// bytes and never includes the keyslot table. path's header must parse
// as valid (magic bytes plus a recognized version/algorithm/mode tag)
// before anything is written to outPath.
func DumpHeader(path, outPath string) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	if err := ValidateFilePath(outPath); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return NewIOError("open", path, err)
	}
	defer src.Close()

	buf := make([]byte, fixedBlockSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return NewIOError("read", path, err)
	}
	if _, _, _, err := parseFixedBlock(buf); err != nil {
		return err
	}

	if err := os.WriteFile(outPath, buf, 0o600); err != nil {
		return NewIOError("write", outPath, err)
	}
	return nil
}

// RestoreHeader overwrites path's fixed 64-byte leading block with the
// bytes previously captured by DumpHeader at dumpPath. This can repair a
// file whose header was stripped or corrupted, but it is also capable of
// restoring the WRONG header onto a file — confirm gates the write, and
// dumpPath's contents must themselves parse as a valid header before
// they're written to path.
func RestoreHeader(path, dumpPath string, confirm Confirm) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	if err := ValidateFilePath(dumpPath); err != nil {
		return err
	}
	if confirm != nil && !confirm("restore") {
		return &AbortError{Operation: "restore"}
	}

	dumped, err := os.ReadFile(dumpPath)
	if err != nil {
		return NewIOError("read", dumpPath, err)
	}
	if len(dumped) != fixedBlockSize {
		return &FormatError{Path: dumpPath, Field: "length", Message: "header dump must be exactly 64 bytes"}
	}
	if _, _, _, err := parseFixedBlock(dumped); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return NewIOError("open", path, err)
	}
	defer f.Close()

	if _, err := f.WriteAt(dumped, 0); err != nil {
		return NewIOError("write", path, err)
	}
	return nil
}

// StripHeader overwrites path's fixed 64-byte leading block with zeros,
// permanently and irreversibly destroying the file's Associated Data,
// Master Key wrapping context, and (for V3) its KDF salt — without a
// prior DumpHeader, the file's body can never be decrypted again. The
// keyslot table, if any, and the encrypted body are left untouched.
// path's existing header must parse as valid before it is zeroed.
func StripHeader(path string, confirm Confirm) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	if confirm != nil && !confirm("strip") {
		return &AbortError{Operation: "strip"}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return NewIOError("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, fixedBlockSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return NewIOError("read", path, err)
	}
	if _, _, _, err := parseFixedBlock(buf); err != nil {
		return err
	}

	zeros := make([]byte, fixedBlockSize)
	if _, err := f.WriteAt(zeros, 0); err != nil {
		return NewIOError("write", path, err)
	}
	return nil
}
