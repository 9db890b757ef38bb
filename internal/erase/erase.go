// Package erase implements secure file erasure: overwriting a file's
// contents with random bytes for a configurable number of passes before
// truncating and unlinking it.
package erase

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPasses is used when a caller doesn't have a specific pass count
// in mind. Each pass overwrites the full file length with fresh random
// bytes before the next pass begins.
const DefaultPasses = 2

// File overwrites path's contents with random bytes passes times, then
// truncates it to zero length and removes it. Each pass is flushed to
// disk before the next begins.
//
// This is a best-effort erasure contract, not a guarantee: on
// copy-on-write, log-structured, or wear-leveled storage (many SSDs,
// journaling filesystems, network filesystems) an overwrite does not
// reliably reach every physical location that ever held the original
// bytes.
func File(path string, passes int) error {
	if passes < 1 {
		passes = DefaultPasses
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("erase: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("erase: %s is a directory, use Dir instead", path)
	}
	size := info.Size()

	for pass := 0; pass < passes; pass++ {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("erase: open %s: %w", path, err)
		}
		if err := overwritePass(f, size); err != nil {
			f.Close()
			return fmt.Errorf("erase: pass %d on %s: %w", pass, path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("erase: sync %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("erase: close %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("erase: truncate %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("erase: close %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("erase: remove %s: %w", path, err)
	}
	return nil
}

// overwritePass writes size bytes of random data to f, buffering in
// fixed-size chunks so a single very large file doesn't require holding
// its full length in memory at once.
func overwritePass(f *os.File, size int64) error {
	const bufSize = 1 << 20
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	buf := make([]byte, bufSize)
	var written int64
	for written < size {
		n := bufSize
		if remaining := size - written; remaining < int64(bufSize) {
			n = int(remaining)
		}
		if _, err := rand.Read(buf[:n]); err != nil {
			return err
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		written += int64(n)
	}
	return nil
}

// Dir recursively erases every regular file under path, then removes the
// now-empty directory tree.
func Dir(path string, passes int) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("erase: read dir %s: %w", path, err)
	}

	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if err := Dir(full, passes); err != nil {
				return err
			}
			continue
		}
		if err := File(full, passes); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("erase: remove dir %s: %w", path, err)
	}
	return nil
}
