package dexios

import (
	"crypto/rand"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// tempPathFor returns a collision-resistant temporary path alongside
// path, in the same directory so the final rename is an atomic same-
// filesystem operation rather than a cross-device copy.
func tempPathFor(path string) string {
	dir := filepath.Dir(path)
	return filepath.Join(dir, "."+filepath.Base(path)+".dexios-tmp-"+uuid.NewString())
}

// atomicReplace renames tmp over path, the last step of every operation
// below: the destination either has the old complete contents or the
// new complete contents, never a partial write.
func atomicReplace(tmp, path string) error {
	if err := os.Rename(tmp, path); err != nil {
		return NewIOError("rename", path, err)
	}
	return nil
}

func generateBaseNonce(algorithm Algorithm) ([]byte, error) {
	n := make([]byte, algorithm.NonceSize()-4)
	if _, err := rand.Read(n); err != nil {
		return nil, NewIOError("read", "crypto/rand", err)
	}
	return n, nil
}

// EncryptFile encrypts the file at inPath into a fresh Dexios container
// at outPath under a new randomly generated Master Key, itself wrapped
// in the container's first keyslot under secret. outPath is written via
// a temp file and atomic rename, so a failure partway through never
// disturbs any existing file at outPath.
func EncryptFile(inPath, outPath string, secret *Secret, algorithm Algorithm, mode Mode, hashAlgorithm HashAlgorithm, progress ProgressFunc) (err error) {
	if err := ValidateFilePath(inPath); err != nil {
		return err
	}
	if err := ValidateFilePath(outPath); err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return NewIOError("open", inPath, err)
	}
	defer in.Close()

	mk, err := GenerateMasterKey()
	if err != nil {
		return err
	}
	defer zero(mk)

	baseNonce, err := generateBaseNonce(algorithm)
	if err != nil {
		return err
	}

	header, err := NewHeaderV5(algorithm, mode, baseNonce)
	if err != nil {
		return err
	}
	if _, err := AddKeyslot(header, secret.Bytes(), mk, hashAlgorithm); err != nil {
		return err
	}

	full, aad, err := header.Serialize()
	if err != nil {
		return err
	}

	engine, err := NewAEAD(algorithm, mk)
	if err != nil {
		return err
	}

	tmp := tempPathFor(outPath)
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return NewIOError("open", tmp, err)
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = out.Write(full); err != nil {
		return NewIOError("write", tmp, err)
	}
	if err = EncryptStream(out, in, engine, baseNonce, aad, mode, progress); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return NewIOError("close", tmp, err)
	}

	return atomicReplace(tmp, outPath)
}

// DecryptFile recovers the plaintext body of the Dexios container at
// inPath into outPath, using secret to unwrap whichever populated
// keyslot it matches (or, for V3, to derive the implicit key directly).
func DecryptFile(inPath, outPath string, secret *Secret, progress ProgressFunc) (err error) {
	if err := ValidateFilePath(inPath); err != nil {
		return err
	}
	if err := ValidateFilePath(outPath); err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return NewIOError("open", inPath, err)
	}
	defer in.Close()

	header, aad, err := DeserializeHeader(in)
	if err != nil {
		return err
	}

	mk, _, err := UnwrapMasterKey(header, secret.Bytes())
	if err != nil {
		return err
	}
	defer zero(mk)

	engine, err := NewAEAD(header.Algorithm, mk)
	if err != nil {
		return err
	}

	tmp := tempPathFor(outPath)
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return NewIOError("open", tmp, err)
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = DecryptStream(out, in, engine, header.Nonce, aad, header.Mode, progress); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return NewIOError("close", tmp, err)
	}

	return atomicReplace(tmp, outPath)
}

// loadHeaderForMutation reads a container's complete header (fixed block
// plus keyslot table) without touching the body, returning the parsed
// header and its on-disk length so the caller can decide whether a
// keyslot-table mutation fits in place or needs the file rewritten.
func loadHeaderForMutation(path string) (*os.File, *Header, int64, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, nil, 0, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, 0, NewIOError("open", path, err)
	}
	header, _, err := DeserializeHeader(f)
	if err != nil {
		f.Close()
		return nil, nil, 0, err
	}
	oldLen := header.HeaderLen()
	return f, header, oldLen, nil
}

// commitHeaderMutation writes header's new serialization back to path.
// When the header's on-disk length is unchanged (Delete and Change never
// resize it; Add reusing an already-empty slot doesn't either), it is
// overwritten in place. When Add grows the keyslot table, the file is
// rewritten through a temp file: new header, then the untouched body
// copied verbatim from just past the old header.
func commitHeaderMutation(f *os.File, path string, header *Header, oldLen int64) error {
	full, _, err := header.Serialize()
	if err != nil {
		return err
	}

	if int64(len(full)) == oldLen {
		if _, err := f.WriteAt(full, 0); err != nil {
			return NewIOError("write", path, err)
		}
		return nil
	}

	if err := ValidateOffset(oldLen, "header_length"); err != nil {
		return err
	}
	if _, err := f.Seek(oldLen, io.SeekStart); err != nil {
		return NewIOError("seek", path, err)
	}

	tmp := tempPathFor(path)
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return NewIOError("open", tmp, err)
	}
	defer func() {
		out.Close()
		os.Remove(tmp)
	}()

	if _, err := out.Write(full); err != nil {
		return NewIOError("write", tmp, err)
	}
	if _, err := io.Copy(out, f); err != nil {
		return NewIOError("write", tmp, err)
	}
	if err := out.Close(); err != nil {
		return NewIOError("close", tmp, err)
	}

	return atomicReplace(tmp, path)
}

// AddKeyslotToFile wraps mk — recovered by unwrapping with
// existingSecret — under newSecret and installs it as an additional
// keyslot in the container at path, leaving the body untouched.
func AddKeyslotToFile(path string, existingSecret, newSecret *Secret, hashAlgorithm HashAlgorithm) error {
	f, header, oldLen, err := loadHeaderForMutation(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mk, _, err := UnwrapMasterKey(header, existingSecret.Bytes())
	if err != nil {
		return err
	}
	defer zero(mk)

	if _, err := AddKeyslot(header, newSecret.Bytes(), mk, hashAlgorithm); err != nil {
		return err
	}

	return commitHeaderMutation(f, path, header, oldLen)
}

// ChangeKeyslotInFile re-wraps the Master Key guarded by oldSecret under
// newSecret, in place, without touching the encrypted body.
func ChangeKeyslotInFile(path string, oldSecret, newSecret *Secret, hashAlgorithm HashAlgorithm) error {
	f, header, oldLen, err := loadHeaderForMutation(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ChangeKeyslot(header, oldSecret.Bytes(), newSecret.Bytes(), hashAlgorithm); err != nil {
		return err
	}

	return commitHeaderMutation(f, path, header, oldLen)
}

// DeleteKeyslotFromFile removes the keyslot unlocked by secret from the
// container at path. It refuses to delete the last populated keyslot.
func DeleteKeyslotFromFile(path string, secret *Secret) error {
	f, header, oldLen, err := loadHeaderForMutation(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := DeleteKeyslot(header, secret.Bytes()); err != nil {
		return err
	}

	return commitHeaderMutation(f, path, header, oldLen)
}
