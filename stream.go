package dexios

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// ProgressFunc is called after each chunk is processed with the number of
// plaintext bytes just handled, so callers can drive a progress bar
// without the streaming engine depending on any particular UI library.
type ProgressFunc func(n int)

// chunkNonce builds a chunk's full AEAD nonce from the header's base
// nonce and a little-endian 32-bit chunk counter, XORing 0x80 into the
// first byte when eos marks the final chunk of the stream. Reusing the
// same counter-append scheme for the end-of-stream flag keeps Memory
// mode — a single chunk that is always final — a degenerate case of the
// same nonce construction used for Stream mode.
func chunkNonce(baseNonce []byte, counter uint32, eos bool) []byte {
	nonce := make([]byte, len(baseNonce)+4)
	copy(nonce, baseNonce)
	binary.LittleEndian.PutUint32(nonce[len(baseNonce):], counter)
	if eos {
		nonce[0] ^= 0x80
	}
	return nonce
}

// EncryptStream reads plaintext from src and writes sealed chunks to dst,
// using engine under baseNonce and aad. In ModeStream the body is split
// into streamChunkSize (1 MiB) plaintext chunks, each sealed
// independently and processed strictly in order; the final chunk's nonce
// carries the end-of-stream marker. In ModeMemory the entire body is
// buffered and sealed as a single chunk, itself the final (and only)
// chunk.
//
// Chunk boundaries are never recorded on disk: a reader infers them from
// ciphertext chunk size and EOF, per ValidateChunkCounter's 32-bit limit
// on how many chunks a single stream may contain.
func EncryptStream(dst io.Writer, src io.Reader, engine AEAD, baseNonce, aad []byte, mode Mode, progress ProgressFunc) error {
	if mode == ModeMemory {
		data, err := io.ReadAll(src)
		if err != nil {
			return NewIOError("read", "plaintext", err)
		}
		nonce := chunkNonce(baseNonce, 0, true)
		sealed, err := engine.Seal(nonce, aad, data)
		if err != nil {
			return err
		}
		if _, err := dst.Write(sealed); err != nil {
			return NewIOError("write", "ciphertext", err)
		}
		if progress != nil {
			progress(len(data))
		}
		return nil
	}

	br := bufio.NewReaderSize(src, streamChunkSize)
	buf := make([]byte, streamChunkSize)
	var counter uint64

	for {
		n, readErr := io.ReadFull(br, buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return NewIOError("read", "plaintext", readErr)
		}

		eos := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)
		if n == len(buf) && readErr == nil {
			if _, peekErr := br.Peek(1); errors.Is(peekErr, io.EOF) {
				eos = true
			}
		}

		if n == 0 && eos && counter > 0 {
			// Input length was an exact multiple of the chunk size; the
			// previous iteration already sealed the final chunk.
			return nil
		}

		if err := ValidateChunkCounter(counter); err != nil {
			return err
		}

		nonce := chunkNonce(baseNonce, uint32(counter), eos)
		sealed, err := engine.Seal(nonce, aad, buf[:n])
		if err != nil {
			return err
		}
		if _, err := dst.Write(sealed); err != nil {
			return NewIOError("write", "ciphertext", err)
		}
		if progress != nil {
			progress(n)
		}

		if eos {
			return nil
		}
		counter++
	}
}

// DecryptStream is the inverse of EncryptStream: it reads sealed chunks
// from src, opens each with engine under baseNonce and aad, and writes
// the recovered plaintext to dst. Any AEAD authentication failure — a
// truncated file, a bit-flipped byte, or a mismatched key — aborts
// immediately with an *AuthError identifying the offending chunk; dst
// may already contain previously-verified plaintext from earlier chunks.
func DecryptStream(dst io.Writer, src io.Reader, engine AEAD, baseNonce, aad []byte, mode Mode, progress ProgressFunc) error {
	overhead := engine.Overhead()

	if mode == ModeMemory {
		sealed, err := io.ReadAll(src)
		if err != nil {
			return NewIOError("read", "ciphertext", err)
		}
		nonce := chunkNonce(baseNonce, 0, true)
		plaintext, err := engine.Open(nonce, aad, sealed)
		if err != nil {
			if ae, ok := err.(*AuthError); ok {
				ae.ChunkIdx = 0
				return ae
			}
			return err
		}
		if _, err := dst.Write(plaintext); err != nil {
			return NewIOError("write", "plaintext", err)
		}
		if progress != nil {
			progress(len(plaintext))
		}
		return nil
	}

	chunkOnDisk := streamChunkSize + overhead
	br := bufio.NewReaderSize(src, chunkOnDisk)
	buf := make([]byte, chunkOnDisk)
	var counter uint64

	for {
		n, readErr := io.ReadFull(br, buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return NewIOError("read", "ciphertext", readErr)
		}

		eos := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)
		if n == len(buf) && readErr == nil {
			if _, peekErr := br.Peek(1); errors.Is(peekErr, io.EOF) {
				eos = true
			}
		}

		if n == 0 && eos && counter > 0 {
			return nil
		}

		if err := ValidateChunkCounter(counter); err != nil {
			return err
		}

		nonce := chunkNonce(baseNonce, uint32(counter), eos)
		plaintext, err := engine.Open(nonce, aad, buf[:n])
		if err != nil {
			if ae, ok := err.(*AuthError); ok {
				ae.ChunkIdx = int64(counter)
				return ae
			}
			return err
		}
		if _, err := dst.Write(plaintext); err != nil {
			return NewIOError("write", "plaintext", err)
		}
		if progress != nil {
			progress(len(plaintext))
		}

		if eos {
			return nil
		}
		counter++
	}
}
