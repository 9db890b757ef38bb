package dexios

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptStream_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		size int
	}{
		{"memory mode, empty input", ModeMemory, 0},
		{"memory mode, small input", ModeMemory, 128},
		{"stream mode, empty input", ModeStream, 0},
		{"stream mode, sub-chunk input", ModeStream, 1024},
		{"stream mode, exact chunk boundary", ModeStream, streamChunkSize},
		{"stream mode, chunk boundary plus one", ModeStream, streamChunkSize + 1},
		{"stream mode, multiple chunks", ModeStream, streamChunkSize*2 + 17},
	}

	key := bytes.Repeat([]byte{0x5A}, kekSize)
	engine, err := NewAEAD(AlgorithmXChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}
	baseNonce := bytes.Repeat([]byte{0x01}, AlgorithmXChaCha20Poly1305.NonceSize()-4)
	aad := []byte("fixed header block")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := make([]byte, tt.size)
			for i := range plaintext {
				plaintext[i] = byte(i)
			}

			var ciphertext bytes.Buffer
			var chunksSeen int
			progress := func(n int) { chunksSeen++ }

			if err := EncryptStream(&ciphertext, bytes.NewReader(plaintext), engine, baseNonce, aad, tt.mode, progress); err != nil {
				t.Fatalf("EncryptStream: %v", err)
			}
			if chunksSeen == 0 {
				t.Fatal("progress callback never invoked")
			}

			var decrypted bytes.Buffer
			if err := DecryptStream(&decrypted, bytes.NewReader(ciphertext.Bytes()), engine, baseNonce, aad, tt.mode, nil); err != nil {
				t.Fatalf("DecryptStream: %v", err)
			}

			if !bytes.Equal(decrypted.Bytes(), plaintext) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", decrypted.Len(), len(plaintext))
			}
		})
	}
}

func TestDecryptStream_TamperedChunkFails(t *testing.T) {
	key := bytes.Repeat([]byte{0x5A}, kekSize)
	engine, err := NewAEAD(AlgorithmAES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}
	baseNonce := bytes.Repeat([]byte{0x02}, AlgorithmAES256GCM.NonceSize()-4)
	aad := []byte("aad")

	plaintext := bytes.Repeat([]byte{0x42}, streamChunkSize+100)
	var ciphertext bytes.Buffer
	if err := EncryptStream(&ciphertext, bytes.NewReader(plaintext), engine, baseNonce, aad, ModeStream, nil); err != nil {
		t.Fatalf("EncryptStream: %v", err)
	}

	tampered := ciphertext.Bytes()
	tampered[len(tampered)-1] ^= 0xFF

	var decrypted bytes.Buffer
	err = DecryptStream(&decrypted, bytes.NewReader(tampered), engine, baseNonce, aad, ModeStream, nil)
	if err == nil {
		t.Fatal("DecryptStream succeeded on tampered ciphertext")
	}
	if !IsAuthError(err) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}

func TestDecryptStream_WrongAADFails(t *testing.T) {
	key := bytes.Repeat([]byte{0x5A}, kekSize)
	engine, err := NewAEAD(AlgorithmXChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}
	baseNonce := bytes.Repeat([]byte{0x03}, AlgorithmXChaCha20Poly1305.NonceSize()-4)

	var ciphertext bytes.Buffer
	if err := EncryptStream(&ciphertext, bytes.NewReader([]byte("hello world")), engine, baseNonce, []byte("aad-one"), ModeMemory, nil); err != nil {
		t.Fatalf("EncryptStream: %v", err)
	}

	var decrypted bytes.Buffer
	err = DecryptStream(&decrypted, bytes.NewReader(ciphertext.Bytes()), engine, baseNonce, []byte("aad-two"), ModeMemory, nil)
	if err == nil {
		t.Fatal("DecryptStream succeeded with mismatched AAD")
	}
}

func TestChunkNonce_EOSMarker(t *testing.T) {
	base := bytes.Repeat([]byte{0x10}, 20)
	plain := chunkNonce(base, 3, false)
	eos := chunkNonce(base, 3, true)

	if plain[0] == eos[0] {
		t.Fatal("EOS marker did not change the nonce's first byte")
	}
	if eos[0] != plain[0]^0x80 {
		t.Fatalf("EOS marker = %#x, want first byte XORed with 0x80", eos[0])
	}
	for i := 1; i < len(plain); i++ {
		if plain[i] != eos[i] {
			t.Fatalf("byte %d differs between EOS and non-EOS nonce, want only byte 0 to differ", i)
		}
	}
}
