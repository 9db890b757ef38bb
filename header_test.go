package dexios

import (
	"bytes"
	"testing"
)

func TestHeader_SerializeDeserialize_V5_NoKeyslots(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x05}, AlgorithmXChaCha20Poly1305.NonceSize()-4)
	h, err := NewHeaderV5(AlgorithmXChaCha20Poly1305, ModeStream, nonce)
	if err != nil {
		t.Fatalf("NewHeaderV5: %v", err)
	}

	full, aad, err := h.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(full) != fixedBlockSize {
		t.Fatalf("len(full) = %d, want %d", len(full), fixedBlockSize)
	}
	if len(aad) != fixedBlockSize {
		t.Fatalf("len(aad) = %d, want %d", len(aad), fixedBlockSize)
	}

	got, gotAAD, err := DeserializeHeader(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if got.Version != VersionV5 || got.Algorithm != AlgorithmXChaCha20Poly1305 || got.Mode != ModeStream {
		t.Fatalf("round-tripped header fields mismatch: %+v", got)
	}
	if !bytes.Equal(got.Nonce, nonce) {
		t.Fatalf("Nonce = %x, want %x", got.Nonce, nonce)
	}
	if !bytes.Equal(aad, gotAAD) {
		t.Fatal("AAD mismatch between Serialize and DeserializeHeader")
	}
}

func TestHeader_SerializeDeserialize_WithKeyslots(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x09}, AlgorithmAES256GCM.NonceSize()-4)
	h, err := NewHeaderV5(AlgorithmAES256GCM, ModeStream, nonce)
	if err != nil {
		t.Fatalf("NewHeaderV5: %v", err)
	}

	mk, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey: %v", err)
	}
	if _, err := AddKeyslot(h, []byte("pw1"), mk, HashAlgorithmArgon2id); err != nil {
		t.Fatalf("AddKeyslot: %v", err)
	}
	if _, err := AddKeyslot(h, []byte("pw2"), mk, HashAlgorithmBLAKE3Balloon); err != nil {
		t.Fatalf("AddKeyslot: %v", err)
	}

	full, _, err := h.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	wantLen := fixedBlockSize + 2*keyslotSize
	if len(full) != wantLen {
		t.Fatalf("len(full) = %d, want %d", len(full), wantLen)
	}

	got, _, err := DeserializeHeader(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if len(got.Keyslots) != 2 {
		t.Fatalf("len(Keyslots) = %d, want 2", len(got.Keyslots))
	}
	for i, ks := range got.Keyslots {
		if ks.Empty {
			t.Fatalf("slot %d unexpectedly empty", i)
		}
	}
}

func TestHeader_Serialize_RejectsUnsupportedAlgorithm(t *testing.T) {
	h := &Header{
		Version:   VersionV5,
		Algorithm: Algorithm(0xFFFF),
		Mode:      ModeStream,
	}
	if _, _, err := h.Serialize(); !IsFormatError(err) {
		t.Fatalf("Serialize() error = %v, want *FormatError", err)
	}
}

func TestDeserializeHeader_RejectsBadMagic(t *testing.T) {
	buf := make([]byte, fixedBlockSize)
	copy(buf[0:2], []byte{'X', 'X'})
	if _, _, err := DeserializeHeader(bytes.NewReader(buf)); !IsFormatError(err) {
		t.Fatalf("DeserializeHeader() error = %v, want *FormatError", err)
	}
}

func TestDeserializeHeader_ToleratesNonContiguousGap(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x0A}, AlgorithmAES256GCM.NonceSize()-4)
	h, err := NewHeaderV5(AlgorithmAES256GCM, ModeStream, nonce)
	if err != nil {
		t.Fatalf("NewHeaderV5: %v", err)
	}
	mk, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey: %v", err)
	}

	// A correct writer never produces this layout (see keyslot.go's
	// front-packing invariant), but a reader must still tolerate it: slot
	// 0 populated, slot 1 empty, slot 2 populated, slot 3 empty.
	ks0, err := wrapMasterKey([]byte("pw0"), mk, HashAlgorithmArgon2id)
	if err != nil {
		t.Fatalf("wrapMasterKey: %v", err)
	}
	ks2, err := wrapMasterKey([]byte("pw2"), mk, HashAlgorithmArgon2id)
	if err != nil {
		t.Fatalf("wrapMasterKey: %v", err)
	}
	h.Keyslots = []Keyslot{ks0, {Empty: true}, ks2, {Empty: true}}

	full, _, err := h.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, _, err := DeserializeHeader(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if len(got.Keyslots) != 4 {
		t.Fatalf("len(Keyslots) = %d, want 4", len(got.Keyslots))
	}
	if got.Keyslots[0].Empty || !got.Keyslots[1].Empty || got.Keyslots[2].Empty || !got.Keyslots[3].Empty {
		t.Fatalf("gap pattern not preserved: %+v", got.Keyslots)
	}
	if _, err := unwrapMasterKey(&got.Keyslots[2], []byte("pw2")); err != nil {
		t.Fatalf("unwrapMasterKey(slot 2 past the gap): %v", err)
	}
}

func TestHeader_V3_SaltInHeader(t *testing.T) {
	salt := bytes.Repeat([]byte{0x22}, v3SaltSize)
	h := &Header{
		Version:   VersionV3,
		Algorithm: AlgorithmAES256GCM,
		Mode:      ModeStream,
		Nonce:     bytes.Repeat([]byte{0x01}, AlgorithmAES256GCM.NonceSize()-4),
		V3Salt:    salt,
	}

	full, _, err := h.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(full) != fixedBlockSize {
		t.Fatalf("len(full) = %d, want %d (v3 never has keyslots)", len(full), fixedBlockSize)
	}

	got, _, err := DeserializeHeader(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if !bytes.Equal(got.V3Salt, salt) {
		t.Fatalf("V3Salt = %x, want %x", got.V3Salt, salt)
	}
	if got.Keyslots != nil {
		t.Fatal("V3 header should never have a keyslot table")
	}
}
