package dexios

import "testing"

func TestAlgorithm_Valid(t *testing.T) {
	tests := []struct {
		name string
		alg  Algorithm
		want bool
	}{
		{"aes-256-gcm", AlgorithmAES256GCM, true},
		{"xchacha20-poly1305", AlgorithmXChaCha20Poly1305, true},
		{"deoxys-ii-256", AlgorithmDeoxysII256, true},
		{"unknown", Algorithm(0xFFFF), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.alg.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlgorithm_NonceSize(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want int
	}{
		{AlgorithmAES256GCM, 12},
		{AlgorithmXChaCha20Poly1305, 24},
		{AlgorithmDeoxysII256, 15},
	}
	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			if got := tt.alg.NonceSize(); got != tt.want {
				t.Errorf("NonceSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVersion_HasKeyslots(t *testing.T) {
	tests := []struct {
		version Version
		want    bool
	}{
		{VersionV3, false},
		{VersionV4, true},
		{VersionV5, true},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.HasKeyslots(); got != tt.want {
				t.Errorf("HasKeyslots() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMode_Valid(t *testing.T) {
	if !ModeStream.Valid() || !ModeMemory.Valid() {
		t.Error("ModeStream and ModeMemory should both be valid")
	}
	if Mode(0).Valid() {
		t.Error("zero Mode should not be valid")
	}
}

func TestHashAlgorithm_Valid(t *testing.T) {
	if !HashAlgorithmArgon2id.Valid() || !HashAlgorithmBLAKE3Balloon.Valid() {
		t.Error("both hash algorithms should be valid")
	}
	if HashAlgorithm(0).Valid() {
		t.Error("zero HashAlgorithm should not be valid")
	}
}
