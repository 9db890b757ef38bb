package dexios

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
)

// Keyslot is one 156-byte record in a V4/V5 header's keyslot table: a
// Master Key wrapped under a Key-Encryption-Key derived from a single
// secret, plus the KDF salt and algorithm needed to re-derive that KEK.
// An Empty slot is 156 bytes of zeros; it carries no other fields.
//
// Wire layout: encrypted_mk(48) | nonce(24) | salt(16) | hash_algorithm(2) | reserved(66).
//
// Wrapping always uses XChaCha20-Poly1305 (keyslotWrapAlgorithm),
// independent of the body's Algorithm, so that changing a file's body
// cipher never requires touching the keyslot table's wrap scheme.
type Keyslot struct {
	Empty bool

	EncryptedMK   []byte // 48 bytes: 32-byte Master Key + 16-byte tag
	Nonce         []byte // 24 bytes: XChaCha20-Poly1305 wrap nonce
	Salt          []byte // 16 bytes: KDF salt
	HashAlgorithm HashAlgorithm
}

const (
	ksOffEncryptedMK = 0
	ksOffNonce       = ksOffEncryptedMK + 48
	ksOffSalt        = ksOffNonce + 24
	ksOffHashAlg     = ksOffSalt + 16
	ksOffReserved    = ksOffHashAlg + 2
)

func (ks *Keyslot) serialize() []byte {
	buf := make([]byte, keyslotSize)
	if ks.Empty {
		return buf
	}
	copy(buf[ksOffEncryptedMK:ksOffNonce], ks.EncryptedMK)
	copy(buf[ksOffNonce:ksOffSalt], ks.Nonce)
	copy(buf[ksOffSalt:ksOffHashAlg], ks.Salt)
	binary.LittleEndian.PutUint16(buf[ksOffHashAlg:ksOffReserved], uint16(ks.HashAlgorithm))
	return buf
}

func parseKeyslot(raw []byte) Keyslot {
	if isZero(raw) {
		return Keyslot{Empty: true}
	}
	return Keyslot{
		EncryptedMK:   append([]byte(nil), raw[ksOffEncryptedMK:ksOffNonce]...),
		Nonce:         append([]byte(nil), raw[ksOffNonce:ksOffSalt]...),
		Salt:          append([]byte(nil), raw[ksOffSalt:ksOffHashAlg]...),
		HashAlgorithm: HashAlgorithm(binary.LittleEndian.Uint16(raw[ksOffHashAlg:ksOffReserved])),
	}
}

func isZero(b []byte) bool {
	return bytes.Count(b, []byte{0}) == len(b)
}

func populatedCount(slots []Keyslot) int {
	n := 0
	for i := range slots {
		if !slots[i].Empty {
			n++
		}
	}
	return n
}

// wrapMasterKey seals mk under a KEK derived from secret via hashAlgorithm
// and a fresh random salt, returning the populated Keyslot.
func wrapMasterKey(secret, mk []byte, hashAlgorithm HashAlgorithm) (Keyslot, error) {
	salt := make([]byte, v3SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Keyslot{}, NewIOError("read", "crypto/rand", err)
	}
	kek, err := DeriveKey(hashAlgorithm, secret, salt)
	if err != nil {
		return Keyslot{}, err
	}
	nonce, err := GenerateNonce(keyslotWrapAlgorithm)
	if err != nil {
		return Keyslot{}, err
	}
	engine, err := NewAEAD(keyslotWrapAlgorithm, kek)
	if err != nil {
		return Keyslot{}, err
	}
	wrapped, err := engine.Seal(nonce, nil, mk)
	if err != nil {
		return Keyslot{}, err
	}
	return Keyslot{
		EncryptedMK:   wrapped,
		Nonce:         nonce,
		Salt:          salt,
		HashAlgorithm: hashAlgorithm,
	}, nil
}

// unwrapMasterKey tries to open ks with a KEK derived from secret. It
// returns ErrWrongPassword (wrapped) when the derived KEK doesn't
// authenticate this slot — the caller moves on to the next slot.
func unwrapMasterKey(ks *Keyslot, secret []byte) ([]byte, error) {
	kek, err := DeriveKey(ks.HashAlgorithm, secret, ks.Salt)
	if err != nil {
		return nil, err
	}
	engine, err := NewAEAD(keyslotWrapAlgorithm, kek)
	if err != nil {
		return nil, err
	}
	mk, err := engine.Open(ks.Nonce, nil, ks.EncryptedMK)
	if err != nil {
		return nil, &KeyslotError{Reason: ReasonWrongPassword}
	}
	return mk, nil
}

// UnwrapMasterKey recovers the file's Master Key from secret, trying
// each populated keyslot in physical order for V4/V5, or deriving it
// directly from V3's single in-header salt. It returns the matching slot
// index, or -1 for V3 or when no slot matched.
func UnwrapMasterKey(h *Header, secret []byte) (mk []byte, slotIndex int, err error) {
	if h.Version == VersionV3 {
		mk, err := DeriveKey(HashAlgorithmArgon2id, secret, h.V3Salt)
		if err != nil {
			return nil, -1, err
		}
		return mk, -1, nil
	}

	for i := range h.Keyslots {
		if h.Keyslots[i].Empty {
			continue
		}
		mk, err := unwrapMasterKey(&h.Keyslots[i], secret)
		if err == nil {
			return mk, i, nil
		}
	}
	return nil, -1, &KeyslotError{Reason: ReasonWrongPassword}
}

// AddKeyslot wraps mk under secret via hashAlgorithm and installs it in
// the first empty physical slot, growing the table by one if every
// existing slot is populated and the table has not yet reached
// maxKeyslots. It returns ErrMaxSlots once four slots are populated.
func AddKeyslot(h *Header, secret, mk []byte, hashAlgorithm HashAlgorithm) (slotIndex int, err error) {
	if !h.Version.HasKeyslots() {
		return -1, &FormatError{Field: "version", Message: "keyslots are not supported by v3 headers"}
	}
	if populatedCount(h.Keyslots) >= maxKeyslots {
		return -1, &KeyslotError{Reason: ReasonMaxSlots}
	}

	ks, err := wrapMasterKey(secret, mk, hashAlgorithm)
	if err != nil {
		return -1, err
	}

	for i := range h.Keyslots {
		if h.Keyslots[i].Empty {
			h.Keyslots[i] = ks
			return i, nil
		}
	}

	h.Keyslots = append(h.Keyslots, ks)
	return len(h.Keyslots) - 1, nil
}

// ChangeKeyslot re-wraps the Master Key guarded by oldSecret under
// newSecret (optionally under a different hashAlgorithm), in place, at
// the same physical slot index. The keyslot's salt and nonce are
// re-randomized; every other slot and the encrypted body are untouched.
func ChangeKeyslot(h *Header, oldSecret, newSecret []byte, hashAlgorithm HashAlgorithm) error {
	if !h.Version.HasKeyslots() {
		return &FormatError{Field: "version", Message: "keyslots are not supported by v3 headers"}
	}

	mk, idx, err := UnwrapMasterKey(h, oldSecret)
	if err != nil {
		return err
	}

	ks, err := wrapMasterKey(newSecret, mk, hashAlgorithm)
	if err != nil {
		return err
	}
	h.Keyslots[idx] = ks
	return nil
}

// DeleteKeyslot removes the slot unlocked by secret, compacting the
// table so populated slots stay front-packed: the deleted slot's
// neighbors shift down by one and the now-unused trailing physical
// region is zeroed. The file's on-disk header length is unchanged. It
// returns ErrLastSlot when secret unlocks the only populated slot,
// refusing to make the file permanently undecryptable.
func DeleteKeyslot(h *Header, secret []byte) error {
	if !h.Version.HasKeyslots() {
		return &FormatError{Field: "version", Message: "keyslots are not supported by v3 headers"}
	}

	_, idx, err := UnwrapMasterKey(h, secret)
	if err != nil {
		return err
	}

	if populatedCount(h.Keyslots) <= 1 {
		return &KeyslotError{Reason: ReasonLastSlot}
	}

	slots := append(h.Keyslots[:idx], h.Keyslots[idx+1:]...)
	h.Keyslots = append(slots, Keyslot{Empty: true})
	return nil
}
