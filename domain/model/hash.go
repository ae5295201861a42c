package model

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize is the size of a DVM hash in bytes.
const HashSize = 32

// Hash is a DVM block hash, computed with blake2b-256.
type Hash [HashSize]byte

// String returns the Hash as a hexadecimal string.
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// IsZero returns whether hash is all zeros.
func (hash Hash) IsZero() bool {
	return hash == Hash{}
}

// NewHashFromStr creates a Hash from its hexadecimal string form.
func NewHashFromStr(hashStr string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hashStr)
	if err != nil {
		return hash, errors.Wrapf(err, "invalid hash %s", hashStr)
	}
	if len(decoded) != HashSize {
		return hash, errors.Errorf("invalid hash length of %d, want %d", len(decoded), HashSize)
	}
	copy(hash[:], decoded)
	return hash, nil
}
