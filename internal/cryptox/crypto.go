// Package cryptox derives the key material used to seal attachment blobs.
//
// A passphrase is stretched into a 32-byte master secret with Argon2id; each
// blob then gets its own 64-byte combined key (AES key ‖ MAC key) expanded
// from the master secret with HKDF-SHA-256, bound to the blob's storage key.
// Nothing derived here is ever persisted.
package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophmedia/internal/attachcipher"
	"github.com/dmitrijs2005/gophmedia/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the length of the Argon2id output.
const MasterKeySize = 32

const hkdfInfoPrefix = "gophmedia/attachment/v1:"

var ErrEmptyRef = errors.New("empty blob reference")

// DeriveMasterKey stretches password with Argon2id (t=1, m=64MiB, p=4).
func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, MasterKeySize)
	return x
}

// KeyProvider hands out combined key material for a stored blob.
type KeyProvider interface {
	// KeyFor returns attachcipher.KeySize bytes bound to ref. Callers own
	// the returned slice and should wipe it after use.
	KeyFor(ref string) ([]byte, error)
}

// HKDFKeyProvider expands per-blob keys from a master secret.
type HKDFKeyProvider struct {
	master []byte
}

// NewHKDFKeyProvider copies master; the caller may wipe its own copy.
func NewHKDFKeyProvider(master []byte) *HKDFKeyProvider {
	m := make([]byte, len(master))
	copy(m, master)
	return &HKDFKeyProvider{master: m}
}

func (p *HKDFKeyProvider) KeyFor(ref string) ([]byte, error) {
	if ref == "" {
		return nil, ErrEmptyRef
	}

	r := hkdf.New(sha256.New, p.master, nil, []byte(hkdfInfoPrefix+ref))

	key := make([]byte, attachcipher.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}

// Wipe zeroes the master secret. The provider is unusable afterwards.
func (p *HKDFKeyProvider) Wipe() {
	common.WipeByteArray(p.master)
}
