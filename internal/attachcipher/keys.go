package attachcipher

import (
	"crypto/aes"
	"crypto/sha256"
	"errors"
	"fmt"
)

const (
	// CipherKeySize is the AES-256 key length.
	CipherKeySize = 32
	// MacKeySize is the HMAC-SHA-256 key length.
	MacKeySize = 32
	// KeySize is the length of combined key material.
	KeySize = CipherKeySize + MacKeySize

	// IVSize is the length of the leading initialization vector.
	IVSize = aes.BlockSize
	// TagSize is the length of the trailing MAC tag.
	TagSize = sha256.Size
)

var (
	// ErrKeyMaterial is matched by every *KeyMaterialError.
	ErrKeyMaterial = errors.New("attachcipher: invalid key material")

	// ErrIntegrity reports a blob whose tag does not verify or whose length
	// cannot belong to a sealed blob.
	ErrIntegrity = errors.New("attachcipher: integrity check failed")

	// ErrPadding reports bad PKCS#7 padding on an authenticated blob.
	ErrPadding = errors.New("attachcipher: invalid padding")

	// ErrWriterClosed is returned by Write and Close after the writer has
	// been closed or aborted.
	ErrWriterClosed = errors.New("attachcipher: writer closed")
)

// KeyMaterialError describes combined key material of the wrong length.
// Passing such material to NewWriter or NewReader is a programming error and
// panics with this value.
type KeyMaterialError struct {
	Len int
}

func (e *KeyMaterialError) Error() string {
	return fmt.Sprintf("attachcipher: key material is %d bytes, want %d", e.Len, KeySize)
}

func (e *KeyMaterialError) Unwrap() error {
	return ErrKeyMaterial
}

// CheckKey validates key material at a trust boundary (user input, config)
// where a panic would be inappropriate.
func CheckKey(key []byte) error {
	if len(key) != KeySize {
		return &KeyMaterialError{Len: len(key)}
	}
	return nil
}

// splitKey returns the cipher and MAC halves of key, panicking on malformed
// material. The halves alias key; aes.NewCipher and hmac.New do not retain them.
func splitKey(key []byte) (cipherKey, macKey []byte) {
	if err := CheckKey(key); err != nil {
		panic(err)
	}
	return key[:CipherKeySize], key[CipherKeySize:]
}

// CiphertextLength returns the sealed size of a plaintext of plaintextLen
// bytes: IV, padded ciphertext (always at least one padding byte) and tag.
// plaintextLen must not be negative.
func CiphertextLength(plaintextLen int64) int64 {
	return IVSize + (plaintextLen/aes.BlockSize+1)*aes.BlockSize + TagSize
}
