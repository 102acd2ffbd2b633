package attachcipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
)

// Reader yields the plaintext of an authenticated blob.
type Reader struct {
	src       *io.SectionReader
	mode      cipher.BlockMode
	remaining int64

	in    []byte
	plain []byte
	off   int
	err   error
}

// NewReader authenticates the size-byte blob in src and returns a Reader
// over its plaintext.
//
// The MAC over IV ‖ ciphertext is recomputed and compared in constant time
// with the trailing tag before any decryption happens. A mismatch, or a
// size that no sealed blob can have, yields ErrIntegrity. Bad padding on an
// authenticated blob surfaces as ErrPadding from Read at end of stream.
//
// key must be KeySize bytes; anything else panics with *KeyMaterialError.
func NewReader(src io.ReaderAt, size int64, key []byte) (*Reader, error) {
	cipherKey, macKey := splitKey(key)

	if size < IVSize+aes.BlockSize+TagSize || (size-IVSize-TagSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: malformed blob length %d", ErrIntegrity, size)
	}
	ctLen := size - IVSize - TagSize

	mac := hmac.New(sha256.New, macKey)
	if _, err := io.Copy(mac, io.NewSectionReader(src, 0, IVSize+ctLen)); err != nil {
		return nil, fmt.Errorf("attachcipher: read blob: %w", err)
	}

	tag := make([]byte, TagSize)
	if _, err := io.ReadFull(io.NewSectionReader(src, IVSize+ctLen, TagSize), tag); err != nil {
		return nil, fmt.Errorf("attachcipher: read tag: %w", err)
	}

	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, ErrIntegrity
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(io.NewSectionReader(src, 0, IVSize), iv); err != nil {
		return nil, fmt.Errorf("attachcipher: read iv: %w", err)
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("attachcipher: %w", err)
	}

	return &Reader{
		src:       io.NewSectionReader(src, IVSize, ctLen),
		mode:      cipher.NewCBCDecrypter(block, iv),
		remaining: ctLen,
	}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for r.off == len(r.plain) {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.plain[r.off:])
	r.off += n
	return n, nil
}

// fill decrypts the next chunk; the last chunk is unpadded and ends the stream.
func (r *Reader) fill() {
	n := int(min(r.remaining, chunkSize))
	if cap(r.in) < n {
		r.in = make([]byte, n)
		r.plain = make([]byte, n)
	}
	in := r.in[:n]

	if _, err := io.ReadFull(r.src, in); err != nil {
		r.err = fmt.Errorf("attachcipher: read ciphertext: %w", err)
		return
	}
	r.remaining -= int64(n)

	r.plain = r.plain[:n]
	r.mode.CryptBlocks(r.plain, in)
	r.off = 0

	if r.remaining > 0 {
		return
	}

	unpadded, err := unpad(r.plain)
	if err != nil {
		r.plain = r.plain[:0]
		r.err = err
		return
	}
	r.plain = unpadded
	r.err = io.EOF
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%aes.BlockSize != 0 {
		return nil, ErrPadding
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, ErrPadding
	}
	if !bytes.Equal(b[len(b)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, ErrPadding
	}
	return b[:len(b)-pad], nil
}

// Decrypt authenticates and decrypts a whole in-memory blob.
func Decrypt(blob, key []byte) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(blob), int64(len(blob)), key)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
