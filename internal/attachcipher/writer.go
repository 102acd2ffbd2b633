package attachcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"github.com/dmitrijs2005/gophmedia/internal/common"
)

// chunkSize bounds the scratch buffer used per cipher call; multiple of the block size.
const chunkSize = 32 * 1024

// Writer encrypts everything written to it into dst.
//
// Full ciphertext blocks reach dst as soon as they are produced; at most one
// partial plaintext block is held back until more data or Close arrives.
// Writer intentionally has no WriteByte: feeding the cipher and the MAC one
// byte at a time is never what a caller wants.
type Writer struct {
	dst  io.Writer
	mode cipher.BlockMode
	mac  hash.Hash

	pending [aes.BlockSize]byte
	n       int
	scratch []byte

	closed bool
	err    error
}

// NewWriter starts a sealed blob on dst: it draws a fresh random IV, writes
// it to dst and feeds it to the MAC before any plaintext is accepted.
//
// key must be KeySize bytes; anything else panics with *KeyMaterialError.
// The returned error is only ever a failure to write the IV.
func NewWriter(dst io.Writer, key []byte) (*Writer, error) {
	return newWriter(dst, key, common.GenerateRandByteArray(IVSize))
}

func newWriter(dst io.Writer, key, iv []byte) (*Writer, error) {
	cipherKey, macKey := splitKey(key)

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("attachcipher: %w", err)
	}

	w := &Writer{
		dst:  dst,
		mode: cipher.NewCBCEncrypter(block, iv),
		mac:  hmac.New(sha256.New, macKey),
	}

	w.mac.Write(iv)
	if _, err := dst.Write(iv); err != nil {
		return nil, fmt.Errorf("attachcipher: write iv: %w", err)
	}

	return w, nil
}

// Write encrypts p. Chunks of any size, including empty ones, are accepted.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	if w.err != nil {
		return 0, w.err
	}

	total := len(p)

	if w.n > 0 {
		k := copy(w.pending[w.n:], p)
		w.n += k
		p = p[k:]
		if w.n < aes.BlockSize {
			return total, nil
		}
		if err := w.emit(w.pending[:]); err != nil {
			return 0, err
		}
		w.n = 0
	}

	full := len(p) - len(p)%aes.BlockSize
	if full > 0 {
		if err := w.emit(p[:full]); err != nil {
			return 0, err
		}
	}
	w.n = copy(w.pending[:], p[full:])

	return total, nil
}

// emit encrypts block-aligned plaintext, feeds it to the MAC and writes it out.
func (w *Writer) emit(plain []byte) error {
	for len(plain) > 0 {
		n := min(len(plain), chunkSize)
		if cap(w.scratch) < n {
			w.scratch = make([]byte, n)
		}
		out := w.scratch[:n]

		w.mode.CryptBlocks(out, plain[:n])
		w.mac.Write(out)
		if _, err := w.dst.Write(out); err != nil {
			w.err = fmt.Errorf("attachcipher: write ciphertext: %w", err)
			return w.err
		}
		plain = plain[n:]
	}
	return nil
}

// Close pads and encrypts the final block, then writes the final block
// followed by the MAC tag. The writer cannot be used afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	defer common.WipeByteArray(w.pending[:])

	if w.err != nil {
		return w.err
	}

	pad := byte(aes.BlockSize - w.n)
	for i := w.n; i < aes.BlockSize; i++ {
		w.pending[i] = pad
	}

	final := make([]byte, aes.BlockSize)
	w.mode.CryptBlocks(final, w.pending[:])
	w.mac.Write(final)
	tag := w.mac.Sum(nil)

	if _, err := w.dst.Write(final); err != nil {
		return fmt.Errorf("attachcipher: write final block: %w", err)
	}
	if _, err := w.dst.Write(tag); err != nil {
		return fmt.Errorf("attachcipher: write tag: %w", err)
	}

	return nil
}

// Abort ends the writer without writing a trailer, leaving dst holding an
// unsealed prefix that any Reader rejects. It is a no-op after Close, so
// callers can defer it right after NewWriter and Close on the success path.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	common.WipeByteArray(w.pending[:])
}

// Encrypt seals everything read from src into dst and returns the number of
// plaintext bytes consumed. On error dst holds an unsealed prefix and must be
// discarded.
func Encrypt(dst io.Writer, src io.Reader, key []byte) (int64, error) {
	w, err := NewWriter(dst, key)
	if err != nil {
		return 0, err
	}
	defer w.Abort()

	n, err := io.Copy(w, src)
	if err != nil {
		return n, fmt.Errorf("attachcipher: encrypt: %w", err)
	}

	return n, w.Close()
}
