// Package attachcipher seals and opens attachment blobs.
//
// # Wire format
//
//	IV (16 bytes) ‖ ciphertext (AES-256-CBC, PKCS#7, multiple of 16) ‖ tag (32 bytes)
//
// The tag is HMAC-SHA-256 over IV ‖ ciphertext. Both directions take 64 bytes
// of combined key material: a 32-byte AES key followed by a 32-byte MAC key.
//
// Writer encrypts a plaintext stream of any chunking into a sink and appends
// the tag on Close. Reader authenticates the whole blob before it yields a
// single byte of plaintext, so callers never act on unauthenticated data.
//
// Typical Usage
//
//	w, err := attachcipher.NewWriter(dst, key)
//	if err != nil { ... }
//	defer w.Abort()
//	if _, err := io.Copy(w, src); err != nil { ... }
//	if err := w.Close(); err != nil { ... }
//
//	r, err := attachcipher.NewReader(f, size, key)
//	if errors.Is(err, attachcipher.ErrIntegrity) { ... }
//	plaintext, err := io.ReadAll(r)
package attachcipher
