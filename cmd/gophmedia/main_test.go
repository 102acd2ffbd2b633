package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophmedia/internal/app"
	"github.com/dmitrijs2005/gophmedia/internal/attachcipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	base  string
	flags []string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv(app.PassphraseEnv, "test passphrase")
	return &cliEnv{
		base: base,
		flags: []string{
			"-d", filepath.Join(base, "gophmedia.db"),
			"--blob-dir", filepath.Join(base, "blobs"),
			"-w", "2",
		},
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, err := newRootCommand(args)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append(args, e.flags...)...)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLengthCommand(t *testing.T) {
	out, err := runCLI(t, "length", "0")
	require.NoError(t, err)
	assert.Equal(t, "64\n", out)

	out, err = runCLI(t, "length", "16")
	require.NoError(t, err)
	assert.Equal(t, "80\n", out)

	_, err = runCLI(t, "length", "-3")
	require.Error(t, err)
}

func TestEncryptDecryptCommands(t *testing.T) {
	dir := t.TempDir()
	key := hex.EncodeToString(bytes.Repeat([]byte{0x42}, attachcipher.KeySize))
	plainPath := filepath.Join(dir, "plain.txt")
	sealedPath := filepath.Join(dir, "sealed.bin")
	plain := []byte(strings.Repeat("attachment bytes ", 1000))
	require.NoError(t, os.WriteFile(plainPath, plain, 0o600))

	_, err := runCLI(t, "encrypt", "--key-hex", key, plainPath, sealedPath)
	require.NoError(t, err)

	sealed, err := os.ReadFile(sealedPath)
	require.NoError(t, err)
	assert.Equal(t, attachcipher.CiphertextLength(int64(len(plain))), int64(len(sealed)))

	out, err := runCLI(t, "decrypt", "-k", key, sealedPath, "-")
	require.NoError(t, err)
	assert.Equal(t, string(plain), out)

	// tampering is detected before any output
	sealed[len(sealed)-1] ^= 0xff
	require.NoError(t, os.WriteFile(sealedPath, sealed, 0o600))
	out, err = runCLI(t, "decrypt", "-k", key, sealedPath, "-")
	require.ErrorIs(t, err, attachcipher.ErrIntegrity)
	assert.Empty(t, out)
}

func TestEncryptCommand_ProgressAndCleanOutputDir(t *testing.T) {
	dir := t.TempDir()
	key := hex.EncodeToString(bytes.Repeat([]byte{0x17}, attachcipher.KeySize))
	in := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(in, bytes.Repeat([]byte{1}, 4096), 0o600))

	cmd, err := newRootCommand([]string{"encrypt", "--progress", "-k", key, in, filepath.Join(dir, "sealed.bin")})
	require.NoError(t, err)
	var errOut bytes.Buffer
	cmd.SetOut(io.Discard)
	cmd.SetErr(&errOut)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, errOut.String(), "encrypt 100%")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"plain.bin", "sealed.bin"}, names)
}

func TestEncryptCommand_OutputFailureWaitsForEncoder(t *testing.T) {
	dir := t.TempDir()
	key := hex.EncodeToString(bytes.Repeat([]byte{0x17}, attachcipher.KeySize))
	in := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(in, bytes.Repeat([]byte{1}, 1<<20), 0o600))

	// the output's parent is a regular file, so nothing ever drains the pipe
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	for range 20 {
		_, err := runCLI(t, "encrypt", "-k", key, in, filepath.Join(blocker, "out.bin"))
		require.ErrorContains(t, err, "mkdir")
	}
}

func TestEncryptCommand_BadKey(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o600))

	_, err := runCLI(t, "encrypt", "--key-hex", "abcd", in, filepath.Join(dir, "out"))
	require.ErrorIs(t, err, attachcipher.ErrKeyMaterial)

	_, err = runCLI(t, "encrypt", "--key-hex", "zz", in, filepath.Join(dir, "out"))
	require.Error(t, err)

	_, err = runCLI(t, "encrypt", in, filepath.Join(dir, "out"))
	require.Error(t, err, "--key-hex is required")
}

func TestAttachmentWorkflow(t *testing.T) {
	env := setupCLIEnv(t)

	img := filepath.Join(env.base, "photo.png")
	writePNG(t, img, 800, 400)
	doc := filepath.Join(env.base, "notes.bin")
	require.NoError(t, os.WriteFile(doc, []byte("opaque"), 0o600))

	out, err := env.run(t, "import", img)
	require.NoError(t, err)
	imgID := strings.TrimSpace(out)
	assert.Equal(t, "1", imgID)

	out, err = env.run(t, "import", "--type", "application/octet-stream", doc)
	require.NoError(t, err)
	docID := strings.TrimSpace(out)

	thumbPath := filepath.Join(env.base, "thumb.jpg")
	_, err = env.run(t, "thumbnail", imgID, "-o", thumbPath)
	require.NoError(t, err)
	f, err := os.Open(thumbPath)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(f)
	_ = f.Close()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	_, err = env.run(t, "thumbnail", docID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no thumbnail")

	out, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, imgID+"\timage/png\t")
	assert.Contains(t, out, "\tthumbnail\n")
	assert.Contains(t, out, docID+"\tapplication/octet-stream\t6\t-\n")

	outDir := filepath.Join(env.base, "thumbs")
	out, err = env.run(t, "thumbnail", "--all", "--out-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, imgID+"\tok\n")
	assert.Contains(t, out, docID+"\tnone\n")
	_, err = os.Stat(filepath.Join(outDir, imgID+".jpg"))
	require.NoError(t, err)

	out, err = env.run(t, "export", docID)
	require.NoError(t, err)
	assert.Equal(t, "opaque", out)

	_, err = env.run(t, "delete", docID)
	require.NoError(t, err)
	_, err = env.run(t, "export", docID)
	require.Error(t, err)

	_, err = env.run(t, "export", "abc")
	require.Error(t, err)
}

func TestWrongPassphraseFailsIntegrity(t *testing.T) {
	env := setupCLIEnv(t)
	doc := filepath.Join(env.base, "a.txt")
	require.NoError(t, os.WriteFile(doc, []byte("secret"), 0o600))

	out, err := env.run(t, "import", doc)
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	t.Setenv(app.PassphraseEnv, "another passphrase")
	_, err = env.run(t, "export", id)
	require.ErrorIs(t, err, attachcipher.ErrIntegrity)
}

func TestJSONConfigIsOverriddenByFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"workers": 7, "thumbnail_max_size": 64}`), 0o600))

	cmd, err := newRootCommand([]string{"-c", cfgPath, "--workers", "3", "length", "1"})
	require.NoError(t, err)
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	flags := cmd.PersistentFlags()
	w, err := flags.GetInt("workers")
	require.NoError(t, err)
	assert.Equal(t, 3, w)
	size, err := flags.GetInt("thumb-size")
	require.NoError(t, err)
	assert.Equal(t, 64, size)
}
