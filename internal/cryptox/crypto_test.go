package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/gophmedia/internal/attachcipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	require.Len(t, key1, MasterKeySize)
	assert.Equal(t, key1, key2)

	// snapshot of the Argon2id parameters in use
	assert.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", hex.EncodeToString(key1))
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	assert.False(t, bytes.Equal(key1, key2))
}

func TestHKDFKeyProvider(t *testing.T) {
	master := bytes.Repeat([]byte{7}, MasterKeySize)
	p := NewHKDFKeyProvider(master)

	k1, err := p.KeyFor("attachments/1")
	require.NoError(t, err)
	require.Len(t, k1, attachcipher.KeySize)
	require.NoError(t, attachcipher.CheckKey(k1))

	again, err := p.KeyFor("attachments/1")
	require.NoError(t, err)
	assert.Equal(t, k1, again, "same ref, same key")

	k2, err := p.KeyFor("attachments/1.thumb")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "different refs, different keys")

	other := NewHKDFKeyProvider(bytes.Repeat([]byte{8}, MasterKeySize))
	k3, err := other.KeyFor("attachments/1")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "different master, different keys")

	_, err = p.KeyFor("")
	require.ErrorIs(t, err, ErrEmptyRef)
}

func TestHKDFKeyProvider_CopiesMaster(t *testing.T) {
	master := bytes.Repeat([]byte{1}, MasterKeySize)
	p := NewHKDFKeyProvider(master)
	before, err := p.KeyFor("x")
	require.NoError(t, err)

	master[0] = 99
	after, err := p.KeyFor("x")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	p.Wipe()
	wiped, err := p.KeyFor("x")
	require.NoError(t, err)
	assert.NotEqual(t, before, wiped)
}
