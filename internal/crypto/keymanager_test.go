package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known hardhat account #0.
const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestEncryptDecryptKey(t *testing.T) {
	blob, err := EncryptKey("0x"+testKey, "hunter2")
	require.NoError(t, err)
	assert.Contains(t, string(blob), testAddress)
	assert.NotContains(t, string(blob), testKey)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptKeyRejectsBadInput(t *testing.T) {
	_, err := EncryptKey(testKey, "")
	assert.Error(t, err)

	_, err = EncryptKey("zz", "pw")
	assert.Error(t, err)
}

func TestLoadKeyRaw(t *testing.T) {
	key, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKey})
	require.NoError(t, err)
	assert.Equal(t, testAddress, Address(key).Hex())
}

func TestLoadKeyEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testKey, "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	cfg := KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"}
	assert.True(t, cfg.Configured())

	key, err := LoadKey(cfg)
	require.NoError(t, err)
	assert.Equal(t, testAddress, Address(key).Hex())
}

func TestLoadKeyNoSource(t *testing.T) {
	cfg := KeyConfig{}
	assert.False(t, cfg.Configured())
	_, err := LoadKey(cfg)
	assert.ErrorIs(t, err, ErrNoKey)
}
