package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/gtank/cryptopasta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterKey = "k3y-for-sealing-pdf-secrets-0001"

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	enc, err := NewEncryptor(masterKey)
	require.NoError(t, err)
	return enc
}

func TestNewEncryptor_KeyLength(t *testing.T) {
	for _, key := range []string{"", "short", masterKey + "x"} {
		_, err := NewEncryptor(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key of %d bytes", len(key))
	}
}

func TestNewEncryptor_DerivesKey(t *testing.T) {
	enc := newTestEncryptor(t)
	assert.NotEqual(t, []byte(masterKey), enc.key[:], "master key must not be used directly")

	again := newTestEncryptor(t)
	assert.Equal(t, enc.key, again.key)
}

func TestSealOpen_StatementSecret(t *testing.T) {
	enc := newTestEncryptor(t)

	for _, secret := range []string{"19840321", "pässwörd-€", strings.Repeat("x", 4096)} {
		sealed, err := enc.Encrypt(secret)
		require.NoError(t, err)
		assert.NotContains(t, sealed, secret)

		opened, err := enc.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, secret, opened)
	}
}

func TestEncrypt_Nonce(t *testing.T) {
	enc := newTestEncryptor(t)

	a, err := enc.Encrypt("19840321")
	require.NoError(t, err)
	b, err := enc.Encrypt("19840321")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmptyStringPassesThrough(t *testing.T) {
	enc := newTestEncryptor(t)

	sealed, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestDecrypt_Rejects(t *testing.T) {
	enc := newTestEncryptor(t)
	sealed, err := enc.Encrypt("19840321")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	other, err := NewEncryptor("another-master-key-of-32-bytes!!")
	require.NoError(t, err)

	// Sealed directly with the master key, skipping derivation.
	var rawKey [32]byte
	copy(rawKey[:], masterKey)
	underived, err := cryptopasta.Encrypt([]byte("19840321"), &rawKey)
	require.NoError(t, err)

	tests := []struct {
		name   string
		enc    *Encryptor
		sealed string
	}{
		{"not base64", enc, "%%%"},
		{"too short", enc, base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"tampered", enc, tampered},
		{"wrong key", other, sealed},
		{"underived key", enc, base64.StdEncoding.EncodeToString(underived)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.enc.Decrypt(tt.sealed)
			assert.Error(t, err)
		})
	}
}
