package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/gtank/cryptopasta"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidKey is returned when the master key is not 32 bytes.
var ErrInvalidKey = errors.New("encryption key must be exactly 32 bytes")

const sealInfo = "moneyflow statement secret v1"

// Encryptor seals short secrets, such as statement passwords, for storage in
// account parser options. Ciphertexts are AES-256-GCM, base64 encoded.
type Encryptor struct {
	key *[32]byte
}

// NewEncryptor derives the sealing key from a 32 byte master key.
func NewEncryptor(masterKey string) (*Encryptor, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidKey
	}

	key := &[32]byte{}
	kdf := hkdf.New(sha256.New, []byte(masterKey), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &Encryptor{key: key}, nil
}

// Encrypt seals plaintext. The empty string stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := cryptopasta.Encrypt([]byte(plaintext), e.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. The empty string stays empty.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	plaintext, err := cryptopasta.Decrypt(sealed, e.key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
