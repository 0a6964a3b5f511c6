package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
)

// Encryptor seals record fields at rest.
type Encryptor interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// NewAESEncryptor creates an AES-GCM encryptor. key must be 16, 24 or 32 bytes.
func NewAESEncryptor(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryption
	}

	return &aesEncryptor{gcm: gcm}, nil
}

// NewEncryptorFromKey decodes a base64 key. An empty key yields a
// pass-through encryptor.
func NewEncryptorFromKey(encoded string) (Encryptor, error) {
	if encoded == "" {
		return NopEncryptor{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidKeySize
	}
	return NewAESEncryptor(key)
}

type aesEncryptor struct {
	gcm cipher.AEAD
}

func (a *aesEncryptor) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ErrEncryption
	}

	return a.gcm.Seal(nonce, nonce, data, nil), nil
}

func (a *aesEncryptor) Decrypt(data []byte) ([]byte, error) {
	nonceSize := a.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := a.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}

// NopEncryptor leaves data unchanged.
type NopEncryptor struct{}

func (NopEncryptor) Encrypt(data []byte) ([]byte, error) { return data, nil }
func (NopEncryptor) Decrypt(data []byte) ([]byte, error) { return data, nil }

// EncryptString seals s and returns it base64 encoded. Pass-through
// encryptors return s unchanged.
func EncryptString(e Encryptor, s string) (string, error) {
	if _, ok := e.(NopEncryptor); ok || s == "" {
		return s, nil
	}
	sealed, err := e.Encrypt([]byte(s))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func DecryptString(e Encryptor, s string) (string, error) {
	if _, ok := e.(NopEncryptor); ok || s == "" {
		return s, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", ErrDecryption
	}
	plain, err := e.Decrypt(raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
