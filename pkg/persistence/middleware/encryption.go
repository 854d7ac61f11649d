package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	// ErrNotSealed is returned when encryption is configured but the stored
	// credentials carry plaintext tokens.
	ErrNotSealed = errors.New("credentials are not sealed")
	// ErrInvalidKey is returned for keys that are not 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals every new save.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a record.
	FallbackKeys [][]byte
}

// ParseKey decodes a 64 character hex key or a base64 encoded key.
func ParseKey(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	return nil, ErrInvalidKey
}

// secret is the sealed part of the credentials.
type secret struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
}

type encryptionMiddleware struct {
	next   ports.CredentialStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals tokens and role with AES-GCM before they reach the
// wrapped store. Only UpdatedAt stays readable.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key: %w", ErrInvalidKey)
		}
	}
	return func(next ports.CredentialStore) ports.CredentialStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, creds domain.Credentials) error {
	plainText, err := json.Marshal(secret{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Role:         creds.Role,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	envelope := domain.Credentials{
		Sealed:    base64.StdEncoding.EncodeToString(ciphertext),
		UpdatedAt: creds.UpdatedAt,
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (domain.Credentials, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return domain.Credentials{}, err
	}

	// fail secure: plaintext records are refused once encryption is on
	if envelope.Sealed == "" {
		return domain.Credentials{}, ErrNotSealed
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var s secret
	if err := json.Unmarshal(plainText, &s); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to unmarshal decrypted credentials: %w", err)
	}

	return domain.Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Role:         s.Role,
		UpdatedAt:    envelope.UpdatedAt,
	}, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
