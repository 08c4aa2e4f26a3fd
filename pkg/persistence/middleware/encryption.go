package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

// sealedPrefix marks a variable value written by the encryption middleware.
const sealedPrefix = "enc:v1:"

// ErrNotEncrypted is returned when a stored variable is plaintext and plaintext is not allowed.
var ErrNotEncrypted = errors.New("variable is not encrypted")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// AllowPlaintext accepts values stored before encryption was enabled.
	AllowPlaintext bool
}

type encryptionMiddleware struct {
	next   ports.ExecutionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts conversation
// variables with AES-GCM. Variable names, the node cursor and the status stay
// readable so conversations can still be listed and routed.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256), got %d", i, len(k))
		}
	}
	return func(next ports.ExecutionStore) ports.ExecutionStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	sealed := exec.Snapshot()
	for name, value := range sealed.Variables {
		v, err := m.seal(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt variable %s: %w", name, err)
		}
		sealed.Variables[name] = v
	}
	return m.next.Save(ctx, conversationID, sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	exec, err := m.next.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	opened := exec.Snapshot()
	for name, value := range opened.Variables {
		v, err := m.open(value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt variable %s: %w", name, err)
		}
		opened.Variables[name] = v
	}
	return opened, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	sealed, err := m.seal(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt variable %s: %w", name, err)
	}
	return m.next.AppendVariable(ctx, conversationID, name, sealed)
}

func (m *encryptionMiddleware) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	vars, err := m.next.Variables(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(vars))
	for name, value := range vars {
		v, err := m.open(value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt variable %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (m *encryptionMiddleware) seal(value string) (string, error) {
	ciphertext, err := encrypt([]byte(value), m.config.ActiveKey)
	if err != nil {
		return "", err
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (m *encryptionMiddleware) open(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		if m.config.AllowPlaintext {
			return value, nil
		}
		return "", ErrNotEncrypted
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
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
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
