package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/persistence/middleware"
	"github.com/aretw0/omnibot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.ExecutionStore, cfg middleware.EncryptionConfig) ports.ExecutionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunExecutionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	exec := domain.NewExecution("c1", "sac", "menu")
	exec.Variables["cpf"] = "12345678909"

	require.NoError(t, secure.Save(ctx, "c1", exec))
	require.NoError(t, secure.AppendVariable(ctx, "c1", "cpf", "12345678909"))
	assert.Equal(t, "12345678909", exec.Variables["cpf"], "caller's execution must not change")

	// The underlying store only sees ciphertext, but the cursor stays readable.
	stored, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "menu", stored.CurrentNodeID)
	assert.True(t, strings.HasPrefix(stored.Variables["cpf"], "enc:v1:"))
	assert.NotContains(t, stored.Variables["cpf"], "12345678909")

	rawVars, err := underlying.Variables(ctx, "c1")
	require.NoError(t, err)
	assert.NotEqual(t, "12345678909", rawVars["cpf"])

	loaded, err := secure.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "12345678909", loaded.Variables["cpf"])

	vars, err := secure.Variables(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cpf": "12345678909"}, vars)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	exec := domain.NewExecution("c1", "sac", "start")
	exec.Variables["email"] = "old@example.com"
	require.NoError(t, secureOld.Save(ctx, "c1", exec))

	secureNew := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := secureNew.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "old@example.com", loaded.Variables["email"])

	loaded.Variables["email"] = "new@example.com"
	require.NoError(t, secureNew.Save(ctx, "c1", loaded))

	_, err = secureOld.Load(ctx, "c1")
	assert.Error(t, err, "old key alone must not open data sealed with the new key")
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.AppendVariable(ctx, "c1", "cpf", "12345678909"))

	key := generateKey(t)
	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: key}).Variables(ctx, "c1")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	vars, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: key, AllowPlaintext: true}).Variables(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "12345678909", vars["cpf"])
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
