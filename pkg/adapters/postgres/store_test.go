package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/omnibot/pkg/adapters/postgres"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.ExecutionStore     = (*postgres.Store)(nil)
	_ ports.WriteActionCatalog = (*postgres.Store)(nil)
)

func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("OMNIBOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("OMNIBOT_TEST_POSTGRES_DSN not set")
	}
	store, err := postgres.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore_Contract(t *testing.T) {
	ports.RunExecutionStoreContract(t, openStore(t))
}

func TestPostgresStore_WriteActions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutWriteAction(ctx, domain.WriteAction{
		ID: "pg-wa-1", Name: "pg_atualizar", HTTPMethod: "put", Endpoint: "/x", Active: true,
		ResponseExpr: `"Protocolo " + protocolo`,
	}))
	require.NoError(t, store.PutWriteAction(ctx, domain.WriteAction{
		ID: "pg-wa-2", Name: "pg_inativa", Endpoint: "/y", Active: false,
	}))

	wa, err := store.WriteAction(ctx, "pg_atualizar")
	require.NoError(t, err)
	assert.Equal(t, "pg-wa-1", wa.ID)
	assert.Equal(t, "PUT", wa.HTTPMethod)
	assert.Equal(t, `"Protocolo " + protocolo`, wa.ResponseExpr)

	_, err = store.WriteAction(ctx, "pg-wa-2")
	assert.ErrorIs(t, err, domain.ErrWriteActionNotFound)
}
