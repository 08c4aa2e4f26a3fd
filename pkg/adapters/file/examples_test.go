package file_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/omnibot/internal/validator"
	"github.com/aretw0/omnibot/pkg/actions"
	"github.com/aretw0/omnibot/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledExamplesAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "examples", "flows")

	loader, err := file.NewLoader(dir, "")
	require.NoError(t, err)
	flow, err := loader.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sac", flow.ID)
	require.NoError(t, validator.ValidateFlow(flow))

	catalog, err := file.LoadCatalog(filepath.Join(dir, "erp.actions.yaml"))
	require.NoError(t, err)
	all := append(catalog.List(), actions.QueryActions()...)
	assert.NoError(t, validator.ValidateWriteActions(flow, all))
}
