package omnibot_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/omnibot"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowYAML = `
id: sac
active: true
nodes:
  - id: ask
    type: collectInfo
    data:
      userMessage: "Qual seu email?"
      validationType: email
      variableName: email
  - id: done
    type: transfer
    data:
      queue: cadastro
edges:
  - {source: ask, target: done}
`

func TestNew_FromFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sac.yaml"), []byte(flowYAML), 0644))

	eng, err := omnibot.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), eng.Name)
	require.NoError(t, eng.Validate(context.Background()))

	ctx := context.Background()
	resp, err := eng.Start(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseInputRequest, resp.Type)
	assert.Contains(t, resp.Content, "Qual seu email?")

	resp, err = eng.HandleMessage(ctx, domain.InboundMessage{ConversationID: "c1", Content: "nao-e-email", MessageType: domain.MessageText})
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseInputRequest, resp.Type)
	assert.Contains(t, resp.Content, "Formato inválido")

	resp, err = eng.HandleMessage(ctx, domain.InboundMessage{ConversationID: "c1", Content: "ana@example.com", MessageType: domain.MessageText})
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseTransfer, resp.Type)
	assert.Equal(t, "cadastro", resp.TransferQueue)

	exec, err := eng.Execution(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", exec.Variables["email"])

	vars, err := eng.Store().Variables(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", vars["email"])
}

func TestNew_RequiresPathOrLoader(t *testing.T) {
	_, err := omnibot.New("")
	assert.Error(t, err)

	_, err = omnibot.New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestValidate_ReportsMissingWriteAction(t *testing.T) {
	loader, err := memory.NewLoader(&domain.FlowDefinition{
		ID:     "f",
		Active: true,
		Nodes: []domain.FlowNode{
			domain.NewNode("save", domain.ExecuteWriteAction{WriteActionID: "wa-missing"}),
			domain.NewNode("done", domain.Transfer{}),
		},
		Edges: []domain.FlowEdge{{Source: "save", Target: "done"}},
	})
	require.NoError(t, err)

	eng, err := omnibot.New("", omnibot.WithLoader(loader), omnibot.WithCatalog(memory.NewCatalog()))
	require.NoError(t, err)
	assert.ErrorContains(t, eng.Validate(context.Background()), "wa-missing")
}

func TestChainHooks_RunsAllInOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) domain.LifecycleHooks {
		return domain.LifecycleHooks{
			OnTransfer: func(ctx context.Context, conversationID, queue string) {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, name+":"+queue)
			},
		}
	}

	hooks := omnibot.ChainHooks(record("a"), domain.LifecycleHooks{}, record("b"))
	require.NotNil(t, hooks.OnTransfer)
	assert.Nil(t, hooks.OnNodeEnter)

	hooks.OnTransfer(context.Background(), "c1", "geral")
	assert.Equal(t, []string{"a:geral", "b:geral"}, calls)
}
