package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/omnibot/internal/config"
	"github.com/aretw0/omnibot/internal/presentation/tui"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChat_UntilTransfer(t *testing.T) {
	ctx := context.Background()
	stack, err := Build(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer stack.Close()

	var out bytes.Buffer
	in := strings.NewReader("\nnada\natendente\n")
	require.NoError(t, RunChat(ctx, stack.Engine, "c1", in, tui.NewPresenter(&out, false)))

	got := out.String()
	assert.Contains(t, got, "bot> Olá!")
	assert.Contains(t, got, "  [1] Fatura\n  [2] Atendente\n")
	assert.Contains(t, got, "Opção inválida")
	assert.Contains(t, got, "-- transferred to queue atendimento --")

	exec, err := stack.Engine.Execution(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransferred, exec.Status)
}

func TestRunChat_ResumeAndExit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stack, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	defer stack.Close()

	_, err = stack.Engine.Start(ctx, "c1")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunChat(ctx, stack.Engine, "c1", strings.NewReader("exit\n"), tui.NewPresenter(&out, false)))
	assert.Contains(t, out.String(), ">>> resuming conversation c1 at node menu")
}

func TestRunChat_TransferredConversation(t *testing.T) {
	ctx := context.Background()
	stack, err := Build(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer stack.Close()

	_, err = stack.Engine.Start(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, stack.Engine.Assign(ctx, "c1", "agent-7"))

	var out bytes.Buffer
	err = RunChat(ctx, stack.Engine, "c1", strings.NewReader(""), tui.NewPresenter(&out, false))
	assert.ErrorIs(t, err, domain.ErrNotBotHandled)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "json"

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, cfg)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	cfg.LogLevel = "loud"
	_, err = NewLogger(&buf, cfg)
	assert.Error(t, err)
}
