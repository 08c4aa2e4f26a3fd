package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/omnibot/internal/presentation/tui"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestPresenter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPresenter(&buf, false)

	p.Show(&domain.BotResponse{
		Type:    domain.ResponseMenu,
		Content: "Escolha:",
		Buttons: []string{"Fatura", "Atendente"},
	})
	p.Show(&domain.BotResponse{
		Type:          domain.ResponseInputRequest,
		Content:       "Por favor, digite seu CPF:",
		RequiresInput: true,
		InputType:     domain.InputCPF,
	})
	p.Show(&domain.BotResponse{Type: domain.ResponseTransfer, Content: "Aguarde"})
	p.Show(nil)

	assert.Equal(t,
		"bot> Escolha:\n"+
			"  [1] Fatura\n"+
			"  [2] Atendente\n"+
			"bot> Por favor, digite seu CPF:\n"+
			"  (cpf)\n"+
			"bot> Aguarde\n"+
			"-- transferred to queue geral --\n",
		buf.String())
}

func TestPresenter_ErrorPrefix(t *testing.T) {
	var buf bytes.Buffer
	tui.NewPresenter(&buf, false).Show(&domain.BotResponse{Type: domain.ResponseError, Content: "Falhou"})
	assert.Equal(t, "bot! Falhou\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_.__/")
}
