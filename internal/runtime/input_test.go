package runtime

import (
	"testing"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name  string
		kind  domain.InputType
		raw   string
		want  string
		valid bool
	}{
		{"email ok", domain.InputEmail, " maria@example.com ", "maria@example.com", true},
		{"email missing at", domain.InputEmail, "not-an-email", "", false},
		{"email missing tld", domain.InputEmail, "a@b", "", false},
		{"phone with country code", domain.InputPhone, "+55 (11) 98765-4321", "+55 (11) 98765-4321", true},
		{"phone bare", domain.InputPhone, "987654321", "987654321", true},
		{"phone letters", domain.InputPhone, "call me", "", false},
		{"cpf formatted", domain.InputCPF, "111.111.111-11", "11111111111", true},
		{"cpf digits", domain.InputCPF, "22222222222", "22222222222", true},
		{"cpf short", domain.InputCPF, "1234", "", false},
		{"text trimmed", domain.InputText, "  Maria ", "Maria", true},
		{"text blank", domain.InputText, "   ", "", false},
		{"unknown kind behaves as text", "", "x", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateInput("n1", tt.kind, tt.raw)
			if !tt.valid {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "n1", vErr.NodeID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptFor(t *testing.T) {
	assert.Equal(t, "Por favor, digite seu CPF:", promptFor("cpf"))
	assert.Equal(t, "Por favor, digite seu email:", promptFor("email"))
	assert.Equal(t, "Por favor, digite seu telefone:", promptFor("telefone"))
	assert.Equal(t, "Por favor, digite pedido:", promptFor("pedido"))
}

func TestWantsHuman(t *testing.T) {
	assert.True(t, wantsHuman("Quero falar com um ATENDENTE"))
	assert.True(t, wantsHuman("humano por favor"))
	assert.True(t, wantsHuman("quero uma pessoa!"))
	assert.True(t, wantsHuman("atendente, por favor"))
	assert.False(t, wantsHuman("11111111111"))
	assert.False(t, wantsHuman("meus dados pessoais"))
	assert.False(t, wantsHuman("pessoal, cadê minha fatura?"))
}

func TestMenuEdge(t *testing.T) {
	buttons := []string{"A", "B"}

	t.Run("handles", func(t *testing.T) {
		edges := []domain.FlowEdge{
			{Source: "m", Target: "b", SourceHandle: "button-1"},
			{Source: "m", Target: "a", SourceHandle: "0"},
		}
		e, ok := menuEdge(edges, buttons, 1)
		require.True(t, ok)
		assert.Equal(t, "b", e.Target)
		e, ok = menuEdge(edges, buttons, 0)
		require.True(t, ok)
		assert.Equal(t, "a", e.Target)
	})

	t.Run("declaration order", func(t *testing.T) {
		edges := []domain.FlowEdge{{Source: "m", Target: "a"}, {Source: "m", Target: "b"}}
		e, ok := menuEdge(edges, buttons, 1)
		require.True(t, ok)
		assert.Equal(t, "b", e.Target)
	})

	t.Run("out of range", func(t *testing.T) {
		edges := []domain.FlowEdge{{Source: "m", Target: "a"}, {Source: "m", Target: "b"}}
		_, ok := menuEdge(edges, buttons, 5)
		assert.False(t, ok)
		_, ok = menuEdge(edges, buttons, -1)
		assert.False(t, ok)
	})

	t.Run("handled menu missing index", func(t *testing.T) {
		edges := []domain.FlowEdge{{Source: "m", Target: "a", SourceHandle: "0"}}
		_, ok := menuEdge(edges, buttons, 1)
		assert.False(t, ok)
	})
}

func TestResolveChoice(t *testing.T) {
	buttons := []string{"Consultar fatura", "Falar com atendente"}
	one := 1

	i, ok := resolveChoice(buttons, &Input{ButtonIndex: &one})
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = resolveChoice(buttons, &Input{Text: "consultar FATURA"})
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = resolveChoice(buttons, &Input{Text: "2"})
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = resolveChoice(buttons, &Input{Text: "talvez"})
	assert.False(t, ok)
}
