package domain

const (
	// DefaultQueue receives conversations transferred without an explicit queue.
	DefaultQueue = "geral"

	// DefaultIntegrationInput is the variable an integration node reads when none is configured.
	DefaultIntegrationInput = "input"
)

// SystemMessages are the customizable texts the bot falls back on.
type SystemMessages struct {
	Welcome          string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	BotError         string `json:"bot_error,omitempty" yaml:"bot_error,omitempty"`
	Transfer         string `json:"transfer,omitempty" yaml:"transfer,omitempty"`
	InvalidSelection string `json:"invalid_selection,omitempty" yaml:"invalid_selection,omitempty"`
	InvalidInput     string `json:"invalid_input,omitempty" yaml:"invalid_input,omitempty"`
	ActionSuccess    string `json:"action_success,omitempty" yaml:"action_success,omitempty"`
	QuerySuccess     string `json:"query_success,omitempty" yaml:"query_success,omitempty"`
}

// DefaultSystemMessages returns the stock Portuguese texts.
func DefaultSystemMessages() SystemMessages {
	return SystemMessages{
		Welcome:          "Olá! Bem-vindo ao nosso atendimento. Como posso ajudá-lo hoje?",
		BotError:         "Desculpe, ocorreu um erro. Por favor, tente novamente ou digite \"atendente\" para falar com nossa equipe.",
		Transfer:         "Aguarde, um de nossos atendentes irá ajudá-lo em breve.",
		InvalidSelection: "Opção inválida. Por favor, escolha uma das opções abaixo.",
		InvalidInput:     "Formato inválido. Tente novamente.",
		ActionSuccess:    "Dados atualizados com sucesso!",
		QuerySuccess:     "Consulta realizada com sucesso!",
	}
}

// Merge returns m with empty fields filled from fallback.
func (m SystemMessages) Merge(fallback SystemMessages) SystemMessages {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return SystemMessages{
		Welcome:          pick(m.Welcome, fallback.Welcome),
		BotError:         pick(m.BotError, fallback.BotError),
		Transfer:         pick(m.Transfer, fallback.Transfer),
		InvalidSelection: pick(m.InvalidSelection, fallback.InvalidSelection),
		InvalidInput:     pick(m.InvalidInput, fallback.InvalidInput),
		ActionSuccess:    pick(m.ActionSuccess, fallback.ActionSuccess),
		QuerySuccess:     pick(m.QuerySuccess, fallback.QuerySuccess),
	}
}
