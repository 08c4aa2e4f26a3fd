package actions

import "github.com/aretw0/omnibot/pkg/domain"

// QueryActions returns the stock ERP lookups used by integration nodes.
// They POST the node's input variable as JSON, so no body template is set.
func QueryActions() []domain.WriteAction {
	return []domain.WriteAction{
		{ID: "query-buscar-fatura-cpf", Name: "buscar_fatura_cpf", HTTPMethod: "POST", Endpoint: "/faturas/buscar", Active: true},
		{ID: "query-consultar-historico", Name: "consultar_historico", HTTPMethod: "POST", Endpoint: "/clientes/historico", Active: true},
		{ID: "query-verificar-status", Name: "verificar_status", HTTPMethod: "POST", Endpoint: "/pedidos/status", Active: true},
		{ID: "query-buscar-produto", Name: "buscar_produto", HTTPMethod: "POST", Endpoint: "/produtos/buscar", Active: true},
	}
}
