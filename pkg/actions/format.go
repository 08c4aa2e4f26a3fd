package actions

import (
	"fmt"
	"strings"
)

// Formatter turns a successful ERP payload into customer-facing text.
type Formatter func(data map[string]any) string

// DefaultFormatters cover the stock ERP queries.
func DefaultFormatters() map[string]Formatter {
	return map[string]Formatter{
		"buscar_fatura_cpf":   formatInvoice,
		"consultar_historico": formatHistory,
		"verificar_status":    formatOrder,
		"buscar_produto":      formatProduct,
	}
}

func firstItem(data map[string]any, key string) (map[string]any, bool) {
	list, ok := data[key].([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	item, ok := list[0].(map[string]any)
	return item, ok
}

func formatInvoice(data map[string]any) string {
	f, ok := firstItem(data, "faturas")
	if !ok {
		return "Nenhuma fatura encontrada para este CPF."
	}
	return fmt.Sprintf("Encontrei sua fatura:\n\nVencimento: %v\nValor: R$ %v\nStatus: %v", f["vencimento"], f["valor"], f["status"])
}

func formatHistory(data map[string]any) string {
	list, ok := data["historico"].([]any)
	if !ok || len(list) == 0 {
		return "Nenhum histórico encontrado."
	}
	if len(list) > 3 {
		list = list[:3]
	}
	lines := make([]string, 0, len(list))
	for _, raw := range list {
		item, _ := raw.(map[string]any)
		lines = append(lines, fmt.Sprintf("• %v: %v", item["data"], item["descricao"]))
	}
	return "Seu histórico:\n\n" + strings.Join(lines, "\n")
}

func formatOrder(data map[string]any) string {
	p, ok := data["pedido"].(map[string]any)
	if !ok {
		return "Pedido não encontrado."
	}
	return fmt.Sprintf("Status do seu pedido:\n\nPedido: %v\nStatus: %v\nPrevisão: %v", p["numero"], p["status"], p["previsao"])
}

func formatProduct(data map[string]any) string {
	p, ok := firstItem(data, "produtos")
	if !ok {
		return "Produto não encontrado."
	}
	stock := "Indisponível"
	if n, ok := p["estoque"].(float64); ok && n > 0 {
		stock = "Em estoque"
	}
	return fmt.Sprintf("Produto encontrado:\n\n%v\nPreço: R$ %v\nDisponibilidade: %s", p["nome"], p["preco"], stock)
}
