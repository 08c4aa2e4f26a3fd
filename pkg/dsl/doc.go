/*
Package dsl builds omnibot flows in Go instead of YAML or JSON files.

Example usage:

	b := dsl.New("suporte").Name("Suporte")

	b.Add("greet").Say("Olá! Sou o assistente virtual.").Go("menu")

	b.Add("menu").Menu("Como posso ajudar?").
		Button("Segunda via", "ask_cpf").
		Button("Falar com atendente", "human")

	b.Add("ask_cpf").Collect("Qual o seu CPF?", domain.InputCPF, "cpf").Go("invoice")
	b.Add("invoice").Query("buscar_fatura_cpf", "cpf").Go("human")
	b.Add("human").Transfer("atendimento", "")

	loader, err := b.Loader()
	// ... pass loader to omnibot.New("", omnibot.WithLoader(loader))
*/
package dsl
