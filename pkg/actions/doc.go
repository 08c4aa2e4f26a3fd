// Package actions calls external write actions and ERP queries.
//
// Request bodies are built from templates with {{variable}} placeholders
// filled from the conversation variables. Calls go out through resty with a
// bearer token, a bounded timeout and no retries.
//
// A write action may carry a response expression (expr-lang syntax) that turns
// the decoded payload into customer text:
//
//	response_expr: '"Chamado " + protocolo + " aberto."'
package actions
