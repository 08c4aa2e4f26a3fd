/*
Package http exposes the flow engine as a webchat channel adapter.

Routes:

	POST /conversations                  start a conversation
	POST /conversations/{id}/messages    deliver a customer message
	GET  /conversations/{id}             execution snapshot
	POST /conversations/{id}/assign      hand to an agent
	POST /conversations/{id}/close       finish
	GET  /flow                           active flow definition
	GET  /events                         SSE stream of conversation events
	GET  /health, /metrics
*/
package http
