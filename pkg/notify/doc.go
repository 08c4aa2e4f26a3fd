/*
Package notify delivers conversation events to agents.

The engine publishes typed events to a Dispatcher, which owns a buffered
queue and a delivery goroutine. Each event is handed to every configured
sink (in-process Broker for SSE, NATS, logs) with bounded retries, so a
sink may see the same event more than once. Consumers dedupe on Event.ID.
*/
package notify
