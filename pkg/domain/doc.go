/*
Package domain contains the core models of the omnibot flow engine.

It defines the static flow graph, the per-conversation execution cursor and
the values exchanged with channel adapters and external services. The package
is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - FlowDefinition: the node/edge graph of a chatbot, immutable once loaded.
  - FlowNode: a tagged union over the node kinds (message, menu, collect,
    integration, write action, transfer).
  - FlowExecution: the runtime snapshot of a conversation (current node,
    collected variables, awaiting-input flag).
  - BotResponse: what the engine returns for the customer.
  - Event: the notifications consumed by agent dashboards.
*/
package domain
