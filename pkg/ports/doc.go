/*
Package ports defines the driven ports (interfaces) of the omnibot engine.

These interfaces decouple the flow interpreter from storage backends, the
ERP transport and the notification fan-out.

# Key Interfaces

  - FlowLoader: retrieves flow definitions (files, memory).
  - ExecutionStore / VariableStore: persist per-conversation state and variables.
  - ActionClient / WriteActionCatalog: resolve and invoke external write actions.
  - EventPublisher / EventSink: emit and deliver conversation events.
  - DistributedLocker: serializes turns of one conversation across replicas.
*/
package ports
