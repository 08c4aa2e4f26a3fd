// Package middleware wraps an execution store to add behavior such as
// encryption at rest or PII masking.
package middleware

import "github.com/aretw0/omnibot/pkg/ports"

// Middleware allows wrapping an ExecutionStore to add behavior.
type Middleware func(ports.ExecutionStore) ports.ExecutionStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.ExecutionStore, mws ...Middleware) ports.ExecutionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
