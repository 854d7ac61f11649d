package middleware

import "github.com/aretw0/parkdash/pkg/ports"

// Middleware allows wrapping a CredentialStore to add behavior.
type Middleware func(ports.CredentialStore) ports.CredentialStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.CredentialStore, mws ...Middleware) ports.CredentialStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
